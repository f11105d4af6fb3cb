package model

import "time"

// SuggestionKind classifies what a suggestion proposes.
type SuggestionKind string

const (
    KindTimeCorrection    SuggestionKind = "time_correction"
    KindAddressCorrection SuggestionKind = "address_correction"
    KindPhoneCorrection   SuggestionKind = "phone_correction"
    KindNewParish         SuggestionKind = "new_parish"
    KindNewPastoral       SuggestionKind = "new_pastoral"
    KindOther             SuggestionKind = "other"
)

// Valid reports whether k is one of the known kinds.
func (k SuggestionKind) Valid() bool {
    switch k {
    case KindTimeCorrection, KindAddressCorrection, KindPhoneCorrection,
        KindNewParish, KindNewPastoral, KindOther:
        return true
    }
    return false
}

// IsCorrection reports whether the kind targets an existing event or venue.
func (k SuggestionKind) IsCorrection() bool {
    return k == KindTimeCorrection || k == KindAddressCorrection || k == KindPhoneCorrection
}

// IsProposal reports whether the kind carries a structured new-entity payload.
func (k SuggestionKind) IsProposal() bool {
    return k == KindNewParish || k == KindNewPastoral
}

// SuggestionStatus is the moderation state.  pending is the only
// non-terminal state.
type SuggestionStatus string

const (
    StatusPending  SuggestionStatus = "pending"
    StatusAccepted SuggestionStatus = "accepted"
    StatusRejected SuggestionStatus = "rejected"
)

// ParseSuggestionStatus validates a status name.
func ParseSuggestionStatus(s string) (SuggestionStatus, bool) {
    switch SuggestionStatus(s) {
    case StatusPending, StatusAccepted, StatusRejected:
        return SuggestionStatus(s), true
    }
    return "", false
}

// Terminal reports whether no transition leaves s.
func (s SuggestionStatus) Terminal() bool { return s == StatusAccepted || s == StatusRejected }

// Suggestion is a crowd-submitted correction or proposal awaiting
// moderation.  Rows are never deleted so they double as an audit trail.
//
// Fields:
//  EventID / VenueID – at most one is set; both nil for new_parish,
//                      new_pastoral and other.
//  ProposedValue     – free text, or a JSON proposal for new_* kinds.
//  ResolvedAt        – set when the suggestion leaves pending.
type Suggestion struct {
    ID            string           `json:"id"`                    // suggestions.id
    EventID       *string          `json:"event_id,omitempty"`    // suggestions.event_id (nullable)
    VenueID       *string          `json:"venue_id,omitempty"`    // suggestions.venue_id (nullable)
    SubmitterID   string           `json:"-"`                     // suggestions.submitter_id
    Kind          SuggestionKind   `json:"kind"`                  // suggestions.kind
    ProposedValue string           `json:"proposed_value"`        // suggestions.proposed_value
    Status        SuggestionStatus `json:"status"`                // suggestions.status
    CreatedAt     time.Time        `json:"created_at"`            // suggestions.created_at
    ResolvedAt    *time.Time       `json:"resolved_at,omitempty"` // suggestions.resolved_at (nullable)
}

// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the moderation feed consumer.
package queue

// Queue names.  Each payload type goes to exactly one durable queue.
const (
    QueueVoteCast            = "vote.cast"
    QueueSuggestionSubmitted = "suggestion.submitted"
    QueueSuggestionResolved  = "suggestion.resolved"
)

// VoteCastEvent is published after a vote commits.  Classification is the
// label computed from the post-vote score.
type VoteCastEvent struct {
    EventID        string `json:"event_id"`
    VenueID        string `json:"venue_id"`
    Direction      string `json:"direction"`
    NewScore       int    `json:"new_score"`
    Classification string `json:"classification"`
    CastAt         string `json:"cast_at"`
}

// SuggestionSubmittedEvent is published when a suggestion enters the
// moderation queue.  The submitter id is deliberately omitted.
type SuggestionSubmittedEvent struct {
    SuggestionID  string  `json:"suggestion_id"`
    Kind          string  `json:"kind"`
    EventID       *string `json:"event_id,omitempty"`
    VenueID       *string `json:"venue_id,omitempty"`
    ProposedValue string  `json:"proposed_value"`
    SubmittedAt   string  `json:"submitted_at"`
}

// SuggestionResolvedEvent is published when a moderator accepts or rejects
// a suggestion.  Applied is true when the accepted value was written to the
// canonical event or venue.
type SuggestionResolvedEvent struct {
    SuggestionID  string `json:"suggestion_id"`
    Kind          string `json:"kind"`
    Outcome       string `json:"outcome"`
    ProposedValue string `json:"proposed_value"`
    Applied       bool   `json:"applied"`
    ResolvedAt    string `json:"resolved_at"`
}

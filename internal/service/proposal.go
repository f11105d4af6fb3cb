package service

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/parish-events/internal/model"
	"github.com/iliyamo/parish-events/internal/repository"
)

// Field length limits, counted in characters after trimming.
const (
	maxNameLen    = 100
	maxAddressLen = 200
	maxPhoneLen   = 20
	maxNotesLen   = 500
)

// Proposal is the structured payload of a new_parish or new_pastoral
// suggestion.  It is stored as JSON in the proposed_value column.
type Proposal interface {
	Kind() model.SuggestionKind
	Details() ProposalFields
}

// ProposalFields are shared by every proposal variant.
type ProposalFields struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// NewParish proposes a venue that is missing from the directory.
type NewParish struct{ ProposalFields }

// NewPastoral proposes a pastoral group or ministry.
type NewPastoral struct{ ProposalFields }

func (NewParish) Kind() model.SuggestionKind   { return model.KindNewParish }
func (NewPastoral) Kind() model.SuggestionKind { return model.KindNewPastoral }

func (p NewParish) Details() ProposalFields   { return p.ProposalFields }
func (p NewPastoral) Details() ProposalFields { return p.ProposalFields }

// NewProposal builds the variant matching kind.
func NewProposal(kind model.SuggestionKind, f ProposalFields) (Proposal, error) {
	switch kind {
	case model.KindNewParish:
		return NewParish{f}, nil
	case model.KindNewPastoral:
		return NewPastoral{f}, nil
	}
	return nil, repository.InvalidInput("kind %q carries no proposal", kind)
}

type proposalWire struct {
	Type model.SuggestionKind `json:"type"`
	ProposalFields
}

// EncodeProposal trims and validates p and serialises it for storage.
func EncodeProposal(p Proposal) (string, error) {
	f, err := p.Details().normalize()
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(proposalWire{Type: p.Kind(), ProposalFields: f})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeProposal parses a stored proposal.  A payload without a "type"
// member takes fallback as its kind.
func DecodeProposal(s string, fallback model.SuggestionKind) (Proposal, error) {
	var w proposalWire
	if err := json.Unmarshal([]byte(s), &w); err != nil {
		return nil, repository.NewValidationError("proposed_value", "must be a JSON proposal")
	}
	if w.Type == "" {
		w.Type = fallback
	}
	return NewProposal(w.Type, w.ProposalFields)
}

func (f ProposalFields) normalize() (ProposalFields, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Address = strings.TrimSpace(f.Address)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Notes = strings.TrimSpace(f.Notes)
	if f.Name == "" {
		return f, repository.NewValidationError("name", "required")
	}
	for _, c := range []struct {
		field, value string
		max          int
	}{
		{"name", f.Name, maxNameLen},
		{"address", f.Address, maxAddressLen},
		{"phone", f.Phone, maxPhoneLen},
		{"notes", f.Notes, maxNotesLen},
	} {
		if err := checkLen(c.field, c.value, c.max); err != nil {
			return f, err
		}
	}
	return f, nil
}

func checkLen(field, value string, max int) error {
	if n := utf8.RuneCountInString(value); n > max {
		return repository.NewValidationError(field, "must be at most "+itoa(max)+" characters")
	}
	return nil
}

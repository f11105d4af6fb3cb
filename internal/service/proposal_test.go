package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/iliyamo/parish-events/internal/model"
	"github.com/iliyamo/parish-events/internal/repository"
)

func TestEncodeProposalTrimsAndTags(t *testing.T) {
	raw, err := EncodeProposal(NewParish{ProposalFields{Name: "  Paróquia Nova ", Phone: " 43 9999-0000 "}})
	if err != nil {
		t.Fatalf("EncodeProposal: %v", err)
	}
	if !strings.Contains(raw, `"type":"new_parish"`) || !strings.Contains(raw, `"name":"Paróquia Nova"`) {
		t.Errorf("encoded = %s", raw)
	}
	p, err := DecodeProposal(raw, model.KindNewPastoral)
	if err != nil {
		t.Fatalf("DecodeProposal: %v", err)
	}
	if p.Kind() != model.KindNewParish {
		t.Errorf("stored type must win over fallback, got %s", p.Kind())
	}
	if p.Details().Phone != "43 9999-0000" {
		t.Errorf("phone = %q", p.Details().Phone)
	}
}

func TestDecodeProposalFallbackKind(t *testing.T) {
	p, err := DecodeProposal(`{"name":"Grupo de Oração"}`, model.KindNewPastoral)
	if err != nil {
		t.Fatalf("DecodeProposal: %v", err)
	}
	if _, ok := p.(NewPastoral); !ok {
		t.Errorf("got %T, want NewPastoral", p)
	}
	if _, err := DecodeProposal(`{"type":"other","name":"x"}`, ""); !errors.Is(err, repository.ErrInvalidInput) {
		t.Errorf("non-proposal type: got %v", err)
	}
}

func TestProposalLengthsCountCharacters(t *testing.T) {
	// 100 multi-byte runes are within the name limit.
	name := strings.Repeat("ç", maxNameLen)
	if _, err := EncodeProposal(NewParish{ProposalFields{Name: name}}); err != nil {
		t.Errorf("100 characters rejected: %v", err)
	}
	var ve *repository.ValidationError
	_, err := EncodeProposal(NewParish{ProposalFields{Name: name + "ç"}})
	if !errors.As(err, &ve) || ve.Field != "name" {
		t.Errorf("101 characters: got %v", err)
	}
}

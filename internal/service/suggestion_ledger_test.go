package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iliyamo/parish-events/internal/model"
	"github.com/iliyamo/parish-events/internal/repository"
	"github.com/iliyamo/parish-events/internal/testutil"
)

func strPtr(s string) *string { return &s }

func TestSubmitTargetRules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	venue := testutil.CreateVenue(t, db, "Paróquia Bom Pastor", testutil.LondrinaLat, testutil.LondrinaLng, false)
	ev := testutil.CreateEvent(t, db, venue.ID, model.CategoryMass, 0, "09:00")
	ledger := NewSuggestionLedger(db, nil, nil)

	tests := []struct {
		name string
		req  SubmitRequest
		want error
	}{
		{"time correction with both targets",
			SubmitRequest{Kind: model.KindTimeCorrection, EventID: &ev.ID, VenueID: &venue.ID, ProposedValue: "09:30"},
			repository.ErrInvalidInput},
		{"correction with no target",
			SubmitRequest{Kind: model.KindPhoneCorrection, ProposedValue: "43 3333-0000"},
			repository.ErrInvalidInput},
		{"other with a target",
			SubmitRequest{Kind: model.KindOther, VenueID: &venue.ID, ProposedValue: "parking closed"},
			repository.ErrInvalidInput},
		{"new parish with a target",
			SubmitRequest{Kind: model.KindNewParish, EventID: &ev.ID, Proposal: NewParish{ProposalFields{Name: "X"}}},
			repository.ErrInvalidInput},
		{"unknown kind",
			SubmitRequest{Kind: "rename", VenueID: &venue.ID, ProposedValue: "x"},
			repository.ErrInvalidInput},
		{"unknown event",
			SubmitRequest{Kind: model.KindTimeCorrection, EventID: strPtr("missing"), ProposedValue: "09:30"},
			repository.ErrNotFound},
		{"unknown venue",
			SubmitRequest{Kind: model.KindAddressCorrection, VenueID: strPtr("missing"), ProposedValue: "Rua A, 1"},
			repository.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.SubmitterID = "anon-1"
			_, err := ledger.Submit(ctx, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSubmitFieldValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	venue := testutil.CreateVenue(t, db, "Paróquia São Paulo", testutil.LondrinaLat, testutil.LondrinaLng, false)
	ev := testutil.CreateEvent(t, db, venue.ID, model.CategoryMass, 0, "09:00")
	ledger := NewSuggestionLedger(db, nil, nil)

	tests := []struct {
		name  string
		req   SubmitRequest
		field string
	}{
		{"blank value", SubmitRequest{Kind: model.KindOther, ProposedValue: "   "}, "proposed_value"},
		{"bad time", SubmitRequest{Kind: model.KindTimeCorrection, EventID: &ev.ID, ProposedValue: "7pm"}, "proposed_value"},
		{"time with seconds", SubmitRequest{Kind: model.KindTimeCorrection, EventID: &ev.ID, ProposedValue: "19:00:00"}, "proposed_value"},
		{"long phone", SubmitRequest{Kind: model.KindPhoneCorrection, VenueID: &venue.ID, ProposedValue: strings.Repeat("9", 21)}, "proposed_value"},
		{"long address", SubmitRequest{Kind: model.KindAddressCorrection, VenueID: &venue.ID, ProposedValue: strings.Repeat("a", 201)}, "proposed_value"},
		{"long other", SubmitRequest{Kind: model.KindOther, ProposedValue: strings.Repeat("a", 501)}, "proposed_value"},
		{"proposal without name", SubmitRequest{Kind: model.KindNewParish, Proposal: NewParish{ProposalFields{Address: "Rua B"}}}, "name"},
		{"proposal long name", SubmitRequest{Kind: model.KindNewPastoral, Proposal: NewPastoral{ProposalFields{Name: strings.Repeat("n", 101)}}}, "name"},
		{"proposal long phone", SubmitRequest{Kind: model.KindNewParish, Proposal: NewParish{ProposalFields{Name: "N", Phone: strings.Repeat("1", 21)}}}, "phone"},
		{"proposal long notes", SubmitRequest{Kind: model.KindNewParish, Proposal: NewParish{ProposalFields{Name: "N", Notes: strings.Repeat("x", 501)}}}, "notes"},
		{"proposal not json", SubmitRequest{Kind: model.KindNewParish, ProposedValue: "a parish near the lake"}, "proposed_value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.SubmitterID = "anon-1"
			_, err := ledger.Submit(ctx, tt.req)
			var ve *repository.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("got %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestSubmitAllowsRepeats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	venue := testutil.CreateVenue(t, db, "Paróquia Santa Rita", testutil.LondrinaLat, testutil.LondrinaLng, false)
	ledger := NewSuggestionLedger(db, nil, nil)

	req := SubmitRequest{Kind: model.KindPhoneCorrection, VenueID: &venue.ID, SubmitterID: "anon-1", ProposedValue: " 43 3324-1111 "}
	first, err := ledger.Submit(ctx, req)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := ledger.Submit(ctx, req)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if first == second {
		t.Fatal("repeat submissions must get distinct ids")
	}
	s, err := ledger.Get(ctx, first)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.Status != model.StatusPending || s.ProposedValue != "43 3324-1111" {
		t.Errorf("stored %+v", s)
	}
}

func TestSubmitProposalRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	ledger := NewSuggestionLedger(db, nil, nil)

	id, err := ledger.Submit(ctx, SubmitRequest{
		Kind:          model.KindNewPastoral,
		SubmitterID:   "anon-2",
		ProposedValue: `{"name":"  Pastoral da Criança ","address":"Rua C, 10","phone":"","notes":"Saturdays"}`,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	s, err := ledger.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	p, err := DecodeProposal(s.ProposedValue, "")
	if err != nil {
		t.Fatalf("DecodeProposal(%q): %v", s.ProposedValue, err)
	}
	if _, ok := p.(NewPastoral); !ok {
		t.Fatalf("decoded %T, want NewPastoral", p)
	}
	if d := p.Details(); d.Name != "Pastoral da Criança" || d.Notes != "Saturdays" {
		t.Errorf("details = %+v", d)
	}
}

func TestResolveTwiceFails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	venue := testutil.CreateVenue(t, db, "Paróquia Cristo Rei", testutil.LondrinaLat, testutil.LondrinaLng, false)
	ev := testutil.CreateEvent(t, db, venue.ID, model.CategoryMass, 0, "19:00")
	pub := &recordingPublisher{}
	ledger := NewSuggestionLedger(db, pub, nil)

	id, err := ledger.Submit(ctx, SubmitRequest{Kind: model.KindTimeCorrection, EventID: &ev.ID, SubmitterID: "anon-1", ProposedValue: "19:30"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	res, err := ledger.Resolve(ctx, id, model.StatusAccepted)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Applied || res.Suggestion.Status != model.StatusAccepted || res.Suggestion.ResolvedAt == nil {
		t.Errorf("resolution = %+v", res)
	}

	for _, outcome := range []model.SuggestionStatus{model.StatusAccepted, model.StatusRejected} {
		if _, err := ledger.Resolve(ctx, id, outcome); !errors.Is(err, repository.ErrInvalidTransition) {
			t.Errorf("second resolve %s: got %v, want ErrInvalidTransition", outcome, err)
		}
	}

	updated, err := repository.NewEventRepo(db).GetByID(ctx, ev.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Time.String() != "19:30" {
		t.Errorf("event time = %s, want 19:30", updated.Time)
	}
	if pub.count("suggestion.submitted") != 1 || pub.count("suggestion.resolved") != 1 {
		t.Errorf("published %v", pub.sent)
	}
}

func TestResolveRejectLeavesCanonicalData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	venue := testutil.CreateVenue(t, db, "Paróquia Santa Cruz", testutil.LondrinaLat, testutil.LondrinaLng, false)
	ledger := NewSuggestionLedger(db, nil, nil)

	id, err := ledger.Submit(ctx, SubmitRequest{Kind: model.KindAddressCorrection, VenueID: &venue.ID, SubmitterID: "anon-1", ProposedValue: "Av. Nova, 500"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	res, err := ledger.Resolve(ctx, id, model.StatusRejected)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Applied {
		t.Error("rejected suggestion must not be applied")
	}
	v, err := repository.NewVenueRepo(db).GetByID(ctx, venue.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if v.Address != venue.Address {
		t.Errorf("address changed to %q", v.Address)
	}
}

func TestResolveAppliesVenueCorrectionsFromEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	venue := testutil.CreateVenue(t, db, "Paróquia São Vicente", testutil.LondrinaLat, testutil.LondrinaLng, false)
	ev := testutil.CreateEvent(t, db, venue.ID, model.CategoryConfession, 5, "17:00")
	ledger := NewSuggestionLedger(db, nil, nil)

	id, err := ledger.Submit(ctx, SubmitRequest{Kind: model.KindPhoneCorrection, EventID: &ev.ID, SubmitterID: "anon-9", ProposedValue: "43 3321-0000"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := ledger.Resolve(ctx, id, model.StatusAccepted); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	v, err := repository.NewVenueRepo(db).GetByID(ctx, venue.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if v.Phone == nil || *v.Phone != "43 3321-0000" {
		t.Errorf("phone = %v", v.Phone)
	}
}

func TestResolveErrors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	ledger := NewSuggestionLedger(db, nil, nil)

	if _, err := ledger.Resolve(ctx, "missing", model.StatusAccepted); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}
	if _, err := ledger.Resolve(ctx, "missing", model.StatusPending); !errors.Is(err, repository.ErrInvalidInput) {
		t.Errorf("pending outcome: got %v, want ErrInvalidInput", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	ledger := NewSuggestionLedger(db, nil, nil)

	var ids []string
	for _, v := range []string{"first", "second", "third"} {
		id, err := ledger.Submit(ctx, SubmitRequest{Kind: model.KindOther, SubmitterID: "anon-1", ProposedValue: v})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		ids = append(ids, id)
	}
	if _, err := ledger.Resolve(ctx, ids[1], model.StatusRejected); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	pending, err := ledger.List(ctx, model.StatusPending, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pending) != 2 || pending[0].ProposedValue != "third" || pending[1].ProposedValue != "first" {
		t.Errorf("pending = %+v", pending)
	}
	limited, err := ledger.List(ctx, model.StatusPending, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d rows", len(limited))
	}
	if n, err := ledger.PendingCount(ctx); err != nil || n != 2 {
		t.Errorf("PendingCount = %d, %v", n, err)
	}
	if _, err := ledger.List(ctx, "archived", 10); !errors.Is(err, repository.ErrInvalidInput) {
		t.Errorf("unknown status: got %v", err)
	}
}

func TestSubmitRejectsInactiveVenueTargets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	venue := testutil.CreateVenue(t, db, "Capela Fechada", testutil.LondrinaLat, testutil.LondrinaLng, false)
	ev := testutil.CreateEvent(t, db, venue.ID, model.CategoryMass, 0, "10:00")
	if err := repository.NewVenueRepo(db).Deactivate(ctx, venue.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	ledger := NewSuggestionLedger(db, nil, nil)

	tests := []SubmitRequest{
		{Kind: model.KindTimeCorrection, EventID: strPtr(ev.ID), SubmitterID: "s1", ProposedValue: "11:00"},
		{Kind: model.KindPhoneCorrection, VenueID: strPtr(venue.ID), SubmitterID: "s1", ProposedValue: "(43) 3333-0000"},
	}
	for _, req := range tests {
		if _, err := ledger.Submit(ctx, req); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("%s: got %v, want ErrNotFound", req.Kind, err)
		}
	}
	if n, err := ledger.PendingCount(ctx); err != nil || n != 0 {
		t.Errorf("pending = %d, %v; want 0", n, err)
	}
}

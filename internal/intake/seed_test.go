package intake

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iliyamo/parish-events/internal/repository"
	"github.com/iliyamo/parish-events/internal/testutil"
)

const sampleSeed = `
venues:
  - id: 0b6f5c1e-8a43-4d3e-9d7e-4a3c0a9e1f01
    name: Catedral Metropolitana
    address: Praça Mal. Floriano Peixoto, Londrina - PR
    lat: -23.3105
    lng: -51.1593
    accredited: true
    phone: "(43) 3324-0000"
    events:
      - {category: Mass, day: 0, time: "08:00"}
      - {category: confession, day: 6, time: "15:30"}
  - name: Capela São Judas
    address: Rua Pernambuco 100, Londrina - PR
    lat: -23.3200
    lng: -51.1700
    time_zone: America/Sao_Paulo
    events:
      - {category: Rosary, day: 3, time: "19:00"}
`

func TestApplySeed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	seed, err := Parse(strings.NewReader(sampleSeed))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res, err := Apply(ctx, db, seed, "America/Sao_Paulo", nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Venues != 2 || res.Events != 3 || res.Skipped != 0 {
		t.Errorf("result = %+v", res)
	}

	v, err := repository.NewVenueRepo(db).GetByID(ctx, "0b6f5c1e-8a43-4d3e-9d7e-4a3c0a9e1f01")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !v.IsAccredited || v.Phone == nil || *v.Phone != "(43) 3324-0000" || v.TimeZone != "America/Sao_Paulo" {
		t.Errorf("venue = %+v", v)
	}
	events, err := repository.NewEventRepo(db).ListByVenue(ctx, v.ID)
	if err != nil {
		t.Fatalf("ListByVenue: %v", err)
	}
	if len(events) != 2 || events[1].Category != "Confession" || events[1].Time.String() != "15:30" {
		t.Errorf("events = %+v", events)
	}

	// Re-running skips venues with a fixed id.
	res, err = Apply(ctx, db, seed, "America/Sao_Paulo", nil)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if res.Skipped != 1 || res.Venues != 1 {
		t.Errorf("second result = %+v", res)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("venues:\n  - name: X\n    adress: typo\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidateRejectsBadEvents(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"category", "venues:\n  - name: X\n    events:\n      - {category: Bingo, day: 0, time: \"08:00\"}\n"},
		{"day", "venues:\n  - name: X\n    events:\n      - {category: Mass, day: 7, time: \"08:00\"}\n"},
		{"time", "venues:\n  - name: X\n    events:\n      - {category: Mass, day: 1, time: \"24:10\"}\n"},
		{"name", "venues:\n  - address: nowhere\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, err := Parse(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if err := seed.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestApplyEmptySeed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seed, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res, err := Apply(context.Background(), db, seed, "UTC", nil)
	if err != nil || res != (Result{}) {
		t.Errorf("Apply(empty) = %+v, %v", res, err)
	}
}

func TestImportVenueRollsBackOnEventFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	const id = "7c2d4a10-1b5e-4f6a-8c3d-2e9f0b1a2c03"
	venues := repository.NewVenueRepo(db)

	vs := VenueSeed{ID: id, Name: "Santuário", Address: "Av. Higienópolis 1, Londrina - PR", Lat: -23.31, Lng: -51.16}
	bad := []EventSeed{
		{Category: "Mass", Day: 0, Time: "08:00"},
		{Category: "Bingo", Day: 1, Time: "09:00"},
	}
	if err := importVenue(ctx, db, venues, repository.NewEventRepo(db), vs.venue("America/Sao_Paulo"), bad); err == nil {
		t.Fatal("expected event insert to fail")
	}
	if _, err := venues.GetByID(ctx, id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("venue after failed import: got %v, want ErrNotFound", err)
	}

	vs.Events = bad[:1]
	res, err := Apply(ctx, db, &Seed{Venues: []VenueSeed{vs}}, "America/Sao_Paulo", nil)
	if err != nil {
		t.Fatalf("re-run Apply: %v", err)
	}
	if res.Venues != 1 || res.Events != 1 || res.Skipped != 0 {
		t.Errorf("re-run result = %+v", res)
	}
	events, err := repository.NewEventRepo(db).ListByVenue(ctx, id)
	if err != nil || len(events) != 1 {
		t.Errorf("events after re-run = %v, %v", events, err)
	}
}

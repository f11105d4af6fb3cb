package service

import (
	"context"
	"testing"

	"github.com/iliyamo/parish-events/internal/model"
	"github.com/iliyamo/parish-events/internal/testutil"
)

func TestScoreAuditorDetectsDrift(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	venue := testutil.CreateVenue(t, db, "Paróquia Auditada", testutil.LondrinaLat, testutil.LondrinaLng, false)
	clean := testutil.CreateEvent(t, db, venue.ID, model.CategoryMass, 0, "08:00")
	dirty := testutil.CreateEvent(t, db, venue.ID, model.CategoryMass, 0, "10:00")
	votes := NewVoteLedger(db, nil, nil)
	if _, err := votes.CastVote(ctx, clean.ID, "v1", model.VoteUp); err != nil {
		t.Fatalf("CastVote: %v", err)
	}

	auditor := NewScoreAuditor(db, nil)
	drift, err := auditor.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(drift) != 0 {
		t.Fatalf("unexpected drift %v", drift)
	}

	if _, err := db.ExecContext(ctx, `UPDATE events SET verification_score = 3 WHERE id = ?`, dirty.ID); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	drift, err = auditor.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, ok := drift[dirty.ID]; !ok || got != [2]int{3, 0} {
		t.Errorf("drift = %v", drift)
	}
}

func TestScoreAuditorScheduleRejectsBadSpec(t *testing.T) {
	db := testutil.SetupTestDB(t)
	if _, err := NewScoreAuditor(db, nil).Schedule("not a schedule"); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}

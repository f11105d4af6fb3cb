package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iliyamo/parish-events/internal/metrics"
	"github.com/iliyamo/parish-events/internal/repository"
)

// ScoreAuditor compares each event's stored score with the sum of its vote
// rows.  Drift is logged and exported, never corrected: a mismatch means a
// write path bypassed the vote transaction and needs a human.
type ScoreAuditor struct {
	events      *repository.EventRepo
	suggestions *repository.SuggestionRepo
	logger      *slog.Logger
}

// NewScoreAuditor returns an auditor over db.
func NewScoreAuditor(db *sql.DB, logger *slog.Logger) *ScoreAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoreAuditor{
		events:      repository.NewEventRepo(db),
		suggestions: repository.NewSuggestionRepo(db),
		logger:      logger,
	}
}

// Run performs one audit pass and returns the drifting events keyed by id
// with their stored and counted scores.
func (a *ScoreAuditor) Run(ctx context.Context) (map[string][2]int, error) {
	drift, err := readOnce(ctx, a.events.ScoreDrift)
	if err != nil {
		a.logger.Error("score audit failed", "err", err)
		return nil, err
	}
	metrics.ScoreDriftEvents.Set(float64(len(drift)))
	for id, d := range drift {
		a.logger.Error("score drift detected", "event_id", id, "stored", d[0], "counted", d[1])
	}
	if n, err := readOnce(ctx, a.suggestions.CountPending); err == nil {
		metrics.PendingSuggestions.Set(float64(n))
	}
	return drift, nil
}

// Schedule registers the audit on a new cron runner using spec (standard
// five-field syntax or descriptors such as "@hourly") and starts it.  The
// caller stops the returned runner on shutdown.
func (a *ScoreAuditor) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, _ = a.Run(ctx)
	}); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

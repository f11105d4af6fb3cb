package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/parish-events/internal/metrics"
	"github.com/iliyamo/parish-events/internal/model"
	"github.com/iliyamo/parish-events/internal/queue"
	"github.com/iliyamo/parish-events/internal/repository"
	"github.com/iliyamo/parish-events/internal/trust"
)

// VoteLedger records crowd votes and keeps each event's verification score
// equal to the sign-weighted count of its vote rows.
type VoteLedger struct {
	db     *sql.DB
	events *repository.EventRepo
	venues *repository.VenueRepo
	votes  *repository.VoteRepo
	pub    queue.Publisher
	logger *slog.Logger
}

// NewVoteLedger wires a ledger over db.  pub may be nil.
func NewVoteLedger(db *sql.DB, pub queue.Publisher, logger *slog.Logger) *VoteLedger {
	if pub == nil {
		pub = queue.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VoteLedger{
		db:     db,
		events: repository.NewEventRepo(db),
		venues: repository.NewVenueRepo(db),
		votes:  repository.NewVoteRepo(db),
		pub:    pub,
		logger: logger,
	}
}

// VoteResult is returned for an accepted vote.
type VoteResult struct {
	Accepted       bool                 `json:"accepted"`
	NewScore       int                  `json:"new_score"`
	Classification trust.Classification `json:"classification"`
}

// EventStanding is an event's current score and trust label.
type EventStanding struct {
	EventID        string               `json:"event_id"`
	Score          int                  `json:"score"`
	Classification trust.Classification `json:"classification"`
}

// CastVote inserts the vote and applies its delta to the event score in one
// transaction.  A second vote by the same voter on the same event fails
// with ErrDuplicateVote and changes nothing; the unique key decides which
// of two concurrent attempts wins.
func (l *VoteLedger) CastVote(ctx context.Context, eventID, voterID string, dir model.VoteDirection) (VoteResult, error) {
	if !dir.Valid() {
		metrics.VotesTotal.WithLabelValues("invalid").Inc()
		return VoteResult{}, repository.InvalidInput("direction must be up or down, got %q", dir)
	}
	voterID = strings.TrimSpace(voterID)
	if voterID == "" {
		metrics.VotesTotal.WithLabelValues("invalid").Inc()
		return VoteResult{}, repository.InvalidInput("voter id is required")
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return VoteResult{}, l.fail(repository.WrapTxErr("begin vote", err))
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	ev, err := l.events.GetByIDTx(ctx, tx, eventID)
	if err != nil {
		return VoteResult{}, l.fail(err)
	}
	venue, err := l.venues.GetByIDTx(ctx, tx, ev.VenueID)
	if err != nil {
		return VoteResult{}, l.fail(err)
	}
	if !venue.IsActive {
		return VoteResult{}, l.fail(fmt.Errorf("event %s: venue %s inactive: %w", ev.ID, venue.ID, repository.ErrNotFound))
	}
	vote := &model.Vote{EventID: ev.ID, VoterID: voterID, Direction: dir}
	if err := l.votes.CreateTx(ctx, tx, vote); err != nil {
		return VoteResult{}, l.fail(err)
	}
	score, err := l.events.AddScoreTx(ctx, tx, ev.ID, dir.Delta())
	if err != nil {
		return VoteResult{}, l.fail(err)
	}
	if err := tx.Commit(); err != nil {
		return VoteResult{}, l.fail(repository.WrapTxErr("commit vote", err))
	}
	committed = true

	res := VoteResult{
		Accepted:       true,
		NewScore:       score,
		Classification: trust.Classify(venue.IsAccredited, score),
	}
	metrics.VotesTotal.WithLabelValues("accepted").Inc()
	l.publish(ctx, queue.VoteCastEvent{
		EventID:        ev.ID,
		VenueID:        ev.VenueID,
		Direction:      string(dir),
		NewScore:       score,
		Classification: string(res.Classification),
		CastAt:         vote.CreatedAt.Format(time.RFC3339),
	})
	return res, nil
}

// fail counts a rejected vote by the reason the caller will see.
func (l *VoteLedger) fail(err error) error {
	result := "error"
	switch {
	case errors.Is(err, repository.ErrDuplicateVote):
		result = "duplicate"
	case errors.Is(err, repository.ErrNotFound):
		result = "not_found"
	case errors.Is(err, repository.ErrStorageUnavailable):
		result = "unavailable"
	}
	metrics.VotesTotal.WithLabelValues(result).Inc()
	if result == "error" || result == "unavailable" {
		l.logger.Error("cast vote failed", "err", err)
	}
	return err
}

func (l *VoteLedger) publish(ctx context.Context, ev queue.VoteCastEvent) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := l.pub.Publish(pctx, queue.QueueVoteCast, ev); err != nil {
		metrics.PublishFailures.WithLabelValues(queue.QueueVoteCast).Inc()
		l.logger.Warn("publish vote.cast failed", "event_id", ev.EventID, "err", err)
	}
}

// ScoreOf returns the stored verification score of an event.
func (l *VoteLedger) ScoreOf(ctx context.Context, eventID string) (int, error) {
	return readOnce(ctx, func(ctx context.Context) (int, error) {
		return l.events.Score(ctx, eventID)
	})
}

// Standing returns the score together with the classification derived from
// it and the venue's accreditation at read time.
func (l *VoteLedger) Standing(ctx context.Context, eventID string) (EventStanding, error) {
	ev, err := readOnce(ctx, func(ctx context.Context) (*repository.EventWithVenue, error) {
		return l.events.GetWithVenue(ctx, eventID)
	})
	if err != nil {
		return EventStanding{}, err
	}
	return EventStanding{
		EventID:        ev.Event.ID,
		Score:          ev.Event.VerificationScore,
		Classification: trust.Classify(ev.Venue.IsAccredited, ev.Event.VerificationScore),
	}, nil
}

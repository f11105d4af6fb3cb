package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/parish-events/internal/metrics"
	"github.com/iliyamo/parish-events/internal/model"
	"github.com/iliyamo/parish-events/internal/queue"
	"github.com/iliyamo/parish-events/internal/repository"
)

// Listing bounds for the moderation queue.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// SuggestionLedger runs the moderation workflow: pending suggestions are
// accepted or rejected exactly once.
type SuggestionLedger struct {
	db          *sql.DB
	events      *repository.EventRepo
	venues      *repository.VenueRepo
	suggestions *repository.SuggestionRepo
	pub         queue.Publisher
	logger      *slog.Logger
}

// NewSuggestionLedger wires a ledger over db.  pub may be nil.
func NewSuggestionLedger(db *sql.DB, pub queue.Publisher, logger *slog.Logger) *SuggestionLedger {
	if pub == nil {
		pub = queue.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SuggestionLedger{
		db:          db,
		events:      repository.NewEventRepo(db),
		venues:      repository.NewVenueRepo(db),
		suggestions: repository.NewSuggestionRepo(db),
		pub:         pub,
		logger:      logger,
	}
}

// SubmitRequest carries one public submission.  For new_parish and
// new_pastoral either Proposal is set or ProposedValue holds its JSON form.
type SubmitRequest struct {
	Kind          model.SuggestionKind
	EventID       *string
	VenueID       *string
	SubmitterID   string
	ProposedValue string
	Proposal      Proposal
}

// Submit validates and stores a pending suggestion and returns its id.
// The same submitter may file any number of suggestions for a target.
func (l *SuggestionLedger) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if !req.Kind.Valid() {
		return "", repository.InvalidInput("unknown suggestion kind %q", req.Kind)
	}
	submitter := strings.TrimSpace(req.SubmitterID)
	if submitter == "" {
		return "", repository.InvalidInput("submitter id is required")
	}
	eventID, venueID := blankToNil(req.EventID), blankToNil(req.VenueID)
	if req.Kind.IsCorrection() {
		if (eventID == nil) == (venueID == nil) {
			return "", repository.InvalidInput("%s needs exactly one of event_id or venue_id", req.Kind)
		}
	} else if eventID != nil || venueID != nil {
		return "", repository.InvalidInput("%s must not target an event or venue", req.Kind)
	}

	value, err := normalizeValue(req)
	if err != nil {
		return "", err
	}

	// Targets must exist and belong to an active venue, matching what the
	// catalog shows.
	targetVenue := venueID
	if eventID != nil {
		ev, err := readOnce(ctx, func(ctx context.Context) (*model.Event, error) {
			return l.events.GetByID(ctx, *eventID)
		})
		if err != nil {
			return "", err
		}
		targetVenue = &ev.VenueID
	}
	if targetVenue != nil {
		v, err := readOnce(ctx, func(ctx context.Context) (*model.Venue, error) {
			return l.venues.GetByID(ctx, *targetVenue)
		})
		if err != nil {
			return "", err
		}
		if !v.IsActive {
			return "", fmt.Errorf("venue %s inactive: %w", v.ID, repository.ErrNotFound)
		}
	}

	s := &model.Suggestion{
		EventID:       eventID,
		VenueID:       venueID,
		SubmitterID:   submitter,
		Kind:          req.Kind,
		ProposedValue: value,
	}
	if err := l.suggestions.Create(ctx, s); err != nil {
		l.logger.Error("store suggestion failed", "kind", req.Kind, "err", err)
		return "", err
	}
	metrics.SuggestionsSubmitted.WithLabelValues(string(s.Kind)).Inc()
	l.publish(ctx, queue.QueueSuggestionSubmitted, queue.SuggestionSubmittedEvent{
		SuggestionID:  s.ID,
		Kind:          string(s.Kind),
		EventID:       s.EventID,
		VenueID:       s.VenueID,
		ProposedValue: s.ProposedValue,
		SubmittedAt:   s.CreatedAt.Format(time.RFC3339),
	})
	return s.ID, nil
}

// normalizeValue trims and bounds the proposed value for req.Kind.
func normalizeValue(req SubmitRequest) (string, error) {
	if req.Kind.IsProposal() {
		p := req.Proposal
		if p == nil {
			raw := strings.TrimSpace(req.ProposedValue)
			if raw == "" {
				return "", repository.NewValidationError("proposed_value", "required")
			}
			decoded, err := DecodeProposal(raw, req.Kind)
			if err != nil {
				return "", err
			}
			p = decoded
		}
		if p.Kind() != req.Kind {
			return "", repository.InvalidInput("proposal type %s does not match kind %s", p.Kind(), req.Kind)
		}
		return EncodeProposal(p)
	}

	v := strings.TrimSpace(req.ProposedValue)
	if v == "" {
		return "", repository.NewValidationError("proposed_value", "required")
	}
	switch req.Kind {
	case model.KindTimeCorrection:
		t, err := model.ParseTimeOfDay(v)
		if err != nil || len(v) != 5 {
			return "", repository.NewValidationError("proposed_value", "time must be HH:MM between 00:00 and 23:59")
		}
		return t.String(), nil
	case model.KindAddressCorrection:
		return v, checkLen("proposed_value", v, maxAddressLen)
	case model.KindPhoneCorrection:
		return v, checkLen("proposed_value", v, maxPhoneLen)
	}
	return v, checkLen("proposed_value", v, maxNotesLen)
}

// Resolution is the outcome of Resolve.  Applied reports whether an
// accepted correction was written to the canonical event or venue.
type Resolution struct {
	Suggestion model.Suggestion `json:"suggestion"`
	Applied    bool             `json:"applied"`
}

// Resolve moves a pending suggestion to accepted or rejected.  Accepting a
// correction applies its value in the same transaction, so either both the
// status change and the canonical update commit or neither does.  Any
// suggestion that is not pending yields ErrInvalidTransition.
func (l *SuggestionLedger) Resolve(ctx context.Context, id string, outcome model.SuggestionStatus) (Resolution, error) {
	if !outcome.Terminal() {
		return Resolution{}, repository.InvalidInput("outcome must be accepted or rejected, got %q", outcome)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return Resolution{}, repository.WrapTxErr("begin resolve", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	s, err := l.suggestions.GetByIDTx(ctx, tx, id)
	if err != nil {
		return Resolution{}, err
	}
	at, err := l.suggestions.TransitionTx(ctx, tx, id, outcome)
	if err != nil {
		return Resolution{}, err
	}
	s.Status = outcome
	s.ResolvedAt = &at

	applied := false
	if outcome == model.StatusAccepted {
		if applied, err = l.apply(ctx, tx, s); err != nil {
			return Resolution{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Resolution{}, repository.WrapTxErr("commit resolve", err)
	}
	committed = true

	metrics.SuggestionsResolved.WithLabelValues(string(outcome)).Inc()
	l.logger.Info("suggestion resolved", "id", s.ID, "kind", s.Kind, "outcome", outcome, "applied", applied)
	l.publish(ctx, queue.QueueSuggestionResolved, queue.SuggestionResolvedEvent{
		SuggestionID:  s.ID,
		Kind:          string(s.Kind),
		Outcome:       string(outcome),
		ProposedValue: s.ProposedValue,
		Applied:       applied,
		ResolvedAt:    at.Format(time.RFC3339),
	})
	return Resolution{Suggestion: *s, Applied: applied}, nil
}

// apply writes an accepted correction to its target.  Address and phone
// corrections filed against an event update that event's venue; a time
// correction filed against a venue has no single event to change and is
// only recorded.
func (l *SuggestionLedger) apply(ctx context.Context, tx *sql.Tx, s *model.Suggestion) (bool, error) {
	if !s.Kind.IsCorrection() {
		return false, nil
	}
	if s.Kind == model.KindTimeCorrection {
		if s.EventID == nil {
			return false, nil
		}
		t, err := model.ParseTimeOfDay(s.ProposedValue)
		if err != nil {
			return false, repository.NewValidationError("proposed_value", err.Error())
		}
		return true, l.events.UpdateTimeTx(ctx, tx, *s.EventID, t)
	}

	venueID := ""
	switch {
	case s.VenueID != nil:
		venueID = *s.VenueID
	case s.EventID != nil:
		ev, err := l.events.GetByIDTx(ctx, tx, *s.EventID)
		if err != nil {
			return false, err
		}
		venueID = ev.VenueID
	default:
		return false, nil
	}
	if s.Kind == model.KindAddressCorrection {
		return true, l.venues.UpdateAddressTx(ctx, tx, venueID, s.ProposedValue)
	}
	return true, l.venues.UpdatePhoneTx(ctx, tx, venueID, s.ProposedValue)
}

// Get returns a single suggestion.
func (l *SuggestionLedger) Get(ctx context.Context, id string) (*model.Suggestion, error) {
	return readOnce(ctx, func(ctx context.Context) (*model.Suggestion, error) {
		return l.suggestions.GetByID(ctx, id)
	})
}

// List returns suggestions in status, newest first.  limit is clamped to
// [1, MaxListLimit]; zero selects DefaultListLimit.
func (l *SuggestionLedger) List(ctx context.Context, status model.SuggestionStatus, limit int) ([]model.Suggestion, error) {
	if _, ok := model.ParseSuggestionStatus(string(status)); !ok {
		return nil, repository.InvalidInput("unknown status %q", status)
	}
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return readOnce(ctx, func(ctx context.Context) ([]model.Suggestion, error) {
		return l.suggestions.ListByStatus(ctx, status, limit)
	})
}

// PendingCount reports the moderation backlog.
func (l *SuggestionLedger) PendingCount(ctx context.Context) (int, error) {
	return readOnce(ctx, l.suggestions.CountPending)
}

func (l *SuggestionLedger) publish(ctx context.Context, q string, payload any) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := l.pub.Publish(pctx, q, payload); err != nil {
		metrics.PublishFailures.WithLabelValues(q).Inc()
		l.logger.Warn("publish failed", "queue", q, "err", err)
	}
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func itoa(n int) string { return strconv.Itoa(n) }

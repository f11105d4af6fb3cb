package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/parish-events/internal/model"
)

// SuggestionRepo persists the moderation queue.  Rows are never deleted;
// status only moves from pending to accepted or rejected.
type SuggestionRepo struct {
	db *sql.DB
}

// NewSuggestionRepo returns a SuggestionRepo bound to db.
func NewSuggestionRepo(db *sql.DB) *SuggestionRepo { return &SuggestionRepo{db: db} }

const suggestionColumns = `id, event_id, venue_id, submitter_id, kind, proposed_value, status, created_at, resolved_at`

// Create stores a new pending suggestion.  Target existence and payload
// rules are checked by the ledger before this is called.
func (r *SuggestionRepo) Create(ctx context.Context, s *model.Suggestion) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.Status = model.StatusPending
	s.CreatedAt = now()
	s.ResolvedAt = nil
	_, err := r.db.ExecContext(ctx, `INSERT INTO suggestions (`+suggestionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		s.ID, s.EventID, s.VenueID, s.SubmitterID, string(s.Kind), s.ProposedValue, string(s.Status), s.CreatedAt)
	return wrapErr("create suggestion", err)
}

// GetByID fetches one suggestion or ErrNotFound.
func (r *SuggestionRepo) GetByID(ctx context.Context, id string) (*model.Suggestion, error) {
	return getSuggestion(ctx, r.db, id)
}

// GetByIDTx is GetByID inside tx.
func (r *SuggestionRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Suggestion, error) {
	return getSuggestion(ctx, tx, id)
}

func getSuggestion(ctx context.Context, q queryer, id string) (*model.Suggestion, error) {
	row := q.QueryRowContext(ctx, `SELECT `+suggestionColumns+` FROM suggestions WHERE id = ?`, id)
	s, err := scanSuggestion(row.Scan)
	if err != nil {
		return nil, wrapErr("get suggestion", err)
	}
	return s, nil
}

// ListByStatus returns up to limit suggestions in the given status, newest
// first.  A limit <= 0 means no limit.
func (r *SuggestionRepo) ListByStatus(ctx context.Context, status model.SuggestionStatus, limit int) ([]model.Suggestion, error) {
	q := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE status = ? ORDER BY created_at DESC, id DESC`
	args := []any{string(status)}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrapErr("list suggestions", err)
	}
	defer rows.Close()
	out := make([]model.Suggestion, 0)
	for rows.Next() {
		s, err := scanSuggestion(rows.Scan)
		if err != nil {
			return nil, wrapErr("scan suggestion", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list suggestions", err)
	}
	return out, nil
}

// CountPending returns the size of the moderation backlog.
func (r *SuggestionRepo) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM suggestions WHERE status = ?`,
		string(model.StatusPending)).Scan(&n)
	if err != nil {
		return 0, wrapErr("count suggestions", err)
	}
	return n, nil
}

// TransitionTx moves a pending suggestion to a terminal status.  The WHERE
// clause on status makes the move atomic: of two concurrent resolutions
// only one matches a row.  A suggestion that exists but is no longer
// pending yields ErrInvalidTransition.
func (r *SuggestionRepo) TransitionTx(ctx context.Context, tx *sql.Tx, id string, to model.SuggestionStatus) (time.Time, error) {
	if !to.Terminal() {
		return time.Time{}, InvalidInput("cannot move suggestion to %q", to)
	}
	at := now()
	err := updateOne(ctx, tx, "resolve suggestion",
		`UPDATE suggestions SET status = ?, resolved_at = ? WHERE id = ? AND status = ?`,
		string(to), at, id, string(model.StatusPending))
	if errors.Is(err, ErrNotFound) {
		if _, gerr := getSuggestion(ctx, tx, id); gerr != nil {
			return time.Time{}, gerr
		}
		return time.Time{}, fmt.Errorf("suggestion %s: %w", id, ErrInvalidTransition)
	}
	if err != nil {
		return time.Time{}, err
	}
	return at, nil
}

func scanSuggestion(scan func(dest ...any) error) (*model.Suggestion, error) {
	var (
		s                 model.Suggestion
		eventID, venueID  sql.NullString
		kind, status      string
		created, resolved dbTime
	)
	if err := scan(&s.ID, &eventID, &venueID, &s.SubmitterID, &kind, &s.ProposedValue, &status, &created, &resolved); err != nil {
		return nil, err
	}
	s.EventID = nullStr(eventID)
	s.VenueID = nullStr(venueID)
	s.Kind = model.SuggestionKind(kind)
	s.Status = model.SuggestionStatus(status)
	s.CreatedAt = created.Time
	s.ResolvedAt = resolved.ptr()
	return &s, nil
}

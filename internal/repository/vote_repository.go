package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/parish-events/internal/model"
)

// VoteRepo stores immutable vote rows.  There is no update or delete path.
type VoteRepo struct {
	db *sql.DB
}

// NewVoteRepo returns a VoteRepo bound to db.
func NewVoteRepo(db *sql.DB) *VoteRepo { return &VoteRepo{db: db} }

// CreateTx inserts a vote inside tx.  A second vote by the same voter on the
// same event violates the unique key and yields ErrDuplicateVote; the
// caller must roll back.
func (r *VoteRepo) CreateTx(ctx context.Context, tx *sql.Tx, v *model.Vote) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.CreatedAt = now()
	_, err := tx.ExecContext(ctx, `INSERT INTO votes (id, event_id, voter_id, direction, created_at)
		VALUES (?, ?, ?, ?, ?)`, v.ID, v.EventID, v.VoterID, string(v.Direction), v.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("vote on %s: %w", v.EventID, ErrDuplicateVote)
	}
	return wrapErr("create vote", err)
}

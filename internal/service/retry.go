package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/parish-events/internal/repository"
)

// readRetryDelay is the pause before the single retry of a failed read.
var readRetryDelay = 50 * time.Millisecond

// readOnce runs a read and, if it fails with ErrStorageUnavailable, tries
// exactly once more.  Writes must never go through here.
func readOnce[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err == nil || !errors.Is(err, repository.ErrStorageUnavailable) {
		return v, err
	}
	t := time.NewTimer(readRetryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return v, err
	case <-t.C:
	}
	return fn(ctx)
}

// publishTimeout bounds broker publishes that run after a commit.
const publishTimeout = 3 * time.Second

package util

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// ErrLockedElsewhere is returned if the file lock is held by another procmond
// instance.
var ErrLockedElsewhere = errors.New("file already locked elsewhere")

const lockRetryDelay = 25 * time.Millisecond

// TryLock acquires an exclusive flock on path without waiting, creating its
// directory if needed. The caller must Unlock the returned lock.
func TryLock(path string) (*flock.Flock, error) {
	l, err := newLock(path)
	if err != nil {
		return nil, err
	}

	locked, err := l.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire lock")
	}
	if !locked {
		return nil, ErrLockedElsewhere
	}
	return l, nil
}

// Lock is TryLock retrying until ctx is done. If the lock is still held by
// then, ErrLockedElsewhere is returned.
func Lock(ctx context.Context, path string) (*flock.Flock, error) {
	l, err := newLock(path)
	if err != nil {
		return nil, err
	}

	locked, err := l.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil, errors.Wrapf(ErrLockedElsewhere, "gave up waiting: %v", err)
		}
		return nil, errors.Wrap(err, "failed to acquire lock")
	}
	if !locked {
		return nil, ErrLockedElsewhere
	}
	return l, nil
}

func newLock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errors.Wrap(err, "failed to create lock directory")
	}
	return flock.New(path), nil
}

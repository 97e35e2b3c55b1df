package store

import (
	"context"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// LockTimeoutDuration is how long a Store waits to acquire the advisory
// lockfile before giving up (spec.md §4.7).
const LockTimeoutDuration = 30 * time.Second

// acquireLock blocks up to LockTimeoutDuration trying to take an exclusive
// advisory lock on path, used to serialize concurrent Fetchy instances
// (including across platforms, hence gofrs/flock rather than the teacher's
// Unix-only syscall.Flock).
func acquireLock(path string) (*flock.Flock, error) {
	lock := flock.New(path)

	ctx, cancel := context.WithTimeout(context.Background(), LockTimeoutDuration)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err == context.DeadlineExceeded {
		return nil, &LockTimeout{Path: path}
	}
	if err != nil {
		return nil, errors.Wrap(err, "acquiring install store lock")
	}
	if !locked {
		return nil, &LockTimeout{Path: path}
	}
	return lock, nil
}

// Package lock serializes writers of a generated pipeline file.
//
// The lock is an advisory flock on a sibling file, <target>.lock, so two
// dvc-matrix runs cannot interleave writes to the same dvc.yaml. The lock
// file itself is left in place; the kernel drops the lock when the holder
// exits.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Common errors
var (
	ErrLocked    = errors.New("target is locked by another process")
	ErrNotLocked = errors.New("target is not locked")
)

// DefaultTimeout is how long Acquire waits for a busy lock.
const DefaultTimeout = 5 * time.Second

// retryDelay is the polling interval while waiting for the lock.
const retryDelay = 100 * time.Millisecond

// Lock guards writes to one target file.
type Lock struct {
	target   string
	lockPath string
	flock    *flock.Flock
}

// New creates a Lock for the given target file.
func New(target string) *Lock {
	lockPath := target + ".lock"
	return &Lock{
		target:   target,
		lockPath: lockPath,
		flock:    flock.New(lockPath),
	}
}

// Path returns the path of the lock file.
func (l *Lock) Path() string {
	return l.lockPath
}

// Acquire takes the exclusive lock, waiting up to timeout.
// Returns ErrLocked if another holder keeps it for the whole wait.
func (l *Lock) Acquire(timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.lockPath), 0755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	locked, err := l.flock.TryLockContext(ctx, retryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrLocked, l.target)
		}
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLocked, l.target)
	}
	return nil
}

// Release releases the lock if we hold it.
func (l *Lock) Release() error {
	if !l.flock.Locked() {
		return ErrNotLocked
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}

// Locked reports whether this Lock currently holds the lock.
func (l *Lock) Locked() bool {
	return l.flock.Locked()
}

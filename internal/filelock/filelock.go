// Package filelock serializes archive mutations across processes. Two
// concurrent runs targeting the same archive would otherwise interleave
// 7-Zip update operations and corrupt the result.
package filelock

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// retryInterval is how often Acquire re-attempts a contended lock.
const retryInterval = 250 * time.Millisecond

// ArchiveLock guards write access to a single archive. The lock lives in a
// sidecar file next to the archive so it survives archive recreation.
type ArchiveLock struct {
	flock *flock.Flock
	path  string
}

// ForArchive creates a lock for the given archive path. The sidecar lock
// file is the archive path with a ".lock" suffix.
func ForArchive(archivePath string) *ArchiveLock {
	lockPath := archivePath + ".lock"
	return &ArchiveLock{
		flock: flock.New(lockPath),
		path:  lockPath,
	}
}

// Acquire blocks until the exclusive lock is held or ctx is done.
func (al *ArchiveLock) Acquire(ctx context.Context) error {
	acquired, err := al.flock.TryLockContext(ctx, retryInterval)
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", al.path, err)
	}
	if !acquired {
		return fmt.Errorf("lock on %s not acquired", al.path)
	}
	return nil
}

// TryAcquire attempts to take the lock without blocking. It returns false
// when another process holds the lock.
func (al *ArchiveLock) TryAcquire() (bool, error) {
	acquired, err := al.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", al.path, err)
	}
	return acquired, nil
}

// Release unlocks the archive.
func (al *ArchiveLock) Release() error {
	if err := al.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", al.path, err)
	}
	return nil
}

// Path returns the sidecar lock file path.
func (al *ArchiveLock) Path() string {
	return al.path
}

// Package filelock coordinates maintenance of shared fixture files between
// processes: a lock file beside the target and atomic replacement of file
// contents.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockSuffix is appended to a target path to name its lock file.
const LockSuffix = ".lock"

// DefaultRetryDelay is the polling interval of LockContext.
const DefaultRetryDelay = 50 * time.Millisecond

var (
	// ErrLocked indicates another process holds the lock.
	ErrLocked = errors.New("lock is held by another process")

	// ErrLockTimeout indicates LockContext gave up waiting.
	ErrLockTimeout = errors.New("timed out waiting for lock")
)

// FileLock is an exclusive advisory lock on one lock file.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// New creates a lock on the lock file at path. Nothing is acquired yet.
func New(path string) *FileLock {
	return &FileLock{flock: flock.New(path), path: path}
}

// For creates the lock guarding target, a file or directory. The lock file
// sits beside target so it survives target's removal.
func For(target string) *FileLock {
	return New(filepath.Clean(target) + LockSuffix)
}

// Path returns the lock file path.
func (l *FileLock) Path() string { return l.path }

func (l *FileLock) ensureDir() error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create lock directory %s: %w", dir, err)
	}
	return nil
}

// Lock blocks until the lock is acquired.
func (l *FileLock) Lock() error {
	if err := l.ensureDir(); err != nil {
		return err
	}
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	return nil
}

// TryLock acquires the lock without waiting, returning ErrLocked when it is
// held elsewhere.
func (l *FileLock) TryLock() error {
	if err := l.ensureDir(); err != nil {
		return err
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to try lock on %s: %w", l.path, err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrLocked, l.path)
	}
	return nil
}

// LockContext polls for the lock every retryDelay until it is acquired or
// ctx is done. A zero retryDelay uses DefaultRetryDelay.
func (l *FileLock) LockContext(ctx context.Context, retryDelay time.Duration) error {
	if err := l.ensureDir(); err != nil {
		return err
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	acquired, err := l.flock.TryLockContext(ctx, retryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s: %w", ErrLockTimeout, l.path, ctx.Err())
		}
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrLockTimeout, l.path)
	}
	return nil
}

// Unlock releases the lock. The lock file stays in place so a waiter never
// ends up holding a lock on an unlinked file.
func (l *FileLock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// Locked reports whether this FileLock currently holds the lock.
func (l *FileLock) Locked() bool {
	return l.flock.Locked()
}

// AtomicWrite replaces path with data through a temporary file in the same
// directory and a rename, so readers see the old or the new content and
// never a partial write.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tempFile = nil
	return nil
}

// LockAndWrite holds the lock for path while atomically writing it.
func LockAndWrite(path string, data []byte, perm os.FileMode) error {
	lock := For(path)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	return AtomicWrite(path, data, perm)
}

// TryWithLock runs fn while holding the lock for target, failing with
// ErrLocked instead of waiting when another process holds it.
func TryWithLock(target string, fn func() error) error {
	lock := For(target)
	if err := lock.TryLock(); err != nil {
		return err
	}
	defer lock.Unlock()

	return fn()
}

// Package dirlock provides a directory-based lock that keeps two pipeline
// processes from working in the same output directory at once.
package dirlock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Error types for lock operations
var (
	// ErrLockConflict indicates the lock is held by another live process
	ErrLockConflict = errors.New("directory is locked by another process")

	// ErrNotLocked indicates unlock was called but lock is not held
	ErrNotLocked = errors.New("directory is not locked")
)

const (
	lockDirName = ".multik_lock"
	ownerFile   = "owner"

	// A lock directory without a readable owner is either being written
	// or was left by a crash before the owner file existed.
	defaultOwnerGracePeriod = 10 * time.Second
)

// DirLock represents a directory lock instance
type DirLock interface {
	// TryLock attempts to acquire lock without blocking.
	// Returns ErrLockConflict if lock is held by another process.
	TryLock() error

	// Lock acquires lock, blocking until available or context is cancelled.
	Lock(ctx context.Context) error

	// Unlock releases the lock.
	Unlock() error

	// Info returns information about the current lock holder, nil if unlocked.
	Info() (*LockInfo, error)
}

// LockOptions configures lock behavior
type LockOptions struct {
	// RetryInterval for lock acquisition attempts (default: 500ms)
	RetryInterval time.Duration
	// OwnerGracePeriod is how long a lock without an owner file is
	// considered held (default: 10s)
	OwnerGracePeriod time.Duration
}

// LockInfo contains information about a lock
type LockInfo struct {
	PID        int
	AcquiredAt time.Time
}

type dirLock struct {
	targetDir string
	lockPath  string
	opts      LockOptions
	isHeld    bool
	mu        sync.Mutex
}

// New creates a new directory lock instance
func New(directory string, opts *LockOptions) DirLock {
	var o LockOptions
	if opts != nil {
		o = *opts
	}
	if o.RetryInterval == 0 {
		o.RetryInterval = 500 * time.Millisecond
	}
	if o.OwnerGracePeriod == 0 {
		o.OwnerGracePeriod = defaultOwnerGracePeriod
	}
	return &dirLock{
		targetDir: directory,
		lockPath:  filepath.Join(directory, lockDirName),
		opts:      o,
	}
}

// TryLock attempts to acquire lock without blocking
func (l *dirLock) TryLock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.isHeld {
		return nil
	}

	if err := os.MkdirAll(l.targetDir, 0750); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	err := l.acquire()
	if !errors.Is(err, ErrLockConflict) {
		return err
	}

	// A crashed run leaves its lock behind; reclaim it and try once more.
	reclaimed, rerr := l.reclaimStale()
	if rerr != nil {
		return rerr
	}
	if !reclaimed {
		return ErrLockConflict
	}
	return l.acquire()
}

// acquire creates the lock directory. Mkdir is atomic, so of several
// concurrent callers exactly one succeeds.
func (l *dirLock) acquire() error {
	if err := os.Mkdir(l.lockPath, 0700); err != nil {
		if os.IsExist(err) {
			return ErrLockConflict
		}
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	owner := fmt.Sprintf("%d %d\n", os.Getpid(), time.Now().UnixNano())
	if err := os.WriteFile(filepath.Join(l.lockPath, ownerFile), []byte(owner), 0600); err != nil {
		_ = os.RemoveAll(l.lockPath)
		return fmt.Errorf("failed to write lock owner: %w", err)
	}

	l.isHeld = true
	return nil
}

// reclaimStale removes the lock directory if its holder is gone. The
// directory is first renamed to a name private to this process so that a
// lock taken by someone else in between is never removed.
func (l *dirLock) reclaimStale() (bool, error) {
	info, err := readOwner(l.lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Released in the meantime.
			return true, nil
		}
		return false, err
	}
	if !l.stale(info) {
		return false, nil
	}

	moved := fmt.Sprintf("%s.stale.%d.%d", l.lockPath, os.Getpid(), time.Now().UnixNano())
	if err := os.Rename(l.lockPath, moved); err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to move stale lock: %w", err)
	}

	got, err := readOwner(moved)
	if err != nil || !got.sameOwner(info) {
		// Another process replaced the stale lock before the rename.
		if rerr := os.Rename(moved, l.lockPath); rerr != nil {
			_ = os.RemoveAll(moved)
		}
		return false, nil
	}
	if err := os.RemoveAll(moved); err != nil {
		return false, fmt.Errorf("failed to remove stale lock: %w", err)
	}
	return true, nil
}

func (l *dirLock) stale(info LockInfo) bool {
	if info.PID <= 0 {
		return time.Since(info.AcquiredAt) > l.opts.OwnerGracePeriod
	}
	return !info.alive()
}

// Lock acquires lock, blocking until available or context is cancelled
func (l *dirLock) Lock(ctx context.Context) error {
	if err := l.TryLock(); err == nil {
		return nil
	} else if !errors.Is(err, ErrLockConflict) {
		return err
	}

	ticker := time.NewTicker(l.opts.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err := l.TryLock()
			if err == nil {
				return nil
			}
			if !errors.Is(err, ErrLockConflict) {
				return err
			}
		}
	}
}

// Unlock releases the lock
func (l *dirLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.isHeld {
		return ErrNotLocked
	}
	if err := os.RemoveAll(l.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock directory: %w", err)
	}
	l.isHeld = false
	return nil
}

// Info returns information about current lock holder
func (l *dirLock) Info() (*LockInfo, error) {
	info, err := readOwner(l.lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if l.stale(info) {
		return nil, nil
	}
	return &info, nil
}

// readOwner reads "<pid> <unixnano>" from the lock directory. A missing or
// malformed owner file yields a zero PID stamped with the directory's
// modification time.
func readOwner(lockPath string) (LockInfo, error) {
	st, err := os.Stat(lockPath)
	if err != nil {
		return LockInfo{}, err
	}
	fallback := LockInfo{AcquiredAt: st.ModTime()}

	data, err := os.ReadFile(filepath.Join(lockPath, ownerFile)) //nolint:gosec
	if err != nil {
		return fallback, nil
	}
	fields := strings.Fields(string(data))
	if len(fields) != 2 {
		return fallback, nil
	}
	pid, err := strconv.Atoi(fields[0])
	if err != nil {
		return fallback, nil
	}
	ts, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return fallback, nil
	}
	return LockInfo{PID: pid, AcquiredAt: time.Unix(0, ts)}, nil
}

func (i LockInfo) sameOwner(o LockInfo) bool {
	if i.PID == 0 || o.PID == 0 {
		return i.PID == o.PID
	}
	return i.PID == o.PID && i.AcquiredAt.Equal(o.AcquiredAt)
}

func (i LockInfo) alive() bool {
	if i.PID <= 0 {
		return false
	}
	proc, err := os.FindProcess(i.PID)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

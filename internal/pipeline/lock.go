package pipeline

import (
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/gofrs/flock"

	"github.com/cqs-dev/cqs/internal/cqserrors"
)

// maxStaleLockRetries bounds the remove-stale-lock-and-retry loop to
// prevent recursion under races.
const maxStaleLockRetries = 3

// IndexLock is the single on-disk advisory lock guarding a project's
// index directory. It pairs gofrs/flock for the OS-level lock with a
// PID liveness check (processExists via signal 0) so a lock left behind
// by a crashed process on a filesystem without lock-release-on-crash
// guarantees can still be detected as stale and cleared.
type IndexLock struct {
	path string
	fl   *flock.Flock
}

// NewIndexLock returns a lock bound to <indexDir>/cqs.pid, matching
// spec §6's persisted-state layout.
func NewIndexLock(indexDir string) *IndexLock {
	path := filepath.Join(indexDir, "cqs.pid")
	return &IndexLock{path: path, fl: flock.New(path)}
}

// Path returns the lock file's path.
func (l *IndexLock) Path() string { return l.path }

// TryAcquire attempts a non-blocking lock, retrying once per stale
// holder it finds and clears, up to maxStaleLockRetries times.
func (l *IndexLock) TryAcquire() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return false, cqserrors.Wrap(cqserrors.KindIO, "create index directory", err)
	}

	for attempt := 0; attempt < maxStaleLockRetries; attempt++ {
		ok, err := l.fl.TryLock()
		if err != nil {
			return false, cqserrors.Wrap(cqserrors.KindIO, "acquire index lock", err)
		}
		if ok {
			if err := os.WriteFile(l.path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
				_ = l.fl.Unlock()
				return false, cqserrors.Wrap(cqserrors.KindIO, "write lock pid", err)
			}
			return true, nil
		}

		if !l.holderIsStale() {
			return false, nil
		}
		// Holder's PID is dead; the flock itself would have been
		// released by the OS when that process exited, so a failed
		// TryLock here with a stale PID points at a lock file that
		// survived a crash on a filesystem without lock-on-crash
		// cleanup. Remove it and retry.
		_ = os.Remove(l.path)
	}
	return false, cqserrors.New(cqserrors.KindIO, "index lock still held after stale-lock retries").
		WithDetail("path", l.path)
}

// holderIsStale reports whether the PID recorded in the lock file
// belongs to a process that is no longer running.
func (l *IndexLock) holderIsStale() bool {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return false
	}
	return !processExists(pid)
}

// Release unlocks and removes the lock file.
func (l *IndexLock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return cqserrors.Wrap(cqserrors.KindIO, "release index lock", err)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return cqserrors.Wrap(cqserrors.KindIO, "remove index lock file", err)
	}
	return nil
}

// processExists reports whether pid is alive. FindProcess always
// succeeds on Unix, so signal 0 is the actual liveness probe.
func processExists(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

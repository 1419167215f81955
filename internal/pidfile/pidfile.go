// Package pidfile manages oidcd's single runtime pidfile under the XDG
// runtime directory and guards it with an exclusive advisory lock so a
// second daemon invocation for the same user refuses to start instead of
// racing the first one for the socket.
package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"

	"github.com/oidcd/oidcd/internal/ierrors"
)

// fileName is the pidfile's basename under the XDG runtime
// directory. There is exactly one oidcd instance per user session, so,
// unlike a per-container pidfile, no identifier is interpolated into it.
const fileName = "oidcd.pid"

// Handle owns the flock guarding the pidfile for the lifetime of one
// daemon process. Release drops the lock and removes the file.
type Handle struct {
	lock *flock.Flock
	path string
}

// Path returns the pidfile's location, creating its parent directory if
// necessary.
func Path() (string, error) {
	dir, err := xdg.RuntimeFile(filepath.Join("oidcd", fileName))
	if err != nil {
		return "", ierrors.Wrap(ierrors.KindInternal, "failed to resolve pidfile path", err)
	}
	return dir, nil
}

// Acquire takes the exclusive pidfile lock and writes the current
// process's PID into it. It returns an AgentLocked-kind error carrying
// "already running" semantics when another instance already holds the
// lock, so cmd/oidcd can report a clean "already running" message instead
// of a raw lock error.
func Acquire() (*Handle, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return acquireAt(path)
}

func acquireAt(path string) (*Handle, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, ierrors.Wrap(ierrors.KindInternal, "failed to create pidfile directory", err)
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, ierrors.Wrap(ierrors.KindInternal, "failed to lock pidfile", err)
	}
	if !locked {
		return nil, ierrors.New(ierrors.KindAgentLocked, "another oidcd instance is already running")
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		_ = lock.Unlock()
		return nil, ierrors.Wrap(ierrors.KindInternal, "failed to write pidfile", err)
	}

	return &Handle{lock: lock, path: path}, nil
}

// Release unlocks and removes the pidfile. Safe to call once per
// successful Acquire; callers should invoke it from a deferred shutdown
// path.
func (h *Handle) Release() error {
	if err := h.lock.Unlock(); err != nil {
		return ierrors.Wrap(ierrors.KindInternal, "failed to unlock pidfile", err)
	}
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return ierrors.Wrap(ierrors.KindInternal, "failed to remove pidfile", err)
	}
	return nil
}

// Read returns the PID recorded in the pidfile at the default path, or an
// error if no instance is running.
func Read() (int, error) {
	path, err := Path()
	if err != nil {
		return 0, err
	}
	return readAt(path)
}

func readAt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, ierrors.Wrap(ierrors.KindAccountNotLoaded, "no running oidcd instance found", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, ierrors.Wrap(ierrors.KindInternal, "pidfile contents are not a valid PID", err)
	}
	return pid, nil
}


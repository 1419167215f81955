package pidfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oidcd/oidcd/internal/ierrors"
)

func TestAcquireAt_WritesCurrentPID(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sub", "oidcd.pid")

	h, err := acquireAt(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Release() })

	pid, err := readAt(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestAcquireAt_SecondAcquireFailsWhileLocked(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "oidcd.pid")

	h, err := acquireAt(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Release() })

	_, err = acquireAt(path)
	require.Error(t, err)
	ierr, ok := ierrors.As(err)
	require.True(t, ok)
	assert.Equal(t, ierrors.KindAgentLocked, ierr.Kind)
}

func TestAcquireAt_ReAcquireAfterRelease(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "oidcd.pid")

	h, err := acquireAt(path)
	require.NoError(t, err)
	require.NoError(t, h.Release())

	h2, err := acquireAt(path)
	require.NoError(t, err)
	require.NoError(t, h2.Release())
}

func TestRelease_RemovesPIDFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "oidcd.pid")

	h, err := acquireAt(path)
	require.NoError(t, err)
	require.NoError(t, h.Release())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestReadAt_NoFileReturnsAccountNotLoaded(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "missing.pid")

	_, err := readAt(path)
	require.Error(t, err)
	ierr, ok := ierrors.As(err)
	require.True(t, ok)
	assert.Equal(t, ierrors.KindAccountNotLoaded, ierr.Kind)
}

func TestReadAt_CorruptContentsIsInternalError(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "oidcd.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0o600))

	_, err := readAt(path)
	require.Error(t, err)
	ierr, ok := ierrors.As(err)
	require.True(t, ok)
	assert.Equal(t, ierrors.KindInternal, ierr.Kind)
}

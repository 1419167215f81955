package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateWithPath_CreatesDefault(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "oidcd", "config.yaml")

	cfg, err := LoadOrCreateWithPath(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	reloaded, err := LoadOrCreateWithPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}

func TestSaveWithPath_RoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "oidcd", "config.yaml")

	cfg := &Config{DefaultTimeoutSeconds: 3600, NoAutoload: true, ConfirmDefault: true}
	require.NoError(t, SaveWithPath(cfg, path))

	loaded, err := LoadOrCreateWithPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

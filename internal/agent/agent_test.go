package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oidcd/oidcd/internal/config"
)

func TestNew_SeedsFromConfig(t *testing.T) {
	t.Parallel()
	s := New(&config.Config{DefaultTimeoutSeconds: 3600, NoAutoload: true, ConfirmDefault: true})
	assert.Equal(t, time.Hour, s.DefaultTimeout())
	assert.True(t, s.NoAutoload())
	assert.True(t, s.ConfirmDefault())
}

func TestApplyLifetimeFlag_OverridesWhenPositive(t *testing.T) {
	t.Parallel()
	s := New(config.Default())
	s.ApplyLifetimeFlag(30 * time.Minute)
	assert.Equal(t, 30*time.Minute, s.DefaultTimeout())
}

func TestApplyLifetimeFlag_IgnoresZeroOrNegative(t *testing.T) {
	t.Parallel()
	s := New(&config.Config{DefaultTimeoutSeconds: 120})
	s.ApplyLifetimeFlag(0)
	assert.Equal(t, 120*time.Second, s.DefaultTimeout())
	s.ApplyLifetimeFlag(-time.Second)
	assert.Equal(t, 120*time.Second, s.DefaultTimeout())
}

func TestApplyNoAutoloadFlag_OnlyTurnsOn(t *testing.T) {
	t.Parallel()
	s := New(config.Default())
	assert.False(t, s.NoAutoload())
	s.ApplyNoAutoloadFlag(false)
	assert.False(t, s.NoAutoload())
	s.ApplyNoAutoloadFlag(true)
	assert.True(t, s.NoAutoload())
}

func TestSetConfirmDefault(t *testing.T) {
	t.Parallel()
	s := New(config.Default())
	assert.False(t, s.ConfirmDefault())
	s.SetConfirmDefault(true)
	assert.True(t, s.ConfirmDefault())
}

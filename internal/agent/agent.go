// Package agent holds the process-wide Agent State: the default account
// timeout, the no_autoload switch, and the dispatcher-wide confirmation
// default. It is a thin, mutex-guarded wrapper over internal/config that
// lets a CLI flag override a persisted value for the lifetime of one
// daemon run without rewriting the config file.
package agent

import (
	"sync"
	"time"

	"github.com/oidcd/oidcd/internal/config"
)

// State is the live, in-memory view of the Agent State. The zero value is
// not usable; construct with New or Load.
type State struct {
	mu sync.RWMutex

	defaultTimeout time.Duration
	noAutoload     bool
	confirmDefault bool
}

// New builds a State directly from cfg, without touching disk. Used by
// tests and by Load below.
func New(cfg *config.Config) *State {
	return &State{
		defaultTimeout: time.Duration(cfg.DefaultTimeoutSeconds) * time.Second,
		noAutoload:     cfg.NoAutoload,
		confirmDefault: cfg.ConfirmDefault,
	}
}

// Load reads the persisted Agent State (creating it with defaults if
// absent) and returns a State seeded from it.
func Load() (*State, error) {
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

// ApplyLifetimeFlag overrides the default timeout with lifetime when the
// daemon was started with an explicit --lifetime flag. A zero or negative
// value leaves the persisted default untouched, mirroring a CLI flag that
// was never set.
func (s *State) ApplyLifetimeFlag(lifetime time.Duration) {
	if lifetime <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultTimeout = lifetime
}

// ApplyNoAutoloadFlag forces no_autoload on for this run, regardless of
// what was persisted. It never turns the flag off: a CLI flag is additive
// caution, not a way to loosen a saved default.
func (s *State) ApplyNoAutoloadFlag(noAutoload bool) {
	if !noAutoload {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noAutoload = true
}

// DefaultTimeout is the account death offset used by add/gen when the
// request omits a timeout field.
func (s *State) DefaultTimeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultTimeout
}

// NoAutoload reports whether access_token must refuse to autoload
// unloaded accounts rather than prompting the Client Frontend for one.
func (s *State) NoAutoload() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.noAutoload
}

// ConfirmDefault is the dispatcher-wide confirmation default applied to
// an account that doesn't carry its own confirmation_required flag.
func (s *State) ConfirmDefault() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.confirmDefault
}

// SetConfirmDefault updates the in-memory confirmation default, e.g. in
// response to a future config-reload request. It does not persist.
func (s *State) SetConfirmDefault(confirm bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmDefault = confirm
}

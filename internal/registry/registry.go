package registry

import (
	"sync"

	"github.com/oidcd/oidcd/internal/ierrors"
)

// Registry is the set of loaded Account Records, keyed by shortname.
// Lookup by in-flight used_state is a linear scan (FindByState); there is
// no separate index on it. All
// operations are synchronous under a single mutex: none of them perform
// network I/O or block on the Frontend Channel, so holding the lock
// across a call never stalls a suspension point.
type Registry struct {
	mu          sync.Mutex
	byShortname map[string]*Account
	locked      bool

	// completed holds state -> shortname for a code flow that has just
	// been exchanged, so one subsequent state_lookup (typically driven by
	// the Callback Receiver) can retrieve the finalized account once. It is
	// intentionally separate from each Account's own UsedState field,
	// which is cleared at exchange time.
	completed map[string]string
}

// New returns an empty, unlocked Registry.
func New() *Registry {
	return &Registry{byShortname: make(map[string]*Account), completed: make(map[string]string)}
}

// Locked reports whether the registry is currently locked.
func (r *Registry) Locked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locked
}

// Insert adds account, replacing and wiping any existing record with the
// same shortname. Re-inserting a pointer already stored under that
// shortname (a handler re-committing state onto the record it fetched
// via FindByShortname) is a no-op replace: the record isn't its own
// "existing" record to wipe.
func (r *Registry) Insert(account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked {
		return ierrors.New(ierrors.KindAgentLocked, "registry is locked")
	}
	if old, ok := r.byShortname[account.Shortname]; ok && old != account {
		old.Wipe()
	}
	r.byShortname[account.Shortname] = account
	return nil
}

// FindByShortname returns the record for name, or nil if none is loaded.
func (r *Registry) FindByShortname(name string) (*Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byShortname[name]
	return a, ok
}

// FindByState linearly scans for the record with a matching in-flight
// used_state. The set of in-flight code flows is tiny and short-lived, so
// a linear scan is appropriate.
func (r *Registry) FindByState(state string) (*Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byShortname {
		if a.UsedState != "" && a.UsedState == state {
			return a, true
		}
	}
	return nil, false
}

// RemoveByShortname unloads and wipes the named record, returning false if
// it wasn't loaded.
func (r *Registry) RemoveByShortname(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byShortname[name]
	if !ok {
		return false
	}
	a.Wipe()
	delete(r.byShortname, name)
	return true
}

// RemoveAll wipes and drops every loaded record.
func (r *Registry) RemoveAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, a := range r.byShortname {
		a.Wipe()
		delete(r.byShortname, name)
	}
}

// Count returns the number of loaded accounts.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byShortname)
}

// Reap removes every record whose death is set (nonzero) and has passed:
// after Reap runs at time t, no record with 0 < death <= t remains.
func (r *Registry) Reap(now int64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var reaped []string
	for name, a := range r.byShortname {
		if a.Death > 0 && a.Death <= now {
			a.Wipe()
			delete(r.byShortname, name)
			reaped = append(reaped, name)
		}
	}
	return reaped
}

// MarkStateCompleted records that the code flow for state finished
// exchanging tokens for shortname, so a later DrainState can hand the
// Callback Receiver the result exactly once.
func (r *Registry) MarkStateCompleted(state, shortname string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed[state] = shortname
}

// DrainState returns the account whose code flow completed under state,
// consuming the record so a second call returns false — a second
// state_lookup for the same state returns notfound.
func (r *Registry) DrainState(state string) (*Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shortname, ok := r.completed[state]
	if !ok {
		return nil, false
	}
	delete(r.completed, state)
	a, ok := r.byShortname[shortname]
	return a, ok
}

// Snapshot returns every loaded account record, for the list request
// (SPEC_FULL.md's supplemented feature). The records are returned as-is,
// secret fields included; the list handler copies only non-secret
// metadata from them.
func (r *Registry) Snapshot() []*Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Account, 0, len(r.byShortname))
	for _, a := range r.byShortname {
		out = append(out, a)
	}
	return out
}

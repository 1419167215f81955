// Package promptstore is the Client Frontend's account-config backing
// store: where oidc-prompt looks up the serialized config blob it hands
// back on INT_REQUEST_AUTOLOAD. Writable backends also offer SetConfig/
// DeleteConfig, but oidc-prompt itself only reads. Multiple backends implement
// Provider so a user can point oidc-prompt at a desktop keyring, 1Password,
// or plain environment variables.
package promptstore

import (
	"context"
	"fmt"
)

// ProviderType selects a Provider implementation, e.g. via --backend.
type ProviderType string

// Supported backends.
const (
	ProviderKeyring     ProviderType = "keyring"
	ProviderOnePassword ProviderType = "1password"
	ProviderEnvironment ProviderType = "environment"
)

// Capabilities reports which operations a Provider actually supports; a
// read-only backend (environment, 1Password) leaves CanWrite/CanDelete
// false, and its SetConfig/DeleteConfig return an error.
type Capabilities struct {
	CanRead   bool
	CanWrite  bool
	CanDelete bool
}

// Provider stores and retrieves a serialized account config blob keyed by
// shortname. GetConfig's returned string is the same wire config shape
// internal/registry.WireConfig marshals, opaque to this package.
type Provider interface {
	Name() string
	Capabilities() Capabilities
	GetConfig(ctx context.Context, shortname string) (string, error)
	SetConfig(ctx context.Context, shortname, config string) error
	DeleteConfig(ctx context.Context, shortname string) error
}

// ErrUnknownProviderType is returned by NewProvider for an unrecognized
// ProviderType.
var ErrUnknownProviderType = fmt.Errorf("unknown provider type")

// NewProvider constructs the Provider named by t.
func NewProvider(t ProviderType) (Provider, error) {
	switch t {
	case ProviderKeyring:
		return newKeyringProvider(), nil
	case ProviderOnePassword:
		return newOnePasswordProvider()
	case ProviderEnvironment:
		return newEnvironmentProvider(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProviderType, t)
	}
}

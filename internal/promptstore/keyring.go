package promptstore

import (
	"context"
	"fmt"

	"github.com/zalando/go-keyring"
)

// keyringService is the service name every account config is stored
// under in the OS keyring; the shortname is the per-item key.
const keyringService = "oidc-prompt"

// keyringProvider stores configs in the desktop keyring (Secret Service,
// macOS Keychain, Windows Credential Manager — whichever go-keyring's
// build tag selects).
type keyringProvider struct{}

func newKeyringProvider() *keyringProvider {
	return &keyringProvider{}
}

func (*keyringProvider) Name() string { return string(ProviderKeyring) }

func (*keyringProvider) Capabilities() Capabilities {
	return Capabilities{CanRead: true, CanWrite: true, CanDelete: true}
}

func (*keyringProvider) GetConfig(_ context.Context, shortname string) (string, error) {
	value, err := keyring.Get(keyringService, shortname)
	if err != nil {
		return "", fmt.Errorf("keyring: get %q: %w", shortname, err)
	}
	return value, nil
}

func (*keyringProvider) SetConfig(_ context.Context, shortname, config string) error {
	if err := keyring.Set(keyringService, shortname, config); err != nil {
		return fmt.Errorf("keyring: set %q: %w", shortname, err)
	}
	return nil
}

func (*keyringProvider) DeleteConfig(_ context.Context, shortname string) error {
	if err := keyring.Delete(keyringService, shortname); err != nil {
		return fmt.Errorf("keyring: delete %q: %w", shortname, err)
	}
	return nil
}

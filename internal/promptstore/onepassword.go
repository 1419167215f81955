package promptstore

import (
	"context"
	"fmt"
	"os"

	onepassword "github.com/1password/onepassword-sdk-go"
)

// opServiceAccountTokenEnv names the environment variable carrying the
// 1Password Service Account token.
const opServiceAccountTokenEnv = "OP_SERVICE_ACCOUNT_TOKEN"

// onePasswordProvider resolves a config blob from a secret reference
// ("op://vault/item/field") passed in place of the shortname. It's read-only: writing
// a 1Password item from an agent-side API token is out of scope — 1Password
// is a secret source for this agent, not a secret sink for automated
// callers.
type onePasswordProvider struct {
	client *onepassword.Client
}

func newOnePasswordProvider() (*onePasswordProvider, error) {
	token := os.Getenv(opServiceAccountTokenEnv)
	if token == "" {
		return nil, fmt.Errorf("%s is not set", opServiceAccountTokenEnv)
	}

	client, err := onepassword.NewClient(
		context.Background(),
		onepassword.WithServiceAccountToken(token),
		onepassword.WithIntegrationInfo("oidc-prompt", "1.0.0"),
	)
	if err != nil {
		return nil, fmt.Errorf("1password: create client: %w", err)
	}
	return &onePasswordProvider{client: client}, nil
}

func (*onePasswordProvider) Name() string { return string(ProviderOnePassword) }

func (*onePasswordProvider) Capabilities() Capabilities {
	return Capabilities{CanRead: true}
}

// GetConfig treats shortname as a secret reference directly
// ("op://vault/item/field") rather than performing its own vault lookup,
// matching how the 1Password SDK expects callers to address items.
func (p *onePasswordProvider) GetConfig(ctx context.Context, shortname string) (string, error) {
	value, err := p.client.Secrets().Resolve(ctx, shortname)
	if err != nil {
		return "", fmt.Errorf("1password: resolve %q: %w", shortname, err)
	}
	return value, nil
}

func (*onePasswordProvider) SetConfig(context.Context, string, string) error {
	return fmt.Errorf("1password provider is read-only")
}

func (*onePasswordProvider) DeleteConfig(context.Context, string) error {
	return fmt.Errorf("1password provider is read-only")
}

package promptstore

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// environmentProvider reads a config blob from OIDC_PROMPT_CONFIG_<SHORTNAME>
// (shortname upper-cased, non-alphanumerics turned into underscores). It
// never writes: there is nowhere durable to put a value back into the
// calling shell's environment.
type environmentProvider struct{}

func newEnvironmentProvider() *environmentProvider {
	return &environmentProvider{}
}

func (*environmentProvider) Name() string { return string(ProviderEnvironment) }

func (*environmentProvider) Capabilities() Capabilities {
	return Capabilities{CanRead: true}
}

func (*environmentProvider) GetConfig(_ context.Context, shortname string) (string, error) {
	value, ok := os.LookupEnv(envVarName(shortname))
	if !ok || value == "" {
		return "", fmt.Errorf("environment: no config for %q", shortname)
	}
	return value, nil
}

func (*environmentProvider) SetConfig(context.Context, string, string) error {
	return fmt.Errorf("environment provider is read-only")
}

func (*environmentProvider) DeleteConfig(context.Context, string) error {
	return fmt.Errorf("environment provider is read-only")
}

func envVarName(shortname string) string {
	var b strings.Builder
	b.WriteString("OIDC_PROMPT_CONFIG_")
	for _, r := range strings.ToUpper(shortname) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

package app

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// socketPath resolves the agent socket's location under the XDG runtime
// directory, mirroring internal/pidfile.Path's use of the same base.
func socketPath() (string, error) {
	return xdg.RuntimeFile(filepath.Join("oidcd", "oidcd.sock"))
}

const (
	// defaultSockEnvName and defaultPIDEnvName are the variable names the
	// agent prints when OIDC_SOCK_ENV_NAME/OIDC_PID_ENV_NAME aren't set to
	// something else.
	defaultSockEnvName = "OIDC_SOCK"
	defaultPIDEnvName  = "OIDC_PID"
)

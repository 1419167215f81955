package flow

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oidcd/oidcd/internal/oidcclient"
	"github.com/oidcd/oidcd/internal/registry"
)

// testIssuer spins up an httptest server that serves a discovery document
// pointing every endpoint back at itself, plus whatever extra handlers the
// caller registers on the returned mux.
func testIssuer(t *testing.T) (*httptest.Server, *http.ServeMux) {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"issuer": "` + srv.URL + `",
			"authorization_endpoint": "` + srv.URL + `/authorize",
			"token_endpoint": "` + srv.URL + `/token",
			"device_authorization_endpoint": "` + srv.URL + `/device/code",
			"registration_endpoint": "` + srv.URL + `/register",
			"revocation_endpoint": "` + srv.URL + `/revoke"
		}`))
	})
	return srv, mux
}

func newTestEngine() *Engine {
	return NewEngine(oidcclient.NewCache(), nil)
}

func newTestAccount(issuer string) *registry.Account {
	a := registry.NewAccount("s1", issuer)
	a.ClientID = "client-1"
	a.Scopes = []string{"openid", "offline_access"}
	a.RedirectURIs = []string{"http://localhost:9999/callback"}
	return a
}

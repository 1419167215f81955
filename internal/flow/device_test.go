package flow

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_StartDevice(t *testing.T) {
	t.Parallel()
	srv, mux := testIssuer(t)
	mux.HandleFunc("/device/code", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"device_code":      "D1",
			"user_code":        "ABCD-EFGH",
			"verification_uri": srv.URL + "/device",
			"expires_in":       900,
			"interval":         5,
		})
	})

	e := newTestEngine()
	a := newTestAccount(srv.URL)

	da, err := e.StartDevice(context.Background(), a, "secret")
	require.NoError(t, err)
	assert.Equal(t, "D1", da.DeviceCode)
	assert.Equal(t, "ABCD-EFGH", da.UserCode)
	assert.EqualValues(t, 5, da.Interval)
}

func TestEngine_PollDevice_Pending(t *testing.T) {
	t.Parallel()
	srv, mux := testIssuer(t)
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "authorization_pending"})
	})

	e := newTestEngine()
	a := newTestAccount(srv.URL)

	result, err := e.PollDevice(context.Background(), a, "secret", "D1", 5)
	require.NoError(t, err)
	assert.True(t, result.Pending)
	assert.EqualValues(t, 5, result.RetryAfter)
}

func TestEngine_PollDevice_SlowDownIncrementsInterval(t *testing.T) {
	t.Parallel()
	srv, mux := testIssuer(t)
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "slow_down"})
	})

	e := newTestEngine()
	a := newTestAccount(srv.URL)

	result, err := e.PollDevice(context.Background(), a, "secret", "D1", 5)
	require.NoError(t, err)
	assert.True(t, result.Pending)
	assert.EqualValues(t, 10, result.RetryAfter)
}

func TestEngine_PollDevice_Success(t *testing.T) {
	t.Parallel()
	srv, mux := testIssuer(t)
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "A1", "refresh_token": "R1", "expires_in": 3600,
		})
	})

	e := newTestEngine()
	a := newTestAccount(srv.URL)

	result, err := e.PollDevice(context.Background(), a, "secret", "D1", 5)
	require.NoError(t, err)
	assert.False(t, result.Pending)
	assert.Equal(t, "A1", a.AccessToken.String())
}

func TestEngine_PollDevice_AccessDenied(t *testing.T) {
	t.Parallel()
	srv, mux := testIssuer(t)
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "access_denied"})
	})

	e := newTestEngine()
	a := newTestAccount(srv.URL)

	result, err := e.PollDevice(context.Background(), a, "secret", "D1", 5)
	require.Error(t, err)
	assert.Nil(t, result)
}

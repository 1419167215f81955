package flow

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/oidcd/oidcd/internal/ierrors"
	"github.com/oidcd/oidcd/internal/registry"
)

// deviceGrantType is the grant_type value for RFC 8628 device-code token
// requests.
const deviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"

// DeviceAuthorization is the device_authorization_endpoint response
// (RFC 8628 §3.2), handed back to the caller so it can display the
// verification URI and user code.
type DeviceAuthorization struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete,omitempty"`
	ExpiresIn               int64  `json:"expires_in"`
	Interval                int64  `json:"interval"`
}

type deviceAuthorizationResponse struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete"`
	ExpiresIn               int64  `json:"expires_in"`
	Interval                int64  `json:"interval"`
}

// StartDevice implements the device flow's request half: POST
// device_authorization_endpoint and hand back the polling parameters.
func (e *Engine) StartDevice(ctx context.Context, account *registry.Account, clientSecret string) (*DeviceAuthorization, error) {
	cfg, err := e.Cache.Get(ctx, account.IssuerURL)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.KindNetworkError, "failed to discover issuer config", err)
	}
	if cfg.DeviceAuthorizationEndpoint == "" {
		return nil, ierrors.New(ierrors.KindOidcError, "issuer has no device_authorization_endpoint")
	}

	values := url.Values{}
	clientCredentials(values, account.ClientID, clientSecret)
	if len(account.Scopes) > 0 {
		values.Set("scope", strings.Join(account.Scopes, " "))
	}

	body, err := e.doPostForm(ctx, cfg.DeviceAuthorizationEndpoint, values)
	if err != nil {
		return nil, err
	}

	var dar deviceAuthorizationResponse
	if err := json.Unmarshal(body, &dar); err != nil {
		return nil, ierrors.Wrap(ierrors.KindOidcError, "failed to decode device authorization response", err)
	}
	if dar.Interval <= 0 {
		dar.Interval = 5
	}

	return &DeviceAuthorization{
		DeviceCode:              dar.DeviceCode,
		UserCode:                dar.UserCode,
		VerificationURI:         dar.VerificationURI,
		VerificationURIComplete: dar.VerificationURIComplete,
		ExpiresIn:               dar.ExpiresIn,
		Interval:                dar.Interval,
	}, nil
}

// PollDeviceResult is the outcome of one deviceLookup poll.
type PollDeviceResult struct {
	// Pending is true when the provider returned authorization_pending or
	// slow_down; RetryAfter carries the (possibly incremented) interval the
	// caller should wait before polling again.
	Pending    bool
	RetryAfter int64
}

// PollDevice implements deviceLookup: a single poll of the
// token endpoint with the device_code grant. It classifies one HTTP
// round-trip and does not wait or poll again: while the grant is pending,
// each further poll is a new device_lookup request from the caller, spaced
// by the returned RetryAfter. The dispatcher checks the expires_in cap
// before each call.
func (e *Engine) PollDevice(ctx context.Context, account *registry.Account, clientSecret, deviceCode string, interval int64) (*PollDeviceResult, error) {
	cfg, err := e.Cache.Get(ctx, account.IssuerURL)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.KindNetworkError, "failed to discover issuer config", err)
	}
	if cfg.TokenEndpoint == "" {
		return nil, ierrors.New(ierrors.KindOidcError, "issuer has no token endpoint")
	}

	values := url.Values{
		"grant_type":  {deviceGrantType},
		"device_code": {deviceCode},
	}
	clientCredentials(values, account.ClientID, clientSecret)

	tr, err := e.postForm(ctx, cfg.TokenEndpoint, values)
	if err != nil {
		if ierr, ok := ierrors.As(err); ok && ierr.Kind == ierrors.KindOidcError {
			switch ierr.OidcErrorCode {
			case "authorization_pending":
				return &PollDeviceResult{Pending: true, RetryAfter: interval}, nil
			case "slow_down":
				return &PollDeviceResult{Pending: true, RetryAfter: interval + 5}, nil
			}
		}
		return nil, err
	}

	applyToken(account, tr, time.Now().Unix())
	return &PollDeviceResult{}, nil
}

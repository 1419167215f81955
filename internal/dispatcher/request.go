package dispatcher

import (
	"encoding/json"
	"strconv"

	"github.com/oidcd/oidcd/internal/ierrors"
)

// flexInt64 accepts either a JSON number or a quoted decimal string for
// fields like `timeout` and `min_valid_period`, since the literal
// scenarios in the wire protocol show both forms in the wild.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexInt64(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt64(n)
	return nil
}

// request is the closed set of fields any wire request may carry. Exactly
// which fields are required is determined per `Request` value by the
// route table in dispatcher.go.
type request struct {
	Request string `json:"request"`

	Config          string    `json:"config"`
	Flow            string    `json:"flow"`
	FlowList        string    `json:"flow_list"`
	AccountName     string    `json:"account_name"`
	Timeout         flexInt64 `json:"timeout"`
	Confirm         *bool     `json:"confirm"`
	MinValidPeriod  flexInt64 `json:"min_valid_period"`
	Scope           string    `json:"scope"`
	ApplicationHint string    `json:"application_hint"`
	AccessToken     string    `json:"access_token"`
	Code            string    `json:"code"`
	RedirectURI     string    `json:"redirect_uri"`
	State           string    `json:"state"`
	CodeVerifier    string    `json:"code_verifier"`
	Device          string    `json:"device"`
	Password        string    `json:"password"`
}

// deviceWire is the JSON payload carried in a device_lookup request's
// `device` field: the polling parameters StartDevice previously handed
// the caller.
type deviceWire struct {
	DeviceCode string `json:"device_code"`
	Interval   int64  `json:"interval"`
	ExpiresIn  int64  `json:"expires_in"`
}

func requireField(value, name string) error {
	if value == "" {
		return ierrors.New(ierrors.KindBadRequest, name+" is required")
	}
	return nil
}

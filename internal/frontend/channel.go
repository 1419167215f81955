// Package frontend implements the Frontend Channel: a full-duplex framed
// pipe to the Client Frontend used for confirmation, autoload, and
// credential-prompting requests the agent initiates mid-handler.
package frontend

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/oidcd/oidcd/internal/framing"
	"github.com/oidcd/oidcd/internal/ierrors"
	"github.com/oidcd/oidcd/internal/registry"
)

// Verb is one of the three requests the agent may send to the frontend.
type Verb string

// Request verbs the agent may send to the frontend.
const (
	VerbAutoload    Verb = "INT_REQUEST_AUTOLOAD"
	VerbConfirm     Verb = "INT_REQUEST_CONFIRM"
	VerbCredentials Verb = "INT_REQUEST_CREDENTIALS"
)

type request struct {
	Request         Verb   `json:"request"`
	Shortname       string `json:"shortname,omitempty"`
	ApplicationHint string `json:"application_hint,omitempty"`
}

type response struct {
	Config    string `json:"config,omitempty"`
	Accept    bool   `json:"accept,omitempty"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

// Channel is exclusive to one outstanding agent-initiated request at a
// time: concurrent handlers calling it serialize on mu.
type Channel struct {
	mu     sync.Mutex
	conn   io.Writer
	reader *bufio.Reader
}

// New wraps conn (an anonymous pipe inherited by the frontend prompter) in
// a Channel.
func New(conn io.ReadWriter) *Channel {
	return &Channel{conn: conn, reader: bufio.NewReader(conn)}
}

func (c *Channel) roundTrip(req *request) (*response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := framing.WriteMessage(c.conn, req); err != nil {
		return nil, err
	}
	var resp response
	if err := framing.ReadMessage(c.reader, &resp); err != nil {
		return nil, err
	}
	if resp.ErrorCode != "" {
		return nil, errorFromCode(resp.ErrorCode)
	}
	return &resp, nil
}

// RequestAutoload implements INT_REQUEST_AUTOLOAD: ask the frontend to
// supply a config for shortname so the dispatcher can load it via the add
// path.
func (c *Channel) RequestAutoload(_ context.Context, shortname string) (config string, err error) {
	resp, err := c.roundTrip(&request{Request: VerbAutoload, Shortname: shortname})
	if err != nil {
		return "", err
	}
	if resp.Config == "" {
		return "", ierrors.New(ierrors.KindAccountNotLoaded, "frontend did not supply a config for autoload")
	}
	return resp.Config, nil
}

// RequestConfirm implements INT_REQUEST_CONFIRM.
func (c *Channel) RequestConfirm(_ context.Context, shortname, applicationHint string) error {
	resp, err := c.roundTrip(&request{Request: VerbConfirm, Shortname: shortname, ApplicationHint: applicationHint})
	if err != nil {
		return err
	}
	if !resp.Accept {
		return ierrors.New(ierrors.KindUserDenied, "frontend denied the confirmation request")
	}
	return nil
}

// RequestCredentials implements INT_REQUEST_CREDENTIALS. Its signature
// satisfies flow.CredentialPrompter by structural typing; this package
// deliberately doesn't import internal/flow to avoid a cycle (flow will
// eventually need frontend's request/response shapes only indirectly,
// through this interface).
func (c *Channel) RequestCredentials(_ context.Context, account *registry.Account) (username, password string, err error) {
	resp, err := c.roundTrip(&request{Request: VerbCredentials, Shortname: account.Shortname})
	if err != nil {
		return "", "", err
	}
	return resp.Username, resp.Password, nil
}

// errorFromCode maps a §7 error-kind string back to a typed Error.
func errorFromCode(code string) error {
	kind := ierrors.Kind(code)
	switch kind {
	case ierrors.KindUserDenied, ierrors.KindUserCancel, ierrors.KindTimeout,
		ierrors.KindAccountNotLoaded, ierrors.KindNetworkError:
		return ierrors.New(kind, "frontend returned "+code)
	default:
		return ierrors.New(ierrors.KindInternal, "frontend returned unrecognized error_code "+code)
	}
}

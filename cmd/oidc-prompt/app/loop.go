// Package app implements oidc-prompt: the Client Frontend's process,
// exec'd by oidcd with its stdin/stdout wired to the anonymous pipe pair
// that carries the Frontend Channel protocol. Real terminal prompting and
// browser launching are explicitly out of scope — this is a stub that
// answers every INT_REQUEST_* verb from a promptstore.Provider backend
// instead of a human.
package app

import (
	"bufio"
	"context"
	"io"

	"github.com/oidcd/oidcd/internal/framing"
	"github.com/oidcd/oidcd/internal/logger"
	"github.com/oidcd/oidcd/internal/promptstore"
)

// verb mirrors internal/frontend's unexported Verb type; oidc-prompt is a
// separate binary and speaks the wire protocol independently rather than
// importing internal/frontend, which is the agent's side of the pipe.
type verb string

const (
	verbAutoload    verb = "INT_REQUEST_AUTOLOAD"
	verbConfirm     verb = "INT_REQUEST_CONFIRM"
	verbCredentials verb = "INT_REQUEST_CREDENTIALS"
)

type request struct {
	Request         verb   `json:"request"`
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

// Loop reads requests from r and writes responses to w until r returns
// io.EOF (the agent closed its end, typically on shutdown), answering
// each from provider. autoConfirm controls what INT_REQUEST_CONFIRM
// answers with, since there is no terminal to ask.
type Loop struct {
	Provider    promptstore.Provider
	AutoConfirm bool
}

// Run drives the loop to completion or to the first unrecoverable I/O
// error.
func (l *Loop) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	for {
		var req request
		if err := framing.ReadMessage(reader, &req); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		resp := l.handle(ctx, &req)
		if err := framing.WriteMessage(w, resp); err != nil {
			return err
		}
	}
}

func (l *Loop) handle(ctx context.Context, req *request) *response {
	logger.Debugf("oidc-prompt: %s %s", req.Request, req.Shortname)

	switch req.Request {
	case verbAutoload:
		return l.handleAutoload(ctx, req.Shortname)
	case verbConfirm:
		return l.handleConfirm(req.Shortname, req.ApplicationHint)
	case verbCredentials:
		return l.handleCredentials(ctx, req.Shortname)
	default:
		return &response{ErrorCode: "bad_request"}
	}
}

func (l *Loop) handleAutoload(ctx context.Context, shortname string) *response {
	cfg, err := l.Provider.GetConfig(ctx, shortname)
	if err != nil {
		logger.Warnf("oidc-prompt: autoload %s: %v", shortname, err)
		return &response{ErrorCode: "account_not_loaded"}
	}
	return &response{Config: cfg}
}

func (l *Loop) handleConfirm(shortname, hint string) *response {
	logger.Infof("oidc-prompt: auto-%s confirm for %s (%s)", confirmVerb(l.AutoConfirm), shortname, hint)
	return &response{Accept: l.AutoConfirm}
}

func confirmVerb(accept bool) string {
	if accept {
		return "accepting"
	}
	return "denying"
}

// handleCredentials has no real prompting backend; resource-owner
// password credentials, when supported at all, come from the same
// provider under a "<shortname>:username"/"<shortname>:password" pair of
// lookups so a deployment can wire them through the environment or
// keyring backend without a terminal.
func (l *Loop) handleCredentials(ctx context.Context, shortname string) *response {
	username, uerr := l.Provider.GetConfig(ctx, shortname+":username")
	password, perr := l.Provider.GetConfig(ctx, shortname+":password")
	if uerr != nil || perr != nil {
		return &response{ErrorCode: "user_cancel"}
	}
	return &response{Username: username, Password: password}
}

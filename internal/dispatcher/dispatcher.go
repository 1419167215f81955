// Package dispatcher implements the IPC Dispatcher: the accept loop over
// the agent's unix-domain socket that reads one framed JSON request per
// connection, routes it to a handler, and writes one framed JSON
// response, never leaving a connection half-open on a handler panic.
package dispatcher

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oidcd/oidcd/internal/agent"
	"github.com/oidcd/oidcd/internal/flow"
	"github.com/oidcd/oidcd/internal/framing"
	"github.com/oidcd/oidcd/internal/ierrors"
	"github.com/oidcd/oidcd/internal/logger"
	"github.com/oidcd/oidcd/internal/registry"
)

// socketDirMode and socketMode are the permissions the agent socket and
// its parent directory are created with: the socket is the agent's only
// authentication boundary (filesystem permissions, not a credential
// exchanged over the wire), so both must be private to the owner.
const (
	socketDirMode = 0o700
	socketMode    = 0o600
)

// networkTimeout bounds every blocking operation a handler performs
// against the provider or the Frontend Channel.
const networkTimeout = 30 * time.Second

//go:generate mockgen -destination=mocks/mock_frontend.go -package=mocks -source=dispatcher.go Frontend

// Frontend is the Frontend Channel capability the Dispatcher needs:
// autoload and confirm, plus the credential prompt the Flow Engine uses
// for the password flow. *frontend.Channel satisfies this by structural
// typing, the same way it satisfies flow.CredentialPrompter.
type Frontend interface {
	flow.CredentialPrompter
	RequestAutoload(ctx context.Context, shortname string) (config string, err error)
	RequestConfirm(ctx context.Context, shortname, applicationHint string) error
}

// Dispatcher owns the Registry, the Flow Engine, the Frontend Channel,
// and the Agent State, and drives the agent socket's accept loop.
type Dispatcher struct {
	// handleMu serializes full request handling end to end, modeling a
	// single event-loop thread rather than a worker-pool variant: a
	// handler's network I/O already isn't covered
	// by the Registry's own mutex, so without this a second request could
	// mutate an Account an in-flight handler is still using.
	handleMu sync.Mutex

	Registry *registry.Registry
	Engine   *flow.Engine
	Frontend Frontend
	Agent    *agent.State

	now func() int64
}

// New builds a Dispatcher. frontend may be nil, in which case autoload
// and confirm requests fail closed and the password flow has no
// prompter.
func New(reg *registry.Registry, engine *flow.Engine, frontend Frontend, agentState *agent.State) *Dispatcher {
	return &Dispatcher{
		Registry: reg,
		Engine:   engine,
		Frontend: frontend,
		Agent:    agentState,
		now:      func() int64 { return time.Now().Unix() },
	}
}

// Serve listens on socketPath and accepts connections until ctx is
// canceled, at which point it unlinks the socket and returns: a listener
// goroutine blocking on ctx.Done, the same shape an HTTP server's
// ListenAndServe/Shutdown pair takes, here over a raw unix-socket framed
// request loop since the agent socket deliberately isn't HTTP.
func (d *Dispatcher) Serve(ctx context.Context, socketPath string) error {
	if err := os.MkdirAll(filepath.Dir(socketPath), socketDirMode); err != nil {
		return ierrors.Wrap(ierrors.KindInternal, "failed to create socket directory", err)
	}
	_ = os.Remove(socketPath)

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "unix", socketPath)
	if err != nil {
		return ierrors.Wrap(ierrors.KindInternal, "failed to bind agent socket", err)
	}
	if err := os.Chmod(socketPath, socketMode); err != nil {
		_ = ln.Close()
		return ierrors.Wrap(ierrors.KindInternal, "failed to set socket permissions", err)
	}

	logger.Infof("agent socket listening on %s", socketPath)

	acceptErr := make(chan error, 1)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				acceptErr <- err
				return
			}
			go d.handleConn(conn)
		}
	}()

	select {
	case err := <-acceptErr:
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		return ierrors.Wrap(ierrors.KindInternal, "accept failed", err)
	case <-ctx.Done():
	}

	_ = ln.Close()
	_ = os.Remove(socketPath)
	d.Registry.RemoveAll()
	logger.Infof("agent socket closed")
	return nil
}

// handleConn reads exactly one request, dispatches it, writes exactly one
// response, and closes the connection — one JSON request/response per
// connection.
func (d *Dispatcher) handleConn(conn net.Conn) {
	defer conn.Close()

	correlationID := uuid.NewString()
	reader := bufio.NewReader(conn)

	var req request
	if err := framing.ReadMessage(reader, &req); err != nil {
		logger.Warnf("request %s: failed to read: %v", correlationID, err)
		_ = framing.WriteMessage(conn, badRequest("malformed request"))
		return
	}

	resp := d.dispatch(correlationID, &req)
	if err := framing.WriteMessage(conn, resp); err != nil {
		logger.Warnf("request %s: failed to write response: %v", correlationID, err)
	}
}

// dispatch routes one request to its handler under handleMu, recovering
// any handler panic into an Internal failure logged at the daemon's
// highest severity: the equivalent of syslog EMERG.
func (d *Dispatcher) dispatch(correlationID string, req *request) (resp *response) {
	d.handleMu.Lock()
	defer d.handleMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("request %s: handler panic: %v", correlationID, r)
			resp = &response{Status: "failure", Error: string(ierrors.KindInternal)}
		}
	}()

	d.Registry.Reap(d.now())

	if req.Request != "unlock" && d.Registry.Locked() {
		return failureFromErr(ierrors.New(ierrors.KindAgentLocked, "registry is locked"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), networkTimeout)
	defer cancel()

	logger.Debugf("request %s: %s", correlationID, req.Request)

	switch req.Request {
	case "gen":
		return d.handleGen(ctx, req)
	case "add":
		return d.handleAdd(ctx, req)
	case "remove":
		return d.handleRemove(req)
	case "delete":
		return d.handleDelete(ctx, req)
	case "remove_all":
		return d.handleRemoveAll()
	case "access_token":
		return d.handleAccessToken(ctx, req)
	case "register":
		return d.handleRegister(ctx, req)
	case "code_exchange":
		return d.handleCodeExchange(ctx, req)
	case "state_lookup":
		return d.handleStateLookup(req)
	case "device_lookup":
		return d.handleDeviceLookup(ctx, req)
	case "term_http":
		return d.handleTermHTTP(req)
	case "lock":
		return d.handleLock(req)
	case "unlock":
		return d.handleUnlock(req)
	case "list":
		return d.handleList()
	case "":
		return badRequest("request field is required")
	default:
		return badRequest("unknown request: " + req.Request)
	}
}

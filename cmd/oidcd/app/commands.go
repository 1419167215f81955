// Package app wires together oidcd's components — Registry, Flow Engine,
// Frontend Channel, Agent State, and the IPC Dispatcher — behind a cobra
// root command, mirroring cmd/thv/app/commands.go's NewRootCmd structure
// (persistent flags bound via viper, PersistentPreRun initializing the
// logger) generalized from a container-manager CLI to a single-shot
// daemon with no subcommands.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oidcd/oidcd/internal/agent"
	"github.com/oidcd/oidcd/internal/config"
	"github.com/oidcd/oidcd/internal/dispatcher"
	"github.com/oidcd/oidcd/internal/flow"
	"github.com/oidcd/oidcd/internal/frontend"
	"github.com/oidcd/oidcd/internal/logger"
	"github.com/oidcd/oidcd/internal/oidcclient"
	"github.com/oidcd/oidcd/internal/pidfile"
	"github.com/oidcd/oidcd/internal/registry"
)

// shutdownGrace is the upper bound SIGTERM/SIGINT cleanup gets before the
// process is forced to exit anyway.
const shutdownGrace = 2 * time.Second

// NewRootCmd builds the oidcd root command.
func NewRootCmd() *cobra.Command {
	var (
		killFlag        bool
		debugFlag       bool
		consoleFlag     bool
		lifetimeSeconds int64
		noAutoload      bool
		promptBackend   string
		promptAutoYes   bool
	)

	rootCmd := &cobra.Command{
		Use:               "oidcd",
		DisableAutoGenTag: true,
		Short:             "oidcd is an OIDC credential agent: it holds refresh tokens so callers never touch them",
		Long: `oidcd caches OIDC refresh tokens and mints access tokens on request over a
unix-domain socket, authenticating callers by filesystem permission alone.
It never stores a client secret or credential handled by a caller it
doesn't also broker: everything flows through the account registry, the
IPC dispatcher, and the OIDC flow engine this binary starts.`,
		PersistentPreRun: func(*cobra.Command, []string) {
			logger.SetDebug(debugFlag)
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sockEnvName := envNameOrDefault("OIDC_SOCK_ENV_NAME", defaultSockEnvName)
			pidEnvName := envNameOrDefault("OIDC_PID_ENV_NAME", defaultPIDEnvName)

			if killFlag {
				return kill(os.Stdout, sockEnvName, pidEnvName)
			}

			if !consoleFlag && !isDaemonChild() {
				return relaunchDetached(cmd, sockEnvName, pidEnvName)
			}

			return run(cmd.Context(), runOptions{
				lifetime:      time.Duration(lifetimeSeconds) * time.Second,
				noAutoload:    noAutoload,
				promptBackend: promptBackend,
				promptAutoYes: promptAutoYes,
				sockEnvName:   sockEnvName,
				pidEnvName:    pidEnvName,
			})
		},
	}

	rootCmd.Flags().BoolVarP(&killFlag, "kill", "k", false,
		"signal the running agent to shut down, then exit")
	rootCmd.Flags().BoolVarP(&debugFlag, "debug", "g", false,
		"raise log verbosity to debug")
	rootCmd.Flags().BoolVarP(&consoleFlag, "console", "c", false,
		"stay in the foreground instead of daemonizing")
	rootCmd.Flags().Int64Var(&lifetimeSeconds, "lifetime", 0,
		"default account timeout in seconds, overriding the persisted config")
	rootCmd.Flags().BoolVar(&noAutoload, "no-autoload", false,
		"refuse to autoload an unloaded account on access_token")
	rootCmd.Flags().StringVar(&promptBackend, "prompt-backend", "environment",
		"oidc-prompt account config backend: keyring, 1password, or environment")
	rootCmd.Flags().BoolVar(&promptAutoYes, "prompt-auto-confirm", false,
		"tell oidc-prompt to accept every confirmation request automatically")

	for _, name := range []string{"debug", "no-autoload", "prompt-backend"} {
		if err := viper.BindPFlag(name, rootCmd.Flags().Lookup(name)); err != nil {
			logger.Errorf("error binding %s flag: %v", name, err)
		}
	}

	return rootCmd
}

func envNameOrDefault(envVar, fallback string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return fallback
}

// relaunchDetached re-execs oidcd as a detached child, prints the
// advertisement lines for the child's socket and PID, and returns so the
// parent's RunE (and thus Execute) exits immediately.
func relaunchDetached(cmd *cobra.Command, sockEnvName, pidEnvName string) error {
	sockPath, err := socketPath()
	if err != nil {
		return fmt.Errorf("resolve socket path: %w", err)
	}

	pid, err := daemonize(os.Args[1:])
	if err != nil {
		return fmt.Errorf("daemonize: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s=%s; export %s;\n", sockEnvName, sockPath, sockEnvName)
	fmt.Fprintf(cmd.OutOrStdout(), "%s=%d; export %s;\n", pidEnvName, pid, pidEnvName)
	return nil
}

type runOptions struct {
	lifetime      time.Duration
	noAutoload    bool
	promptBackend string
	promptAutoYes bool
	sockEnvName   string
	pidEnvName    string
}

// run is the daemon's actual body: acquire the pidfile, wire up every
// component, print the advertisement lines (needed even in --console
// mode, since a caller still has to learn the socket path), serve until a
// signal arrives, then clean up.
func run(ctx context.Context, opts runOptions) error {
	pf, err := pidfile.Acquire()
	if err != nil {
		return err
	}
	defer pf.Release()

	cfg, err := config.LoadOrCreate()
	if err != nil {
		return err
	}
	agentState := agent.New(cfg)
	agentState.ApplyLifetimeFlag(opts.lifetime)
	agentState.ApplyNoAutoloadFlag(opts.noAutoload)

	prompt, err := spawnPrompt(opts.promptBackend, opts.promptAutoYes)
	if err != nil {
		logger.Warnf("failed to start oidc-prompt, autoload/confirm/credentials will fail closed: %v", err)
	}
	// credPrompter/dispFrontend are left as untyped nil interfaces when
	// prompt didn't start: assigning a nil *frontend.Channel to them
	// directly would instead produce a non-nil interface wrapping a nil
	// pointer, and every call against it would panic instead of failing
	// closed the way flow.Engine and dispatcher.Dispatcher expect.
	var credPrompter flow.CredentialPrompter
	var dispFrontend dispatcher.Frontend
	if prompt != nil {
		fe := frontend.New(prompt.Conn)
		credPrompter = fe
		dispFrontend = fe
		defer prompt.Close()
	}

	reg := registry.New()
	engine := flow.NewEngine(oidcclient.NewCache(), credPrompter)
	d := dispatcher.New(reg, engine, dispFrontend, agentState)

	sockPath, err := socketPath()
	if err != nil {
		return err
	}
	fmt.Printf("%s=%s; export %s;\n", opts.sockEnvName, sockPath, opts.sockEnvName)
	fmt.Printf("%s=%d; export %s;\n", opts.pidEnvName, os.Getpid(), opts.pidEnvName)

	serveCtx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	go ignoreSIGHUP(serveCtx)

	serveErr := make(chan error, 1)
	go func() { serveErr <- d.Serve(serveCtx, sockPath) }()

	select {
	case err := <-serveErr:
		return err
	case <-serveCtx.Done():
	}

	select {
	case err := <-serveErr:
		return err
	case <-time.After(shutdownGrace):
		logger.Warnf("shutdown grace period elapsed, forcing exit")
		return nil
	}
}

// ignoreSIGHUP absorbs SIGHUP for the process lifetime so a controlling
// terminal hangup doesn't kill a daemon that should outlive its
// launching shell.
func ignoreSIGHUP(ctx context.Context) {
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)
	for {
		select {
		case <-sighup:
			logger.Debugf("ignoring SIGHUP")
		case <-ctx.Done():
			return
		}
	}
}

package app

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// daemonChildEnv marks a re-exec'd child as already detached, so it
// doesn't try to fork again. Only this process and its own children ever
// see it set.
const daemonChildEnv = "OIDCD_DAEMON_CHILD"

// isDaemonChild reports whether this process is the detached child a
// previous invocation of oidcd re-exec'd.
func isDaemonChild() bool {
	return os.Getenv(daemonChildEnv) == "1"
}

// daemonize re-execs the current binary detached from the controlling
// terminal (new session, stdio on /dev/null) and returns the child's PID.
// The parent is expected to print the advertisement lines and exit
// immediately afterward; it never waits on the child. This is an
// OS-level process concern rather than a domain one, with no ecosystem
// library fit, so it's hand-rolled on os/exec and syscall.SysProcAttr.
func daemonize(args []string) (pid int, err error) {
	exePath, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("resolve executable path: %w", err)
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	cmd := exec.Command(exePath, args...)
	cmd.Env = append(os.Environ(), daemonChildEnv+"=1")
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start detached process: %w", err)
	}
	return cmd.Process.Pid, nil
}

package app

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// pipeConn joins an independent read side and write side into a single
// io.ReadWriter, the shape frontend.New expects — the Frontend Channel is
// a pair of anonymous pipes, not a single bidirectional fd.
type pipeConn struct {
	io.Reader
	io.Writer
}

// promptProcess is the running oidc-prompt child and the plumbing to it.
type promptProcess struct {
	cmd  *exec.Cmd
	Conn io.ReadWriter
}

// spawnPrompt execs the oidc-prompt companion binary next to the current
// executable (falling back to $PATH) with its stdin/stdout wired to a
// pair of pipes, and returns a ReadWriter the Frontend Channel can use.
func spawnPrompt(backend string, autoConfirm bool) (*promptProcess, error) {
	exePath, err := resolvePromptBinary()
	if err != nil {
		return nil, err
	}

	args := []string{"--backend", backend}
	if autoConfirm {
		args = append(args, "--auto-confirm")
	}

	agentReader, promptWriter, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create prompt->agent pipe: %w", err)
	}
	promptReader, agentWriter, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create agent->prompt pipe: %w", err)
	}

	cmd := exec.Command(exePath, args...)
	cmd.Stdin = promptReader
	cmd.Stdout = promptWriter
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", exePath, err)
	}
	_ = promptReader.Close()
	_ = promptWriter.Close()

	return &promptProcess{
		cmd:  cmd,
		Conn: pipeConn{Reader: agentReader, Writer: agentWriter},
	}, nil
}

func (p *promptProcess) Close() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// resolvePromptBinary looks for oidc-prompt beside the running oidcd
// binary first (the typical install layout), then falls back to $PATH.
func resolvePromptBinary() (string, error) {
	self, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(self), "oidc-prompt")
		if _, statErr := os.Stat(candidate); statErr == nil {
			return candidate, nil
		}
	}
	return exec.LookPath("oidc-prompt")
}

// Package runner executes package-manager commands.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"go.trai.ch/zerr"
)

var (
	// ErrCommandFailed is returned when an external command exits non-zero or cannot start.
	ErrCommandFailed = zerr.New("command failed")

	// ErrEmptyCommand is returned when a command has no program name.
	ErrEmptyCommand = zerr.New("empty command")
)

// Command is one external program invocation.
type Command struct {
	Name       string
	Args       []string
	Privileged bool // run through the privilege wrapper
}

// Argv returns the program name followed by its arguments.
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// String renders the command as a shell-like line.
func (c Command) String() string {
	return strings.Join(c.Argv(), " ")
}

// Runner runs commands.
//
//go:generate go run go.uber.org/mock/mockgen -source=runner.go -destination=mocks/mock_runner.go -package=mocks
type Runner interface {
	// Run executes the command and blocks until it exits.
	Run(ctx context.Context, cmd Command) error
}

// Exec runs commands on the host with os/exec.
type Exec struct {
	wrapper []string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// Option configures an Exec runner.
type Option func(*Exec)

// WithPrivilegeWrapper sets the program used to elevate privileged commands,
// e.g. "sudo" or "doas -n". An empty string disables elevation.
func WithPrivilegeWrapper(wrapper string) Option {
	return func(e *Exec) {
		e.wrapper = strings.Fields(wrapper)
	}
}

// WithOutput redirects the child's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Exec) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// NewExec creates a runner that wires the child to the current terminal.
// Privileged commands go through sudo unless the process already runs as root.
func NewExec(opts ...Option) *Exec {
	e := &Exec{
		wrapper: []string{"sudo"},
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve returns the argv that would be executed for cmd.
func (e *Exec) Resolve(cmd Command) []string {
	return elevate(e.wrapper, cmd)
}

// elevate prefixes privileged commands with wrapper unless the process
// already runs as root.
func elevate(wrapper []string, cmd Command) []string {
	argv := cmd.Argv()
	if cmd.Privileged && len(wrapper) > 0 && os.Geteuid() != 0 {
		argv = append(append([]string{}, wrapper...), argv...)
	}
	return argv
}

// Run executes cmd. The child's output is passed through untouched.
func (e *Exec) Run(ctx context.Context, cmd Command) error {
	if cmd.Name == "" {
		return ErrEmptyCommand
	}

	argv := e.Resolve(cmd)
	c := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // argv comes from the manifest
	c.Stdin = e.stdin
	c.Stdout = e.stdout
	c.Stderr = e.stderr

	if err := c.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		err = fmt.Errorf("%w: %w", ErrCommandFailed, err)
		return zerr.With(zerr.With(err, "command", cmd.String()), "exit_code", exitCode)
	}
	return nil
}

// DryRun prints commands instead of running them.
type DryRun struct {
	w       io.Writer
	wrapper []string

	mu  sync.Mutex
	ran []Command
}

// NewDryRun creates a dry-run runner that writes one line per command to w.
// Privileged commands are shown the way Exec with the same wrapper runs them.
func NewDryRun(w io.Writer, wrapper string) *DryRun {
	return &DryRun{w: w, wrapper: strings.Fields(wrapper)}
}

// Run records cmd and prints it.
func (d *DryRun) Run(ctx context.Context, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cmd.Name == "" {
		return ErrEmptyCommand
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.ran = append(d.ran, cmd)

	line := strings.Join(elevate(d.wrapper, cmd), " ")
	if _, err := fmt.Fprintln(d.w, line); err != nil {
		return zerr.Wrap(err, "writing dry-run output")
	}
	return nil
}

// Commands returns the commands seen so far.
func (d *DryRun) Commands() []Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Command(nil), d.ran...)
}

package gitx

import (
	"bytes"
	"context"
	"io"
	"os"
	osexec "os/exec"
	"strings"
)

// Executor runs git commands. Implementations must be safe to share: WithDir
// returns a derived executor and never mutates the receiver.
type Executor interface {
	// WithDir returns an executor that runs commands in dir.
	WithDir(dir string) Executor

	// Run executes git with the given arguments, blocking until it exits.
	// Output is captured; a non-zero exit returns a *GitError alongside the
	// partial Result.
	Run(ctx context.Context, args ...string) (*Result, error)
}

// Result holds the captured output of one git invocation.
type Result struct {
	// Stdout is the captured standard output.
	Stdout string

	// Stderr is the captured standard error.
	Stderr string

	// ExitCode is the exit code returned by git, or -1 if it never started.
	ExitCode int
}

// Out returns stdout with surrounding whitespace trimmed, matching how git
// plumbing output (rev-parse, remote get-url) is normally consumed.
func (r *Result) Out() string {
	return strings.TrimSpace(r.Stdout)
}

// Git is the subprocess-backed Executor.
type Git struct {
	bin    string
	dir    string
	env    map[string]string
	stderr io.Writer
}

// Option configures a Git executor at creation time.
type Option func(*Git)

// WithBinary overrides the git binary to invoke. Defaults to "git", resolved
// through PATH.
func WithBinary(bin string) Option {
	return func(g *Git) {
		g.bin = bin
	}
}

// WithEnv sets additional environment variables for every invocation. The
// parent process environment is always inherited.
func WithEnv(env map[string]string) Option {
	return func(g *Git) {
		for k, v := range env {
			g.env[k] = v
		}
	}
}

// WithStderrPassthrough streams git's stderr to w while still capturing it,
// so long-running network operations surface progress to the user.
func WithStderrPassthrough(w io.Writer) Option {
	return func(g *Git) {
		g.stderr = w
	}
}

// New creates a subprocess git executor.
func New(opts ...Option) *Git {
	g := &Git{
		bin: "git",
		env: make(map[string]string),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithDir returns a copy of the executor that runs commands in dir.
func (g *Git) WithDir(dir string) Executor {
	clone := g.clone()
	clone.dir = dir
	return clone
}

// Run executes the git binary with args, capturing stdout and stderr.
func (g *Git) Run(ctx context.Context, args ...string) (*Result, error) {
	cmd := osexec.CommandContext(ctx, g.bin, args...)
	cmd.Dir = g.dir

	cmd.Env = os.Environ()
	for k, v := range g.env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if g.stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, g.stderr)
	} else {
		cmd.Stderr = &stderr
	}

	err := cmd.Run()

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}

	if err != nil {
		return result, &GitError{
			Args:     args,
			ExitCode: exitCode,
			Stderr:   result.Stderr,
			Err:      err,
		}
	}
	return result, nil
}

func (g *Git) clone() *Git {
	env := make(map[string]string, len(g.env))
	for k, v := range g.env {
		env[k] = v
	}
	return &Git{
		bin:    g.bin,
		dir:    g.dir,
		env:    env,
		stderr: g.stderr,
	}
}

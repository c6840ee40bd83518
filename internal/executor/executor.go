// Package executor runs external commands with output capture, working
// directory and environment handling and a debug log line per call.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Result holds the output and error from a command execution
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Executor defines the interface for command execution
type Executor interface {
	// Execute runs program with args and the given options
	Execute(ctx context.Context, program string, args []string, opts ...Option) (*Result, error)
}

// Options configures command execution behavior
type Options struct {
	// Working directory
	WorkingDir string

	// Environment variables (appended to current env)
	Env map[string]string
}

// Option is a function that modifies Options
type Option func(*Options)

// DefaultOptions returns default execution options
func DefaultOptions() *Options {
	return &Options{
		Env: make(map[string]string),
	}
}

// CommandExecutor implements the Executor interface on top of os/exec.
type CommandExecutor struct {
	options *Options
	logger  *zap.Logger
}

// New creates a CommandExecutor. The base options apply to every call and can
// be overridden per call.
func New(logger *zap.Logger, opts ...Option) *CommandExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return &CommandExecutor{options: options, logger: logger}
}

// Execute implements the Executor interface
func (c *CommandExecutor) Execute(ctx context.Context, program string, args []string, opts ...Option) (*Result, error) {
	options := c.mergeOptions(opts...)

	cmd := exec.CommandContext(ctx, program, args...)
	c.setupCommand(cmd, options)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	start := time.Now()
	err := cmd.Run()
	result := createResult(&stdoutBuf, &stderrBuf, err)

	c.logger.Debug("exec",
		zap.String("program", program),
		zap.Strings("args", args),
		zap.String("dir", options.WorkingDir),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("took", time.Since(start)),
	)

	if err != nil {
		detail := strings.TrimSpace(result.Stderr)
		if detail == "" {
			return result, fmt.Errorf("%s %s: %w", program, strings.Join(args, " "), err)
		}
		return result, fmt.Errorf("%s %s: %w, detail: %s", program, strings.Join(args, " "), err, detail)
	}
	return result, nil
}

// setupCommand configures the exec.Cmd with working directory and environment
func (c *CommandExecutor) setupCommand(cmd *exec.Cmd, options *Options) {
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}
	if len(options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range options.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}
}

// createResult creates a Result from command execution and error
func createResult(stdoutBuf, stderrBuf *bytes.Buffer, err error) *Result {
	result := &Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
		Err:    err,
	}

	var exitErr *exec.ExitError
	switch {
	case err != nil && errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case err == nil:
		result.ExitCode = 0
	default:
		result.ExitCode = -1
	}
	return result
}

func (c *CommandExecutor) mergeOptions(opts ...Option) *Options {
	merged := *c.options
	merged.Env = make(map[string]string, len(c.options.Env))
	for k, v := range c.options.Env {
		merged.Env[k] = v
	}
	for _, opt := range opts {
		opt(&merged)
	}
	return &merged
}

// WithWorkingDir sets the working directory
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnvVar adds a single environment variable
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		o.Env[key] = value
	}
}

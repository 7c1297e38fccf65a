// Package execx is the synchronous external-command collaborator: scanners
// hand it a command line and a working directory and get back captured
// output plus exit status. The engine never interprets what the command does.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Command describes one external invocation.
type Command struct {
	// Line is the full command line, run through the shell.
	Line string
	// Dir is the working directory. Empty inherits the process directory.
	Dir string
	// Timeout bounds the invocation. Zero means no limit.
	Timeout time.Duration
	// IgnoreExitCode suppresses the error for a non-zero exit; the caller
	// inspects CommandResult.ExitCode instead.
	IgnoreExitCode bool
}

// CommandResult is the captured outcome of one invocation.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Signal   string // Name of the terminating signal, empty when none.
}

// CommandError wraps a subprocess failure, timeout, or kill.
type CommandError struct {
	Line     string
	Result   *CommandResult
	TimedOut bool
	Err      error
}

func (e *CommandError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("command %q timed out", e.Line)
	}
	return fmt.Sprintf("command %q failed: %v", e.Line, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Runner is the contract scanners depend on; tests substitute a stub.
type Runner interface {
	Exec(ctx context.Context, cmd Command) (*CommandResult, error)
}

// LocalRunner executes commands on the local machine via the shell.
type LocalRunner struct {
	logger *zap.Logger
}

// NewLocalRunner returns a Runner backed by /bin/sh.
func NewLocalRunner(logger *zap.Logger) *LocalRunner {
	return &LocalRunner{logger: logger.Named("execx")}
}

// Exec runs the command and captures its output. A timeout surfaces as a
// CommandError with TimedOut set; a non-zero exit surfaces as a CommandError
// unless the command asked to ignore exit codes.
func (r *LocalRunner) Exec(ctx context.Context, cmd Command) (*CommandResult, error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	proc := exec.CommandContext(ctx, "sh", "-c", cmd.Line)
	proc.Dir = cmd.Dir

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	start := time.Now()
	runErr := proc.Run()

	result := &CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if state := proc.ProcessState; state != nil {
		result.ExitCode = state.ExitCode()
		if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			result.Signal = ws.Signal().String()
		}
	}

	r.logger.Debug("External command finished",
		zap.String("command", cmd.Line),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", time.Since(start)),
	)

	if runErr == nil {
		return result, nil
	}

	// The context deadline takes precedence: a killed process also reports
	// an exit error, but the timeout is the root cause.
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return result, &CommandError{Line: cmd.Line, Result: result, TimedOut: true, Err: ctx.Err()}
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) && cmd.IgnoreExitCode {
		return result, nil
	}

	return result, &CommandError{Line: cmd.Line, Result: result, Err: runErr}
}

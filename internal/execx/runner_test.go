// internal/execx/runner_test.go
package execx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExecCapturesOutput(t *testing.T) {
	runner := NewLocalRunner(zap.NewNop())

	result, err := runner.Exec(context.Background(), Command{Line: "echo hello; echo oops >&2"})
	require.NoError(t, err)

	assert.Equal(t, "hello\n", result.Stdout)
	assert.Equal(t, "oops\n", result.Stderr)
	assert.Equal(t, 0, result.ExitCode)
}

func TestExecRunsInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	runner := NewLocalRunner(zap.NewNop())

	result, err := runner.Exec(context.Background(), Command{Line: "pwd", Dir: dir})
	require.NoError(t, err)
	assert.Contains(t, result.Stdout, dir)
}

func TestExecNonZeroExitIsAnError(t *testing.T) {
	runner := NewLocalRunner(zap.NewNop())

	result, err := runner.Exec(context.Background(), Command{Line: "exit 3"})
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.False(t, cmdErr.TimedOut)
	assert.Equal(t, 3, result.ExitCode)
}

func TestExecIgnoreExitCode(t *testing.T) {
	runner := NewLocalRunner(zap.NewNop())

	result, err := runner.Exec(context.Background(), Command{Line: "exit 3", IgnoreExitCode: true})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
}

func TestExecTimeout(t *testing.T) {
	runner := NewLocalRunner(zap.NewNop())

	_, err := runner.Exec(context.Background(), Command{Line: "sleep 5", Timeout: 50 * time.Millisecond})
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.True(t, cmdErr.TimedOut)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecMissingBinary(t *testing.T) {
	runner := NewLocalRunner(zap.NewNop())

	result, err := runner.Exec(context.Background(), Command{Line: "definitely-not-a-binary-404"})
	require.Error(t, err)
	assert.NotEqual(t, 0, result.ExitCode)
}

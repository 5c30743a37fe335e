package execenv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cberrors "github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/errors"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/logging"
)

func testExecutor() *Executor {
	return New(logging.New(false, true))
}

func TestExecNoCommand(t *testing.T) {
	t.Parallel()

	err := testExecutor().Exec(context.Background(), ExecOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No command specified")
}

func TestExecCommandNotFound(t *testing.T) {
	t.Parallel()

	err := testExecutor().Exec(context.Background(), ExecOptions{
		Command: []string{"definitely-not-a-real-binary-xyz"},
	})
	require.Error(t, err)

	var cmdErr cberrors.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Contains(t, cmdErr.Error(), "command not found")
}

func TestExecRunsCommandWithInjectedEnv(t *testing.T) {
	t.Parallel()

	err := testExecutor().Exec(context.Background(), ExecOptions{
		Command:     []string{"sh", "-c", `[ "$CREDBOOT_TEST_VAR" = "injected" ]`},
		Environment: map[string]string{"CREDBOOT_TEST_VAR": "injected"},
	})
	assert.NoError(t, err)
}

func TestExecPropagatesExitCode(t *testing.T) {
	t.Parallel()

	err := testExecutor().Exec(context.Background(), ExecOptions{
		Command: []string{"sh", "-c", "exit 42"},
	})
	require.Error(t, err)

	var cmdErr cberrors.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 42, cmdErr.ExitCode)
}

func TestExecTimeout(t *testing.T) {
	t.Parallel()

	start := time.Now()
	err := testExecutor().Exec(context.Background(), ExecOptions{
		Command: []string{"sleep", "30"},
		Timeout: 200 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBuildEnvironment(t *testing.T) {
	t.Parallel()

	current := []string{"PATH=/usr/bin", "EXISTING=old"}

	env := buildEnvironment(current, map[string]string{"EXISTING": "new", "ADDED": "v"}, false)
	assert.Contains(t, env, "EXISTING=new")
	assert.Contains(t, env, "ADDED=v")
	assert.Contains(t, env, "PATH=/usr/bin")

	env = buildEnvironment(current, map[string]string{"EXISTING": "new"}, true)
	assert.Contains(t, env, "EXISTING=old", "allowOverride keeps the pre-existing value")
}

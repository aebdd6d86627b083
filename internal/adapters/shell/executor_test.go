package shell_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.kiln.build/kiln/internal/adapters/shell"
	"go.kiln.build/kiln/internal/core/domain"
	"go.uber.org/mock/gomock"

	"go.kiln.build/kiln/internal/core/ports/portsmock"
)

func newExecutor(t *testing.T) *shell.Executor {
	t.Helper()
	ctrl := gomock.NewController(t)
	return shell.NewExecutor(portsmock.NewMockLogger(ctrl))
}

func TestExecutor_Execute_CapturesStdout(t *testing.T) {
	executor := newExecutor(t)
	tmpDir := t.TempDir()

	target := &domain.Target{
		Name:       domain.NewInternedString("test:echo"),
		Command:    []string{"sh", "-c", "echo line1; echo line2"},
		WorkingDir: tmpDir,
	}

	var stdout bytes.Buffer
	err := executor.Execute(context.Background(), target, nil, &stdout, &stdout)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "line1")
	assert.Contains(t, stdout.String(), "line2")
}

func TestExecutor_Execute_EnvironmentVariables(t *testing.T) {
	executor := newExecutor(t)
	tmpDir := t.TempDir()

	target := &domain.Target{
		Name:        domain.NewInternedString("test:env"),
		Command:     []string{"sh", "-c", "echo $MY_TEST_VAR"},
		Environment: map[string]string{"MY_TEST_VAR": "test-value-123"},
		WorkingDir:  tmpDir,
	}

	var stdout bytes.Buffer
	err := executor.Execute(context.Background(), target, nil, &stdout, &stdout)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "test-value-123")
}

func TestExecutor_Execute_InvalidCommand(t *testing.T) {
	executor := newExecutor(t)
	tmpDir := t.TempDir()

	target := &domain.Target{
		Name:       domain.NewInternedString("test:invalid"),
		Command:    []string{"nonexistent-command-xyz123"},
		WorkingDir: tmpDir,
	}

	err := executor.Execute(context.Background(), target, nil, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestExecutor_Execute_CommandFailure(t *testing.T) {
	executor := newExecutor(t)
	tmpDir := t.TempDir()

	target := &domain.Target{
		Name:       domain.NewInternedString("test:fail"),
		Command:    []string{"sh", "-c", "exit 42"},
		WorkingDir: tmpDir,
	}

	err := executor.Execute(context.Background(), target, nil, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "command failed"))
}

func TestExecutor_Execute_EmptyCommandIsNoOp(t *testing.T) {
	executor := newExecutor(t)
	tmpDir := t.TempDir()

	target := &domain.Target{
		Name:       domain.NewInternedString("test:empty"),
		Command:    []string{},
		WorkingDir: tmpDir,
	}

	err := executor.Execute(context.Background(), target, nil, &bytes.Buffer{}, &bytes.Buffer{})
	assert.NoError(t, err)
}

func TestExecutor_Execute_ToolEnvReachesCommand(t *testing.T) {
	executor := newExecutor(t)
	tmpDir := t.TempDir()

	target := &domain.Target{
		Name:       domain.NewInternedString("test:toolenv"),
		Command:    []string{"sh", "-c", "echo $TOOL_VAR"},
		WorkingDir: tmpDir,
	}

	toolEnv := []string{"TOOL_VAR=tool-value"}
	var stdout bytes.Buffer
	err := executor.Execute(context.Background(), target, toolEnv, &stdout, &stdout)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "tool-value")
}

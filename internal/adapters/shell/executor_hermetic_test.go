package shell_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.kiln.build/kiln/internal/core/domain"
)

func TestExecutor_Execute_ResolvesBinaryFromToolEnvPath(t *testing.T) {
	executor := newExecutor(t)

	hermeticDir := t.TempDir()
	cmdName := "my-hermetic-tool"
	cmdPath := filepath.Join(hermeticDir, cmdName)
	//nolint:gosec // test fixture requires an executable file
	require.NoError(t, os.WriteFile(cmdPath, []byte("#!/bin/sh\necho success\n"), 0o700))

	target := &domain.Target{
		Name:       domain.NewInternedString("test:hermetic"),
		Command:    []string{cmdName},
		WorkingDir: hermeticDir,
	}

	toolEnv := []string{"PATH=" + hermeticDir}
	var stdout bytes.Buffer
	err := executor.Execute(context.Background(), target, toolEnv, &stdout, &stdout)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "success")
}

// Package shell implements ports.Executor over os/exec.
package shell

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.kiln.build/kiln/internal/core/domain"
	"go.kiln.build/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{logger: logger}
}

// Execute runs target.Command, merging the process environment, the
// resolved tool environment (env) and target.Environment in that priority
// order (low to high). PATH is handled specially: env's PATH is prepended
// to the process's so a hermetically-resolved tool shadows the system one.
func (e *Executor) Execute(ctx context.Context, target *domain.Target, env []string, stdout, stderr io.Writer) error {
	if len(target.Command) == 0 {
		return nil
	}

	name := target.Command[0]
	args := target.Command[1:]

	cmdEnv := mergeEnvironment(os.Environ(), env, target.Environment)

	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, args...) //nolint:gosec // command is declared in a trusted build file
	if len(cmd.Args) > 0 {
		cmd.Args[0] = name
	}
	if target.WorkingDir != "" {
		cmd.Dir = target.WorkingDir
	}
	cmd.Env = cmdEnv
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if ok := asExitError(err, &exitErr); ok {
			exitCode = exitErr.ExitCode()
		}
		err := zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
		return zerr.With(err, "target", target.Name.String())
	}

	return nil
}

func asExitError(err error, target **exec.ExitError) bool {
	exitErr, ok := err.(*exec.ExitError)
	if ok {
		*target = exitErr
	}
	return ok
}

// mergeEnvironment layers sysEnv, then toolEnv (PATH prepended rather than
// replaced), then targetEnv, each overriding the previous for matching keys.
func mergeEnvironment(sysEnv, toolEnv []string, targetEnv map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(toolEnv)+len(targetEnv))
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}

	for _, entry := range toolEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			if sysPath, exists := envMap["PATH"]; exists && sysPath != "" {
				envMap[k] = v + string(os.PathListSeparator) + sysPath
			} else {
				envMap[k] = v
			}
			continue
		}
		envMap[k] = v
	}

	for k, v := range targetEnv {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func isExecutable(file string) bool {
	d, err := os.Stat(file)
	if err != nil {
		return false
	}
	m := d.Mode()
	return !m.IsDir() && m&0o111 != 0
}

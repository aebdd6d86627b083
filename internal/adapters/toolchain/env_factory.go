package toolchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"go.kiln.build/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// EnvFactory implements ports.EnvironmentFactory using Nix, combining a set
// of resolved tools into one hermetic dev-shell's exported environment.
type EnvFactory struct {
	resolver *Resolver

	cacheDir     string
	requestGroup singleflight.Group
}

// NewEnvFactory creates an EnvFactory with the default environment cache path.
func NewEnvFactory(resolver *Resolver) *EnvFactory {
	return NewEnvFactoryWithCache(resolver, domain.DefaultEnvCachePath())
}

// NewEnvFactoryWithCache creates an EnvFactory backed by a specific cache directory.
func NewEnvFactoryWithCache(resolver *Resolver, cacheDir string) *EnvFactory {
	return &EnvFactory{resolver: resolver, cacheDir: cacheDir}
}

// GetEnvironment resolves tools into "KEY=VALUE" environment entries for a
// hermetic nix dev-shell, deduplicating concurrent requests for the same
// tool set via singleflight and caching the result on disk by env ID.
func (e *EnvFactory) GetEnvironment(ctx context.Context, tools map[string]domain.ToolSpec) ([]string, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	specs := make(map[string]string, len(tools))
	for alias, spec := range tools {
		specs[alias] = spec.Alias + "@" + spec.Version
	}
	envID := domain.GenerateEnvID(specs)

	result, err, _ := e.requestGroup.Do(envID, func() (any, error) {
		cachePath := filepath.Join(e.cacheDir, envID+".json")
		if cachedEnv, err := loadEnvFromCache(cachePath); err == nil {
			return cachedEnv, nil
		}

		commitToPackages, err := e.resolveTools(ctx, tools)
		if err != nil {
			return nil, err
		}

		system := GetCurrentSystem()
		nixExpr := e.generateNixExpr(system, commitToPackages)

		tmpPath, cleanup, err := createNixTempFile(nixExpr)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		//nolint:gosec // tmpPath is a trusted temp file created by us
		cmd := exec.CommandContext(ctx, "nix", "print-dev-env", "--json", "--file", tmpPath)
		output, err := cmd.Output()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to execute nix print-dev-env")
		}

		env, err := parseNixDevEnv(output)
		if err != nil {
			return nil, zerr.Wrap(err, "failed to parse nix output")
		}
		env = append(env, "GOTOOLCHAIN=local")
		slices.Sort(env)

		if err := saveEnvToCache(cachePath, env); err != nil {
			_ = err // cache write failure is not fatal
		}

		return env, nil
	})
	if err != nil {
		return nil, err
	}

	env := slices.Clone(result.([]string))

	// Force transient directories to a stable location rather than whatever
	// TMPDIR the nix-shell print happened to leave behind.
	env = append(env,
		fmt.Sprintf("TMPDIR=%s", "/tmp"),
		fmt.Sprintf("TEMP=%s", "/tmp"),
		fmt.Sprintf("TMP=%s", "/tmp"),
	)
	if userCacheDir, err := os.UserCacheDir(); err == nil {
		env = append(env, fmt.Sprintf("GOCACHE=%s", filepath.Join(userCacheDir, "go-build")))
	}
	slices.Sort(env)

	return env, nil
}

// resolveTools resolves every tool concurrently (bounded by the CPU count) and
// groups the resulting attribute paths by the nixpkgs commit hash they came
// from, since a dev-shell expression may need to pull from several
// revisions at once.
func (e *EnvFactory) resolveTools(ctx context.Context, tools map[string]domain.ToolSpec) (map[string][]string, error) {
	commitToPackages := make(map[string][]string)
	var mu sync.Mutex

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, spec := range tools {
		spec := spec
		g.Go(func() error {
			commitHash, attrPath, err := e.resolver.ResolveFull(groupCtx, spec.Alias, spec.Version)
			if err != nil {
				return zerr.Wrap(err, "failed to resolve tool")
			}

			mu.Lock()
			commitToPackages[commitHash] = append(commitToPackages[commitHash], attrPath)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return commitToPackages, nil
}

// generateNixExpr builds a mkShell expression pulling buildInputs from each
// resolved commit's legacyPackages, sorted for deterministic output.
func (e *EnvFactory) generateNixExpr(system string, commits map[string][]string) string {
	var b strings.Builder

	b.WriteString("let\n")
	fmt.Fprintf(&b, "system = %q;\n", system)

	commitHashes := make([]string, 0, len(commits))
	for hash := range commits {
		commitHashes = append(commitHashes, hash)
	}
	slices.Sort(commitHashes)

	commitToIdx := make(map[string]int, len(commitHashes))
	for i, commitHash := range commitHashes {
		fmt.Fprintf(&b, "flake_%d = builtins.getFlake \"github:NixOS/nixpkgs/%s\";\n", i, commitHash)
		fmt.Fprintf(&b, "pkgs_%d = flake_%d.legacyPackages.${system};\n", i, i)
		commitToIdx[commitHash] = i
	}

	b.WriteString("in\n")
	fmt.Fprintf(&b, "pkgs_%d.mkShell {\n", 0)
	b.WriteString("buildInputs = [\n")

	for _, commitHash := range commitHashes {
		idx := commitToIdx[commitHash]
		packages := commits[commitHash]
		slices.Sort(packages)
		for _, pkg := range packages {
			fmt.Fprintf(&b, "pkgs_%d.%s\n", idx, pkg)
		}
	}

	b.WriteString("];\n}\n")
	return b.String()
}

func createNixTempFile(nixExpr string) (tmpPath string, cleanup func(), err error) {
	tmpFile, err := os.CreateTemp("", "kiln-env-*.nix")
	if err != nil {
		return "", nil, zerr.Wrap(err, "failed to create temp nix file")
	}
	tmpPath = tmpFile.Name()
	cleanup = func() { _ = os.Remove(tmpPath) }

	if _, writeErr := tmpFile.WriteString(nixExpr); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return "", nil, zerr.Wrap(writeErr, "failed to write nix expression")
	}
	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return "", nil, zerr.Wrap(closeErr, "failed to close temp nix file")
	}
	return tmpPath, cleanup, nil
}

func loadEnvFromCache(path string) ([]string, error) {
	//nolint:gosec // path is constructed from the trusted cache directory
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrToolCacheMiss
		}
		return nil, zerr.Wrap(err, "failed to read environment cache")
	}

	var env []string
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, zerr.Wrap(err, "failed to unmarshal environment cache")
	}
	return env, nil
}

func saveEnvToCache(path string, env []string) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal environment")
	}
	return atomicWriteFile(path, data)
}

type nixDevEnvOutput struct {
	Variables map[string]nixVariable `json:"variables"`
}

type nixVariable struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// parseNixDevEnv extracts exported shell variables from `nix print-dev-env
// --json` output, dropping interactive-shell-only variables.
func parseNixDevEnv(jsonData []byte) ([]string, error) {
	var output nixDevEnvOutput
	if err := json.Unmarshal(jsonData, &output); err != nil {
		return nil, zerr.Wrap(err, "failed to unmarshal nix dev-env output")
	}

	env := make([]string, 0, len(output.Variables))
	for key, variable := range output.Variables {
		if !shouldIncludeVar(key) {
			continue
		}

		var valueStr string
		switch v := variable.Value.(type) {
		case string:
			valueStr = v
		case []any:
			parts := make([]string, len(v))
			for i, part := range v {
				if s, ok := part.(string); ok {
					parts[i] = s
				}
			}
			valueStr = strings.Join(parts, ":")
		default:
			continue
		}

		env = append(env, fmt.Sprintf("%s=%s", key, valueStr))
	}

	slices.Sort(env)
	return env, nil
}

var excludedEnvVars = []string{
	"TERM", "SHELL", "EDITOR", "VISUAL", "PAGER", "LESS",
	"HOME", "USER", "LOGNAME", "PS1", "PS2", "SHLVL", "PWD", "OLDPWD", "_",
	"TMPDIR", "TEMP", "TMP", "NIX_BUILD_TOP", "NIX_BUILD_CORES", "NIX_LOG_FD",
}

func shouldIncludeVar(key string) bool {
	return !slices.Contains(excludedEnvVars, key)
}

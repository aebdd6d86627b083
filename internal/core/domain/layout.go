package domain

import "path/filepath"

const (
	// KilnDirName is the internal workspace metadata directory, analogous
	// to .git.
	KilnDirName = ".kiln"

	// CacheDirName holds the persisted CacheRecord store.
	CacheDirName = "cache"

	// ToolCacheDirName holds resolved tool metadata (commit hash per
	// alias@version), keyed independently of the environment cache so a
	// tool resolution can be reused across different combined environments.
	ToolCacheDirName = "tools"

	// EnvDirName holds cached hermetic environment variable sets, keyed by
	// GenerateEnvID.
	EnvDirName = "environments"

	// BuildFileName is a single project's build file.
	BuildFileName = "kiln.yaml"

	// WorkspaceFileName marks a workspace root.
	WorkspaceFileName = "kiln.work.yaml"

	// DebugLogFile is the path, relative to KilnDirName, of the debug log.
	DebugLogFile = "debug.log"

	// DirPerm is the default permission for directories kiln creates.
	DirPerm = 0o750

	// FilePerm is the default permission for files kiln creates.
	FilePerm = 0o644
)

// DefaultKilnPath returns the root metadata directory.
func DefaultKilnPath() string { return KilnDirName }

// DefaultCachePath returns the default cache-store directory.
func DefaultCachePath() string { return filepath.Join(KilnDirName, CacheDirName) }

// DefaultToolCachePath returns the default resolved-tool cache directory.
func DefaultToolCachePath() string { return filepath.Join(KilnDirName, ToolCacheDirName) }

// DefaultEnvCachePath returns the default hydrated-environment cache directory.
func DefaultEnvCachePath() string { return filepath.Join(KilnDirName, EnvDirName) }

// DefaultDebugLogPath returns the default debug log path.
func DefaultDebugLogPath() string { return filepath.Join(KilnDirName, DebugLogFile) }

package domain

import "go.trai.ch/zerr"

// ToolSpec is a target or project's declared need for a named tool at a
// version, e.g. tools: {go: "1.24.0"} in kiln.work.yaml or kiln.yaml, which a
// target then requests by alias (tools: ["go"]).
type ToolSpec struct {
	Alias   string
	Version string
}

// ResolvedToolInfo is the per-system-architecture metadata for a resolved
// tool, as produced by internal/adapters/toolchain.
type ResolvedToolInfo struct {
	Owner    string
	Repo     string
	Rev      string
	Hash     string
	AttrPath string
}

// ResolvedTool is a fully resolved tool across every system architecture it
// was resolved for.
type ResolvedTool struct {
	Alias   string
	Version string
	Systems map[string]ResolvedToolInfo
}

// InfoForSystem returns the resolved metadata for systemArch, or
// ErrUnsupportedArchitecture if this tool has no build for it.
func (t *ResolvedTool) InfoForSystem(systemArch string) (ResolvedToolInfo, error) {
	info, exists := t.Systems[systemArch]
	if !exists {
		err := zerr.With(ErrUnsupportedArchitecture, "tool", t.Alias)
		err = zerr.With(err, "version", t.Version)
		err = zerr.With(err, "requested_arch", systemArch)
		return ResolvedToolInfo{}, err
	}
	return info, nil
}

// ToolLock is the reproducible snapshot of every tool resolved for a
// workspace, analogous to a package manager's lockfile.
type ToolLock struct {
	Version int
	Tools   map[string]ResolvedTool
}

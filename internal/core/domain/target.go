package domain

import (
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// reservedNameChars are forbidden in a target's name, mirroring the
// characters Windows and POSIX tooling both reject in file names. ':' is
// excluded: it's the namespace separator between a workspace project and
// one of its targets (e.g. "frontend:build").
const reservedNameChars = `<>"|?*`

// outputReservedChars are forbidden in a declared output path. Unlike
// reservedNameChars, ':' is included: an output path is a literal
// filesystem path, not a namespaced identifier, so spec's full
// Windows-unsafe set applies even on POSIX.
const outputReservedChars = `<>:"|?*`

// DefaultStampFileName is the sentinel file a directory-output target
// maintains once its contents are up to date. Directory mtimes are
// unreliable across platforms, so the cache and verifier anchor freshness
// on this single file rather than the directory itself.
const DefaultStampFileName = ".kiln-stamp"

// OutputKind distinguishes a target that produces a single file from one
// that produces a directory tree rooted at a stamp file.
type OutputKind int

const (
	// OutputFile is the default: Target.PrimaryOutput names exactly one file.
	OutputFile OutputKind = iota
	// OutputDirectory means Target.PrimaryOutput names a directory; StampFile records
	// the marker file written once the directory is up to date.
	OutputDirectory
)

// ValidateOutputPath rejects an output path containing a reserved
// character, the boundary case spec.md requires graph freeze to enforce.
func ValidateOutputPath(path string) error {
	if strings.ContainsAny(path, outputReservedChars) {
		return zerr.With(ErrInvalidOutputPath, "output", path)
	}
	return nil
}

// Tag is a label attached to a target for selection. The zero value Tag{}
// is never produced; tags are created through NewTag.
type Tag struct {
	name InternedString
}

// NewTag interns a tag name.
func NewTag(name string) Tag {
	return Tag{name: NewInternedString(name)}
}

// String returns the tag's name.
func (t Tag) String() string {
	return t.name.String()
}

// TagFull is the default selection set: every target not marked
// DisableInFullBuild. TagAll is an accepted alias for TagFull.
var (
	TagFull = NewTag("full")
	TagAll  = NewTag("all")
)

// Target is a single buildable unit: a name, the output it produces, its
// dependencies (both on path-sets and directly on other targets), and the
// command that does the work. Execution itself is delegated to
// ports.Executor, which runs Command in an environment assembled from
// Environment plus whatever internal/adapters/toolchain resolves for Tools;
// the graph and scheduler never shell out directly.
type Target struct {
	Name     InternedString
	Kind     string // opaque class id, e.g. "go_binary", "shell_command"
	Output   OutputKind
	Tags     []Tag
	Priority float64

	// PrimaryOutput is the normalized output path spec.md's C3 calls the
	// target's Name; kept as its own field since Name also serves as the
	// graph's lookup key and the two need not be textually identical (a
	// namespaced target "project:build" can still produce "bin/project").
	PrimaryOutput string

	// Command is the argv to execute, e.g. ["go", "build", "-o", "$OUT"].
	Command []string
	// Environment is merged over the process environment and any resolved
	// tool environment before Command runs.
	Environment map[string]string
	// Tools lists the tool aliases this target needs, resolved via
	// internal/adapters/toolchain; the alias:version pair is a significant
	// option contributor (C5).
	Tools map[string]ToolSpec
	// WorkingDir is the directory Command runs in; empty means the build
	// root.
	WorkingDir string

	// Inputs lists the path-sets this target reads.
	Inputs []PathSet
	// Outputs lists the paths this target's Command is expected to produce,
	// beyond the single PrimaryOutput/output-kind pair (e.g. a binary plus a
	// generated debug symbol file).
	Outputs []string
	// DependsOn lists target names this target depends on directly, beyond
	// whatever its path-sets imply.
	DependsOn []InternedString
	// DisableInFullBuild excludes the target from the implicit "full"/"all" tag.
	DisableInFullBuild bool
	// FailureRetries is the number of additional attempts after the first.
	FailureRetries int
	// CleanOnRebuild opts the target into having its outputs removed during
	// the CLEAN pass of a --rebuild run.
	CleanOnRebuild bool

	// StampFile names the sentinel file an OutputDirectory target maintains
	// under PrimaryOutput, relative to it. Empty uses DefaultStampFileName.
	// Ignored for OutputFile targets.
	StampFile string
}

// StampPath returns the stamp file's path, joined under PrimaryOutput, for
// an OutputDirectory target, or "" for an OutputFile target.
func (t *Target) StampPath() string {
	if t.Output != OutputDirectory {
		return ""
	}
	name := t.StampFile
	if name == "" {
		name = DefaultStampFileName
	}
	return filepath.Join(t.PrimaryOutput, name)
}

// EffectiveOutputs returns every path the cache must verify and digest for
// this target to count as up to date: its declared Outputs plus its
// primary output (the directory's stamp file for an OutputDirectory
// target, PrimaryOutput itself otherwise), deduplicated.
func (t *Target) EffectiveOutputs() []string {
	primary := t.PrimaryOutput
	if t.Output == OutputDirectory {
		primary = t.StampPath()
	}
	if primary == "" {
		return t.Outputs
	}
	for _, o := range t.Outputs {
		if o == primary {
			return t.Outputs
		}
	}
	out := make([]string, 0, len(t.Outputs)+1)
	out = append(out, t.Outputs...)
	out = append(out, primary)
	return out
}

// ValidateName rejects output names containing reserved characters.
func ValidateName(name string) error {
	if strings.ContainsAny(name, reservedNameChars) {
		return zerr.With(ErrInvalidTargetName, "name", name)
	}
	return nil
}

// HasTag reports whether the target carries the given tag.
func (t *Target) HasTag(tag Tag) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}

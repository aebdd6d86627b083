package domain

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"go.trai.ch/zerr"
)

// ResolvedPath is a single concrete path produced by resolving a PathSet.
type ResolvedPath struct {
	// Abs is the absolute filesystem path.
	Abs string
	// DestSuffix is the path relative to the set's logical root, used when
	// a target copies or stages inputs under a new prefix.
	DestSuffix string
}

// ExcludePredicate reports whether a path should be dropped from a glob
// resolution. The zero value excludes nothing; DefaultExclude matches the
// workspace-wide default.
type ExcludePredicate func(relPath string) bool

// DefaultExclude matches NFS silly-rename files, the default global
// exclude pattern for every glob-backed PathSet. A kiln.work.yaml can add
// exclude patterns on top of it but cannot remove it.
func DefaultExclude(relPath string) bool {
	matched, _ := filepath.Match(".nfs*", filepath.Base(relPath))
	return matched
}

// WarnFunc receives resolution warnings (duplicate collapses) from a
// PathSet. It matches ports.Logger's Warn signature; a nil WarnFunc drops
// the warning. Declared here rather than as a ports dependency since
// ports already imports domain.
type WarnFunc func(msg string, args ...any)

// PathSet produces a stable, deduplicated list of concrete paths and the
// set of target names it transitively depends on to do so.
type PathSet interface {
	// Resolve expands the set into concrete paths, sorted by Abs with
	// duplicates collapsed under a logged warning. ctx carries
	// cancellation for sets that touch the filesystem or another target's
	// output.
	Resolve(ctx context.Context) ([]ResolvedPath, error)
	// Dependencies returns the target names this set depends on (targets
	// whose output must exist before Resolve can run), if any.
	Dependencies() []InternedString
}

func dedupSorted(paths []ResolvedPath, warn WarnFunc) []ResolvedPath {
	sort.Slice(paths, func(i, j int) bool { return paths[i].Abs < paths[j].Abs })
	out := paths[:0:0]
	var last string
	seen := false
	for _, p := range paths {
		if seen && p.Abs == last {
			if warn != nil {
				warn("duplicate path collapsed", "path", p.Abs)
			}
			continue
		}
		out = append(out, p)
		last = p.Abs
		seen = true
	}
	return out
}

// StaticPathSet is a fixed, literal list of paths known at parse time.
type StaticPathSet struct {
	Paths []string
	Warn  WarnFunc
}

// Resolve returns the literal paths, sorted and deduplicated.
func (s StaticPathSet) Resolve(_ context.Context) ([]ResolvedPath, error) {
	rs := make([]ResolvedPath, 0, len(s.Paths))
	for _, p := range s.Paths {
		rs = append(rs, ResolvedPath{Abs: p, DestSuffix: filepath.Base(p)})
	}
	return dedupSorted(rs, s.Warn), nil
}

// Dependencies returns nil; a static set has no target dependencies.
func (s StaticPathSet) Dependencies() []InternedString { return nil }

// DirPathSet lists every regular file beneath Root, honoring Exclude.
type DirPathSet struct {
	Root    string
	Exclude ExcludePredicate
	Warn    WarnFunc
	walk    func(root string, exclude ExcludePredicate) ([]string, error)
}

// Resolve walks Root and returns every non-excluded file beneath it.
func (s DirPathSet) Resolve(_ context.Context) ([]ResolvedPath, error) {
	if s.walk == nil {
		return nil, zerr.With(ErrInvalidGlob, "path_set", "DirPathSet has no walker wired")
	}
	files, err := s.walk(s.Root, s.Exclude)
	if err != nil {
		return nil, err
	}
	rs := make([]ResolvedPath, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(s.Root, f)
		if err != nil {
			rel = filepath.Base(f)
		}
		rs = append(rs, ResolvedPath{Abs: f, DestSuffix: rel})
	}
	return dedupSorted(rs, s.Warn), nil
}

// Dependencies returns nil; a directory walk has no target dependency.
func (s DirPathSet) Dependencies() []InternedString { return nil }

// WithWalker returns a copy of s using the given walk function, used by
// internal/adapters/fs to inject its filesystem walker without pulling
// domain into an fs import cycle.
func (s DirPathSet) WithWalker(walk func(root string, exclude ExcludePredicate) ([]string, error)) DirPathSet {
	s.walk = walk
	return s
}

// GlobPathSet expands a single glob pattern ("*", "?", "**") rooted at Root.
type GlobPathSet struct {
	Root    string
	Pattern string
	Exclude ExcludePredicate
	Warn    WarnFunc
	glob    func(root, pattern string, exclude ExcludePredicate) ([]string, error)
}

// ValidateGlobPattern rejects a trailing "**/*/" pattern, which spec.md
// calls out as ambiguous (it can't tell "every file under every directory"
// from "every directory" without a marker this DSL doesn't have).
func ValidateGlobPattern(pattern string) error {
	if strings.HasSuffix(pattern, "**/*/") {
		return zerr.With(ErrInvalidGlob, "pattern", pattern)
	}
	return nil
}

// NewGlobPathSet validates pattern and constructs a GlobPathSet.
func NewGlobPathSet(root, pattern string, exclude ExcludePredicate) (GlobPathSet, error) {
	if err := ValidateGlobPattern(pattern); err != nil {
		return GlobPathSet{}, err
	}
	return GlobPathSet{Root: root, Pattern: pattern, Exclude: exclude}, nil
}

// Resolve expands the glob pattern via the injected glob function.
func (s GlobPathSet) Resolve(_ context.Context) ([]ResolvedPath, error) {
	if s.glob == nil {
		return nil, zerr.With(ErrInvalidGlob, "path_set", "GlobPathSet has no resolver wired")
	}
	matches, err := s.glob(s.Root, s.Pattern, s.Exclude)
	if err != nil {
		return nil, err
	}
	rs := make([]ResolvedPath, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(s.Root, m)
		if err != nil {
			rel = filepath.Base(m)
		}
		rs = append(rs, ResolvedPath{Abs: m, DestSuffix: rel})
	}
	return dedupSorted(rs, s.Warn), nil
}

// Dependencies returns nil; a glob has no target dependency of its own.
func (s GlobPathSet) Dependencies() []InternedString { return nil }

// WithResolver returns a copy of s using the given glob function.
func (s GlobPathSet) WithResolver(glob func(root, pattern string, exclude ExcludePredicate) ([]string, error)) GlobPathSet {
	s.glob = glob
	return s
}

// TagPathSet resolves to the combined outputs of every target carrying Tag.
type TagPathSet struct {
	Tag     Tag
	Warn    WarnFunc
	targets []InternedString
	outputs map[InternedString]string
}

// NewTagPathSet binds a tag set to the concrete targets and their output
// paths as computed by Graph.Freeze.
func NewTagPathSet(tag Tag, targets []InternedString, outputs map[InternedString]string) TagPathSet {
	return TagPathSet{Tag: tag, targets: targets, outputs: outputs}
}

// Resolve returns the output path of every bound target.
func (s TagPathSet) Resolve(_ context.Context) ([]ResolvedPath, error) {
	rs := make([]ResolvedPath, 0, len(s.targets))
	for _, t := range s.targets {
		out := s.outputs[t]
		rs = append(rs, ResolvedPath{Abs: out, DestSuffix: filepath.Base(out)})
	}
	return dedupSorted(rs, s.Warn), nil
}

// Dependencies returns every target bound into the tag.
func (s TagPathSet) Dependencies() []InternedString { return s.targets }

// DirOfTargetPathSet is the declared way to depend on the contents of
// another target's directory output: it names the producing target
// explicitly rather than only its resolved path, so the resolver can tell a
// declared directory dependency from an accidental one.
type DirOfTargetPathSet struct {
	Target InternedString
	Warn   WarnFunc
	dir    string
	walk   func(root string, exclude ExcludePredicate) ([]string, error)
}

// NewDirOfTargetPathSet binds a directory-producing target to its resolved
// output directory, as computed once the graph is frozen.
func NewDirOfTargetPathSet(target InternedString, dir string, walk func(root string, exclude ExcludePredicate) ([]string, error)) DirOfTargetPathSet {
	return DirOfTargetPathSet{Target: target, dir: dir, walk: walk}
}

// Resolve walks the bound target's output directory.
func (s DirOfTargetPathSet) Resolve(_ context.Context) ([]ResolvedPath, error) {
	if s.walk == nil {
		return nil, nil
	}
	files, err := s.walk(s.dir, nil)
	if err != nil {
		return nil, err
	}
	rs := make([]ResolvedPath, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(s.dir, f)
		if err != nil {
			rel = filepath.Base(f)
		}
		rs = append(rs, ResolvedPath{Abs: f, DestSuffix: rel})
	}
	return dedupSorted(rs, s.Warn), nil
}

// Dependencies returns the single bound target.
func (s DirOfTargetPathSet) Dependencies() []InternedString {
	return []InternedString{s.Target}
}

// DerivedPathSet maps another PathSet's resolved paths through Prefix
// (prepended to DestSuffix), Rename (replaces DestSuffix wholesale when
// non-nil) and Filter (drops entries Filter returns false for).
type DerivedPathSet struct {
	Source PathSet
	Prefix string
	Rename func(ResolvedPath) string
	Filter func(ResolvedPath) bool
	Warn   WarnFunc
}

// Resolve resolves Source then applies Filter, Rename and Prefix, in that order.
func (s DerivedPathSet) Resolve(ctx context.Context) ([]ResolvedPath, error) {
	base, err := s.Source.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	rs := make([]ResolvedPath, 0, len(base))
	for _, p := range base {
		if s.Filter != nil && !s.Filter(p) {
			continue
		}
		suffix := p.DestSuffix
		if s.Rename != nil {
			suffix = s.Rename(p)
		}
		if s.Prefix != "" {
			suffix = filepath.Join(s.Prefix, suffix)
		}
		rs = append(rs, ResolvedPath{Abs: p.Abs, DestSuffix: suffix})
	}
	return dedupSorted(rs, s.Warn), nil
}

// Dependencies delegates to the wrapped source.
func (s DerivedPathSet) Dependencies() []InternedString {
	return s.Source.Dependencies()
}

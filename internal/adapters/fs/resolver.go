package fs

import (
	"path/filepath"
	"sort"
	"strings"

	"go.kiln.build/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Resolver expands glob patterns rooted at a directory, supporting "*",
// "?" and "**" (matching zero or more path segments), on top of
// path/filepath's single-segment matching.
type Resolver struct {
	walker *Walker
}

// NewResolver creates a new Resolver.
func NewResolver(walker *Walker) *Resolver {
	return &Resolver{walker: walker}
}

// Glob expands pattern relative to root. A pattern without "**" delegates
// to filepath.Glob; a pattern with "**" is handled by walking root and
// matching each candidate's relative path segment-by-segment.
func (r *Resolver) Glob(root, pattern string, exclude domain.ExcludePredicate) ([]string, error) {
	if err := domain.ValidateGlobPattern(pattern); err != nil {
		return nil, err
	}

	if !strings.Contains(pattern, "**") {
		full := filepath.Join(root, pattern)
		matches, err := filepath.Glob(full)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to glob path"), "pattern", full)
		}
		return r.filterExcluded(root, matches, exclude), nil
	}

	candidates, err := r.walker.WalkFilesSlice(root, exclude)
	if err != nil {
		return nil, err
	}

	patSegs := strings.Split(pattern, "/")
	var out []string
	for _, c := range candidates {
		rel, relErr := filepath.Rel(root, c)
		if relErr != nil {
			continue
		}
		if matchDoublestar(patSegs, strings.Split(rel, string(filepath.Separator))) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ResolveInputs expands a list of patterns (literal paths or globs) rooted
// at root into a deduplicated, sorted list of concrete files. A pattern
// that resolves to nothing returns an "input not found" error carrying the
// joined path; it is created per call, not a package sentinel.
func (r *Resolver) ResolveInputs(inputs []string, root string) ([]string, error) {
	unique := make(map[string]bool)
	for _, input := range inputs {
		matches, err := r.Glob(root, input, nil)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, zerr.With(zerr.New("input not found"), "path", filepath.Join(root, input))
		}
		for _, m := range matches {
			unique[m] = true
		}
	}
	result := make([]string, 0, len(unique))
	for p := range unique {
		result = append(result, p)
	}
	sort.Strings(result)
	return result, nil
}

func (r *Resolver) filterExcluded(root string, matches []string, exclude domain.ExcludePredicate) []string {
	if exclude == nil {
		return matches
	}
	out := matches[:0:0]
	for _, m := range matches {
		rel, err := filepath.Rel(root, m)
		if err == nil && exclude(rel) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// matchDoublestar matches path segments against pattern segments where a
// "**" segment consumes zero or more path segments.
func matchDoublestar(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}
	if pattern[0] == "**" {
		if matchDoublestar(pattern[1:], path) {
			return true
		}
		if len(path) == 0 {
			return false
		}
		return matchDoublestar(pattern, path[1:])
	}
	if len(path) == 0 {
		return false
	}
	ok, err := filepath.Match(pattern[0], path[0])
	if err != nil || !ok {
		return false
	}
	return matchDoublestar(pattern[1:], path[1:])
}

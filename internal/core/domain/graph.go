// Package domain contains the core domain model: properties and options,
// path-set algebra, and the target registry.
package domain

import (
	"iter"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.trai.ch/zerr"
)

// Graph is the registry of every target declared across a parse. It is
// built incrementally via Register, then locked once via Freeze; only a
// frozen Graph may be queried with Select. Turning the frozen registry into
// a concrete, ordered DAG (expanding path-sets, detecting cycles) is
// internal/engine/resolver's job, not the graph's.
type Graph struct {
	targets map[InternedString]*Target
	order   []InternedString // registration order, for stable iteration
	frozen  bool

	tagIndex map[Tag][]InternedString
	outputs  map[InternedString]string // target name -> normalized output path
}

// NewGraph returns an empty, unfrozen Graph.
func NewGraph() *Graph {
	return &Graph{
		targets: make(map[InternedString]*Target),
	}
}

// Register adds t to the graph. It returns ErrTargetAlreadyExists for a
// duplicate name, ErrInvalidTargetName for a reserved character, and
// ErrGraphAlreadyFrozen if called after Freeze.
func (g *Graph) Register(t *Target) error {
	if g.frozen {
		return zerr.With(ErrGraphAlreadyFrozen, "target", t.Name.String())
	}
	if err := ValidateName(t.Name.String()); err != nil {
		return err
	}
	if _, exists := g.targets[t.Name]; exists {
		return zerr.With(ErrTargetAlreadyExists, "target", t.Name.String())
	}
	g.targets[t.Name] = t
	g.order = append(g.order, t.Name)
	return nil
}

// Get returns the named target, or ErrTargetNotFound.
func (g *Graph) Get(name InternedString) (*Target, error) {
	t, ok := g.targets[name]
	if !ok {
		return nil, zerr.With(ErrTargetNotFound, "target", name.String())
	}
	return t, nil
}

// Count returns the number of registered targets.
func (g *Graph) Count() int { return len(g.targets) }

// Walk yields every target in registration order.
func (g *Graph) Walk() iter.Seq[*Target] {
	return func(yield func(*Target) bool) {
		for _, name := range g.order {
			if !yield(g.targets[name]) {
				return
			}
		}
	}
}

// Freeze validates output-path uniqueness and directory nesting rules,
// builds the tag index, and locks the graph against further Register
// calls. It is idempotent.
func (g *Graph) Freeze(outputOf func(t *Target) string) error {
	if g.frozen {
		return nil
	}

	g.outputs = make(map[InternedString]string, len(g.targets))
	for _, name := range g.order {
		t := g.targets[name]
		out := outputOf(t)
		if err := ValidateOutputPath(out); err != nil {
			return err
		}
		for _, extra := range t.Outputs {
			if err := ValidateOutputPath(extra); err != nil {
				return err
			}
		}
		g.outputs[name] = out
	}

	seen := make(map[string]InternedString, len(g.outputs))
	for _, name := range g.order {
		out := g.outputs[name]
		if owner, exists := seen[out]; exists {
			return zerr.With(zerr.With(ErrDuplicateOutput, "output", out), "targets", owner.String()+","+name.String())
		}
		seen[out] = name
	}

	// An output may nest beneath another target's output only when the
	// enclosing target produces a directory.
	for _, name := range g.order {
		out := g.outputs[name]
		for dir := filepath.Dir(out); dir != "." && dir != string(filepath.Separator) && dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			owner, ok := seen[dir]
			if !ok {
				continue
			}
			if g.targets[owner].Output != OutputDirectory {
				return zerr.With(zerr.With(ErrNestedOutput, "output", out), "under", dir)
			}
		}
	}

	g.tagIndex = make(map[Tag][]InternedString)
	for _, name := range g.order {
		t := g.targets[name]
		tags := t.Tags
		if !t.DisableInFullBuild {
			tags = append(append([]Tag{}, tags...), TagFull, TagAll)
		}
		for _, tag := range tags {
			g.tagIndex[tag] = append(g.tagIndex[tag], name)
		}
	}

	g.frozen = true
	return nil
}

// OutputOf returns the normalized output path computed for name at Freeze
// time.
func (g *Graph) OutputOf(name InternedString) (string, error) {
	if !g.frozen {
		return "", ErrGraphNotFrozen
	}
	out, ok := g.outputs[name]
	if !ok {
		return "", zerr.With(ErrTargetNotFound, "target", name.String())
	}
	return out, nil
}

// Select resolves a list of selector patterns (exact target names, tag
// names, output paths, or /regex/ literals) into the set of matching
// target names. An empty patterns list selects TagFull. Select requires a
// frozen graph.
func (g *Graph) Select(patterns []string) ([]InternedString, error) {
	if !g.frozen {
		return nil, ErrGraphNotFrozen
	}
	if len(patterns) == 0 {
		patterns = []string{TagFull.String()}
	}

	selected := make(map[InternedString]bool)
	for _, pat := range patterns {
		if strings.HasPrefix(pat, "/") && strings.HasSuffix(pat, "/") && len(pat) > 1 {
			re, err := regexp.Compile(pat[1 : len(pat)-1])
			if err != nil {
				return nil, zerr.With(ErrTargetNotFound, "pattern", pat)
			}
			for _, name := range g.order {
				if re.MatchString(name.String()) {
					selected[name] = true
				}
			}
			continue
		}
		if names, ok := g.tagIndex[NewTag(pat)]; ok {
			for _, n := range names {
				selected[n] = true
			}
			continue
		}
		if name := NewInternedString(pat); g.targets[name] != nil {
			selected[name] = true
			continue
		}
		matchedOutput := false
		for _, name := range g.order {
			if g.outputs[name] == pat {
				selected[name] = true
				matchedOutput = true
			}
		}
		if !matchedOutput {
			return nil, zerr.With(ErrTargetNotFound, "pattern", pat)
		}
	}

	out := make([]InternedString, 0, len(selected))
	for name := range selected {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// Search returns every target whose name or output path contains substr.
func (g *Graph) Search(substr string) []InternedString {
	var out []InternedString
	for _, name := range g.order {
		if strings.Contains(name.String(), substr) || strings.Contains(g.outputs[name], substr) {
			out = append(out, name)
		}
	}
	return out
}

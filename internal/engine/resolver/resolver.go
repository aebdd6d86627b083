// Package resolver turns a frozen domain.Graph and a selected target set
// into a concrete, ordered build plan: it expands path-set dependencies
// into target edges, detects dependency cycles (reporting the full cycle,
// not just the closing edge), and flags directory inputs consumed without
// a declared dependency on their producing target.
package resolver

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"go.kiln.build/kiln/internal/core/domain"
	"go.kiln.build/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Plan is the concrete, acyclic execution order for one run: Order lists
// every target that must run, dependencies before dependents; DependsOn
// records each target's direct edges (for telemetry's EmitPlan); Requested
// is the originally selected set before transitive expansion.
type Plan struct {
	Order     []domain.InternedString
	DependsOn map[string][]string
	Requested []string
}

// Resolver expands a graph's path-sets into a concrete target DAG.
type Resolver struct {
	// Logger, when set, receives periodic progress reports while a large
	// graph is being expanded, so long resolutions don't look like hangs.
	Logger ports.Logger
	// ProgressInterval is the gap between progress reports; <=0 uses 10s.
	ProgressInterval time.Duration
}

// New returns a Resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve computes the transitive closure of selected within graph, checks
// it for cycles and undeclared directory dependencies, and returns a
// topologically ordered Plan. When ignoreDeps is true, the plan is
// restricted to exactly selected: no dependency is pulled in beyond what
// was asked for, and ordering/cycle detection only considers edges between
// selected targets, not the full graph.
func (r *Resolver) Resolve(ctx context.Context, graph *domain.Graph, selected []domain.InternedString, ignoreDeps bool) (*Plan, error) {
	var expanded atomic.Int64
	stopProgress := r.startProgress(&expanded)
	edges, err := r.buildEdges(ctx, graph, selected, &expanded)
	stopProgress()
	if err != nil {
		return nil, err
	}

	closure := closureFrom(selected, edges)
	if ignoreDeps {
		closure = make(map[domain.InternedString]bool, len(selected))
		for _, name := range selected {
			closure[name] = true
		}
		edges = restrictEdges(edges, closure)
	}

	order, err := topoSort(closure, edges)
	if err != nil {
		return nil, err
	}

	dependsOn := make(map[string][]string, len(closure))
	requested := make([]string, 0, len(selected))
	for _, name := range selected {
		requested = append(requested, name.String())
	}
	for name := range closure {
		deps := edges[name]
		depStrs := make([]string, 0, len(deps))
		for _, d := range deps {
			depStrs = append(depStrs, d.String())
		}
		sort.Strings(depStrs)
		dependsOn[name.String()] = depStrs
	}

	return &Plan{Order: order, DependsOn: dependsOn, Requested: requested}, nil
}

// startProgress spawns the periodic progress reporter, returning the stop
// function. With no Logger attached it is a no-op.
func (r *Resolver) startProgress(expanded *atomic.Int64) func() {
	if r.Logger == nil {
		return func() {}
	}
	interval := r.ProgressInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				r.Logger.Info("resolving dependencies", "targets_expanded", expanded.Load())
			}
		}
	}()
	return func() { close(done) }
}

// buildEdges computes each target's direct dependency set: DependsOn plus
// every PathSet's declared Dependencies(), and records resolved directory
// inputs for the undeclared-dependency check.
func (r *Resolver) buildEdges(ctx context.Context, graph *domain.Graph, selected []domain.InternedString, expanded *atomic.Int64) (map[domain.InternedString][]domain.InternedString, error) {
	dirOutputs := make(map[string]domain.InternedString)
	for t := range graph.Walk() {
		if t.Output != domain.OutputDirectory {
			continue
		}
		out, err := graph.OutputOf(t.Name)
		if err != nil {
			return nil, err
		}
		dirOutputs[out] = t.Name
	}

	edges := make(map[domain.InternedString][]domain.InternedString)

	var visit func(name domain.InternedString) error
	visited := make(map[domain.InternedString]bool)
	visit = func(name domain.InternedString) error {
		if visited[name] {
			return nil
		}
		visited[name] = true
		expanded.Add(1)

		target, err := graph.Get(name)
		if err != nil {
			return err
		}

		deps := append([]domain.InternedString{}, target.DependsOn...)
		declaredDirs := make(map[domain.InternedString]bool)

		for _, ps := range target.Inputs {
			deps = append(deps, ps.Dependencies()...)
			if dot, ok := ps.(domain.DirOfTargetPathSet); ok {
				declaredDirs[dot.Target] = true
			}

			resolved, err := ps.Resolve(ctx)
			if err != nil {
				return err
			}
			for _, rp := range resolved {
				if owner, isDirOutput, ok := underDirOutput(rp.Abs, dirOutputs); isDirOutput && ok {
					if owner == name || declaredDirs[owner] {
						continue
					}
					return zerr.With(zerr.With(domain.ErrUndeclaredDirectoryDependency, "target", name.String()), "directory_owner", owner.String())
				}
			}
		}

		edges[name] = dedupNames(deps)

		for _, dep := range edges[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		return nil
	}

	for _, name := range selected {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	return edges, nil
}

func underDirOutput(path string, dirOutputs map[string]domain.InternedString) (owner domain.InternedString, isDirOutput, ok bool) {
	for dirOut, name := range dirOutputs {
		if len(path) > len(dirOut) && path[:len(dirOut)] == dirOut && path[len(dirOut)] == '/' {
			return name, true, true
		}
	}
	return domain.InternedString{}, false, false
}

func dedupNames(names []domain.InternedString) []domain.InternedString {
	seen := make(map[domain.InternedString]bool, len(names))
	out := make([]domain.InternedString, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// restrictEdges returns a copy of edges with every target outside closure
// dropped entirely, and each remaining target's dependency list filtered
// down to only its in-closure deps. Tarjan's strongConnect walks edges
// unconditionally, so shrinking closure alone isn't enough to keep
// topoSort from traversing into (and validating against) targets the
// caller asked to ignore.
func restrictEdges(edges map[domain.InternedString][]domain.InternedString, closure map[domain.InternedString]bool) map[domain.InternedString][]domain.InternedString {
	out := make(map[domain.InternedString][]domain.InternedString, len(closure))
	for name := range closure {
		var kept []domain.InternedString
		for _, dep := range edges[name] {
			if closure[dep] {
				kept = append(kept, dep)
			}
		}
		out[name] = kept
	}
	return out
}

func closureFrom(selected []domain.InternedString, edges map[domain.InternedString][]domain.InternedString) map[domain.InternedString]bool {
	closure := make(map[domain.InternedString]bool)
	var visit func(domain.InternedString)
	visit = func(name domain.InternedString) {
		if closure[name] {
			return
		}
		closure[name] = true
		for _, dep := range edges[name] {
			visit(dep)
		}
	}
	for _, name := range selected {
		visit(name)
	}
	return closure
}

// Package app wires the resolver, cache, and scheduler into the single
// entry point cmd/kiln calls: load the graph, select targets, resolve a
// plan, announce it, run it, flush the cache.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"go.kiln.build/kiln/internal/core/domain"
	"go.kiln.build/kiln/internal/core/ports"
	"go.kiln.build/kiln/internal/engine/cache"
	"go.kiln.build/kiln/internal/engine/resolver"
	"go.kiln.build/kiln/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// RunOptions configures one App.Run invocation, gathered from CLI flags.
type RunOptions struct {
	// Parallelism overrides the worker pool size (-j); 0 defers to
	// Parallel and the KILN_MAX_WORKERS / KILN_WORKERS_PER_CPU env vars.
	Parallelism int
	// Parallel (-J, default on) selects the automatic worker count: one
	// per CPU scaled by KILN_WORKERS_PER_CPU and clamped by
	// KILN_MAX_WORKERS. Disabled, the build runs on a single worker.
	Parallel bool
	// KeepGoing lets independent targets keep running after a failure.
	KeepGoing bool
	// Rebuild runs the CLEAN pass and forces the selected targets to
	// rebuild regardless of cache state.
	Rebuild bool
	// RebuildIgnoreDeps forces the selected targets to rebuild regardless
	// of cache state, without running the CLEAN pass.
	RebuildIgnoreDeps bool
	// IgnoreDeps restricts the resolved plan to exactly the requested
	// selection, skipping the transitive-dependency expansion Resolve
	// otherwise performs. Targets outside the selection are neither built
	// nor consulted for freshness; an out-of-date dependency silently
	// stays out of date.
	IgnoreDeps bool
	// Root is the workspace root; empty defaults to the current directory.
	Root string
	// GlobalOptions are CLI-supplied build options, a cache-key
	// contributor alongside each target's resolved inputs.
	GlobalOptions map[string]any
}

// App is the application layer: the single place that knows how to turn a
// target selection into a finished (or failed) build.
type App struct {
	configLoader ports.ConfigLoader
	resolver     *resolver.Resolver
	cache        *cache.Cache
	scheduler    *scheduler.Scheduler
	tracer       ports.Tracer
}

// New creates an App.
func New(loader ports.ConfigLoader, res *resolver.Resolver, c *cache.Cache, sched *scheduler.Scheduler, tracer ports.Tracer) *App {
	return &App{
		configLoader: loader,
		resolver:     res,
		cache:        c,
		scheduler:    sched,
		tracer:       tracer,
	}
}

// Run loads the graph rooted at opts.Root, selects targetNames (patterns,
// tags, or exact names; empty selects the "full" tag), resolves and
// announces the plan, runs it, and flushes the cache.
func (a *App) Run(ctx context.Context, targetNames []string, opts RunOptions) error {
	root := rootOrDot(opts.Root)

	graph, props, optStore, err := a.loadFrozen(root)
	if err != nil {
		return err
	}

	selected, err := graph.Select(targetNames)
	if err != nil {
		return zerr.Wrap(err, "failed to select targets")
	}

	plan, err := a.resolver.Resolve(ctx, graph, selected, opts.IgnoreDeps)
	if err != nil {
		return zerr.Wrap(err, "failed to resolve build plan")
	}

	a.tracer.EmitPlan(ctx, stringsOf(plan.Order), plan.DependsOn, plan.Requested)

	optionsHash, err := optionsHashFunc(optStore, plan.Order, opts.GlobalOptions)
	if err != nil {
		return err
	}

	var forceRebuild map[string]bool
	if opts.Rebuild || opts.RebuildIgnoreDeps {
		forceRebuild = make(map[string]bool, len(plan.Requested))
		for _, name := range plan.Requested {
			forceRebuild[name] = true
		}
	}

	runOpts := scheduler.RunOptions{
		Parallelism:  workerCount(opts.Parallelism, opts.Parallel),
		KeepGoing:    opts.KeepGoing,
		Rebuild:      opts.Rebuild,
		ForceRebuild: forceRebuild,
		Root:         root,
		Props:        props,
		OptionsHash:  optionsHash,
	}

	runErr := a.scheduler.Run(ctx, graph, plan, runOpts)

	a.emitArtifacts(ctx)

	if err := a.cache.Flush(); err != nil && runErr == nil {
		runErr = zerr.Wrap(err, "failed to flush cache")
	}
	return runErr
}

// loadFrozen loads the graph rooted at root and freezes it, normalizing
// each target's primary output to an absolute path beneath root.
func (a *App) loadFrozen(root string) (*domain.Graph, *domain.PropertyStore, *domain.OptionStore, error) {
	graph, props, optStore, err := a.configLoader.Load(root)
	if err != nil {
		return nil, nil, nil, zerr.Wrap(err, "failed to load configuration")
	}
	if err := graph.Freeze(func(t *domain.Target) string {
		out := t.PrimaryOutput
		if !filepath.IsAbs(out) {
			out = filepath.Join(root, out)
		}
		return filepath.Clean(out)
	}); err != nil {
		return nil, nil, nil, err
	}
	return graph, props, optStore, nil
}

// emitArtifacts surfaces every artifact targets published during the run
// through the chosen console formatter, as a single span written after
// execution finishes.
func (a *App) emitArtifacts(ctx context.Context) {
	artifacts := a.scheduler.Artifacts()
	if len(artifacts) == 0 {
		return
	}
	_, span := a.tracer.Start(ctx, "artifacts")
	defer span.End()
	for _, art := range artifacts {
		fmt.Fprintf(span, "%s (%s)\n", art.Path, art.Category)
	}
}

// Search loads the graph rooted at root and returns every target whose
// name or output path contains substr.
func (a *App) Search(root, substr string) ([]string, error) {
	graph, _, _, err := a.loadFrozen(rootOrDot(root))
	if err != nil {
		return nil, err
	}
	return stringsOf(graph.Search(substr)), nil
}

// FindTarget loads the graph rooted at root and resolves pattern (an exact
// name, a tag, an output path, or a "/regex/") to the matching target
// names, the same selection syntax Run accepts.
func (a *App) FindTarget(root, pattern string) ([]string, error) {
	graph, _, _, err := a.loadFrozen(rootOrDot(root))
	if err != nil {
		return nil, err
	}
	names, err := graph.Select([]string{pattern})
	if err != nil {
		return nil, err
	}
	return stringsOf(names), nil
}

// TargetInfo loads the graph rooted at root and returns the full
// definition of the named target.
func (a *App) TargetInfo(root, name string) (*domain.Target, error) {
	graph, _, _, err := a.loadFrozen(rootOrDot(root))
	if err != nil {
		return nil, err
	}
	return graph.Get(domain.NewInternedString(name))
}

func rootOrDot(root string) string {
	if root == "" {
		return "."
	}
	return root
}

func stringsOf(names []domain.InternedString) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.String()
	}
	return out
}

// optionsHashFunc builds the per-target options hash callback the
// scheduler uses as a cache-key contributor: the build file's declared
// options with the CLI-supplied globals layered on top, frozen once for
// every target in the plan.
func optionsHashFunc(store *domain.OptionStore, targets []domain.InternedString, globals map[string]any) (func(name string) string, error) {
	if store == nil {
		store = domain.NewOptionStore()
	}
	for k, v := range globals {
		if err := store.SetGlobalOption(k, v); err != nil {
			return nil, zerr.Wrap(err, "failed to set global option")
		}
	}
	store.Freeze(targets)

	return func(name string) string {
		hash, err := store.HashFor(domain.NewInternedString(name))
		if err != nil {
			return ""
		}
		return hash
	}, nil
}

// workerCount resolves the worker pool size: an explicit -j flag wins;
// otherwise -J (on by default) selects the automatic count —
// KILN_WORKERS_PER_CPU scaling runtime.NumCPU(), clamped by
// KILN_MAX_WORKERS — and -J=false runs a single worker.
func workerCount(explicit int, parallel bool) int {
	if explicit > 0 {
		return explicit
	}
	if !parallel {
		return 1
	}

	perCPU := 1.0
	if v, ok := lookupEnvFloat("KILN_WORKERS_PER_CPU"); ok {
		perCPU = v
	}

	n := int(float64(runtime.NumCPU()) * perCPU)
	if n < 1 {
		n = 1
	}

	if max, ok := lookupEnvInt("KILN_MAX_WORKERS"); ok && max > 0 && n > max {
		n = max
	}

	return n
}

func lookupEnvFloat(key string) (float64, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func lookupEnvInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Package scheduler runs a resolved build plan: a worker pool drains a
// priority queue of runnable targets, each checked against the
// incremental cache before executing, retried on failure per its
// FailureRetries option, with cooperative cancellation and a final grace
// period before an unclean shutdown.
package scheduler

import (
	"bytes"
	"container/heap"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"go.kiln.build/kiln/internal/core/buildctx"
	"go.kiln.build/kiln/internal/core/domain"
	"go.kiln.build/kiln/internal/core/ports"
	"go.kiln.build/kiln/internal/engine/cache"
	"go.kiln.build/kiln/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// Artifact is a build output surfaced to the chosen console formatter
// after a target publishes it.
type Artifact struct {
	Path     string
	Category string
}

// RunOptions configures one Scheduler.Run call.
type RunOptions struct {
	// Parallelism is the worker pool size; <=0 defaults to runtime.NumCPU().
	Parallelism int
	// KeepGoing, when false (the default), stops new dispatch after the
	// first failure but lets in-flight work finish.
	KeepGoing bool
	// Rebuild runs a CLEAN pass (reverse topological order, targets opted
	// in via CleanOnRebuild) before the BUILD pass, and forces every name
	// in ForceRebuild to rebuild regardless of cache state.
	Rebuild bool
	// ForceRebuild names targets that must rebuild regardless of cache
	// state (the originally requested selection under --rebuild or
	// --rebuild-ignore-deps); their dependencies are still only rebuilt if
	// they are themselves stale.
	ForceRebuild map[string]bool
	// GracePeriod bounds how long in-flight targets get to finish once ctx
	// is canceled before the run returns uncleanly.
	GracePeriod time.Duration
	// Root is the workspace root, used to build each target's buildctx.Context.
	Root string
	// Props expands "${}" references in target command/environment
	// strings via buildctx.Context.
	Props *domain.PropertyStore
	// OptionsHash returns the significant-options hash for a target name,
	// a cache-key contributor alongside its resolved input set.
	OptionsHash func(name string) string
}

func (o RunOptions) gracePeriod() time.Duration {
	if o.GracePeriod <= 0 {
		return 30 * time.Second
	}
	return o.GracePeriod
}

// Scheduler executes a resolved plan's targets.
type Scheduler struct {
	executor   ports.Executor
	cache      *cache.Cache
	envFactory ports.EnvironmentFactory
	tracer     ports.Tracer
	logger     ports.Logger

	mu        sync.RWMutex
	status    map[domain.InternedString]domain.TargetStatus
	artifacts []Artifact
}

// New creates a Scheduler.
func New(executor ports.Executor, c *cache.Cache, envFactory ports.EnvironmentFactory, tracer ports.Tracer, logger ports.Logger) *Scheduler {
	return &Scheduler{
		executor:   executor,
		cache:      c,
		envFactory: envFactory,
		tracer:     tracer,
		logger:     logger,
		status:     make(map[domain.InternedString]domain.TargetStatus),
	}
}

// Status returns name's current lifecycle state.
func (s *Scheduler) Status(name domain.InternedString) domain.TargetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status[name]
}

// Artifacts returns every artifact published during the run so far.
func (s *Scheduler) Artifacts() []Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Artifact(nil), s.artifacts...)
}

func (s *Scheduler) setStatus(name domain.InternedString, status domain.TargetStatus) {
	s.mu.Lock()
	s.status[name] = status
	s.mu.Unlock()
}

func (s *Scheduler) publishArtifact(path, category string) {
	s.mu.Lock()
	s.artifacts = append(s.artifacts, Artifact{Path: path, Category: category})
	s.mu.Unlock()
}

// Run executes plan against graph per opts: an optional CLEAN pass, then
// the BUILD pass over a priority-ordered ready queue drained by a bounded
// worker pool.
func (s *Scheduler) Run(ctx context.Context, graph *domain.Graph, plan *resolver.Plan, opts RunOptions) error {
	targets := make(map[domain.InternedString]*domain.Target, len(plan.Order))
	for _, name := range plan.Order {
		t, err := graph.Get(name)
		if err != nil {
			return err
		}
		targets[name] = t
		s.setStatus(name, domain.StatusPending)
	}

	if opts.Rebuild {
		s.cleanPass(plan.Order, targets, opts.Root)
	}

	return s.buildPass(ctx, targets, plan, opts)
}

// cleanPass removes the declared outputs of every CleanOnRebuild target,
// in reverse topological order so a directory target is cleaned after
// anything nested beneath it. Absent outputs are not an error; clean is
// idempotent.
func (s *Scheduler) cleanPass(order []domain.InternedString, targets map[domain.InternedString]*domain.Target, root string) {
	for i := len(order) - 1; i >= 0; i-- {
		t := targets[order[i]]
		if !t.CleanOnRebuild {
			continue
		}
		for _, out := range t.EffectiveOutputs() {
			_ = os.RemoveAll(joinRoot(root, out))
		}
		if t.Output == domain.OutputDirectory && t.PrimaryOutput != "" {
			_ = os.RemoveAll(joinRoot(root, t.PrimaryOutput))
		}
	}
}

func joinRoot(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func (s *Scheduler) buildPass(ctx context.Context, targets map[domain.InternedString]*domain.Target, plan *resolver.Plan, opts RunOptions) error {
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	state := newRunState(targets, plan)
	resultsCh := make(chan runResult, parallelism)

	runCtx, cancelGrace := s.withGracePeriod(ctx, opts.gracePeriod())
	defer cancelGrace()

	var errs error
	var active int
	shuttingDown := false

	for state.queue.Len() > 0 || active > 0 {
		for state.queue.Len() > 0 && active < parallelism && !shuttingDown {
			name := heap.Pop(state.queue).(*queueItem).name
			active++
			s.setStatus(name, domain.StatusRunning)
			go func(target *domain.Target) {
				resultsCh <- runResult{name: target.Name, err: s.runTarget(runCtx, target, opts)}
			}(targets[name])
		}

		if active == 0 {
			break
		}

		res := <-resultsCh
		active--

		if res.err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(res.err, "target execution failed"), "target", res.name.String()))
			s.setStatus(res.name, domain.StatusFailed)
			if !opts.KeepGoing {
				shuttingDown = true
			}
			state.skipDependents(res.name, s)
			continue
		}

		if s.Status(res.name) != domain.StatusSkipped {
			s.setStatus(res.name, domain.StatusSuccess)
		}
		state.markDone(res.name)
	}

	if errs != nil {
		errs = errors.Join(domain.ErrBuildExecutionFailed, errs)
	}
	if ctx.Err() != nil {
		errs = errors.Join(errs, ctx.Err())
	}
	return errs
}

// withGracePeriod returns a context that stays usable for GracePeriod
// after ctx is canceled, giving in-flight executions a bounded window to
// finish cleanly before the run is forced to give up.
func (s *Scheduler) withGracePeriod(ctx context.Context, grace time.Duration) (context.Context, context.CancelFunc) {
	graceCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(ctx, func() {
		t := time.AfterFunc(grace, cancel)
		context.AfterFunc(graceCtx, func() { t.Stop() })
	})
	return graceCtx, func() {
		stop()
		cancel()
	}
}

type runResult struct {
	name domain.InternedString
	err  error
}

// runTarget checks the incremental cache, then executes target with
// retries on failure, buffering its log output and streaming it to the
// tracer span once the attempt completes.
func (s *Scheduler) runTarget(ctx context.Context, target *domain.Target, opts RunOptions) error {
	spanCtx, span := s.tracer.Start(ctx, target.Name.String())
	defer span.End()

	env, err := s.envFactory.GetEnvironment(spanCtx, target.Tools)
	if err != nil {
		span.RecordError(err)
		return err
	}

	envMap := make(map[string]string, len(env))
	for _, kv := range env {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				envMap[kv[:i]] = kv[i+1:]
				break
			}
		}
	}

	resolvedInputs, err := resolveInputPaths(spanCtx, target)
	if err != nil {
		span.RecordError(err)
		return err
	}

	optionsHash := ""
	if opts.OptionsHash != nil {
		optionsHash = opts.OptionsHash(target.Name.String())
	}

	hit, in, err := s.cache.Check(target, optionsHash, envMap, resolvedInputs, opts.Root)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if hit && !opts.ForceRebuild[target.Name.String()] {
		s.setStatus(target.Name, domain.StatusSkipped)
		return nil
	}

	bctx := buildctx.New(opts.Root, target.Name.String(), opts.Props, nil)
	bctx.SetPublisher(s.publishArtifact)

	s.logger.Info(fmt.Sprintf("*** Building %s", target.Name.String()))
	started := time.Now()

	attempts := 1 + target.FailureRetries
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := bctx.RemoveWorkDir(); err != nil {
				span.RecordError(err)
			}
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-spanCtx.Done():
				return spanCtx.Err()
			}
		}

		expanded, err := expandTarget(bctx, target)
		if err != nil {
			span.RecordError(err)
			return err
		}

		var logBuf bytes.Buffer
		lastErr = s.executor.Execute(spanCtx, expanded, env, &logBuf, &logBuf)
		span.Write(logBuf.Bytes()) //nolint:errcheck // best-effort telemetry stream

		if lastErr == nil {
			if attempt > 0 {
				s.logger.Info(fmt.Sprintf("%s succeeded after %d retries", target.Name.String(), attempt))
			}
			break
		}

		if attempt < attempts-1 {
			s.logger.Warn(fmt.Sprintf("%s failed, retrying", target.Name.String()), "attempt", attempt+1, "error", lastErr)
		}
	}
	if lastErr != nil {
		s.logger.Error(lastErr, "target", target.Name.String())
		s.logger.Info(fmt.Sprintf("*** Failed %s after %.1f seconds", target.Name.String(), time.Since(started).Seconds()))
		span.RecordError(lastErr)
		return lastErr
	}

	s.logger.Info(fmt.Sprintf("*** Built %s in %.1f seconds", target.Name.String(), time.Since(started).Seconds()))

	if err := s.cache.Record(target, optionsHash, in, opts.Root); err != nil {
		span.RecordError(err)
		return err
	}

	for _, out := range target.Outputs {
		s.publishArtifact(out, target.Kind)
	}

	return nil
}

// expandTarget returns a shallow copy of target with every "${name}"
// property reference in its Command and Environment substituted through
// bctx before the executor runs it.
func expandTarget(bctx *buildctx.Context, target *domain.Target) (*domain.Target, error) {
	if len(target.Command) == 0 && len(target.Environment) == 0 {
		return target, nil
	}

	cmd := make([]string, len(target.Command))
	for i, arg := range target.Command {
		expanded, err := bctx.Expand(arg)
		if err != nil {
			return nil, err
		}
		cmd[i] = expanded
	}

	var env map[string]string
	if len(target.Environment) > 0 {
		env = make(map[string]string, len(target.Environment))
		for k, v := range target.Environment {
			expanded, err := bctx.Expand(v)
			if err != nil {
				return nil, err
			}
			env[k] = expanded
		}
	}

	clone := *target
	clone.Command = cmd
	clone.Environment = env
	return &clone, nil
}

func resolveInputPaths(ctx context.Context, target *domain.Target) ([]string, error) {
	var paths []string
	for _, ps := range target.Inputs {
		resolved, err := ps.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		for _, rp := range resolved {
			paths = append(paths, rp.Abs)
		}
	}
	return paths, nil
}

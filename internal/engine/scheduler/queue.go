package scheduler

import (
	"container/heap"

	"go.kiln.build/kiln/internal/core/domain"
	"go.kiln.build/kiln/internal/engine/resolver"
)

// queueItem is one entry in the ready queue: a target whose dependencies
// have all completed successfully.
type queueItem struct {
	name     domain.InternedString
	priority float64
	seq      int
	index    int
}

// priorityQueue orders ready targets by priority descending, then by
// insertion order ascending, so two targets of equal priority run in the
// order they became ready.
type priorityQueue []*queueItem

func (q priorityQueue) Len() int { return len(q) }

func (q priorityQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q priorityQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *priorityQueue) Push(x any) {
	item := x.(*queueItem) //nolint:forcetypeassert // heap.Interface contract
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *priorityQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// runState tracks the dependency bookkeeping for one buildPass: how many
// unfinished dependencies each target still has, who depends on each
// target, and the ready queue itself.
type runState struct {
	queue      *priorityQueue
	dependents map[domain.InternedString][]domain.InternedString
	remaining  map[domain.InternedString]int
	skipped    map[domain.InternedString]bool
	targets    map[domain.InternedString]*domain.Target
	released   int
}

func newRunState(targets map[domain.InternedString]*domain.Target, plan *resolver.Plan) *runState {
	s := &runState{
		queue:      &priorityQueue{},
		dependents: make(map[domain.InternedString][]domain.InternedString),
		remaining:  make(map[domain.InternedString]int, len(plan.Order)),
		skipped:    make(map[domain.InternedString]bool),
		targets:    targets,
	}
	heap.Init(s.queue)

	for _, name := range plan.Order {
		deps := plan.DependsOn[name.String()]
		s.remaining[name] = len(deps)
		for _, dep := range deps {
			depName := domain.NewInternedString(dep)
			s.dependents[depName] = append(s.dependents[depName], name)
		}
	}

	for seq, name := range plan.Order {
		if s.remaining[name] == 0 {
			heap.Push(s.queue, &queueItem{name: name, priority: targets[name].Priority, seq: seq})
		}
	}

	return s
}

// markDone decrements name's dependents' remaining-dependency counts and
// enqueues any that have become ready, skipping ones already marked
// skipped by a failed ancestor.
func (s *runState) markDone(name domain.InternedString) {
	for _, dep := range s.dependents[name] {
		s.remaining[dep]--
		if s.skipped[dep] {
			continue
		}
		if s.remaining[dep] == 0 {
			// Initially ready targets took seq 0..len(plan)-1; later ones
			// continue from there so ties keep insertion order.
			heap.Push(s.queue, &queueItem{name: dep, priority: s.targets[dep].Priority, seq: len(s.remaining) + s.released})
			s.released++
		}
	}
}

// skipDependents marks every transitive dependent of a failed target as
// StatusSkipped, so keep-going builds report them accurately instead of
// leaving them StatusPending forever.
func (s *runState) skipDependents(name domain.InternedString, sch *Scheduler) {
	var visit func(domain.InternedString)
	visit = func(n domain.InternedString) {
		for _, dep := range s.dependents[n] {
			if s.skipped[dep] {
				continue
			}
			s.skipped[dep] = true
			sch.setStatus(dep, domain.StatusSkipped)
			visit(dep)
		}
	}
	visit(name)
}

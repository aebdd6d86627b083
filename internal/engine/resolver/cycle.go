package resolver

import (
	"sort"
	"strings"

	"go.kiln.build/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// topoSort orders closure (target name -> whether it's in scope) via
// Tarjan's strongly-connected-components algorithm, returning the targets
// dependencies-first. Any SCC larger than a single node is a cycle; the
// full cycle (every member, sorted by name) is reported rather than
// just the edge that closed it.
func topoSort(closure map[domain.InternedString]bool, edges map[domain.InternedString][]domain.InternedString) ([]domain.InternedString, error) {
	names := make([]domain.InternedString, 0, len(closure))
	for n := range closure {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].String() < names[j].String() })

	t := &tarjan{
		edges:   edges,
		index:   make(map[domain.InternedString]int),
		lowlink: make(map[domain.InternedString]int),
		onStack: make(map[domain.InternedString]bool),
	}

	for _, n := range names {
		if _, seen := t.index[n]; !seen {
			if err := t.strongConnect(n); err != nil {
				return nil, err
			}
		}
	}

	// SCCs are discovered in reverse topological order; each SCC's single
	// member (guaranteed acyclic by strongConnect) is appended as found.
	return t.order, nil
}

type tarjan struct {
	edges   map[domain.InternedString][]domain.InternedString
	index   map[domain.InternedString]int
	lowlink map[domain.InternedString]int
	stack   []domain.InternedString
	onStack map[domain.InternedString]bool
	counter int
	order   []domain.InternedString
}

func (t *tarjan) strongConnect(v domain.InternedString) error {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.edges[v] {
		if _, seen := t.index[w]; !seen {
			if err := t.strongConnect(w); err != nil {
				return err
			}
			t.lowlink[v] = minInt(t.lowlink[v], t.lowlink[w])
		} else if t.onStack[w] {
			t.lowlink[v] = minInt(t.lowlink[v], t.index[w])
		}
	}

	if t.lowlink[v] != t.index[v] {
		return nil
	}

	var scc []domain.InternedString
	for {
		n := len(t.stack) - 1
		w := t.stack[n]
		t.stack = t.stack[:n]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}

	if len(scc) > 1 {
		return cycleError(scc)
	}
	// A single-node SCC is still a cycle when the node depends on itself;
	// Tarjan alone can't tell a self-edge from no edge at this point.
	if hasSelfEdge(t.edges, scc[0]) {
		return cycleError(scc)
	}
	t.order = append(t.order, scc[0])
	return nil
}

func hasSelfEdge(edges map[domain.InternedString][]domain.InternedString, v domain.InternedString) bool {
	for _, w := range edges[v] {
		if w == v {
			return true
		}
	}
	return false
}

// cycleError builds the full-cycle error for an SCC, reporting every
// member (sorted for a deterministic message) plus a closing edge back to
// the first.
func cycleError(scc []domain.InternedString) error {
	sort.Slice(scc, func(i, j int) bool { return scc[i].String() < scc[j].String() })

	names := make([]string, 0, len(scc))
	for _, n := range scc {
		names = append(names, n.String())
	}

	cyclePath := strings.Join(names, " -> ") + " -> " + names[0]
	return zerr.With(domain.ErrCyclicDependency, "cycle", cyclePath)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.kiln.build/kiln/internal/core/domain"
	"go.kiln.build/kiln/internal/engine/resolver"
)

func newTarget(name string, dependsOn ...string) *domain.Target {
	deps := make([]domain.InternedString, 0, len(dependsOn))
	for _, d := range dependsOn {
		deps = append(deps, domain.NewInternedString(d))
	}
	return &domain.Target{Name: domain.NewInternedString(name), DependsOn: deps}
}

func freeze(t *testing.T, g *domain.Graph) {
	t.Helper()
	require.NoError(t, g.Freeze(func(target *domain.Target) string { return target.Name.String() }))
}

func TestResolver_Resolve_Diamond(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.Register(newTarget("a", "b", "c")))
	require.NoError(t, g.Register(newTarget("b", "d")))
	require.NoError(t, g.Register(newTarget("c", "d")))
	require.NoError(t, g.Register(newTarget("d")))
	freeze(t, g)

	plan, err := resolver.New().Resolve(context.Background(), g, []domain.InternedString{domain.NewInternedString("a")}, false)
	require.NoError(t, err)

	order := stringsOf(plan.Order)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, order)
	assert.Less(t, indexOf(order, "d"), indexOf(order, "b"))
	assert.Less(t, indexOf(order, "d"), indexOf(order, "c"))
	assert.Less(t, indexOf(order, "b"), indexOf(order, "a"))
	assert.Less(t, indexOf(order, "c"), indexOf(order, "a"))
}

func TestResolver_Resolve_IgnoreDeps(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.Register(newTarget("a", "b", "c")))
	require.NoError(t, g.Register(newTarget("b", "d")))
	require.NoError(t, g.Register(newTarget("c", "d")))
	require.NoError(t, g.Register(newTarget("d")))
	freeze(t, g)

	plan, err := resolver.New().Resolve(context.Background(), g, []domain.InternedString{domain.NewInternedString("a")}, true)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a"}, stringsOf(plan.Order))
	assert.ElementsMatch(t, []string{"a"}, plan.Requested)
	assert.Empty(t, plan.DependsOn["a"])
}

func TestResolver_Resolve_PartialSelection(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.Register(newTarget("a", "b")))
	require.NoError(t, g.Register(newTarget("b", "c")))
	require.NoError(t, g.Register(newTarget("c")))
	require.NoError(t, g.Register(newTarget("unrelated")))
	freeze(t, g)

	plan, err := resolver.New().Resolve(context.Background(), g, []domain.InternedString{domain.NewInternedString("a")}, false)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a", "b", "c"}, stringsOf(plan.Order))
}

func TestResolver_Resolve_CycleReportsFullPath(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.Register(newTarget("a", "b")))
	require.NoError(t, g.Register(newTarget("b", "c")))
	require.NoError(t, g.Register(newTarget("c", "a")))
	freeze(t, g)

	_, err := resolver.New().Resolve(context.Background(), g, []domain.InternedString{domain.NewInternedString("a")}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCyclicDependency)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
	assert.Contains(t, err.Error(), "c")
}

func TestResolver_Resolve_SelfCycle(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.Register(newTarget("a", "a")))
	freeze(t, g)

	_, err := resolver.New().Resolve(context.Background(), g, []domain.InternedString{domain.NewInternedString("a")}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCyclicDependency)
	assert.Contains(t, err.Error(), "a -> a")
}

func TestResolver_Resolve_UndeclaredDirectoryDependency(t *testing.T) {
	g := domain.NewGraph()
	dirTarget := &domain.Target{Name: domain.NewInternedString("gen"), Output: domain.OutputDirectory}
	require.NoError(t, g.Register(dirTarget))

	consumer := &domain.Target{
		Name: domain.NewInternedString("consumer"),
		Inputs: []domain.PathSet{
			domain.StaticPathSet{Paths: []string{"out/gen/leaf.txt"}},
		},
	}
	require.NoError(t, g.Register(consumer))

	require.NoError(t, g.Freeze(func(target *domain.Target) string {
		if target.Name.String() == "gen" {
			return "out/gen"
		}
		return "out/consumer"
	}))

	_, err := resolver.New().Resolve(context.Background(), g, []domain.InternedString{domain.NewInternedString("consumer")}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUndeclaredDirectoryDependency)
}

func TestResolver_Resolve_DeclaredDirectoryDependencyOK(t *testing.T) {
	g := domain.NewGraph()
	dirTarget := &domain.Target{Name: domain.NewInternedString("gen"), Output: domain.OutputDirectory}
	require.NoError(t, g.Register(dirTarget))

	walk := func(root string, _ domain.ExcludePredicate) ([]string, error) {
		return []string{root + "/leaf.txt"}, nil
	}
	consumer := &domain.Target{
		Name: domain.NewInternedString("consumer"),
		Inputs: []domain.PathSet{
			domain.NewDirOfTargetPathSet(domain.NewInternedString("gen"), "out/gen", walk),
		},
	}
	require.NoError(t, g.Register(consumer))

	require.NoError(t, g.Freeze(func(target *domain.Target) string {
		if target.Name.String() == "gen" {
			return "out/gen"
		}
		return "out/consumer"
	}))

	plan, err := resolver.New().Resolve(context.Background(), g, []domain.InternedString{domain.NewInternedString("consumer")}, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"consumer", "gen"}, stringsOf(plan.Order))
}

func stringsOf(names []domain.InternedString) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.String()
	}
	return out
}

func indexOf(ss []string, v string) int {
	for i, s := range ss {
		if s == v {
			return i
		}
	}
	return -1
}

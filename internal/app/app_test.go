package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"go.kiln.build/kiln/internal/app"
	"go.kiln.build/kiln/internal/core/domain"
	"go.kiln.build/kiln/internal/core/ports/portsmock"
	"go.kiln.build/kiln/internal/engine/cache"
	"go.kiln.build/kiln/internal/engine/resolver"
	"go.kiln.build/kiln/internal/engine/scheduler"
)

func newGraph(t *testing.T) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	require.NoError(t, g.Register(&domain.Target{
		Name:    domain.NewInternedString("build"),
		Kind:    "shell_command",
		Outputs: []string{"bin/out"},
	}))
	require.NoError(t, g.Freeze(func(target *domain.Target) string { return target.Name.String() }))
	return g
}

func TestApp_Run_Success(t *testing.T) {
	ctrl := gomock.NewController(t)

	loader := portsmock.NewMockConfigLoader(ctrl)
	tracer := portsmock.NewMockTracer(ctrl)
	executor := portsmock.NewMockExecutor(ctrl)
	store := portsmock.NewMockCacheStore(ctrl)
	hasher := portsmock.NewMockHasher(ctrl)
	verifier := portsmock.NewMockVerifier(ctrl)
	envFactory := portsmock.NewMockEnvironmentFactory(ctrl)
	logger := portsmock.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()

	g := newGraph(t)
	loader.EXPECT().Load(".").Return(g, domain.NewPropertyStore(), domain.NewOptionStore(), nil)

	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())
	span := portsmock.NewMockSpan(ctrl)
	span.EXPECT().Write(gomock.Any()).Return(0, nil).AnyTimes()
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).Return(context.Background(), span).AnyTimes()

	hasher.EXPECT().ComputeInputHash(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("in-hash", nil, nil)
	store.EXPECT().Get("build").Return(nil, nil)
	envFactory.EXPECT().GetEnvironment(gomock.Any(), gomock.Any()).Return(nil, nil)
	executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	hasher.EXPECT().ComputeOutputHash(gomock.Any(), gomock.Any()).Return("out-hash", nil)
	store.EXPECT().Put(gomock.Any()).Return(nil)
	store.EXPECT().Flush().Return(nil)

	c := cache.New(store, hasher, verifier)
	a := app.New(loader, resolver.New(), c, scheduler.New(executor, c, envFactory, tracer, logger), tracer)

	err := a.Run(context.Background(), []string{"build"}, app.RunOptions{Parallelism: 1})
	require.NoError(t, err)
}

func TestApp_Run_ConfigLoaderError(t *testing.T) {
	ctrl := gomock.NewController(t)

	loader := portsmock.NewMockConfigLoader(ctrl)
	tracer := portsmock.NewMockTracer(ctrl)
	store := portsmock.NewMockCacheStore(ctrl)
	hasher := portsmock.NewMockHasher(ctrl)
	verifier := portsmock.NewMockVerifier(ctrl)
	executor := portsmock.NewMockExecutor(ctrl)
	envFactory := portsmock.NewMockEnvironmentFactory(ctrl)
	logger := portsmock.NewMockLogger(ctrl)

	loader.EXPECT().Load(".").Return(nil, nil, nil, assert.AnError)

	c := cache.New(store, hasher, verifier)
	a := app.New(loader, resolver.New(), c, scheduler.New(executor, c, envFactory, tracer, logger), tracer)

	err := a.Run(context.Background(), []string{"build"}, app.RunOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestApp_Run_UnknownTarget(t *testing.T) {
	ctrl := gomock.NewController(t)

	loader := portsmock.NewMockConfigLoader(ctrl)
	tracer := portsmock.NewMockTracer(ctrl)
	store := portsmock.NewMockCacheStore(ctrl)
	hasher := portsmock.NewMockHasher(ctrl)
	verifier := portsmock.NewMockVerifier(ctrl)
	executor := portsmock.NewMockExecutor(ctrl)
	envFactory := portsmock.NewMockEnvironmentFactory(ctrl)
	logger := portsmock.NewMockLogger(ctrl)

	g := newGraph(t)
	loader.EXPECT().Load(".").Return(g, domain.NewPropertyStore(), domain.NewOptionStore(), nil)

	c := cache.New(store, hasher, verifier)
	a := app.New(loader, resolver.New(), c, scheduler.New(executor, c, envFactory, tracer, logger), tracer)

	err := a.Run(context.Background(), []string{"nope"}, app.RunOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTargetNotFound)
}

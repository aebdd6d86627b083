// Package main is the entry point for the kiln build tool.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/grindlemire/graft"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"go.kiln.build/kiln/cmd/kiln/commands"
	"go.kiln.build/kiln/internal/adapters/telemetry"
	"go.kiln.build/kiln/internal/adapters/telemetry/progrock" //nolint:depguard // chosen explicitly by -F
	"go.kiln.build/kiln/internal/adapters/tui"                //nolint:depguard // chosen explicitly by -F
	"go.kiln.build/kiln/internal/app"
	"go.kiln.build/kiln/internal/core/domain"
	"go.kiln.build/kiln/internal/core/ports"
	"go.kiln.build/kiln/internal/engine/cache"
	"go.kiln.build/kiln/internal/engine/resolver"
	"go.kiln.build/kiln/internal/engine/scheduler"
	_ "go.kiln.build/kiln/internal/wiring"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	formatter := formatterFlag(os.Args)

	var program *tea.Program
	if formatter == "tui" {
		program = tea.NewProgram(tui.NewModel(), tea.WithAltScreen())
	}
	otel.SetTracerProvider(telemetry.NewTracerProvider(tuiProcessors(program)...))

	a, err := buildApp(ctx, formatter, program)
	if err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return exitFatal
	}

	log, _, err := graft.ExecuteFor[ports.Logger](ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return exitFatal
	}

	cli := commands.New(a)

	if program == nil {
		code, buildErr := doBuild(ctx, cli)
		if buildErr != nil {
			log.Error(buildErr)
		}
		return code
	}

	return runWithDashboard(ctx, cli, log, program)
}

// runWithDashboard runs the build on its own goroutine while the dashboard
// owns the terminal on the calling goroutine; program.Run blocks until the
// user quits (q/ctrl+c), which is what keeps the final status tree on
// screen once the build finishes instead of exiting immediately.
func runWithDashboard(ctx context.Context, cli *commands.CLI, log ports.Logger, program *tea.Program) int {
	type result struct {
		code int
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		code, err := doBuild(ctx, cli)
		resultCh <- result{code: code, err: err}
		program.Send(buildDoneMsg{})
	}()

	if _, err := program.Run(); err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return exitFatal
	}

	res := <-resultCh
	if res.err != nil {
		log.Error(res.err)
	}
	return res.code
}

// buildDoneMsg notifies the dashboard that the build goroutine returned.
// The model has no case for it; an unrecognized tea.Msg is simply ignored,
// so the dashboard just keeps displaying the final status tree.
type buildDoneMsg struct{}

// Exit codes: build failures, configuration errors and cancellation are
// distinguishable by code so CI wrappers don't have to parse log output.
const (
	exitOK           = 0
	exitBuildFailure = 1
	exitConfigError  = 2
	exitCancelled    = 3
	exitFatal        = 4
)

func doBuild(ctx context.Context, cli *commands.CLI) (int, error) {
	err := cli.Execute(ctx)
	switch {
	case err == nil:
		return exitOK, nil
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return exitCancelled, err
	case errors.Is(err, domain.ErrBuildExecutionFailed):
		return exitBuildFailure, nil
	default:
		return exitConfigError, err
	}
}

func tuiProcessors(program *tea.Program) []sdktrace.SpanProcessor {
	if program == nil {
		return nil
	}
	return []sdktrace.SpanProcessor{telemetry.NewTUIBridge(program)}
}

// buildApp assembles the App through Graft. The default ("otel") path
// resolves *app.App directly, which wires the OTel tracer declared by its
// node's DependsOn. The "-F progrock" and "-F tui" alternates need every
// tracer-consuming component (the scheduler as well as the app itself)
// rebuilt against a tracer instance constructed outside Graft, since two
// competing ports.Tracer producers are registered (the telemetry
// package's otel node plus the progrock node) and Graft has no node ID to pick
// between them when resolved by interface type alone.
func buildApp(ctx context.Context, formatter string, program *tea.Program) (*app.App, error) {
	switch formatter {
	case "progrock":
		return buildAppWithTracer(ctx, progrock.New())
	case "tui":
		tracer := telemetry.NewOTelTracer("kiln")
		tracer.SetProgram(program)
		return buildAppWithTracer(ctx, tracer)
	default:
		a, _, err := graft.ExecuteFor[*app.App](ctx)
		return a, err
	}
}

func buildAppWithTracer(ctx context.Context, tracer ports.Tracer) (*app.App, error) {
	executor, _, err := graft.ExecuteFor[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}
	c, _, err := graft.ExecuteFor[*cache.Cache](ctx)
	if err != nil {
		return nil, err
	}
	envFactory, _, err := graft.ExecuteFor[ports.EnvironmentFactory](ctx)
	if err != nil {
		return nil, err
	}
	log, _, err := graft.ExecuteFor[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	sched := scheduler.New(executor, c, envFactory, tracer, log)

	loader, _, err := graft.ExecuteFor[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	res, _, err := graft.ExecuteFor[*resolver.Resolver](ctx)
	if err != nil {
		return nil, err
	}
	return app.New(loader, res, c, sched, tracer), nil
}

// formatterFlag scans the raw arguments for -F/--formatter/--inspect without
// involving cobra, since the choice of tracer (and whether to spin up a
// Bubble Tea program) must be settled before the App and its command tree
// are built.
func formatterFlag(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--inspect":
			return "tui"
		case arg == "-F" || arg == "--formatter":
			if i+1 < len(args) {
				return args[i+1]
			}
		case len(arg) > 2 && arg[:2] == "-F":
			return arg[2:]
		case len(arg) > len("--formatter=") && arg[:len("--formatter=")] == "--formatter=":
			return arg[len("--formatter="):]
		}
	}
	return "otel"
}

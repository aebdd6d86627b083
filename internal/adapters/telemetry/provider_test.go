package telemetry_test

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.kiln.build/kiln/internal/adapters/telemetry"
)

// testModel is a dummy tea.Model that records every message it receives,
// standing in for the TUI dashboard without driving a real terminal.
type testModel struct {
	msgs chan tea.Msg
}

func (m *testModel) Init() tea.Cmd { return nil }
func (m *testModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	select {
	case m.msgs <- msg:
	default:
	}
	return m, nil
}
func (m *testModel) View() string { return "" }

func recvWithin(t *testing.T, msgs chan tea.Msg, d time.Duration) tea.Msg {
	t.Helper()
	select {
	case msg := <-msgs:
		return msg
	case <-time.After(d):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestNewTracerProvider_RecordsSpans(t *testing.T) {
	tp := telemetry.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer("test").Start(context.Background(), "root")
	assert.True(t, span.IsRecording())
	span.End()
}

func TestOTelTracer_EmitPlan_SendsInitTasksToProgram(t *testing.T) {
	model := &testModel{msgs: make(chan tea.Msg, 10)}
	prog := tea.NewProgram(model, tea.WithInput(nil), tea.WithOutput(nil))
	go func() { _, _ = prog.Run() }()
	defer prog.Kill()

	tracer := telemetry.NewOTelTracer("test-tracer")
	tracer.SetProgram(prog)

	tracer.EmitPlan(context.Background(), []string{"a:build", "a:lint"}, nil, []string{"a:build"})

	msg := recvWithin(t, model.msgs, time.Second)
	init, ok := msg.(telemetry.MsgInitTasks)
	require.True(t, ok, "expected MsgInitTasks, got %T", msg)
	assert.Equal(t, []string{"a:build", "a:lint"}, init.Tasks)
}

func TestTUIBridge_BridgesSpanLifecycle(t *testing.T) {
	model := &testModel{msgs: make(chan tea.Msg, 10)}
	prog := tea.NewProgram(model, tea.WithInput(nil), tea.WithOutput(nil))
	go func() { _, _ = prog.Run() }()
	defer prog.Kill()

	tp := telemetry.NewTracerProvider(telemetry.NewTUIBridge(prog))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer("test").Start(context.Background(), "a:build")

	startMsg := recvWithin(t, model.msgs, time.Second)
	start, ok := startMsg.(telemetry.MsgTaskStart)
	require.True(t, ok, "expected MsgTaskStart, got %T", startMsg)
	assert.Equal(t, "a:build", start.Name)

	span.End()

	doneMsg := recvWithin(t, model.msgs, time.Second)
	done, ok := doneMsg.(telemetry.MsgTaskComplete)
	require.True(t, ok, "expected MsgTaskComplete, got %T", doneMsg)
	assert.Equal(t, start.SpanID, done.SpanID)
	assert.NoError(t, done.Err)
}

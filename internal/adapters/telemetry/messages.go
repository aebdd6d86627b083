package telemetry

import "time"

// MsgInitTasks seeds the TUI's task list before any span starts, so the
// dashboard can render every target up front instead of growing the list
// as spans arrive.
type MsgInitTasks struct {
	Tasks []string
}

// MsgTaskStart is sent by TUIBridge when a span starts.
type MsgTaskStart struct {
	SpanID    string
	ParentID  string
	Name      string
	StartTime time.Time
}

// MsgTaskLog carries a chunk of output written to a span.
type MsgTaskLog struct {
	SpanID string
	Data   []byte
}

// MsgTaskComplete is sent by TUIBridge when a span ends.
type MsgTaskComplete struct {
	SpanID  string
	EndTime time.Time
	Err     error
}

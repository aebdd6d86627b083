// Package tui provides the interactive dashboard formatter (kiln run -F tui),
// a Bubble Tea program driven by telemetry.TUIBridge messages bridged from
// OpenTelemetry spans.
package tui

import "github.com/charmbracelet/bubbles/viewport"

// NewModel creates a new TUI model with default settings: empty task list,
// auto-scrolling log viewport, and follow mode tracking the most recently
// started task.
func NewModel() *Model {
	return &Model{
		Tasks:      make([]*TaskNode, 0),
		TaskMap:    make(map[string]*TaskNode),
		SpanMap:    make(map[string]*TaskNode),
		Viewport:   viewport.New(0, 0),
		AutoScroll: true,
		FollowMode: true,
	}
}

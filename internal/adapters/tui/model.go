package tui

import (
	"bytes"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go.kiln.build/kiln/internal/adapters/telemetry"
)

const (
	taskListWidthRatio = 0.3
	logPaneBorderWidth = 4
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// StatusPending indicates the task is waiting to start.
	StatusPending TaskStatus = "Pending"
	// StatusRunning indicates the task is currently executing.
	StatusRunning TaskStatus = "Running"
	// StatusDone indicates the task completed successfully.
	StatusDone TaskStatus = "Done"
	// StatusError indicates the task failed.
	StatusError TaskStatus = "Error"
)

// TaskNode represents a single task in the UI list.
type TaskNode struct {
	Name   string
	Status TaskStatus
	Logs   bytes.Buffer
	Cached bool
}

// Model represents the main TUI state. Tasks is rendered through a sliding
// window (ListOffset, ListHeight) so the task list scrolls rather than
// overflowing the terminal when there are more targets than rows.
type Model struct {
	Tasks          []*TaskNode
	TaskMap        map[string]*TaskNode
	SpanMap        map[string]*TaskNode
	Viewport       viewport.Model
	AutoScroll     bool
	ActiveTaskName string

	ListHeight  int
	ListOffset  int
	SelectedIdx int
	FollowMode  bool
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
//
//nolint:cyclop // one switch arm per message/key kind, not meaningfully splittable
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "down", "j":
			m.selectIndex(m.SelectedIdx+1, false)
		case "up", "k":
			m.selectIndex(m.SelectedIdx-1, false)
		}

	case tea.WindowSizeMsg:
		listWidth := int(float64(msg.Width) * taskListWidthRatio)
		logWidth := msg.Width - listWidth - logPaneBorderWidth

		m.Viewport.Width = logWidth
		header := titleStyle.Render("TASKS") + "\n\n"
		m.ListHeight = msg.Height - lipgloss.Height(header)
		m.Viewport.Height = msg.Height - 2
		m.ensureVisible()

	case telemetry.MsgInitTasks:
		m.Tasks = make([]*TaskNode, len(msg.Tasks))
		m.TaskMap = make(map[string]*TaskNode, len(msg.Tasks))
		m.SpanMap = make(map[string]*TaskNode)
		for i, name := range msg.Tasks {
			node := &TaskNode{Name: name, Status: StatusPending}
			m.Tasks[i] = node
			m.TaskMap[name] = node
		}

	case telemetry.MsgTaskStart:
		if node, ok := m.TaskMap[msg.Name]; ok {
			node.Status = StatusRunning
			m.SpanMap[msg.SpanID] = node

			if m.FollowMode {
				m.selectIndex(m.indexOf(msg.Name), true)
			}
			if node.Name == m.ActiveTaskName || m.FollowMode {
				m.ActiveTaskName = node.Name
				m.refreshViewport(node)
			}
		}

	case telemetry.MsgTaskLog:
		if node, ok := m.SpanMap[msg.SpanID]; ok {
			node.Logs.Write(msg.Data)
			if node.Name == m.ActiveTaskName {
				m.refreshViewport(node)
			}
		}

	case telemetry.MsgTaskComplete:
		if node, ok := m.SpanMap[msg.SpanID]; ok {
			if msg.Err != nil {
				node.Status = StatusError
			} else {
				node.Status = StatusDone
			}
		}
	}

	return m, cmd
}

// refreshViewport rewraps node's accumulated logs into the log viewport at
// its current width and scrolls to the bottom if AutoScroll is enabled.
func (m *Model) refreshViewport(node *TaskNode) {
	content := node.Logs.String()
	if m.Viewport.Width > 0 {
		content = WrapLog(content, m.Viewport.Width)
	}
	m.Viewport.SetContent(content)
	if m.AutoScroll {
		m.Viewport.GotoBottom()
	}
}

// indexOf returns the index of the task named name in Tasks, or -1.
func (m *Model) indexOf(name string) int {
	for i, t := range m.Tasks {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// selectIndex moves the selection to idx (clamped to the task list bounds),
// recomputes the sliding window offset so the selection stays visible, and
// leaves follow mode alone when follow is true (auto-follow keeps tracking
// new task starts); manual navigation disables it.
func (m *Model) selectIndex(idx int, follow bool) {
	if idx < 0 {
		return
	}
	if len(m.Tasks) > 0 && idx >= len(m.Tasks) {
		return
	}
	m.SelectedIdx = idx
	m.FollowMode = follow
	m.ensureVisible()
	if idx >= 0 && idx < len(m.Tasks) {
		m.ActiveTaskName = m.Tasks[idx].Name
		m.refreshViewport(m.Tasks[idx])
	}
}

// ensureVisible adjusts ListOffset so SelectedIdx falls within the current
// window of height ListHeight.
func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	} else if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
	if m.ListOffset < 0 {
		m.ListOffset = 0
	}
}

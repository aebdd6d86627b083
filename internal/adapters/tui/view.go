package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) View() string {
	if m.Viewport.Height == 0 {
		return "Initializing..."
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.taskList(),
		m.logPane(),
	)
}

func (m *Model) taskList() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("TASKS") + "\n\n")

	start := m.ListOffset
	if start < 0 || start > len(m.Tasks) {
		start = 0
	}
	end := len(m.Tasks)
	if m.ListHeight > 0 && start+m.ListHeight < end {
		end = start + m.ListHeight
	}

	for i := start; i < end; i++ {
		task := m.Tasks[i]
		var style lipgloss.Style
		var icon string

		switch task.Status {
		case StatusRunning:
			style = taskRunningStyle
			icon = "●"
		case StatusDone:
			style = taskDoneStyle
			icon = "✓"
		case StatusError:
			style = taskErrorStyle
			icon = "✗"
		default: // Pending
			style = taskPendingStyle
			icon = "○"
		}

		if task.Cached {
			style = taskCachedStyle
			icon = "⚡"
		}

		line := fmt.Sprintf("%s %s", icon, task.Name)
		if i == m.SelectedIdx {
			line = "> " + line
		} else {
			line = "  " + line
		}

		s.WriteString(style.Render(line) + "\n")
	}

	return listStyle.Render(s.String())
}

func (m *Model) logPane() string {
	var header string
	switch {
	case m.ActiveTaskName == "":
		header = titleStyle.Render("LOGS (Waiting...)")
	case m.FollowMode:
		header = titleStyle.Render("LOGS: " + m.ActiveTaskName + " (Following)")
	default:
		header = titleStyle.Render("LOGS: " + m.ActiveTaskName + " (Manual)")
	}

	return logStyle.Render(
		lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			m.Viewport.View(),
		),
	)
}

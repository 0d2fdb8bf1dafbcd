package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/tasklist-go/internal/task"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	focusStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle    = lipgloss.NewStyle().Faint(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			Padding(1, 2)
)

const (
	gridColumns  = 2
	minCardWidth = 20
)

// renderCard draws one task: title, description and the date range.
func renderCard(t task.Task, width int) string {
	var lines []string
	lines = append(lines, titleStyle.Render(t.Title))
	if t.Description != "" {
		lines = append(lines, t.Description)
	}
	if span := DateSpan(t); span != "" {
		lines = append(lines, dimStyle.Render(span))
	}
	// Width includes padding but not the border.
	return cardStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// DateSpan formats the start and end dates, or "" when neither is set.
func DateSpan(t task.Task) string {
	if t.StartingDate.IsZero() && t.EndingDate.IsZero() {
		return ""
	}
	start, end := t.StartingDate.String(), t.EndingDate.String()
	if start == "" {
		start = "?"
	}
	if end == "" {
		end = "?"
	}
	return start + " to " + end
}

// renderGrid lays cards out in rows of gridColumns, in list order.
func renderGrid(items []task.Task, width int) string {
	// Two border columns per card and one space between cards.
	cardWidth := (width-1)/gridColumns - 2
	if cardWidth < minCardWidth {
		cardWidth = minCardWidth
	}

	var rows []string
	for i := 0; i < len(items); i += gridColumns {
		var row []string
		for j := i; j < i+gridColumns && j < len(items); j++ {
			if j > i {
				row = append(row, " ")
			}
			row = append(row, renderCard(items[j], cardWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

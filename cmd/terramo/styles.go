package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/terramo-esg/terramo/internal/submission"
)

var (
	colorInfo    = lipgloss.Color("#2196F3")
	colorSuccess = lipgloss.Color("#8BC34A")
	colorWarning = lipgloss.Color("#FFC107")
	colorError   = lipgloss.Color("#e53935")
	colorMuted   = lipgloss.Color("#808080")

	styleInfo    = lipgloss.NewStyle().Foreground(colorInfo)
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning)
	styleError   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleHeader  = lipgloss.NewStyle().Bold(true).Underline(true)
	styleEdited  = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
)

func noticeStyle(l submission.Level) lipgloss.Style {
	switch l {
	case submission.LevelSuccess:
		return styleSuccess
	case submission.LevelWarning:
		return styleWarning
	case submission.LevelError:
		return styleError
	}
	return styleInfo
}

// renderNotice formats a notice for the terminal.
func renderNotice(n submission.Notice) string {
	return noticeStyle(n.Level).Render(n.Message)
}

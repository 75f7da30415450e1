package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/fanguard/pkg/fanguard/output"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(output.ColorPrimary).
			MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(output.ColorMuted).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(output.ColorMuted).
			Width(13)

	helpStyle = lipgloss.NewStyle().
			Foreground(output.ColorMuted).
			MarginTop(1)
)

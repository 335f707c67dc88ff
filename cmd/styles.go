package cmd

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#7D56F4")
	muted  = lipgloss.Color("#626262")
	bad    = lipgloss.Color("#FF5F87")

	fileStyle   = lipgloss.NewStyle().Foreground(accent).Bold(true).Padding(0, 1)
	tableStyle  = lipgloss.NewStyle().Bold(true).PaddingLeft(1)
	labelStyle  = lipgloss.NewStyle().Foreground(muted)
	columnStyle = lipgloss.NewStyle().PaddingLeft(3)
	errorStyle  = lipgloss.NewStyle().Foreground(bad).Bold(true)
)

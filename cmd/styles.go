package cmd

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("39")  // bright blue
	colorInfo    = lipgloss.Color("86")  // cyan
	colorText    = lipgloss.Color("252") // light gray
	colorSubtle  = lipgloss.Color("241") // medium gray

	headerStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Padding(0, 1)
	keyStyle    = lipgloss.NewStyle().Foreground(colorInfo).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(colorText).Padding(0, 1)
	subtleStyle = lipgloss.NewStyle().Foreground(colorSubtle)
)

package tui

import "github.com/charmbracelet/lipgloss"

const sidebarWidth = 28

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	sidebarStyle   = lipgloss.NewStyle().Width(sidebarWidth).Padding(0, 1).Border(lipgloss.NormalBorder(), false, true, false, false)
	dayStyle       = lipgloss.NewStyle().Bold(true).MarginTop(1)
	itemStyle      = lipgloss.NewStyle().PaddingLeft(1)
	selectedStyle  = lipgloss.NewStyle().PaddingLeft(1).Reverse(true)
	userStyle      = lipgloss.NewStyle().Background(lipgloss.Color("153")).Foreground(lipgloss.Color("16")).Padding(0, 1)
	assistantStyle = lipgloss.NewStyle().Background(lipgloss.Color("254")).Foreground(lipgloss.Color("16")).Padding(0, 1)
	suggestStyle   = lipgloss.NewStyle().Background(lipgloss.Color("252")).Foreground(lipgloss.Color("16")).Padding(0, 1).MarginRight(1)
)

package ui

import "github.com/charmbracelet/lipgloss"

var (
	appStyle = lipgloss.NewStyle().Padding(1, 2)

	titleStyle = func() lipgloss.Style {
		b := lipgloss.RoundedBorder()
		return lipgloss.NewStyle().BorderStyle(b).Padding(0, 1).Bold(true)
	}()

	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	buttonStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 2).
			MarginRight(1)
	activeButtonStyle = buttonStyle.
				BorderForeground(lipgloss.Color("12")).
				Foreground(lipgloss.Color("12")).
				Bold(true)

	labelStyle      = lipgloss.NewStyle().Width(14)
	rowStyle        = lipgloss.NewStyle().PaddingLeft(2)
	focusedRowStyle = lipgloss.NewStyle().PaddingLeft(1).
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("12"))
)

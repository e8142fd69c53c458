package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#0AF")
	muted  = lipgloss.Color("#667788")
	danger = lipgloss.Color("#F55")

	appStyle = lipgloss.NewStyle().Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF")).
			Background(lipgloss.Color("#224")).
			Padding(0, 1)

	focusedStyle = lipgloss.NewStyle().Foreground(accent)
	noStyle      = lipgloss.NewStyle()
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	errorStyle   = lipgloss.NewStyle().Foreground(danger)

	selectedStyle = lipgloss.NewStyle().
			Foreground(accent).
			Background(lipgloss.Color("#224")).
			Bold(true)

	activeStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#334455")).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.Copy().BorderForeground(accent)

	popupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2)

	focusedButton = focusedStyle.Copy().Render("[ Submit ]")
	blurredButton = "[ " + mutedStyle.Render("Submit") + " ]"
)

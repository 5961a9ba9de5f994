package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("#6C63FF")
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#2ECC71")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
)

func fg(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func boxed(border lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(1, 2)
}

var (
	activeTabStyle = fg(colorPrimary).Bold(true).Padding(0, 2).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary)
	inactiveTabStyle = fg(colorMuted).Padding(0, 2)

	panelStyle       = boxed(colorSubtle)
	activePanelStyle = boxed(colorPrimary)

	// Big elapsed clock; green while running.
	timerStyle        = fg(colorPrimary).Bold(true).Align(lipgloss.Center)
	timerRunningStyle = fg(colorSuccess).Bold(true).Align(lipgloss.Center)

	titleStyle     = fg(colorFg).Bold(true)
	successStyle   = fg(colorSuccess)
	errorStyle     = fg(colorError)
	mutedStyle     = fg(colorMuted)
	highlightStyle = fg(colorHighlight)

	pieLabelStyle = fg(lipgloss.Color("#FFFFFF")).Bold(true)
	tooltipStyle  = fg(colorFg).Background(colorSubtle).Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = fg(colorMuted).Padding(0, 1)

	selectedItemStyle = fg(colorPrimary).Bold(true)
	normalItemStyle   = fg(colorFg)
)

// dot renders a bullet in a category or entry colour.
func dot(hex string) string {
	return fg(lipgloss.Color(hex)).Render("●")
}

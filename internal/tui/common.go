package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/sadopc/timepie/internal/chart"
	"github.com/sadopc/timepie/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewEntries
	viewChart
	viewReports
	viewSettings
)

var viewNames = []string{"Timer", "Entries", "Chart", "Reports", "Settings"}

// --- Messages ---

type timerStartedMsg struct {
	category string
}

// timerStoppedMsg carries the saved entry and the owner's refreshed list.
type timerStoppedMsg struct {
	entry   *store.TimeEntry
	entries []store.TimeEntry
}

// entriesChangedMsg asks every view that shows entries to reload.
type entriesChangedMsg struct{}

type statusMsg struct {
	text    string
	isError bool
}

// tickMsg is one timer poll. gen ties it to the run that scheduled it so a
// poll outliving its run is dropped.
type tickMsg struct {
	gen uint64
	at  time.Time
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatSeconds(secs int64) string {
	return chart.FormatTime(secs)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func errCmd(prefix string, err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("%s: %v", prefix, err), isError: true}
	}
}

// cell fits s into a column w terminal cells wide, cutting it with "…" and
// padding with spaces. Widths are display widths, so wide runes count twice.
func cell(s string, w int) string {
	s = ansi.Truncate(s, w, "…")
	if pad := w - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// categoryColors maps lowercased category names to their chart colour, so
// every view colours a category the way the Chart tab does.
func categoryColors(entries []store.TimeEntry) map[string]string {
	colors := make(map[string]string)
	for _, c := range chart.Aggregate(entries) {
		colors[c.Name] = c.Color
	}
	return colors
}

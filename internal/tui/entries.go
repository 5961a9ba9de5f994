package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/sadopc/timepie/internal/store"
)

type entriesModel struct {
	store   *store.Store
	ownerID string
	logger  *log.Logger
	width   int
	height  int

	entries []store.TimeEntry
	cursor  int

	formActive bool
	form       *huh.Form

	// Form value pointer (survives value copies)
	confirm  *bool
	deleting store.TimeEntry
}

func newEntriesModel(s *store.Store, ownerID string, logger *log.Logger) entriesModel {
	confirm := false
	return entriesModel{
		store:   s,
		ownerID: ownerID,
		logger:  logger,
		confirm: &confirm,
	}
}

func (m *entriesModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type entriesDataMsg struct {
	entries []store.TimeEntry
}

func (m entriesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		entries, _ := m.store.ListEntries(m.ownerID, store.EntryFilter{})
		return entriesDataMsg{entries: entries}
	}
}

func (m *entriesModel) setEntries(entries []store.TimeEntry) {
	m.entries = entries
	if m.cursor >= len(m.entries) {
		m.cursor = max(0, len(m.entries)-1)
	}
}

func (m entriesModel) update(msg tea.Msg) (entriesModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case entriesDataMsg:
		m.setEntries(msg.entries)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Delete):
			if len(m.entries) > 0 {
				return m.showConfirm()
			}
		}
	}
	return m, nil
}

func (m entriesModel) showConfirm() (entriesModel, tea.Cmd) {
	m.deleting = m.entries[m.cursor]
	*m.confirm = false

	title := fmt.Sprintf("Delete %s (%s)?", m.deleting.Category, formatSeconds(m.deleting.Seconds))
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Delete").
				Negative("Keep").
				Value(m.confirm),
		),
	).WithShowHelp(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m entriesModel) updateForm(msg tea.Msg) (entriesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.formActive = false
		if !*m.confirm {
			return m, nil
		}
		return m, m.deleteEntry(m.deleting)
	case huh.StateAborted:
		m.formActive = false
		return m, nil
	}

	return m, cmd
}

func (m entriesModel) deleteEntry(e store.TimeEntry) tea.Cmd {
	if err := m.store.DeleteEntry(e.ID, m.ownerID); err != nil {
		m.logger.Error("delete entry", "owner", m.ownerID, "id", e.ID, "error", err)
		return errCmd("Delete failed", err)
	}
	m.logger.Info("entry deleted", "owner", m.ownerID, "id", e.ID)
	return tea.Batch(
		func() tea.Msg { return entriesChangedMsg{} },
		statusCmd("Deleted "+e.Category),
	)
}

func (m entriesModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("Delete Entry")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render(fmt.Sprintf("Entries (%d)", len(m.entries)))

	if len(m.entries) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No entries yet. Start a timer on the Timer tab."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-3s %-18s %-24s %10s", "", "Created", "Category", "Duration"))
	rows = append(rows, header)

	first, last := m.visibleRange()
	for i := first; i < last; i++ {
		e := m.entries[i]
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := fmt.Sprintf("%s%s %-18s %s %10s",
			cursor, dot(e.Color), e.CreatedAt.Local().Format("2006-01-02 15:04"), cell(e.Category, 24), formatSeconds(e.Seconds))
		rows = append(rows, style.Render(row))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  ↑/↓: move  d: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// visibleRange returns the window of rows that fits the panel, keeping the
// cursor in view.
func (m entriesModel) visibleRange() (int, int) {
	rows := m.height - 10
	if rows < 3 {
		rows = 3
	}
	if len(m.entries) <= rows {
		return 0, len(m.entries)
	}
	first := m.cursor - rows/2
	first = max(0, min(first, len(m.entries)-rows))
	return first, first + rows
}

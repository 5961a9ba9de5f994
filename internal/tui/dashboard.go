package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/sadopc/timepie/internal/chart"
	"github.com/sadopc/timepie/internal/shared"
	"github.com/sadopc/timepie/internal/store"
	"github.com/sadopc/timepie/internal/timer"
)

const recentLimit = 5

type dashboardModel struct {
	store   *store.Store
	ownerID string
	session *timer.Session
	logger  *log.Logger
	width   int
	height  int

	input    textinput.Model
	inputErr string

	todayTotal    int64
	todaySummary  []chart.AggregatedCategory
	recentEntries []store.TimeEntry
}

func newDashboardModel(s *store.Store, ownerID string, session *timer.Session, logger *log.Logger) dashboardModel {
	ti := textinput.New()
	ti.Placeholder = "What are you working on?"
	ti.CharLimit = 64
	ti.Width = 40
	ti.Prompt = "› "

	return dashboardModel{
		store:   s,
		ownerID: ownerID,
		session: session,
		logger:  logger,
		input:   ti,
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
	if w > 20 {
		d.input.Width = min(40, w-16)
	}
}

func (d dashboardModel) isRunning() bool { return d.session.Running() }
func (d dashboardModel) isEditing() bool { return d.input.Focused() }
func (d dashboardModel) elapsed() int64  { return d.session.Elapsed() }

func tickCmd(gen uint64) tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg{gen: gen, at: t}
	})
}

type dashboardDataMsg struct {
	todayTotal    int64
	todaySummary  []chart.AggregatedCategory
	recentEntries []store.TimeEntry
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		total, _ := d.store.TodayTotal(d.ownerID)

		now := time.Now().UTC()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		dayEnd := dayStart.AddDate(0, 0, 1)
		today, _ := d.store.ListEntries(d.ownerID, store.EntryFilter{From: &dayStart, To: &dayEnd})
		recent, _ := d.store.ListEntries(d.ownerID, store.EntryFilter{Limit: recentLimit})
		all, _ := d.store.ListEntries(d.ownerID, store.EntryFilter{})

		summary := chart.Aggregate(today)
		colors := categoryColors(all)
		for i, c := range summary {
			if col, ok := colors[c.Name]; ok {
				summary[i].Color = col
			}
		}

		return dashboardDataMsg{
			todayTotal:    total,
			todaySummary:  summary,
			recentEntries: recent,
		}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.todayTotal = msg.todayTotal
		d.todaySummary = msg.todaySummary
		d.recentEntries = msg.recentEntries
		return d, nil

	case tickMsg:
		if d.session.Tick(msg.gen, msg.at) {
			return d, tickCmd(msg.gen)
		}
		return d, nil

	case tea.KeyMsg:
		if d.input.Focused() {
			return d.updateInput(msg)
		}

		switch {
		case key.Matches(msg, keys.Start), key.Matches(msg, keys.Enter):
			return d.startTimer()
		case key.Matches(msg, keys.Edit):
			if d.session.Running() {
				return d, nil
			}
			return d, d.input.Focus()
		case key.Matches(msg, keys.Stop):
			return d.stopTimer()
		}
	}
	return d, nil
}

func (d dashboardModel) updateInput(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Enter):
		return d.startTimer()
	case key.Matches(msg, keys.Back):
		d.input.Blur()
		return d, nil
	}

	d.inputErr = ""
	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	return d, cmd
}

func (d dashboardModel) startTimer() (dashboardModel, tea.Cmd) {
	if d.session.Running() {
		return d, nil
	}

	gen, err := d.session.Start(d.input.Value())
	if errors.Is(err, shared.ErrValidation) {
		d.inputErr = "Enter a category before starting the timer"
		return d, d.input.Focus()
	}
	if err != nil {
		return d, errCmd("Error", err)
	}

	d.inputErr = ""
	d.input.Blur()
	category := d.session.Category()
	d.logger.Info("timer started", "owner", d.ownerID, "category", category)
	return d, tea.Batch(
		tickCmd(gen),
		func() tea.Msg { return timerStartedMsg{category: category} },
	)
}

func (d dashboardModel) stopTimer() (dashboardModel, tea.Cmd) {
	if !d.session.Running() {
		return d, nil
	}

	entry, entries, err := d.session.Stop(context.Background())
	if entry == nil {
		d.logger.Error("stop timer", "owner", d.ownerID, "error", err)
		return d, errCmd("Could not save entry", err)
	}
	d.logger.Info("entry saved", "owner", d.ownerID, "category", entry.Category, "seconds", entry.Seconds)

	d.input.SetValue("")
	cmds := []tea.Cmd{
		d.loadData(),
		func() tea.Msg { return timerStoppedMsg{entry: entry, entries: entries} },
	}
	if err != nil {
		d.logger.Warn("refresh entries", "owner", d.ownerID, "error", err)
		cmds = append(cmds, errCmd("Saved, but reload failed", err))
	}
	return d, tea.Batch(cmds...)
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderTimerPanel(contentWidth),
		d.renderSummaryPanel(contentWidth),
		d.renderRecentPanel(contentWidth),
	)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.session.Running() {
		timeDisplay := timerRunningStyle.Width(w - 6).Render(formatSeconds(d.session.Elapsed()))
		indicator := successStyle.Render("●  RUNNING")
		category := highlightStyle.Render(d.session.Category())
		hint := mutedStyle.Render("Press x to stop and save")

		content := lipgloss.JoinVertical(lipgloss.Center,
			timeDisplay,
			indicator,
			category,
			hint,
		)
		return activePanelStyle.Width(w).Render(content)
	}

	timeDisplay := timerStyle.Width(w - 6).Render(formatSeconds(0))
	indicator := mutedStyle.Render("■  STOPPED")

	rows := []string{timeDisplay, indicator, "", d.input.View()}
	if d.inputErr != "" {
		rows = append(rows, errorStyle.Render(d.inputErr))
	} else if d.input.Focused() {
		rows = append(rows, mutedStyle.Render("enter: start  esc: done"))
	} else {
		rows = append(rows, mutedStyle.Render("Press s to start, i to edit the category"))
	}

	style := panelStyle
	if d.input.Focused() {
		style = activePanelStyle
	}
	return style.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, rows...))
}

func (d dashboardModel) renderSummaryPanel(w int) string {
	title := titleStyle.Render("Today")
	total := highlightStyle.Render(formatSeconds(d.todayTotal))
	header := fmt.Sprintf("%s  %s", title, total)

	if len(d.todaySummary) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			header,
			mutedStyle.Render("No entries today"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, header)
	for _, c := range d.todaySummary {
		row := fmt.Sprintf("  %s %s %s",
			dot(c.Color),
			cell(c.Name, 20),
			formatSeconds(c.TotalSeconds),
		)
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Entries")
	if len(d.recentEntries) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No entries yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for _, e := range d.recentEntries {
		row := fmt.Sprintf("  %s %s  %s %s",
			dot(e.Color),
			e.CreatedAt.Local().Format("Jan 02 15:04"),
			cell(e.Category, 20),
			formatSeconds(e.Seconds),
		)
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

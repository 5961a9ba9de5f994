package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timepie/internal/chart"
	"github.com/sadopc/timepie/internal/store"
)

type reportMode int

const (
	reportDaily reportMode = iota
	reportWeekly
)

type reportsModel struct {
	store   *store.Store
	ownerID string
	width   int
	height  int

	mode      reportMode
	weekStart string
	totals    []store.DailyTotal
	colors    map[string]string
	offset    int // weeks or 7-day blocks offset from today (0 = current)
	now       func() time.Time

	chart barchart.Model
}

func newReportsModel(s *store.Store, ownerID string) reportsModel {
	return reportsModel{
		store:     s,
		ownerID:   ownerID,
		weekStart: "monday",
		now:       time.Now,
		chart:     barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.buildChart()
}

type reportsDataMsg struct {
	weekStart string
	totals    []store.DailyTotal
	colors    map[string]string
}

func (r reportsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		if ws, err := r.store.GetSetting(r.ownerID, store.SettingWeekStart); err == nil {
			r.weekStart = ws
		}
		from, to := r.dateRange()
		totals, _ := r.store.DailyTotals(r.ownerID, from, to)

		entries, _ := r.store.ListEntries(r.ownerID, store.EntryFilter{})
		colors := categoryColors(entries)

		return reportsDataMsg{weekStart: r.weekStart, totals: totals, colors: colors}
	}
}

func (r reportsModel) dateRange() (time.Time, time.Time) {
	now := r.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch r.mode {
	case reportWeekly:
		startOfWeek := today.AddDate(0, 0, -daysSinceWeekStart(today.Weekday(), r.weekStart))
		startOfWeek = startOfWeek.AddDate(0, 0, -7*r.offset)
		return startOfWeek, startOfWeek.AddDate(0, 0, 7)
	default:
		// Daily: last 7 days
		end := today.AddDate(0, 0, 1-7*r.offset)
		start := end.AddDate(0, 0, -7)
		return start, end
	}
}

func daysSinceWeekStart(day time.Weekday, weekStart string) int {
	if weekStart == "sunday" {
		return int(day)
	}
	return (int(day) + 6) % 7
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.weekStart = msg.weekStart
		r.totals = msg.totals
		r.colors = msg.colors
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Enter):
			if r.mode == reportDaily {
				r.mode = reportWeekly
			} else {
				r.mode = reportDaily
			}
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r reportsModel) colorOf(category string) string {
	if c, ok := r.colors[category]; ok {
		return c
	}
	return chart.PaletteColor(len(r.colors))
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	from, to := r.dateRange()

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		label := d.Format("Mon 02")

		var values []barchart.BarValue
		for _, t := range r.totals {
			if t.Date == dateStr {
				hours := float64(t.TotalSeconds) / 3600.0
				style := lipgloss.NewStyle().Foreground(lipgloss.Color(r.colorOf(t.Category)))
				values = append(values, barchart.BarValue{
					Name:  t.Category,
					Value: hours,
					Style: style,
				})
			}
		}

		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) periodTotal() int64 {
	var total int64
	for _, t := range r.totals {
		total += t.TotalSeconds
	}
	return total
}

func (r reportsModel) view() string {
	w := r.width - 4

	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if r.mode == reportDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s - %s  (%s)",
		from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006"), formatHours(r.periodTotal())))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", dateLabel,
	)

	nav := mutedStyle.Render("  ←/→: navigate  enter: switch mode")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderLegend(), "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderSummaryTable(w int) string {
	if len(r.totals) == 0 {
		return mutedStyle.Render("  No data for this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-20s %10s %8s", "Date", "Category", "Duration", "Entries")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 54))))

	for _, t := range r.totals {
		rows = append(rows, fmt.Sprintf("  %-12s %s %s %10s %8d",
			t.Date, dot(r.colorOf(t.Category)), cell(t.Category, 18), formatSeconds(t.TotalSeconds), t.EntryCount,
		))
	}

	return strings.Join(rows, "\n")
}

func (r reportsModel) renderLegend() string {
	seen := make(map[string]bool)
	var items []string
	for _, t := range r.totals {
		if seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		items = append(items, fmt.Sprintf("%s %s", dot(r.colorOf(t.Category)), t.Category))
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}

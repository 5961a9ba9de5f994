package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/timepie/internal/chart"
	"github.com/sadopc/timepie/internal/store"
)

// Where the pie's first cell sits inside the chart view: panel border and
// padding, then the title and a blank line.
const (
	pieOffsetX = 3
	pieOffsetY = 4

	// Terminal cells are about twice as tall as they are wide.
	cellAspect = 2

	termLabelThreshold = 0.1
	termLabelRadius    = 0.7
	legendWidth        = 36
)

type pieModel struct {
	store   *store.Store
	ownerID string
	width   int
	height  int

	cats   []chart.AggregatedCategory
	slices []chart.Slice
	colors map[string]string

	cols int
	rows int

	hovered bool
	hover   chart.Slice
}

func newPieModel(s *store.Store, ownerID string) pieModel {
	return pieModel{store: s, ownerID: ownerID}
}

func (p *pieModel) setSize(w, h int) {
	p.width = w
	p.height = h
	p.layoutGrid()
}

// layoutGrid picks the largest square-looking pie that fits next to the
// legend.
func (p *pieModel) layoutGrid() {
	availRows := p.height - 10
	availCols := p.width - 10 - legendWidth
	rows := max(availRows, 4)
	cols := rows * cellAspect
	if cols > availCols {
		cols = max(availCols, 8)
		rows = cols / cellAspect
	}
	p.cols, p.rows = cols, rows
	p.hovered = false
}

type pieDataMsg struct {
	entries []store.TimeEntry
}

func (p pieModel) refresh() tea.Cmd {
	return func() tea.Msg {
		entries, _ := p.store.ListEntries(p.ownerID, store.EntryFilter{})
		return pieDataMsg{entries: entries}
	}
}

// setEntries re-aggregates and re-lays-out the pie.
func (p *pieModel) setEntries(entries []store.TimeEntry) {
	p.cats = chart.Aggregate(entries)
	p.slices = chart.Layout(p.cats)
	p.colors = make(map[string]string, len(p.cats))
	for _, c := range p.cats {
		p.colors[c.Name] = c.Color
	}
	p.hovered = false
}

func (p pieModel) update(msg tea.Msg) (pieModel, tea.Cmd) {
	switch msg := msg.(type) {
	case pieDataMsg:
		p.setEntries(msg.entries)
	}
	return p, nil
}

func (p pieModel) geometry() chart.Geometry {
	return chart.NewGeometry(float64(p.cols), float64(p.rows*cellAspect), 1)
}

// cellCentre maps a terminal cell to the pie's square coordinate space.
func cellCentre(col, row int) (float64, float64) {
	return float64(col) + 0.5, (float64(row) + 0.5) * cellAspect
}

// hoverAt updates the tooltip for a pointer at (x, y), relative to the top
// left of the view.
func (p *pieModel) hoverAt(x, y int) {
	col, row := x-pieOffsetX, y-pieOffsetY
	if col < 0 || row < 0 || col >= p.cols || row >= p.rows {
		p.hovered = false
		return
	}
	px, py := cellCentre(col, row)
	p.hover, p.hovered = chart.HitTest(p.slices, p.geometry(), px, py)
}

func (p pieModel) tooltip() string {
	if !p.hovered {
		return ""
	}
	return fmt.Sprintf("%s · %s · %s%%", p.hover.Name, formatSeconds(p.hover.Seconds), p.hover.Percentage)
}

type pieCell struct {
	ch    rune
	color string
	label bool
}

// renderPie paints slices into a cols x rows grid of terminal cells by
// hit-testing every cell centre, then overlays percentage labels.
func renderPie(slices []chart.Slice, colors map[string]string, cols, rows int) []string {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	g := chart.NewGeometry(float64(cols), float64(rows*cellAspect), 1)

	grid := make([][]pieCell, rows)
	for r := range grid {
		grid[r] = make([]pieCell, cols)
		for c := range grid[r] {
			grid[r][c] = pieCell{ch: ' '}
			x, y := cellCentre(c, r)
			if s, ok := chart.HitTest(slices, g, x, y); ok {
				grid[r][c] = pieCell{ch: '█', color: colors[s.Name]}
			}
		}
	}

	for _, s := range slices {
		if s.Width() <= termLabelThreshold {
			continue
		}
		x, y := g.Point(s.Mid(), termLabelRadius)
		text := []rune(s.Percentage + "%")
		r := int(y / cellAspect)
		c := int(x) - len(text)/2
		if r < 0 || r >= rows {
			continue
		}
		c = max(0, min(c, cols-len(text)))
		for i, ch := range text {
			if c+i >= cols {
				break
			}
			grid[r][c+i] = pieCell{ch: ch, color: colors[s.Name], label: true}
		}
	}

	lines := make([]string, rows)
	for r, row := range grid {
		var b strings.Builder
		start := 0
		for c := 1; c <= len(row); c++ {
			if c < len(row) && row[c].color == row[start].color && row[c].label == row[start].label {
				continue
			}
			b.WriteString(renderRun(row[start:c]))
			start = c
		}
		lines[r] = b.String()
	}
	return lines
}

func renderRun(run []pieCell) string {
	var text strings.Builder
	for _, c := range run {
		text.WriteRune(c.ch)
	}
	first := run[0]
	switch {
	case first.label:
		return pieLabelStyle.Background(lipgloss.Color(first.color)).Render(text.String())
	case first.color != "":
		return lipgloss.NewStyle().Foreground(lipgloss.Color(first.color)).Render(text.String())
	}
	return text.String()
}

func (p pieModel) view() string {
	w := p.width - 4
	title := titleStyle.Render("Time by Category")

	if p.slices == nil {
		placeholder := lipgloss.Place(p.cols, p.rows, lipgloss.Center, lipgloss.Center, mutedStyle.Render(chart.Placeholder))
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", placeholder))
	}

	pie := strings.Join(renderPie(p.slices, p.colors, p.cols, p.rows), "\n")
	body := lipgloss.JoinHorizontal(lipgloss.Top, pie, "   ", p.renderLegend())

	tip := mutedStyle.Render("Hover over a slice for details")
	if t := p.tooltip(); t != "" {
		tip = tooltipStyle.Render(t)
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", tip),
	)
}

func (p pieModel) renderLegend() string {
	var rows []string
	total := chart.Total(p.cats)
	rows = append(rows, titleStyle.Render("Total ")+highlightStyle.Render(formatSeconds(total)))
	rows = append(rows, "")
	for i, c := range p.cats {
		line := fmt.Sprintf("%s %s %s %6s%%", dot(c.Color), cell(c.Name, 16), formatSeconds(c.TotalSeconds), p.slices[i].Percentage)
		if p.hovered && p.hover.Name == c.Name {
			line = selectedItemStyle.Render("› ") + line
		} else {
			line = "  " + line
		}
		rows = append(rows, line)
	}
	return strings.Join(rows, "\n")
}

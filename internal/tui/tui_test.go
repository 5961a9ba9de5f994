package tui

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/sadopc/timepie/internal/chart"
	"github.com/sadopc/timepie/internal/store"
	"github.com/sadopc/timepie/internal/timer"
)

func newTestStore(t *testing.T) (*store.Store, *store.Owner) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	o, err := s.EnsureOwner("me")
	if err != nil {
		t.Fatal(err)
	}
	return s, o
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func keyPress(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newTestDashboard(t *testing.T) (dashboardModel, *store.Store, *testClock) {
	t.Helper()
	s, o := newTestStore(t)
	clk := &testClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	sess := timer.New(s, o.ID, clk.Now)
	d := newDashboardModel(s, o.ID, sess, quietLogger())
	d.setSize(100, 40)
	return d, s, clk
}

// ============================================================
// Timer view
// ============================================================

func TestDashboardStartRequiresCategory(t *testing.T) {
	d, _, _ := newTestDashboard(t)

	d, _ = d.update(keyPress("s"))
	if d.isRunning() {
		t.Fatal("timer must not start without a category")
	}
	if d.inputErr == "" {
		t.Fatal("expected an inline validation message")
	}
	if !d.isEditing() {
		t.Fatal("input should take focus after a failed start")
	}
	if !strings.Contains(d.view(), d.inputErr) {
		t.Fatal("validation message should be rendered")
	}
}

func TestDashboardStartStop(t *testing.T) {
	d, s, clk := newTestDashboard(t)

	d.input.SetValue("writing")
	d, cmd := d.update(keyPress("s"))
	if !d.isRunning() {
		t.Fatal("timer should be running")
	}
	if cmd == nil {
		t.Fatal("start should schedule a poll")
	}

	gen := d.session.Generation()
	clk.now = clk.now.Add(90 * time.Second)
	d, cmd = d.update(tickMsg{gen: gen, at: clk.now})
	if cmd == nil {
		t.Fatal("a live poll should reschedule itself")
	}
	if d.elapsed() != 90 {
		t.Fatalf("elapsed = %d, want 90", d.elapsed())
	}
	if !strings.Contains(d.view(), "00:01:30") {
		t.Fatal("running view should show the elapsed time")
	}

	d, _ = d.update(keyPress("x"))
	if d.isRunning() {
		t.Fatal("timer should be idle after stop")
	}
	if d.input.Value() != "" {
		t.Fatal("category input should be cleared after a save")
	}

	entries, _ := s.ListEntries(d.ownerID, store.EntryFilter{})
	if len(entries) != 1 || entries[0].Category != "writing" || entries[0].Seconds != 90 {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestDashboardStaleTickDropped(t *testing.T) {
	d, _, clk := newTestDashboard(t)

	d.input.SetValue("a")
	d, _ = d.update(keyPress("s"))
	oldGen := d.session.Generation()
	d, _ = d.update(keyPress("x"))

	d.input.SetValue("b")
	d, _ = d.update(keyPress("s"))

	clk.now = clk.now.Add(5 * time.Second)
	d, cmd := d.update(tickMsg{gen: oldGen, at: clk.now})
	if cmd != nil {
		t.Fatal("a poll from a stopped run must not reschedule")
	}
	if d.elapsed() != 0 {
		t.Fatalf("stale tick changed elapsed to %d", d.elapsed())
	}
}

func TestDashboardInputCapturesKeys(t *testing.T) {
	d, _, _ := newTestDashboard(t)

	d, _ = d.update(keyPress("i"))
	if !d.isEditing() {
		t.Fatal("i should focus the input")
	}
	for _, r := range "sx" {
		d, _ = d.update(keyPress(string(r)))
	}
	if d.input.Value() != "sx" || d.isRunning() {
		t.Fatalf("typing should not trigger shortcuts, value %q", d.input.Value())
	}

	d, _ = d.update(keyPress("enter"))
	if !d.isRunning() || d.session.Category() != "sx" {
		t.Fatal("enter should start the timer with the typed category")
	}
}

// ============================================================
// Entries view
// ============================================================

func TestEntriesDelete(t *testing.T) {
	s, o := newTestStore(t)
	e1, _ := s.InsertEntry(o.ID, "a", 10, "")
	s.InsertEntry(o.ID, "b", 20, "")

	m := newEntriesModel(s, o.ID, quietLogger())
	m.setSize(100, 40)
	m, _ = m.update(m.refresh()())
	if len(m.entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(m.entries))
	}

	m.cursor = 1
	m, _ = m.update(keyPress("d"))
	if !m.formActive || m.deleting.ID != e1.ID {
		t.Fatal("d should ask to confirm deleting the selected entry")
	}

	if cmd := m.deleteEntry(m.deleting); cmd == nil {
		t.Fatal("delete should report back")
	}
	left, _ := s.ListEntries(o.ID, store.EntryFilter{})
	if len(left) != 1 || left[0].ID == e1.ID {
		t.Fatalf("entry not deleted: %+v", left)
	}
}

func TestEntriesEscCancelsConfirm(t *testing.T) {
	s, o := newTestStore(t)
	s.InsertEntry(o.ID, "a", 10, "")

	m := newEntriesModel(s, o.ID, quietLogger())
	m, _ = m.update(m.refresh()())
	m, _ = m.update(keyPress("d"))
	m, _ = m.update(keyPress("esc"))
	if m.formActive {
		t.Fatal("esc should close the confirm")
	}
	left, _ := s.ListEntries(o.ID, store.EntryFilter{})
	if len(left) != 1 {
		t.Fatal("cancel must not delete")
	}
}

func TestEntriesCursorClamped(t *testing.T) {
	m := entriesModel{cursor: 5}
	m.setEntries([]store.TimeEntry{{ID: 1}, {ID: 2}})
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor)
	}
	m.setEntries(nil)
	if m.cursor != 0 {
		t.Fatalf("cursor = %d, want 0", m.cursor)
	}
}

func TestDashboardTodayColorsMatchChart(t *testing.T) {
	d, s, _ := newTestDashboard(t)
	now := time.Now().UTC()
	s.InsertEntryAt(d.ownerID, "reading", 600, "", now.AddDate(0, 0, -1))
	s.InsertEntryAt(d.ownerID, "travel", 900, "", now.AddDate(0, 0, 2))
	s.InsertEntryAt(d.ownerID, "work", 1200, "", now)

	msg := d.loadData()().(dashboardDataMsg)
	if len(msg.todaySummary) != 1 || msg.todaySummary[0].Name != "work" {
		t.Fatalf("today should only hold work, got %+v", msg.todaySummary)
	}

	all, _ := s.ListEntries(d.ownerID, store.EntryFilter{})
	want := map[string]string{}
	for _, c := range chart.Aggregate(all) {
		want[c.Name] = c.Color
	}
	if got := msg.todaySummary[0].Color; got != want["work"] {
		t.Errorf("work colour %s, chart uses %s", got, want["work"])
	}
	if want["work"] == chart.PaletteColor(0) {
		t.Fatal("work should not lead the full list")
	}
}

// ============================================================
// Chart view
// ============================================================

func halves() []store.TimeEntry {
	return []store.TimeEntry{
		{Category: "a", Seconds: 60},
		{Category: "b", Seconds: 60},
	}
}

func TestRenderPie(t *testing.T) {
	cats := chart.Aggregate(halves())
	slices := chart.Layout(cats)
	colors := map[string]string{"a": cats[0].Color, "b": cats[1].Color}

	lines := renderPie(slices, colors, 40, 20)
	if len(lines) != 20 {
		t.Fatalf("expected 20 rows, got %d", len(lines))
	}
	out := strings.Join(lines, "\n")
	if !strings.Contains(out, "█") {
		t.Fatal("pie should paint filled cells")
	}
	if strings.Count(out, "50.0%") != 2 {
		t.Fatalf("expected two percentage labels:\n%s", out)
	}
	if strings.Contains(lines[0][:1], "█") {
		t.Fatal("corner cell should be outside the circle")
	}
}

func TestRenderPieTooSmall(t *testing.T) {
	if lines := renderPie(nil, nil, 0, 0); lines != nil {
		t.Fatal("zero-size grid should render nothing")
	}
}

func TestPieHover(t *testing.T) {
	s, o := newTestStore(t)
	p := newPieModel(s, o.ID)
	p.setEntries(halves())
	p.cols, p.rows = 40, 20

	p.hoverAt(pieOffsetX+30, pieOffsetY+10)
	if !p.hovered || p.hover.Name != "a" {
		t.Fatalf("right half should be a, got %+v", p.hover)
	}
	if got := p.tooltip(); got != "a · 00:01:00 · 50.0%" {
		t.Fatalf("tooltip = %q", got)
	}

	p.hoverAt(pieOffsetX+8, pieOffsetY+10)
	if !p.hovered || p.hover.Name != "b" {
		t.Fatalf("left half should be b, got %+v", p.hover)
	}

	p.hoverAt(pieOffsetX, pieOffsetY)
	if p.hovered || p.tooltip() != "" {
		t.Fatal("corner is outside the pie")
	}

	p.hoverAt(0, 0)
	if p.hovered {
		t.Fatal("points outside the grid never hit")
	}
}

func TestPieEmptyShowsPlaceholder(t *testing.T) {
	s, o := newTestStore(t)
	p := newPieModel(s, o.ID)
	p.setSize(100, 40)
	p.setEntries(nil)
	if !strings.Contains(p.view(), chart.Placeholder) {
		t.Fatal("empty chart should show the placeholder")
	}
	p.hoverAt(pieOffsetX+5, pieOffsetY+5)
	if p.hovered {
		t.Fatal("nothing to hover on an empty chart")
	}
}

func TestCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"gym", "gym     "},
		{"exactly8", "exactly8"},
		{"much too long", "much to…"},
		{"ドキュメント", "ドキュ… "},
	}
	for _, tt := range tests {
		got := cell(tt.in, 8)
		if got != tt.want {
			t.Errorf("cell(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if w := lipgloss.Width(got); w != 8 {
			t.Errorf("cell(%q) is %d cells wide", tt.in, w)
		}
	}
}

func TestPieLegendWideNames(t *testing.T) {
	s, o := newTestStore(t)
	p := newPieModel(s, o.ID)
	p.setEntries([]store.TimeEntry{
		{Category: "aドキュメント作成作業", Seconds: 60},
		{Category: "gym", Seconds: 60},
	})

	legend := p.renderLegend()
	if !utf8.ValidString(legend) {
		t.Fatalf("legend is not valid UTF-8: %q", legend)
	}
	lines := strings.Split(legend, "\n")[2:]
	if len(lines) != 2 {
		t.Fatalf("expected 2 legend rows, got %d", len(lines))
	}
	if a, b := lipgloss.Width(lines[0]), lipgloss.Width(lines[1]); a != b {
		t.Errorf("legend rows should align, widths %d and %d", a, b)
	}
}

func TestPieLayoutFitsWidth(t *testing.T) {
	p := pieModel{}
	p.setSize(60, 60)
	if p.cols > 60-10-legendWidth && p.cols != 8 {
		t.Fatalf("pie too wide: %d cols", p.cols)
	}
	if p.rows*cellAspect > p.cols+1 {
		t.Fatalf("pie should keep its aspect, %dx%d", p.cols, p.rows)
	}
}

// ============================================================
// Reports view
// ============================================================

func TestDaysSinceWeekStart(t *testing.T) {
	tests := []struct {
		day       time.Weekday
		weekStart string
		want      int
	}{
		{time.Monday, "monday", 0},
		{time.Sunday, "monday", 6},
		{time.Wednesday, "monday", 2},
		{time.Sunday, "sunday", 0},
		{time.Saturday, "sunday", 6},
		{time.Monday, "sunday", 1},
	}
	for _, tt := range tests {
		if got := daysSinceWeekStart(tt.day, tt.weekStart); got != tt.want {
			t.Errorf("%s/%s = %d, want %d", tt.day, tt.weekStart, got, tt.want)
		}
	}
}

func TestReportsDateRange(t *testing.T) {
	s, o := newTestStore(t)
	r := newReportsModel(s, o.ID)
	// Wednesday
	r.now = func() time.Time { return time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC) }

	from, to := r.dateRange()
	if !from.Equal(time.Date(2026, 2, 26, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("daily range %v - %v", from, to)
	}

	r.mode = reportWeekly
	from, _ = r.dateRange()
	if from.Weekday() != time.Monday {
		t.Fatalf("week should start on monday, got %s", from.Weekday())
	}

	r.weekStart = "sunday"
	from, to = r.dateRange()
	if from.Weekday() != time.Sunday || to.Sub(from) != 7*24*time.Hour {
		t.Fatalf("week should start on sunday, got %s", from.Weekday())
	}
}

func TestReportsRefreshUsesWeekStart(t *testing.T) {
	s, o := newTestStore(t)
	s.SetSetting(o.ID, store.SettingWeekStart, "sunday")
	s.InsertEntry(o.ID, "Work", 3600, "")

	r := newReportsModel(s, o.ID)
	r.setSize(100, 40)
	r, _ = r.update(r.refresh()())
	if r.weekStart != "sunday" {
		t.Fatalf("weekStart = %q", r.weekStart)
	}
	if len(r.totals) != 1 || r.totals[0].Category != "work" {
		t.Fatalf("unexpected totals %+v", r.totals)
	}
	if r.colorOf("work") != chart.Palette[0] {
		t.Fatal("report colours should match the pie palette")
	}
	if r.periodTotal() != 3600 {
		t.Fatalf("period total %d", r.periodTotal())
	}
}

// ============================================================
// Settings view
// ============================================================

func TestSettingsCopyPublicURL(t *testing.T) {
	s, o := newTestStore(t)
	m := newSettingsModel(s, *o, "http://localhost:3000/", quietLogger())
	var copied string
	m.copy = func(text string) error {
		copied = text
		return nil
	}

	msg := m.copyPublicURL()().(statusMsg)
	if copied != "" || !strings.Contains(msg.text, "off") {
		t.Fatalf("private owner should not copy, got %q", msg.text)
	}

	s.SetSetting(o.ID, store.SettingPublic, "true")
	m, _ = m.update(m.refresh()())
	m.copyPublicURL()()
	if copied != "http://localhost:3000/public/me" {
		t.Fatalf("copied %q", copied)
	}

	m.copy = func(string) error { return errors.New("no clipboard") }
	if msg := m.copyPublicURL()().(statusMsg); !msg.isError {
		t.Fatal("clipboard failure should be reported")
	}
}

func TestSettingsSave(t *testing.T) {
	s, o := newTestStore(t)
	m := newSettingsModel(s, *o, "", quietLogger())
	*m.public = true
	*m.weekStart = "sunday"
	if err := m.saveSettings(); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.IsPublic(o.ID); !ok {
		t.Fatal("public not saved")
	}
	if v, _ := s.GetSetting(o.ID, store.SettingWeekStart); v != "sunday" {
		t.Fatalf("week_start = %q", v)
	}
}

func TestFormatSettingValue(t *testing.T) {
	if formatSettingValue(store.SettingPublic, "true") != "public" {
		t.Fatal("true should read as public")
	}
	if formatSettingValue(store.SettingPublic, "false") != "private" {
		t.Fatal("false should read as private")
	}
	if formatSettingValue(store.SettingWeekStart, "monday") != "monday" {
		t.Fatal("other values pass through")
	}
}

// ============================================================
// App
// ============================================================

func newTestApp(t *testing.T) App {
	t.Helper()
	s, o := newTestStore(t)
	a := NewApp(s, *o, Options{Logger: quietLogger(), ExportDir: t.TempDir()})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(App)
}

func TestAppTabs(t *testing.T) {
	a := newTestApp(t)
	if a.activeView != viewTimer {
		t.Fatal("app should open on the timer")
	}

	m, _ := a.Update(keyPress("3"))
	a = m.(App)
	if a.activeView != viewChart {
		t.Fatalf("expected chart view, got %d", a.activeView)
	}

	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a = m.(App)
	if a.activeView != viewReports {
		t.Fatalf("expected reports view, got %d", a.activeView)
	}

	for range 2 {
		m, _ = a.Update(tea.KeyMsg{Type: tea.KeyTab})
		a = m.(App)
	}
	if a.activeView != viewTimer {
		t.Fatal("tab should wrap around")
	}
}

func TestAppTimerStoppedRefreshesChart(t *testing.T) {
	a := newTestApp(t)
	entry := store.TimeEntry{ID: 1, Category: "a", Seconds: 30}

	m, _ := a.Update(timerStoppedMsg{entry: &entry, entries: []store.TimeEntry{entry}})
	a = m.(App)
	if len(a.pie.slices) != 1 || len(a.entries.entries) != 1 {
		t.Fatal("a saved entry should reach the chart and entries views")
	}
	if !strings.Contains(a.status, "Saved a") {
		t.Fatalf("status = %q", a.status)
	}
}

func TestAppMouseHover(t *testing.T) {
	a := newTestApp(t)
	a.pie.setEntries(halves())
	a.activeView = viewChart

	x := pieOffsetX + a.pie.cols*3/4
	y := a.headerHeight() + pieOffsetY + a.pie.rows/2
	m, _ := a.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion})
	a = m.(App)
	if !a.pie.hovered || a.pie.hover.Name != "a" {
		t.Fatalf("expected hover on a, got %+v", a.pie.hover)
	}
}

func TestAppExport(t *testing.T) {
	a := newTestApp(t)
	a.store.InsertEntry(a.owner.ID, "work", 60, "")

	msg := a.doExport(1)()
	done, ok := msg.(exportDoneMsg)
	if !ok {
		t.Fatalf("expected exportDoneMsg, got %#v", msg)
	}
	if !strings.HasSuffix(done.path, ".json") {
		t.Fatalf("unexpected path %q", done.path)
	}
}

func TestAppViewRenders(t *testing.T) {
	a := newTestApp(t)
	for v := range viewNames {
		a.activeView = viewState(v)
		if out := a.View(); !strings.Contains(out, "timepie") {
			t.Fatalf("view %d missing header", v)
		}
	}
}

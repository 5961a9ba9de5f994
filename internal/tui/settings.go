package tui

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/sadopc/timepie/internal/store"
)

type settingsModel struct {
	store   *store.Store
	owner   store.Owner
	baseURL string
	logger  *log.Logger
	width   int
	height  int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	public    *bool
	weekStart *string

	// copy writes to the system clipboard; tests replace it.
	copy func(string) error
}

func newSettingsModel(s *store.Store, owner store.Owner, baseURL string, logger *log.Logger) settingsModel {
	public, ws := false, ""
	return settingsModel{
		store:     s,
		owner:     owner,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
		public:    &public,
		weekStart: &ws,
		copy:      clipboard.WriteAll,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

// publicURL is where the owner's read-only chart is served.
func (s settingsModel) publicURL() string {
	return s.baseURL + "/public/" + url.PathEscape(s.owner.Name)
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings(s.owner.ID)
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter):
			return s.showForm()
		case key.Matches(msg, keys.Copy):
			return s, s.copyPublicURL()
		}
	}
	return s, nil
}

func (s settingsModel) copyPublicURL() tea.Cmd {
	if s.getVal(store.SettingPublic, "false") != "true" {
		return statusCmd("Public sharing is off; enable it first")
	}
	link := s.publicURL()
	if err := s.copy(link); err != nil {
		s.logger.Warn("copy public link", "error", err)
		return errCmd("Could not copy to clipboard", err)
	}
	return statusCmd("Copied " + link)
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.public, _ = strconv.ParseBool(s.getVal(store.SettingPublic, "false"))
	*s.weekStart = s.getVal(store.SettingWeekStart, "monday")

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Share a read-only chart").
				Description(s.publicURL()).
				Affirmative("Public").
				Negative("Private").
				Value(s.public),
			huh.NewSelect[string]().Title("Week starts on").
				Options(
					huh.NewOption("Monday", "monday"),
					huh.NewOption("Sunday", "sunday"),
				).Value(s.weekStart),
		).Title("General"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			s.logger.Error("save settings", "owner", s.owner.ID, "error", err)
			return s, errCmd("Could not save settings", err)
		}
		return s, tea.Batch(s.refresh(), statusCmd("Settings saved"))
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	if err := s.store.SetSetting(s.owner.ID, store.SettingPublic, strconv.FormatBool(*s.public)); err != nil {
		return err
	}
	return s.store.SetSetting(s.owner.ID, store.SettingWeekStart, *s.weekStart)
}

func (s settingsModel) getVal(k, fallback string) string {
	for _, st := range s.settings {
		if st.Key == k {
			return st.Value
		}
	}
	v, err := s.store.GetSetting(s.owner.ID, k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Settings"))
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render("owner"), highlightStyle.Render(s.owner.Name)))

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	if s.getVal(store.SettingPublic, "false") == "true" {
		rows = append(rows, "  "+mutedStyle.Render("Public link: ")+highlightStyle.Render(s.publicURL()))
	}
	rows = append(rows, mutedStyle.Render("Press enter to edit settings, y to copy the public link"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.SettingPublic:
		if v == "true" {
			return "public"
		}
		return "private"
	}
	return v
}

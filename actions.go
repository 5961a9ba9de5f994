package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/sadopc/timepie/internal/chart"
	"github.com/sadopc/timepie/internal/export"
	"github.com/sadopc/timepie/internal/server"
	"github.com/sadopc/timepie/internal/shared"
	"github.com/sadopc/timepie/internal/store"
	"github.com/sadopc/timepie/internal/tui"
)

func (r *Runner) now() time.Time {
	if r.clock != nil {
		return r.clock()
	}
	return time.Now()
}

// Init writes the example config to --config and reports where data lives.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	return r.writePlain("Wrote %s\nOwner %q is ready.\n", path, r.owner.Name)
}

// TUI launches the terminal UI. Logs go to the configured file so they do
// not tear the screen.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	logPath := r.config.Log.File
	if logPath != "" && !filepath.IsAbs(logPath) {
		logPath = filepath.Join(filepath.Dir(cmd.String("config")), logPath)
	}
	if logPath != "" {
		fileLogger, f, err := shared.NewFileLogger(logPath)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer f.Close()
		shared.SetLogLevel(fileLogger, r.config.Log.Level)
		r.logger = fileLogger
	}

	app := tui.NewApp(r.store, *r.owner, tui.Options{
		BaseURL:   r.config.Server.BaseURL,
		Logger:    r.logger,
		Clock:     r.clock,
		ExportDir: r.config.Export.Dir,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func (r *Runner) OwnerAdd(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: owner name is required", shared.ErrValidation)
	}
	o, err := r.store.CreateOwner(name)
	if err != nil {
		return err
	}
	r.logger.Info("owner created", "name", o.Name, "id", o.ID)
	return r.writePlain("Created %s\nToken: %s\n", o.Name, o.Token)
}

func (r *Runner) OwnerList(ctx context.Context, cmd *cli.Command) error {
	owners, err := r.store.ListOwners()
	if err != nil {
		return err
	}
	showTokens := cmd.Bool("tokens")
	for _, o := range owners {
		public, err := r.store.IsPublic(o.ID)
		if err != nil {
			return err
		}
		sharing := "private"
		if public {
			sharing = "public"
		}
		line := fmt.Sprintf("%-20s %-8s %s", o.Name, sharing, o.CreatedAt.Local().Format("2006-01-02"))
		if showTokens {
			line += "  " + o.Token
		}
		if err := r.writePlain("%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

// OwnerShare turns public sharing on (or, with --off, off) for the current
// owner and prints the public address.
func (r *Runner) OwnerShare(ctx context.Context, cmd *cli.Command) error {
	public := !cmd.Bool("off")
	if err := r.store.SetSetting(r.owner.ID, store.SettingPublic, fmt.Sprint(public)); err != nil {
		return err
	}
	r.logger.Info("sharing changed", "owner", r.owner.Name, "public", public)
	if !public {
		return r.writePlain("%s is private\n", r.owner.Name)
	}
	return r.writePlain("%s\n", publicURL(r.config.Server.BaseURL, r.owner.Name))
}

func publicURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/public/" + url.PathEscape(name)
}

func (r *Runner) Entries(ctx context.Context, cmd *cli.Command) error {
	entries, err := r.store.ListEntries(r.owner.ID, store.EntryFilter{Limit: max(0, cmd.Int("limit"))})
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return export.WriteJSON(r.output, r.owner.Name, entries)
	}
	if len(entries) == 0 {
		return r.writePlain("No entries yet\n")
	}
	for _, e := range entries {
		err := r.writePlain("%5d  %s  %-20s %s\n",
			e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Category, chart.FormatTime(e.Seconds))
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) Summary(ctx context.Context, cmd *cli.Command) error {
	entries, err := r.store.ListEntries(r.owner.ID, store.EntryFilter{})
	if err != nil {
		return err
	}
	cats := chart.Aggregate(entries)

	switch format := cmd.String("format"); format {
	case "json":
		return export.WriteSummaryJSON(r.output, cats)
	case "csv":
		return export.WriteSummaryCSV(r.output, cats)
	case "text":
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrValidation, format)
	}

	slices := chart.Layout(cats)
	if slices == nil {
		return r.writePlain("%s\n", chart.Placeholder)
	}
	for _, s := range slices {
		if err := r.writePlain("%-20s %s %6s%%\n", s.Name, chart.FormatTime(s.Seconds), s.Percentage); err != nil {
			return err
		}
	}
	return r.writePlain("%-20s %s\n", "total", chart.FormatTime(chart.Total(cats)))
}

func (r *Runner) Chart(ctx context.Context, cmd *cli.Command) error {
	entries, err := r.store.ListEntries(r.owner.ID, store.EntryFilter{})
	if err != nil {
		return err
	}

	opts := chart.Options{Variant: chart.Interactive, Size: cmd.Int("size"), Margin: r.config.Chart.Margin}
	if opts.Size <= 0 {
		opts.Size = r.config.Chart.Size
	}
	if cmd.Bool("readonly") {
		opts.Variant = chart.ReadOnly
	}

	out := cmd.String("out")
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()
	if _, err := chart.EncodePNG(f, chart.Aggregate(entries), opts); err != nil {
		return err
	}
	r.logger.Info("chart written", "path", out, "size", opts.Size)
	return r.writePlain("Wrote %s\n", out)
}

func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if format != "csv" && format != "json" {
		return fmt.Errorf("%w: unknown format %q", shared.ErrValidation, format)
	}
	out := cmd.String("out")
	if out == "" {
		out = fmt.Sprintf("timepie-export-%s.%s", r.now().Format("2006-01-02"), format)
	}

	entries, err := r.store.ListEntries(r.owner.ID, store.EntryFilter{})
	if err != nil {
		return err
	}
	if format == "csv" {
		err = export.ToCSV(entries, out)
	} else {
		err = export.ToJSON(entries, out)
	}
	if err != nil {
		return err
	}
	r.logger.Info("export written", "path", out, "entries", len(entries))
	return r.writePlain("Exported %d entries to %s\n", len(entries), out)
}

// Serve runs the HTTP server until interrupted, with the export scheduler
// alongside when one is configured.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := *r.config
	if host := cmd.String("host"); host != "" {
		cfg.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Export.Schedule != "" {
		sch := export.NewScheduler(r.store, cfg.Export.Dir, r.logger)
		if err := sch.Schedule(cfg.Export.Schedule); err != nil {
			return err
		}
		sch.Start()
		defer sch.Stop()
		r.logger.Info("export scheduled", "spec", cfg.Export.Schedule, "dir", cfg.Export.Dir)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(r.store, &cfg, r.logger, r.clock).Run(ctx)
}

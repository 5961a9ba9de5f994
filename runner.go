package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/sadopc/timepie/internal/shared"
	"github.com/sadopc/timepie/internal/store"
	"github.com/sadopc/timepie/internal/timer"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	store  *store.Store
	owner  *store.Owner
	logger *log.Logger
	output io.Writer
	clock  timer.Clock
	closer io.Closer
}

// RunnerOpts contains configuration options for creating a Runner. Fields
// left nil are filled in by [Runner.Setup] from the config file.
type RunnerOpts struct {
	Config *shared.Config
	Store  *store.Store
	Logger *log.Logger
	Output io.Writer
	Clock  timer.Clock
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Runner{
		config: opts.Config,
		store:  opts.Store,
		logger: opts.Logger,
		output: opts.Output,
		clock:  opts.Clock,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		initCommand, tuiCommand, ownerCommand, entriesCommand, summaryCommand, chartCommand, exportCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Setup loads the configuration, opens the database and resolves the owner
// the command acts for. It runs before every command.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config == nil {
		config, err := shared.LoadOrDefault(cmd.String("config"))
		if err != nil {
			return ctx, err
		}
		r.config = config
	}
	if err := shared.SetLogLevel(r.logger, r.config.Log.Level); err != nil {
		r.logger.Warn("ignoring log level", "level", r.config.Log.Level, "error", err)
	}

	if r.store == nil {
		path := r.config.Database.Path
		if path == "" {
			var err error
			if path, err = store.DefaultDBPath(); err != nil {
				return ctx, fmt.Errorf("locate database: %w", err)
			}
		}
		s, err := store.New(path)
		if err != nil {
			return ctx, fmt.Errorf("open database: %w", err)
		}
		if r.config.Database.MaxOpenConns > 0 {
			s.SetMaxOpenConns(r.config.Database.MaxOpenConns)
		}
		r.store = s
		r.closer = s
		r.logger.Debug("database opened", "path", path)
	}

	name := cmd.String("owner")
	if name == "" {
		name = r.config.User.Name
	}
	owner, err := r.store.EnsureOwner(name)
	if err != nil {
		return ctx, fmt.Errorf("resolve owner %q: %w", name, err)
	}
	r.owner = owner
	return ctx, nil
}

// Close releases what Setup opened.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// defaultConfigPath returns ~/.config/timepie/config.toml, or config.toml in
// the working directory when there is no user config dir.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "timepie", "config.toml")
}

package main

import "github.com/urfave/cli/v3"

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "timepie",
		Usage:   "Track time by category and see where it went",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath(),
			},
			&cli.StringFlag{
				Name:  "owner",
				Usage: "Owner to act as (default: user.name from the config)",
			},
		},
		Before:   r.Setup,
		After:    r.Close,
		Action:   r.TUI,
		Commands: r.register(),
	}
}

func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Write a default config file and create the database",
		Action: r.Init,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Open the terminal UI (the default)",
		Action: r.TUI,
	}
}

// ownerCommand manages owners and their public sharing.
func ownerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "owner",
		Usage: "Manage owners",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create an owner and print its API token",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.OwnerAdd,
			},
			{
				Name:  "list",
				Usage: "List owners",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "tokens", Usage: "Include API tokens"},
				},
				Action: r.OwnerList,
			},
			{
				Name:  "share",
				Usage: "Turn the public chart page on or off",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "off", Usage: "Stop sharing"},
				},
				Action: r.OwnerShare,
			},
		},
	}
}

func entriesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "entries",
		Usage: "List time entries, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum number of entries", Value: 20},
			&cli.BoolFlag{Name: "json", Usage: "Output JSON"},
		},
		Action: r.Entries,
	}
}

func summaryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "Show time per category",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "text, json or csv", Value: "text"},
		},
		Action: r.Summary,
	}
}

func chartCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "chart",
		Usage: "Render the pie chart to a PNG file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file", Value: "timepie.png"},
			&cli.IntFlag{Name: "size", Usage: "Side of the image in pixels (default: chart.size)"},
			&cli.BoolFlag{Name: "readonly", Usage: "Render the shared-page variant"},
		},
		Action: r.Chart,
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export all entries to a file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "csv or json", Value: "csv"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default: timepie-export-<date>.<format>)"},
		},
		Action: r.Export,
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve public chart pages and the API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (default: server.host)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (default: server.port)"},
		},
		Action: r.Serve,
	}
}

// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag(value string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (txt, json, markdown, csv)",
		Value:   value,
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "rollback",
				Usage: "Roll back the most recent database migration",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm the rollback, dropping the migrated tables",
					},
				},
				Action: r.SetupRollback,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path of the config file to create",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand runs the Spotify OAuth2 flow.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authenticate with Spotify using OAuth2",
		Action: r.SpotifyAuth,
		Commands: []*cli.Command{
			{
				Name:   "logout",
				Usage:  "Forget the saved Spotify tokens",
				Action: r.SpotifyLogout,
			},
		},
	}
}

func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the authenticated Spotify user",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Whoami,
	}
}

// syncCommand enriches liked songs and indexes their vibes.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync liked songs: fetch lyrics, describe their vibe and index them",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of liked songs to process, 0 for the whole library (default: sync.limit)",
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Aliases: []string{"c"},
				Usage:   "Tracks enriched in parallel (default: sync.concurrency)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print only the summary as JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.Sync,
	}
}

// searchCommand queries the index by vibe.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"find"},
		Usage:     "Find liked songs matching a vibe",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "results",
				Aliases: []string{"n"},
				Usage:   "Number of matches",
				Value:   5,
			},
			formatFlag("txt"),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON (same as --format json)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the results to a file instead of stdout",
			},
		},
		Action: r.Search,
	}
}

// libraryCommand manages the indexed tracks.
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Manage indexed tracks",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List indexed tracks",
				Flags:  []cli.Flag{formatFlag("txt")},
				Action: r.LibraryList,
			},
			{
				Name:   "count",
				Usage:  "Print the number of indexed tracks",
				Action: r.LibraryCount,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove tracks from the index so the next sync processes them again",
				ArgsUsage: "<track-id>...",
				Action:    r.LibraryRemove,
			},
			{
				Name:  "clear",
				Usage: "Remove every track from the index",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm deletion",
					},
				},
				Action: r.LibraryClear,
			},
			{
				Name:  "export",
				Usage: "Export indexed tracks to a file",
				Flags: []cli.Flag{
					formatFlag("json"),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file or directory (default: ./vibesync_library.<ext>)",
					},
				},
				Action: r.LibraryExport,
			},
		},
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent sync runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of runs to show, 0 for all",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// serveCommand exposes vibe search over HTTP.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the vibe search JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive library management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for syncing and searching",
		Action:  r.TUI,
	}
}

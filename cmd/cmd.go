// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles setup operations for the document store and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the document store and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Destination path",
						Value: "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// ingestCommand normalizes a tabular source without persisting it.
func ingestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Normalize a CSV source and report the entity graph",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "csv",
				Usage:    "Path to the source CSV file",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Ingest,
	}
}

// loadCommand runs the full ingestion pipeline into the document store.
func loadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "load",
		Usage: "Ingest a CSV source, generate fixtures, and bulk-load all collections",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "csv",
				Usage:    "Path to the source CSV file",
				Required: true,
			},
		},
		Action: r.Load,
	}
}

// fixturesCommand previews synthetic users and playlists.
func fixturesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "fixtures",
		Usage: "Preview synthetic users and playlists without persisting them",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "users",
				Usage: "Number of users to generate",
				Value: 15,
			},
			&cli.IntFlag{
				Name:  "playlists",
				Usage: "Number of playlists to generate",
				Value: 15,
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Random seed (0 seeds from the current time)",
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Source CSV providing the track pool (required when playlists > 0)",
			},
		},
		Action: r.Fixtures,
	}
}

// playlistCommand handles interactive playlist operations
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a playlist for a user",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "owner",
						Usage:    "Owning user id",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Playlist name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "genre",
						Usage:    "Playlist genre",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "subgenre",
						Usage:    "Playlist subgenre",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "track",
						Usage: "Track id to include (repeatable)",
					},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:  "edit",
				Usage: "Edit playlist fields and tracks, then save both copies",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist id to edit",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "New playlist name",
					},
					&cli.StringFlag{
						Name:  "genre",
						Usage: "New genre",
					},
					&cli.StringFlag{
						Name:  "subgenre",
						Usage: "New subgenre",
					},
					&cli.StringSliceFlag{
						Name:  "add-track",
						Usage: "Track id to add (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "remove-track",
						Usage: "Track id to remove (repeatable)",
					},
				},
				Action: r.PlaylistEdit,
			},
			{
				Name:  "delete",
				Usage: "Delete a playlist from both locations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist id to delete",
						Required: true,
					},
				},
				Action: r.PlaylistDelete,
			},
			{
				Name:  "show",
				Usage: "Show one canonical playlist record",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist id",
						Required: true,
					},
				},
				Action: r.PlaylistShow,
			},
			{
				Name:   "list",
				Usage:  "List canonical playlists",
				Flags:  []cli.Flag{configFlag()},
				Action: r.PlaylistList,
			},
		},
	}
}

// trackCommand handles track catalog operations
func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Track catalog operations",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Case-insensitive substring search over name and artist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "query",
					},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TrackSearch,
			},
		},
	}
}

// userCommand handles user record operations
func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "User record operations",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show a user with playlists reconciled from the canonical collection",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "User id",
						Required: true,
					},
				},
				Action: r.UserShow,
			},
			{
				Name:   "list",
				Usage:  "List user records",
				Flags:  []cli.Flag{configFlag()},
				Action: r.UserList,
			},
			{
				Name:  "rename",
				Usage: "Change a user's display name",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "User id",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Usage:    "New display name",
						Required: true,
					},
				},
				Action: r.UserRename,
			},
		},
	}
}

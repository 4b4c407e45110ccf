// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// globalFlags are accepted before any subcommand.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging (includes request IDs)",
		},
		&cli.BoolFlag{
			Name:  "ephemeral",
			Usage: "Keep the session in memory for this invocation only",
		},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func offlineFlag() cli.Flag {
	return &cli.BoolFlag{Name: "offline", Usage: "Read movies from the local cache only"}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "status",
						Usage: "Show applied migrations instead of running them",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write the default config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Where to write the config file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles registration, login and session management
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your account session",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account and log in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Username", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password", Required: true, Sources: cli.EnvVars("FLIX_PASSWORD")},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "birthday", Aliases: []string{"b"}, Usage: "Birthday (YYYY-MM-DD)"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "login",
				Usage: "Log in and store the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Username", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password", Required: true, Sources: cli.EnvVars("FLIX_PASSWORD")},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show who is logged in and when the token expires",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthStatus,
			},
			{
				Name:  "import",
				Usage: "Import a session from a browser request (Copy as cURL) or a bearer token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "curl", Usage: "cURL command from browser DevTools (Copy as cURL)"},
					&cli.StringFlag{Name: "curl-file", Usage: "Path to .sh file containing cURL command"},
					&cli.StringFlag{Name: "token", Usage: "Bearer token"},
				},
				Action: r.AuthImport,
			},
		},
	}
}

// moviesCommand handles catalog browsing
func moviesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "movies",
		Aliases: []string{"m"},
		Usage:   "Browse the movie catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every movie, marking your favorites",
				Flags: []cli.Flag{
					jsonFlag(),
					offlineFlag(),
					&cli.BoolFlag{Name: "featured", Usage: "Only featured movies"},
					&cli.StringFlag{Name: "genre", Usage: "Only movies of this genre"},
				},
				Action: r.MoviesList,
			},
			{
				Name:      "show",
				Usage:     "Show a movie by title (or by ID with --offline)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "title"}},
				Flags:     []cli.Flag{jsonFlag(), offlineFlag()},
				Action:    r.MoviesShow,
			},
			{
				Name:      "director",
				Usage:     "Show a director by name",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.MoviesDirector,
			},
			{
				Name:      "genre",
				Usage:     "Show a genre by name",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.MoviesGenre,
			},
			{
				Name:  "favorites",
				Usage: "List your favorite movies",
				Flags: []cli.Flag{
					jsonFlag(),
					&cli.BoolFlag{Name: "remote", Usage: "Ask the server instead of filtering the catalog locally"},
				},
				Action: r.MoviesFavorites,
			},
			{
				Name:      "poster",
				Usage:     "Download (or open) a movie poster",
				Arguments: []cli.Argument{&cli.StringArg{Name: "title"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory", Value: "posters"},
					&cli.BoolFlag{Name: "open", Usage: "Open the image in the browser instead of downloading it"},
				},
				Action: r.MoviesPoster,
			},
			{
				Name:  "posters",
				Usage: "Download posters for many movies concurrently",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory", Value: "posters"},
					&cli.BoolFlag{Name: "favorites", Usage: "Only your favorite movies"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent downloads", Value: 4},
					&cli.FloatFlag{Name: "rate-limit", Usage: "Downloads started per second", Value: 5},
					offlineFlag(),
				},
				Action: r.MoviesPosters,
			},
		},
	}
}

// favoritesCommand handles adding and removing favorites
func favoritesCommand(r *Runner) *cli.Command {
	movieArg := []cli.Argument{&cli.StringArg{Name: "movie", UsageText: "movie ID or title"}}
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage your favorite movies",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a movie to your favorites",
				Arguments: movieArg,
				Action:    r.FavoritesAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a movie from your favorites",
				Arguments: movieArg,
				Action:    r.FavoritesRemove,
			},
			{
				Name:      "toggle",
				Usage:     "Flip the favorite flag of a movie",
				Arguments: movieArg,
				Action:    r.FavoritesToggle,
			},
			{
				Name:   "list",
				Usage:  "List your favorite movie IDs as cached in the session",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.FavoritesList,
			},
		},
	}
}

// profileCommand handles the account record
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "View and edit your account",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the cached account record",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ProfileShow,
			},
			{
				Name:  "edit",
				Usage: "Update your account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "New username (defaults to the current one)"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "New password"},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "New email address"},
					&cli.StringFlag{Name: "birthday", Aliases: []string{"b"}, Usage: "New birthday (YYYY-MM-DD)"},
				},
				Action: r.ProfileEdit,
			},
			{
				Name:  "delete",
				Usage: "Delete your account on the server and log out",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm deletion"},
				},
				Action: r.ProfileDelete,
			},
			{
				Name:   "refresh",
				Usage:  "Fetch the account record from the server",
				Action: r.ProfileRefresh,
			},
		},
	}
}

// exportCommand writes favorites or the catalog to disk
func exportCommand(r *Runner) *cli.Command {
	flags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "json, csv, markdown or txt", Value: "json"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file or directory (defaults to export.dir)"},
			&cli.BoolFlag{Name: "posters", Usage: "Download posters next to the export"},
		}
	}
	return &cli.Command{
		Name:  "export",
		Usage: "Export movies to a file",
		Commands: []*cli.Command{
			{
				Name:   "favorites",
				Usage:  "Export your favorite movies",
				Flags:  flags(),
				Action: r.ExportFavorites,
			},
			{
				Name:   "catalog",
				Usage:  "Export the whole catalog",
				Flags:  flags(),
				Action: r.ExportCatalog,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the myFlix API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive movie browser",
		Flags:   []cli.Flag{offlineFlag()},
		Action:  r.TUI,
	}
}

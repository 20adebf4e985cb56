// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

func mediaTypeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "type",
		Aliases: []string{"t"},
		Usage:   "Media type (movie or tv)",
		Value:   "movie",
	}
}

func pageFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "page",
		Usage: "Result page",
		Value: 1,
	}
}

// setupCommand handles setup operations for configuration and storage.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize storage",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "seed-demo",
				Usage: "Register the demo identity (test@example.com)",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles the session lifecycle.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign up, sign in and manage your account",
		Commands: []*cli.Command{
			{
				Name:  "signup",
				Usage: "Register a new account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Full name", Required: true},
					&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Password (at least 8 characters)", Required: true},
					&cli.BoolFlag{Name: "remote", Usage: "Also register the user with the mock REST API"},
				},
				Action: r.AuthSignUp,
			},
			{
				Name:  "signin",
				Usage: "Sign in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Password", Required: true},
				},
				Action: r.AuthSignIn,
			},
			{
				Name:   "signout",
				Usage:  "Sign out and clear the session",
				Action: r.AuthSignOut,
			},
			{
				Name:   "status",
				Usage:  "Show the current session phase",
				Flags:  jsonFlags(),
				Action: r.AuthStatus,
			},
			{
				Name:   "payment",
				Usage:  "Complete payment for the signed-up account",
				Action: r.AuthPayment,
			},
			{
				Name:  "profile",
				Usage: "Update name or email",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New full name"},
					&cli.StringFlag{Name: "email", Usage: "New email address"},
				},
				Action: r.AuthProfile,
			},
			{
				Name:  "password",
				Usage: "Change your password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "current", Usage: "Current password", Required: true},
					&cli.StringFlag{Name: "new", Usage: "New password", Required: true},
				},
				Action: r.AuthPassword,
			},
			{
				Name:  "delete",
				Usage: "Delete your account",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm deletion"},
				},
				Action: r.AuthDelete,
			},
			{
				Name:  "suggest-password",
				Usage: "Generate a strong password",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "length", Aliases: []string{"l"}, Usage: "Password length", Value: 16},
				},
				Action: r.AuthSuggestPassword,
			},
		},
	}
}

// watchlistCommand handles watchlist operations.
func watchlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watchlist",
		Aliases: []string{"wl"},
		Usage:   "Manage your watchlist",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a title by key (movie:603, tv:1399 or custom:<id>)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "key"}},
				Action:    r.WatchlistAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a title by key",
				Arguments: []cli.Argument{&cli.StringArg{Name: "key"}},
				Action:    r.WatchlistRemove,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List saved titles",
				Flags: append(jsonFlags(), &cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Usage:   "Render as json, csv, markdown or txt",
				}),
				Action: r.WatchlistList,
			},
			{
				Name:  "export",
				Usage: "Export the watchlist to files with a manifest",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Formats to write (json, csv, markdown, txt); defaults to all",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: watchlist_export_{timestamp})",
					},
				},
				Action: r.WatchlistExport,
			},
			{
				Name:  "refresh",
				Usage: "Re-fetch catalog details for every saved title",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "workers", Usage: "Concurrent requests", Value: 4},
				},
				Action: r.WatchlistRefresh,
			},
			{
				Name:   "watch",
				Usage:  "Print the watchlist whenever another process changes it",
				Action: r.WatchlistWatch,
			},
			{
				Name:  "clear",
				Usage: "Remove every saved title",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm"},
				},
				Action: r.WatchlistClear,
			},
		},
	}
}

// catalogCommand handles catalog lookups.
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"cat"},
		Usage:   "Browse the movie and tv catalog",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search titles (custom movies included for movie searches)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     append(jsonFlags(), mediaTypeFlag(), pageFlag()),
				Action:    r.CatalogSearch,
			},
			{
				Name:      "details",
				Usage:     "Show details for a title key",
				Arguments: []cli.Argument{&cli.StringArg{Name: "key"}},
				Flags: append(jsonFlags(), &cli.BoolFlag{
					Name:  "trailer",
					Usage: "Open the trailer in a browser",
				}),
				Action: r.CatalogDetails,
			},
			{
				Name:   "trending",
				Usage:  "This week's trending titles",
				Flags:  append(jsonFlags(), mediaTypeFlag()),
				Action: r.CatalogTrending,
			},
			{
				Name:   "genres",
				Usage:  "List genres",
				Flags:  append(jsonFlags(), mediaTypeFlag()),
				Action: r.CatalogGenres,
			},
			{
				Name:      "browse",
				Usage:     "Browse a list (popular, top_rated, upcoming, now_playing, on_the_air)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "list", Value: "popular"}},
				Flags: append(jsonFlags(), mediaTypeFlag(), pageFlag(), &cli.IntFlag{
					Name:  "genre",
					Usage: "Browse a genre id instead of a list",
				}),
				Action: r.CatalogBrowse,
			},
		},
	}
}

// customCommand handles custom movies on the mock REST API.
func customCommand(r *Runner) *cli.Command {
	movieFlags := []cli.Flag{
		&cli.StringFlag{Name: "overview", Usage: "Synopsis"},
		&cli.StringFlag{Name: "poster", Usage: "Poster image URL"},
		&cli.StringFlag{Name: "backdrop", Usage: "Backdrop image URL"},
		&cli.StringFlag{Name: "release-date", Usage: "Release date (YYYY-MM-DD)"},
		&cli.FloatFlag{Name: "rating", Usage: "Rating from 0 to 10"},
	}

	return &cli.Command{
		Name:  "custom",
		Usage: "Manage custom movies on the mock REST API",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List custom movies",
				Flags:   jsonFlags(),
				Action:  r.CustomList,
			},
			{
				Name:  "add",
				Usage: "Register a movie from a video URL",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Title", Required: true},
					&cli.StringFlag{Name: "url", Usage: "Video URL", Required: true},
					&cli.BoolFlag{Name: "watchlist", Aliases: []string{"w"}, Usage: "Also add it to the watchlist"},
				}, movieFlags...),
				Action: r.CustomAdd,
			},
			{
				Name:      "get",
				Usage:     "Show a custom movie",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     jsonFlags(),
				Action:    r.CustomGet,
			},
			{
				Name:      "update",
				Usage:     "Update a custom movie",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Title"},
					&cli.StringFlag{Name: "url", Usage: "Video URL"},
				}, movieFlags...),
				Action: r.CustomUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a custom movie",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.CustomDelete,
			},
			{
				Name:      "search",
				Usage:     "Search custom movies by title",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     jsonFlags(),
				Action:    r.CustomSearch,
			},
		},
	}
}

// notificationsCommand handles the notification feed.
func notificationsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "notifications",
		Aliases: []string{"notif"},
		Usage:   "Read and manage notifications",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List notifications, newest first",
				Flags:   jsonFlags(),
				Action:  r.NotificationsList,
			},
			{
				Name:   "read",
				Usage:  "Mark every notification read",
				Action: r.NotificationsRead,
			},
			{
				Name:   "clear",
				Usage:  "Remove every notification",
				Action: r.NotificationsClear,
			},
			{
				Name:   "trending",
				Usage:  "Check trending titles once and notify about new ones",
				Action: r.NotificationsTrending,
			},
			{
				Name:  "poll",
				Usage: "Check trending titles on an interval until interrupted",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "interval", Aliases: []string{"i"}, Usage: "Time between checks", Value: time.Hour},
				},
				Action: r.NotificationsPoll,
			},
		},
	}
}

// serveCommand runs the mock REST API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the mock REST API for custom movies and users",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to listen on (overrides config)"},
			&cli.StringFlag{Name: "db", Usage: "JSON database file (overrides config)"},
			&cli.IntFlag{Name: "delay", Usage: "Artificial response delay in milliseconds (overrides config)", Value: -1},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive watchlist browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive watchlist browser",
		Action:  r.TUI,
	}
}

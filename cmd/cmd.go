// submodule cmd contains command definitions
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunex/internal/formatter"
	"github.com/desertthunder/tunex/internal/shared"
	"github.com/urfave/cli/v3"
)

// App builds the root command.
func (r *Runner) App() *cli.Command {
	return &cli.Command{
		Name:    "tunex",
		Usage:   "Fetch Spotify playlists, albums and libraries with optional audio features",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("TUNEX_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "client-id",
				Usage:   "Spotify client ID (overrides config)",
				Sources: cli.EnvVars("SPOTIFY_CLIENT_ID"),
			},
			&cli.StringFlag{
				Name:    "client-secret",
				Usage:   "Spotify client secret (overrides config)",
				Sources: cli.EnvVars("SPOTIFY_CLIENT_SECRET"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log page fetches and other debug output",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log warnings and errors",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Abort the whole operation after this long (0 disables)",
			},
			&cli.BoolFlag{
				Name:  "reauth",
				Usage: "Ignore the cached refresh token and authorize again",
			},
		},
		Before:   r.before,
		Commands: r.register(),
	}
}

func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	switch {
	case cmd.Bool("verbose") && cmd.Bool("quiet"):
		return ctx, fmt.Errorf("%w: --verbose and --quiet are mutually exclusive", shared.ErrInvalidFlag)
	case cmd.Bool("verbose"):
		shared.SetLogLevel(r.logger, log.DebugLevel)
	case cmd.Bool("quiet"):
		shared.SetLogLevel(r.logger, log.WarnLevel)
	}
	return ctx, nil
}

// outputFlags are shared by every command that prints tracks.
func outputFlags() []cli.Flag {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}

	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "with-features",
			Aliases: []string{"f"},
			Usage:   "Attach audio features to each track",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format (" + strings.Join(names, ", ") + ")",
			Value: string(formatter.JSON),
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to this file instead of stdout",
		},
	}
}

// playlistCommand fetches one playlist
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "playlist",
		Usage:     "Fetch every track of a playlist",
		ArgsUsage: "<playlist-id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags:  outputFlags(),
		Action: r.Playlist,
	}
}

// albumCommand fetches one album
func albumCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "album",
		Usage:     "Fetch every track of an album",
		ArgsUsage: "<album-id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags:  outputFlags(),
		Action: r.Album,
	}
}

// searchCommand looks up a single track
func searchCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "title",
			Aliases:  []string{"t"},
			Usage:    "Track title",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "artist",
			Aliases: []string{"a"},
			Usage:   "Artist name",
		},
	}

	return &cli.Command{
		Name:   "search",
		Usage:  "Find the first track matching a title and artist",
		Flags:  append(flags, outputFlags()...),
		Action: r.Search,
	}
}

// libraryCommand reads the current user's library
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Fetch tracks from your library (requires authorization)",
		Commands: []*cli.Command{
			{
				Name:   "playlists",
				Usage:  "Every track of every playlist you own or follow",
				Flags:  outputFlags(),
				Action: r.LibraryPlaylists,
			},
			{
				Name:   "albums",
				Usage:  "Every track of every saved album",
				Flags:  outputFlags(),
				Action: r.LibraryAlbums,
			},
			{
				Name:    "liked",
				Aliases: []string{"tracks"},
				Usage:   "Your liked songs",
				Flags:   outputFlags(),
				Action:  r.LikedSongs,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize tunex in the browser and cache the refresh token",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show whether a refresh token is cached",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Remove the cached refresh token",
				Action: r.AuthLogout,
			},
		},
	}
}

// configCommand handles the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration file commands",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write a config.toml template",
				Action: r.ConfigInit,
			},
		},
	}
}

// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/purelyd/internal/formatter"
	"github.com/desertthunder/purelyd/internal/services"
	"github.com/urfave/cli/v3"
)

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func listingFlags() []cli.Flag {
	return append(outputFlags(),
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Export format when writing to a file (" + strings.Join(formatter.Formats, ", ") + ")",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (directory for markdown)",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of results to show, 0 for all",
		},
	)
}

// serveCommand starts the HTTP proxy
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP resolution proxy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
		},
		Before: r.setup,
		Action: r.Serve,
	}
}

// resolveCommand resolves a single stream
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Aliases:   []string{"stream"},
		Usage:     "Resolve a playable audio URL for a video ID or URL",
		ArgsUsage: "<video id|url>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: append(outputFlags(),
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the resolved URL in the system browser",
			},
			&cli.BoolFlag{
				Name:    "attempts",
				Aliases: []string{"a"},
				Usage:   "Show the attempt log on success too",
			},
		),
		Before: r.setup,
		Action: r.Resolve,
	}
}

// searchCommand runs a search listing
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search videos across federated frontends",
		ArgsUsage: "<query>",
		Flags:     listingFlags(),
		Before:    r.setup,
		Action:    r.Search,
	}
}

// playlistCommand lists a playlist
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "playlist",
		Aliases:   []string{"pl"},
		Usage:     "List the entries of a playlist",
		ArgsUsage: "<playlist id|url>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags:  listingFlags(),
		Before: r.setup,
		Action: r.Playlist,
	}
}

// trendingCommand lists trending videos
func trendingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "trending",
		Usage: "List trending videos for a region",
		Flags: append(listingFlags(),
			&cli.StringFlag{
				Name:    "region",
				Aliases: []string{"r"},
				Usage:   "Two-letter region code",
				Value:   "US",
			},
		),
		Before: r.setup,
		Action: r.Trending,
	}
}

// infoCommand looks up oEmbed metadata
func infoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Show title, author and thumbnail for a video via oEmbed",
		ArgsUsage: "<video id|url>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags:  outputFlags(),
		Before: r.setup,
		Action: r.Info,
	}
}

// prefetchCommand resolves every entry of a playlist
func prefetchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "prefetch",
		Usage:     "Resolve streams for every entry of a playlist and write a JSON manifest",
		ArgsUsage: "<playlist id|url>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Resolutions per second (overrides prefetch.rate_limit)",
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Manifest directory (overrides prefetch.output_dir)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries to resolve, 0 for all",
			},
		},
		Before: r.setup,
		Action: r.Prefetch,
	}
}

// configCommand manages the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration file operations",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write the default configuration to the --config path",
				Action: r.ConfigInit,
			},
			{
				Name:   "check",
				Usage:  "Validate the configuration and list enabled strategies",
				Before: r.setup,
				Action: r.ConfigCheck,
			},
		},
	}
}

// tuiCommand launches the interactive UI
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Search, pick and resolve interactively",
		Before: r.setupTUI,
		Action: r.TUI,
	}
}

// apiCommand makes raw calls against a running server
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to a running purelyd server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-url",
				Aliases: []string{"u"},
				Usage:   "Server base URL",
				Value:   services.DefaultAPIBaseURL,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "GET a path and print the JSON response",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Query parameter as key=value (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:   "health",
				Usage:  "Show server version and registered strategies",
				Action: r.APIHealth,
			},
		},
	}
}

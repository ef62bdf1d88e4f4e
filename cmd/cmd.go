// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pagetune/internal/auth"
	"github.com/desertthunder/pagetune/internal/server"
	"github.com/desertthunder/pagetune/internal/shared"
	"github.com/urfave/cli/v3"
)

// terminalReadyWait is short because the terminal runner has no embedded
// frame; readiness always resolves through the cache or device listing.
const terminalReadyWait = 2 * time.Second

// newAuthorizer builds the interactive consent facility for one-shot CLI
// flows: a short-lived callback server plus the system browser.
func newAuthorizer(config *shared.Config, logger *log.Logger) auth.Authorizer {
	return server.NewCallbackAuthorizer(config.Server.Host, config.Server.Port, logger)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playCommand, pauseCommand, nextCommand,
		previousCommand, devicesCommand, recommendCommand, contentCommand,
		serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// authCommand handles authentication with the streaming provider
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Spotify",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Run the OAuth authorization flow (PKCE)",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show current authentication state",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Clear stored credentials",
				Action: r.AuthLogout,
			},
		},
	}
}

// playCommand starts playback of specific tracks or the latest recommendations
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Play tracks on the active device",
		ArgsUsage: "[track-id...]",
		Action:    r.Play,
	}
}

func pauseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "pause",
		Usage:  "Pause playback",
		Action: r.Pause,
	}
}

func nextCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "next",
		Usage:  "Skip to the next track",
		Action: r.Next,
	}
}

func previousCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "previous",
		Aliases: []string{"prev"},
		Usage:   "Skip to the previous track",
		Action:  r.Previous,
	}
}

func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List available playback devices",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Devices,
	}
}

// recommendCommand runs the agent against the latest scraped content
func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"recs"},
		Usage:   "Generate music recommendations from the latest scraped page",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "play",
				Usage: "Start playback of the recommended tracks",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Recommend,
	}
}

// contentCommand manages the scraped-content store
func contentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "content",
		Usage: "Inspect and prune scraped page content",
		Commands: []*cli.Command{
			{
				Name:   "latest",
				Usage:  "Print the most recently scraped text",
				Action: r.ContentLatest,
			},
			{
				Name:   "list",
				Usage:  "List stored captures",
				Action: r.ContentList,
			},
			{
				Name:  "purge",
				Usage: "Delete captures older than a cutoff",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "hours",
						Usage: "Maximum age in hours",
						Value: 24,
					},
				},
				Action: r.ContentPurge,
			},
		},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the companion daemon for the browser extension",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Interactive terminal UI",
		Action: r.TUI,
	}
}

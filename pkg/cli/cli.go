// Package cli provides the command-line interface for replay-runner.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "backend",
		Aliases: []string{"b"},
		Usage:   "Automation backend to use (uia, mock)",
		Value:   "uia",
		EnvVars: []string{"REPLAY_BACKEND"},
	},
	&cli.StringFlag{
		Name:    "home",
		Usage:   "Workspace directory holding config.yaml, scripts and images",
		EnvVars: []string{"REPLAY_RUNNER_HOME"},
	},
	&cli.StringFlag{
		Name:  "window-title",
		Usage: "Target window title pattern (overrides config)",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"REPLAY_VERBOSE"},
	},
}

// Execute runs the CLI.
func Execute() {
	app := &cli.App{
		Name:    "replay-runner",
		Usage:   "Record and replay UI interaction tests",
		Version: Version,
		Description: `Replay Runner records desktop UI interactions into JSON scripts and
replays them deterministically, validating screenshots and control
properties along the way.

Examples:
  replay-runner record login.smoke.signin
  replay-runner play login.smoke.signin
  replay-runner play scripts/ --all
  replay-runner compare baseline.png candidate.png
  replay-runner validate scripts/`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			playCommand,
			recordCommand,
			compareCommand,
			validateCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

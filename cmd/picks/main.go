// picks - hardware sizing for video channel mixes
//
// Usage:
//
//	picks serve
//	picks estimate --sd 2 --hd 4 --protocol 3 --protocol 2
//	picks match --rm 28600
//	picks catalog models
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"picks-sizing/internal/config"
	sizingerrors "picks-sizing/pkg/errors"
	"picks-sizing/pkg/platform"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes
const (
	exitOK                 = 0
	exitFailure            = 1
	exitInvalidInput       = 10
	exitCatalogUnavailable = 11
)

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// env is the state shared by every command, set up in Before.
type env struct {
	cfg *config.Config
	log zerolog.Logger
}

func newApp(stdout, stderr io.Writer) *cli.App {
	e := &env{}

	return &cli.App{
		Name:      "picks",
		Usage:     "Resource estimation and hardware model matching for video channel mixes",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Writer:    stdout,
		ErrWriter: stderr,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"PICKS_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Human readable log output",
			},
		},

		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return sizingerrors.NewInvalidInputError("config", err.Error())
			}
			if c.IsSet("log-level") {
				cfg.Log.Level = c.String("log-level")
			}
			if c.IsSet("pretty") {
				cfg.Log.Pretty = c.Bool("pretty")
			}
			e.cfg = cfg
			e.log = platform.InitLogger(cfg.Log.Level, cfg.Log.Pretty, c.App.ErrWriter)
			return nil
		},

		Commands: []*cli.Command{
			serveCommand(e),
			estimateCommand(e),
			matchCommand(e),
			exactCommand(e),
			catalogCommand(e),
			migrateCommand(e),
			historyCommand(e),
		},
	}
}

// exitCode maps an error onto the process exit status.
func exitCode(err error) int {
	var exitErr cli.ExitCoder
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, sizingerrors.ErrInvalidInput):
		return exitInvalidInput
	case errors.Is(err, sizingerrors.ErrCatalogUnavailable):
		return exitCatalogUnavailable
	case errors.As(err, &exitErr):
		return exitErr.ExitCode()
	default:
		return exitFailure
	}
}

package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"picks-sizing/api"
	"picks-sizing/db/clickhouse"
	"picks-sizing/internal/catalog"
	"picks-sizing/internal/sizing"
	sizingerrors "picks-sizing/pkg/errors"
)

// =============================================================================
// SERVE COMMAND
// =============================================================================

func serveCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides server.port)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("port") {
				e.cfg.Server.Port = c.Int("port")
			}

			b, err := openBackend(e.cfg, e.log)
			if err != nil {
				return err
			}
			defer b.Close()

			deps := api.Deps{
				Sizing: b.service(e.cfg, e.log),
				Admin:  b.admin,
				Logger: &e.log,
			}
			if b.segments != nil {
				deps.Segments = b.segments
			}
			if b.reference != nil {
				deps.Reference = b.reference
			}
			if b.configs != nil {
				deps.Configurations = b.configs
			}
			if b.history != nil {
				deps.History = b.history
			}

			srv := api.NewServer(deps, &api.Config{
				Port:           e.cfg.Server.Port,
				ReadTimeout:    e.cfg.Server.ReadTimeout,
				WriteTimeout:   e.cfg.Server.WriteTimeout,
				RequestTimeout: e.cfg.Server.RequestTimeout,
				MaxRequestSize: e.cfg.Server.MaxRequestSize,
				CORSOrigins:    e.cfg.Server.CORSOrigins,
				APIKey:         e.cfg.Server.APIKey,
			})
			return srv.StartWithGracefulShutdown()
		},
	}
}

// =============================================================================
// ESTIMATE COMMAND
// =============================================================================

func estimateCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "estimate",
		Usage: "Estimate resources for a channel mix and recommend a model",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "sd", Usage: "SD encoder channels"},
			&cli.IntFlag{Name: "hd", Usage: "HD encoder channels"},
			&cli.IntFlag{Name: "fhd", Usage: "FHD encoder channels"},
			&cli.IntFlag{Name: "uhd", Usage: "4k encoder channels"},
			&cli.IntFlag{Name: "passthrough", Usage: "Passthrough channels"},
			&cli.IntFlag{Name: "decoder", Usage: "Decoder channels"},
			&cli.IntSliceFlag{
				Name:  "protocol",
				Usage: "Protocol quantity, repeat once per protocol entry",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format (table, json)",
			},
		},
		Action: func(c *cli.Context) error {
			mix := sizing.ChannelMix{
				SD:          c.Int("sd"),
				HD:          c.Int("hd"),
				FHD:         c.Int("fhd"),
				UHD:         c.Int("uhd"),
				Passthrough: c.Int("passthrough"),
				Decoder:     c.Int("decoder"),
			}
			for _, q := range c.IntSlice("protocol") {
				mix.Protocols = append(mix.Protocols, sizing.ProtocolEntry{Quantity: q})
			}
			if err := mix.Validate(); err != nil {
				return err
			}
			format, err := outputFormat(c)
			if err != nil {
				return err
			}

			b, err := openBackend(e.cfg, e.log)
			if err != nil {
				return err
			}
			defer b.Close()

			ctx, cancel := commandContext()
			defer cancel()

			report, err := b.service(e.cfg, e.log).EstimateAndMatch(ctx, mix)
			if err != nil {
				return err
			}
			if b.history != nil {
				if err := b.history.Record(ctx, clickhouse.NewEntry(report)); err != nil {
					e.log.Warn().Err(err).Msg("failed to record estimate")
				}
			}

			if format == "json" {
				return writeJSON(c.App.Writer, report.Response())
			}
			writeReport(c.App.Writer, report)
			return nil
		},
	}
}

// =============================================================================
// MATCH COMMANDS
// =============================================================================

func matchCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "match",
		Usage: "Find the smallest model whose capacity covers an RM demand",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "rm", Usage: "Demand in RM", Required: true},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "table", Usage: "Output format (table, json)"},
		},
		Action: func(c *cli.Context) error {
			format, err := outputFormat(c)
			if err != nil {
				return err
			}
			b, err := openBackend(e.cfg, e.log)
			if err != nil {
				return err
			}
			defer b.Close()

			ctx, cancel := commandContext()
			defer cancel()

			match, err := b.service(e.cfg, e.log).MatchCapacity(ctx, c.Float64("rm"))
			if err != nil {
				return err
			}
			if format == "json" {
				return writeJSON(c.App.Writer, match.ClosestResponse())
			}
			writeMatch(c.App.Writer, match)
			return nil
		},
	}
}

func exactCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "exact",
		Usage: "Find a model rated at exactly an RM value",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "rm", Usage: "Capacity in RM", Required: true},
		},
		Action: func(c *cli.Context) error {
			b, err := openBackend(e.cfg, e.log)
			if err != nil {
				return err
			}
			defer b.Close()

			ctx, cancel := commandContext()
			defer cancel()

			hm, err := b.service(e.cfg, e.log).ExactMatch(ctx, c.Float64("rm"))
			if err != nil {
				return err
			}
			if hm == nil {
				fmt.Fprintln(c.App.Writer, sizing.NoMatchingModel)
				return nil
			}
			writeModels(c.App.Writer, []catalog.HardwareModel{*hm})
			return nil
		},
	}
}

// =============================================================================
// CATALOG COMMAND
// =============================================================================

func catalogCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Inspect the configured catalog",
		Subcommands: []*cli.Command{
			{
				Name:  "models",
				Usage: "List hardware models by capacity",
				Action: func(c *cli.Context) error {
					b, err := openBackend(e.cfg, e.log)
					if err != nil {
						return err
					}
					defer b.Close()

					ctx, cancel := commandContext()
					defer cancel()

					models, err := b.reader.Models(ctx)
					if err != nil {
						return err
					}
					writeModels(c.App.Writer, models)
					return nil
				},
			},
			{
				Name:  "profiles",
				Usage: "List the unit resource profiles of the six product types",
				Action: func(c *cli.Context) error {
					b, err := openBackend(e.cfg, e.log)
					if err != nil {
						return err
					}
					defer b.Close()

					ctx, cancel := commandContext()
					defer cancel()

					profiles, err := b.reader.Profiles(ctx, catalog.ProductTypes())
					if err != nil {
						return err
					}
					writeProfiles(c.App.Writer, profiles)
					return nil
				},
			},
		},
	}
}

// =============================================================================
// MIGRATE & HISTORY COMMANDS
// =============================================================================

func migrateCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the Postgres and ClickHouse schemas",
		Action: func(c *cli.Context) error {
			b, err := openBackend(e.cfg, e.log)
			if err != nil {
				return err
			}
			defer b.Close()

			ctx, cancel := commandContext()
			defer cancel()

			n, err := b.migrate(ctx)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(c.App.Writer, "nothing to migrate: no database backend configured")
				return nil
			}
			fmt.Fprintf(c.App.Writer, "migrated %d store(s)\n", n)
			return nil
		},
	}
}

func historyCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent estimates from ClickHouse",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Number of estimates"},
		},
		Action: func(c *cli.Context) error {
			if !e.cfg.ClickHouse.Enabled {
				return sizingerrors.NewInvalidInputError("clickhouse.enabled", "estimate history is not enabled")
			}
			b, err := openBackend(e.cfg, e.log)
			if err != nil {
				return err
			}
			defer b.Close()

			ctx, cancel := commandContext()
			defer cancel()

			entries, err := b.history.Recent(ctx, c.Int("limit"))
			if err != nil {
				return err
			}
			writeHistory(c.App.Writer, entries)
			return nil
		},
	}
}

func outputFormat(c *cli.Context) (string, error) {
	switch f := c.String("format"); f {
	case "table", "json":
		return f, nil
	default:
		return "", sizingerrors.NewInvalidInputError("format", fmt.Sprintf("unknown format %q", f))
	}
}

package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"picks-sizing/api"
	"picks-sizing/db/clickhouse"
	"picks-sizing/db/postgres"
	"picks-sizing/internal/catalog"
	"picks-sizing/internal/config"
	"picks-sizing/internal/sizing"
	sizingerrors "picks-sizing/pkg/errors"
)

// backend is the set of stores selected by the configuration.
type backend struct {
	reader    catalog.Reader
	admin     catalog.Admin
	segments  api.SegmentStore
	reference api.ReferenceStore
	configs   api.ConfigurationStore
	postgres  *postgres.Store
	history   *clickhouse.Store
}

// openBackend connects the configured catalog backend and, when enabled,
// the ClickHouse history store.
func openBackend(cfg *config.Config, logger zerolog.Logger) (*backend, error) {
	b := &backend{}

	switch cfg.Catalog.Backend {
	case config.BackendPostgres:
		store, err := postgres.Open(cfg.Catalog.PostgresDSN)
		if err != nil {
			return nil, sizingerrors.NewCatalogUnavailableError("open postgres", err)
		}
		b.postgres = store
		b.reader = store
		b.admin = store
		b.segments = store
		b.reference = store
		b.configs = store

	case config.BackendRemote:
		b.reader = catalog.NewRemote(catalog.RemoteConfig{
			BaseURL: cfg.Catalog.RemoteURL,
			Retries: cfg.Catalog.RemoteRetries,
			Timeout: cfg.Catalog.RemoteTimeout,
		}, logger)

	default:
		var mem *catalog.Memory
		if cfg.Catalog.SeedFile != "" {
			var err error
			mem, err = catalog.NewMemoryFromSeed(cfg.Catalog.SeedFile)
			if err != nil {
				return nil, sizingerrors.NewCatalogUnavailableError("load seed", err)
			}
		} else {
			logger.Warn().Msg("no catalog seed file configured, starting with an empty catalog")
			mem = catalog.NewMemory(nil, nil)
		}
		b.reader = mem
		b.admin = mem
	}

	if cfg.ClickHouse.Enabled {
		store, err := clickhouse.NewStore(&clickhouse.Config{
			Host:     cfg.ClickHouse.Host,
			Port:     cfg.ClickHouse.Port,
			Database: cfg.ClickHouse.Database,
			Username: cfg.ClickHouse.Username,
			Password: cfg.ClickHouse.Password,
			Debug:    cfg.ClickHouse.Debug,
		})
		if err != nil {
			b.Close()
			return nil, err
		}
		b.history = store
	}

	logger.Debug().
		Str("catalog", cfg.Catalog.Backend).
		Bool("history", b.history != nil).
		Msg("backend ready")
	return b, nil
}

// service builds the sizing service over the catalog reader.
func (b *backend) service(cfg *config.Config, logger zerolog.Logger) *sizing.Service {
	return sizing.NewService(b.reader,
		sizing.WithLogger(logger),
		sizing.WithMatchRule(sizing.MatchRule(cfg.Sizing.MatchRule)),
	)
}

// migrate creates the postgres and clickhouse schemas of the enabled stores.
func (b *backend) migrate(ctx context.Context) (int, error) {
	n := 0
	if b.postgres != nil {
		if err := b.postgres.Migrate(ctx); err != nil {
			return n, err
		}
		n++
	}
	if b.history != nil {
		if err := b.history.Migrate(ctx); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (b *backend) Close() {
	if b.postgres != nil {
		b.postgres.Close()
	}
	if b.history != nil {
		b.history.Close()
	}
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}

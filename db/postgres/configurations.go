package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"picks-sizing/pkg/api"
	sizingerrors "picks-sizing/pkg/errors"
)

const configurationColumns = `id, owner, hardware, application, model, part_code, teleport_type,
	channels, model_details, totals, network, storage, created_at, updated_at`

// CreateConfiguration saves a configuration for owner.
func (s *Store) CreateConfiguration(ctx context.Context, owner string, req api.ConfigurationRequest) (*api.Configuration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	doc, err := encodeConfiguration(req)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cfg := configurationFrom(uuid.NewString(), owner, req)
	query := `INSERT INTO picks_configuration
		(id, owner, hardware, application, model, part_code, teleport_type,
		 channels, model_details, totals, network, storage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`
	err = tx.QueryRowContext(ctx, query,
		cfg.ID, owner, req.Hardware, req.Application, req.Model, req.PartCode, req.TeleportType,
		doc.channels, doc.modelDetails, doc.totals, doc.network, doc.storage,
	).Scan(&cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create configuration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit configuration: %w", err)
	}
	return cfg, nil
}

// ListConfigurations returns owner's configurations, newest first.
func (s *Store) ListConfigurations(ctx context.Context, owner string) ([]api.Configuration, error) {
	query := `SELECT ` + configurationColumns + ` FROM picks_configuration
		WHERE owner = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list configurations: %w", err)
	}
	defer rows.Close()

	out := []api.Configuration{}
	for rows.Next() {
		cfg, err := scanConfiguration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cfg)
	}
	return out, rows.Err()
}

// GetConfiguration returns one of owner's configurations.
// Another user's configuration is reported as not found.
func (s *Store) GetConfiguration(ctx context.Context, owner, id string) (*api.Configuration, error) {
	query := `SELECT ` + configurationColumns + ` FROM picks_configuration WHERE id = $1 AND owner = $2`
	cfg, err := scanConfiguration(s.db.QueryRowContext(ctx, query, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sizingerrors.NewNotFoundError("configuration", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}
	return cfg, nil
}

// UpdateConfiguration replaces one of owner's configurations.
func (s *Store) UpdateConfiguration(ctx context.Context, owner, id string, req api.ConfigurationRequest) (*api.Configuration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	doc, err := encodeConfiguration(req)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cfg := configurationFrom(id, owner, req)
	query := `UPDATE picks_configuration
		SET hardware = $3, application = $4, model = $5, part_code = $6, teleport_type = $7,
		    channels = $8, model_details = $9, totals = $10, network = $11, storage = $12,
		    updated_at = now()
		WHERE id = $1 AND owner = $2
		RETURNING created_at, updated_at`
	err = tx.QueryRowContext(ctx, query,
		id, owner, req.Hardware, req.Application, req.Model, req.PartCode, req.TeleportType,
		doc.channels, doc.modelDetails, doc.totals, doc.network, doc.storage,
	).Scan(&cfg.CreatedAt, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sizingerrors.NewNotFoundError("configuration", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update configuration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit configuration: %w", err)
	}
	return cfg, nil
}

// DeleteConfiguration removes one of owner's configurations.
func (s *Store) DeleteConfiguration(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM picks_configuration WHERE id = $1 AND owner = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete configuration: %w", err)
	}
	return expectOne(res, "configuration", id)
}

// configurationDoc holds the JSONB columns of a configuration row.
// Optional columns are nil so they are written as SQL NULL.
type configurationDoc struct {
	channels     any
	modelDetails any
	totals       any
	network      any
	storage      any
}

func encodeConfiguration(req api.ConfigurationRequest) (configurationDoc, error) {
	var doc configurationDoc
	var err error
	if doc.channels, err = jsonb(req.Channels); err != nil {
		return doc, fmt.Errorf("failed to encode channels: %w", err)
	}
	if doc.totals, err = jsonb(req.Totals); err != nil {
		return doc, fmt.Errorf("failed to encode totals: %w", err)
	}
	if doc.network, err = jsonb(req.Network); err != nil {
		return doc, fmt.Errorf("failed to encode network: %w", err)
	}
	if req.ModelDetails != nil {
		if doc.modelDetails, err = jsonb(req.ModelDetails); err != nil {
			return doc, fmt.Errorf("failed to encode model details: %w", err)
		}
	}
	if req.Storage != nil && !req.SkipsStorage() {
		if doc.storage, err = jsonb(req.Storage); err != nil {
			return doc, fmt.Errorf("failed to encode storage: %w", err)
		}
	}
	return doc, nil
}

func jsonb(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func configurationFrom(id, owner string, req api.ConfigurationRequest) *api.Configuration {
	cfg := &api.Configuration{
		ID:           id,
		Owner:        owner,
		Hardware:     req.Hardware,
		Application:  req.Application,
		Model:        req.Model,
		PartCode:     req.PartCode,
		TeleportType: req.TeleportType,
		Channels:     req.Channels,
		ModelDetails: req.ModelDetails,
		Totals:       req.Totals,
		Network:      req.Network,
	}
	if !req.SkipsStorage() {
		cfg.Storage = req.Storage
	}
	return cfg
}

func scanConfiguration(row scanner) (*api.Configuration, error) {
	var (
		cfg                       api.Configuration
		channels, totals, network []byte
		modelDetails, storage     []byte
	)
	err := row.Scan(&cfg.ID, &cfg.Owner, &cfg.Hardware, &cfg.Application, &cfg.Model,
		&cfg.PartCode, &cfg.TeleportType,
		&channels, &modelDetails, &totals, &network, &storage,
		&cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(channels, &cfg.Channels); err != nil {
		return nil, fmt.Errorf("failed to decode channels: %w", err)
	}
	if err := json.Unmarshal(totals, &cfg.Totals); err != nil {
		return nil, fmt.Errorf("failed to decode totals: %w", err)
	}
	if err := json.Unmarshal(network, &cfg.Network); err != nil {
		return nil, fmt.Errorf("failed to decode network: %w", err)
	}
	if len(modelDetails) > 0 {
		cfg.ModelDetails = &api.ModelDetails{}
		if err := json.Unmarshal(modelDetails, cfg.ModelDetails); err != nil {
			return nil, fmt.Errorf("failed to decode model details: %w", err)
		}
	}
	if len(storage) > 0 {
		cfg.Storage = &api.Storage{}
		if err := json.Unmarshal(storage, cfg.Storage); err != nil {
			return nil, fmt.Errorf("failed to decode storage: %w", err)
		}
	}
	return &cfg, nil
}

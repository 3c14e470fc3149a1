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

// =============================================================================
// PARAMETERS
// =============================================================================

const parameterColumns = `id, frontend, backend, created_at, updated_at`

// ListParameters returns every parameter in insertion order.
func (s *Store) ListParameters(ctx context.Context) ([]api.Parameter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+parameterColumns+` FROM picks_parameter ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list parameters: %w", err)
	}
	defer rows.Close()

	out := []api.Parameter{}
	for rows.Next() {
		var p api.Parameter
		if err := rows.Scan(&p.ID, &p.Frontend, &p.Backend, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetParameter retrieves a parameter by ID
func (s *Store) GetParameter(ctx context.Context, id string) (*api.Parameter, error) {
	var p api.Parameter
	err := s.db.QueryRowContext(ctx, `SELECT `+parameterColumns+` FROM picks_parameter WHERE id = $1`, id).
		Scan(&p.ID, &p.Frontend, &p.Backend, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sizingerrors.NewNotFoundError("parameter", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parameter: %w", err)
	}
	return &p, nil
}

// CreateParameter inserts a parameter.
func (s *Store) CreateParameter(ctx context.Context, p api.Parameter) (*api.Parameter, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ID = uuid.NewString()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO picks_parameter (id, frontend, backend) VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		p.ID, p.Frontend, p.Backend,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create parameter: %w", err)
	}
	return &p, nil
}

// UpdateParameter replaces both sides of a parameter.
func (s *Store) UpdateParameter(ctx context.Context, id string, p api.Parameter) (*api.Parameter, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ID = id
	err := s.db.QueryRowContext(ctx,
		`UPDATE picks_parameter SET frontend = $2, backend = $3, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		id, p.Frontend, p.Backend,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sizingerrors.NewNotFoundError("parameter", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update parameter: %w", err)
	}
	return &p, nil
}

// UpdateParameterBackends sets the Backend value of each parameter in one
// transaction and returns how many rows changed. IDs that match no row are
// skipped; a malformed ID rejects the whole request.
func (s *Store) UpdateParameterBackends(ctx context.Context, u api.ParameterBulkUpdate) (int64, error) {
	if err := u.Validate(); err != nil {
		return 0, err
	}
	for id := range u.FormData {
		if _, err := uuid.Parse(id); err != nil {
			return 0, sizingerrors.NewInvalidInputError("formData", "Invalid ID format")
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE picks_parameter SET backend = $2, updated_at = now() WHERE id = $1`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare parameter update: %w", err)
	}
	defer stmt.Close()

	var updated int64
	for id, backend := range u.FormData {
		res, err := stmt.ExecContext(ctx, id, backend)
		if err != nil {
			return 0, fmt.Errorf("failed to update parameter %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read affected rows: %w", err)
		}
		updated += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit parameters: %w", err)
	}
	return updated, nil
}

// =============================================================================
// CHANNELS
// =============================================================================

const channelColumns = `id, type, secondary_type, ip_type, format, resolution, protocols,
	rm, memory, cpu, created_at, updated_at`

// ListChannels returns the channel catalog in insertion order.
func (s *Store) ListChannels(ctx context.Context) ([]api.Channel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+channelColumns+` FROM picks_channel ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	out := []api.Channel{}
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ch)
	}
	return out, rows.Err()
}

// CreateChannel inserts a channel, filling ladder defaults first.
func (s *Store) CreateChannel(ctx context.Context, ch api.Channel) (*api.Channel, error) {
	if err := ch.Validate(); err != nil {
		return nil, err
	}
	ch.ApplyDefaults()
	ch.ID = uuid.NewString()
	resolution, protocols, err := encodeChannel(ch)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO picks_channel
		(id, type, secondary_type, ip_type, format, resolution, protocols, rm, memory, cpu)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`
	err = s.db.QueryRowContext(ctx, query,
		ch.ID, ch.Type, ch.SecondaryType, ch.IPType, ch.Format, resolution, protocols,
		*ch.RM, *ch.Memory, *ch.CPU,
	).Scan(&ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	return &ch, nil
}

// UpdateChannel replaces a channel, filling ladder defaults first.
func (s *Store) UpdateChannel(ctx context.Context, id string, ch api.Channel) (*api.Channel, error) {
	if err := ch.Validate(); err != nil {
		return nil, err
	}
	ch.ApplyDefaults()
	ch.ID = id
	resolution, protocols, err := encodeChannel(ch)
	if err != nil {
		return nil, err
	}

	query := `UPDATE picks_channel
		SET type = $2, secondary_type = $3, ip_type = $4, format = $5, resolution = $6,
		    protocols = $7, rm = $8, memory = $9, cpu = $10, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`
	err = s.db.QueryRowContext(ctx, query,
		id, ch.Type, ch.SecondaryType, ch.IPType, ch.Format, resolution, protocols,
		*ch.RM, *ch.Memory, *ch.CPU,
	).Scan(&ch.CreatedAt, &ch.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sizingerrors.NewNotFoundError("channel", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update channel: %w", err)
	}
	return &ch, nil
}

func encodeChannel(ch api.Channel) (resolution, protocols any, err error) {
	if resolution, err = jsonb(ch.Resolution); err != nil {
		return nil, nil, fmt.Errorf("failed to encode resolution: %w", err)
	}
	if len(ch.Protocols) > 0 {
		if protocols, err = jsonb(ch.Protocols); err != nil {
			return nil, nil, fmt.Errorf("failed to encode protocols: %w", err)
		}
	}
	return resolution, protocols, nil
}

func scanChannel(row scanner) (*api.Channel, error) {
	var (
		ch                    api.Channel
		resolution, protocols []byte
		rm, memory, cpu       float64
	)
	err := row.Scan(&ch.ID, &ch.Type, &ch.SecondaryType, &ch.IPType, &ch.Format,
		&resolution, &protocols, &rm, &memory, &cpu, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ch.RM, ch.Memory, ch.CPU = &rm, &memory, &cpu

	if err := json.Unmarshal(resolution, &ch.Resolution); err != nil {
		return nil, fmt.Errorf("failed to decode resolution: %w", err)
	}
	if len(protocols) > 0 {
		if err := json.Unmarshal(protocols, &ch.Protocols); err != nil {
			return nil, fmt.Errorf("failed to decode protocols: %w", err)
		}
	}
	return &ch, nil
}

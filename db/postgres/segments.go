package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"picks-sizing/pkg/api"
	sizingerrors "picks-sizing/pkg/errors"
)

// ValidateSegment checks a segment write.
func ValidateSegment(seg api.Segment) error {
	if seg.Kind != api.SegmentHardware && seg.Kind != api.SegmentApplication {
		return sizingerrors.NewInvalidInputError("kind", "kind must be hardware or application")
	}
	name := strings.TrimSpace(seg.Name)
	if name == "" {
		return sizingerrors.NewInvalidInputError("name", "name is required")
	}
	if len(name) > 100 {
		return sizingerrors.NewInvalidInputError("name", "name must be at most 100 characters")
	}
	return nil
}

// ListSegments returns the segments of one kind, newest first.
func (s *Store) ListSegments(ctx context.Context, kind string) ([]api.Segment, error) {
	query := `SELECT id, kind, name, products, created_at, updated_at
		FROM picks_segment WHERE kind = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}
	defer rows.Close()

	segments := []api.Segment{}
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// GetSegment retrieves a segment by kind and ID
func (s *Store) GetSegment(ctx context.Context, kind, id string) (*api.Segment, error) {
	query := `SELECT id, kind, name, products, created_at, updated_at
		FROM picks_segment WHERE kind = $1 AND id = $2`
	seg, err := scanSegment(s.db.QueryRowContext(ctx, query, kind, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sizingerrors.NewNotFoundError(kind, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get segment: %w", err)
	}
	return &seg, nil
}

// CreateSegment inserts a segment. Names are unique per kind.
func (s *Store) CreateSegment(ctx context.Context, seg api.Segment) (*api.Segment, error) {
	if err := ValidateSegment(seg); err != nil {
		return nil, err
	}
	seg.ID = uuid.NewString()
	seg.Name = strings.TrimSpace(seg.Name)
	if seg.Products == nil {
		seg.Products = []string{}
	}

	query := `INSERT INTO picks_segment (id, kind, name, products)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query, seg.ID, seg.Kind, seg.Name, pq.Array(seg.Products)).
		Scan(&seg.CreatedAt, &seg.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, sizingerrors.NewConflictError(seg.Kind+" "+seg.Name, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create segment: %w", err)
	}
	return &seg, nil
}

// UpdateSegment renames a segment and replaces its products.
func (s *Store) UpdateSegment(ctx context.Context, id string, seg api.Segment) (*api.Segment, error) {
	if err := ValidateSegment(seg); err != nil {
		return nil, err
	}
	seg.ID = id
	seg.Name = strings.TrimSpace(seg.Name)
	if seg.Products == nil {
		seg.Products = []string{}
	}

	query := `UPDATE picks_segment SET name = $3, products = $4, updated_at = now()
		WHERE kind = $1 AND id = $2
		RETURNING created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query, seg.Kind, id, seg.Name, pq.Array(seg.Products)).
		Scan(&seg.CreatedAt, &seg.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, sizingerrors.NewNotFoundError(seg.Kind, id)
	case isUniqueViolation(err):
		return nil, sizingerrors.NewConflictError(seg.Kind+" "+seg.Name, err)
	case err != nil:
		return nil, fmt.Errorf("failed to update segment: %w", err)
	}
	return &seg, nil
}

// DeleteSegment removes a segment.
func (s *Store) DeleteSegment(ctx context.Context, kind, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM picks_segment WHERE kind = $1 AND id = $2`, kind, id)
	if err != nil {
		return fmt.Errorf("failed to delete segment: %w", err)
	}
	return expectOne(res, kind, id)
}

func scanSegment(row scanner) (api.Segment, error) {
	var seg api.Segment
	var products pq.StringArray
	err := row.Scan(&seg.ID, &seg.Kind, &seg.Name, &products, &seg.CreatedAt, &seg.UpdatedAt)
	seg.Products = []string(products)
	if seg.Products == nil {
		seg.Products = []string{}
	}
	return seg, err
}

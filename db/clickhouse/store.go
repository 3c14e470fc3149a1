// Package clickhouse stores the history of sizing estimates in ClickHouse.
// The table is append-only and read back newest first.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"picks-sizing/internal/sizing"
)

// Entry is one recorded estimate.
type Entry struct {
	ID                   uuid.UUID       `ch:"id" json:"id"`
	RecordedAt           time.Time       `ch:"recorded_at" json:"recordedAt"`
	MatchRule            string          `ch:"match_rule" json:"matchRule"`
	SD                   uint32          `ch:"sd" json:"sd"`
	HD                   uint32          `ch:"hd" json:"hd"`
	FHD                  uint32          `ch:"fhd" json:"fhd"`
	UHD                  uint32          `ch:"uhd" json:"uhd"`
	Passthrough          uint32          `ch:"passthrough" json:"passthrough"`
	Decoder              uint32          `ch:"decoder" json:"decoder"`
	Protocols            uint32          `ch:"protocols" json:"protocols"`
	TotalRM              decimal.Decimal `ch:"total_rm" json:"totalRM"`
	MemoryBeforeRounding decimal.Decimal `ch:"memory_before_rounding" json:"totalMemoryBeforeRounding"`
	MemoryAfterRounding  decimal.Decimal `ch:"memory_after_rounding" json:"totalMemoryAfterRounding"`
	TotalCPU             decimal.Decimal `ch:"total_cpu" json:"totalCPU"`
	Model                string          `ch:"model" json:"model"`
	OverflowModel        string          `ch:"overflow_model" json:"g4Model,omitempty"`
}

// NewEntry captures a report for recording.
func NewEntry(report *sizing.Report) Entry {
	mix := report.Mix
	e := Entry{
		ID:                   uuid.New(),
		RecordedAt:           time.Now().UTC(),
		MatchRule:            string(report.Rule),
		SD:                   uint32(mix.SD),
		HD:                   uint32(mix.HD),
		FHD:                  uint32(mix.FHD),
		UHD:                  uint32(mix.UHD),
		Passthrough:          uint32(mix.Passthrough),
		Decoder:              uint32(mix.Decoder),
		Protocols:            uint32(mix.TotalProtocols()),
		TotalRM:              decimal.NewFromFloat(report.Totals.TotalRM).Round(2),
		MemoryBeforeRounding: decimal.NewFromFloat(report.Totals.MemoryBeforeRounding).Round(6),
		MemoryAfterRounding:  decimal.NewFromFloat(report.Totals.MemoryAfterRounding).Round(2),
		TotalCPU:             decimal.NewFromFloat(report.Totals.TotalCPU).Round(2),
		Model:                sizing.NoMatchingModel,
	}
	if hm := report.BaseModel(); hm != nil {
		e.Model = hm.Model
	}
	if report.Match.Overflow != nil {
		e.OverflowModel = report.Match.Overflow.Model
	}
	return e
}

// Config holds ClickHouse connection configuration
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "picks",
		Username: "default",
	}
}

// Store records and lists estimates.
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewStore opens a connection pool. No round trip is made until first use.
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &Store{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS sizing_estimates (
	id                     UUID,
	recorded_at            DateTime64(3, 'UTC'),
	match_rule             LowCardinality(String),
	sd                     UInt32,
	hd                     UInt32,
	fhd                    UInt32,
	uhd                    UInt32,
	passthrough            UInt32,
	decoder                UInt32,
	protocols              UInt32,
	total_rm               Decimal(18, 2),
	memory_before_rounding Decimal(18, 6),
	memory_after_rounding  Decimal(18, 2),
	total_cpu              Decimal(18, 2),
	model                  String,
	overflow_model         String
) ENGINE = MergeTree
ORDER BY (recorded_at, id)
`

// Migrate creates the estimates table if needed.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate clickhouse schema: %w", err)
	}
	return nil
}

// Record appends one estimate.
func (s *Store) Record(ctx context.Context, e Entry) error {
	return s.RecordBatch(ctx, []Entry{e})
}

// RecordBatch appends estimates in a single batch.
func (s *Store) RecordBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO sizing_estimates (
			id, recorded_at, match_rule, sd, hd, fhd, uhd, passthrough, decoder, protocols,
			total_rm, memory_before_rounding, memory_after_rounding, total_cpu,
			model, overflow_model
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, e := range entries {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		if e.RecordedAt.IsZero() {
			e.RecordedAt = time.Now().UTC()
		}
		if err := batch.Append(
			e.ID, e.RecordedAt, e.MatchRule,
			e.SD, e.HD, e.FHD, e.UHD, e.Passthrough, e.Decoder, e.Protocols,
			e.TotalRM, e.MemoryBeforeRounding, e.MemoryAfterRounding, e.TotalCPU,
			e.Model, e.OverflowModel,
		); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}
	return batch.Send()
}

// Recent returns up to limit estimates, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, recorded_at, match_rule, sd, hd, fhd, uhd, passthrough, decoder, protocols,
		       total_rm, memory_before_rounding, memory_after_rounding, total_cpu,
		       model, overflow_model
		FROM sizing_estimates
		ORDER BY recorded_at DESC
		LIMIT ?
	`
	rows, err := s.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.RecordedAt, &e.MatchRule,
			&e.SD, &e.HD, &e.FHD, &e.UHD, &e.Passthrough, &e.Decoder, &e.Protocols,
			&e.TotalRM, &e.MemoryBeforeRounding, &e.MemoryAfterRounding, &e.TotalCPU,
			&e.Model, &e.OverflowModel,
		); err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

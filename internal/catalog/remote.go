package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	sizingerrors "picks-sizing/pkg/errors"
	"picks-sizing/pkg/platform"
	"picks-sizing/pkg/units"
)

// Remote reads the catalog from an upstream catalog service over HTTP.
type Remote struct {
	baseURL string
	client  *platform.HTTPClient
	log     zerolog.Logger
}

// RemoteConfig configures the upstream catalog client.
type RemoteConfig struct {
	BaseURL string
	Retries int
	Timeout time.Duration
}

// NewRemote creates a remote catalog reader.
func NewRemote(cfg RemoteConfig, logger zerolog.Logger) *Remote {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Remote{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  platform.NewHTTPClient(cfg.Retries, cfg.Timeout, logger),
		log:     logger.With().Str("component", "remote-catalog").Logger(),
	}
}

// Profiles fetches the unit table and keeps the requested product types.
func (r *Remote) Profiles(ctx context.Context, productTypes []string) ([]UnitResourceProfile, error) {
	var rows []remoteProfile
	if err := r.client.GetJSON(ctx, r.baseURL+"/api/calculate/tables", &rows); err != nil {
		return nil, sizingerrors.NewCatalogUnavailableError("profiles", err)
	}

	wanted := make(map[string]bool, len(productTypes))
	for _, t := range productTypes {
		wanted[t] = true
	}
	out := make([]UnitResourceProfile, 0, len(productTypes))
	for _, row := range rows {
		if !wanted[row.ProductType] {
			continue
		}
		out = append(out, row.toProfile(r.log))
	}
	return out, nil
}

// Models fetches the model catalog.
func (r *Remote) Models(ctx context.Context) ([]HardwareModel, error) {
	var rows []remoteModel
	if err := r.client.GetJSON(ctx, r.baseURL+"/api/calculate/models", &rows); err != nil {
		return nil, sizingerrors.NewCatalogUnavailableError("models", err)
	}
	out := make([]HardwareModel, len(rows))
	for i, row := range rows {
		out[i] = row.toModel()
	}
	SortByCapacity(out)
	return out, nil
}

// Ping checks the upstream answers the model listing.
func (r *Remote) Ping(ctx context.Context) error {
	var rows []json.RawMessage
	return r.client.GetJSON(ctx, r.baseURL+"/api/calculate/models", &rows)
}

// =============================================================================
// WIRE FORMAT
// =============================================================================

// looseString accepts a JSON string, number or null. The upstream store is
// loosely typed and the same field arrives as either.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", b)
		}
		*s = looseString(n.String())
	}
	return nil
}

type remoteProfile struct {
	ID          string      `json:"_id"`
	Model       string      `json:"Model"`
	ProductType string      `json:"Product Type"`
	Resolution  looseString `json:"Resolution"`
	Bitrate     looseString `json:"Bitrate"`
	Framerate   looseString `json:"Framerate"`
	RM          looseString `json:"RM"`
	MEM         looseString `json:"MEM"`
	CPU         looseString `json:"CPU"`
}

func (p remoteProfile) toProfile(logger zerolog.Logger) UnitResourceProfile {
	out := UnitResourceProfile{
		ID:          p.ID,
		Model:       p.Model,
		ProductType: p.ProductType,
		Resolution:  string(p.Resolution),
		MEM:         string(p.MEM),
		RM:          numberOrZero(logger, p.ProductType, "RM", string(p.RM)),
		CPU:         numberOrZero(logger, p.ProductType, "CPU", string(p.CPU)),
	}
	if v, ok := units.ParseCapacity(string(p.Bitrate)); ok {
		out.Bitrate = &v
	}
	if v, ok := units.ParseCapacity(string(p.Framerate)); ok {
		out.Framerate = &v
	}
	return out
}

func numberOrZero(logger zerolog.Logger, productType, field, raw string) float64 {
	if raw == "" {
		return 0
	}
	v, ok := units.ParseCapacity(raw)
	if !ok {
		logger.Warn().
			Str("code", sizingerrors.ErrCodeUnparsableValue).
			Str("product_type", productType).
			Str("field", field).
			Str("value", raw).
			Msg("unparsable catalog value, using 0")
		return 0
	}
	return v
}

type remoteModel struct {
	ID         string      `json:"_id"`
	Model      string      `json:"model"`
	PM         looseString `json:"pm"`
	G4PM       looseString `json:"g4_pm"`
	MaxSupport looseString `json:"max_support"`
	IP         looseString `json:"ip"`
	PCI        string      `json:"pci"`
	OneU       string      `json:"1u"`
	TwoU       string      `json:"2u"`
}

func (m remoteModel) toModel() HardwareModel {
	return HardwareModel{
		ID:         m.ID,
		Model:      m.Model,
		PM:         string(m.PM),
		G4PM:       string(m.G4PM),
		MaxSupport: string(m.MaxSupport),
		IP:         string(m.IP),
		PCI:        m.PCI,
		OneU:       ChassisFit(m.OneU),
		TwoU:       ChassisFit(m.TwoU),
	}
}

// Package sizing turns a channel mix into resource demand and matches that
// demand against the hardware model catalog.
package sizing

import (
	"github.com/rs/zerolog"

	"picks-sizing/internal/catalog"
	sizingerrors "picks-sizing/pkg/errors"
	"picks-sizing/pkg/units"
)

const (
	// RMMultiplier is the fixed contingency applied to the raw RM sum.
	RMMultiplier = 1.43
	// CPUMultiplier is applied to the raw CPU sum.
	CPUMultiplier = 1.5
	// MemoryRedundancy doubles the raw memory sum before rounding.
	MemoryRedundancy = 2.0
)

// ProtocolEntry is one requested streaming protocol.
type ProtocolEntry struct {
	Name     string `json:"name,omitempty"`
	Quantity int    `json:"quantity"`
}

// ChannelMix is the requested channel counts plus protocol entries.
type ChannelMix struct {
	SD          int             `json:"sd"`
	HD          int             `json:"hd"`
	FHD         int             `json:"fhd"`
	UHD         int             `json:"uhd"`
	Passthrough int             `json:"passthrough"`
	Decoder     int             `json:"decoder"`
	Protocols   []ProtocolEntry `json:"protocols"`
}

// Validate rejects negative counts and quantities. The aggregator itself
// never validates; callers run this before estimating.
func (m ChannelMix) Validate() error {
	counts := []struct {
		field string
		value int
	}{
		{"sd", m.SD}, {"hd", m.HD}, {"fhd", m.FHD}, {"uhd", m.UHD},
		{"passthrough", m.Passthrough}, {"decoder", m.Decoder},
	}
	for _, c := range counts {
		if c.value < 0 {
			return sizingerrors.NewInvalidInputError(c.field, "count must be a non-negative integer")
		}
	}
	for _, p := range m.Protocols {
		if p.Quantity < 0 {
			return sizingerrors.NewInvalidInputError("protocols.quantity", "quantity must be a non-negative integer")
		}
	}
	return nil
}

// Count returns the requested count for a product type.
func (m ChannelMix) Count(productType string) int {
	switch productType {
	case catalog.ProductEncoderSD:
		return m.SD
	case catalog.ProductEncoderHD:
		return m.HD
	case catalog.ProductEncoderFHD:
		return m.FHD
	case catalog.ProductEncoderUHD:
		return m.UHD
	case catalog.ProductPassthru:
		return m.Passthrough
	case catalog.ProductDecoder:
		return m.Decoder
	default:
		return 0
	}
}

// TotalProtocols sums every protocol quantity.
func (m ChannelMix) TotalProtocols() int {
	total := 0
	for _, p := range m.Protocols {
		total += p.Quantity
	}
	return total
}

// DemandTotals is the aggregate demand of a channel mix.
type DemandTotals struct {
	TotalRM              float64 `json:"total_rm"`
	MemoryBeforeRounding float64 `json:"memory_before_rounding_gb"`
	MemoryAfterRounding  float64 `json:"memory_after_rounding_gb"`
	TotalCPU             float64 `json:"total_cpu"`
}

// ProfileSet holds one profile per product type.
type ProfileSet map[string]catalog.UnitResourceProfile

// NewProfileSet indexes profiles by product type. The first row of each type wins.
func NewProfileSet(profiles []catalog.UnitResourceProfile) ProfileSet {
	set := make(ProfileSet, len(profiles))
	for _, p := range profiles {
		if _, seen := set[p.ProductType]; !seen {
			set[p.ProductType] = p
		}
	}
	return set
}

// ProtocolBonus is the flat RM added for the total protocol count.
func ProtocolBonus(totalProtocols int) float64 {
	switch {
	case totalProtocols >= 4 && totalProtocols <= 6:
		return 500
	case totalProtocols >= 7 && totalProtocols <= 9:
		return 1000
	default:
		return 0
	}
}

// Aggregator computes DemandTotals from a channel mix and unit profiles.
type Aggregator struct {
	log zerolog.Logger
}

func NewAggregator(logger zerolog.Logger) *Aggregator {
	return &Aggregator{log: logger}
}

// Estimate is a pure function of mix and profiles. A product type with no
// profile contributes nothing.
func (a *Aggregator) Estimate(mix ChannelMix, profiles ProfileSet) DemandTotals {
	var rawRM, rawMemory, rawCPU float64

	for _, productType := range catalog.ProductTypes() {
		p := profiles[productType] // zero profile when absent
		count := float64(mix.Count(productType))

		rawRM += count * p.RM
		rawMemory += count * a.parseMemory(productType, p.MEM)
		rawCPU += count * p.CPU
	}

	// Bonus is added after scaling
	totalRM := rawRM*RMMultiplier + ProtocolBonus(mix.TotalProtocols())

	originalGB := units.MBToGB(rawMemory * MemoryRedundancy)

	return DemandTotals{
		TotalRM:              totalRM,
		MemoryBeforeRounding: originalGB,
		MemoryAfterRounding:  units.RoundUpToSticks(originalGB),
		TotalCPU:             rawCPU * CPUMultiplier,
	}
}

func (a *Aggregator) parseMemory(productType, raw string) float64 {
	return ParseMemory(a.log, productType, raw)
}

// ParseMemory reads a catalog memory magnitude, logging and returning 0 when
// the value holds no number.
func ParseMemory(logger zerolog.Logger, productType, raw string) float64 {
	v, ok := units.ParseMagnitude(raw)
	if !ok {
		logger.Warn().
			Str("code", sizingerrors.ErrCodeUnparsableValue).
			Str("product_type", productType).
			Str("value", raw).
			Msg("Unable to parse memory")
		return 0
	}
	return v
}

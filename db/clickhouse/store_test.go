package clickhouse

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"picks-sizing/internal/catalog"
	"picks-sizing/internal/sizing"
)

func TestNewEntry(t *testing.T) {
	report := &sizing.Report{
		Mix: sizing.ChannelMix{
			SD: 2, UHD: 1,
			Protocols: []sizing.ProtocolEntry{{Name: "srt", Quantity: 3}, {Name: "rtmp", Quantity: 2}},
		},
		Totals: sizing.DemandTotals{
			TotalRM:              28.599999999999998,
			MemoryBeforeRounding: 16.0 / 1024,
			MemoryAfterRounding:  32,
			TotalCPU:             6,
		},
		Rule: sizing.MatchBestFit,
		Match: sizing.MatchResult{
			Found: true,
			Base:  &catalog.HardwareModel{Model: "PICKS-100"},
		},
	}

	e := NewEntry(report)
	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.False(t, e.RecordedAt.IsZero())
	assert.Equal(t, "best_fit", e.MatchRule)
	assert.Equal(t, uint32(2), e.SD)
	assert.Equal(t, uint32(1), e.UHD)
	assert.Equal(t, uint32(5), e.Protocols)
	assert.Equal(t, "28.6", e.TotalRM.String())
	assert.Equal(t, "0.015625", e.MemoryBeforeRounding.String())
	assert.Equal(t, "32", e.MemoryAfterRounding.String())
	assert.Equal(t, "PICKS-100", e.Model)
	assert.Empty(t, e.OverflowModel)
}

func TestNewEntryWithoutMatch(t *testing.T) {
	report := &sizing.Report{
		Rule: sizing.MatchBestFit,
		Match: sizing.MatchResult{
			OverflowSearched: true,
			Overflow:         &catalog.HardwareModel{Model: "PICKS-400 G4"},
		},
	}

	e := NewEntry(report)
	assert.Equal(t, sizing.NoMatchingModel, e.Model)
	assert.Equal(t, "PICKS-400 G4", e.OverflowModel)
}

func TestNewEntryExactRule(t *testing.T) {
	report := &sizing.Report{
		Rule:  sizing.MatchExact,
		Exact: &catalog.HardwareModel{Model: "PICKS-EXACT"},
	}
	assert.Equal(t, "PICKS-EXACT", NewEntry(report).Model)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "picks", cfg.Database)
	assert.Equal(t, 9000, cfg.Port)
}

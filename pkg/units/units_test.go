package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMagnitude(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   float64
		wantOK bool
	}{
		{"gigabytes with space", "16 GB", 16, true},
		{"megabytes no space", "512MB", 512, true},
		{"decimal", "1.5 GB", 1.5, true},
		{"plain number", "2048", 2048, true},
		{"range keeps leading number", "4-8 GB", 4, true},
		{"negative", "-2 GB", -2, true},
		{"leading dot", ".5GB", 0.5, true},
		{"empty is missing", "", 0, true},
		{"blank is missing", "   ", 0, true},
		{"no digits", "N/A", 0, false},
		{"only symbols", "--", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMagnitude(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseCapacity(t *testing.T) {
	v, ok := ParseCapacity("40000")
	assert.True(t, ok)
	assert.Equal(t, 40000.0, v)

	v, ok = ParseCapacity(" 28.6 ")
	assert.True(t, ok)
	assert.Equal(t, 28.6, v)

	for _, raw := range []string{"", "  ", "40k", "NaN", "Inf", "12 RM"} {
		_, ok := ParseCapacity(raw)
		assert.False(t, ok, "ParseCapacity(%q)", raw)
	}
}

func TestRoundUpToSticks(t *testing.T) {
	tests := []struct {
		gb   float64
		want float64
	}{
		{0, 0},
		{0.015625, 32}, // one stick, padded to a pair
		{16, 32},
		{17, 32},
		{32, 32},
		{33, 64},
		{48, 64},
		{64, 64},
	}
	for _, tt := range tests {
		got := RoundUpToSticks(tt.gb)
		assert.Equal(t, tt.want, got, "RoundUpToSticks(%v)", tt.gb)
		assert.GreaterOrEqual(t, got, tt.gb)
		assert.Zero(t, Sticks(got)%2, "odd stick count for %v", tt.gb)
	}
}

func TestMemoryConversions(t *testing.T) {
	assert.Equal(t, 1.0, MBToGB(1024))
	assert.Equal(t, 0.015625, MBToGB(16))
	assert.Equal(t, 2048.0, GBToMB(2))
	assert.Equal(t, 4, Sticks(64))
}

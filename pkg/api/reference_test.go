package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sizingerrors "picks-sizing/pkg/errors"
)

func ptr(v float64) *float64 { return &v }

func validChannel() Channel {
	return Channel{Type: "SDI", RM: ptr(10), Memory: ptr(512), CPU: ptr(2)}
}

func TestChannelValidate(t *testing.T) {
	require.NoError(t, validChannel().Validate())

	tests := []struct {
		name   string
		mutate func(*Channel)
		field  string
	}{
		{"unknown type", func(c *Channel) { c.Type = "VGA" }, "type"},
		{"unknown secondary type", func(c *Channel) { c.SecondaryType = "RTP" }, "secondaryType"},
		{"unknown ip type", func(c *Channel) { c.IPType = "HDMI" }, "ipType"},
		{"unknown format", func(c *Channel) { c.Format = "4:1:1" }, "format"},
		{"missing rm", func(c *Channel) { c.RM = nil }, "rm"},
		{"missing memory", func(c *Channel) { c.Memory = nil }, "memory"},
		{"missing cpu", func(c *Channel) { c.CPU = nil }, "cpu"},
		{"negative bitrate", func(c *Channel) { c.Resolution.HD = []ResolutionInstance{{Bitrate: -1}} }, "resolution.HD.bitrate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validChannel()
			tt.mutate(&c)
			err := c.Validate()
			require.ErrorIs(t, err, sizingerrors.ErrInvalidInput)
			var se *sizingerrors.SizingError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.field, se.Field)
		})
	}
}

func TestChannelZeroCostsAreValid(t *testing.T) {
	c := Channel{Type: "NDI", IPType: "RTP", RM: ptr(0), Memory: ptr(0), CPU: ptr(0)}
	assert.NoError(t, c.Validate())
}

func TestChannelApplyDefaults(t *testing.T) {
	c := validChannel()
	c.Resolution = ChannelResolutions{
		SD:  []ResolutionInstance{{}},
		HD:  []ResolutionInstance{{Bitrate: 8, Framerate: 50, Codec: "H265"}},
		FHD: []ResolutionInstance{{Framerate: 30}},
		UHD: []ResolutionInstance{{}, {Bitrate: 20}},
	}
	c.ApplyDefaults()

	assert.Equal(t, ResolutionInstance{Bitrate: 1.5, Framerate: 25, Codec: "H264"}, c.Resolution.SD[0])
	assert.Equal(t, ResolutionInstance{Bitrate: 8, Framerate: 50, Codec: "H265"}, c.Resolution.HD[0])
	assert.Equal(t, 6.0, c.Resolution.FHD[0].Bitrate)
	assert.Equal(t, 30.0, c.Resolution.FHD[0].Framerate)
	assert.Equal(t, 12.0, c.Resolution.UHD[0].Bitrate)
	assert.Equal(t, 20.0, c.Resolution.UHD[1].Bitrate)
}

func TestParameterValidate(t *testing.T) {
	assert.NoError(t, Parameter{Frontend: "Max bitrate", Backend: "max_bitrate"}.Validate())
	assert.ErrorIs(t, Parameter{Frontend: "Max bitrate"}.Validate(), sizingerrors.ErrInvalidInput)
	assert.ErrorIs(t, ParameterBulkUpdate{}.Validate(), sizingerrors.ErrInvalidInput)
	assert.NoError(t, ParameterBulkUpdate{FormData: map[string]string{}}.Validate())
}

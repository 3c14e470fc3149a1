package api

import (
	"time"

	sizingerrors "picks-sizing/pkg/errors"
)

// Parameter maps a label shown by the frontend to the value the backend uses.
type Parameter struct {
	ID        string    `json:"id"`
	Frontend  string    `json:"Frontend"`
	Backend   string    `json:"Backend"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate requires both sides of the mapping.
func (p Parameter) Validate() error {
	if p.Frontend == "" || p.Backend == "" {
		return sizingerrors.NewInvalidInputError("parameter", "Invalid data. Both Frontend and Backend are required.")
	}
	return nil
}

// ParameterBulkUpdate sets the Backend value of many parameters, keyed by ID.
type ParameterBulkUpdate struct {
	FormData map[string]string `json:"formData"`
}

// Validate rejects a request without form data.
func (u ParameterBulkUpdate) Validate() error {
	if u.FormData == nil {
		return sizingerrors.NewInvalidInputError("formData", "Invalid form data.")
	}
	return nil
}

// DefaultBitrates is the bitrate in Mbps given to a ladder entry without one.
var DefaultBitrates = map[string]float64{
	"SD":  1.5,
	"HD":  4,
	"FHD": 6,
	"UHD": 12,
}

const (
	DefaultFramerate = 25
	DefaultCodec     = "H264"
)

var (
	channelTypes = set("HDMI", "SDI", "IP Inputs", "SRT(PUSH/PULL)", "RTMP", "HLS", "UDP", "Fileout",
		"RTSP", "YoutubeLive", "Playlist", "SRT", "ONVIF", "NDI")
	ipTypes = set("SRT(PUSH/PULL)", "RTMP", "HLS", "UDP", "Fileout", "RTSP", "YoutubeLive", "Playlist",
		"SRT", "ONVIF", "NDI", "RTP")
	pixelFormats = set("4:2:0-I420", "4:2:2-Y42B", "4:2:2-UYVY", "4:2:2-YUY2", "4:2:2-RGB",
		"4:2:2-10LE", "4:4:4-10LE", "4:4:4-Alpha")
)

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// ResolutionInstance is one encoding ladder entry of a channel.
type ResolutionInstance struct {
	Bitrate         float64  `json:"bitrate"`
	Framerate       float64  `json:"framerate"`
	CustomFramerate *float64 `json:"customFramerate,omitempty"`
	Codec           string   `json:"codec"`
}

// ChannelResolutions groups ladder entries by resolution class.
type ChannelResolutions struct {
	SD  []ResolutionInstance `json:"SD"`
	HD  []ResolutionInstance `json:"HD"`
	FHD []ResolutionInstance `json:"FHD"`
	UHD []ResolutionInstance `json:"UHD"`
}

// Channel is a reference entry describing an input type and its unit cost.
type Channel struct {
	ID            string             `json:"id"`
	Type          string             `json:"type"`
	SecondaryType string             `json:"secondaryType,omitempty"`
	IPType        string             `json:"ipType,omitempty"`
	Resolution    ChannelResolutions `json:"resolution"`
	Protocols     map[string]string  `json:"protocols,omitempty"`
	RM            *float64           `json:"rm"`
	Memory        *float64           `json:"memory"`
	CPU           *float64           `json:"cpu"`
	Format        string             `json:"format,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// Validate checks the enumerated fields and the required unit costs.
func (c Channel) Validate() error {
	switch {
	case !channelTypes[c.Type]:
		return sizingerrors.NewInvalidInputError("type", "invalid channel type")
	case c.SecondaryType != "" && !channelTypes[c.SecondaryType]:
		return sizingerrors.NewInvalidInputError("secondaryType", "invalid secondary type")
	case c.IPType != "" && !ipTypes[c.IPType]:
		return sizingerrors.NewInvalidInputError("ipType", "invalid IP type")
	case c.Format != "" && !pixelFormats[c.Format]:
		return sizingerrors.NewInvalidInputError("format", "invalid pixel format")
	case c.RM == nil:
		return sizingerrors.NewInvalidInputError("rm", "rm is required")
	case c.Memory == nil:
		return sizingerrors.NewInvalidInputError("memory", "memory is required")
	case c.CPU == nil:
		return sizingerrors.NewInvalidInputError("cpu", "cpu is required")
	}
	for class, ladder := range c.Resolution.byClass() {
		for _, inst := range ladder {
			if inst.Bitrate < 0 {
				return sizingerrors.NewInvalidInputError("resolution."+class+".bitrate", "bitrate must not be negative")
			}
		}
	}
	return nil
}

// ApplyDefaults fills unset ladder fields. A zero bitrate takes the default
// of its resolution class.
func (c *Channel) ApplyDefaults() {
	for class, ladder := range c.Resolution.byClass() {
		for i := range ladder {
			if ladder[i].Bitrate == 0 {
				ladder[i].Bitrate = DefaultBitrates[class]
			}
			if ladder[i].Framerate == 0 {
				ladder[i].Framerate = DefaultFramerate
			}
			if ladder[i].Codec == "" {
				ladder[i].Codec = DefaultCodec
			}
		}
	}
}

func (r ChannelResolutions) byClass() map[string][]ResolutionInstance {
	return map[string][]ResolutionInstance{"SD": r.SD, "HD": r.HD, "FHD": r.FHD, "UHD": r.UHD}
}

// ChannelList is the list response of the channel catalog.
type ChannelList struct {
	Channels []Channel `json:"channels"`
}

// ChannelResponse acknowledges a channel write.
type ChannelResponse struct {
	Message string   `json:"message"`
	Channel *Channel `json:"channel"`
}

package api

import (
	"encoding/json"
	"time"

	sizingerrors "picks-sizing/pkg/errors"
)

// Segment groups products under a hardware or application heading.
type Segment struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"` // hardware | application
	Name      string    `json:"name"`
	Products  []string  `json:"products"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const (
	SegmentHardware    = "hardware"
	SegmentApplication = "application"
)

// ModelDetails is the hardware recommendation captured on a configuration.
type ModelDetails struct {
	Name    string  `json:"name"`
	G4Model string  `json:"g4Model,omitempty"`
	PM      float64 `json:"pm"`
	G4PM    float64 `json:"g4Pm,omitempty"`
	PCI     string  `json:"pci"`
}

// Totals are the demand totals captured on a configuration.
type Totals struct {
	RM     float64 `json:"rm"`
	Memory float64 `json:"memory"`
	CPU    float64 `json:"cpu"`
}

// Network describes the network ports of a configuration.
type Network struct {
	Ports      int `json:"ports"`
	Throughput int `json:"throughput"`
}

// Storage describes the storage of a configuration.
type Storage struct {
	Type     string `json:"type"` // HDD | SSD
	Capacity string `json:"capacity"`
}

// ConfigurationRequest is the body of create/update configuration calls.
type ConfigurationRequest struct {
	Hardware     string            `json:"hardware"`
	Application  string            `json:"application"`
	Model        string            `json:"model"`
	PartCode     string            `json:"partCode"`
	TeleportType string            `json:"teleportType,omitempty"`
	Channels     []json.RawMessage `json:"channels"`
	ModelDetails *ModelDetails     `json:"modelDetails,omitempty"`
	Totals       Totals            `json:"totals"`
	Network      Network           `json:"network"`
	Storage      *Storage          `json:"storage,omitempty"`
}

// SkipsStorage reports whether the configuration carries no storage: Teleport
// xport and inport deployments have none.
func (r ConfigurationRequest) SkipsStorage() bool {
	return r.Application == "Teleport" && (r.TeleportType == "xport" || r.TeleportType == "inport")
}

// Configuration is a saved sizing configuration owned by one user.
type Configuration struct {
	ID           string            `json:"id"`
	Owner        string            `json:"user"`
	Hardware     string            `json:"hardware"`
	Application  string            `json:"application"`
	Model        string            `json:"model,omitempty"`
	PartCode     string            `json:"partCode,omitempty"`
	TeleportType string            `json:"teleportType,omitempty"`
	Channels     []json.RawMessage `json:"channels"`
	ModelDetails *ModelDetails     `json:"modelDetails,omitempty"`
	Totals       Totals            `json:"totals"`
	Network      Network           `json:"network"`
	Storage      *Storage          `json:"storage,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// ConfigurationResponse acknowledges a configuration write.
type ConfigurationResponse struct {
	Message       string         `json:"message"`
	Configuration *Configuration `json:"configuration"`
	ConfigID      string         `json:"configId,omitempty"`
}

// Validate applies the configuration write rules.
func (r ConfigurationRequest) Validate() error {
	switch {
	case r.Hardware == "":
		return sizingerrors.NewInvalidInputError("hardware", "Hardware selection is required")
	case r.Application == "":
		return sizingerrors.NewInvalidInputError("application", "Application selection is required")
	case len(r.Channels) == 0:
		return sizingerrors.NewInvalidInputError("channels", "At least one channel is required")
	case r.PartCode == "":
		return sizingerrors.NewInvalidInputError("partCode", "Part code is required")
	}
	if r.SkipsStorage() {
		return nil
	}
	if r.Storage == nil || (r.Storage.Type != "HDD" && r.Storage.Type != "SSD") {
		return sizingerrors.NewInvalidInputError("storage.type", "Invalid storage type")
	}
	if r.Storage.Capacity == "" {
		return sizingerrors.NewInvalidInputError("storage.capacity", "Storage capacity is required")
	}
	return nil
}

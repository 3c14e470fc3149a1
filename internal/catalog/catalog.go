// Package catalog holds the reference data the sizing engine reads: per-channel
// unit resource profiles and the hardware model catalog.
package catalog

import (
	"context"
	"regexp"
	"sort"
	"strings"

	sizingerrors "picks-sizing/pkg/errors"
	"picks-sizing/pkg/units"
)

// Product types as stored in the catalog's "Product Type" column.
const (
	ProductEncoderSD  = "Encoder-SD"
	ProductEncoderHD  = "Encoder-HD"
	ProductEncoderFHD = "Encoder-FHD"
	ProductEncoderUHD = "Encoder-4k"
	ProductPassthru   = "Passthrough"
	ProductDecoder    = "Decoder"
)

// ProductTypes returns the six channel product types in aggregation order.
func ProductTypes() []string {
	return []string{
		ProductEncoderSD,
		ProductEncoderHD,
		ProductEncoderFHD,
		ProductEncoderUHD,
		ProductPassthru,
		ProductDecoder,
	}
}

// OverflowSuffix marks models of the overflow ("G4") family.
const OverflowSuffix = "G4"

// IsOverflowModel reports whether a model name belongs to the overflow family.
func IsOverflowModel(name string) bool {
	return strings.HasSuffix(strings.ToUpper(strings.TrimSpace(name)), OverflowSuffix)
}

// UnitResourceProfile is the fixed per-unit cost of one channel product type
type UnitResourceProfile struct {
	ID          string   `json:"id" yaml:"id"`
	Model       string   `json:"Model" yaml:"model"`
	ProductType string   `json:"Product Type" yaml:"product_type"`
	Resolution  string   `json:"Resolution,omitempty" yaml:"resolution"`
	Bitrate     *float64 `json:"Bitrate,omitempty" yaml:"bitrate"`
	Framerate   *float64 `json:"Framerate,omitempty" yaml:"framerate"`
	RM          float64  `json:"RM" yaml:"rm"`
	MEM         string   `json:"MEM" yaml:"mem"` // e.g. "16 GB"
	CPU         float64  `json:"CPU" yaml:"cpu"`
}

// Validate requires at least one populated field.
func (p UnitResourceProfile) Validate() error {
	if p.ProductType == "" && p.Model == "" && p.Resolution == "" && p.MEM == "" &&
		p.RM == 0 && p.CPU == 0 && p.Bitrate == nil && p.Framerate == nil {
		return sizingerrors.NewInvalidInputError("profile", "Please fill at least one field")
	}
	if p.RM < 0 {
		return sizingerrors.NewInvalidInputError("RM", "RM must not be negative")
	}
	if p.CPU < 0 {
		return sizingerrors.NewInvalidInputError("CPU", "CPU must not be negative")
	}
	return nil
}

// ChassisFit says whether a model fits a given chassis height.
type ChassisFit string

const (
	FitYes           ChassisFit = "Y"
	FitNotApplicable ChassisFit = "NA"
)

// Valid reports whether f is one of the two allowed values.
func (f ChassisFit) Valid() bool {
	return f == FitYes || f == FitNotApplicable
}

// HardwareModel is a sellable hardware configuration and its rated capacity.
// Capacities are kept as the strings the catalog stores; use Capacity and
// OverflowCapacity to read them as numbers.
type HardwareModel struct {
	ID         string     `json:"id" yaml:"id"`
	Model      string     `json:"model" yaml:"model"`
	PM         string     `json:"pm" yaml:"pm"`
	G4PM       string     `json:"g4_pm,omitempty" yaml:"g4_pm"`
	MaxSupport string     `json:"max_support,omitempty" yaml:"max_support"`
	IP         string     `json:"ip,omitempty" yaml:"ip"`
	PCI        string     `json:"pci" yaml:"pci"`
	OneU       ChassisFit `json:"1u" yaml:"1u"`
	TwoU       ChassisFit `json:"2u" yaml:"2u"`
}

// Capacity returns the numeric rated capacity.
func (m HardwareModel) Capacity() (float64, bool) {
	return units.ParseCapacity(m.PM)
}

// OverflowCapacity returns the numeric g4_pm, if present.
func (m HardwareModel) OverflowCapacity() (float64, bool) {
	return units.ParseCapacity(m.G4PM)
}

var digitsOnly = regexp.MustCompile(`^\d+$`)

// Validate enforces the catalog's write rules.
func (m HardwareModel) Validate() error {
	if strings.TrimSpace(m.Model) == "" {
		return sizingerrors.NewInvalidInputError("model", "model is required")
	}
	if !digitsOnly.MatchString(m.PM) {
		return sizingerrors.NewInvalidInputError("pm", "PM must be a numeric string")
	}
	if m.G4PM != "" {
		if _, ok := m.OverflowCapacity(); !ok {
			return sizingerrors.NewInvalidInputError("g4_pm", "g4_pm must be numeric")
		}
	}
	if strings.TrimSpace(m.PCI) == "" {
		return sizingerrors.NewInvalidInputError("pci", "pci is required")
	}
	if !m.OneU.Valid() {
		return sizingerrors.NewInvalidInputError("1u", "1u must be Y or NA")
	}
	if !m.TwoU.Valid() {
		return sizingerrors.NewInvalidInputError("2u", "2u must be Y or NA")
	}
	return nil
}

// ProfileReader returns the unit profiles for the given product types.
// Types with no catalog entry are simply absent from the result.
type ProfileReader interface {
	Profiles(ctx context.Context, productTypes []string) ([]UnitResourceProfile, error)
}

// ModelReader returns the full hardware model catalog.
type ModelReader interface {
	Models(ctx context.Context) ([]HardwareModel, error)
}

// Reader is the read-only catalog capability injected into the sizing engine.
type Reader interface {
	ProfileReader
	ModelReader
}

// Admin is the catalog write capability behind the admin routes.
type Admin interface {
	ListProfiles(ctx context.Context) ([]UnitResourceProfile, error)
	GetProfile(ctx context.Context, id string) (*UnitResourceProfile, error)
	CreateProfile(ctx context.Context, p UnitResourceProfile) (*UnitResourceProfile, error)
	UpdateProfile(ctx context.Context, id string, p UnitResourceProfile) (*UnitResourceProfile, error)
	DeleteProfile(ctx context.Context, id string) error

	ListModels(ctx context.Context) ([]HardwareModel, error)
	GetModel(ctx context.Context, id string) (*HardwareModel, error)
	CreateModel(ctx context.Context, hm HardwareModel) (*HardwareModel, error)
	UpdateModel(ctx context.Context, id string, hm HardwareModel) (*HardwareModel, error)
	DeleteModel(ctx context.Context, id string) error
}

// Pinger is implemented by backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SortByCapacity orders models by ascending numeric capacity. Models whose
// capacity does not parse keep their relative order after the rest.
func SortByCapacity(models []HardwareModel) {
	sort.SliceStable(models, func(i, j int) bool {
		ci, okI := models[i].Capacity()
		cj, okJ := models[j].Capacity()
		switch {
		case okI && okJ:
			return ci < cj
		case okI:
			return true
		default:
			return false
		}
	})
}

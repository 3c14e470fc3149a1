package sizing

import (
	"strconv"

	"github.com/rs/zerolog"

	"picks-sizing/internal/catalog"
	sizingerrors "picks-sizing/pkg/errors"
)

// OverflowThreshold is the demand above which the overflow family is searched.
const OverflowThreshold = 40000.0

// NoMatchingModel is the display name used when no base model covers the demand.
const NoMatchingModel = "No matching model found"

// MatchResult is the outcome of a capacity search.
//
// Found is false when no base-tier model covers the demand; Base is nil then.
// Overflow is nil unless the demand exceeded OverflowThreshold and an
// overflow model covered it.
type MatchResult struct {
	DemandRM float64 `json:"demand_rm"`

	Found        bool                   `json:"found"`
	Base         *catalog.HardwareModel `json:"base,omitempty"`
	BaseCapacity float64                `json:"base_capacity,omitempty"`

	OverflowSearched bool                   `json:"overflow_searched"`
	Overflow         *catalog.HardwareModel `json:"overflow,omitempty"`
	OverflowCapacity *float64               `json:"overflow_capacity,omitempty"`
}

// Matcher searches the model catalog for the least capacity that suffices.
type Matcher struct {
	log zerolog.Logger
}

func NewMatcher(logger zerolog.Logger) *Matcher {
	return &Matcher{log: logger}
}

// Match runs the base-tier search and, for demand above OverflowThreshold,
// the independent overflow-tier search.
func (m *Matcher) Match(demandRM float64, models []catalog.HardwareModel) MatchResult {
	result := MatchResult{DemandRM: demandRM}

	if base, capacity, ok := m.bestBase(demandRM, models); ok {
		result.Found = true
		result.Base = &base
		result.BaseCapacity = capacity
	}

	if demandRM > OverflowThreshold {
		result.OverflowSearched = true
		if overflow, effective, ok := m.bestOverflow(demandRM, models); ok {
			result.Overflow = &overflow
			result.OverflowCapacity = &effective
		}
	}
	return result
}

// bestBase picks the smallest pm >= demand outside the overflow family.
func (m *Matcher) bestBase(demandRM float64, models []catalog.HardwareModel) (catalog.HardwareModel, float64, bool) {
	var (
		best     catalog.HardwareModel
		bestCap  float64
		haveBest bool
	)
	for _, hm := range models {
		if catalog.IsOverflowModel(hm.Model) {
			continue
		}
		capacity, ok := hm.Capacity()
		if !ok {
			m.warnCapacity(hm, "pm", hm.PM)
			continue
		}
		if capacity < demandRM {
			continue
		}
		// strict comparison keeps the first of equal capacities
		if !haveBest || capacity < bestCap {
			best, bestCap, haveBest = hm, capacity, true
		}
	}
	return best, bestCap, haveBest
}

// bestOverflow picks, among overflow models whose pm or g4_pm covers the
// demand, the one with the smallest pm. A model without a numeric pm is
// ordered by its g4_pm instead.
func (m *Matcher) bestOverflow(demandRM float64, models []catalog.HardwareModel) (catalog.HardwareModel, float64, bool) {
	var (
		best      catalog.HardwareModel
		bestKey   float64
		effective float64
		haveBest  bool
	)
	for _, hm := range models {
		if !catalog.IsOverflowModel(hm.Model) {
			continue
		}
		pm, pmOK := hm.Capacity()
		if !pmOK {
			m.warnCapacity(hm, "pm", hm.PM)
		}
		g4, g4OK := hm.OverflowCapacity()
		if !g4OK && hm.G4PM != "" {
			m.warnCapacity(hm, "g4_pm", hm.G4PM)
		}

		covers := (pmOK && pm >= demandRM) || (g4OK && g4 >= demandRM)
		if !covers {
			continue
		}

		key := pm
		if !pmOK {
			key = g4
		}
		if !haveBest || key < bestKey {
			best, bestKey, haveBest = hm, key, true
			// g4_pm wins when set and non-zero, else pm
			if g4OK && g4 != 0 {
				effective = g4
			} else {
				effective = pm
			}
		}
	}
	return best, effective, haveBest
}

// Exact looks up a model whose stored pm text equals the shortest decimal
// rendering of demandRM. The text is compared as stored, so "0100" does not
// match a demand of 100. Catalog writes require pm to be all digits, so a
// fractional demand such as 28.6 never matches a validated model. This is a
// different rule from Match and the two generally disagree.
func (m *Matcher) Exact(demandRM float64, models []catalog.HardwareModel) (catalog.HardwareModel, bool) {
	want := strconv.FormatFloat(demandRM, 'f', -1, 64)
	for _, hm := range models {
		if hm.PM == want {
			return hm, true
		}
	}
	return catalog.HardwareModel{}, false
}

func (m *Matcher) warnCapacity(hm catalog.HardwareModel, field, value string) {
	m.log.Warn().
		Str("code", sizingerrors.ErrCodeUnparsableValue).
		Str("model", hm.Model).
		Str("field", field).
		Str("value", value).
		Msg("non-numeric capacity ignored")
}

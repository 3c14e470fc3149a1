package sizing

import (
	"context"
	"errors"
	"math"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"picks-sizing/internal/catalog"
	"picks-sizing/pkg/api"
	sizingerrors "picks-sizing/pkg/errors"
)

// MatchRule selects which lookup EstimateAndMatch reports.
type MatchRule string

const (
	// MatchBestFit picks the least capacity >= demand, with the overflow tier.
	MatchBestFit MatchRule = "best_fit"
	// MatchExact picks a model rated at exactly the demand.
	MatchExact MatchRule = "exact"
)

// Valid reports whether r is a known rule.
func (r MatchRule) Valid() bool {
	return r == MatchBestFit || r == MatchExact
}

// Service reads the injected catalog and runs the aggregator and matcher.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	catalog    catalog.Reader
	aggregator *Aggregator
	matcher    *Matcher
	rule       MatchRule
	log        zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for parse warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.log = logger }
}

// WithMatchRule sets the rule EstimateAndMatch reports.
func WithMatchRule(rule MatchRule) Option {
	return func(s *Service) { s.rule = rule }
}

// NewService creates a sizing service over a catalog reader.
func NewService(reader catalog.Reader, opts ...Option) *Service {
	s := &Service{
		catalog: reader,
		rule:    MatchBestFit,
		log:     log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "sizing").Logger()
	s.aggregator = NewAggregator(s.log)
	s.matcher = NewMatcher(s.log)
	return s
}

// Rule returns the configured match rule.
func (s *Service) Rule() MatchRule { return s.rule }

// Catalog returns the reader the service was built with.
func (s *Service) Catalog() catalog.Reader { return s.catalog }

// Estimate reads the six unit profiles and aggregates the mix.
func (s *Service) Estimate(ctx context.Context, mix ChannelMix) (DemandTotals, error) {
	profiles, err := s.catalog.Profiles(ctx, catalog.ProductTypes())
	if err != nil {
		return DemandTotals{}, catalogError("profiles", err)
	}
	return s.aggregator.Estimate(mix, NewProfileSet(profiles)), nil
}

// MatchCapacity runs the best-fit search over the model catalog.
func (s *Service) MatchCapacity(ctx context.Context, demandRM float64) (MatchResult, error) {
	models, err := s.catalog.Models(ctx)
	if err != nil {
		return MatchResult{}, catalogError("models", err)
	}
	return s.matcher.Match(demandRM, models), nil
}

// ExactMatch returns the model rated at exactly demandRM, or nil.
func (s *Service) ExactMatch(ctx context.Context, demandRM float64) (*catalog.HardwareModel, error) {
	models, err := s.catalog.Models(ctx)
	if err != nil {
		return nil, catalogError("models", err)
	}
	hm, ok := s.matcher.Exact(demandRM, models)
	if !ok {
		return nil, nil
	}
	return &hm, nil
}

// Report is the combined estimate and match for one request.
type Report struct {
	Mix    ChannelMix
	Totals DemandTotals
	Rule   MatchRule
	Match  MatchResult            // set for MatchBestFit
	Exact  *catalog.HardwareModel // set for MatchExact when found
}

// EstimateAndMatch aggregates the mix, then matches the resulting RM with the
// configured rule. Either both steps succeed or the call fails.
func (s *Service) EstimateAndMatch(ctx context.Context, mix ChannelMix) (*Report, error) {
	totals, err := s.Estimate(ctx, mix)
	if err != nil {
		return nil, err
	}
	report := &Report{Mix: mix, Totals: totals, Rule: s.rule}

	switch s.rule {
	case MatchExact:
		exact, err := s.ExactMatch(ctx, totals.TotalRM)
		if err != nil {
			return nil, err
		}
		report.Exact = exact
	default:
		match, err := s.MatchCapacity(ctx, totals.TotalRM)
		if err != nil {
			return nil, err
		}
		report.Match = match
	}
	return report, nil
}

// BaseModel returns the recommended model, whichever rule produced it.
func (r *Report) BaseModel() *catalog.HardwareModel {
	if r.Rule == MatchExact {
		return r.Exact
	}
	return r.Match.Base
}

// Response renders the report in the calculate response shape.
func (r *Report) Response() api.CalculateResponse {
	info := api.ModelInfo{
		ModelName: NoMatchingModel,
		MatchRule: string(r.Rule),
	}
	if hm := r.BaseModel(); hm != nil {
		info.ModelName = hm.Model
		info.PM = optional(hm.PM)
		info.MaxSupport = optional(hm.MaxSupport)
		info.IP = optional(hm.IP)
		info.PCI = optional(hm.PCI)
		info.U1 = optional(string(hm.OneU))
		info.U2 = optional(string(hm.TwoU))
	}
	if r.Match.Overflow != nil {
		info.G4Model = optional(r.Match.Overflow.Model)
		info.G4PM = r.Match.OverflowCapacity
	}

	return api.CalculateResponse{
		TotalRM:                   Fixed2(r.Totals.TotalRM),
		TotalMemoryBeforeRounding: Fixed2(r.Totals.MemoryBeforeRounding),
		TotalMemoryAfterRounding:  Fixed2(r.Totals.MemoryAfterRounding),
		TotalCPU:                  Fixed2(r.Totals.TotalCPU),
		ModelInfo:                 info,
	}
}

// ClosestResponse renders a match in the closest-model response shape.
func (m MatchResult) ClosestResponse() api.ClosestResponse {
	var out api.ClosestModel
	if m.Base != nil {
		out.Model = optional(m.Base.Model)
		out.PM = optional(m.Base.PM)
		out.PCI = optional(m.Base.PCI)
	}
	if m.Overflow != nil {
		out.G4Model = optional(m.Overflow.Model)
		out.G4PM = m.OverflowCapacity
	}
	return api.ClosestResponse{Model: out}
}

// exactExponent is low enough for NewFromFloatWithExponent to keep every
// binary digit of a float64.
const exactExponent = -1100

// Fixed2 renders v with exactly two decimals. Rounding works on the exact
// binary value of v, halves going away from zero, so 1.005 (stored just
// below) renders "1.00" while 0.125 renders "0.13".
func Fixed2(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return decimal.NewFromFloatWithExponent(v, exactExponent).StringFixed(2)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// catalogError makes sure every read failure surfaces as CatalogUnavailable,
// never as an empty catalog.
func catalogError(op string, err error) error {
	if errors.Is(err, sizingerrors.ErrCatalogUnavailable) {
		return err
	}
	return sizingerrors.NewCatalogUnavailableError(op, err)
}

// Package service translates simulation requests into core parameter
// types, runs the simulation with outcome validation and retry, and
// tracks polled job status.
package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"marketsynth/internal/chain"
	"marketsynth/internal/errors"
	"marketsynth/internal/models"
	"marketsynth/internal/pricing"
	"marketsynth/internal/sim"
	"marketsynth/internal/surface"
	"marketsynth/pkg/utils"
)

// maxAttempts bounds the outcome-validation retry loop. Each attempt
// derives a fresh seed so a failed draw is not repeated verbatim.
const maxAttempts = 3

// rangeBoundMaxDeviation is the maximum relative excursion from the
// initial price tolerated for a RANGE_BOUND request.
const rangeBoundMaxDeviation = 0.2

// Options carries the service-level defaults a request does not specify.
// SigmaAdjust enables EMA-anchored volatility perturbation when non-nil;
// it is off by default.
type Options struct {
	RiskFreeRate  float64
	Dt            float64
	IntradaySteps int
	BarInterval   time.Duration
	Jump          sim.JumpParams
	SigmaAdjust   *sim.SigmaAdjust
	Smile         surface.SmileParams
	Term          surface.TermParams
	SpreadFrac    float64
}

// DefaultOptions returns production defaults: daily bars on a 252-day
// trading calendar with 24 intraday sub-steps.
func DefaultOptions() Options {
	return Options{
		RiskFreeRate:  0.05,
		Dt:            1.0 / 252,
		IntradaySteps: 24,
		BarInterval:   24 * time.Hour,
		Jump:          sim.JumpParams{Intensity: 1.0, Mean: 0, Std: 0.2},
		Smile:         surface.SmileParams{Curvature: 0.5, Skew: -0.2},
		Term:          surface.TermParams{LongRun: 0.2, Reversion: 1.0},
		SpreadFrac:    0.01,
	}
}

// Result is a completed simulation: the ordered bar series plus the
// option chain when one was requested.
type Result struct {
	ID    string
	Bars  []models.Bar
	Chain *models.OptionChain
}

// Service orchestrates simulation runs.
type Service struct {
	opts    Options
	logger  zerolog.Logger
	tracker *Tracker
}

// New creates a service with the given defaults.
func New(opts Options, logger zerolog.Logger) *Service {
	return &Service{
		opts:    opts,
		logger:  logger,
		tracker: NewTracker(),
	}
}

// Tracker exposes the polled status boundary.
func (s *Service) Tracker() *Tracker {
	return s.tracker
}

// Run executes one simulation job. On any error the job is marked
// FAILED with the error message recorded and no partial results are
// returned.
func (s *Service) Run(ctx context.Context, id string, req models.SimulationRequest) (*Result, error) {
	s.tracker.Start(id)
	res, err := s.run(ctx, id, req)
	if err != nil {
		s.tracker.Fail(id, err)
		return nil, err
	}
	s.tracker.Complete(id)
	return res, nil
}

func (s *Service) run(ctx context.Context, id string, req models.SimulationRequest) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Seed == 0 {
		req.Seed = uint64(time.Now().UnixNano())
	}

	regimes, transitions, jump := s.presetFor(req.MarketType, req.Volatility)

	// The bar phase owns the first 90% of progress when a chain follows.
	barsShare := 1.0
	if req.IncludeOptions {
		barsShare = 0.9
	}
	start := time.Now().UTC().Truncate(24 * time.Hour)

	bars, err := utils.RetryWithResult(ctx, utils.RetryConfig{MaxAttempts: maxAttempts},
		func(attempt int) ([]models.Bar, error) {
			simulator, err := sim.NewPathSimulator(sim.Params{
				InitialPrice:  req.InitialValue,
				Regimes:       regimes,
				Transitions:   transitions,
				Periods:       req.PeriodCount,
				Dt:            s.opts.Dt,
				IntradaySteps: s.opts.IntradaySteps,
				Jump:          jump,
				SigmaAdjust:   s.opts.SigmaAdjust,
				Seed:          sim.DeriveSeed(req.Seed, attempt),
				Start:         start,
				BarInterval:   s.opts.BarInterval,
			},
				sim.WithLogger(s.logger),
				sim.WithProgress(func(done, total int) {
					s.tracker.SetProgress(id, float64(done)/float64(total)*barsShare)
				}),
			)
			if err != nil {
				return nil, err
			}
			bars, err := simulator.Simulate(ctx)
			if err != nil {
				return nil, err
			}
			if err := validateOutcome(bars, req.MarketType); err != nil {
				s.logger.Warn().Int("attempt", attempt+1).Err(err).
					Msg("simulated path failed market-type validation, retrying")
				return nil, err
			}
			return bars, nil
		})
	if err != nil {
		return nil, err
	}

	result := &Result{ID: id, Bars: bars}
	if req.IncludeOptions {
		last := bars[len(bars)-1]
		oc, err := s.generateChain(last, req)
		if err != nil {
			return nil, err
		}
		result.Chain = oc
	}

	s.logger.Info().
		Str("job_id", id).
		Str("market_type", string(req.MarketType)).
		Int("bars", len(result.Bars)).
		Bool("chain", result.Chain != nil).
		Msg("simulation completed")
	return result, nil
}

// generateChain builds the volatility surface over the request's grid
// and prices the full chain at the final underlying level.
func (s *Service) generateChain(last models.Bar, req models.SimulationRequest) (*models.OptionChain, error) {
	oc := req.OptionsConfig
	snap := chain.Snapshot{Timestamp: last.Timestamp, Price: last.Close}
	strikeSpec := chain.StrikeSpec{Count: oc.NumStrikes, RangePercent: oc.StrikeRangePercent}
	expirySpec := chain.ExpirySpec{Dates: []time.Time{last.Timestamp.AddDate(0, 0, oc.ExpiryDays)}}

	strikes := strikeSpec.Enumerate(snap.Price)
	expiries := expirySpec.Enumerate(snap.Timestamp)
	ttes := make([]float64, len(expiries))
	for i, e := range expiries {
		ttes[i] = chain.TTE(snap.Timestamp, e)
	}
	if len(strikes) == 0 || len(ttes) == 0 {
		return nil, errors.NewEmptyChainError("grid", "option grid enumeration yielded no entries")
	}

	surf, err := surface.Builder{
		BaseVol: req.Volatility,
		Spot:    snap.Price,
		Smile:   s.opts.Smile,
		Term:    s.opts.Term,
	}.Build(strikes, ttes)
	if err != nil {
		return nil, err
	}

	gen := &chain.Generator{
		Pricer:     pricing.NewAnalyticPricer(),
		Rate:       s.opts.RiskFreeRate,
		SpreadFrac: s.opts.SpreadFrac,
	}
	return gen.Generate(snap, strikeSpec, expirySpec, surf)
}

// RunScenarios runs count independent scenarios of the same request
// concurrently. Scenario i uses seed base+i, so results are reproducible
// regardless of scheduling. Results are returned in scenario order; the
// first error aborts the batch.
func (s *Service) RunScenarios(ctx context.Context, baseID string, req models.SimulationRequest, count int) ([]*Result, error) {
	if count < 1 {
		return nil, errors.NewValidationError("count", count, "must be at least 1")
	}
	if req.Seed == 0 {
		req.Seed = uint64(time.Now().UnixNano())
	}

	results := make([]*Result, count)
	errs := make([]error, count)
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := req
			r.Seed = sim.DeriveSeed(req.Seed, i)
			id := scenarioID(baseID, i)
			results[i], errs[i] = s.Run(ctx, id, r)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func scenarioID(base string, i int) string {
	return fmt.Sprintf("%s-%02d", base, i)
}

// validateRequest rejects invalid request combinations before any
// stochastic draw occurs.
func validateRequest(req models.SimulationRequest) error {
	if req.InitialValue <= 0 {
		return errors.NewValidationError("initial_value", req.InitialValue, "must be positive")
	}
	if req.Volatility <= 0 {
		return errors.NewValidationError("volatility", req.Volatility, "must be positive")
	}
	if req.PeriodCount < 1 {
		return errors.NewValidationError("period_count", req.PeriodCount, "must be at least 1")
	}
	switch req.MarketType {
	case models.MarketBullish, models.MarketBearish, models.MarketRangeBound,
		models.MarketVolatile, models.MarketRegimeSwitching:
	default:
		return errors.NewValidationError("market_type", string(req.MarketType), "unknown market type")
	}
	if req.IncludeOptions {
		oc := req.OptionsConfig
		if oc == nil {
			return errors.NewValidationError("options_config", nil, "required when include_options is set")
		}
		if oc.NumStrikes < 1 {
			return errors.NewValidationError("num_strikes", oc.NumStrikes, "must be at least 1")
		}
		if oc.StrikeRangePercent <= 0 {
			return errors.NewValidationError("strike_range_percent", oc.StrikeRangePercent, "must be positive")
		}
		if oc.ExpiryDays < 1 {
			return errors.NewValidationError("expiry_days", oc.ExpiryDays, "must be at least 1")
		}
	}
	return nil
}

// presetFor maps a market type onto regimes, a transition matrix and
// jump parameters.
func (s *Service) presetFor(mt models.MarketType, vol float64) ([]models.Regime, [][]float64, sim.JumpParams) {
	jump := s.opts.Jump
	switch mt {
	case models.MarketBullish:
		return []models.Regime{{Name: "Bullish", Drift: 0.10, Volatility: vol}},
			[][]float64{{1}}, jump
	case models.MarketBearish:
		return []models.Regime{{Name: "Bearish", Drift: -0.10, Volatility: vol}},
			[][]float64{{1}}, jump
	case models.MarketRangeBound:
		return []models.Regime{{Name: "RangeBound", Drift: 0, Volatility: vol}},
			[][]float64{{1}}, jump
	case models.MarketVolatile:
		jump.Intensity *= 3
		return []models.Regime{{Name: "Volatile", Drift: 0, Volatility: vol * 2}},
			[][]float64{{1}}, jump
	default: // REGIME_SWITCHING
		return []models.Regime{
				{Name: "Bullish", Drift: 0.08, Volatility: vol},
				{Name: "Bearish", Drift: -0.05, Volatility: vol * 5 / 3},
			},
			[][]float64{{0.9, 0.1}, {0.2, 0.8}}, jump
	}
}

// validateOutcome checks the generated series against the requested
// market type: no NaN/Inf anywhere, bullish paths end up, bearish paths
// end down, range-bound paths stay within 20% of the start.
func validateOutcome(bars []models.Bar, mt models.MarketType) error {
	if len(bars) == 0 {
		return errors.NewValidationError("bars", 0, "simulation produced no bars")
	}
	for _, b := range bars {
		for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.NewValidationError("bars", v, "non-finite price in series")
			}
		}
	}
	first, last := bars[0].Close, bars[len(bars)-1].Close
	totalReturn := last/first - 1
	switch mt {
	case models.MarketBullish:
		if totalReturn <= 0 {
			return errors.NewValidationError("total_return", totalReturn, "bullish path has non-positive return")
		}
	case models.MarketBearish:
		if totalReturn >= 0 {
			return errors.NewValidationError("total_return", totalReturn, "bearish path has non-negative return")
		}
	case models.MarketRangeBound:
		for _, b := range bars {
			if math.Abs(b.Close-first)/first > rangeBoundMaxDeviation {
				return errors.NewValidationError("deviation", math.Abs(b.Close-first)/first,
					"range-bound path deviates more than 20% from start")
			}
		}
	}
	return nil
}

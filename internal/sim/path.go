// Package sim implements the regime-switching jump-diffusion engine
// that produces intraday-consistent OHLC bars.
package sim

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"marketsynth/internal/errors"
	"marketsynth/internal/models"
)

// ProgressSink receives per-period progress events. It is an optional
// capability supplied by the caller; the simulator never blocks on it.
type ProgressSink func(done, total int)

// SigmaAdjust perturbs each period's volatility with small normal noise,
// switching to a larger draw when the previous close sits within
// Threshold (relative) of its EMA. Mirrors volatility clustering around
// a mean-reverted price without changing the diffusion itself.
type SigmaAdjust struct {
	Span      int     // EMA span in periods
	Weight    float64 // scale of the perturbation, e.g. 0.01
	Threshold float64 // relative distance to EMA that triggers the large draw
	LargeStd  float64 // std-dev of the large draw, e.g. 3
}

// Params describes one path simulation. All fields are read-only once
// the simulator is constructed.
type Params struct {
	InitialPrice  float64
	Regimes       []models.Regime
	Transitions   [][]float64
	Periods       int
	Dt            float64
	IntradaySteps int
	Jump          JumpParams
	Seed          uint64

	// Start stamps the initial bar; successive bars advance by
	// BarInterval (default 24h).
	Start       time.Time
	BarInterval time.Duration

	// SigmaAdjust enables EMA-anchored volatility perturbation when
	// non-nil. Off by default.
	SigmaAdjust *SigmaAdjust
}

// PathSimulator produces one OHLC bar per period by combining the
// regime chain, intraday geometric diffusion sub-steps and an optional
// end-of-period jump. A simulator is built for exactly one run; its
// cursor state is private to Simulate.
type PathSimulator struct {
	params Params
	chain  *RegimeChain
	jump   *JumpProcess
	logger zerolog.Logger
	sink   ProgressSink
}

// Option configures optional simulator capabilities.
type Option func(*PathSimulator)

// WithLogger attaches a logger for configuration warnings and run events.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *PathSimulator) { s.logger = logger }
}

// WithProgress attaches a progress sink polled once per completed period.
func WithProgress(sink ProgressSink) Option {
	return func(s *PathSimulator) { s.sink = sink }
}

// NewPathSimulator validates parameters and builds a simulator. It
// fails fast, before any stochastic draw, with a ValidationError for
// malformed simulation parameters or a ConfigurationError for malformed
// regimes or transition matrix.
func NewPathSimulator(params Params, opts ...Option) (*PathSimulator, error) {
	if params.InitialPrice <= 0 {
		return nil, errors.NewValidationError("initial_price", params.InitialPrice, "must be positive")
	}
	if params.Periods < 1 {
		return nil, errors.NewValidationError("periods", params.Periods, "must be at least 1")
	}
	if params.Dt <= 0 {
		return nil, errors.NewValidationError("dt", params.Dt, "must be positive")
	}
	if params.IntradaySteps < 1 {
		return nil, errors.NewValidationError("intraday_steps", params.IntradaySteps, "must be at least 1")
	}
	for _, r := range params.Regimes {
		if r.Volatility < 0 {
			return nil, errors.NewValidationError("volatility", r.Volatility,
				"regime "+r.Name+" has negative volatility")
		}
	}
	if params.Jump.Std < 0 {
		return nil, errors.NewValidationError("jump_std", params.Jump.Std, "must be non-negative")
	}
	if params.BarInterval <= 0 {
		params.BarInterval = 24 * time.Hour
	}

	matrix, err := NewTransitionMatrix(params.Transitions)
	if err != nil {
		return nil, err
	}
	chain, err := NewRegimeChain(params.Regimes, matrix)
	if err != nil {
		return nil, err
	}

	s := &PathSimulator{
		params: params,
		chain:  chain,
		jump:   NewJumpProcess(params.Jump, params.Dt),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.jump.Clamped() {
		s.logger.Warn().
			Float64("intensity", params.Jump.Intensity).
			Float64("dt", params.Dt).
			Msg("jump probability lambda*dt exceeds 1, clamped")
	}
	return s, nil
}

// Simulate runs the path and returns periods+1 bars: the initial flat
// bar at the starting price followed by one bar per period. The same
// seed always produces the same bars; draws are consumed in a fixed
// order (regime, optional sigma adjustment, intraday normals, jump
// uniform, jump size).
func (s *PathSimulator) Simulate(ctx context.Context) ([]models.Bar, error) {
	p := s.params
	rng := NewRand(p.Seed)

	bars := make([]models.Bar, 0, p.Periods+1)
	bars = append(bars, models.Bar{
		Timestamp: p.Start,
		Open:      p.InitialPrice,
		High:      p.InitialPrice,
		Low:       p.InitialPrice,
		Close:     p.InitialPrice,
		Regime:    p.Regimes[0].Name,
	})

	regime := 0
	price := p.InitialPrice
	ema := math.NaN()
	subDt := p.Dt / float64(p.IntradaySteps)

	for t := 1; t <= p.Periods; t++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "simulation aborted")
		}

		regime = s.chain.Next(regime, rng)
		r := s.chain.Regime(regime)
		muEff := r.Drift * (1 + r.Theta)
		sigma := r.Volatility
		if s.params.SigmaAdjust != nil {
			sigma = s.adjustSigma(sigma, price, ema, rng)
		}

		open := price
		high := price
		low := price
		for i := 0; i < p.IntradaySteps; i++ {
			z := rng.NormFloat64()
			price *= math.Exp((muEff-0.5*sigma*sigma)*subDt + sigma*math.Sqrt(subDt)*z)
			if price > high {
				high = price
			}
			if price < low {
				low = price
			}
		}

		// The jump applies to the pre-jump close; High/Low then fold the
		// post-jump close back in so the OHLC invariant holds even when
		// the jump leaves the intraday range.
		if mult, ok := s.jump.MaybeJump(rng); ok {
			price *= mult
		}
		close_ := price
		if close_ > high {
			high = close_
		}
		if close_ < low {
			low = close_
		}

		bars = append(bars, models.Bar{
			Timestamp: p.Start.Add(time.Duration(t) * p.BarInterval),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close_,
			Regime:    r.Name,
		})

		if s.params.SigmaAdjust != nil {
			ema = s.updateEMA(ema, close_)
		}
		if s.sink != nil {
			s.sink(t, p.Periods)
		}
	}

	s.logger.Debug().
		Int("bars", len(bars)).
		Float64("final_close", price).
		Msg("path simulation complete")
	return bars, nil
}

func (s *PathSimulator) adjustSigma(base, prevClose, ema float64, rng *rand.Rand) float64 {
	a := s.params.SigmaAdjust
	z := rng.NormFloat64()
	if !math.IsNaN(ema) && math.Abs(prevClose-ema)/prevClose < a.Threshold {
		z *= a.LargeStd
	}
	adjusted := base * (1 + a.Weight*z)
	if adjusted < 0 {
		adjusted = 0
	}
	return adjusted
}

func (s *PathSimulator) updateEMA(prev, close_ float64) float64 {
	a := s.params.SigmaAdjust
	if math.IsNaN(prev) {
		return close_
	}
	alpha := 2.0 / (float64(a.Span) + 1)
	return alpha*close_ + (1-alpha)*prev
}

// Package surface constructs implied-volatility surfaces from parametric
// shape rules: a smile in log-moneyness and a mean-reverting term
// structure. Surfaces are built from shape parameters, not fit to market
// quotes.
package surface

import (
	"math"

	"marketsynth/internal/errors"
)

// volFloor keeps every grid point strictly positive regardless of the
// shape parameters.
const volFloor = 1e-4

// SmileParams shapes implied volatility as a function of log-moneyness
// x = ln(K/S): a parabola 1 + Curvature*x^2 + Skew*x multiplying the
// term-structure volatility. Positive Curvature gives the usual convex
// smile; negative Skew tilts volatility up for low strikes.
type SmileParams struct {
	Curvature float64
	Skew      float64
}

// TermParams shapes volatility across time-to-expiry as mean reversion
// toward a long-run level: vol(T) = LongRun + (base - LongRun)*exp(-Reversion*T).
type TermParams struct {
	LongRun   float64
	Reversion float64
}

// Builder constructs surfaces. The smile and term effects combine
// MULTIPLICATIVELY: vol(K, T) = term(T) * smile(K). This policy is fixed,
// not per call.
type Builder struct {
	BaseVol float64
	Spot    float64
	Smile   SmileParams
	Term    TermParams
}

// Surface is an immutable implied-volatility grid over strike x expiry.
// Once built it is read-only and safe for concurrent readers.
type Surface struct {
	strikes  []float64
	expiries []float64
	vols     [][]float64 // [expiry][strike]
}

// Build evaluates the shape rules over the given grid. Strikes and
// expiries must be positive; the base volatility must be positive.
// Every output volatility is strictly positive.
func (b Builder) Build(strikes, expiries []float64) (*Surface, error) {
	if b.BaseVol <= 0 {
		return nil, errors.NewConfigurationErrorf("surface", "base volatility %g must be positive", b.BaseVol)
	}
	if b.Spot <= 0 {
		return nil, errors.NewConfigurationErrorf("surface", "spot %g must be positive", b.Spot)
	}
	if b.Term.LongRun < 0 {
		return nil, errors.NewConfigurationErrorf("surface", "long-run volatility %g must be non-negative", b.Term.LongRun)
	}
	if len(strikes) == 0 || len(expiries) == 0 {
		return nil, errors.NewConfigurationError("surface", "strike and expiry grids must be non-empty")
	}

	s := &Surface{
		strikes:  append([]float64(nil), strikes...),
		expiries: append([]float64(nil), expiries...),
		vols:     make([][]float64, len(expiries)),
	}
	for i, t := range expiries {
		if t <= 0 {
			return nil, errors.NewConfigurationErrorf("surface", "expiry %g must be positive", t)
		}
		row := make([]float64, len(strikes))
		termVol := b.Term.LongRun + (b.BaseVol-b.Term.LongRun)*math.Exp(-b.Term.Reversion*t)
		for j, k := range strikes {
			if k <= 0 {
				return nil, errors.NewConfigurationErrorf("surface", "strike %g must be positive", k)
			}
			x := math.Log(k / b.Spot)
			smile := 1 + b.Smile.Curvature*x*x + b.Smile.Skew*x
			v := termVol * smile
			if v < volFloor {
				v = volFloor
			}
			row[j] = v
		}
		s.vols[i] = row
	}
	return s, nil
}

// Vol returns the implied volatility at the exact grid point (strike,
// expiry), or false when the point is not on the grid.
func (s *Surface) Vol(strike, expiry float64) (float64, bool) {
	i := indexOf(s.expiries, expiry)
	if i < 0 {
		return 0, false
	}
	j := indexOf(s.strikes, strike)
	if j < 0 {
		return 0, false
	}
	return s.vols[i][j], true
}

// Strikes returns a copy of the strike grid.
func (s *Surface) Strikes() []float64 {
	return append([]float64(nil), s.strikes...)
}

// Expiries returns a copy of the expiry grid (years).
func (s *Surface) Expiries() []float64 {
	return append([]float64(nil), s.expiries...)
}

func indexOf(xs []float64, v float64) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

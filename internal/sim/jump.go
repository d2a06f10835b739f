package sim

import (
	"math"

	"golang.org/x/exp/rand"
)

// JumpParams parameterizes the jump event generator. Intensity is the
// annualized Poisson rate lambda; Mean and Std describe the log-normal
// jump-size draw in log space.
type JumpParams struct {
	Intensity float64
	Mean      float64
	Std       float64
}

// JumpProcess is a Bernoulli-thinned approximation of a Poisson jump
// process over one period of length dt: a jump occurs with probability
// lambda*dt. The thinning is only valid for lambda*dt <= 1; larger
// values are clamped and flagged rather than rejected, since the caller
// may legitimately supply a coarse dt. The process itself is
// direction-agnostic; directional bias comes from the caller via Mean.
type JumpProcess struct {
	prob    float64
	mean    float64
	std     float64
	clamped bool
}

// NewJumpProcess builds a jump process for one period length dt.
func NewJumpProcess(p JumpParams, dt float64) *JumpProcess {
	prob := p.Intensity * dt
	clamped := false
	if prob > 1 {
		prob = 1
		clamped = true
	}
	if prob < 0 {
		prob = 0
	}
	return &JumpProcess{
		prob:    prob,
		mean:    p.Mean,
		std:     p.Std,
		clamped: clamped,
	}
}

// Clamped reports whether lambda*dt exceeded 1 and was clamped. Callers
// surface this as a configuration warning, not a hard failure.
func (j *JumpProcess) Clamped() bool {
	return j.clamped
}

// MaybeJump draws one jump decision. When a jump occurs it returns the
// log-normal price multiplier exp(N(mean, std)) and true; otherwise it
// returns 1 and false. Exactly one uniform is consumed per call, plus
// one normal when a jump fires, so draw counts are deterministic for a
// given outcome sequence.
func (j *JumpProcess) MaybeJump(rng *rand.Rand) (float64, bool) {
	if rng.Float64() >= j.prob {
		return 1, false
	}
	return math.Exp(j.mean + j.std*rng.NormFloat64()), true
}

package sim

import (
	"math"

	"golang.org/x/exp/rand"

	"marketsynth/internal/errors"
	"marketsynth/internal/models"
)

// rowSumTolerance is the allowed deviation of a transition-matrix row
// sum from 1.0.
const rowSumTolerance = 1e-6

// TransitionMatrix is a row-stochastic matrix of regime-to-regime
// switching probabilities. Rows are validated once at construction and
// the matrix is immutable afterwards.
type TransitionMatrix struct {
	rows [][]float64
	cum  [][]float64
}

// NewTransitionMatrix validates and builds a transition matrix. Every
// row must sum to 1.0 within tolerance and every entry must lie in
// [0, 1]; violations return a ConfigurationError.
func NewTransitionMatrix(rows [][]float64) (*TransitionMatrix, error) {
	n := len(rows)
	if n == 0 {
		return nil, errors.NewConfigurationError("transition_matrix", "matrix has no rows")
	}

	m := &TransitionMatrix{
		rows: make([][]float64, n),
		cum:  make([][]float64, n),
	}
	for i, row := range rows {
		if len(row) != n {
			return nil, errors.NewConfigurationErrorf("transition_matrix",
				"row %d has %d entries, want %d", i, len(row), n)
		}
		sum := 0.0
		m.rows[i] = make([]float64, n)
		m.cum[i] = make([]float64, n)
		for j, p := range row {
			if p < 0 || p > 1 {
				return nil, errors.NewConfigurationErrorf("transition_matrix",
					"entry [%d][%d] = %g outside [0, 1]", i, j, p)
			}
			sum += p
			m.rows[i][j] = p
			m.cum[i][j] = sum
		}
		if math.Abs(sum-1.0) > rowSumTolerance {
			return nil, errors.NewConfigurationErrorf("transition_matrix",
				"row %d sums to %g, want 1.0", i, sum)
		}
	}
	return m, nil
}

// Size returns the number of regimes the matrix covers.
func (m *TransitionMatrix) Size() int {
	return len(m.rows)
}

// Row returns a copy of the probability row for the given regime index.
func (m *TransitionMatrix) Row(i int) []float64 {
	out := make([]float64, len(m.rows[i]))
	copy(out, m.rows[i])
	return out
}

// RegimeChain is a discrete-time Markov chain over named regimes.
type RegimeChain struct {
	regimes []models.Regime
	matrix  *TransitionMatrix
}

// NewRegimeChain builds a regime chain. The regime list must be
// non-empty, match the matrix dimension, and carry non-negative
// volatilities.
func NewRegimeChain(regimes []models.Regime, matrix *TransitionMatrix) (*RegimeChain, error) {
	if len(regimes) == 0 {
		return nil, errors.NewConfigurationError("regime_chain", "no regimes supplied")
	}
	if len(regimes) != matrix.Size() {
		return nil, errors.NewConfigurationErrorf("regime_chain",
			"%d regimes but %dx%d transition matrix", len(regimes), matrix.Size(), matrix.Size())
	}
	for _, r := range regimes {
		if r.Volatility < 0 {
			return nil, errors.NewConfigurationErrorf("regime_chain",
				"regime %q has negative volatility %g", r.Name, r.Volatility)
		}
	}
	rs := make([]models.Regime, len(regimes))
	copy(rs, regimes)
	return &RegimeChain{regimes: rs, matrix: matrix}, nil
}

// Next samples the successor of the current regime using cumulative-sum
// inversion against one uniform draw.
func (c *RegimeChain) Next(current int, rng *rand.Rand) int {
	cum := c.matrix.cum[current]
	u := rng.Float64()
	for j, threshold := range cum {
		if u < threshold {
			return j
		}
	}
	// Row sums can fall a hair short of 1.0; the tail mass belongs to
	// the last regime.
	return len(cum) - 1
}

// Regime returns the regime at the given index.
func (c *RegimeChain) Regime(i int) models.Regime {
	return c.regimes[i]
}

// Len returns the number of regimes.
func (c *RegimeChain) Len() int {
	return len(c.regimes)
}

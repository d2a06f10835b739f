package surface

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsynth/internal/errors"
)

func flatBuilder() Builder {
	return Builder{
		BaseVol: 0.2,
		Spot:    100,
		Term:    TermParams{LongRun: 0.2, Reversion: 1.0},
	}
}

func TestBuild_ATMVolMatchesBase(t *testing.T) {
	// With LongRun == BaseVol the term structure is flat; with no smile
	// parameters the surface is the base vol everywhere.
	s, err := flatBuilder().Build([]float64{80, 100, 120}, []float64{0.1, 0.5, 1})
	require.NoError(t, err)
	for _, k := range []float64{80, 100, 120} {
		for _, tte := range []float64{0.1, 0.5, 1} {
			v, ok := s.Vol(k, tte)
			require.True(t, ok)
			assert.InDelta(t, 0.2, v, 1e-12)
		}
	}
}

func TestBuild_SmileIsConvex(t *testing.T) {
	b := flatBuilder()
	b.Smile = SmileParams{Curvature: 0.5}
	s, err := b.Build([]float64{80, 100, 120}, []float64{0.5})
	require.NoError(t, err)

	atm, _ := s.Vol(100, 0.5)
	low, _ := s.Vol(80, 0.5)
	high, _ := s.Vol(120, 0.5)
	assert.Greater(t, low, atm)
	assert.Greater(t, high, atm)
}

func TestBuild_NegativeSkewTiltsLowStrikesUp(t *testing.T) {
	b := flatBuilder()
	b.Smile = SmileParams{Skew: -0.2}
	s, err := b.Build([]float64{80, 120}, []float64{0.5})
	require.NoError(t, err)

	low, _ := s.Vol(80, 0.5)
	high, _ := s.Vol(120, 0.5)
	assert.Greater(t, low, high)
}

func TestBuild_TermStructureMeanReverts(t *testing.T) {
	b := Builder{
		BaseVol: 0.4,
		Spot:    100,
		Term:    TermParams{LongRun: 0.2, Reversion: 2.0},
	}
	s, err := b.Build([]float64{100}, []float64{0.05, 0.5, 3})
	require.NoError(t, err)

	short, _ := s.Vol(100, 0.05)
	mid, _ := s.Vol(100, 0.5)
	long, _ := s.Vol(100, 3)

	// Base above the long-run level decays toward it with expiry.
	assert.Greater(t, short, mid)
	assert.Greater(t, mid, long)
	assert.Greater(t, long, 0.2-1e-9)

	want := 0.2 + (0.4-0.2)*math.Exp(-2.0*0.5)
	assert.InDelta(t, want, mid, 1e-12)
}

func TestBuild_CombinesMultiplicatively(t *testing.T) {
	b := Builder{
		BaseVol: 0.4,
		Spot:    100,
		Smile:   SmileParams{Curvature: 0.5, Skew: -0.2},
		Term:    TermParams{LongRun: 0.2, Reversion: 2.0},
	}
	s, err := b.Build([]float64{80}, []float64{0.5})
	require.NoError(t, err)

	termVol := 0.2 + (0.4-0.2)*math.Exp(-2.0*0.5)
	x := math.Log(80.0 / 100.0)
	want := termVol * (1 + 0.5*x*x - 0.2*x)
	got, _ := s.Vol(80, 0.5)
	assert.InDelta(t, want, got, 1e-12)
}

func TestBuild_AllVolsStrictlyPositive(t *testing.T) {
	// Extreme skew drives the parabola negative; the floor keeps every
	// grid point strictly positive.
	b := flatBuilder()
	b.Smile = SmileParams{Skew: 10}
	s, err := b.Build([]float64{10, 50, 100, 200}, []float64{0.25, 1})
	require.NoError(t, err)
	for _, k := range s.Strikes() {
		for _, tte := range s.Expiries() {
			v, ok := s.Vol(k, tte)
			require.True(t, ok)
			assert.Greater(t, v, 0.0)
		}
	}
}

func TestBuild_Errors(t *testing.T) {
	var cfgErr *errors.ConfigurationError

	_, err := Builder{BaseVol: 0, Spot: 100}.Build([]float64{100}, []float64{1})
	require.Error(t, err)
	assert.True(t, errors.As(err, &cfgErr))

	_, err = flatBuilder().Build(nil, []float64{1})
	require.Error(t, err)

	_, err = flatBuilder().Build([]float64{100}, []float64{-1})
	require.Error(t, err)

	_, err = flatBuilder().Build([]float64{-5}, []float64{1})
	require.Error(t, err)
}

func TestVol_MissingGridPoint(t *testing.T) {
	s, err := flatBuilder().Build([]float64{100}, []float64{1})
	require.NoError(t, err)
	_, ok := s.Vol(101, 1)
	assert.False(t, ok)
	_, ok = s.Vol(100, 2)
	assert.False(t, ok)
}

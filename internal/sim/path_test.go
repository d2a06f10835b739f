package sim

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsynth/internal/errors"
	"marketsynth/internal/models"
)

func twoRegimeParams(seed uint64) Params {
	return Params{
		InitialPrice: 18000,
		Regimes: []models.Regime{
			{Name: "Bullish", Drift: 0.08, Volatility: 0.15},
			{Name: "Bearish", Drift: -0.05, Volatility: 0.25},
		},
		Transitions:   [][]float64{{0.9, 0.1}, {0.2, 0.8}},
		Periods:       252,
		Dt:            1.0 / 252,
		IntradaySteps: 24,
		Jump:          JumpParams{Intensity: 1.0, Mean: 0, Std: 0.2},
		Seed:          seed,
		Start:         time.Date(2025, 1, 3, 9, 15, 0, 0, time.UTC),
	}
}

func TestSimulate_ProducesPeriodsPlusOneBars(t *testing.T) {
	s, err := NewPathSimulator(twoRegimeParams(42))
	require.NoError(t, err)
	bars, err := s.Simulate(context.Background())
	require.NoError(t, err)
	assert.Len(t, bars, 253)
}

func TestSimulate_ReproducibleForSameSeed(t *testing.T) {
	run := func() []models.Bar {
		s, err := NewPathSimulator(twoRegimeParams(42))
		require.NoError(t, err)
		bars, err := s.Simulate(context.Background())
		require.NoError(t, err)
		return bars
	}
	assert.True(t, reflect.DeepEqual(run(), run()))
}

func TestSimulate_DifferentSeedsDiffer(t *testing.T) {
	a, err := NewPathSimulator(twoRegimeParams(42))
	require.NoError(t, err)
	b, err := NewPathSimulator(twoRegimeParams(43))
	require.NoError(t, err)
	barsA, err := a.Simulate(context.Background())
	require.NoError(t, err)
	barsB, err := b.Simulate(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, barsA[252].Close, barsB[252].Close)
}

func TestSimulate_OHLCInvariant(t *testing.T) {
	s, err := NewPathSimulator(twoRegimeParams(7))
	require.NoError(t, err)
	bars, err := s.Simulate(context.Background())
	require.NoError(t, err)
	for i, b := range bars {
		assert.GreaterOrEqual(t, b.High, math.Max(b.Open, b.Close), "bar %d", i)
		assert.LessOrEqual(t, b.Low, math.Min(b.Open, b.Close), "bar %d", i)
	}
}

func TestSimulate_OpenIsPreviousClose(t *testing.T) {
	s, err := NewPathSimulator(twoRegimeParams(11))
	require.NoError(t, err)
	bars, err := s.Simulate(context.Background())
	require.NoError(t, err)
	for i := 1; i < len(bars); i++ {
		assert.Equal(t, bars[i-1].Close, bars[i].Open, "bar %d", i)
	}
}

func TestSimulate_ZeroVolatilityIsDeterministic(t *testing.T) {
	mu := 0.08
	dt := 1.0 / 252
	p := Params{
		InitialPrice:  18000,
		Regimes:       []models.Regime{{Name: "Drift", Drift: mu, Volatility: 0}},
		Transitions:   [][]float64{{1}},
		Periods:       100,
		Dt:            dt,
		IntradaySteps: 24,
		Jump:          JumpParams{Intensity: 0},
		Seed:          9,
		Start:         time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	s, err := NewPathSimulator(p)
	require.NoError(t, err)
	bars, err := s.Simulate(context.Background())
	require.NoError(t, err)

	for tIdx, b := range bars {
		want := 18000 * math.Exp(mu*float64(tIdx)*dt)
		assert.InDelta(t, want, b.Close, want*1e-9, "bar %d", tIdx)
		assert.InDelta(t, want, b.High, want*1e-9, "bar %d", tIdx)
	}
}

func TestSimulate_ThetaScalesDrift(t *testing.T) {
	dt := 1.0 / 252
	p := Params{
		InitialPrice:  100,
		Regimes:       []models.Regime{{Name: "Boost", Drift: 0.10, Volatility: 0, Theta: 0.5}},
		Transitions:   [][]float64{{1}},
		Periods:       10,
		Dt:            dt,
		IntradaySteps: 4,
		Seed:          1,
		Start:         time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	s, err := NewPathSimulator(p)
	require.NoError(t, err)
	bars, err := s.Simulate(context.Background())
	require.NoError(t, err)

	muEff := 0.10 * 1.5
	want := 100 * math.Exp(muEff*10*dt)
	assert.InDelta(t, want, bars[10].Close, want*1e-9)
}

func TestSimulate_ProgressIsMonotonic(t *testing.T) {
	var seen []int
	s, err := NewPathSimulator(twoRegimeParams(5),
		WithProgress(func(done, total int) {
			assert.Equal(t, 252, total)
			seen = append(seen, done)
		}))
	require.NoError(t, err)
	_, err = s.Simulate(context.Background())
	require.NoError(t, err)
	require.Len(t, seen, 252)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
}

func TestSimulate_ContextCancellationAbortsRun(t *testing.T) {
	s, err := NewPathSimulator(twoRegimeParams(5))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bars, err := s.Simulate(ctx)
	assert.Error(t, err)
	assert.Nil(t, bars)
}

func TestNewPathSimulator_ValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Params)
	}{
		{"non-positive dt", func(p *Params) { p.Dt = 0 }},
		{"zero intraday steps", func(p *Params) { p.IntradaySteps = 0 }},
		{"negative volatility", func(p *Params) { p.Regimes[0].Volatility = -0.1 }},
		{"zero periods", func(p *Params) { p.Periods = 0 }},
		{"non-positive initial price", func(p *Params) { p.InitialPrice = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := twoRegimeParams(1)
			tc.mutate(&p)
			_, err := NewPathSimulator(p)
			require.Error(t, err)
			var valErr *errors.ValidationError
			assert.True(t, errors.As(err, &valErr))
		})
	}
}

func TestSimulate_SigmaAdjustReproducibleAndPerturbs(t *testing.T) {
	withAdjust := twoRegimeParams(42)
	withAdjust.SigmaAdjust = &SigmaAdjust{Span: 10, Weight: 0.01, Threshold: 0.001, LargeStd: 3}

	run := func(p Params) []models.Bar {
		s, err := NewPathSimulator(p)
		require.NoError(t, err)
		bars, err := s.Simulate(context.Background())
		require.NoError(t, err)
		return bars
	}

	a := run(withAdjust)
	b := run(withAdjust)
	assert.True(t, reflect.DeepEqual(a, b))

	// The adjustment consumes one extra normal per period, so the path
	// diverges from the unadjusted one after the initial bar.
	plain := run(twoRegimeParams(42))
	assert.NotEqual(t, plain[252].Close, a[252].Close)

	for i, bar := range a {
		assert.GreaterOrEqual(t, bar.High, math.Max(bar.Open, bar.Close), "bar %d", i)
		assert.LessOrEqual(t, bar.Low, math.Min(bar.Open, bar.Close), "bar %d", i)
	}
}

func TestSimulate_SigmaAdjustScalesBaseVolatility(t *testing.T) {
	// The perturbation multiplies the regime volatility, so a zero-vol
	// regime stays a pure drift path regardless of the adjustment draws.
	mu := 0.08
	dt := 1.0 / 252
	p := Params{
		InitialPrice:  18000,
		Regimes:       []models.Regime{{Name: "Drift", Drift: mu, Volatility: 0}},
		Transitions:   [][]float64{{1}},
		Periods:       50,
		Dt:            dt,
		IntradaySteps: 24,
		Seed:          9,
		Start:         time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
		SigmaAdjust:   &SigmaAdjust{Span: 5, Weight: 0.05, Threshold: 0.001, LargeStd: 3},
	}
	s, err := NewPathSimulator(p)
	require.NoError(t, err)
	bars, err := s.Simulate(context.Background())
	require.NoError(t, err)

	for tIdx, b := range bars {
		want := 18000 * math.Exp(mu*float64(tIdx)*dt)
		assert.InDelta(t, want, b.Close, want*1e-9, "bar %d", tIdx)
	}
}

func TestAdjustSigma_LargeDrawNearEMA(t *testing.T) {
	p := twoRegimeParams(1)
	p.SigmaAdjust = &SigmaAdjust{Span: 10, Weight: 0.01, Threshold: 0.001, LargeStd: 3}
	s, err := NewPathSimulator(p)
	require.NoError(t, err)

	base := 0.2

	// No EMA yet: the small draw applies.
	small := s.adjustSigma(base, 18000, math.NaN(), NewRand(5))
	// Previous close within threshold of the EMA: same z scaled by LargeStd.
	near := s.adjustSigma(base, 18000, 18000*1.0005, NewRand(5))
	// Far from the EMA: the small draw again.
	far := s.adjustSigma(base, 18000, 17000, NewRand(5))

	assert.Equal(t, small, far)
	assert.NotEqual(t, small, near)
	assert.InDelta(t, 3.0, (near-base)/(small-base), 1e-9)
}

func TestUpdateEMA(t *testing.T) {
	p := twoRegimeParams(1)
	p.SigmaAdjust = &SigmaAdjust{Span: 9, Weight: 0.01, Threshold: 0.001, LargeStd: 3}
	s, err := NewPathSimulator(p)
	require.NoError(t, err)

	// First observation seeds the EMA.
	assert.Equal(t, 100.0, s.updateEMA(math.NaN(), 100))

	// alpha = 2 / (span + 1) = 0.2.
	assert.InDelta(t, 0.2*110+0.8*100, s.updateEMA(100, 110), 1e-12)
}

func TestNewPathSimulator_BadMatrixIsConfigurationError(t *testing.T) {
	p := twoRegimeParams(1)
	p.Transitions = [][]float64{{0.8, 0.1}, {0.2, 0.8}}
	_, err := NewPathSimulator(p)
	require.Error(t, err)
	var cfgErr *errors.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

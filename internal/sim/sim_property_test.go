package sim

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"marketsynth/internal/models"
)

// Property: for any valid parameter set, every generated bar satisfies
// High >= max(Open, Close) and Low <= min(Open, Close), and each bar
// opens at the previous close.

type pathCase struct {
	Drift     float64
	Vol       float64
	Intensity float64
	JumpStd   float64
	Periods   int
	Steps     int
	Seed      uint64
}

func pathCaseGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(pathCase{}), map[string]gopter.Gen{
		"Drift":     gen.Float64Range(-0.5, 0.5),
		"Vol":       gen.Float64Range(0, 1.0),
		"Intensity": gen.Float64Range(0, 500), // deliberately crosses the lambda*dt clamp
		"JumpStd":   gen.Float64Range(0, 0.5),
		"Periods":   gen.IntRange(1, 60),
		"Steps":     gen.IntRange(1, 12),
		"Seed":      gen.UInt64(),
	})
}

func simulateCase(c pathCase) ([]models.Bar, error) {
	s, err := NewPathSimulator(Params{
		InitialPrice:  18000,
		Regimes:       []models.Regime{{Name: "R", Drift: c.Drift, Volatility: c.Vol}},
		Transitions:   [][]float64{{1}},
		Periods:       c.Periods,
		Dt:            1.0 / 252,
		IntradaySteps: c.Steps,
		Jump:          JumpParams{Intensity: c.Intensity, Mean: 0, Std: c.JumpStd},
		Seed:          c.Seed,
		Start:         time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return nil, err
	}
	return s.Simulate(context.Background())
}

func TestProperty_OHLCInvariantHolds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("High >= max(Open, Close) and Low <= min(Open, Close)", prop.ForAll(
		func(c pathCase) bool {
			bars, err := simulateCase(c)
			if err != nil {
				return false
			}
			if len(bars) != c.Periods+1 {
				return false
			}
			for i, b := range bars {
				if b.High < math.Max(b.Open, b.Close) || b.Low > math.Min(b.Open, b.Close) {
					return false
				}
				if i > 0 && b.Open != bars[i-1].Close {
					return false
				}
			}
			return true
		},
		pathCaseGen(),
	))

	properties.TestingRun(t)
}

func TestProperty_SameSeedSamePath(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("two runs with identical parameters produce identical bars", prop.ForAll(
		func(c pathCase) bool {
			a, err := simulateCase(c)
			if err != nil {
				return false
			}
			b, err := simulateCase(c)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(a, b)
		},
		pathCaseGen(),
	))

	properties.TestingRun(t)
}

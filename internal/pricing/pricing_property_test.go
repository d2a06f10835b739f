package pricing

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"marketsynth/internal/models"
)

// Property: analytic call and put prices satisfy put-call parity and
// never fall below intrinsic value, for any valid inputs.

type priceCase struct {
	Spot   float64
	Strike float64
	T      float64
	Rate   float64
	Sigma  float64
}

func priceCaseGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(priceCase{}), map[string]gopter.Gen{
		"Spot":   gen.Float64Range(10, 50000),
		"Strike": gen.Float64Range(10, 50000),
		"T":      gen.Float64Range(0.001, 5),
		"Rate":   gen.Float64Range(0, 0.15),
		"Sigma":  gen.Float64Range(0.01, 2),
	})
}

func TestProperty_PutCallParity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	pricer := NewAnalyticPricer()

	properties.Property("call - put = S - K*exp(-rT)", prop.ForAll(
		func(c priceCase) bool {
			m := Market{Spot: c.Spot, Rate: c.Rate, Volatility: c.Sigma}
			call, err := pricer.Price(Contract{Strike: c.Strike, TimeToExpiry: c.T, Type: models.OptionCall}, m)
			if err != nil {
				return false
			}
			put, err := pricer.Price(Contract{Strike: c.Strike, TimeToExpiry: c.T, Type: models.OptionPut}, m)
			if err != nil {
				return false
			}
			want := c.Spot - c.Strike*math.Exp(-c.Rate*c.T)
			diff := math.Abs((call.Price - put.Price) - want)
			scale := math.Max(1, math.Max(math.Abs(want), call.Price))
			return diff <= 1e-9*scale
		},
		priceCaseGen(),
	))

	properties.TestingRun(t)
}

func TestProperty_PriceDominatesIntrinsic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	pricer := NewAnalyticPricer()

	properties.Property("prices are non-negative and calls dominate discounted intrinsic", prop.ForAll(
		func(c priceCase) bool {
			m := Market{Spot: c.Spot, Rate: c.Rate, Volatility: c.Sigma}
			call, err := pricer.Price(Contract{Strike: c.Strike, TimeToExpiry: c.T, Type: models.OptionCall}, m)
			if err != nil {
				return false
			}
			put, err := pricer.Price(Contract{Strike: c.Strike, TimeToExpiry: c.T, Type: models.OptionPut}, m)
			if err != nil {
				return false
			}
			if call.Price < 0 || put.Price < 0 {
				return false
			}
			// European lower bounds: C >= S - K*exp(-rT), P >= K*exp(-rT) - S.
			disc := c.Strike * math.Exp(-c.Rate*c.T)
			tol := 1e-9 * math.Max(1, c.Spot)
			return call.Price >= c.Spot-disc-tol && put.Price >= disc-c.Spot-tol
		},
		priceCaseGen(),
	))

	properties.TestingRun(t)
}

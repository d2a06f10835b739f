package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"marketsynth/internal/models"
)

// AnalyticPricer prices European options with the closed-form
// risk-neutral discounted expectation under a log-normal terminal-price
// assumption, and computes the five standard Greeks from their
// closed-form derivative expressions. Satisfies put-call parity:
// call - put = S - K*exp(-rT).
type AnalyticPricer struct{}

// NewAnalyticPricer creates a new analytic pricer.
func NewAnalyticPricer() *AnalyticPricer {
	return &AnalyticPricer{}
}

// Price returns the closed-form price and Greeks. At T <= 0 it returns
// the intrinsic value directly, independent of the volatility input.
// With zero volatility the price degenerates to the discounted forward
// intrinsic value.
func (p *AnalyticPricer) Price(c Contract, m Market) (Quote, error) {
	if err := validate(c, m); err != nil {
		return Quote{}, err
	}
	if c.TimeToExpiry <= 0 {
		return Quote{Price: intrinsic(c, m.Spot)}, nil
	}

	S, K, r, sigma, T := m.Spot, c.Strike, m.Rate, m.Volatility, c.TimeToExpiry
	discount := math.Exp(-r * T)

	if sigma == 0 {
		q := Quote{}
		if c.Type == models.OptionCall {
			q.Price = math.Max(0, S-K*discount)
			if S > K*discount {
				q.Greeks.Delta = 1
				q.Greeks.Rho = K * T * discount
				q.Greeks.Theta = -r * K * discount
			}
		} else {
			q.Price = math.Max(0, K*discount-S)
			if K*discount > S {
				q.Greeks.Delta = -1
				q.Greeks.Rho = -K * T * discount
				q.Greeks.Theta = r * K * discount
			}
		}
		return q, nil
	}

	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	norm := distuv.UnitNormal
	pdfD1 := norm.Prob(d1)

	var price float64
	greeks := models.Greeks{
		Gamma: pdfD1 / (S * sigma * sqrtT),
		Vega:  S * pdfD1 * sqrtT,
	}
	if c.Type == models.OptionCall {
		price = S*norm.CDF(d1) - K*discount*norm.CDF(d2)
		greeks.Delta = norm.CDF(d1)
		greeks.Theta = -S*pdfD1*sigma/(2*sqrtT) - r*K*discount*norm.CDF(d2)
		greeks.Rho = K * T * discount * norm.CDF(d2)
	} else {
		price = K*discount*norm.CDF(-d2) - S*norm.CDF(-d1)
		greeks.Delta = norm.CDF(d1) - 1
		greeks.Theta = -S*pdfD1*sigma/(2*sqrtT) + r*K*discount*norm.CDF(-d2)
		greeks.Rho = -K * T * discount * norm.CDF(-d2)
	}

	return Quote{Price: price, Greeks: greeks}, nil
}

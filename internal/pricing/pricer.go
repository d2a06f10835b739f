// Package pricing implements option pricing engines: an analytic
// closed-form pricer under the log-normal terminal-price assumption and
// a Monte Carlo pricer with antithetic variates.
package pricing

import (
	"math"

	"marketsynth/internal/errors"
	"marketsynth/internal/models"
)

// Contract holds the terms of a single European option.
type Contract struct {
	Strike       float64
	TimeToExpiry float64 // years
	Type         models.OptionType
}

// Market is a snapshot of the pricing inputs shared by call and put.
type Market struct {
	Spot       float64
	Rate       float64 // continuously compounded risk-free rate
	Volatility float64 // annualized
}

// Quote is a pricing result. Paths and StdError are populated by the
// Monte Carlo pricer so callers can judge convergence; the analytic
// pricer leaves them zero.
type Quote struct {
	Price    float64
	Greeks   models.Greeks
	Paths    int
	StdError float64
}

// Pricer prices one contract against a market snapshot.
type Pricer interface {
	Price(c Contract, m Market) (Quote, error)
}

// validate rejects malformed option terms shared by all pricers.
func validate(c Contract, m Market) error {
	if c.Strike <= 0 {
		return errors.NewInvalidContractError("strike", c.Strike, "must be positive")
	}
	if m.Volatility < 0 {
		return errors.NewInvalidContractError("volatility", m.Volatility, "must be non-negative")
	}
	if m.Spot <= 0 {
		return errors.NewInvalidContractError("spot", m.Spot, "must be positive")
	}
	return nil
}

// intrinsic is the exercise value of the contract at the given spot.
func intrinsic(c Contract, spot float64) float64 {
	if c.Type == models.OptionCall {
		return math.Max(0, spot-c.Strike)
	}
	return math.Max(0, c.Strike-spot)
}

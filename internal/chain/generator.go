// Package chain enumerates strike/expiry grids and assembles option
// chains by pricing every contract against a shared volatility surface.
package chain

import (
	"math"
	"time"

	"marketsynth/internal/errors"
	"marketsynth/internal/models"
	"marketsynth/internal/pricing"
)

// yearHours converts time-to-expiry durations to year fractions.
const yearHours = 365 * 24

// Snapshot is the underlying level at one timestamp.
type Snapshot struct {
	Timestamp time.Time
	Price     float64
}

// StrikeSpec enumerates strikes around the underlying. When Spacing is
// positive the grid is arithmetic with Count strikes centered on the
// spot rounded to the nearest spacing multiple. Otherwise RangePercent
// spreads Count strikes evenly across spot*(1 ± RangePercent/100).
type StrikeSpec struct {
	Count        int
	Spacing      float64
	RangePercent float64
}

// Enumerate returns the strike grid for the given spot, ascending.
func (s StrikeSpec) Enumerate(spot float64) []float64 {
	if s.Count < 1 {
		return nil
	}
	strikes := make([]float64, 0, s.Count)
	if s.Spacing > 0 {
		center := math.Round(spot/s.Spacing) * s.Spacing
		half := s.Count / 2
		for i := -half; len(strikes) < s.Count; i++ {
			k := center + float64(i)*s.Spacing
			if k > 0 {
				strikes = append(strikes, k)
			}
		}
		return strikes
	}
	if s.RangePercent <= 0 {
		return nil
	}
	lo := spot * (1 - s.RangePercent/100)
	hi := spot * (1 + s.RangePercent/100)
	if s.Count == 1 {
		return []float64{spot}
	}
	step := (hi - lo) / float64(s.Count-1)
	for i := 0; i < s.Count; i++ {
		k := lo + float64(i)*step
		if k > 0 {
			strikes = append(strikes, k)
		}
	}
	return strikes
}

// Periodicity selects a periodic expiry schedule.
type Periodicity string

const (
	Weekly    Periodicity = "WEEKLY"
	Monthly   Periodicity = "MONTHLY"
	Quarterly Periodicity = "QUARTERLY"
)

// ExpirySpec enumerates expiries either from an explicit date list or
// from a periodic schedule starting after the snapshot timestamp.
// Periodic expiries fall on Thursdays: weekly on successive Thursdays,
// monthly on the last Thursday of each month, quarterly on the last
// Thursday of March, June, September and December.
type ExpirySpec struct {
	Dates  []time.Time
	Period Periodicity
	Count  int
}

// Enumerate returns the expiry dates after from, ascending.
func (e ExpirySpec) Enumerate(from time.Time) []time.Time {
	if len(e.Dates) > 0 {
		out := make([]time.Time, 0, len(e.Dates))
		for _, d := range e.Dates {
			if d.After(from) {
				out = append(out, d)
			}
		}
		return out
	}
	if e.Count < 1 {
		return nil
	}
	out := make([]time.Time, 0, e.Count)
	switch e.Period {
	case Weekly:
		d := nextThursday(from)
		for len(out) < e.Count {
			out = append(out, d)
			d = d.AddDate(0, 0, 7)
		}
	case Monthly:
		y, m := from.Year(), from.Month()
		for len(out) < e.Count {
			d := lastThursday(y, m, from.Location())
			if d.After(from) {
				out = append(out, d)
			}
			m++
			if m > time.December {
				m = time.January
				y++
			}
		}
	case Quarterly:
		y, m := from.Year(), from.Month()
		for len(out) < e.Count {
			if m == time.March || m == time.June || m == time.September || m == time.December {
				d := lastThursday(y, m, from.Location())
				if d.After(from) {
					out = append(out, d)
				}
			}
			m++
			if m > time.December {
				m = time.January
				y++
			}
		}
	}
	return out
}

func nextThursday(from time.Time) time.Time {
	d := time.Date(from.Year(), from.Month(), from.Day(), 15, 30, 0, 0, from.Location())
	daysAhead := (int(time.Thursday) - int(d.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	return d.AddDate(0, 0, daysAhead)
}

func lastThursday(year int, month time.Month, loc *time.Location) time.Time {
	d := time.Date(year, month+1, 1, 15, 30, 0, 0, loc).AddDate(0, 0, -1)
	for d.Weekday() != time.Thursday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// VolSource supplies implied volatility per (strike, expiry-years) grid
// point. *surface.Surface satisfies it.
type VolSource interface {
	Vol(strike, expiry float64) (float64, bool)
}

// Generator assembles option chains. SpreadFrac, when positive,
// synthesizes a bid-ask spread as that fraction of the mid price.
type Generator struct {
	Pricer     pricing.Pricer
	Rate       float64
	SpreadFrac float64
}

// NewGenerator creates a chain generator using the given pricer and
// risk-free rate.
func NewGenerator(pricer pricing.Pricer, rate float64) *Generator {
	return &Generator{Pricer: pricer, Rate: rate}
}

// TTE returns the time to expiry in years from the snapshot timestamp.
func TTE(from time.Time, expiry time.Time) float64 {
	return expiry.Sub(from).Hours() / yearHours
}

// Generate enumerates the strike and expiry grids, looks up volatility
// from the surface for every pair and prices both the call and the put.
// Returns EmptyChainError when either enumeration is empty.
func (g *Generator) Generate(snap Snapshot, ss StrikeSpec, es ExpirySpec, vols VolSource) (*models.OptionChain, error) {
	strikes := ss.Enumerate(snap.Price)
	if len(strikes) == 0 {
		return nil, errors.NewEmptyChainError("strikes", "strike enumeration yielded no entries")
	}
	expiries := es.Enumerate(snap.Timestamp)
	if len(expiries) == 0 {
		return nil, errors.NewEmptyChainError("expiries", "expiry enumeration yielded no entries")
	}

	oc := &models.OptionChain{
		Timestamp: snap.Timestamp,
		SpotPrice: snap.Price,
		Entries:   make([]models.ChainEntry, 0, len(strikes)*len(expiries)),
	}
	for _, expiry := range expiries {
		tte := TTE(snap.Timestamp, expiry)
		for _, strike := range strikes {
			vol, ok := vols.Vol(strike, tte)
			if !ok {
				return nil, errors.NewConfigurationErrorf("chain",
					"volatility surface has no point at strike %g, expiry %g", strike, tte)
			}
			market := pricing.Market{Spot: snap.Price, Rate: g.Rate, Volatility: vol}

			call, err := g.quote(pricing.Contract{Strike: strike, TimeToExpiry: tte, Type: models.OptionCall}, market, expiry, vol)
			if err != nil {
				return nil, err
			}
			put, err := g.quote(pricing.Contract{Strike: strike, TimeToExpiry: tte, Type: models.OptionPut}, market, expiry, vol)
			if err != nil {
				return nil, err
			}
			oc.Entries = append(oc.Entries, models.ChainEntry{
				Strike: strike,
				Expiry: expiry,
				Call:   call,
				Put:    put,
			})
		}
	}
	return oc, nil
}

func (g *Generator) quote(c pricing.Contract, m pricing.Market, expiry time.Time, vol float64) (models.OptionQuote, error) {
	res, err := g.Pricer.Price(c, m)
	if err != nil {
		return models.OptionQuote{}, err
	}
	q := models.OptionQuote{
		Contract: models.OptionContract{
			Strike: c.Strike,
			Expiry: expiry,
			Type:   c.Type,
		},
		Price:      res.Price,
		ImpliedVol: vol,
		Greeks:     res.Greeks,
	}
	if g.SpreadFrac > 0 {
		half := res.Price * g.SpreadFrac / 2
		q.Bid = math.Max(0, res.Price-half)
		q.Ask = res.Price + half
	}
	return q, nil
}

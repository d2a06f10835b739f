package models

import "time"

// OptionType distinguishes calls from puts.
type OptionType string

const (
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
)

// OptionContract identifies a single option: strike, expiry and type.
type OptionContract struct {
	Strike float64    `json:"strike"`
	Expiry time.Time  `json:"expiry"`
	Type   OptionType `json:"type"`
}

// Greeks holds the five standard option sensitivities.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

// OptionQuote is a priced contract. Price is the mid; Bid/Ask are zero
// unless the generator was configured with a spread.
// Invariant: Price >= intrinsic value and Price >= 0.
type OptionQuote struct {
	Contract   OptionContract `json:"contract"`
	Price      float64        `json:"price"`
	Bid        float64        `json:"bid,omitempty"`
	Ask        float64        `json:"ask,omitempty"`
	ImpliedVol float64        `json:"implied_vol"`
	Greeks     Greeks         `json:"greeks"`
}

// ChainEntry pairs the call and put quotes for one (strike, expiry).
type ChainEntry struct {
	Strike float64     `json:"strike"`
	Expiry time.Time   `json:"expiry"`
	Call   OptionQuote `json:"call"`
	Put    OptionQuote `json:"put"`
}

// OptionChain is the full set of quotes generated for one underlying
// snapshot, ordered by expiry then strike.
type OptionChain struct {
	Timestamp time.Time    `json:"timestamp"`
	SpotPrice float64      `json:"spot_price"`
	Entries   []ChainEntry `json:"entries"`
}

// Package models provides domain models for the market data synthesizer.
package models

import (
	"time"
)

// MarketType selects a preset regime configuration for a simulation.
type MarketType string

const (
	MarketBullish         MarketType = "BULLISH"
	MarketBearish         MarketType = "BEARISH"
	MarketRangeBound      MarketType = "RANGE_BOUND"
	MarketVolatile        MarketType = "VOLATILE"
	MarketRegimeSwitching MarketType = "REGIME_SWITCHING"
)

// Regime is one market condition: a named drift/volatility parameter set.
// Theta scales the effective drift (mu_eff = mu * (1 + theta)) and is also
// used by callers to bias jump direction per regime.
type Regime struct {
	Name       string
	Drift      float64
	Volatility float64
	Theta      float64
}

// Bar represents OHLC data for one simulated period.
// Invariant: High >= max(Open, Close) and Low <= min(Open, Close).
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Regime    string    `json:"regime"`
}

// JobState is the terminal/running state of a simulation job.
type JobState string

const (
	JobRunning   JobState = "RUNNING"
	JobCompleted JobState = "COMPLETED"
	JobFailed    JobState = "FAILED"
)

// JobStatus is the polled status of a simulation job. Progress is a
// fraction in [0, 1] and never decreases for a given job.
type JobStatus struct {
	ID        string    `json:"id"`
	State     JobState  `json:"state"`
	Progress  float64   `json:"progress"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OptionsConfig carries the option-chain portion of a simulation request.
type OptionsConfig struct {
	StrikeRangePercent float64 `json:"strike_range_percent"`
	NumStrikes         int     `json:"num_strikes"`
	ExpiryDays         int     `json:"expiry_days"`
}

// SimulationRequest is the request-boundary shape translated into core
// parameter types by the service layer.
type SimulationRequest struct {
	InitialValue   float64        `json:"initial_value"`
	MarketType     MarketType     `json:"market_type"`
	Volatility     float64        `json:"volatility"`
	PeriodCount    int            `json:"period_count"`
	Seed           uint64         `json:"seed"`
	IncludeOptions bool           `json:"include_options"`
	OptionsConfig  *OptionsConfig `json:"options_config,omitempty"`
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# MarketSynth Configuration

[simulation]
# Trading days per year (sets dt = 1/trading_days)
trading_days = 252
# Intraday diffusion sub-steps per bar
intraday_steps = 24
# Annualized jump intensity (lambda)
jump_intensity = 1.0
# Mean of the log-normal jump size (log space)
jump_mean = 0.0
# Std-dev of the log-normal jump size (log space)
jump_std = 0.2
# Default annualized volatility when a request omits one
default_volatility = 0.2

# EMA-anchored per-period volatility perturbation
[simulation.sigma_adjust]
enabled = false
# EMA span in periods
span = 10
# Scale of the perturbation
weight = 0.01
# Relative distance to the EMA that triggers the large draw
threshold = 0.001
# Std-dev of the large draw
large_std = 3.0

[pricing]
# Continuously compounded risk-free rate
risk_free_rate = 0.05
# Monte Carlo path count
monte_carlo_paths = 100000
# Pair each draw with its negation
antithetic = true

[surface]
# Smile curvature in log-moneyness
smile_curvature = 0.5
# Smile skew (negative tilts vol up for low strikes)
smile_skew = -0.2
# Long-run volatility level for the term structure
term_long_run = 0.2
# Mean-reversion speed of the term structure
term_reversion = 1.0
# Bid-ask spread as a fraction of mid
spread_fraction = 0.01

[storage]
# Directory for JSON exports
# base_path = "~/.config/marketsynth/data"
# SQLite database path
# sqlite_path = "~/.config/marketsynth/marketsynth.db"

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true
`

// WriteTemplate writes the default config template to the default
// config location, refusing to overwrite an existing file. The returned
// path is empty whenever the error is non-nil.
func WriteTemplate() (string, error) {
	return writeTemplate(DefaultConfigDir())
}

func writeTemplate(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}
	return path, nil
}

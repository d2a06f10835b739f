// Package config provides configuration management for the market data
// synthesizer. Configuration is an explicitly constructed value passed
// to the components that need it; there is no process-wide mutable
// state.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"marketsynth/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Pricing    PricingConfig    `mapstructure:"pricing"`
	Surface    SurfaceConfig    `mapstructure:"surface"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SimulationConfig holds path-simulation defaults.
type SimulationConfig struct {
	TradingDays   int               `mapstructure:"trading_days"`
	IntradaySteps int               `mapstructure:"intraday_steps"`
	JumpIntensity float64           `mapstructure:"jump_intensity"`
	JumpMean      float64           `mapstructure:"jump_mean"`
	JumpStd       float64           `mapstructure:"jump_std"`
	DefaultVol    float64           `mapstructure:"default_volatility"`
	SigmaAdjust   SigmaAdjustConfig `mapstructure:"sigma_adjust"`
}

// SigmaAdjustConfig enables the EMA-anchored per-period volatility
// perturbation: small normal noise on each period's sigma, switching to
// a larger draw when the previous close sits within Threshold (relative)
// of its EMA.
type SigmaAdjustConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Span      int     `mapstructure:"span"`
	Weight    float64 `mapstructure:"weight"`
	Threshold float64 `mapstructure:"threshold"`
	LargeStd  float64 `mapstructure:"large_std"`
}

// PricingConfig holds option-pricing defaults.
type PricingConfig struct {
	RiskFreeRate    float64 `mapstructure:"risk_free_rate"`
	MonteCarloPaths int     `mapstructure:"monte_carlo_paths"`
	Antithetic      bool    `mapstructure:"antithetic"`
}

// SurfaceConfig holds volatility-surface shape defaults.
type SurfaceConfig struct {
	SmileCurvature float64 `mapstructure:"smile_curvature"`
	SmileSkew      float64 `mapstructure:"smile_skew"`
	TermLongRun    float64 `mapstructure:"term_long_run"`
	TermReversion  float64 `mapstructure:"term_reversion"`
	SpreadFraction float64 `mapstructure:"spread_fraction"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	BasePath   string `mapstructure:"base_path"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Console  bool   `mapstructure:"console"`
	File     bool   `mapstructure:"file"`
	FilePath string `mapstructure:"file_path"`
}

// DefaultConfigDir returns the directory holding the config file,
// database and logs.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".marketsynth"
	}
	return filepath.Join(home, ".config", "marketsynth")
}

func setDefaults(v *viper.Viper) {
	dir := DefaultConfigDir()
	v.SetDefault("simulation.trading_days", 252)
	v.SetDefault("simulation.intraday_steps", 24)
	v.SetDefault("simulation.jump_intensity", 1.0)
	v.SetDefault("simulation.jump_mean", 0.0)
	v.SetDefault("simulation.jump_std", 0.2)
	v.SetDefault("simulation.default_volatility", 0.2)
	v.SetDefault("simulation.sigma_adjust.enabled", false)
	v.SetDefault("simulation.sigma_adjust.span", 10)
	v.SetDefault("simulation.sigma_adjust.weight", 0.01)
	v.SetDefault("simulation.sigma_adjust.threshold", 0.001)
	v.SetDefault("simulation.sigma_adjust.large_std", 3.0)
	v.SetDefault("pricing.risk_free_rate", 0.05)
	v.SetDefault("pricing.monte_carlo_paths", 100000)
	v.SetDefault("pricing.antithetic", true)
	v.SetDefault("surface.smile_curvature", 0.5)
	v.SetDefault("surface.smile_skew", -0.2)
	v.SetDefault("surface.term_long_run", 0.2)
	v.SetDefault("surface.term_reversion", 1.0)
	v.SetDefault("surface.spread_fraction", 0.01)
	v.SetDefault("storage.base_path", filepath.Join(dir, "data"))
	v.SetDefault("storage.sqlite_path", filepath.Join(dir, "marketsynth.db"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(dir, "logs", "marketsynth.log"))
}

// Load reads configuration from the given file (or the default location
// when path is empty), applying defaults for anything unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("MARKETSYNTH")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(DefaultConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine: defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if path != "" || !os.IsNotExist(err) {
				return nil, errors.Wrap(err, "reading config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Simulation.TradingDays < 1 {
		return errors.NewConfigurationError("config", "simulation.trading_days must be at least 1")
	}
	if c.Simulation.IntradaySteps < 1 {
		return errors.NewConfigurationError("config", "simulation.intraday_steps must be at least 1")
	}
	if c.Simulation.DefaultVol <= 0 {
		return errors.NewConfigurationError("config", "simulation.default_volatility must be positive")
	}
	if c.Simulation.JumpIntensity < 0 {
		return errors.NewConfigurationError("config", "simulation.jump_intensity must be non-negative")
	}
	if c.Simulation.JumpStd < 0 {
		return errors.NewConfigurationError("config", "simulation.jump_std must be non-negative")
	}
	if sa := c.Simulation.SigmaAdjust; sa.Enabled {
		if sa.Span < 1 {
			return errors.NewConfigurationError("config", "simulation.sigma_adjust.span must be at least 1")
		}
		if sa.Weight < 0 {
			return errors.NewConfigurationError("config", "simulation.sigma_adjust.weight must be non-negative")
		}
		if sa.Threshold < 0 {
			return errors.NewConfigurationError("config", "simulation.sigma_adjust.threshold must be non-negative")
		}
		if sa.LargeStd < 0 {
			return errors.NewConfigurationError("config", "simulation.sigma_adjust.large_std must be non-negative")
		}
	}
	if c.Pricing.MonteCarloPaths < 1 {
		return errors.NewConfigurationError("config", "pricing.monte_carlo_paths must be at least 1")
	}
	return nil
}

// Package cli provides the command-line interface for the market data
// synthesizer.
package cli

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"marketsynth/internal/config"
	"marketsynth/internal/service"
	"marketsynth/internal/sim"
	"marketsynth/internal/store"
	"marketsynth/internal/surface"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Service *service.Service
	Files   *store.LocalStore
	Runs    store.RunStore
}

// serviceOptions maps config values onto service defaults.
func serviceOptions(cfg *config.Config) service.Options {
	opts := service.Options{
		RiskFreeRate:  cfg.Pricing.RiskFreeRate,
		Dt:            1.0 / float64(cfg.Simulation.TradingDays),
		IntradaySteps: cfg.Simulation.IntradaySteps,
		BarInterval:   24 * time.Hour,
		Jump: sim.JumpParams{
			Intensity: cfg.Simulation.JumpIntensity,
			Mean:      cfg.Simulation.JumpMean,
			Std:       cfg.Simulation.JumpStd,
		},
		Smile: surface.SmileParams{
			Curvature: cfg.Surface.SmileCurvature,
			Skew:      cfg.Surface.SmileSkew,
		},
		Term: surface.TermParams{
			LongRun:   cfg.Surface.TermLongRun,
			Reversion: cfg.Surface.TermReversion,
		},
		SpreadFrac: cfg.Surface.SpreadFraction,
	}
	if sa := cfg.Simulation.SigmaAdjust; sa.Enabled {
		opts.SigmaAdjust = &sim.SigmaAdjust{
			Span:      sa.Span,
			Weight:    sa.Weight,
			Threshold: sa.Threshold,
			LargeStd:  sa.LargeStd,
		}
	}
	return opts
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Service: service.New(serviceOptions(cfg), logger),
	}

	files, err := store.NewLocalStore(cfg.Storage.BasePath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize file store, JSON export unavailable")
	} else {
		app.Files = files
	}

	runs, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize run store, run persistence unavailable")
	} else {
		app.Runs = runs
	}

	rootCmd := &cobra.Command{
		Use:     "marketsynth",
		Short:   "Synthetic market data generator",
		Long:    "Generates regime-switching jump-diffusion OHLC series and consistent option chains.",
		Version: Version,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Runs != nil {
				app.Runs.Close()
			}
		},
	}

	rootCmd.AddCommand(
		newSimulateCmd(app),
		newChainCmd(app),
		newPriceCmd(app),
		newConfigCmd(app),
	)
	return rootCmd
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteTemplate()
			if err != nil {
				return err
			}
			cmd.Printf("Wrote config template to %s\n", path)
			return nil
		},
	})
	return cmd
}

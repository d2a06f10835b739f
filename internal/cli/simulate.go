package cli

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"marketsynth/internal/logging"
	"marketsynth/internal/models"
	"marketsynth/internal/service"
)

func newSimulateCmd(app *App) *cobra.Command {
	var (
		initial    float64
		market     string
		vol        float64
		periods    int
		seed       uint64
		scenarios  int
		withChain  bool
		rangePct   float64
		numStrikes int
		expiryDays int
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a market simulation and optionally generate an option chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			if vol == 0 {
				vol = app.Config.Simulation.DefaultVol
			}
			req := models.SimulationRequest{
				InitialValue:   initial,
				MarketType:     models.MarketType(market),
				Volatility:     vol,
				PeriodCount:    periods,
				Seed:           seed,
				IncludeOptions: withChain,
			}
			if withChain {
				req.OptionsConfig = &models.OptionsConfig{
					StrikeRangePercent: rangePct,
					NumStrikes:         numStrikes,
					ExpiryDays:         expiryDays,
				}
			}

			jobID := uuid.NewString()
			logging.LogSimulation(app.Logger, jobID, market, periods, seed)

			ctx := cmd.Context()
			if scenarios > 1 {
				results, err := app.Service.RunScenarios(ctx, jobID, req, scenarios)
				if err != nil {
					return err
				}
				for _, res := range results {
					printSummary(cmd, res)
					if save {
						if err := saveResult(ctx, app, res); err != nil {
							return err
						}
					}
				}
				return nil
			}

			res, err := app.Service.Run(ctx, jobID, req)
			if err != nil {
				return err
			}
			printSummary(cmd, res)
			if res.Chain != nil {
				logging.LogChain(app.Logger, jobID, res.Chain.SpotPrice, len(res.Chain.Entries))
			}
			if save {
				return saveResult(ctx, app, res)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&initial, "initial", 18000, "initial underlying level")
	cmd.Flags().StringVar(&market, "market", string(models.MarketRegimeSwitching),
		"market type: BULLISH, BEARISH, RANGE_BOUND, VOLATILE, REGIME_SWITCHING")
	cmd.Flags().Float64Var(&vol, "vol", 0, "annualized volatility (default from config)")
	cmd.Flags().IntVar(&periods, "periods", 252, "number of periods to simulate")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 = time-based)")
	cmd.Flags().IntVar(&scenarios, "scenarios", 1, "number of independent scenarios")
	cmd.Flags().BoolVar(&withChain, "options", false, "generate an option chain at the final bar")
	cmd.Flags().Float64Var(&rangePct, "strike-range", 10, "strike range around spot in percent")
	cmd.Flags().IntVar(&numStrikes, "strikes", 21, "number of strikes")
	cmd.Flags().IntVar(&expiryDays, "expiry-days", 30, "days to expiry for the generated chain")
	cmd.Flags().BoolVar(&save, "save", false, "persist results to the run store and JSON export")

	return cmd
}

// saveResult persists bars and chain to the run store and exports them
// as JSON through the file store.
func saveResult(ctx context.Context, app *App, res *service.Result) error {
	if app.Runs != nil {
		if err := app.Runs.SaveBars(ctx, res.ID, res.Bars); err != nil {
			logging.LogStorage(app.Logger, "save_bars", res.ID, err)
			return err
		}
		if res.Chain != nil {
			if err := app.Runs.SaveChain(ctx, res.ID, res.Chain); err != nil {
				logging.LogStorage(app.Logger, "save_chain", res.ID, err)
				return err
			}
		}
	}
	if app.Files != nil {
		if err := app.Files.Save(ctx, res.ID+"_bars.json", res.Bars); err != nil {
			return err
		}
		if res.Chain != nil {
			if err := app.Files.Save(ctx, res.ID+"_chain.json", res.Chain); err != nil {
				return err
			}
		}
	}
	return nil
}

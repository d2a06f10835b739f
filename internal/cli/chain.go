package cli

import (
	"time"

	"github.com/spf13/cobra"

	"marketsynth/internal/chain"
	"marketsynth/internal/pricing"
	"marketsynth/internal/surface"
)

func newChainCmd(app *App) *cobra.Command {
	var (
		spot     float64
		vol      float64
		count    int
		spacing  float64
		rangePct float64
		period   string
		expiries int
		spread   float64
	)

	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Price an option chain against a given spot level",
		RunE: func(cmd *cobra.Command, args []string) error {
			if vol == 0 {
				vol = app.Config.Simulation.DefaultVol
			}
			now := time.Now()
			snap := chain.Snapshot{Timestamp: now, Price: spot}
			strikeSpec := chain.StrikeSpec{Count: count, Spacing: spacing, RangePercent: rangePct}
			expirySpec := chain.ExpirySpec{Period: chain.Periodicity(period), Count: expiries}

			strikes := strikeSpec.Enumerate(spot)
			dates := expirySpec.Enumerate(now)
			ttes := make([]float64, len(dates))
			for i, d := range dates {
				ttes[i] = chain.TTE(now, d)
			}

			surf, err := surface.Builder{
				BaseVol: vol,
				Spot:    spot,
				Smile: surface.SmileParams{
					Curvature: app.Config.Surface.SmileCurvature,
					Skew:      app.Config.Surface.SmileSkew,
				},
				Term: surface.TermParams{
					LongRun:   app.Config.Surface.TermLongRun,
					Reversion: app.Config.Surface.TermReversion,
				},
			}.Build(strikes, ttes)
			if err != nil {
				return err
			}

			gen := &chain.Generator{
				Pricer:     pricing.NewAnalyticPricer(),
				Rate:       app.Config.Pricing.RiskFreeRate,
				SpreadFrac: spread,
			}
			oc, err := gen.Generate(snap, strikeSpec, expirySpec, surf)
			if err != nil {
				return err
			}
			printChain(cmd, oc)
			return nil
		},
	}

	cmd.Flags().Float64Var(&spot, "spot", 18000, "underlying level")
	cmd.Flags().Float64Var(&vol, "vol", 0, "base annualized volatility (default from config)")
	cmd.Flags().IntVar(&count, "strikes", 21, "number of strikes")
	cmd.Flags().Float64Var(&spacing, "spacing", 50, "strike spacing (0 to use --range)")
	cmd.Flags().Float64Var(&rangePct, "range", 0, "strike range around spot in percent")
	cmd.Flags().StringVar(&period, "period", string(chain.Weekly), "expiry schedule: WEEKLY, MONTHLY, QUARTERLY")
	cmd.Flags().IntVar(&expiries, "expiries", 1, "number of expiries")
	cmd.Flags().Float64Var(&spread, "spread", 0, "bid-ask spread as a fraction of mid")

	return cmd
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"marketsynth/internal/models"
	"marketsynth/internal/pricing"
	"marketsynth/pkg/utils"
)

func newPriceCmd(app *App) *cobra.Command {
	var (
		spot       float64
		strike     float64
		expiryDays float64
		vol        float64
		rate       float64
		optType    string
		method     string
		paths      int
		seed       uint64
	)

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a single European option",
		RunE: func(cmd *cobra.Command, args []string) error {
			if vol == 0 {
				vol = app.Config.Simulation.DefaultVol
			}
			if rate == 0 {
				rate = app.Config.Pricing.RiskFreeRate
			}
			if paths == 0 {
				paths = app.Config.Pricing.MonteCarloPaths
			}

			typ := models.OptionCall
			if strings.EqualFold(optType, "put") {
				typ = models.OptionPut
			}
			contract := pricing.Contract{
				Strike:       strike,
				TimeToExpiry: expiryDays / 365.0,
				Type:         typ,
			}
			market := pricing.Market{Spot: spot, Rate: rate, Volatility: vol}

			var pricer pricing.Pricer
			switch strings.ToLower(method) {
			case "analytic":
				pricer = pricing.NewAnalyticPricer()
			case "mc", "montecarlo":
				mc := pricing.NewMonteCarloPricer(paths, seed)
				mc.Antithetic = app.Config.Pricing.Antithetic
				pricer = mc
			default:
				return fmt.Errorf("unknown pricing method %q", method)
			}

			q, err := pricer.Price(contract, market)
			if err != nil {
				return err
			}

			cmd.Printf("%s %s @ strike %s, %gd to expiry\n",
				method, typ, utils.FormatPrice(strike), expiryDays)
			cmd.Printf("  price: %s\n", utils.FormatPrice(q.Price))
			if q.Paths > 0 {
				cmd.Printf("  paths: %d, std error: %.6f\n", q.Paths, q.StdError)
			} else {
				cmd.Printf("  delta: %.4f  gamma: %.6f  vega: %.4f  theta: %.4f  rho: %.4f\n",
					q.Greeks.Delta, q.Greeks.Gamma, q.Greeks.Vega, q.Greeks.Theta, q.Greeks.Rho)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&spot, "spot", 100, "underlying level")
	cmd.Flags().Float64Var(&strike, "strike", 100, "strike price")
	cmd.Flags().Float64Var(&expiryDays, "expiry-days", 30, "days to expiry")
	cmd.Flags().Float64Var(&vol, "vol", 0, "annualized volatility (default from config)")
	cmd.Flags().Float64Var(&rate, "rate", 0, "risk-free rate (default from config)")
	cmd.Flags().StringVar(&optType, "type", "call", "option type: call or put")
	cmd.Flags().StringVar(&method, "method", "analytic", "pricing method: analytic or mc")
	cmd.Flags().IntVar(&paths, "paths", 0, "Monte Carlo path count (default from config)")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "Monte Carlo seed")

	return cmd
}

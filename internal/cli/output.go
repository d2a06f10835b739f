package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"marketsynth/internal/models"
	"marketsynth/internal/service"
	"marketsynth/pkg/utils"
)

// printSummary renders a completed run: series stats plus a chain table
// when one was generated.
func printSummary(cmd *cobra.Command, res *service.Result) {
	first := res.Bars[0]
	last := res.Bars[len(res.Bars)-1]
	ret := last.Close/first.Close - 1

	cmd.Printf("Run %s: %d bars, %s -> %s (%s)\n",
		res.ID, len(res.Bars),
		utils.FormatPrice(first.Close), utils.FormatPrice(last.Close),
		utils.FormatPercent(ret))

	if res.Chain != nil {
		printChain(cmd, res.Chain)
	}
}

// printChain renders an option chain as a call/strike/put table.
func printChain(cmd *cobra.Command, oc *models.OptionChain) {
	cmd.Printf("Option chain @ %s (spot %s):\n",
		oc.Timestamp.Format("2006-01-02"), utils.FormatPrice(oc.SpotPrice))

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	defer w.Flush()

	w.Write([]byte("EXPIRY\tSTRIKE\tIV\tCALL\tCALL DELTA\tPUT\tPUT DELTA\n"))
	for _, e := range oc.Entries {
		row := e.Expiry.Format("2006-01-02") + "\t" +
			utils.FormatPrice(e.Strike) + "\t" +
			utils.FormatVol(e.Call.ImpliedVol) + "\t" +
			utils.FormatPrice(e.Call.Price) + "\t" +
			fmt.Sprintf("%.4f", e.Call.Greeks.Delta) + "\t" +
			utils.FormatPrice(e.Put.Price) + "\t" +
			fmt.Sprintf("%.4f", e.Put.Greeks.Delta) + "\n"
		w.Write([]byte(row))
	}
}

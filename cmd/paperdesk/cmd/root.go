package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "paperdesk",
	Short: "A multi-account paper-trading desk with a simulated live market",
	Long: `Paperdesk runs a simulated market of synthetic instruments whose prices
move continuously, and lets any number of identities trade against it with
independent virtual portfolios.

It provides:
  - A price-tick generator with bounded per-instrument history
  - Per-account ledgers with average-cost accounting and realized/unrealized P&L
  - Real-time WebSocket push of market data and portfolio valuations
  - A durable SQLite trade log and account store`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

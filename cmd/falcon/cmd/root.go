package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "falcon",
	Short: "An intraday breakout/retest trading simulator",
	Long: `Falcon is an intraday equity trading simulator built around a
breakout-and-retest pattern detector.

It provides tools for:
  - Backtesting the breakout/retest strategy against minute-bar CSV data
  - Paper trading against live Alpaca market data
  - Managing the fill journal and performance history
  - Fraction-of-cash position sizing with stop/target brackets
  - Periodic account reconciliation with drift alarms

Complete documentation is available at https://github.com/rustyeddy/falcon`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

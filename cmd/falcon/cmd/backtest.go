package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/falcon/detector"
	"github.com/rustyeddy/falcon/engine"
	"github.com/rustyeddy/falcon/feed"
	"github.com/rustyeddy/falcon/journal"
	"github.com/rustyeddy/falcon/ledger"
	"github.com/rustyeddy/falcon/market"
	"github.com/rustyeddy/falcon/session"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay minute-bar CSV data through the breakout/retest strategy",
	Long: `Backtest replays historical minute bars through the detector and
engine, journaling every fill to SQLite.

The bar file has rows of the form:

  symbol,time,open,high,low,close,volume

with RFC3339 timestamps. Files ending in .gz or .xz are decompressed
transparently.

Example:
  falcon backtest --bars data/tsla-2026-03-02.csv --cash 10000`,
	RunE: runBacktest,
}

var (
	btBarsPath    string
	btDBPath      string
	btCash        float64
	btAccountID   string
	btLookback    int
	btBreakout    float64
	btTolerance   float64
	btConfirm     bool
	btWickRatio   float64
	btWindowStart string
	btWindowEnd   string
	btFraction    float64
	btStopPct     float64
	btRR          float64
	btCommission  float64
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btBarsPath, "bars", "b", "", "path to bar CSV (symbol,time,open,high,low,close,volume) (required)")
	backtestCmd.Flags().StringVarP(&btDBPath, "db", "d", "./backtest.sqlite", "path to SQLite journal DB")
	backtestCmd.Flags().Float64VarP(&btCash, "cash", "c", 10_000, "starting cash")
	backtestCmd.Flags().StringVar(&btAccountID, "account", "FALCON-BACKTEST", "account ID for journaling")

	backtestCmd.Flags().IntVar(&btLookback, "lookback", 20, "swing lookback in bars")
	backtestCmd.Flags().Float64Var(&btBreakout, "breakout", 0.001, "breakout threshold above resistance")
	backtestCmd.Flags().Float64Var(&btTolerance, "tolerance", 0.003, "retest tolerance around the broken level")
	backtestCmd.Flags().BoolVar(&btConfirm, "confirm", false, "require a confirmation candle before entry")
	backtestCmd.Flags().Float64Var(&btWickRatio, "wick", 0.5, "min lower wick fraction for confirmation")
	backtestCmd.Flags().StringVar(&btWindowStart, "window-start", "09:30", "trading window open (HH:MM)")
	backtestCmd.Flags().StringVar(&btWindowEnd, "window-end", "11:00", "trading window close (HH:MM)")

	backtestCmd.Flags().Float64Var(&btFraction, "fraction", 0.20, "fraction of cash per entry")
	backtestCmd.Flags().Float64Var(&btStopPct, "stop", 0.02, "stop distance below entry")
	backtestCmd.Flags().Float64Var(&btRR, "rr", 2.0, "take profit as R multiple (e.g. 2.0)")
	backtestCmd.Flags().Float64Var(&btCommission, "commission", 0.001, "per-side commission rate on notional")

	backtestCmd.MarkFlagRequired("bars")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	window, err := market.NewWindow(btWindowStart, btWindowEnd)
	if err != nil {
		return fmt.Errorf("window: %w", err)
	}

	store, err := journal.NewSQLite(btDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	led, err := ledger.New(btAccountID, decimal.NewFromFloat(btCash), store)
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}

	eng, err := engine.New(engine.Config{
		SizeFraction:   btFraction,
		StopPct:        btStopPct,
		RiskReward:     btRR,
		CommissionRate: btCommission,
		Window:         window,
	}, led)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	detCfg := detector.Config{
		Lookback:            btLookback,
		BreakoutThreshold:   btBreakout,
		RetestTolerance:     btTolerance,
		RequireConfirmation: btConfirm,
		WickRatio:           btWickRatio,
		Window:              window,
	}

	src, err := feed.NewCSVSource(btBarsPath, time.Time{}, time.Time{})
	if err != nil {
		return fmt.Errorf("open bars: %w", err)
	}
	defer src.Close()

	rec := ledger.NewReconciler(led, func(rep ledger.Report) {
		fmt.Printf("RECONCILE ALARM: stored %s, computed %s (delta %s)\n",
			rep.Stored.StringFixed(2), rep.Calculated.StringFixed(2), rep.Delta.StringFixed(2))
	})

	fmt.Printf("Running backtest\n")
	fmt.Printf("  Bars: %s\n", btBarsPath)
	fmt.Printf("  Journal: %s\n\n", btDBPath)

	runner := session.NewRunner(detCfg, eng, rec, 0)
	if err := runner.Run(context.Background(), src); err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	return printSummary(store, led, btCash)
}

func printSummary(store *journal.SQLite, led *ledger.Ledger, startCash float64) error {
	fills, err := store.ListFillsBetween(time.Time{}, time.Now().Add(24*time.Hour))
	if err != nil {
		return fmt.Errorf("query fills: %w", err)
	}

	var trades, wins, losses int
	for _, f := range fills {
		if f.Side != market.Sell {
			continue
		}
		trades++
		if f.RealizedPL.IsPositive() {
			wins++
		} else {
			losses++
		}
	}

	acct := led.Snapshot()
	fmt.Printf("\nBacktest Complete!\n")
	fmt.Printf("  Trades: %d (%d wins, %d losses)\n", trades, wins, losses)
	fmt.Printf("  Cash: $%s\n", acct.Cash.StringFixed(2))
	fmt.Printf("  Total Value: $%s\n", acct.TotalValue.StringFixed(2))
	fmt.Printf("  P/L: $%s\n", acct.TotalValue.Sub(decimal.NewFromFloat(startCash)).StringFixed(2))
	return nil
}

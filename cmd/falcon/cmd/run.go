package cmd

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/falcon/config"
	"github.com/rustyeddy/falcon/engine"
	"github.com/rustyeddy/falcon/feed"
	"github.com/rustyeddy/falcon/journal"
	"github.com/rustyeddy/falcon/ledger"
	"github.com/rustyeddy/falcon/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Trade a session from a config file using Alpaca market data",
	Long: `Run paper-trades one session using settings from a configuration
file, pulling minute bars from the Alpaca market data API.

Alpaca credentials are read from the APCA_API_KEY_ID and
APCA_API_SECRET_KEY environment variables; a .env file in the working
directory is loaded if present.

Example:
  falcon run --config falcon.yaml --date 2026-03-02`,
	RunE: runRun,
}

var (
	runConfigPath string
	runDate       string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().StringVar(&runDate, "date", "", "session date YYYY-MM-DD (default today)")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	// Credentials usually live in .env during development.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	day := time.Now().UTC()
	if runDate != "" {
		day, err = time.Parse("2006-01-02", runDate)
		if err != nil {
			return fmt.Errorf("bad --date: %w", err)
		}
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	var store journal.Store
	if cfg.Journal.Type == "csv" {
		store, err = journal.NewCSV(cfg.Journal.FillsFile, cfg.Journal.PerformanceFile)
	} else {
		store, err = journal.NewSQLite(cfg.Journal.DBPath)
	}
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer store.Close()

	// Pick up where the last session left off; a fresh journal seeds the
	// configured opening cash.
	led, err := ledger.Resume(cfg.Account.ID, decimal.NewFromFloat(cfg.Account.Cash), store)
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}

	fmt.Printf("Running session %s with config: %s\n", from.Format("2006-01-02"), runConfigPath)
	fmt.Printf("  Account: %s ($%s)\n", cfg.Account.ID, led.Cash().StringFixed(2))
	fmt.Printf("  Symbols: %v\n\n", cfg.Strategy.Symbols)
	if open := led.Positions(); len(open) > 0 {
		log.Printf("resumed %d open position(s)", len(open))
	}

	engCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	eng, err := engine.New(engCfg, led)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	detCfg, err := cfg.DetectorConfig()
	if err != nil {
		return err
	}

	interval, err := cfg.Reconcile.ParseInterval()
	if err != nil {
		return err
	}
	rec := ledger.NewReconciler(led, func(rep ledger.Report) {
		log.Printf("RECONCILE ALARM: stored %s, computed %s (delta %s)",
			rep.Stored.StringFixed(2), rep.Calculated.StringFixed(2), rep.Delta.StringFixed(2))
	})

	src := feed.NewAlpacaSource(cfg.Strategy.Symbols, from, to)
	defer src.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := session.NewRunner(detCfg, eng, rec, interval)
	if err := runner.Run(ctx, src); err != nil {
		return fmt.Errorf("session: %w", err)
	}

	acct := led.Snapshot()
	fmt.Printf("\nSession Complete!\n")
	fmt.Printf("  Cash: $%s\n", acct.Cash.StringFixed(2))
	fmt.Printf("  Total Value: $%s\n", acct.TotalValue.StringFixed(2))
	return nil
}

// Package config loads and validates the falcon configuration from YAML
// or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/falcon/detector"
	"github.com/rustyeddy/falcon/engine"
	"github.com/rustyeddy/falcon/market"
	"github.com/rustyeddy/falcon/risk"
)

// Config represents the complete trading configuration
type Config struct {
	Account   AccountConfig   `json:"account" yaml:"account"`
	Strategy  StrategyConfig  `json:"strategy" yaml:"strategy"`
	Risk      RiskConfig      `json:"risk" yaml:"risk"`
	Reconcile ReconcileConfig `json:"reconcile" yaml:"reconcile"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	ID   string  `json:"id" yaml:"id"`
	Cash float64 `json:"cash" yaml:"cash"`
}

// StrategyConfig contains breakout/retest detection parameters
type StrategyConfig struct {
	Symbols             []string `json:"symbols" yaml:"symbols"`
	Lookback            int      `json:"lookback" yaml:"lookback"`
	BreakoutThreshold   float64  `json:"breakout_threshold" yaml:"breakout_threshold"`
	RetestTolerance     float64  `json:"retest_tolerance" yaml:"retest_tolerance"`
	RequireConfirmation bool     `json:"require_confirmation" yaml:"require_confirmation"`
	WickRatio           float64  `json:"wick_ratio" yaml:"wick_ratio"`
	WindowStart         string   `json:"window_start" yaml:"window_start"` // "09:30"
	WindowEnd           string   `json:"window_end" yaml:"window_end"`     // "11:00"
}

// RiskConfig contains sizing and exit parameters
type RiskConfig struct {
	SizeFraction     float64 `json:"size_fraction" yaml:"size_fraction"`
	StopPct          float64 `json:"stop_pct" yaml:"stop_pct"`
	RiskReward       float64 `json:"risk_reward" yaml:"risk_reward"`
	CommissionRate   float64 `json:"commission_rate" yaml:"commission_rate"`
	MaxOpenPositions int     `json:"max_open_positions" yaml:"max_open_positions"`
	MinRR            float64 `json:"min_rr" yaml:"min_rr"`
	MaxDailyLossPct  float64 `json:"max_daily_loss_pct" yaml:"max_daily_loss_pct"`
}

// ReconcileConfig contains account reconciliation parameters
type ReconcileConfig struct {
	Interval string `json:"interval" yaml:"interval"` // e.g. "15m", "1h"
}

// ParseInterval converts the interval string to a time.Duration
func (rc ReconcileConfig) ParseInterval() (time.Duration, error) {
	if rc.Interval == "" {
		return 0, nil
	}
	return time.ParseDuration(rc.Interval)
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type            string `json:"type" yaml:"type"` // "csv" or "sqlite"
	FillsFile       string `json:"fills_file,omitempty" yaml:"fills_file,omitempty"`
	PerformanceFile string `json:"performance_file,omitempty" yaml:"performance_file,omitempty"`
	DBPath          string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.ID == "" {
		return fmt.Errorf("account.id is required")
	}
	if c.Account.Cash <= 0 {
		return fmt.Errorf("account.cash must be positive")
	}
	if len(c.Strategy.Symbols) == 0 {
		return fmt.Errorf("strategy.symbols is required")
	}
	if _, err := c.Window(); err != nil {
		return fmt.Errorf("strategy window: %w", err)
	}
	if c.Risk.SizeFraction <= 0 || c.Risk.SizeFraction > 1 {
		return fmt.Errorf("risk.size_fraction must be between 0 and 1")
	}
	if c.Risk.StopPct <= 0 || c.Risk.StopPct >= 1 {
		return fmt.Errorf("risk.stop_pct must be between 0 and 1")
	}
	if c.Risk.RiskReward <= 0 {
		return fmt.Errorf("risk.risk_reward must be positive")
	}
	if c.Risk.CommissionRate < 0 {
		return fmt.Errorf("risk.commission_rate must not be negative")
	}
	if _, err := c.Reconcile.ParseInterval(); err != nil {
		return fmt.Errorf("reconcile.interval: %w", err)
	}
	if c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && (c.Journal.FillsFile == "" || c.Journal.PerformanceFile == "") {
		return fmt.Errorf("journal fills_file and performance_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	return nil
}

// Window builds the trading window from the strategy section.
func (c *Config) Window() (market.Window, error) {
	start, end := c.Strategy.WindowStart, c.Strategy.WindowEnd
	if start == "" {
		start = "09:30"
	}
	if end == "" {
		end = "11:00"
	}
	return market.NewWindow(start, end)
}

// DetectorConfig maps the strategy section onto detector parameters.
func (c *Config) DetectorConfig() (detector.Config, error) {
	w, err := c.Window()
	if err != nil {
		return detector.Config{}, err
	}
	return detector.Config{
		Lookback:            c.Strategy.Lookback,
		BreakoutThreshold:   c.Strategy.BreakoutThreshold,
		RetestTolerance:     c.Strategy.RetestTolerance,
		RequireConfirmation: c.Strategy.RequireConfirmation,
		WickRatio:           c.Strategy.WickRatio,
		Window:              w,
	}, nil
}

// EngineConfig maps the risk section onto engine parameters.
func (c *Config) EngineConfig() (engine.Config, error) {
	w, err := c.Window()
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{
		SizeFraction:   c.Risk.SizeFraction,
		StopPct:        c.Risk.StopPct,
		RiskReward:     c.Risk.RiskReward,
		CommissionRate: c.Risk.CommissionRate,
		Window:         w,
		Policy: risk.Policy{
			MaxOpenPositions: c.Risk.MaxOpenPositions,
			MinRR:            c.Risk.MinRR,
			MaxDailyLossPct:  c.Risk.MaxDailyLossPct,
		},
	}, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:   "FALCON-001",
			Cash: 10000,
		},
		Strategy: StrategyConfig{
			Symbols:           []string{"TSLA"},
			Lookback:          20,
			BreakoutThreshold: 0.001,
			RetestTolerance:   0.003,
			WickRatio:         0.5,
			WindowStart:       "09:30",
			WindowEnd:         "11:00",
		},
		Risk: RiskConfig{
			SizeFraction:     0.20,
			StopPct:          0.02,
			RiskReward:       2.0,
			CommissionRate:   0.001,
			MaxOpenPositions: 5,
			MinRR:            1.5,
		},
		Reconcile: ReconcileConfig{
			Interval: "15m",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./falcon.db",
		},
	}
}

// Package config provides configuration management for the backtester.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	errs "options-backtester/internal/errors"
	"options-backtester/internal/models"
	"options-backtester/pkg/utils"
)

// Config holds all application configuration.
type Config struct {
	Backtest   BacktestConfig  `mapstructure:"backtest"`
	Thresholds ThresholdConfig `mapstructure:"thresholds"`
	Strategy   StrategyConfig  `mapstructure:"strategy"`
	Margin     MarginConfig    `mapstructure:"margin"`
	Signals    SignalConfig    `mapstructure:"signals"`
	Data       DataConfig      `mapstructure:"data"`
}

// BacktestConfig holds run-level parameters.
type BacktestConfig struct {
	Ticker        string  `mapstructure:"ticker"`
	StartDate     string  `mapstructure:"start_date"` // YYYY-MM-DD
	EndDate       string  `mapstructure:"end_date"`
	SessionCutoff string  `mapstructure:"session_cutoff"` // HH:MM, positions force-closed here
	FeeRate       float64 `mapstructure:"fee_rate"`
	Workers       int     `mapstructure:"workers"`
	RetryBudget   int     `mapstructure:"retry_budget"` // forward-scan attempts per quote lookup
}

// ThresholdConfig holds raw stop-loss / target-profit inputs. Percentage
// values are multipliers centered at 1.0 (1.0 = breakeven premium).
type ThresholdConfig struct {
	StopLoss         float64 `mapstructure:"stop_loss"`
	TargetProfit     float64 `mapstructure:"target_profit"`
	SLPercentageBase bool    `mapstructure:"sl_percentage_based"`
	TPPercentageBase bool    `mapstructure:"tp_percentage_based"`
}

// StrategyConfig selects the strategy kind and its instrument mappings.
// Directional strategies map long/short signal categories to instrument
// lists; spread strategies use one flat list, either given inline or
// expanded from a named template.
type StrategyConfig struct {
	Kind     models.StrategyKind     `mapstructure:"kind"`
	Template string                  `mapstructure:"template"`
	Long     []models.InstrumentSpec `mapstructure:"long"`
	Short    []models.InstrumentSpec `mapstructure:"short"`
	Spread   []models.InstrumentSpec `mapstructure:"spread"`
}

// MarginConfig holds the margin conventions applied when building legs.
type MarginConfig struct {
	PerLot   float64 `mapstructure:"per_lot"`   // fixed block reserved per sold lot
	LotUnits float64 `mapstructure:"lot_units"` // contract units per lot for bought legs
}

// SignalConfig selects the futures-signal builder.
type SignalConfig struct {
	Builder    string   `mapstructure:"builder"` // sma, rsi, tags
	Window     int      `mapstructure:"window"`
	Tags       []string `mapstructure:"tags"`
	LowerLimit float64  `mapstructure:"lower_limit"`
	UpperLimit float64  `mapstructure:"upper_limit"`
}

// DataConfig holds data directory locations.
type DataConfig struct {
	Dir string `mapstructure:"dir"` // parquet quote/futures tables
	DB  string `mapstructure:"db"`  // sqlite trade ledger
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-backtester"
	}
	return filepath.Join(home, ".config", "options-backtester")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("backtest")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading backtest.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing backtest.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".local", "share", "options-backtester")

	v.SetDefault("backtest.ticker", "BANKNIFTY")
	v.SetDefault("backtest.session_cutoff", "15:15")
	v.SetDefault("backtest.fee_rate", 0.001)
	v.SetDefault("backtest.workers", 8)
	v.SetDefault("backtest.retry_budget", 10)

	v.SetDefault("thresholds.stop_loss", 1.1)
	v.SetDefault("thresholds.target_profit", 0.8)
	v.SetDefault("thresholds.sl_percentage_based", true)
	v.SetDefault("thresholds.tp_percentage_based", true)

	v.SetDefault("strategy.kind", "spread")
	v.SetDefault("strategy.template", "short_straddle")

	v.SetDefault("margin.per_lot", 100000.0)
	v.SetDefault("margin.lot_units", 15.0)

	v.SetDefault("signals.builder", "sma")
	v.SetDefault("signals.window", 20)
	v.SetDefault("signals.lower_limit", 30.0)
	v.SetDefault("signals.upper_limit", 70.0)

	v.SetDefault("data.dir", filepath.Join(dataDir, "data"))
	v.SetDefault("data.db", filepath.Join(dataDir, "ledger.db"))
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BACKTESTER_TICKER"); v != "" {
		cfg.Backtest.Ticker = v
	}
	if v := os.Getenv("BACKTESTER_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("BACKTESTER_DB"); v != "" {
		cfg.Data.DB = v
	}
}

// invalid builds a config failure carrying both the sentinel and the field
// detail, so callers can match either.
func invalid(field string, value interface{}, message string) error {
	return fmt.Errorf("%w: %w", errs.ErrConfigInvalid, errs.NewValidationError(field, value, message))
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Backtest.Ticker == "" {
		return invalid("backtest.ticker", "", "ticker is required")
	}
	if c.Backtest.FeeRate < 0 || c.Backtest.FeeRate > 0.1 {
		return invalid("backtest.fee_rate", c.Backtest.FeeRate, "must be in [0, 0.1]")
	}
	if c.Backtest.Workers <= 0 {
		return invalid("backtest.workers", c.Backtest.Workers, "must be positive")
	}
	if c.Backtest.RetryBudget <= 0 {
		return invalid("backtest.retry_budget", c.Backtest.RetryBudget, "must be positive")
	}
	if err := c.validateSessionCutoff(); err != nil {
		return err
	}

	if c.Backtest.StartDate != "" {
		start, err := time.Parse("2006-01-02", c.Backtest.StartDate)
		if err != nil {
			return invalid("backtest.start_date", c.Backtest.StartDate, "expected YYYY-MM-DD")
		}
		if c.Backtest.EndDate != "" {
			end, err := time.Parse("2006-01-02", c.Backtest.EndDate)
			if err != nil {
				return invalid("backtest.end_date", c.Backtest.EndDate, "expected YYYY-MM-DD")
			}
			if end.Before(start) {
				return invalid("backtest.end_date", c.Backtest.EndDate, "must not precede start_date")
			}
		}
	}

	if err := c.validateThresholds(); err != nil {
		return err
	}
	return c.validateInstruments()
}

// validateSessionCutoff rejects force-close times outside market hours; a
// cutoff before the open would close every position the second it entered.
func (c *Config) validateSessionCutoff() error {
	cutoff, err := ParseSessionTime(c.Backtest.SessionCutoff)
	if err != nil {
		return invalid("backtest.session_cutoff", c.Backtest.SessionCutoff, err.Error())
	}

	ref := time.Now().In(utils.IndiaLocation)
	open := utils.TimeOfDay(utils.SessionOpen(ref))
	end := utils.TimeOfDay(utils.SessionClose(ref))
	if cutoff <= open || cutoff > end {
		return invalid("backtest.session_cutoff", c.Backtest.SessionCutoff, "must fall inside session hours")
	}
	return nil
}

// validateThresholds enforces the percentage-multiplier framing: values are
// centered at 1.0, stop-loss widens away from breakeven and target-profit
// tightens toward it. Out-of-range multipliers would flip the debit formulas
// negative.
func (c *Config) validateThresholds() error {
	t := c.Thresholds
	if t.SLPercentageBase {
		if t.StopLoss < 1 || t.StopLoss >= 2 {
			return invalid("thresholds.stop_loss", t.StopLoss, "percentage stop_loss must be in [1, 2)")
		}
	} else if t.StopLoss < 0 {
		return invalid("thresholds.stop_loss", t.StopLoss, "fixed stop_loss must be non-negative")
	}
	if t.TPPercentageBase {
		if t.TargetProfit <= 0 || t.TargetProfit > 1 {
			return invalid("thresholds.target_profit", t.TargetProfit, "percentage target_profit must be in (0, 1]")
		}
	} else if t.TargetProfit < 0 {
		return invalid("thresholds.target_profit", t.TargetProfit, "fixed target_profit must be non-negative")
	}
	return nil
}

func (c *Config) validateInstruments() error {
	check := func(name string, specs []models.InstrumentSpec) error {
		for i, s := range specs {
			field := fmt.Sprintf("%s[%d]", name, i)
			if s.Lots <= 0 {
				return invalid(field, s.Lots, "lots must be positive")
			}
			if s.OptionType != models.Call && s.OptionType != models.Put {
				return invalid(field, string(s.OptionType), "option_type must be CE or PE")
			}
			if s.Action != models.Buy && s.Action != models.Sell {
				return invalid(field, string(s.Action), "action must be buy or sell")
			}
		}
		return nil
	}

	switch c.Strategy.Kind {
	case models.Directional:
		if len(c.Strategy.Long) == 0 && len(c.Strategy.Short) == 0 {
			return invalid("strategy", string(c.Strategy.Kind), "directional strategy needs a long or short instrument mapping")
		}
	case models.Spread:
		if len(c.Strategy.Spread) == 0 && c.Strategy.Template == "" {
			return invalid("strategy", string(c.Strategy.Kind), "spread strategy needs instruments or a template")
		}
	default:
		return invalid("strategy.kind", string(c.Strategy.Kind), "unknown strategy kind")
	}

	if err := check("strategy.long", c.Strategy.Long); err != nil {
		return err
	}
	if err := check("strategy.short", c.Strategy.Short); err != nil {
		return err
	}
	return check("strategy.spread", c.Strategy.Spread)
}

// ParseSessionTime parses an HH:MM time-of-day string.
func ParseSessionTime(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM: %w", err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

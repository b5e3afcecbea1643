// Package logging provides structured logging functionality.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"options-backtester/internal/models"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "options-backtester", "logs", "backtester.log"),
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		writers = append(writers, consoleWriter)
	}

	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			fileWriter := &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			}
			writers = append(writers, fileWriter)
		}
	}

	var writer io.Writer
	if len(writers) == 0 {
		writer = os.Stdout
	} else if len(writers) == 1 {
		writer = writers[0]
	} else {
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// WithDay adds a session date to the logger context.
func WithDay(logger zerolog.Logger, day time.Time) zerolog.Logger {
	return logger.With().Str("day", day.Format("2006-01-02")).Logger()
}

// WithTicker adds a ticker to the logger context.
func WithTicker(logger zerolog.Logger, ticker string) zerolog.Logger {
	return logger.With().Str("ticker", ticker).Logger()
}

// LogEntry logs a position entry event.
func LogEntry(logger zerolog.Logger, ts time.Time, premium, margin float64, kind models.PremiumKind, legs int) {
	logger.Info().
		Str("event", "entry").
		Time("timestamp", ts).
		Float64("entry_premium", premium).
		Float64("margin_used", margin).
		Str("premium_kind", string(kind)).
		Int("legs", legs).
		Msg("Position opened")
}

// LogExit logs a position close event.
func LogExit(logger zerolog.Logger, trade models.Trade) {
	logger.Info().
		Str("event", "exit").
		Time("entry", trade.EntryTimestamp).
		Time("exit", trade.ExitTimestamp).
		Str("reason", string(trade.ExitReason)).
		Float64("pnl", trade.PnL).
		Float64("transaction_cost", trade.TransactionCost).
		Msg("Position closed")
}

// LogAbandoned logs a position abandoned due to missing quotes.
func LogAbandoned(logger zerolog.Logger, ts time.Time) {
	logger.Warn().
		Str("event", "abandoned").
		Time("timestamp", ts).
		Msg("Position abandoned: quote gap exceeded retry budget")
}

// LogDay logs a completed session run.
func LogDay(logger zerolog.Logger, day time.Time, trades, uncounted int, dur time.Duration) {
	logger.Info().
		Str("event", "day_done").
		Str("day", day.Format("2006-01-02")).
		Int("trades", trades).
		Int("uncounted", uncounted).
		Dur("duration", dur).
		Msg("Session backtest complete")
}

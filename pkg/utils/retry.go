package utils

import (
	"errors"
	"time"
)

// ErrProbeExhausted is returned when a forward probe uses up its attempt
// budget without finding a value.
var ErrProbeExhausted = errors.New("probe attempts exhausted")

// ProbeConfig bounds a forward scan over a sparse time index. Every probed
// timestamp costs one attempt whether or not data exists there, so a probe
// never scans more than MaxAttempts steps past its starting point.
type ProbeConfig struct {
	MaxAttempts int
	Step        time.Duration
}

// DefaultProbeConfig returns the default probe configuration: ten one-second
// attempts.
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{
		MaxAttempts: 10,
		Step:        time.Second,
	}
}

// ProbeForward walks the time index forward from start, calling fn at each
// step until it reports a hit. It returns the found value and the timestamp
// it was found at. Scanning is strictly forward; data gaps are skipped one
// step at a time.
func ProbeForward[T any](start time.Time, cfg ProbeConfig, fn func(time.Time) (T, bool)) (T, time.Time, error) {
	var zero T
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultProbeConfig().MaxAttempts
	}
	if cfg.Step <= 0 {
		cfg.Step = DefaultProbeConfig().Step
	}

	ts := start
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if v, ok := fn(ts); ok {
			return v, ts, nil
		}
		ts = ts.Add(cfg.Step)
	}
	return zero, ts, ErrProbeExhausted
}

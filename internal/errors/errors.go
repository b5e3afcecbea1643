// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Standard sentinel errors
var (
	ErrMissingQuote        = errors.New("no quote within retry budget")
	ErrLegUnavailable      = errors.New("leg unavailable")
	ErrNoInstrumentMapping = errors.New("no instrument mapping for signal")
	ErrNoData              = errors.New("no data for session")
	ErrNoSignals           = errors.New("no signals for session")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrDatabaseError       = errors.New("database error")
)

// QuoteError reports a failed quote lookup for a specific instrument.
type QuoteError struct {
	StrikePrice float64
	OptionType  string
	Timestamp   time.Time
	Attempts    int
	Err         error
}

func (e *QuoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("quote error [%.0f %s] at %s after %d attempts: %v",
			e.StrikePrice, e.OptionType, e.Timestamp.Format("15:04:05"), e.Attempts, e.Err)
	}
	return fmt.Sprintf("quote error [%.0f %s] at %s after %d attempts",
		e.StrikePrice, e.OptionType, e.Timestamp.Format("15:04:05"), e.Attempts)
}

func (e *QuoteError) Unwrap() error {
	return e.Err
}

// NewQuoteError creates a new QuoteError.
func NewQuoteError(strike float64, optType string, ts time.Time, attempts int, err error) *QuoteError {
	return &QuoteError{
		StrikePrice: strike,
		OptionType:  optType,
		Timestamp:   ts,
		Attempts:    attempts,
		Err:         err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Ticker   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Ticker, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Ticker, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, ticker, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Ticker:   ticker,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

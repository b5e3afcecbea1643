package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	errs "options-backtester/internal/errors"
	"options-backtester/internal/models"
)

func TestReadQuotesMissingFile(t *testing.T) {
	s := NewParquetStore(t.TempDir())

	quotes, err := s.ReadQuotes(context.Background(), "BANKNIFTY", time.Date(2023, 4, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadQuotes: %v", err)
	}
	if quotes != nil {
		t.Errorf("got %d quotes for a dataless day, want none", len(quotes))
	}
}

func TestReadQuotesCorruptFile(t *testing.T) {
	day := time.Date(2023, 4, 3, 0, 0, 0, 0, time.UTC)
	s := NewParquetStore(t.TempDir())

	path := s.optionsPath("BANKNIFTY", day)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte("not a parquet file"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := s.ReadQuotes(context.Background(), "BANKNIFTY", day)
	var de *errs.DataError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want a DataError", err)
	}
	if de.DataType != "options" || de.Ticker != "BANKNIFTY" {
		t.Errorf("DataError = %+v", de)
	}
}

func TestQuotesRoundTrip(t *testing.T) {
	day := time.Date(2023, 4, 3, 0, 0, 0, 0, time.UTC)
	ts := day.Add(10 * time.Hour)
	s := NewParquetStore(t.TempDir())

	in := []models.Quote{
		{Timestamp: ts.Add(time.Second), StrikePrice: 43000, OptionType: models.Put, OptionPrice: 100, SpotPrice: 43010},
		{Timestamp: ts, StrikePrice: 43000, OptionType: models.Call, OptionPrice: 120, Delta: 0.5, IV: 20, SpotPrice: 43010},
	}
	if err := s.WriteQuotes(context.Background(), "BANKNIFTY", day, in); err != nil {
		t.Fatalf("WriteQuotes: %v", err)
	}

	out, err := s.ReadQuotes(context.Background(), "BANKNIFTY", day)
	if err != nil {
		t.Fatalf("ReadQuotes: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d quotes, want 2", len(out))
	}
	// Rows come back in timestamp order regardless of write order.
	if out[0].OptionType != models.Call || out[0].OptionPrice != 120 {
		t.Errorf("first row = %+v", out[0])
	}
	if !out[1].Timestamp.Equal(ts.Add(time.Second)) {
		t.Errorf("second row timestamp = %v", out[1].Timestamp)
	}

	days, err := s.Days("BANKNIFTY")
	if err != nil {
		t.Fatalf("Days: %v", err)
	}
	if len(days) != 1 || !days[0].Equal(time.Date(2023, 4, 3, 0, 0, 0, 0, days[0].Location())) {
		t.Errorf("Days = %v", days)
	}
}

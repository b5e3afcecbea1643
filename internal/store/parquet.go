package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	errs "options-backtester/internal/errors"
	"options-backtester/internal/models"
	"options-backtester/internal/signals"
	"options-backtester/pkg/utils"
)

// Compile-time interface check.
var _ QuoteStore = (*ParquetStore)(nil)

// ParquetStore implements QuoteStore with one parquet file per session day:
//
//	<DataDir>/<TICKER>/options/<YYYY-MM-DD>.parquet
//	<DataDir>/<TICKER>/futures/<YYYY-MM-DD>.parquet
//	<DataDir>/<TICKER>/signals/<YYYY-MM-DD>.parquet
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// QuoteRecord is the parquet schema for one option quote row.
type QuoteRecord struct {
	Timestamp   int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	StrikePrice float64 `parquet:"strike_price"`
	OptionType  string  `parquet:"option_type"`
	OptionPrice float64 `parquet:"option_price"`
	Delta       float64 `parquet:"delta"`
	Gamma       float64 `parquet:"gamma"`
	Theta       float64 `parquet:"theta"`
	IV          float64 `parquet:"iv"`
	SpotPrice   float64 `parquet:"spot_price"`
}

// FuturesRecord is the parquet schema for one futures tick.
type FuturesRecord struct {
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Close     float64 `parquet:"close"`
	Volume    int64   `parquet:"volume"`
	OI        int64   `parquet:"oi"`
}

func (s *ParquetStore) optionsPath(ticker string, day time.Time) string {
	return filepath.Join(s.DataDir, strings.ToUpper(ticker), "options", day.Format("2006-01-02")+".parquet")
}

func (s *ParquetStore) futuresPath(ticker string, day time.Time) string {
	return filepath.Join(s.DataDir, strings.ToUpper(ticker), "futures", day.Format("2006-01-02")+".parquet")
}

func (s *ParquetStore) signalsPath(ticker string, day time.Time) string {
	return filepath.Join(s.DataDir, strings.ToUpper(ticker), "signals", day.Format("2006-01-02")+".parquet")
}

// WriteQuotes writes one day's option quotes, replacing any existing file.
func (s *ParquetStore) WriteQuotes(_ context.Context, ticker string, day time.Time, quotes []models.Quote) error {
	records := make([]QuoteRecord, 0, len(quotes))
	for _, q := range quotes {
		records = append(records, QuoteRecord{
			Timestamp:   q.Timestamp.UnixMilli(),
			StrikePrice: q.StrikePrice,
			OptionType:  string(q.OptionType),
			OptionPrice: q.OptionPrice,
			Delta:       q.Delta,
			Gamma:       q.Gamma,
			Theta:       q.Theta,
			IV:          q.IV,
			SpotPrice:   q.SpotPrice,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp < records[j].Timestamp })

	if err := writeParquetFile(s.optionsPath(ticker, day), records); err != nil {
		return fmt.Errorf("writing quotes for %s %s: %w", ticker, day.Format("2006-01-02"), err)
	}
	return nil
}

// ReadQuotes reads one day's option quotes. A missing file yields an empty
// slice and no error; a day without data is an ordinary outcome.
func (s *ParquetStore) ReadQuotes(_ context.Context, ticker string, day time.Time) ([]models.Quote, error) {
	path := s.optionsPath(ticker, day)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	records, err := readParquetFile[QuoteRecord](path)
	if err != nil {
		return nil, errs.NewDataError("options", ticker, "reading "+day.Format("2006-01-02"), err)
	}

	quotes := make([]models.Quote, 0, len(records))
	for _, r := range records {
		quotes = append(quotes, models.Quote{
			Timestamp:   time.UnixMilli(r.Timestamp).In(utils.IndiaLocation),
			StrikePrice: r.StrikePrice,
			OptionType:  models.OptionType(r.OptionType),
			OptionPrice: r.OptionPrice,
			Delta:       r.Delta,
			Gamma:       r.Gamma,
			Theta:       r.Theta,
			IV:          r.IV,
			SpotPrice:   r.SpotPrice,
		})
	}
	return quotes, nil
}

// WriteFutures writes one day's futures ticks, replacing any existing file.
func (s *ParquetStore) WriteFutures(_ context.Context, ticker string, day time.Time, ticks []models.FuturesTick) error {
	records := make([]FuturesRecord, 0, len(ticks))
	for _, t := range ticks {
		records = append(records, FuturesRecord{
			Timestamp: t.Timestamp.UnixMilli(),
			Close:     t.Close,
			Volume:    t.Volume,
			OI:        t.OI,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp < records[j].Timestamp })

	if err := writeParquetFile(s.futuresPath(ticker, day), records); err != nil {
		return fmt.Errorf("writing futures for %s %s: %w", ticker, day.Format("2006-01-02"), err)
	}
	return nil
}

// ReadFutures reads one day's futures ticks. A missing file yields an empty
// slice and no error.
func (s *ParquetStore) ReadFutures(_ context.Context, ticker string, day time.Time) ([]models.FuturesTick, error) {
	path := s.futuresPath(ticker, day)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	records, err := readParquetFile[FuturesRecord](path)
	if err != nil {
		return nil, errs.NewDataError("futures", ticker, "reading "+day.Format("2006-01-02"), err)
	}

	ticks := make([]models.FuturesTick, 0, len(records))
	for _, r := range records {
		ticks = append(ticks, models.FuturesTick{
			Timestamp: time.UnixMilli(r.Timestamp).In(utils.IndiaLocation),
			Close:     r.Close,
			Volume:    r.Volume,
			OI:        r.OI,
		})
	}
	return ticks, nil
}

// signalRecord flattens signals.Record for parquet; optional booleans are
// stored with a presence flag so missing columns survive the round trip.
type signalRecord struct {
	Timestamp  int64 `parquet:"timestamp,timestamp(millisecond)"`
	LongEntry  *bool `parquet:"long_entry,optional"`
	ShortEntry *bool `parquet:"short_entry,optional"`
	Entry      *bool `parquet:"entry_signal,optional"`
	LongExit   *bool `parquet:"long_exit,optional"`
	ShortExit  *bool `parquet:"short_exit,optional"`
	Exit       *bool `parquet:"exit_signal,optional"`
}

// WriteSignals writes one day's precomputed signal rows.
func (s *ParquetStore) WriteSignals(_ context.Context, ticker string, day time.Time, recs []signals.Record) error {
	records := make([]signalRecord, 0, len(recs))
	for _, r := range recs {
		records = append(records, signalRecord{
			Timestamp:  r.Timestamp.UnixMilli(),
			LongEntry:  r.LongEntry,
			ShortEntry: r.ShortEntry,
			Entry:      r.Entry,
			LongExit:   r.LongExit,
			ShortExit:  r.ShortExit,
			Exit:       r.Exit,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp < records[j].Timestamp })

	if err := writeParquetFile(s.signalsPath(ticker, day), records); err != nil {
		return fmt.Errorf("writing signals for %s %s: %w", ticker, day.Format("2006-01-02"), err)
	}
	return nil
}

// ReadSignals reads one day's precomputed signal rows; nil when absent.
func (s *ParquetStore) ReadSignals(_ context.Context, ticker string, day time.Time) ([]signals.Record, error) {
	path := s.signalsPath(ticker, day)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	records, err := readParquetFile[signalRecord](path)
	if err != nil {
		return nil, errs.NewDataError("signals", ticker, "reading "+day.Format("2006-01-02"), err)
	}

	out := make([]signals.Record, 0, len(records))
	for _, r := range records {
		out = append(out, signals.Record{
			Timestamp:  time.UnixMilli(r.Timestamp).In(utils.IndiaLocation),
			LongEntry:  r.LongEntry,
			ShortEntry: r.ShortEntry,
			Entry:      r.Entry,
			LongExit:   r.LongExit,
			ShortExit:  r.ShortExit,
			Exit:       r.Exit,
		})
	}
	return out, nil
}

// Days lists the session dates with an options file for the ticker, sorted
// ascending.
func (s *ParquetStore) Days(ticker string) ([]time.Time, error) {
	dir := filepath.Join(s.DataDir, strings.ToUpper(ticker), "options")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing sessions for %s: %w", ticker, err)
	}

	var days []time.Time
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".parquet")
		if name == e.Name() {
			continue
		}
		day, err := time.ParseInLocation("2006-01-02", name, utils.IndiaLocation)
		if err != nil {
			continue
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

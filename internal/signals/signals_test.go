package signals

import (
	"testing"
	"time"

	"options-backtester/internal/models"
)

var base = time.Date(2023, 4, 3, 9, 30, 0, 0, time.UTC)

func boolPtr(b bool) *bool { return &b }

func TestFromRecordsCleansNulls(t *testing.T) {
	recs := []Record{
		{Timestamp: base.Add(time.Minute), LongEntry: boolPtr(true)},
		{Timestamp: base, LongEntry: nil, ShortEntry: boolPtr(false), Exit: nil},
	}

	frame := FromRecords(recs)

	if len(frame.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(frame.Rows))
	}
	// Sorted by timestamp.
	if !frame.Rows[0].Timestamp.Equal(base) {
		t.Error("rows not sorted by timestamp")
	}
	// Null booleans are false.
	first := frame.Rows[0]
	if first.LongEntry || first.ShortEntry || first.Entry || first.Exit {
		t.Errorf("null booleans should clean to false, got %+v", first)
	}
	if !frame.Rows[1].LongEntry {
		t.Error("set boolean lost in cleaning")
	}
}

func TestClassifyDirectional(t *testing.T) {
	cases := []struct {
		name  string
		row   Row
		side  Category
		entry bool
	}{
		{"long only", Row{LongEntry: true}, CategoryLong, true},
		{"short only", Row{ShortEntry: true}, CategoryShort, true},
		{"both, long wins", Row{LongEntry: true, ShortEntry: true}, CategoryLong, true},
		{"neither", Row{}, CategoryNothing, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Classify(Frame{Rows: []Row{tc.row}}, models.Directional)
			if out[0].Side != tc.side || out[0].Entry != tc.entry {
				t.Errorf("Classify = (%s, %v), want (%s, %v)", out[0].Side, out[0].Entry, tc.side, tc.entry)
			}
		})
	}
}

func TestClassifySpread(t *testing.T) {
	rows := []Row{
		{LongEntry: true},
		{ShortEntry: true},
		{Entry: true},
		{},
	}
	out := Classify(Frame{Rows: rows}, models.Spread)

	want := []bool{true, true, true, false}
	for i, w := range want {
		if out[i].Entry != w {
			t.Errorf("row %d: Entry = %v, want %v", i, out[i].Entry, w)
		}
		if out[i].Side != CategoryNothing {
			t.Errorf("row %d: spread rows must not carry a side", i)
		}
	}
}

func TestEntries(t *testing.T) {
	rows := []Classified{
		{Timestamp: base, Entry: true},
		{Timestamp: base.Add(time.Second), Exit: true},
		{Timestamp: base.Add(2 * time.Second)},
		{Timestamp: base.Add(3 * time.Second), Entry: true, Side: CategoryLong},
	}

	got := Entries(rows)
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if !got[0].Timestamp.Equal(base) || !got[1].Timestamp.Equal(base.Add(3*time.Second)) {
		t.Errorf("unexpected rows: %+v", got)
	}
	if got[1].Side != CategoryLong {
		t.Errorf("Side = %v, want CategoryLong", got[1].Side)
	}
}

func TestFromSMA(t *testing.T) {
	candles := []models.Candle{
		{Timestamp: base, Close: 100},
		{Timestamp: base.Add(time.Minute), Close: 102},
		{Timestamp: base.Add(2 * time.Minute), Close: 110},
		{Timestamp: base.Add(3 * time.Minute), Close: 90},
	}

	frame := FromSMA(candles, 2)

	// First row has no filled window, no signal either way.
	if frame.Rows[0].Entry || frame.Rows[0].Exit {
		t.Error("expected no signal before the window fills")
	}
	if !frame.Rows[2].Entry {
		t.Error("close above SMA should raise entry")
	}
	if !frame.Rows[3].Exit {
		t.Error("close below SMA should raise exit")
	}
}

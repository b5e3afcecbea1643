package position

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-backtester/internal/models"
)

func TestProperty_PremiumClassification(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	entryTS := time.Date(2023, 4, 3, 9, 30, 0, 0, time.UTC)
	inputs := ThresholdInputs{StopLoss: 1.1, TargetProfit: 0.8, SLPercentage: true, TPPercentage: true}

	// Property: a position is credit exactly when its signed entry premium
	// is negative
	properties.Property("Credit iff entry premium negative", prop.ForAll(
		func(prices []float64) bool {
			if len(prices) == 0 {
				return true
			}
			legs := make([]models.Leg, len(prices))
			for i, p := range prices {
				legs[i] = models.Leg{EntryPrice: p, LotSize: 1}
			}

			pos := New(entryTS, legs, inputs)
			if pos.EntryPremium < 0 {
				return pos.StrategyType == models.Credit
			}
			return pos.StrategyType == models.Debit
		},
		gen.SliceOfN(4, gen.Float64Range(-500, 500)),
	))

	// Property: percentage thresholds scale with |premium| on both sides
	properties.Property("Percentage thresholds bracket the entry premium", prop.ForAll(
		func(premium, slv, tpv float64) bool {
			if premium == 0 {
				return true
			}
			sl, tp := ResolveThresholds(premium, ThresholdInputs{
				StopLoss: slv, TargetProfit: tpv,
				SLPercentage: true, TPPercentage: true,
			})
			abs := math.Abs(premium)

			if premium < 0 {
				// credit: stop above entry, target below
				return sl >= abs && tp <= abs
			}
			// debit: stop below entry, target above
			return sl <= abs && tp >= abs
		},
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(1, 1.99),
		gen.Float64Range(0.01, 1),
	))

	// Property: fixed thresholds offset |premium| by the configured amounts
	properties.Property("Fixed thresholds offset the entry premium", prop.ForAll(
		func(premium, slv, tpv float64) bool {
			sl, tp := ResolveThresholds(premium, ThresholdInputs{
				StopLoss: slv, TargetProfit: tpv,
			})
			abs := math.Abs(premium)

			if premium < 0 {
				return nearlyEqual(sl, abs+slv) && nearlyEqual(tp, abs-tpv)
			}
			return nearlyEqual(sl, abs-slv) && nearlyEqual(tp, abs+tpv)
		},
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestResolveThresholdsExamples(t *testing.T) {
	cases := []struct {
		name    string
		premium float64
		inputs  ThresholdInputs
		sl, tp  float64
	}{
		{
			name:    "credit percentage",
			premium: -200,
			inputs:  ThresholdInputs{StopLoss: 1.1, TargetProfit: 0.8, SLPercentage: true, TPPercentage: true},
			sl:      220, tp: 160,
		},
		{
			name:    "credit fixed",
			premium: -200,
			inputs:  ThresholdInputs{StopLoss: 30, TargetProfit: 50},
			sl:      230, tp: 150,
		},
		{
			name:    "debit percentage",
			premium: 200,
			inputs:  ThresholdInputs{StopLoss: 1.1, TargetProfit: 0.8, SLPercentage: true, TPPercentage: true},
			sl:      180, tp: 240,
		},
		{
			name:    "debit fixed",
			premium: 200,
			inputs:  ThresholdInputs{StopLoss: 30, TargetProfit: 50},
			sl:      170, tp: 250,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sl, tp := ResolveThresholds(tc.premium, tc.inputs)
			if !nearlyEqual(sl, tc.sl) || !nearlyEqual(tp, tc.tp) {
				t.Errorf("ResolveThresholds(%v) = (%v, %v), want (%v, %v)",
					tc.premium, sl, tp, tc.sl, tc.tp)
			}
		})
	}
}

func TestCheckThresholds(t *testing.T) {
	entryTS := time.Date(2023, 4, 3, 9, 30, 0, 0, time.UTC)

	newPos := func(entry float64) *Position {
		return New(entryTS, []models.Leg{{EntryPrice: entry, LotSize: 1}},
			ThresholdInputs{StopLoss: 1.1, TargetProfit: 0.8, SLPercentage: true, TPPercentage: true})
	}

	cases := []struct {
		name    string
		entry   float64
		exit    float64
		reason  models.ExitReason
		hit     bool
	}{
		{"credit holds between thresholds", -200, -200, "", false},
		{"credit stop-loss at threshold", -200, -220, models.ExitStopLoss, true},
		{"credit stop-loss past threshold", -200, -260, models.ExitStopLoss, true},
		{"credit target at threshold", -200, -160, models.ExitTargetProfit, true},
		{"debit holds between thresholds", 200, 200, "", false},
		{"debit stop-loss", 200, 170, models.ExitStopLoss, true},
		{"debit target", 200, 245, models.ExitTargetProfit, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos := newPos(tc.entry)
			pos.Legs[0].ExitPrice = tc.exit
			pos.ComputeExitPremium()

			reason, hit := pos.CheckThresholds()
			if hit != tc.hit || reason != tc.reason {
				t.Errorf("CheckThresholds() = (%q, %v), want (%q, %v)", reason, hit, tc.reason, tc.hit)
			}
		})
	}
}

// When stop-loss and target-profit are both satisfiable at the same mark,
// stop-loss must win.
func TestStopLossWinsTies(t *testing.T) {
	entryTS := time.Date(2023, 4, 3, 9, 30, 0, 0, time.UTC)
	// Fixed thresholds of zero put both bounds at |entry premium|.
	pos := New(entryTS, []models.Leg{{EntryPrice: -200, LotSize: 1}},
		ThresholdInputs{StopLoss: 0, TargetProfit: 0})

	pos.Legs[0].ExitPrice = -200
	pos.ComputeExitPremium()

	reason, hit := pos.CheckThresholds()
	if !hit || reason != models.ExitStopLoss {
		t.Errorf("CheckThresholds() = (%q, %v), want (%q, true)", reason, hit, models.ExitStopLoss)
	}
}

func TestCloseFreezesLegs(t *testing.T) {
	entryTS := time.Date(2023, 4, 3, 9, 30, 0, 0, time.UTC)
	exitTS := entryTS.Add(45 * time.Minute)

	pos := New(entryTS, []models.Leg{
		{EntryPrice: -120, ExitPrice: -80, LotSize: 1},
		{EntryPrice: -80, ExitPrice: -60, LotSize: 1},
	}, ThresholdInputs{StopLoss: 1.1, TargetProfit: 0.8, SLPercentage: true, TPPercentage: true})
	pos.ComputeExitPremium()

	trade := pos.Close(exitTS, models.ExitTargetProfit, 0.001)

	if trade.PnL != 60 {
		t.Errorf("PnL = %v, want 60", trade.PnL)
	}
	wantCost := (math.Abs(-120-80) + math.Abs(-80-60)) * 0.001
	if !nearlyEqual(trade.TransactionCost, wantCost) {
		t.Errorf("TransactionCost = %v, want %v", trade.TransactionCost, wantCost)
	}

	// Mutating the position afterwards must not leak into the trade.
	pos.Legs[0].ExitPrice = -999
	if trade.Legs[0].ExitPrice == -999 {
		t.Error("trade legs alias the live position")
	}
}

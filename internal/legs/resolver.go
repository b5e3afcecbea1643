package legs

import (
	"time"

	"options-backtester/internal/chain"
	errs "options-backtester/internal/errors"
	"options-backtester/internal/models"
)

// Resolver expands instrument specs into concrete legs around an ATM strike.
type Resolver struct {
	builder *Builder
}

// NewResolver creates a Resolver.
func NewResolver(builder *Builder) *Resolver {
	return &Resolver{builder: builder}
}

// Resolve builds one leg per spec at strike = atm + offset, and returns the
// chain restricted to exactly the position's instruments and truncated to
// timestamps at or after entry. Exit polling runs against that filtered view
// so it never re-scans the full chain.
func (r *Resolver) Resolve(table *chain.Table, ts time.Time, atmStrike float64, specs []models.InstrumentSpec) ([]models.Leg, *chain.Table, error) {
	if len(specs) == 0 {
		return nil, nil, errs.ErrNoInstrumentMapping
	}

	legs := make([]models.Leg, 0, len(specs))
	keys := make([]chain.Key, 0, len(specs))

	for _, spec := range specs {
		strike := atmStrike + spec.StrikeOffset
		key := chain.Key{StrikePrice: strike, OptionType: spec.OptionType}

		view := table.Filter([]chain.Key{key})
		leg, err := r.builder.Build(view, ts, strike, spec.Action, spec.OptionType, spec.Lots)
		if err != nil {
			return nil, nil, err
		}

		legs = append(legs, leg)
		keys = append(keys, key)
	}

	filtered := table.Filter(keys).Truncate(ts)
	return legs, filtered, nil
}

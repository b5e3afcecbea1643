package legs

import (
	"fmt"
	"sort"

	"options-backtester/internal/models"
)

// Strategy templates expand a name into the instrument specs of a standard
// multi-leg structure. Offsets are in underlying strike points (BANKNIFTY
// chains step by 100). Repeated contracts are expressed through the lot
// count, keeping (strike, type) unique within a position.
var templates = map[string][]models.InstrumentSpec{
	"long_call": {
		{StrikeOffset: 0, OptionType: models.Call, Action: models.Buy, Lots: 1},
	},
	"short_call": {
		{StrikeOffset: 0, OptionType: models.Call, Action: models.Sell, Lots: 1},
	},
	"long_put": {
		{StrikeOffset: 0, OptionType: models.Put, Action: models.Buy, Lots: 1},
	},
	"short_put": {
		{StrikeOffset: 0, OptionType: models.Put, Action: models.Sell, Lots: 1},
	},
	"short_straddle": {
		{StrikeOffset: 0, OptionType: models.Call, Action: models.Sell, Lots: 1},
		{StrikeOffset: 0, OptionType: models.Put, Action: models.Sell, Lots: 1},
	},
	"long_straddle": {
		{StrikeOffset: 0, OptionType: models.Call, Action: models.Buy, Lots: 1},
		{StrikeOffset: 0, OptionType: models.Put, Action: models.Buy, Lots: 1},
	},
	"short_strangle": {
		{StrikeOffset: 100, OptionType: models.Call, Action: models.Sell, Lots: 1},
		{StrikeOffset: -100, OptionType: models.Put, Action: models.Sell, Lots: 1},
	},
	"long_strangle": {
		{StrikeOffset: 100, OptionType: models.Call, Action: models.Buy, Lots: 1},
		{StrikeOffset: -100, OptionType: models.Put, Action: models.Buy, Lots: 1},
	},
	"bull_call_spread": {
		{StrikeOffset: 0, OptionType: models.Call, Action: models.Buy, Lots: 1},
		{StrikeOffset: 100, OptionType: models.Call, Action: models.Sell, Lots: 1},
	},
	"bear_call_spread": {
		{StrikeOffset: 0, OptionType: models.Call, Action: models.Sell, Lots: 1},
		{StrikeOffset: 100, OptionType: models.Call, Action: models.Buy, Lots: 1},
	},
	"bull_put_spread": {
		{StrikeOffset: 0, OptionType: models.Put, Action: models.Buy, Lots: 1},
		{StrikeOffset: -100, OptionType: models.Put, Action: models.Sell, Lots: 1},
	},
	"bear_put_spread": {
		{StrikeOffset: 0, OptionType: models.Put, Action: models.Sell, Lots: 1},
		{StrikeOffset: -100, OptionType: models.Put, Action: models.Buy, Lots: 1},
	},
	"iron_condor": {
		{StrikeOffset: 100, OptionType: models.Call, Action: models.Sell, Lots: 1},
		{StrikeOffset: 200, OptionType: models.Call, Action: models.Buy, Lots: 1},
		{StrikeOffset: -100, OptionType: models.Put, Action: models.Sell, Lots: 1},
		{StrikeOffset: -200, OptionType: models.Put, Action: models.Buy, Lots: 1},
	},
	"reverse_iron_condor": {
		{StrikeOffset: -200, OptionType: models.Call, Action: models.Buy, Lots: 1},
		{StrikeOffset: -100, OptionType: models.Call, Action: models.Sell, Lots: 1},
		{StrikeOffset: 100, OptionType: models.Call, Action: models.Sell, Lots: 1},
		{StrikeOffset: 200, OptionType: models.Call, Action: models.Buy, Lots: 1},
	},
	"short_iron_butterfly": {
		{StrikeOffset: 0, OptionType: models.Call, Action: models.Sell, Lots: 1},
		{StrikeOffset: 0, OptionType: models.Put, Action: models.Sell, Lots: 1},
		{StrikeOffset: 100, OptionType: models.Call, Action: models.Buy, Lots: 1},
		{StrikeOffset: -100, OptionType: models.Put, Action: models.Buy, Lots: 1},
	},
	"long_iron_butterfly": {
		{StrikeOffset: 0, OptionType: models.Call, Action: models.Buy, Lots: 1},
		{StrikeOffset: 0, OptionType: models.Put, Action: models.Buy, Lots: 1},
		{StrikeOffset: 100, OptionType: models.Call, Action: models.Sell, Lots: 1},
		{StrikeOffset: -100, OptionType: models.Put, Action: models.Sell, Lots: 1},
	},
	"ratio_call_spread": {
		{StrikeOffset: 0, OptionType: models.Call, Action: models.Buy, Lots: 1},
		{StrikeOffset: 100, OptionType: models.Call, Action: models.Sell, Lots: 2},
	},
	"ratio_put_spread": {
		{StrikeOffset: 0, OptionType: models.Put, Action: models.Buy, Lots: 1},
		{StrikeOffset: -100, OptionType: models.Put, Action: models.Sell, Lots: 2},
	},
	"call_butterfly": {
		{StrikeOffset: -100, OptionType: models.Call, Action: models.Buy, Lots: 1},
		{StrikeOffset: 0, OptionType: models.Call, Action: models.Sell, Lots: 2},
		{StrikeOffset: 100, OptionType: models.Call, Action: models.Buy, Lots: 1},
	},
	"put_butterfly": {
		{StrikeOffset: -100, OptionType: models.Put, Action: models.Buy, Lots: 1},
		{StrikeOffset: 0, OptionType: models.Put, Action: models.Sell, Lots: 2},
		{StrikeOffset: 100, OptionType: models.Put, Action: models.Buy, Lots: 1},
	},
	"long_call_ladder": {
		{StrikeOffset: 0, OptionType: models.Call, Action: models.Buy, Lots: 1},
		{StrikeOffset: 100, OptionType: models.Call, Action: models.Sell, Lots: 1},
		{StrikeOffset: 200, OptionType: models.Call, Action: models.Sell, Lots: 1},
	},
	"long_put_ladder": {
		{StrikeOffset: 0, OptionType: models.Put, Action: models.Buy, Lots: 1},
		{StrikeOffset: -100, OptionType: models.Put, Action: models.Sell, Lots: 1},
		{StrikeOffset: -200, OptionType: models.Put, Action: models.Sell, Lots: 1},
	},
	"strip": {
		{StrikeOffset: 0, OptionType: models.Put, Action: models.Buy, Lots: 2},
		{StrikeOffset: 0, OptionType: models.Call, Action: models.Buy, Lots: 1},
	},
	"strap": {
		{StrikeOffset: 0, OptionType: models.Call, Action: models.Buy, Lots: 2},
		{StrikeOffset: 0, OptionType: models.Put, Action: models.Buy, Lots: 1},
	},
}

// Template returns the instrument specs for a named strategy.
func Template(name string) ([]models.InstrumentSpec, error) {
	specs, ok := templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy template: %s", name)
	}
	out := make([]models.InstrumentSpec, len(specs))
	copy(out, specs)
	return out, nil
}

// TemplateNames returns the sorted list of available strategy templates.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

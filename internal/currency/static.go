// Package currency provides the converters the budget analyzer uses to bring
// booked amounts into the reporting currency: a fixed rate table and a client
// for a remote "latest rates" service.
package currency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownCurrency is returned when no rate exists for a currency code.
var ErrUnknownCurrency = errors.New("unknown currency")

// StaticTable converts with fixed rates. Rates[code] is the value of one unit
// of code in the reporting currency.
type StaticTable struct {
	reporting string
	rates     map[string]float64
}

// NewStaticTable creates a StaticTable. Codes are case-insensitive.
func NewStaticTable(reporting string, rates map[string]float64) *StaticTable {
	t := &StaticTable{reporting: strings.ToUpper(reporting), rates: make(map[string]float64, len(rates))}
	for code, rate := range rates {
		t.rates[strings.ToUpper(code)] = rate
	}
	return t
}

// Convert returns amount expressed in the reporting currency.
func (t *StaticTable) Convert(_ context.Context, amount float64, code string) (float64, error) {
	code = strings.ToUpper(code)
	if code == t.reporting {
		return amount, nil
	}
	rate, ok := t.rates[code]
	if !ok {
		return 0, fmt.Errorf("currency.StaticTable.Convert: %s: %w", code, ErrUnknownCurrency)
	}
	return amount * rate, nil
}

// ParseRates parses a "EUR=1.10,GBP=1.27" list into a rate map. Blank entries
// are skipped.
func ParseRates(s string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("currency.ParseRates: %q: want CODE=RATE", part)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("currency.ParseRates: %q: rate must be a positive number", part)
		}
		out[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return out, nil
}

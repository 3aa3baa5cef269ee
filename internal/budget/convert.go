package budget

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
)

// Converter turns an amount in some currency into the reporting currency.
// Implementations may block on I/O and may fail; a failure only affects the
// one amount being converted.
type Converter interface {
	Convert(ctx context.Context, amount float64, currencyCode string) (float64, error)
}

// ConverterFunc adapts a plain function to the Converter interface.
type ConverterFunc func(ctx context.Context, amount float64, currencyCode string) (float64, error)

// Convert calls f.
func (f ConverterFunc) Convert(ctx context.Context, amount float64, currencyCode string) (float64, error) {
	return f(ctx, amount, currencyCode)
}

// ErrNoConverter is reported for every foreign amount when an Analyzer was
// built without a Converter.
var ErrNoConverter = errors.New("no currency converter configured")

// errBadConversion is reported when a converter returns a value that cannot be money.
var errBadConversion = errors.New("converter returned a negative or non-finite amount")

// amountKey identifies one distinct conversion within a pass.
type amountKey struct {
	amount   float64
	currency string
}

type conversion struct {
	value decimal.Decimal
	err   error
}

// normalize converts every distinct (price, currency) pair of the given
// reservations concurrently and returns the results keyed by pair. Each pair
// is converted exactly once; zero and negative prices are never sent.
// Amounts already in the reporting currency pass through unchanged.
func (a *Analyzer) normalize(ctx context.Context, reservations []domain.Reservation) map[amountKey]conversion {
	var keys []amountKey
	seen := make(map[amountKey]bool)
	for _, r := range reservations {
		if r.Price <= 0 {
			continue
		}
		k := amountKey{amount: r.Price, currency: strings.ToUpper(r.Currency())}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	results := make([]conversion, len(keys))
	var g errgroup.Group
	g.SetLimit(a.cfg.MaxConcurrency)
	for i, k := range keys {
		if strings.EqualFold(k.currency, a.cfg.ReportingCurrency) {
			results[i] = conversion{value: money(k.amount)}
			continue
		}
		g.Go(func() error {
			v, err := a.conv.Convert(ctx, k.amount, k.currency)
			switch {
			case err != nil:
				results[i] = conversion{err: fmt.Errorf("convert %v %s: %w", k.amount, k.currency, err)}
			case v < 0 || math.IsNaN(v) || math.IsInf(v, 0):
				results[i] = conversion{err: fmt.Errorf("convert %v %s: %w", k.amount, k.currency, errBadConversion)}
			default:
				results[i] = conversion{value: money(v)}
			}
			// Failures are recorded per pair and never cancel the siblings.
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[amountKey]conversion, len(keys))
	for i, k := range keys {
		out[k] = results[i]
	}
	return out
}

// money rounds a float amount to cents.
func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Package budget rolls a trip snapshot up into per-category booked totals,
// finds nights and meals nothing covers yet, and recommends discretionary
// spend. A pass never fails because of bad data or a failed conversion; it
// returns a partial result with warnings instead.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pkordes/itinerary-core/backend/internal/civil"
	"github.com/pkordes/itinerary-core/backend/internal/domain"
)

// Recommendation IDs.
const (
	RecUncoveredNights = "uncovered-nights"
	RecUncoveredMeals  = "uncovered-meals"
	RecActivities      = "activities"
	RecLocalTransport  = "local-transport"
	RecShopping        = "shopping"
)

// Config holds the analyzer's tunables.
type Config struct {
	// ReportingCurrency is the currency all totals are expressed in.
	ReportingCurrency string
	// MaxConcurrency bounds in-flight conversions in one pass. Values < 1 mean 1.
	MaxConcurrency int
}

// Item is one reservation as it appears inside a category total.
type Item struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	NormalizedAmount float64 `json:"normalized_amount"`
	OriginalAmount   float64 `json:"original_amount"`
	CurrencyCode     string  `json:"currency_code"`
	Status           string  `json:"status"`
	Unconverted      bool    `json:"unconverted,omitempty"`
}

// CategoryTotal is the booked spend of one category.
type CategoryTotal struct {
	Category Category `json:"category"`
	Total    float64  `json:"total"`
	Count    int      `json:"count"`
	Items    []Item   `json:"items"`
}

// Recommendation is an estimated amount the traveller has not booked yet.
type Recommendation struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Subtitle       string       `json:"subtitle,omitempty"`
	Amount         float64      `json:"amount"`
	Rationale      string       `json:"rationale"`
	UncoveredDates []civil.Date `json:"uncovered_dates,omitempty"`
}

// Coverage reports the gap analysis the recommendations were derived from.
type Coverage struct {
	TripDays         int          `json:"trip_days"`
	TripNights       int          `json:"trip_nights"`
	CoveredNights    int          `json:"covered_nights"`
	UncoveredNights  []civil.Date `json:"uncovered_nights"`
	NightlyRate      float64      `json:"nightly_rate"`
	ExpectedMeals    int          `json:"expected_meals"`
	CoveredMeals     int          `json:"covered_meals"`
	UncoveredMeals   int          `json:"uncovered_meals"`
	DestinationCount int          `json:"destination_count"`
	PrivateDriver    bool         `json:"private_driver"`
}

// Result is the output of one analysis pass. It holds no timestamps so that
// the same input always yields an identical Result.
type Result struct {
	Fingerprint       string           `json:"fingerprint"`
	InputKey          string           `json:"input_key"`
	ReportingCurrency string           `json:"reporting_currency"`
	Preferences       Preferences      `json:"preferences"`
	CategoryTotals    []CategoryTotal  `json:"category_totals"`
	BookedTotal       float64          `json:"booked_total"`
	Recommendations   []Recommendation `json:"recommendations"`
	RecommendedTotal  float64          `json:"recommended_total"`
	GrandTotal        float64          `json:"grand_total"`
	DailyAverage      float64          `json:"daily_average"`
	Coverage          Coverage         `json:"coverage"`
	Warnings          []string         `json:"warnings,omitempty"`
}

// Analyzer runs analysis passes. It keeps no state between passes and is
// safe for concurrent use if its Converter is.
type Analyzer struct {
	conv   Converter
	cfg    Config
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer. A nil logger discards log output. A nil
// converter fails every conversion, so only amounts already in the reporting
// currency are counted.
func NewAnalyzer(conv Converter, cfg Config, logger *slog.Logger) *Analyzer {
	if conv == nil {
		conv = ConverterFunc(func(_ context.Context, _ float64, currencyCode string) (float64, error) {
			return 0, fmt.Errorf("%w: %s", ErrNoConverter, currencyCode)
		})
	}
	if cfg.ReportingCurrency == "" {
		cfg.ReportingCurrency = domain.DefaultCurrency
	}
	cfg.ReportingCurrency = strings.ToUpper(cfg.ReportingCurrency)
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{conv: conv, cfg: cfg, logger: logger}
}

// ReportingCurrency returns the currency the analyzer reports in.
func (a *Analyzer) ReportingCurrency() string { return a.cfg.ReportingCurrency }

// InputKey returns the key a pass over snap with prefs would carry, without
// running it.
func (a *Analyzer) InputKey(snap domain.Snapshot, prefs Preferences) string {
	return inputKey(Fingerprint(snap), snap, prefs.withDefaults(), a.cfg.ReportingCurrency)
}

// AnalyzeIfChanged returns prev untouched when it was computed from the same
// input, and runs a fresh pass otherwise.
func (a *Analyzer) AnalyzeIfChanged(ctx context.Context, snap domain.Snapshot, prefs Preferences, prev *Result) (Result, error) {
	if prev != nil && prev.InputKey == a.InputKey(snap, prefs) {
		return *prev, nil
	}
	return a.Analyze(ctx, snap, prefs)
}

// Analyze runs the full pipeline over snap. The only error it returns is the
// context's; everything else degrades into warnings on the result.
func (a *Analyzer) Analyze(ctx context.Context, snap domain.Snapshot, prefs Preferences) (Result, error) {
	prefs = prefs.withDefaults()
	fp := Fingerprint(snap)
	res := Result{
		Fingerprint:       fp,
		InputKey:          inputKey(fp, snap, prefs, a.cfg.ReportingCurrency),
		ReportingCurrency: a.cfg.ReportingCurrency,
		Preferences:       prefs,
		CategoryTotals:    []CategoryTotal{},
		Recommendations:   []Recommendation{},
	}

	reservations := snap.Reservations()
	converted := a.normalize(ctx, reservations)
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("budget.Analyzer.Analyze: %w", err)
	}

	// Categorize.
	totals := make(map[Category]*CategoryTotal)
	sums := make(map[Category]decimal.Decimal)
	normalized := make(map[int]decimal.Decimal, len(reservations))
	booked := decimal.Zero
	warned := make(map[amountKey]bool)
	for i, r := range reservations {
		item := Item{
			ID:             r.ID.String(),
			Title:          r.Title,
			OriginalAmount: r.Price,
			CurrencyCode:   r.Currency(),
			Status:         r.Status,
		}
		amount := decimal.Zero
		if r.Price > 0 {
			k := amountKey{amount: r.Price, currency: strings.ToUpper(r.Currency())}
			c := converted[k]
			if c.err != nil {
				item.Unconverted = true
				if !warned[k] {
					warned[k] = true
					a.logger.Warn("currency conversion failed",
						"trip_id", snap.Trip.ID, "amount", r.Price, "currency", k.currency, "error", c.err)
					res.Warnings = append(res.Warnings, fmt.Sprintf("could not convert %s %s; counted as 0", decimal.NewFromFloat(r.Price).String(), k.currency))
				}
			} else {
				amount = c.value
			}
		}
		item.NormalizedAmount = amount.InexactFloat64()
		normalized[i] = amount

		cat := CategoryOf(r)
		ct, ok := totals[cat]
		if !ok {
			ct = &CategoryTotal{Category: cat, Items: []Item{}}
			totals[cat] = ct
		}
		ct.Count++
		ct.Items = append(ct.Items, item)
		sums[cat] = sums[cat].Add(amount)
		booked = booked.Add(amount)
	}
	for _, cat := range categoryOrder {
		ct, ok := totals[cat]
		if !ok {
			continue
		}
		ct.Total = sums[cat].Round(2).InexactFloat64()
		res.CategoryTotals = append(res.CategoryTotals, *ct)
	}

	tripDays := snap.Trip.DayCount()
	days := decimal.NewFromInt(int64(tripDays))
	lux := luxuryMultiplier(prefs)

	// Night coverage.
	nights := tripNights(snap.Trip)
	covered := make(map[civil.Date]bool)
	var rateSum decimal.Decimal
	var rateCount int64
	for i, r := range reservations {
		if r.Type != domain.ReservationHotel {
			continue
		}
		n := r.Nights
		if n <= 0 {
			n = DefaultHotelNights
		}
		// Only nights inside the trip can be covered.
		in := r.PrimaryDate()
		lo := max(0, snap.Trip.StartDate.DaysSince(in))
		hi := min(n, snap.Trip.EndDate.DaysSince(in)+1)
		for k := lo; k < hi; k++ {
			covered[in.AddDays(k)] = true
		}
		if normalized[i].IsPositive() {
			rateSum = rateSum.Add(normalized[i].Div(decimal.NewFromInt(int64(n))))
			rateCount++
		}
	}
	uncovered := []civil.Date{}
	for _, night := range nights {
		if !covered[night] {
			uncovered = append(uncovered, night)
		}
	}
	nightlyRate := decimal.NewFromInt(dailyBudgetTier(prefs) * HotelToDailyBudgetRatio)
	rateSource := fmt.Sprintf("%s daily budget x %d", prefs.DailyBudget, HotelToDailyBudgetRatio)
	if rateCount > 0 {
		nightlyRate = rateSum.Div(decimal.NewFromInt(rateCount)).Round(0)
		rateSource = fmt.Sprintf("average of %d booked hotel(s)", rateCount)
	}
	res.Coverage.TripDays = tripDays
	res.Coverage.TripNights = len(nights)
	res.Coverage.CoveredNights = len(nights) - len(uncovered)
	res.Coverage.UncoveredNights = uncovered
	res.Coverage.NightlyRate = nightlyRate.InexactFloat64()
	if len(uncovered) > 0 {
		res.addRecommendation(Recommendation{
			ID:             RecUncoveredNights,
			Title:          "Accommodation",
			Subtitle:       fmt.Sprintf("%d night(s) without a hotel", len(uncovered)),
			Amount:         nightlyRate.Mul(decimal.NewFromInt(int64(len(uncovered)))).InexactFloat64(),
			Rationale:      fmt.Sprintf("%d uncovered night(s) at %s per night (%s)", len(uncovered), nightlyRate.String(), rateSource),
			UncoveredDates: uncovered,
		})
	}

	// Meal coverage.
	expectedMeals := tripDays * MealsPerDay
	coveredMeals := 0
	if ct, ok := totals[CategoryEat]; ok {
		coveredMeals = ct.Count
	}
	uncoveredMeals := max(0, expectedMeals-coveredMeals)
	res.Coverage.ExpectedMeals = expectedMeals
	res.Coverage.CoveredMeals = coveredMeals
	res.Coverage.UncoveredMeals = uncoveredMeals
	if uncoveredMeals > 0 {
		meal := mealPriceTier(prefs)
		res.addRecommendation(Recommendation{
			ID:        RecUncoveredMeals,
			Title:     "Meals",
			Subtitle:  fmt.Sprintf("%d of %d meals not booked", uncoveredMeals, expectedMeals),
			Amount:    float64(int64(uncoveredMeals) * meal),
			Rationale: fmt.Sprintf("%d meal(s) at %d each (%s)", uncoveredMeals, meal, prefs.MealBudget),
		})
	}

	// Discretionary.
	activityRate := decimal.NewFromInt(dailyBudgetTier(prefs)).Mul(lux).Round(0)
	res.addRecommendation(Recommendation{
		ID:        RecActivities,
		Title:     "Activities & Experiences",
		Amount:    activityRate.Mul(days).InexactFloat64(),
		Rationale: fmt.Sprintf("%d day(s) at %s per day (%s, %s)", tripDays, activityRate.String(), prefs.DailyBudget, prefs.LuxuryLevel),
	})

	privateDriver := prefs.HasPrivateDriver
	for _, r := range reservations {
		if isPrivateDriver(r) {
			privateDriver = true
			break
		}
	}
	res.Coverage.PrivateDriver = privateDriver
	if !privateDriver {
		transportRate := decimal.NewFromInt(LocalTransportPerDay).Mul(lux).Round(0)
		res.addRecommendation(Recommendation{
			ID:        RecLocalTransport,
			Title:     "Local Transportation",
			Subtitle:  "Taxis, transit and transfers",
			Amount:    transportRate.Mul(days).InexactFloat64(),
			Rationale: fmt.Sprintf("%d day(s) at %s per day (%s)", tripDays, transportRate.String(), prefs.LuxuryLevel),
		})
	}

	dests := len(destinations(snap))
	res.Coverage.DestinationCount = dests
	shopping := decimal.NewFromInt(ShoppingPerDestination).Mul(decimal.NewFromInt(int64(dests))).
		Add(decimal.NewFromInt(IncidentalsPerDay).Mul(days)).
		Mul(lux).
		Round(0)
	res.addRecommendation(Recommendation{
		ID:        RecShopping,
		Title:     "Shopping & Incidentals",
		Subtitle:  "Souvenirs, tips and sundries",
		Amount:    shopping.InexactFloat64(),
		Rationale: fmt.Sprintf("%d destination(s) x %d plus %d day(s) x %d, scaled for %s", dests, ShoppingPerDestination, tripDays, IncidentalsPerDay, prefs.LuxuryLevel),
	})

	// Aggregate.
	recommended := decimal.Zero
	for _, rec := range res.Recommendations {
		recommended = recommended.Add(decimal.NewFromFloat(rec.Amount))
	}
	grand := booked.Add(recommended)
	res.BookedTotal = booked.Round(2).InexactFloat64()
	res.RecommendedTotal = recommended.Round(2).InexactFloat64()
	res.GrandTotal = grand.Round(2).InexactFloat64()
	if tripDays > 0 {
		res.DailyAverage = grand.Div(days).Round(2).InexactFloat64()
	}

	return res, nil
}

// addRecommendation appends rec unless it has nothing to recommend.
func (r *Result) addRecommendation(rec Recommendation) {
	if rec.Amount <= 0 {
		return
	}
	r.Recommendations = append(r.Recommendations, rec)
}

// tripNights are the dates that need a bed.
func tripNights(t domain.Trip) []civil.Date {
	if LastDayHasNoNight {
		return civil.Nights(t.StartDate, t.EndDate)
	}
	return civil.Range(t.StartDate, t.EndDate)
}

// destinations returns the distinct, non-empty segment destinations in
// segment order.
func destinations(snap domain.Snapshot) []string {
	var out []string
	seen := make(map[string]bool)
	for _, seg := range snap.Segments {
		d := strings.TrimSpace(seg.Destination())
		if d == "" || seen[strings.ToLower(d)] {
			continue
		}
		seen[strings.ToLower(d)] = true
		out = append(out, d)
	}
	return out
}

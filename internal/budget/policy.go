package budget

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
)

// Category is one of the fixed budget buckets every reservation is filed under.
type Category string

const (
	CategoryTransport Category = "Transport"
	CategoryStay      Category = "Stay"
	CategoryEat       Category = "Eat"
	CategoryDo        Category = "Do"
	CategoryOther     Category = "Other"
)

// categoryOrder is the order category totals are reported in.
var categoryOrder = []Category{CategoryTransport, CategoryStay, CategoryEat, CategoryDo, CategoryOther}

// categoryNames maps lower-cased free-text category names onto buckets.
var categoryNames = map[string]Category{
	"flight":         CategoryTransport,
	"transport":      CategoryTransport,
	"transportation": CategoryTransport,
	"travel":         CategoryTransport,
	"hotel":          CategoryStay,
	"stay":           CategoryStay,
	"accommodation":  CategoryStay,
	"restaurant":     CategoryEat,
	"dining":         CategoryEat,
	"food":           CategoryEat,
	"eat":            CategoryEat,
	"activity":       CategoryDo,
	"do":             CategoryDo,
	"tour":           CategoryDo,
	"experience":     CategoryDo,
}

// CategoryOf files a reservation under a budget category. Only the free-text
// category name decides: a reservation without one, or with a name that is
// not mapped, is Other whatever its type.
func CategoryOf(r domain.Reservation) Category {
	name := strings.ToLower(strings.TrimSpace(r.CategoryName))
	if c, ok := categoryNames[name]; ok {
		return c
	}
	return CategoryOther
}

// Tier tables. Keys are the preference values users pick; amounts are in the
// reporting currency.
var (
	dailyBudgetTiers = map[string]int64{
		"0-50":    25,
		"50-100":  75,
		"100-200": 150,
		"200+":    300,
	}
	mealPriceTiers = map[string]int64{
		"$":    15,
		"$$":   30,
		"$$$":  50,
		"$$$$": 100,
	}
	luxuryMultipliers = map[string]decimal.Decimal{
		"luxury":     decimal.NewFromFloat(2.0),
		"mid-range":  decimal.NewFromFloat(1.0),
		"budget":     decimal.NewFromFloat(0.5),
		"backpacker": decimal.NewFromFloat(0.3),
	}
)

const (
	defaultDailyBudget = "50-100"
	defaultMealBudget  = "$$"
	defaultLuxuryLevel = "mid-range"
)

// Policy constants. These encode product assumptions inferred from how
// travellers book, not hard requirements; keep them named so they can change
// in one place.
const (
	// MealsPerDay is the number of meals expected on every trip day.
	MealsPerDay = 3

	// DefaultHotelNights is assumed for a hotel booking with no night count.
	DefaultHotelNights = 1

	// HotelToDailyBudgetRatio scales the daily budget tier into a nightly
	// hotel rate when the trip has no priced hotel to learn from.
	HotelToDailyBudgetRatio = 2

	// LocalTransportPerDay is the flat base rate for taxis and transit.
	LocalTransportPerDay = 35

	// ShoppingPerDestination and IncidentalsPerDay make up the shopping estimate.
	ShoppingPerDestination = 50
	IncidentalsPerDay      = 10
)

// LastDayHasNoNight documents the night-coverage convention: trip nights are
// [start, end), the departure day is never a night that needs a bed.
const LastDayHasNoNight = true

// privateDriverKeywords mark a booking that replaces local transport.
var privateDriverKeywords = []string{"private driver", "chauffeur"}

func dailyBudgetTier(p Preferences) int64 {
	if v, ok := dailyBudgetTiers[p.DailyBudget]; ok {
		return v
	}
	return dailyBudgetTiers[defaultDailyBudget]
}

func mealPriceTier(p Preferences) int64 {
	if v, ok := mealPriceTiers[p.MealBudget]; ok {
		return v
	}
	return mealPriceTiers[defaultMealBudget]
}

func luxuryMultiplier(p Preferences) decimal.Decimal {
	if v, ok := luxuryMultipliers[p.LuxuryLevel]; ok {
		return v
	}
	return luxuryMultipliers[defaultLuxuryLevel]
}

func isPrivateDriver(r domain.Reservation) bool {
	title := strings.ToLower(r.Title)
	for _, kw := range privateDriverKeywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

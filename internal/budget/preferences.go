package budget

import "strings"

// Preferences are the traveller's declared budget style. Unknown values fall
// back to the mid tier of each table.
type Preferences struct {
	DailyBudget      string `json:"daily_budget" validate:"omitempty,oneof=0-50 50-100 100-200 200+"`
	MealBudget       string `json:"meal_budget" validate:"omitempty,oneof=$ $$ $$$ $$$$"`
	LuxuryLevel      string `json:"luxury_level" validate:"omitempty,oneof=luxury mid-range budget backpacker"`
	HasPrivateDriver bool   `json:"has_private_driver"`
}

// DefaultPreferences returns the preferences assumed for a traveller with no profile.
func DefaultPreferences() Preferences {
	return Preferences{
		DailyBudget: defaultDailyBudget,
		MealBudget:  defaultMealBudget,
		LuxuryLevel: defaultLuxuryLevel,
	}
}

// withDefaults fills empty fields from DefaultPreferences.
func (p Preferences) withDefaults() Preferences {
	def := DefaultPreferences()
	if p.DailyBudget == "" {
		p.DailyBudget = def.DailyBudget
	}
	if p.MealBudget == "" {
		p.MealBudget = def.MealBudget
	}
	if p.LuxuryLevel == "" {
		p.LuxuryLevel = def.LuxuryLevel
	}
	return p
}

// ProfileItem is one free-text answer from a traveller profile.
type ProfileItem struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Value       string `json:"value"`
}

// ParsePreferences derives Preferences from profile answers by keyword. Later
// items override earlier ones; items that match nothing are ignored.
func ParsePreferences(items []ProfileItem) Preferences {
	p := DefaultPreferences()

	for _, it := range items {
		cat := strings.ToLower(it.Category)
		sub := strings.ToLower(it.Subcategory)
		val := strings.ToLower(strings.TrimSpace(it.Value))

		if cat == "budget" || strings.Contains(sub, "budget") {
			if sub == "daily-budget" || strings.ContainsAny(val, "-+") {
				switch {
				case strings.Contains(val, "0-50"):
					p.DailyBudget = "0-50"
				case strings.Contains(val, "50-100"):
					p.DailyBudget = "50-100"
				case strings.Contains(val, "100-200"):
					p.DailyBudget = "100-200"
				case strings.Contains(val, "200"):
					p.DailyBudget = "200+"
				}
			}
		}

		if cat == "dining" || strings.Contains(sub, "meal") || strings.Contains(sub, "dining") {
			switch {
			case val == "$" || strings.Contains(val, "budget") || strings.Contains(val, "cheap"):
				p.MealBudget = "$"
			case val == "$$" || strings.Contains(val, "moderate"):
				p.MealBudget = "$$"
			case val == "$$$" || strings.Contains(val, "upscale"):
				p.MealBudget = "$$$"
			case val == "$$$$" || strings.Contains(val, "fine") || strings.Contains(val, "luxury"):
				p.MealBudget = "$$$$"
			}
		}

		if cat == "travel-style" || strings.Contains(sub, "luxury") {
			switch {
			case strings.Contains(val, "luxury"):
				p.LuxuryLevel = "luxury"
			case strings.Contains(val, "backpack"):
				p.LuxuryLevel = "backpacker"
			case strings.Contains(val, "budget"):
				p.LuxuryLevel = "budget"
			case strings.Contains(val, "mid"):
				p.LuxuryLevel = "mid-range"
			}
		}

		if strings.Contains(sub, "transport") || strings.Contains(sub, "ground") {
			if strings.Contains(val, "private driver") || strings.Contains(val, "chauffeur") {
				p.HasPrivateDriver = true
			}
		}
	}

	return p
}

// Package category maps free-text category synonyms onto the fixed
// expense vocabulary.
package category

import "strings"

// Canonical is the fixed, pre-seeded category vocabulary.
var Canonical = []string{
	"food",
	"transportation",
	"entertainment",
	"shopping",
	"groceries",
	"dining",
	"utilities",
	"healthcare",
	"education",
	"other",
}

// synonyms maps lowercase free-text labels to canonical categories.
// Inputs not present here pass through unchanged.
var synonyms = map[string]string{
	// Food related
	"food":      "food",
	"meal":      "food",
	"snack":     "food",
	"coffee":    "food",
	"tea":       "food",
	"breakfast": "food",
	"lunch":     "food",

	// Dining out
	"dinner":     "dining",
	"restaurant": "dining",
	"eating out": "dining",
	"dine":       "dining",

	// Shopping
	"shopping":    "shopping",
	"clothes":     "shopping",
	"clothing":    "shopping",
	"accessories": "shopping",
	"electronics": "shopping",

	// Transportation
	"transport":      "transportation",
	"transportation": "transportation",
	"fuel":           "transportation",
	"gas":            "transportation",
	"petrol":         "transportation",
	"uber":           "transportation",
	"taxi":           "transportation",
	"bus":            "transportation",
	"train":          "transportation",
	"metro":          "transportation",

	// Groceries
	"grocery":    "groceries",
	"groceries":  "groceries",
	"vegetables": "groceries",
	"fruits":     "groceries",
	"milk":       "groceries",

	// Entertainment
	"entertainment": "entertainment",
	"movie":         "entertainment",
	"cinema":        "entertainment",
	"game":          "entertainment",
	"games":         "entertainment",
	"music":         "entertainment",

	// Utilities
	"utility":     "utilities",
	"utilities":   "utilities",
	"electricity": "utilities",
	"water":       "utilities",
	"internet":    "utilities",
	"phone":       "utilities",
	"mobile":      "utilities",

	// Healthcare
	"health":     "healthcare",
	"healthcare": "healthcare",
	"medical":    "healthcare",
	"medicine":   "healthcare",
	"doctor":     "healthcare",
	"hospital":   "healthcare",

	// Education
	"education": "education",
	"book":      "education",
	"books":     "education",
	"course":    "education",
	"training":  "education",
}

// Normalize maps a free-text category onto the canonical vocabulary.
// Lookup is case-insensitive; unknown inputs pass through lowercased
// but otherwise verbatim.
func Normalize(input string) string {
	key := strings.ToLower(strings.TrimSpace(input))
	if canonical, ok := synonyms[key]; ok {
		return canonical
	}
	return key
}

// IsCanonical reports whether name is one of the fixed vocabulary entries.
func IsCanonical(name string) bool {
	for _, c := range Canonical {
		if c == name {
			return true
		}
	}
	return false
}

// Synonyms returns the synonym table keys mapping to canonical name.
// Used by tests and the seeding step.
func Synonyms(canonical string) []string {
	var out []string
	for k, v := range synonyms {
		if v == canonical {
			out = append(out, k)
		}
	}
	return out
}

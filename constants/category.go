package constants

import "strings"

type Category string

const (
	Protein   Category = "protein"
	Dairy     Category = "dairy"
	Vegetable Category = "vegetable"
	Fruit     Category = "fruit"
	Grain     Category = "grain"
	Beverage  Category = "beverage"
	Other     Category = "other"
)

var allCategories = []Category{
	Protein,
	Dairy,
	Vegetable,
	Fruit,
	Grain,
	Beverage,
	Other,
}

// categoryKeywords is matched in order: proteins before dairy before produce
// before grains before beverages. The ordering is the tie-break policy —
// "milk powder" must hit the dairy rule before any grain rule sees "powder".
var categoryKeywords = []struct {
	Category Category
	Keywords []string
}{
	{Protein, []string{
		"beef", "steak", "ribeye", "lamb", "mutton", "pork", "bacon", "ham",
		"chicken", "poultry", "turkey", "fish", "salmon", "tuna", "cod",
		"shrimp", "lobster", "tofu", "lentil", "meat",
	}},
	{Dairy, []string{
		"milk", "cheese", "butter", "cream", "yogurt", "egg",
	}},
	{Vegetable, []string{
		"carrot", "kale", "arugula", "potato", "basil", "onion", "tomato",
		"lettuce", "spinach", "pepper", "garlic", "squash", "zucchini",
		"oregano", "thyme", "vegetable", "greens",
	}},
	{Fruit, []string{
		"apple", "banana", "orange", "lemon", "lime", "berry", "fruit",
	}},
	{Grain, []string{
		"rice", "wheat", "flour", "pasta", "bread", "oat", "powder", "grain",
	}},
	{Beverage, []string{
		"water", "coffee", "tea", "juice", "soda",
	}},
}

// AsStringSlice returns every category label, used to constrain the parser schema.
func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Categorize maps an ingredient name to a food category. Pure function: the
// name is lowercased, trimmed, and stripped of punctuation, then scanned
// against the ordered keyword sets; first match wins, no match yields Other.
func Categorize(name string) Category {
	normalized := NormalizeName(name)
	if normalized == "" {
		return Other
	}
	for _, set := range categoryKeywords {
		for _, kw := range set.Keywords {
			if strings.Contains(normalized, kw) {
				return set.Category
			}
		}
	}
	return Other
}

// NormalizeName lowercases, trims, and strips punctuation from an item name.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		case r == '-', r == '/':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Canonicalize resolves a free-form label (e.g. from the model parser) to a
// known category. Returns Other,false when the label is unrecognized.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]Category{
		"proteins":   Protein,
		"meat":       Protein,
		"seafood":    Protein,
		"vegetables": Vegetable,
		"veggies":    Vegetable,
		"produce":    Vegetable,
		"fruits":     Fruit,
		"grains":     Grain,
		"starches":   Grain,
		"bakery":     Grain,
		"beverages":  Beverage,
		"drinks":     Beverage,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}

	return Other, false
}

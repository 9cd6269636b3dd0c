// Package classifier guesses an expense category from its description.
package classifier

import (
	"context"
	"strings"
)

// DefaultCategory is used when nothing better can be inferred.
const DefaultCategory = "Other"

// Categories lists the labels the classifiers choose from.
var Categories = []string{"Food", "Transport", "Utilities", "Entertainment", "Health", "Shopping", "Housing", DefaultCategory}

// Classifier suggests a category for an expense description. The result is
// a best guess; callers store whatever string comes back.
type Classifier interface {
	Classify(ctx context.Context, description string) (string, error)
}

var keywords = map[string][]string{
	"Food":          {"grocery", "groceries", "restaurant", "lunch", "dinner", "breakfast", "coffee", "cafe", "pizza", "burger", "food", "snack", "bakery"},
	"Transport":     {"uber", "lyft", "taxi", "bus", "train", "metro", "fuel", "gas station", "petrol", "parking", "toll", "flight", "airline"},
	"Utilities":     {"electric", "electricity", "water bill", "internet", "phone bill", "utility", "utilities", "gas bill", "broadband"},
	"Entertainment": {"movie", "cinema", "netflix", "spotify", "concert", "game", "theatre", "theater", "streaming"},
	"Health":        {"pharmacy", "doctor", "hospital", "dentist", "medicine", "clinic", "gym", "fitness"},
	"Shopping":      {"amazon", "clothes", "clothing", "shoes", "mall", "electronics"},
	"Housing":       {"rent", "mortgage", "landlord", "furniture", "repair"},
}

// order fixes match precedence, since map iteration is random.
var order = []string{"Utilities", "Transport", "Food", "Entertainment", "Health", "Shopping", "Housing"}

// KeywordClassifier matches descriptions against a fixed keyword list.
type KeywordClassifier struct{}

// NewKeywordClassifier returns a KeywordClassifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify returns the first category whose keywords appear in description,
// or DefaultCategory.
func (k *KeywordClassifier) Classify(_ context.Context, description string) (string, error) {
	text := strings.ToLower(description)
	for _, category := range order {
		for _, kw := range keywords[category] {
			if strings.Contains(text, kw) {
				return category, nil
			}
		}
	}
	return DefaultCategory, nil
}

// normalize maps a free-form model answer onto a known category.
func normalize(answer string) (string, bool) {
	answer = strings.Trim(strings.TrimSpace(answer), "\"'.`")
	for _, c := range Categories {
		if strings.EqualFold(answer, c) {
			return c, true
		}
	}
	return "", false
}

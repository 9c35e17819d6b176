package extract

import (
	"strings"

	"golang.org/x/text/cases"
)

// categoryRule pairs a category with the keywords that select it
type categoryRule struct {
	Category string
	Keywords []string
}

// categoryRules is evaluated in order and the first rule with a matching
// keyword wins. Coffee must stay ahead of Food: "cafe" and most coffee shop
// receipts also contain food keywords.
var categoryRules = []categoryRule{
	{"Coffee", []string{"coffee", "starbucks", "espresso", "latte", "cappuccino", "cafe", "café", "coffeehouse", "dunkin", "tim hortons", "peet", "caribou"}},
	{"Food", []string{"restaurant", "pizza", "burger", "food", "kitchen", "diner", "bistro", "grill", "bar", "grocery", "supermarket", "market", "deli", "bakery", "sushi", "taco", "bbq", "walmart", "target", "costco", "aldi", "tesco", "carrefour", "kroger", "whole foods", "trader joe", "lidl", "panera", "chipotle", "mcdonald", "kfc", "burger king", "domino", "pizza hut", "subway", "wendy", "taco bell", "five guys", "panda express"}},
	{"Hotel", []string{"hotel", "inn", "resort", "lodge", "motel", "accommodation", "stay"}},
	{"Transportation", []string{"taxi", "uber", "lyft", "bus", "train", "metro", "transport", "parking", "gas", "fuel", "ride", "cab", "toll", "petrol", "diesel", "shell", "bp", "esso", "chevron", "exxon", "arco"}},
	{"Entertainment", []string{"movie", "theater", "theatre", "cinema", "show", "concert", "museum", "park", "entertainment"}},
	{"Flights", []string{"airline", "airways", "flight", "airport", "boarding", "baggage", "luggage", "ticket", "fare"}},
}

// Category classifies a receipt from its merchant and full text by keyword
// substring match.
func Category(merchant, text string) (string, bool) {
	folder := cases.Fold()
	combined := folder.String(merchant + "\n" + text)

	for _, rule := range categoryRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(combined, folder.String(kw)) {
				return rule.Category, true
			}
		}
	}
	return "", false
}

package extract

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// totalKeywords in priority order; an earlier keyword wins over a later one
// even when the later one appears first in the text.
var totalKeywords = []string{
	"amount",
	"total",
	"grand total",
	"total due",
	"amount due",
	"balance due",
	"invoice total",
	"final total",
}

var totalKeywordPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(totalKeywords))
	for i, kw := range totalKeywords {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
	}
	return out
}()

// fallbackCeiling excludes reference and phone numbers that OCR turned into
// amount-shaped values.
var fallbackCeiling = decimal.NewFromInt(10000)

// Total finds the receipt total. Lines carrying a total keyword are searched
// first, looking at the keyword line and then the line after it and taking the
// right-most amount. Otherwise the largest plausible amount in the text is used.
func Total(text string) (decimal.Decimal, bool) {
	lines := splitLines(text)

	for _, kw := range totalKeywordPatterns {
		for i, line := range lines {
			if !kw.MatchString(line) {
				continue
			}
			if d, ok := rightmostPositive(line); ok {
				return d, true
			}
			if i+1 < len(lines) {
				if d, ok := rightmostPositive(lines[i+1]); ok {
					return d, true
				}
			}
		}
	}

	var (
		best  decimal.Decimal
		found bool
	)
	for _, line := range lines {
		for _, d := range amountsIn(line) {
			if !d.IsPositive() || !d.LessThan(fallbackCeiling) {
				continue
			}
			if !found || d.GreaterThan(best) {
				best, found = d, true
			}
		}
	}
	return best, found
}

func rightmostPositive(line string) (decimal.Decimal, bool) {
	amounts := amountsIn(line)
	if len(amounts) == 0 {
		return decimal.Decimal{}, false
	}
	last := amounts[len(amounts)-1]
	if !last.IsPositive() {
		return decimal.Decimal{}, false
	}
	return last, true
}

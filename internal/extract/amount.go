package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	// amountPattern finds amount-shaped substrings: an optional currency code
	// or symbol followed by either thousands-grouped digits with an optional
	// two-digit decimal part, or digits with a two-digit decimal part.
	amountPattern = regexp.MustCompile(`(?:USD|EUR|GBP|CAD|AUD|INR|JPY|CHF|CNY|RMB)?\s*[$€£¥]?\s*([0-9]{1,3}(?:[., \x{00A0}\x{202F}][0-9]{3})+(?:[.,][0-9]{2})?|[0-9]+[.,][0-9]{2})`)

	currencyCode   = regexp.MustCompile(`^(?:USD|EUR|GBP|CAD|AUD|INR|JPY|CHF|CNY|RMB)|(?:USD|EUR|GBP|CAD|AUD|INR|JPY|CHF|CNY|RMB)$`)
	canonicalValue = regexp.MustCompile(`^[0-9]+(?:\.[0-9]+)?$`)
)

// Amount normalizes a numeric substring written with either thousands/decimal
// convention and returns its value. The boolean is false when the text does
// not describe a number, which is distinct from a zero amount.
func Amount(s string) (decimal.Decimal, bool) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, s)
	s = currencyCode.ReplaceAllString(strings.ToUpper(s), "")

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")

	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if fraction := s[comma+1:]; len(fraction) == 2 && isDigits(fraction) {
			s = strings.ReplaceAll(s[:comma], ",", "") + "." + fraction
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	if !canonicalValue.MatchString(s) {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// amountsIn returns every parseable amount on a line, left to right. A match
// that runs straight into more digits ("45.678", "1,2345") is only part of a
// number and is skipped rather than truncated.
func amountsIn(line string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, m := range amountPattern.FindAllStringSubmatchIndex(line, -1) {
		if continuesNumber(line[m[1]:]) {
			continue
		}
		if d, ok := Amount(line[m[2]:m[3]]); ok {
			out = append(out, d)
		}
	}
	return out
}

// continuesNumber reports whether rest starts with a digit, or with a
// separator followed by a digit.
func continuesNumber(rest string) bool {
	if rest == "" {
		return false
	}
	if isDigits(rest[:1]) {
		return true
	}
	return (rest[0] == '.' || rest[0] == ',') && len(rest) > 1 && isDigits(rest[1:2])
}

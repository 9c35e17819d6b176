package extract

import (
	"regexp"
	"strings"

	"github.com/zombor/receipt-extract/internal/receipt"
)

const merchantScanLines = 8

var (
	boilerplateLine = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(receipt|invoice|bill|tax|date|time|order|table|server|cashier|check|guest|thank|welcome|total|subtotal|amount|balance|cash|change|card|visa|mastercard)\b`),
		regexp.MustCompile(`(?i)(https?://|www\.|\.(com|net|org|io|co)\b)`),
		regexp.MustCompile(`(?i)(\btel\b|\bphone\b|\bfax\b|\(?\d{3}\)?[\s.-]?\d{3}[\s.-]\d{4})`),
		regexp.MustCompile(`(?i)^\d+\s+\S+.*\b(st|street|rd|road|ave|avenue|blvd|boulevard|ln|lane|dr|drive|way|hwy|suite|ste)\b\.?`),
		regexp.MustCompile(`(?i)\b(p\.?o\.? box|suite \d+|zip)\b`),
		regexp.MustCompile(`^[\d\s.,:/$€£#%-]+$`),
	}

	decorative = regexp.MustCompile(`[*#@=_~|<>{}\[\]]+`)
	edgePunct  = regexp.MustCompile(`^[\s\-:.,;!'"]+|[\s\-:.,;!'"]+$`)
)

// Merchant returns the first line near the top of the text that looks like a
// business name.
func Merchant(text string) (string, bool) {
	lines := splitLines(text)
	if len(lines) > merchantScanLines {
		lines = lines[:merchantScanLines]
	}

	for _, line := range lines {
		if isBoilerplate(line) {
			continue
		}
		name := decorative.ReplaceAllString(line, " ")
		name = strings.Join(strings.Fields(name), " ")
		name = edgePunct.ReplaceAllString(name, "")
		// "** RECEIPT **" only reveals itself once the decoration is gone
		if isBoilerplate(name) {
			continue
		}
		if receipt.ValidMerchant(name) {
			return name, true
		}
	}
	return "", false
}

func isBoilerplate(line string) bool {
	for _, re := range boilerplateLine {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// splitLines returns the trimmed, non-empty lines of text
func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/zombor/receipt-extract/internal/receipt"
)

var (
	numericDate = regexp.MustCompile(`\b(\d{1,4})[/-](\d{1,4})[/-](\d{1,4})\b`)

	// monthName only accepts real spellings so item words such as "Decaf" or
	// "Margarita" are not read as months.
	monthName = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`

	monthFirstDate = regexp.MustCompile(`(?i)\b` + monthName + `\s+(\d{1,2})(?:st|nd|rd|th)?(?:,\s*|\s+)(\d{2,4})\b`)
	dayFirstDate   = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+` + monthName + `,?\s+(\d{2,4})\b`)
)

var monthNames = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// Date finds the first date in text that resolves to a real calendar day and
// returns it as YYYY-MM-DD. Numeric A/B/C dates are tried before month-name
// dates. When neither numeric component exceeds 12 the month-first reading is
// assumed.
func Date(text string) (string, bool) {
	for _, m := range dateMatches(numericDate, text) {
		if d, ok := resolveNumeric(m[1], m[2], m[3]); ok {
			return d, true
		}
	}
	for _, m := range dateMatches(monthFirstDate, text) {
		if d, ok := resolveNamed(m[1], m[2], m[3]); ok {
			return d, true
		}
	}
	for _, m := range dateMatches(dayFirstDate, text) {
		if d, ok := resolveNamed(m[2], m[1], m[3]); ok {
			return d, true
		}
	}
	return "", false
}

// dateMatches returns the submatches of re in text, dropping those whose year
// runs into a decimal part ("Jan 5 12.50" is a price, not 2012).
func dateMatches(re *regexp.Regexp, text string) [][]string {
	var out [][]string
	for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
		if continuesNumber(text[idx[1]:]) {
			continue
		}
		m := make([]string, len(idx)/2)
		for i := range m {
			if idx[2*i] >= 0 {
				m[i] = text[idx[2*i]:idx[2*i+1]]
			}
		}
		out = append(out, m)
	}
	return out
}

func resolveNumeric(a, b, c string) (string, bool) {
	first, _ := strconv.Atoi(a)
	second, _ := strconv.Atoi(b)
	third, _ := strconv.Atoi(c)

	// 2024-05-13
	if len(a) == 4 {
		if len(c) > 2 {
			return "", false
		}
		return calendarDate(first, second, third)
	}

	year, ok := normalizeYear(c, third)
	if !ok {
		return "", false
	}

	if first > 12 {
		return calendarDate(year, second, first)
	}
	// Either second > 12 forces month-first, or the reading is ambiguous and
	// month-first is the default.
	return calendarDate(year, first, second)
}

func resolveNamed(month, day, year string) (string, bool) {
	m := monthIndex(month)
	if m == 0 {
		return "", false
	}
	d, _ := strconv.Atoi(day)
	y, _ := strconv.Atoi(year)
	y, ok := normalizeYear(year, y)
	if !ok {
		return "", false
	}
	return calendarDate(y, m, d)
}

func monthIndex(name string) int {
	name = strings.ToLower(name)
	for i, m := range monthNames {
		if strings.HasPrefix(name, m) {
			return i + 1
		}
	}
	return 0
}

// normalizeYear maps two-digit years into the 2000s. Three-digit years are
// rejected.
func normalizeYear(digits string, year int) (int, bool) {
	switch len(digits) {
	case 1, 2:
		return year + 2000, true
	case 4:
		return year, true
	}
	return 0, false
}

func calendarDate(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return t.Format(receipt.DateLayout), true
}

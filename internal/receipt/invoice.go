package receipt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	MinMerchantLength = 2
	MaxMerchantLength = 60

	// DateLayout is the ISO calendar date layout used for ParsedInvoice.Date
	DateLayout = "2006-01-02"
)

// ValidMerchant reports whether s satisfies the merchant invariants
func ValidMerchant(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < MinMerchantLength || n > MaxMerchantLength {
		return false
	}
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form
func ValidDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Normalize returns a copy of p in which every field that violates its
// invariant has been dropped. Merchant whitespace is collapsed and the
// category is mapped onto its canonical spelling.
func Normalize(p ParsedInvoice) ParsedInvoice {
	out := ParsedInvoice{RawText: p.RawText}

	merchant := strings.Join(strings.Fields(p.Merchant), " ")
	if ValidMerchant(merchant) {
		out.Merchant = merchant
	}

	if p.Total.Valid && p.Total.Decimal.IsPositive() {
		out.Total = p.Total
	}

	date := strings.TrimSpace(p.Date)
	if ValidDate(date) {
		out.Date = date
	}

	category := strings.TrimSpace(p.Category)
	for _, c := range Categories {
		if strings.EqualFold(c, category) {
			out.Category = c
			break
		}
	}

	return out
}

// invoiceJSON is the wire form of ParsedInvoice
type invoiceJSON struct {
	Merchant *string         `json:"merchant"`
	Total    json.RawMessage `json:"total"`
	Date     *string         `json:"date"`
	Category *string         `json:"category"`
	RawText  *string         `json:"rawText"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MarshalJSON writes absent fields as null and the total as a JSON number
func (p ParsedInvoice) MarshalJSON() ([]byte, error) {
	total := json.RawMessage("null")
	if p.Total.Valid {
		total = json.RawMessage(p.Total.Decimal.String())
	}
	return json.Marshal(invoiceJSON{
		Merchant: optional(p.Merchant),
		Total:    total,
		Date:     optional(p.Date),
		Category: optional(p.Category),
		RawText:  optional(p.RawText),
	})
}

// UnmarshalJSON accepts the wire form. The total may be a number, a numeric
// string or null; a non-numeric string leaves the total absent.
func (p *ParsedInvoice) UnmarshalJSON(data []byte) error {
	var wire invoiceJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	var out ParsedInvoice
	if wire.Merchant != nil {
		out.Merchant = *wire.Merchant
	}
	if wire.Date != nil {
		out.Date = *wire.Date
	}
	if wire.Category != nil {
		out.Category = *wire.Category
	}
	if wire.RawText != nil {
		out.RawText = *wire.RawText
	}

	total, err := decodeTotal(wire.Total)
	if err != nil {
		return err
	}
	out.Total = total

	*p = out
	return nil
}

func decodeTotal(raw json.RawMessage) (decimal.NullDecimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.NullDecimal{}, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.NullDecimal{}, fmt.Errorf("decoding total: %w", err)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return decimal.NullDecimal{}, nil
		}
		return decimal.NewNullDecimal(d), nil
	}

	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("decoding total %s: %w", raw, err)
	}
	return decimal.NewNullDecimal(d), nil
}

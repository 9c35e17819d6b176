// Package extract turns recognized receipt text into invoice fields.
//
// Everything here is free of I/O: identical input always yields an identical
// ParsedInvoice, and each field is extracted independently of the others.
package extract

import (
	"github.com/shopspring/decimal"
	"github.com/zombor/receipt-extract/internal/receipt"
)

// Text extracts merchant, total, date and category from raw recognized text.
// The raw text is echoed back on the result.
func Text(raw string) receipt.ParsedInvoice {
	var inv receipt.ParsedInvoice
	inv.RawText = raw

	if merchant, ok := Merchant(raw); ok {
		inv.Merchant = merchant
	}
	if total, ok := Total(raw); ok {
		inv.Total = decimal.NewNullDecimal(total)
	}
	if date, ok := Date(raw); ok {
		inv.Date = date
	}
	if category, ok := Category(inv.Merchant, raw); ok {
		inv.Category = category
	}

	return receipt.Normalize(inv)
}

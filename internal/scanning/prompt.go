package scanning

import (
	"strings"

	"github.com/zombor/receipt-extract/internal/receipt"
)

// receiptScanPrompt is the shared instruction used by all inference backends.
// It pins the output schema the response parser expects.
var receiptScanPrompt = `You are an expert receipt and invoice parser. Carefully read all text in the image and extract the key information.

You must respond with valid JSON in this exact format:
{
  "merchant": "Business name",
  "total": 12.34,
  "date": "YYYY-MM-DD",
  "category": "` + strings.Join(receipt.Categories, "|") + `",
  "rawText": "All visible text from the receipt"
}

Rules:
- merchant: the store or business name, usually at the top of the receipt
- total: the final amount due as a number, without currency symbols
- date: the transaction date converted to YYYY-MM-DD
- category: exactly one value from the list above
- rawText: all visible text, for debugging
- Use null for any field you cannot extract reliably
- Return ONLY the JSON object. Do not add text before or after it and do not use markdown code blocks`

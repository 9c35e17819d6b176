package scanning

import (
	"encoding/json"
	"fmt"

	"github.com/zombor/receipt-extract/internal/receipt"
)

// ParseResponse extracts the first balanced JSON object from an inference
// response, which may be wrapped in prose or markdown, and decodes it.
func ParseResponse(text string) (receipt.ParsedInvoice, error) {
	obj, ok := firstObject(text)
	if !ok {
		return receipt.ParsedInvoice{}, fmt.Errorf("%w: no JSON object found in response", ErrMalformedResponse)
	}

	var inv receipt.ParsedInvoice
	if err := json.Unmarshal([]byte(obj), &inv); err != nil {
		return receipt.ParsedInvoice{}, fmt.Errorf("%w: unmarshaling json: %v", ErrMalformedResponse, err)
	}

	return receipt.Normalize(inv), nil
}

// firstObject returns the first brace-balanced {...} substring. Braces inside
// JSON strings are ignored.
func firstObject(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if start < 0 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

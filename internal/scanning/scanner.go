package scanning

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/zombor/receipt-extract/internal/preprocess"
	"github.com/zombor/receipt-extract/internal/receipt"
)

// Classified remote failures. All of them are recoverable by falling back to
// local recognition.
var (
	ErrRateLimited       = errors.New("remote inference rate limited")
	ErrQuotaExceeded     = errors.New("remote inference quota exceeded")
	ErrUnavailable       = errors.New("remote inference unavailable")
	ErrMalformedResponse = errors.New("remote inference response malformed")
)

// Scanner defines the interface for remote receipt inference
type Scanner interface {
	// ScanReceipt sends the image to the inference service and returns the
	// normalized invoice. Failures wrap one of the classified errors.
	ScanReceipt(ctx context.Context, img receipt.Image) (receipt.ParsedInvoice, error)
	// Close closes the scanner and releases resources
	Close() error
}

var (
	_ Scanner = (*Gateway)(nil)
	_ Scanner = (*Gemini)(nil)
	_ Scanner = (*Ollama)(nil)
)

// classifyStatus maps a non-2xx HTTP status onto the failure taxonomy
func classifyStatus(code int) error {
	switch code {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusPaymentRequired:
		return ErrQuotaExceeded
	default:
		return ErrUnavailable
	}
}

// StatusCode is the inverse of classifyStatus, used when serving the remote
// contract.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrQuotaExceeded):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// modelImage converts img to the PNG the model backends expect. An image that
// cannot be converted is reported as ErrUnavailable so the failure stays
// within the classified set.
func modelImage(img receipt.Image) (receipt.Image, error) {
	png, err := preprocess.ToPNG(img)
	if err != nil {
		return receipt.Image{}, fmt.Errorf("%w: preparing image: %w", ErrUnavailable, err)
	}
	return png, nil
}

// unavailable wraps transport-level failures (timeouts, refused connections)
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

package receipt

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Supported media types accepted at the pipeline boundary
const (
	MediaTypeJPEG = "image/jpeg"
	MediaTypePNG  = "image/png"
	MediaTypeWebP = "image/webp"
	MediaTypeHEIC = "image/heic"
	MediaTypeHEIF = "image/heif"
	MediaTypePDF  = "application/pdf"
)

// MaxImageSize is the largest payload the caller is expected to hand to the pipeline
const MaxImageSize = 10 << 20

// Image is an encoded image payload plus its declared media type.
// It is used both for the caller's raw image and for the preprocessed copy.
type Image struct {
	Data      []byte
	MediaType string
}

// NormalizeMediaType lowercases and trims a media type, dropping parameters
func NormalizeMediaType(mediaType string) string {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	return mediaType
}

// IsSupportedMediaType reports whether the pipeline can decode the media type
func IsSupportedMediaType(mediaType string) bool {
	switch NormalizeMediaType(mediaType) {
	case MediaTypeJPEG, "image/jpg", MediaTypePNG, MediaTypeWebP, MediaTypeHEIC, MediaTypeHEIF, MediaTypePDF:
		return true
	}
	return false
}

// Categories is the fixed category vocabulary, in display order
var Categories = []string{
	"Food",
	"Coffee",
	"Hotel",
	"Flights",
	"Transportation",
	"Entertainment",
	"Other",
}

// IsCategory reports whether name belongs to the category vocabulary
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// ParsedInvoice is the structured record produced for a receipt.
// Empty strings and an invalid Total mean the field is absent.
type ParsedInvoice struct {
	Merchant string
	Total    decimal.NullDecimal
	Date     string // YYYY-MM-DD
	Category string
	RawText  string
}

// HasFields reports whether any of merchant, total, date or category is present
func (p ParsedInvoice) HasFields() bool {
	return p.HasCoreFields() || p.Category != ""
}

// HasCoreFields reports whether any of merchant, total or date is present
func (p ParsedInvoice) HasCoreFields() bool {
	return p.Merchant != "" || p.Total.Valid || p.Date != ""
}

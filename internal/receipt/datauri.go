package receipt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDataURI = errors.New("invalid data uri")

// ParseDataURI decodes a base64 data URI such as "data:image/png;base64,iVBOR..."
func ParseDataURI(uri string) (Image, error) {
	uri = strings.TrimSpace(uri)
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing payload", ErrInvalidDataURI)
	}

	mediaType, params, _ := strings.Cut(header, ";")
	if !strings.Contains(strings.ToLower(params), "base64") {
		return Image{}, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some clients strip padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return Image{}, fmt.Errorf("%w: decoding base64: %v", ErrInvalidDataURI, err)
		}
	}

	mediaType = NormalizeMediaType(mediaType)
	if mediaType == "" {
		mediaType = MediaTypeJPEG
	}

	return Image{Data: data, MediaType: mediaType}, nil
}

// DataURI encodes the image as a base64 data URI
func (i Image) DataURI() string {
	mediaType := NormalizeMediaType(i.MediaType)
	if mediaType == "" {
		mediaType = MediaTypeJPEG
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

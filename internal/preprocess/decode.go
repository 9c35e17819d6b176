package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/zombor/receipt-extract/internal/receipt"
)

// ErrDecode is returned when an image payload cannot be decoded
var ErrDecode = errors.New("decoding image")

// Decode decodes JPEG, PNG, GIF, WebP, HEIC/HEIF and PDF (first page) payloads
func Decode(img receipt.Image) (decoded image.Image, err error) {
	defer func() {
		// Third party decoders panic on some truncated inputs
		if r := recover(); r != nil {
			decoded, err = nil, fmt.Errorf("%w: decoder panic: %v", ErrDecode, r)
		}
	}()

	if len(img.Data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	mediaType := receipt.NormalizeMediaType(img.MediaType)
	switch {
	case mediaType == receipt.MediaTypePDF || bytes.HasPrefix(img.Data, []byte("%PDF")):
		return decodePDF(img.Data)
	case isHEICFormat(img.Data) || isHEICMediaType(mediaType):
		decoded, err = heic.Decode(bytes.NewReader(img.Data))
		if err != nil {
			return nil, fmt.Errorf("%w: heic: %v", ErrDecode, err)
		}
		return decoded, nil
	}

	decoded, err = imaging.Decode(bytes.NewReader(img.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return decoded, nil
}

// decodePDF renders the first page; receipts are almost always single page
func decodePDF(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: opening pdf: %v", ErrDecode, err)
	}
	defer doc.Close()

	page, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("%w: rendering pdf page: %v", ErrDecode, err)
	}
	return page, nil
}

// isHEICFormat checks for an ftyp box with a HEIC/HEIF brand at offset 4
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMediaType(mediaType string) bool {
	return strings.Contains(mediaType, "heic") || strings.Contains(mediaType, "heif")
}

// ToPNG decodes any supported payload and re-encodes it as PNG. PNG input is
// returned unchanged.
func ToPNG(img receipt.Image) (receipt.Image, error) {
	if receipt.NormalizeMediaType(img.MediaType) == receipt.MediaTypePNG && !isHEICFormat(img.Data) {
		return img, nil
	}

	decoded, err := Decode(img)
	if err != nil {
		return receipt.Image{}, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, decoded, imaging.PNG); err != nil {
		return receipt.Image{}, fmt.Errorf("encoding png: %w", err)
	}
	return receipt.Image{Data: buf.Bytes(), MediaType: receipt.MediaTypePNG}, nil
}

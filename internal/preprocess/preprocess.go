// Package preprocess prepares receipt photos for text recognition.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/zombor/receipt-extract/internal/receipt"
)

const (
	DefaultMaxSide           = 1600
	DefaultContrast          = 25.0
	DefaultBrightenThreshold = 180
)

// Preprocessor bounds, grayscales and contrast-adjusts images before OCR
type Preprocessor struct {
	// MaxSide is the longest allowed side in pixels. Images are only scaled down.
	MaxSide int
	// Contrast is the linear contrast adjustment in percent (-100..100)
	Contrast float64
	// BrightenThreshold is the luminance above which pixels are pushed toward
	// white to clean up paper background.
	BrightenThreshold uint8

	logger *slog.Logger
}

// New creates a Preprocessor with default settings
func New(logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preprocessor{
		MaxSide:           DefaultMaxSide,
		Contrast:          DefaultContrast,
		BrightenThreshold: DefaultBrightenThreshold,
		logger:            logger,
	}
}

// Process returns the preprocessed image. If the image cannot be decoded the
// original is returned unchanged together with an ErrDecode error; the
// returned image is always usable.
func (p *Preprocessor) Process(img receipt.Image) (receipt.Image, error) {
	decoded, err := Decode(img)
	if err != nil {
		p.logger.Warn("Skipping preprocessing", "media_type", img.MediaType, "size", len(img.Data), "error", err)
		return img, err
	}

	out := p.transform(decoded)

	format := imaging.PNG
	mediaType := receipt.MediaTypePNG
	if receipt.NormalizeMediaType(img.MediaType) == receipt.MediaTypeJPEG {
		format = imaging.JPEG
		mediaType = receipt.MediaTypeJPEG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, format, imaging.JPEGQuality(92)); err != nil {
		p.logger.Warn("Skipping preprocessing", "media_type", img.MediaType, "error", err)
		return img, fmt.Errorf("%w: encoding: %v", ErrDecode, err)
	}

	bounds := out.Bounds()
	p.logger.Debug("Preprocessed image",
		"width", bounds.Dx(),
		"height", bounds.Dy(),
		"media_type", mediaType,
		"size", buf.Len(),
	)

	return receipt.Image{Data: buf.Bytes(), MediaType: mediaType}, nil
}

func (p *Preprocessor) transform(img image.Image) *image.NRGBA {
	maxSide := p.MaxSide
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}

	// Fit never enlarges
	resized := imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
	gray := imaging.Grayscale(resized)
	contrasted := imaging.AdjustContrast(gray, p.Contrast)

	threshold := p.BrightenThreshold
	if threshold == 0 {
		threshold = DefaultBrightenThreshold
	}
	return imaging.AdjustFunc(contrasted, func(c color.NRGBA) color.NRGBA {
		if c.R < threshold {
			return c
		}
		v := c.R + (255-c.R)/2
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})
}

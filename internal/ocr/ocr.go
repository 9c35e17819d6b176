// Package ocr wraps the on-device Tesseract engine.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/zombor/receipt-extract/internal/receipt"
)

// ErrEngine is returned for any failure inside the recognition engine
var ErrEngine = errors.New("local recognition engine failed")

// SegMode is a Tesseract page segmentation mode
type SegMode int

const (
	SegModeAuto         SegMode = SegMode(gosseract.PSM_AUTO)
	SegModeSingleColumn SegMode = SegMode(gosseract.PSM_SINGLE_COLUMN)
	SegModeSingleBlock  SegMode = SegMode(gosseract.PSM_SINGLE_BLOCK)
	SegModeSparseText   SegMode = SegMode(gosseract.PSM_SPARSE_TEXT)
)

// ParseSegMode accepts a PSM number (e.g. "6") or one of auto, column, block, sparse
func ParseSegMode(s string) (SegMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto":
		return SegModeAuto, nil
	case "column":
		return SegModeSingleColumn, nil
	case "block":
		return SegModeSingleBlock, nil
	case "sparse":
		return SegModeSparseText, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > 13 {
		return 0, fmt.Errorf("invalid segmentation mode %q", s)
	}
	return SegMode(n), nil
}

// Engine recognizes text in an image
type Engine interface {
	Recognize(ctx context.Context, img receipt.Image, mode SegMode) (string, error)
}

var _ Engine = (*Tesseract)(nil)

// Config configures the Tesseract engine
type Config struct {
	Language       string // default "eng"
	DPI            int    // resolution hint, default 300
	TessdataPrefix string
}

// Tesseract recognizes text with a fresh gosseract client per call
type Tesseract struct {
	cfg    Config
	logger *slog.Logger
}

// NewTesseract creates a Tesseract engine
func NewTesseract(cfg Config, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Tesseract{cfg: cfg, logger: logger}
}

// Recognize runs OCR on the image. It never panics: engine failures of any
// kind are returned wrapped in ErrEngine. The call cannot be interrupted once
// the engine has started.
func (t *Tesseract) Recognize(ctx context.Context, img receipt.Image, mode SegMode) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: panic: %v", ErrEngine, r)
		}
	}()

	// Only direct callers can arrive cancelled; the pipeline detaches ctx so
	// a pass it has started always runs.
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngine, err)
	}

	start := time.Now()
	client := gosseract.NewClient()
	defer client.Close()

	if t.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.cfg.TessdataPrefix); err != nil {
			return "", fmt.Errorf("%w: setting tessdata prefix: %v", ErrEngine, err)
		}
	}
	if err := client.SetLanguage(t.cfg.Language); err != nil {
		return "", fmt.Errorf("%w: setting language %s: %v", ErrEngine, t.cfg.Language, err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(mode)); err != nil {
		return "", fmt.Errorf("%w: setting page segmentation mode %d: %v", ErrEngine, mode, err)
	}
	if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
		return "", fmt.Errorf("%w: preserving interword spaces: %v", ErrEngine, err)
	}
	if err := client.SetVariable("user_defined_dpi", strconv.Itoa(t.cfg.DPI)); err != nil {
		return "", fmt.Errorf("%w: setting dpi: %v", ErrEngine, err)
	}
	if err := client.SetImageFromBytes(img.Data); err != nil {
		return "", fmt.Errorf("%w: loading image: %v", ErrEngine, err)
	}

	text, err = client.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngine, err)
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	t.logger.Debug("Recognized text",
		"mode", int(mode),
		"language", t.cfg.Language,
		"chars", len(text),
		"duration", time.Since(start),
	)
	return text, nil
}

// Package pipeline sequences remote inference and local recognition into a
// fallback chain that always produces a ParsedInvoice.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/receipt-extract/internal/extract"
	"github.com/zombor/receipt-extract/internal/ocr"
	"github.com/zombor/receipt-extract/internal/preprocess"
	"github.com/zombor/receipt-extract/internal/receipt"
	"github.com/zombor/receipt-extract/internal/scanning"
)

// Tier identifies which extraction strategy produced a result
type Tier string

const (
	TierNone           Tier = "none"
	TierRemote         Tier = "remote"
	TierLocalPrimary   Tier = "local-primary"
	TierLocalAlternate Tier = "local-alternate"
)

// Preprocessor prepares an image for recognition. It must always return a
// usable image, falling back to its input on error.
type Preprocessor interface {
	Process(img receipt.Image) (receipt.Image, error)
}

// Config holds the local recognition settings
type Config struct {
	PrimaryMode   ocr.SegMode
	AlternateMode ocr.SegMode
}

// DefaultConfig reads receipts as a single block first, then as sparse text
func DefaultConfig() Config {
	return Config{
		PrimaryMode:   ocr.SegModeSingleBlock,
		AlternateMode: ocr.SegModeSparseText,
	}
}

// Result is the outcome of one pipeline invocation. Only Invoice is data; the
// remaining fields are advisory and never signal failure.
type Result struct {
	Invoice       receipt.ParsedInvoice
	Tier          Tier
	RateLimited   bool
	QuotaExceeded bool
	Errors        []error
}

// Pipeline runs the extraction fallback chain. Either tier may be nil.
type Pipeline struct {
	remote       scanning.Scanner
	engine       ocr.Engine
	preprocessor Preprocessor
	cfg          Config
	logger       *slog.Logger
}

// New creates a Pipeline with the default preprocessor
func New(remote scanning.Scanner, engine ocr.Engine, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return NewWithDeps(remote, engine, preprocess.New(logger), cfg, logger)
}

// NewWithDeps creates a Pipeline with a custom preprocessor for testing
func NewWithDeps(remote scanning.Scanner, engine ocr.Engine, preprocessor Preprocessor, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		remote:       remote,
		engine:       engine,
		preprocessor: preprocessor,
		cfg:          cfg,
		logger:       logger,
	}
}

// errSkipped marks a strategy that does not apply to this invocation
var errSkipped = errors.New("strategy skipped")

// invocation is the per-call state shared by the strategies
type invocation struct {
	img      receipt.Image
	prepared *receipt.Image
	text     string // raw text from the most recent local pass
	logger   *slog.Logger
}

type strategy struct {
	tier Tier
	// panicErr is the classified error a panic inside attempt turns into
	panicErr error
	attempt  func(ctx context.Context, inv *invocation) (receipt.ParsedInvoice, error)
	// useful decides whether the chain stops at this strategy
	useful func(receipt.ParsedInvoice) bool
}

func (p *Pipeline) strategies() []strategy {
	return []strategy{
		{
			tier:     TierRemote,
			panicErr: scanning.ErrUnavailable,
			attempt:  p.remoteAttempt,
			useful:   receipt.ParsedInvoice.HasCoreFields,
		},
		{
			tier:     TierLocalPrimary,
			panicErr: ocr.ErrEngine,
			attempt:  p.localAttempt(p.cfg.PrimaryMode, false),
			useful:   receipt.ParsedInvoice.HasFields,
		},
		{
			tier:     TierLocalAlternate,
			panicErr: ocr.ErrEngine,
			attempt:  p.localAttempt(p.cfg.AlternateMode, true),
			useful:   receipt.ParsedInvoice.HasFields,
		},
	}
}

// Extract runs the fallback chain for one image and always returns a result.
// Cancelling ctx aborts an in-flight remote call; a local pass that has
// started runs to completion, but no further tier is started.
func (p *Pipeline) Extract(ctx context.Context, img receipt.Image) Result {
	logger := p.logger.With("request_id", uuid.New().String())
	start := time.Now()

	inv := &invocation{img: img, logger: logger}
	result := Result{Tier: TierNone}

	for _, s := range p.strategies() {
		if err := ctx.Err(); err != nil {
			logger.Warn("Extraction cancelled", "next_tier", s.tier, "error", err)
			result.Errors = append(result.Errors, err)
			break
		}

		parsed, err := p.run(ctx, s, inv)
		if errors.Is(err, errSkipped) {
			continue
		}
		if err != nil {
			result.Errors = append(result.Errors, err)
			result.RateLimited = result.RateLimited || errors.Is(err, scanning.ErrRateLimited)
			result.QuotaExceeded = result.QuotaExceeded || errors.Is(err, scanning.ErrQuotaExceeded)
			logger.Warn("Extraction tier failed", "tier", s.tier, "error", err)
			if s.tier != TierRemote {
				// a failed local pass leaves an empty result without raw text
				result.Invoice = receipt.ParsedInvoice{}
				result.Tier = s.tier
			}
			continue
		}

		// Local passes always replace the best-effort result so raw text
		// reflects the pass that actually ran.
		if s.tier != TierRemote {
			result.Invoice = parsed
			result.Tier = s.tier
		}

		if s.useful(parsed) {
			result.Invoice = parsed
			result.Tier = s.tier
			break
		}
		logger.Info("Extraction tier produced no fields", "tier", s.tier)
	}

	logger.Info("Extraction finished",
		"tier", result.Tier,
		"has_fields", result.Invoice.HasFields(),
		"rate_limited", result.RateLimited,
		"quota_exceeded", result.QuotaExceeded,
		"duration", time.Since(start),
	)
	return result
}

// ExtractDataURI runs the chain for an image given as a base64 data URI
func (p *Pipeline) ExtractDataURI(ctx context.Context, uri string) Result {
	img, err := receipt.ParseDataURI(uri)
	if err != nil {
		p.logger.Warn("Rejecting image", "error", err)
		return Result{Tier: TierNone, Errors: []error{err}}
	}
	return p.Extract(ctx, img)
}

// run executes one strategy, converting panics into the strategy's error
func (p *Pipeline) run(ctx context.Context, s strategy, inv *invocation) (parsed receipt.ParsedInvoice, err error) {
	defer func() {
		if r := recover(); r != nil {
			parsed, err = receipt.ParsedInvoice{}, fmt.Errorf("%w: %s panic: %v", s.panicErr, s.tier, r)
		}
	}()
	return s.attempt(ctx, inv)
}

func (p *Pipeline) remoteAttempt(ctx context.Context, inv *invocation) (receipt.ParsedInvoice, error) {
	if p.remote == nil {
		return receipt.ParsedInvoice{}, errSkipped
	}
	parsed, err := p.remote.ScanReceipt(ctx, inv.img)
	if err != nil {
		return receipt.ParsedInvoice{}, err
	}
	return receipt.Normalize(parsed), nil
}

// localAttempt recognizes the preprocessed image with the given mode. The
// alternate pass only runs when the previous pass produced text.
func (p *Pipeline) localAttempt(mode ocr.SegMode, alternate bool) func(context.Context, *invocation) (receipt.ParsedInvoice, error) {
	return func(ctx context.Context, inv *invocation) (receipt.ParsedInvoice, error) {
		if p.engine == nil {
			return receipt.ParsedInvoice{}, errSkipped
		}
		if alternate && strings.TrimSpace(inv.text) == "" {
			return receipt.ParsedInvoice{}, errSkipped
		}

		img := p.prepare(inv)
		inv.text = ""

		text, err := p.recognize(ctx, img, mode)
		if err != nil {
			return receipt.ParsedInvoice{}, err
		}
		inv.text = text
		inv.logger.Debug("Local recognition text", "mode", int(mode), "text", text)

		return extract.Text(text), nil
	}
}

// prepare preprocesses the image once per invocation
func (p *Pipeline) prepare(inv *invocation) receipt.Image {
	if inv.prepared != nil {
		return *inv.prepared
	}

	img := inv.img
	if p.preprocessor != nil {
		out, err := p.preprocessor.Process(inv.img)
		if err != nil {
			inv.logger.Warn("Preprocessing failed, using original image", "error", err)
		}
		if len(out.Data) > 0 {
			img = out
		}
	}

	inv.prepared = &img
	return img
}

// recognize runs the engine on its own goroutine and waits for it. The
// engine's context is detached from cancellation so a started pass can finish.
func (p *Pipeline) recognize(ctx context.Context, img receipt.Image, mode ocr.SegMode) (string, error) {
	type outcome struct {
		text string
		err  error
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: panic: %v", ocr.ErrEngine, r)}
			}
		}()
		text, err := p.engine.Recognize(context.WithoutCancel(ctx), img, mode)
		done <- outcome{text: text, err: err}
	}()

	out := <-done
	if out.err != nil && !errors.Is(out.err, ocr.ErrEngine) {
		out.err = fmt.Errorf("%w: %v", ocr.ErrEngine, out.err)
	}
	return out.text, out.err
}

package scanning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/zombor/receipt-extract/internal/receipt"
)

// Gemini implements the Scanner interface using Google Gemini
type Gemini struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGemini creates a new Gemini Scanner instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	// Deterministic, single-candidate output; rawText can run long
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)
	model.SetCandidateCount(1)
	model.SetMaxOutputTokens(4096)

	return &Gemini{
		client:  client,
		model:   model,
		timeout: 30 * time.Second,
	}, nil
}

// ScanReceipt sends the receipt as PNG together with the schema prompt
func (g *Gemini) ScanReceipt(ctx context.Context, img receipt.Image) (receipt.ParsedInvoice, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	png, err := modelImage(img)
	if err != nil {
		return receipt.ParsedInvoice{}, fmt.Errorf("gemini: %w", err)
	}

	// ImageData takes the format suffix, not the MIME type
	resp, err := g.model.GenerateContent(ctx, genai.ImageData("png", png.Data), genai.Text(receiptScanPrompt))
	if err != nil {
		return receipt.ParsedInvoice{}, classifyGeminiError(err)
	}

	text, ok := candidateText(resp)
	if !ok {
		return receipt.ParsedInvoice{}, fmt.Errorf("%w: gemini returned no candidates", ErrMalformedResponse)
	}
	return ParseResponse(text)
}

// candidateText joins the text parts of the first candidate
func candidateText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return "", false
	}

	var sb strings.Builder
	for _, part := range content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), sb.Len() > 0
}

// classifyGeminiError maps REST and gRPC failures onto the failure taxonomy
func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: gemini status %d: %v", classifyStatus(apiErr.Code), apiErr.Code, err)
	}
	if st, ok := status.FromError(err); ok && st.Code() == codes.ResourceExhausted {
		return fmt.Errorf("%w: gemini: %v", ErrRateLimited, err)
	}
	return unavailable("generating content", err)
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}

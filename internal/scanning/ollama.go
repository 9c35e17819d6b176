package scanning

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zombor/receipt-extract/internal/receipt"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llava"

	// vision models on CPU routinely take over a minute per image
	ollamaTimeout = 120 * time.Second
)

// Ollama implements the Scanner interface against a local Ollama server.
// Vision models known to read receipts well: llava:1.6, qwen2-vl:7b, and
// llava-phi3 when speed matters more than accuracy.
type Ollama struct {
	chatURL string
	model   string
	client  *http.Client
}

// NewOllama creates a new Ollama Scanner instance
func NewOllama(baseURL string, modelName string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if modelName == "" {
		modelName = defaultOllamaModel
	}
	return &Ollama{
		chatURL: strings.TrimRight(baseURL, "/") + "/api/chat",
		model:   modelName,
		client:  &http.Client{Timeout: ollamaTimeout},
	}, nil
}

type ollamaChat struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaReply struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// ScanReceipt asks the model for the invoice fields in JSON mode. The image is
// sent as PNG since not every vision model accepts JPEG or WebP.
func (o *Ollama) ScanReceipt(ctx context.Context, img receipt.Image) (receipt.ParsedInvoice, error) {
	png, err := modelImage(img)
	if err != nil {
		return receipt.ParsedInvoice{}, fmt.Errorf("ollama: %w", err)
	}

	body, err := postJSON(ctx, o.client, o.chatURL, nil, o.chat(png))
	if err != nil {
		return receipt.ParsedInvoice{}, fmt.Errorf("ollama: %w", err)
	}

	var reply ollamaReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return receipt.ParsedInvoice{}, fmt.Errorf("%w: ollama reply: %v", ErrMalformedResponse, err)
	}
	return ParseResponse(reply.Message.Content)
}

func (o *Ollama) chat(png receipt.Image) ollamaChat {
	return ollamaChat{
		Model:  o.model,
		Format: "json",
		Options: ollamaOptions{
			Temperature: 0,
		},
		Messages: []ollamaMessage{
			{
				Role:    "system",
				Content: "You read photographed receipts and answer with a single JSON object.",
			},
			{
				Role:    "user",
				Content: receiptScanPrompt,
				Images:  []string{base64.StdEncoding.EncodeToString(png.Data)},
			},
		},
	}
}

// Close is a no-op for the HTTP client
func (o *Ollama) Close() error {
	return nil
}

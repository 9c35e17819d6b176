package scanning

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zombor/receipt-extract/internal/receipt"
)

const (
	DefaultGatewayTimeout = 30 * time.Second

	// maxResponseSize bounds how much of a response body is read
	maxResponseSize = 4 << 20
)

// Gateway implements the Scanner interface against a receipt extraction
// endpoint that accepts {"imageData": <data-uri>} and answers with a
// ParsedInvoice JSON object.
type Gateway struct {
	url     string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

// NewGateway creates a new Gateway Scanner instance
func NewGateway(url string, apiKey string, timeout time.Duration) (*Gateway, error) {
	return NewGatewayWithClient(url, apiKey, timeout, &http.Client{})
}

// NewGatewayWithClient creates a Gateway with a custom HTTP client
func NewGatewayWithClient(url string, apiKey string, timeout time.Duration, client *http.Client) (*Gateway, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("gateway url is required")
	}
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}
	return &Gateway{
		url:     url,
		apiKey:  apiKey,
		timeout: timeout,
		client:  client,
	}, nil
}

type gatewayRequest struct {
	ImageData string `json:"imageData"`
}

// ScanReceipt posts the image to the gateway. The request is bounded by the
// gateway timeout as well as by ctx.
func (g *Gateway) ScanReceipt(ctx context.Context, img receipt.Image) (receipt.ParsedInvoice, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	header := http.Header{}
	if g.apiKey != "" {
		header.Set("Authorization", "Bearer "+g.apiKey)
	}

	body, err := postJSON(ctx, g.client, g.url, header, gatewayRequest{ImageData: img.DataURI()})
	if err != nil {
		return receipt.ParsedInvoice{}, fmt.Errorf("gateway: %w", err)
	}
	return ParseResponse(string(body))
}

// Close is a no-op for the HTTP client
func (g *Gateway) Close() error {
	return nil
}

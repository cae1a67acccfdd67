package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gatewaylabs/llmproxy/internal/credentials"
)

// ForwarderOption configures the forwarder.
type ForwarderOption func(*Forwarder)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ForwarderOption {
	return func(f *Forwarder) {
		f.httpClient = httpClient
	}
}

// Forwarder relays a request body to the upstream chosen by the resolved
// credentials and returns the upstream's answer verbatim.
type Forwarder struct {
	registry   *Registry
	httpClient *http.Client
}

// NewForwarder creates a forwarder over the given registry.
func NewForwarder(registry *Registry, opts ...ForwarderOption) *Forwarder {
	f := &Forwarder{
		registry:   registry,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Response is the upstream answer relayed back to the caller.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Forward sends body to the provider named in creds, authorized with the
// bundle's API key and honoring its base URL override.
func (f *Forwarder) Forward(ctx context.Context, creds credentials.Bundle, body []byte) (*Response, error) {
	upstream, ok := f.registry.Lookup(creds.Provider)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", creds.Provider)
	}
	if upstream.BaseURL == "" && creds.BaseURL == "" {
		return nil, fmt.Errorf("provider %q requires a base URL", creds.Provider)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, upstream.ChatURL(creds.BaseURL), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	upstream.Authorize(req, creds.APIKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        respBody,
	}, nil
}

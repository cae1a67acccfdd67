// Package provider knows how to talk to upstream LLM APIs: which endpoint a
// provider lives at and how its API key travels on the wire. It consumes
// resolved credential bundles; it never decides where they come from.
package provider

import (
	"net/http"
	"strings"
)

// authStyle is how an upstream expects its API key.
type authStyle int

const (
	authBearer authStyle = iota // Authorization: Bearer <key>
	authAnthropic               // x-api-key + anthropic-version
	authAPIKeyHeader            // api-key: <key> (Azure OpenAI)
)

const anthropicVersion = "2023-06-01"

// Upstream describes one provider's endpoint and auth conventions.
type Upstream struct {
	Name     string
	BaseURL  string // default; empty means a per-request base URL is required
	ChatPath string
	auth     authStyle
}

// ChatURL returns the chat-completions URL, preferring the per-request
// override when supplied (self-hosted and Azure deployments).
func (u Upstream) ChatURL(baseURL string) string {
	base := u.BaseURL
	if baseURL != "" {
		base = baseURL
	}
	return strings.TrimRight(base, "/") + u.ChatPath
}

// Authorize sets the provider-appropriate auth headers on req.
func (u Upstream) Authorize(req *http.Request, apiKey string) {
	switch u.auth {
	case authAnthropic:
		req.Header.Set("x-api-key", apiKey)
		req.Header.Set("anthropic-version", anthropicVersion)
	case authAPIKeyHeader:
		req.Header.Set("api-key", apiKey)
	default:
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

// Registry maps provider names to upstream conventions.
type Registry struct {
	upstreams map[string]Upstream
}

// NewRegistry creates a registry with the built-in providers.
func NewRegistry() *Registry {
	r := &Registry{upstreams: make(map[string]Upstream)}
	for _, u := range []Upstream{
		{Name: "openai", BaseURL: "https://api.openai.com", ChatPath: "/v1/chat/completions", auth: authBearer},
		{Name: "anthropic", BaseURL: "https://api.anthropic.com", ChatPath: "/v1/messages", auth: authAnthropic},
		{Name: "azure", ChatPath: "/chat/completions", auth: authAPIKeyHeader},
		{Name: "openrouter", BaseURL: "https://openrouter.ai/api", ChatPath: "/v1/chat/completions", auth: authBearer},
	} {
		r.upstreams[u.Name] = u
	}
	return r
}

// Lookup finds an upstream by provider name, case-insensitively.
func (r *Registry) Lookup(name string) (Upstream, bool) {
	u, ok := r.upstreams[strings.ToLower(name)]
	return u, ok
}

// Package proxy serves the chat-completions surface: it resolves the
// credentials for the request, relays the body to the chosen upstream, and
// records attribution.
package proxy

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gatewaylabs/llmproxy/internal/credentials"
	"github.com/gatewaylabs/llmproxy/internal/provider"
	"github.com/gatewaylabs/llmproxy/internal/server"
	"github.com/gatewaylabs/llmproxy/internal/storage"
	"github.com/gatewaylabs/llmproxy/internal/tokens"
)

const maxBodyBytes = 10 << 20

// Handler proxies chat completion requests upstream.
type Handler struct {
	resolver  *credentials.Resolver
	forwarder *provider.Forwarder
	counter   *tokens.Counter
	usage     storage.UsageStore // nil disables recording
	logger    *slog.Logger
}

// NewHandler creates a proxy handler. usage may be nil.
func NewHandler(resolver *credentials.Resolver, forwarder *provider.Forwarder, usage storage.UsageStore, logger *slog.Logger) *Handler {
	return &Handler{
		resolver:  resolver,
		forwarder: forwarder,
		counter:   tokens.NewCounter(),
		usage:     usage,
		logger:    logger,
	}
}

type chatMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// HandleChatCompletion relays a chat completion request to the upstream
// selected by the resolved credentials.
func (h *Handler) HandleChatCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		server.AddError(ctx, err)
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	creds, source := h.resolver.Resolve(ctx)
	if creds.APIKey == "" {
		writeError(w, http.StatusUnauthorized, "no request credentials and no default API key configured")
		return
	}

	var parsed chatRequest
	// Best effort; an unparseable body is still forwarded and left for the
	// upstream to reject.
	_ = json.Unmarshal(body, &parsed)

	model := parsed.Model
	if creds.Model != "" && creds.Model != parsed.Model {
		model = creds.Model
		if rewritten, ok := rewriteModel(body, creds.Model); ok {
			body = rewritten
		}
	}

	server.AddLogField(ctx, "provider", creds.Provider)
	server.AddLogField(ctx, "model", model)
	server.AddLogField(ctx, "user_id", creds.UserID)
	server.AddLogField(ctx, "organization_id", creds.OrganizationID)
	server.AddLogField(ctx, "credential_source", string(source))

	promptTokens := h.counter.EstimatePrompt(model, toCountable(parsed.Messages))

	resp, err := h.forwarder.Forward(ctx, creds, body)
	if err != nil {
		server.AddError(ctx, err)
		writeError(w, http.StatusBadGateway, err.Error())
		h.record(r, creds, source, model, promptTokens, http.StatusBadGateway, start)
		return
	}

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)

	h.record(r, creds, source, model, promptTokens, resp.StatusCode, start)
}

func (h *Handler) record(r *http.Request, creds credentials.Bundle, source credentials.Source, model string, promptTokens, status int, start time.Time) {
	if h.usage == nil {
		return
	}
	// The request context is already canceled on the timeout/error paths,
	// which are exactly the requests whose attribution matters most; detach
	// so the insert still goes through.
	ctx := context.WithoutCancel(r.Context())
	rec := &storage.UsageRecord{
		RequestID:        server.GetRequestID(ctx),
		UserID:           creds.UserID,
		OrganizationID:   creds.OrganizationID,
		Provider:         creds.Provider,
		Model:            model,
		CredentialSource: string(source),
		PromptTokens:     promptTokens,
		Status:           status,
		Duration:         time.Since(start),
	}
	if err := h.usage.RecordUsage(ctx, rec); err != nil {
		h.logger.Error("failed to record usage",
			slog.String("request_id", rec.RequestID),
			slog.String("error", err.Error()),
		)
	}
}

// HandleListUsage returns recent usage entries, newest first. A limit query
// parameter caps the page size (default 50, max 500).
func (h *Handler) HandleListUsage(w http.ResponseWriter, r *http.Request) {
	if h.usage == nil {
		writeError(w, http.StatusNotFound, "usage recording is disabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > 500 {
			n = 500
		}
		limit = n
	}

	records, err := h.usage.ListRecent(r.Context(), limit)
	if err != nil {
		server.AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "failed to list usage")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   records,
	})
}

// rewriteModel replaces the model field in a raw JSON body.
func rewriteModel(body []byte, model string) ([]byte, bool) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, false
	}
	m["model"] = model
	out, err := json.Marshal(m)
	if err != nil {
		return nil, false
	}
	return out, true
}

// toCountable extracts plain-text message content for token estimation.
// Structured content parts are counted from their raw JSON, which is close
// enough for attribution.
func toCountable(msgs []chatMessage) []tokens.Message {
	out := make([]tokens.Message, 0, len(msgs))
	for _, m := range msgs {
		var text string
		if err := json.Unmarshal(m.Content, &text); err != nil {
			text = string(m.Content)
		}
		out = append(out, tokens.Message{Role: m.Role, Content: text})
	}
	return out
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"message": message},
	})
}

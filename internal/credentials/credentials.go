// Package credentials carries per-request LLM credentials through the call
// chain without threading them through every function signature. A bundle is
// bound to a request's context by the HTTP middleware and read back by the
// upstream invocation logic; two concurrent requests can never observe each
// other's bundles because the binding lives on the request's own context
// chain.
package credentials

import (
	"context"
	"log/slog"
)

// Bundle is the set of credentials supplied with a single request. All
// fields are optional; UserID and OrganizationID exist for attribution
// only and never influence routing.
type Bundle struct {
	APIKey         string
	Provider       string
	Model          string
	BaseURL        string
	UserID         string
	OrganizationID string
}

// bundleKey is the context key for the request's credential bundle.
type bundleKey struct{}

// WithCredentials binds b to the returned context, replacing any bundle
// bound by an ancestor. The binding is visible to everything called with
// the returned context and to nothing else.
func WithCredentials(ctx context.Context, b Bundle) context.Context {
	return context.WithValue(ctx, bundleKey{}, &b)
}

// ClearCredentials removes the credential binding for the returned context.
// Descendants see the same state as if WithCredentials had never been
// called, even when an ancestor context still carries a bundle.
func ClearCredentials(ctx context.Context) context.Context {
	return context.WithValue(ctx, bundleKey{}, (*Bundle)(nil))
}

// FromContext returns the bundle bound nearest on the context chain.
// The second return is false when no bundle was ever bound or the binding
// was cleared.
func FromContext(ctx context.Context) (Bundle, bool) {
	b, ok := ctx.Value(bundleKey{}).(*Bundle)
	if !ok || b == nil {
		return Bundle{}, false
	}
	return *b, true
}

// HasCredentials reports whether the context carries usable request
// credentials: a bundle is bound and its APIKey is non-empty. A bundle
// without an API key counts as absent; callers use this single gate to
// decide between request credentials and process-wide defaults.
func HasCredentials(ctx context.Context) bool {
	b, ok := FromContext(ctx)
	return ok && b.APIKey != ""
}

// String renders the bundle with the API key redacted so accidental
// formatting never leaks the secret.
func (b Bundle) String() string {
	key := ""
	if b.APIKey != "" {
		key = "***"
	}
	return "Bundle{APIKey:" + key +
		" Provider:" + b.Provider +
		" Model:" + b.Model +
		" BaseURL:" + b.BaseURL +
		" UserID:" + b.UserID +
		" OrganizationID:" + b.OrganizationID + "}"
}

// LogValue implements slog.LogValuer with the API key redacted.
func (b Bundle) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 6)
	if b.APIKey != "" {
		attrs = append(attrs, slog.String("api_key", "***"))
	}
	if b.Provider != "" {
		attrs = append(attrs, slog.String("provider", b.Provider))
	}
	if b.Model != "" {
		attrs = append(attrs, slog.String("model", b.Model))
	}
	if b.BaseURL != "" {
		attrs = append(attrs, slog.String("base_url", b.BaseURL))
	}
	if b.UserID != "" {
		attrs = append(attrs, slog.String("user_id", b.UserID))
	}
	if b.OrganizationID != "" {
		attrs = append(attrs, slog.String("organization_id", b.OrganizationID))
	}
	return slog.GroupValue(attrs...)
}

package credentials

import "context"

// Source records where a resolved bundle came from.
type Source string

const (
	// SourceRequest means the bundle was supplied with the request.
	SourceRequest Source = "request"
	// SourceDefault means the process-wide default configuration was used.
	SourceDefault Source = "default"
)

// Resolver chooses between request-scoped credentials and process-wide
// defaults. The precedence rule lives here and nowhere else: request
// credentials win iff HasCredentials reports them usable.
type Resolver struct {
	defaults Bundle
}

// NewResolver creates a resolver that falls back to defaults, typically
// built from environment-derived configuration at startup.
func NewResolver(defaults Bundle) *Resolver {
	return &Resolver{defaults: defaults}
}

// Resolve returns the credentials to use for the current request. The
// request bundle is returned verbatim when present and keyed; there is no
// field-level merging with the defaults.
func (r *Resolver) Resolve(ctx context.Context) (Bundle, Source) {
	if HasCredentials(ctx) {
		b, _ := FromContext(ctx)
		return b, SourceRequest
	}
	return r.defaults, SourceDefault
}

// Package storage defines the usage-attribution log. Credential bundles are
// never persisted; only the attribution fields of a request are.
package storage

import (
	"context"
	"time"
)

// UsageRecord is one proxied request's attribution entry.
type UsageRecord struct {
	ID               string        `json:"id"`
	RequestID        string        `json:"request_id"`
	UserID           string        `json:"user_id,omitempty"`
	OrganizationID   string        `json:"organization_id,omitempty"`
	Provider         string        `json:"provider"`
	Model            string        `json:"model,omitempty"`
	CredentialSource string        `json:"credential_source"` // "request" or "default"
	PromptTokens     int           `json:"prompt_tokens"`
	Status           int           `json:"status"`
	Duration         time.Duration `json:"duration_ns"`
	CreatedAt        time.Time     `json:"created_at"`
}

// UsageStore records and lists usage entries.
type UsageStore interface {
	RecordUsage(ctx context.Context, rec *UsageRecord) error
	ListRecent(ctx context.Context, limit int) ([]*UsageRecord, error)
	Close() error
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gatewaylabs/llmproxy/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &storage.UsageRecord{
		RequestID:        "req-1",
		UserID:           "user-1",
		OrganizationID:   "org-1",
		Provider:         "openai",
		Model:            "gpt-4o",
		CredentialSource: "request",
		PromptTokens:     42,
		Status:           200,
		Duration:         150 * time.Millisecond,
	}
	if err := s.RecordUsage(ctx, rec); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}
	if rec.ID == "" {
		t.Error("Expected an ID to be assigned")
	}

	records, err := s.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	got := records[0]
	if got.RequestID != "req-1" || got.UserID != "user-1" || got.OrganizationID != "org-1" {
		t.Errorf("Attribution fields did not round-trip: %+v", got)
	}
	if got.Provider != "openai" || got.Model != "gpt-4o" || got.CredentialSource != "request" {
		t.Errorf("Routing fields did not round-trip: %+v", got)
	}
	if got.PromptTokens != 42 || got.Status != 200 || got.Duration != 150*time.Millisecond {
		t.Errorf("Usage fields did not round-trip: %+v", got)
	}
}

func TestStore_ListRecent_Ordering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"req-old", "req-mid", "req-new"} {
		rec := &storage.UsageRecord{
			RequestID:        id,
			Provider:         "openai",
			CredentialSource: "default",
			Status:           200,
			CreatedAt:        base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.RecordUsage(ctx, rec); err != nil {
			t.Fatalf("RecordUsage failed: %v", err)
		}
	}

	records, err := s.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].RequestID != "req-new" || records[1].RequestID != "req-mid" {
		t.Errorf("Expected newest-first ordering, got %s then %s",
			records[0].RequestID, records[1].RequestID)
	}
}

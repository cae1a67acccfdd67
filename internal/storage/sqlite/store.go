package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gatewaylabs/llmproxy/internal/storage"
)

// Store is a SQLite implementation of UsageStore
type Store struct {
	db *sql.DB
}

var _ storage.UsageStore = (*Store)(nil)

// New creates a new SQLite store
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS usage_log (
			id TEXT PRIMARY KEY,
			request_id TEXT NOT NULL,
			user_id TEXT,
			organization_id TEXT,
			provider TEXT NOT NULL,
			model TEXT,
			credential_source TEXT NOT NULL,
			prompt_tokens INTEGER,
			status INTEGER NOT NULL,
			duration_ns INTEGER,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_log_user ON usage_log(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_log_org ON usage_log(organization_id)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_log_provider ON usage_log(provider)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_log_created ON usage_log(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// RecordUsage inserts one usage entry. A zero ID or CreatedAt is filled in.
func (s *Store) RecordUsage(ctx context.Context, rec *storage.UsageRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_log (id, request_id, user_id, organization_id, provider, model,
			credential_source, prompt_tokens, status, duration_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RequestID, rec.UserID, rec.OrganizationID, rec.Provider, rec.Model,
		rec.CredentialSource, rec.PromptTokens, rec.Status, rec.Duration.Nanoseconds(), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}

// ListRecent returns up to limit entries, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]*storage.UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, user_id, organization_id, provider, model,
			credential_source, prompt_tokens, status, duration_ns, created_at
		FROM usage_log ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close()

	var records []*storage.UsageRecord
	for rows.Next() {
		var rec storage.UsageRecord
		var durationNs int64
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.UserID, &rec.OrganizationID,
			&rec.Provider, &rec.Model, &rec.CredentialSource, &rec.PromptTokens,
			&rec.Status, &durationNs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		rec.Duration = time.Duration(durationNs)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

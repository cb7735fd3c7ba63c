package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Well-known API token names.
const (
	TokenMetaAccess     = "meta_access_token"
	TokenGoogleRefresh  = "google_refresh_token"
	TokenGoogleDevToken = "google_developer_token"
)

// GetAPIToken returns a stored API token.
func (s *Store) GetAPIToken(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT value FROM api_tokens WHERE name = ?`), name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("loading token %s: %w", name, err)
	}
	return value, nil
}

// SetAPIToken stores or replaces an API token.
func (s *Store) SetAPIToken(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO api_tokens (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		name, value, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("saving token %s: %w", name, err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"pulseboard/notify/internal/notify"
)

// PostgresStore keeps the per-user blobs as JSONB rows, one row per user per
// blob kind. Used when Redis is not configured.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LoadSettings(ctx context.Context, userID string) (notify.Settings, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT settings FROM notification_settings WHERE user_id = $1`, userID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return notify.DefaultSettings(), nil
	}
	if err != nil {
		return notify.DefaultSettings(), fmt.Errorf("load settings: %w", err)
	}

	var settings notify.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		log.Printf("store: corrupt settings for %s, using defaults: %v", userID, err)
		return notify.DefaultSettings(), nil
	}
	return settings, nil
}

func (s *PostgresStore) SaveSettings(ctx context.Context, userID string, settings notify.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notification_settings (user_id, settings)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET settings = EXCLUDED.settings, updated_at = NOW()
	`, userID, raw)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *PostgresStore) LoadHistory(ctx context.Context, userID string) ([]notify.Notification, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT entries FROM notification_history WHERE user_id = $1`, userID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	var entries []notify.Notification
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Printf("store: corrupt history for %s, treating as empty: %v", userID, err)
		return nil, nil
	}
	return entries, nil
}

func (s *PostgresStore) SaveHistory(ctx context.Context, userID string, entries []notify.Notification) error {
	if entries == nil {
		entries = []notify.Notification{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notification_history (user_id, entries)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET entries = EXCLUDED.entries, updated_at = NOW()
	`, userID, raw)
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteHistory(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM notification_history WHERE user_id = $1`, userID,
	); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

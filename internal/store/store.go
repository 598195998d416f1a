// Package store provides persistence backends for per-user notification
// state: one settings blob and one history blob per user, stored as
// independent JSON documents. The two blobs have no transactional guarantee
// between them.
package store

import (
	"context"

	"pulseboard/notify/internal/notify"
)

// Store is the persistence contract the engine depends on. Loads fail soft:
// an absent or unparsable blob comes back as the default-shaped value with a
// diagnostic log line, never as a decode error.
type Store interface {
	LoadSettings(ctx context.Context, userID string) (notify.Settings, error)
	SaveSettings(ctx context.Context, userID string, s notify.Settings) error
	LoadHistory(ctx context.Context, userID string) ([]notify.Notification, error)
	SaveHistory(ctx context.Context, userID string, entries []notify.Notification) error
	DeleteHistory(ctx context.Context, userID string) error
	Ping(ctx context.Context) error
	Close() error
}

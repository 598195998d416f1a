package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"pulseboard/notify/internal/notify"
)

const (
	settingsPrefix = "notify:settings:"
	historyPrefix  = "notify:history:"
)

// RedisStore keeps the per-user blobs in Redis, one key per blob. Entries
// carry no TTL; they live until the user clears them.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Client exposes the underlying connection for the pub/sub event bridge.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

func (s *RedisStore) LoadSettings(ctx context.Context, userID string) (notify.Settings, error) {
	raw, err := s.client.Get(ctx, settingsPrefix+userID).Result()
	if err == redis.Nil {
		return notify.DefaultSettings(), nil
	}
	if err != nil {
		return notify.DefaultSettings(), fmt.Errorf("load settings: %w", err)
	}

	var settings notify.Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		// Corrupt blob reads as absent.
		log.Printf("store: corrupt settings for %s, using defaults: %v", userID, err)
		return notify.DefaultSettings(), nil
	}
	return settings, nil
}

func (s *RedisStore) SaveSettings(ctx context.Context, userID string, settings notify.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := s.client.Set(ctx, settingsPrefix+userID, raw, 0).Err(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadHistory(ctx context.Context, userID string) ([]notify.Notification, error) {
	raw, err := s.client.Get(ctx, historyPrefix+userID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	var entries []notify.Notification
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Printf("store: corrupt history for %s, treating as empty: %v", userID, err)
		return nil, nil
	}
	return entries, nil
}

func (s *RedisStore) SaveHistory(ctx context.Context, userID string, entries []notify.Notification) error {
	if entries == nil {
		entries = []notify.Notification{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := s.client.Set(ctx, historyPrefix+userID, raw, 0).Err(); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteHistory(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, historyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"pulseboard/notify/internal/notify"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	return store, s
}

func TestNewRedisStore(t *testing.T) {
	store, _ := setupTestRedis(t)
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store, _ := setupTestRedis(t)
	defer store.Close()
	ctx := context.Background()

	settings := notify.Settings{
		Email:          false,
		Push:           true,
		WeeklySummary:  true,
		TaskReminders:  false,
		DeadlineAlerts: true,
		TeamUpdates:    false,
	}

	if err := store.SaveSettings(ctx, "user-1", settings); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	loaded, err := store.LoadSettings(ctx, "user-1")
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if loaded != settings {
		t.Errorf("round trip mismatch: saved %+v, loaded %+v", settings, loaded)
	}
}

func TestLoadSettingsAbsentReturnsDefaults(t *testing.T) {
	store, _ := setupTestRedis(t)
	defer store.Close()

	loaded, err := store.LoadSettings(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if loaded != notify.DefaultSettings() {
		t.Errorf("expected defaults, got %+v", loaded)
	}
}

func TestLoadSettingsCorruptReturnsDefaults(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()

	s.Set("notify:settings:user-1", "{not json")

	loaded, err := store.LoadSettings(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("corrupt settings should not error: %v", err)
	}
	if loaded != notify.DefaultSettings() {
		t.Errorf("expected defaults for corrupt blob, got %+v", loaded)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	store, _ := setupTestRedis(t)
	defer store.Close()
	ctx := context.Background()

	entries := []notify.Notification{
		notify.NewNotification("n-2", time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC), notify.Draft{
			Type:     notify.TypePush,
			Category: notify.CategoryDeadline,
			Title:    "Deadline alert",
			Message:  "Apollo is due tomorrow",
			Data:     notify.DeadlinePayload{ProjectID: "proj-1", ProjectName: "Apollo", Days: 1},
		}),
		notify.NewNotification("n-1", time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC), notify.Draft{
			Type:     notify.TypeEmail,
			Category: notify.CategorySummary,
			Title:    "Your weekly project summary",
			Message:  "Total projects: 3",
			Data:     notify.SummaryPayload{Total: 3, AvgProgress: 50, TotalBudget: 3000},
		}),
	}

	if err := store.SaveHistory(ctx, "user-1", entries); err != nil {
		t.Fatalf("SaveHistory failed: %v", err)
	}

	loaded, err := store.LoadHistory(ctx, "user-1")
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(loaded))
	}
	if loaded[0].ID != "n-2" || loaded[1].ID != "n-1" {
		t.Errorf("order not preserved: %s, %s", loaded[0].ID, loaded[1].ID)
	}
	if _, ok := loaded[0].Data.(notify.DeadlinePayload); !ok {
		t.Errorf("expected DeadlinePayload, got %T", loaded[0].Data)
	}
	if payload, ok := loaded[1].Data.(notify.SummaryPayload); !ok || payload.TotalBudget != 3000 {
		t.Errorf("expected SummaryPayload with budget 3000, got %v", loaded[1].Data)
	}
}

func TestLoadHistoryAbsentReturnsEmpty(t *testing.T) {
	store, _ := setupTestRedis(t)
	defer store.Close()

	loaded, err := store.LoadHistory(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty history, got %d entries", len(loaded))
	}
}

func TestLoadHistoryCorruptReturnsEmpty(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()

	s.Set("notify:history:user-1", "[{broken")

	loaded, err := store.LoadHistory(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("corrupt history should not error: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty history for corrupt blob, got %d", len(loaded))
	}
}

func TestDeleteHistory(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	ctx := context.Background()

	if err := store.SaveHistory(ctx, "user-1", []notify.Notification{}); err != nil {
		t.Fatalf("SaveHistory failed: %v", err)
	}
	if !s.Exists("notify:history:user-1") {
		t.Fatal("history key should exist after save")
	}

	if err := store.DeleteHistory(ctx, "user-1"); err != nil {
		t.Fatalf("DeleteHistory failed: %v", err)
	}
	if s.Exists("notify:history:user-1") {
		t.Error("history key should be removed, not emptied")
	}
}

func TestBlobsAreIndependent(t *testing.T) {
	store, _ := setupTestRedis(t)
	defer store.Close()
	ctx := context.Background()

	settings := notify.DefaultSettings()
	settings.Push = true
	if err := store.SaveSettings(ctx, "user-1", settings); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	if err := store.DeleteHistory(ctx, "user-1"); err != nil {
		t.Fatalf("DeleteHistory failed: %v", err)
	}

	loaded, err := store.LoadSettings(ctx, "user-1")
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if !loaded.Push {
		t.Error("settings blob should be untouched by history operations")
	}
}

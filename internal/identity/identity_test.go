package identity

import (
	"strings"
	"testing"
	"time"
)

func TestNextIDUnique(t *testing.T) {
	gen := New("notif")

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := gen.NextID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestNextIDUniqueWithinSameMillisecond(t *testing.T) {
	gen := New("notif")
	frozen := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	gen.now = func() time.Time { return frozen }

	a := gen.NextID()
	b := gen.NextID()
	if a == b {
		t.Fatalf("ids from the same millisecond collided: %s", a)
	}
}

func TestNextIDShape(t *testing.T) {
	gen := New("notif")
	id := gen.NextID()

	if !strings.HasPrefix(id, "notif_") {
		t.Errorf("expected notif_ prefix, got %s", id)
	}
	parts := strings.Split(id, "_")
	if len(parts) != 4 {
		t.Fatalf("expected 4 segments, got %d in %s", len(parts), id)
	}
	if parts[2] != "0" {
		t.Errorf("expected counter to start at 0, got %s", parts[2])
	}
	if len(parts[3]) != 6 {
		t.Errorf("expected 6-char suffix, got %q", parts[3])
	}
}

func TestCounterScopedToGenerator(t *testing.T) {
	a := New("notif")
	b := New("notif")
	a.NextID()
	a.NextID()

	id := b.NextID()
	if parts := strings.Split(id, "_"); parts[2] != "0" {
		t.Errorf("fresh generator should start counting at 0, got %s", parts[2])
	}
}

package notify

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNotificationDecodeResolvesPayloadByCategory(t *testing.T) {
	original := NewNotification("n-1", time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC), Draft{
		Type:     TypePush,
		Category: CategoryTeam,
		Title:    "Team update",
		Message:  "Jordan updated Apollo",
		Data:     TeamPayload{ProjectID: "proj-1", ActorID: "user-9", ActorName: "Jordan", Action: "updated"},
	})

	raw, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Notification
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	payload, ok := decoded.Data.(TeamPayload)
	if !ok {
		t.Fatalf("expected TeamPayload, got %T", decoded.Data)
	}
	if payload.ActorName != "Jordan" || payload.Action != "updated" {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestNotificationDecodeNullData(t *testing.T) {
	raw := []byte(`{"id":"n-1","type":"system","category":"project","title":"t","message":"m","data":null,"read":false,"created_at":"2024-06-10T09:00:00Z"}`)

	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if n.Data != nil {
		t.Errorf("expected nil payload, got %v", n.Data)
	}
}

func TestNotificationDecodeUnknownCategoryKeepsEntry(t *testing.T) {
	raw := []byte(`{"id":"n-1","type":"push","category":"mystery","title":"t","message":"m","data":{"x":1},"read":true,"created_at":"2024-06-10T09:00:00Z"}`)

	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		t.Fatalf("unknown category should not fail the entry: %v", err)
	}
	if n.Data != nil {
		t.Errorf("unknown category payload should be dropped, got %v", n.Data)
	}
	if !n.Read {
		t.Error("remaining fields should decode")
	}
}

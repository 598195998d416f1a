// Package notify implements the per-user notification engine: settings,
// the capacity-bounded ledger, and the rule evaluators that derive
// notifications from project state.
package notify

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type is the delivery channel a notification targets.
type Type string

const (
	TypeEmail  Type = "email"
	TypePush   Type = "push"
	TypeSystem Type = "system"
)

// Category classifies what a notification is about.
type Category string

const (
	CategoryDeadline Category = "deadline"
	CategoryTask     Category = "task"
	CategoryTeam     Category = "team"
	CategorySummary  Category = "summary"
	CategoryProject  Category = "project"
)

// Notification is a single ledger entry. Everything except Read is immutable
// once the entry is created.
type Notification struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Category  Category  `json:"category"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Data      Payload   `json:"data"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Payload is the category-specific structured data attached to a
// notification. It is a closed union: each category that carries data has
// exactly one variant.
type Payload interface {
	isPayload()
}

// DeadlinePayload accompanies deadline alerts.
type DeadlinePayload struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	Days        int    `json:"days"`
}

// TaskPayload accompanies task reminders.
type TaskPayload struct {
	Count        int      `json:"count"`
	ProjectNames []string `json:"projectNames"`
}

// TeamPayload accompanies team updates from the event bridge.
type TeamPayload struct {
	ProjectID string `json:"projectId"`
	ActorID   string `json:"actorId"`
	ActorName string `json:"actorName"`
	Action    string `json:"action"`
}

// SummaryPayload accompanies the weekly summary.
type SummaryPayload struct {
	Completed   int     `json:"completed"`
	InProgress  int     `json:"inProgress"`
	Overdue     int     `json:"overdue"`
	Total       int     `json:"total"`
	AvgProgress int     `json:"avgProgress"`
	TotalBudget float64 `json:"totalBudget"`
}

// ProjectPayload is a bare project reference. No evaluator or bridge path
// produces this variant; it exists so persisted category=project entries
// written by other producers still decode with their data intact.
type ProjectPayload struct {
	ProjectID string `json:"projectId"`
}

func (DeadlinePayload) isPayload() {}
func (TaskPayload) isPayload()     {}
func (TeamPayload) isPayload()     {}
func (SummaryPayload) isPayload()  {}
func (ProjectPayload) isPayload()  {}

// Draft is a notification candidate before an id and timestamp are assigned.
type Draft struct {
	Type     Type
	Category Category
	Title    string
	Message  string
	Data     Payload
}

// NewNotification materializes a draft into an unread ledger entry.
func NewNotification(id string, now time.Time, d Draft) Notification {
	return Notification{
		ID:        id,
		Type:      d.Type,
		Category:  d.Category,
		Title:     d.Title,
		Message:   d.Message,
		Data:      d.Data,
		Read:      false,
		CreatedAt: now,
	}
}

// UnmarshalJSON resolves the payload union by category. Unknown categories
// and malformed payloads decode with Data left nil rather than failing the
// whole entry.
func (n *Notification) UnmarshalJSON(raw []byte) error {
	type alias Notification
	aux := struct {
		*alias
		Data json.RawMessage `json:"data"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return fmt.Errorf("decode notification: %w", err)
	}

	n.Data = nil
	if len(aux.Data) == 0 || string(aux.Data) == "null" {
		return nil
	}

	switch n.Category {
	case CategoryDeadline:
		var p DeadlinePayload
		if err := json.Unmarshal(aux.Data, &p); err == nil {
			n.Data = p
		}
	case CategoryTask:
		var p TaskPayload
		if err := json.Unmarshal(aux.Data, &p); err == nil {
			n.Data = p
		}
	case CategoryTeam:
		var p TeamPayload
		if err := json.Unmarshal(aux.Data, &p); err == nil {
			n.Data = p
		}
	case CategorySummary:
		var p SummaryPayload
		if err := json.Unmarshal(aux.Data, &p); err == nil {
			n.Data = p
		}
	case CategoryProject:
		var p ProjectPayload
		if err := json.Unmarshal(aux.Data, &p); err == nil {
			n.Data = p
		}
	}
	return nil
}

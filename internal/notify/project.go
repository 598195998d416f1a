package notify

import (
	"math"
	"time"
)

// Project status values as reported by the dashboard backend.
const (
	StatusPlanning   = "planning"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusOnHold     = "on-hold"
)

// Project is the read-only slice of dashboard project state the evaluators
// consume. It is never mutated here.
type Project struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	DueDate   *time.Time `json:"dueDate"`
	Budget    float64    `json:"budget"`
	Progress  int        `json:"progress"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (p Project) completed() bool {
	return p.Status == StatusCompleted
}

// Overdue reports whether a non-completed project's due date has passed.
func (p Project) Overdue(now time.Time) bool {
	return !p.completed() && p.DueDate != nil && p.DueDate.Before(now)
}

// touchedAt is the freshest timestamp we have for a project.
func (p Project) touchedAt() time.Time {
	if p.UpdatedAt != nil {
		return *p.UpdatedAt
	}
	return p.CreatedAt
}

const dayMillis = 24 * 60 * 60 * 1000

// daysUntil is the whole number of days between now and due, rounding any
// partial day up. A due date later today yields 0, tomorrow 1, and a date in
// the past goes negative.
func daysUntil(due, now time.Time) int {
	diff := due.Sub(now).Milliseconds()
	return int(math.Ceil(float64(diff) / float64(dayMillis)))
}

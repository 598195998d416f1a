package notify

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// The rule evaluators are pure functions of (settings, project set, now).
// They propose drafts; the caller assigns ids and routes them through the
// emit path. Nothing here runs on a timer — evaluation is always an explicit
// caller decision, and repeated calls will propose duplicate-content drafts
// with distinct ids.

// DeadlineAlerts proposes one draft per non-completed project that is due
// tomorrow, due in three days, or already overdue.
func DeadlineAlerts(s Settings, projects []Project, now time.Time) []Draft {
	if !s.DeadlineAlerts || len(projects) == 0 {
		return nil
	}

	var drafts []Draft
	for _, p := range projects {
		if p.completed() || p.DueDate == nil {
			continue
		}
		days := daysUntil(*p.DueDate, now)

		var message string
		switch {
		case days == 1:
			message = fmt.Sprintf("%s is due tomorrow", p.Name)
		case days == 3:
			message = fmt.Sprintf("%s is due in 3 days", p.Name)
		case days < 0:
			message = fmt.Sprintf("%s is %d day(s) late", p.Name, -days)
		default:
			continue
		}

		drafts = append(drafts, Draft{
			Type:     TypePush,
			Category: CategoryDeadline,
			Title:    "Deadline alert",
			Message:  message,
			Data:     DeadlinePayload{ProjectID: p.ID, ProjectName: p.Name, Days: days},
		})
	}
	return drafts
}

// TaskReminders proposes at most one draft summarizing the non-completed
// projects due within the next seven days.
func TaskReminders(s Settings, projects []Project, now time.Time) []Draft {
	if !s.TaskReminders || len(projects) == 0 {
		return nil
	}

	var names []string
	for _, p := range projects {
		if p.completed() || p.DueDate == nil {
			continue
		}
		if days := daysUntil(*p.DueDate, now); days >= 0 && days <= 7 {
			names = append(names, p.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}

	return []Draft{{
		Type:     TypePush,
		Category: CategoryTask,
		Title:    "Upcoming deadlines",
		Message:  fmt.Sprintf("%d project(s) due within the next 7 days", len(names)),
		Data:     TaskPayload{Count: len(names), ProjectNames: names},
	}}
}

// WeeklySummary proposes exactly one draft with the week's figures:
// completions in the last seven days, active work, overdue projects, total
// budget, and mean progress rounded to the nearest integer.
func WeeklySummary(s Settings, projects []Project, now time.Time) []Draft {
	if !s.WeeklySummary || len(projects) == 0 {
		return nil
	}

	weekAgo := now.Add(-7 * 24 * time.Hour)
	var completed, inProgress, overdue int
	var totalBudget, totalProgress float64
	for _, p := range projects {
		if p.completed() && p.touchedAt().After(weekAgo) {
			completed++
		}
		if p.Status == StatusInProgress || p.Status == StatusPlanning {
			inProgress++
		}
		if p.Overdue(now) {
			overdue++
		}
		totalBudget += p.Budget
		totalProgress += float64(p.Progress)
	}

	avgProgress := 0
	if len(projects) > 0 {
		avgProgress = int(math.Round(totalProgress / float64(len(projects))))
	}

	payload := SummaryPayload{
		Completed:   completed,
		InProgress:  inProgress,
		Overdue:     overdue,
		Total:       len(projects),
		AvgProgress: avgProgress,
		TotalBudget: totalBudget,
	}

	message := strings.Join([]string{
		fmt.Sprintf("Completed this week: %d", completed),
		fmt.Sprintf("In progress: %d", inProgress),
		fmt.Sprintf("Overdue: %d", overdue),
		fmt.Sprintf("Total projects: %d", len(projects)),
		fmt.Sprintf("Average progress: %d%%", avgProgress),
		fmt.Sprintf("Total budget: $%.2f", totalBudget),
	}, "\n")

	return []Draft{{
		Type:     TypeEmail,
		Category: CategorySummary,
		Title:    "Your weekly project summary",
		Message:  message,
		Data:     payload,
	}}
}

package notify

// Settings holds a user's notification channel preferences. Push may only be
// true while the platform permission is granted; the settings manager
// enforces that.
type Settings struct {
	Email          bool `json:"email"`
	Push           bool `json:"push"`
	WeeklySummary  bool `json:"weeklySummary"`
	TaskReminders  bool `json:"taskReminders"`
	DeadlineAlerts bool `json:"deadlineAlerts"`
	TeamUpdates    bool `json:"teamUpdates"`
}

// DefaultSettings is what a user gets on first load. Push starts off because
// it requires an explicit permission grant.
func DefaultSettings() Settings {
	return Settings{
		Email:          true,
		Push:           false,
		WeeklySummary:  true,
		TaskReminders:  true,
		DeadlineAlerts: true,
		TeamUpdates:    true,
	}
}

// SettingsPatch is a partial update; nil fields are left unchanged.
type SettingsPatch struct {
	Email          *bool `json:"email,omitempty"`
	Push           *bool `json:"push,omitempty"`
	WeeklySummary  *bool `json:"weeklySummary,omitempty"`
	TaskReminders  *bool `json:"taskReminders,omitempty"`
	DeadlineAlerts *bool `json:"deadlineAlerts,omitempty"`
	TeamUpdates    *bool `json:"teamUpdates,omitempty"`
}

func (p SettingsPatch) apply(s Settings) Settings {
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.Push != nil {
		s.Push = *p.Push
	}
	if p.WeeklySummary != nil {
		s.WeeklySummary = *p.WeeklySummary
	}
	if p.TaskReminders != nil {
		s.TaskReminders = *p.TaskReminders
	}
	if p.DeadlineAlerts != nil {
		s.DeadlineAlerts = *p.DeadlineAlerts
	}
	if p.TeamUpdates != nil {
		s.TeamUpdates = *p.TeamUpdates
	}
	return s
}

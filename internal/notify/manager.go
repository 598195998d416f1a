package notify

import (
	"context"
	"log"
	"sync"
)

// SettingsStore persists per-user settings. Absent or corrupt blobs load as
// DefaultSettings.
type SettingsStore interface {
	LoadSettings(ctx context.Context, userID string) (Settings, error)
	SaveSettings(ctx context.Context, userID string, s Settings) error
}

// Permissioner reports and requests the platform push permission for a user.
// All three calls swallow transport errors: an unreachable platform reads as
// neither granted nor denied, and a failed request reads as a denial.
type Permissioner interface {
	PermissionGranted(ctx context.Context, userID string) bool
	PermissionDenied(ctx context.Context, userID string) bool
	RequestPermission(ctx context.Context, userID string) bool
}

// SettingsManager owns per-user notification settings. Each user is
// initialized at most once per process; initialization reconciles the stored
// push flag with the actual platform permission.
type SettingsManager struct {
	store       SettingsStore
	permissions Permissioner

	mu     sync.Mutex
	loaded map[string]Settings
}

func NewSettingsManager(store SettingsStore, permissions Permissioner) *SettingsManager {
	return &SettingsManager{
		store:       store,
		permissions: permissions,
		loaded:      make(map[string]Settings),
	}
}

// Initialize loads the user's settings, correcting the push flag against the
// platform permission: an already-granted permission forces push on, a denied
// one forces it off, and either correction is persisted immediately.
// Re-invocation for an already-loaded user is a no-op.
func (m *SettingsManager) Initialize(ctx context.Context, userID string) Settings {
	m.mu.Lock()
	if s, ok := m.loaded[userID]; ok {
		m.mu.Unlock()
		return s
	}
	m.mu.Unlock()

	s, err := m.store.LoadSettings(ctx, userID)
	if err != nil {
		log.Printf("settings: load for %s: %v", userID, err)
		s = DefaultSettings()
	}

	corrected := s
	if m.permissions.PermissionGranted(ctx, userID) && !corrected.Push {
		corrected.Push = true
	}
	if m.permissions.PermissionDenied(ctx, userID) && corrected.Push {
		corrected.Push = false
	}

	m.mu.Lock()
	// Another caller may have initialized the same user while we were
	// loading; the first one wins.
	if existing, ok := m.loaded[userID]; ok {
		m.mu.Unlock()
		return existing
	}
	m.loaded[userID] = corrected
	m.mu.Unlock()

	if corrected != s {
		m.save(ctx, userID, corrected)
	}
	return corrected
}

// Initialized reports whether Initialize has completed for userID.
func (m *SettingsManager) Initialized(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.loaded[userID]
	return ok
}

// Get returns the current settings, initializing the user if needed.
func (m *SettingsManager) Get(ctx context.Context, userID string) Settings {
	m.mu.Lock()
	if s, ok := m.loaded[userID]; ok {
		m.mu.Unlock()
		return s
	}
	m.mu.Unlock()
	return m.Initialize(ctx, userID)
}

// Update merges patch into the user's settings and persists immediately.
// Enabling push triggers a permission request; a refusal reverts push to
// false and persists again, so the optimistic enable and the rollback are
// both visible to the store.
func (m *SettingsManager) Update(ctx context.Context, userID string, patch SettingsPatch) Settings {
	current := m.Get(ctx, userID)
	next := patch.apply(current)

	enablingPush := patch.Push != nil && *patch.Push && !current.Push

	m.setAndSave(ctx, userID, next)

	if enablingPush {
		if !m.permissions.RequestPermission(ctx, userID) {
			next.Push = false
			m.setAndSave(ctx, userID, next)
		}
	}
	return next
}

// ActiveUsers lists every user initialized in this process whose settings
// pass the filter.
func (m *SettingsManager) ActiveUsers(filter func(Settings) bool) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var users []string
	for userID, s := range m.loaded {
		if filter == nil || filter(s) {
			users = append(users, userID)
		}
	}
	return users
}

func (m *SettingsManager) setAndSave(ctx context.Context, userID string, s Settings) {
	m.mu.Lock()
	m.loaded[userID] = s
	m.mu.Unlock()
	m.save(ctx, userID, s)
}

func (m *SettingsManager) save(ctx context.Context, userID string, s Settings) {
	if err := m.store.SaveSettings(ctx, userID, s); err != nil {
		log.Printf("settings: save for %s: %v", userID, err)
	}
}

// Package app wires the notification engine to its HTTP surface and the
// dashboard's surrounding services.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"pulseboard/notify/internal/bridge"
	"pulseboard/notify/internal/config"
	"pulseboard/notify/internal/email"
	"pulseboard/notify/internal/export"
	"pulseboard/notify/internal/identity"
	"pulseboard/notify/internal/notify"
	"pulseboard/notify/internal/push"
	"pulseboard/notify/internal/search"
	"pulseboard/notify/internal/store"
)

// Session is the authenticated caller of an HTTP request.
type Session struct {
	UserID string
	Name   string
	Email  string
	Role   string
}

// ProjectSource lists the projects owned by a user. The dashboard backend
// is the production implementation.
type ProjectSource interface {
	ListProjects(ctx context.Context, ownerID string) ([]notify.Project, error)
}

// Service coordinates per-user notification state: the settings manager,
// one ledger per user, the delivery negotiator, and the evaluators.
type Service struct {
	cfg        config.Config
	store      store.Store
	settings   *notify.SettingsManager
	negotiator *push.Negotiator
	projects   ProjectSource
	ids        *identity.Generator
	now        func() time.Time

	search   *search.Service // nil until SetSearch
	email    *email.Service  // nil when SMTP is not configured
	exporter *export.Service // nil when report export is not configured

	mu      sync.Mutex
	ledgers map[string]*notify.Ledger
}

// New creates the service. negotiator and projects are required; the
// optional collaborators are attached afterwards.
func New(cfg config.Config, st store.Store, negotiator *push.Negotiator, projects ProjectSource) *Service {
	return &Service{
		cfg:        cfg,
		store:      st,
		settings:   notify.NewSettingsManager(st, negotiator),
		negotiator: negotiator,
		projects:   projects,
		ids:        identity.New("notif"),
		now:        time.Now,
		ledgers:    make(map[string]*notify.Ledger),
	}
}

// SetSearch attaches the search facade. Done after construction because
// the facade's fallback scans this service's ledgers.
func (s *Service) SetSearch(svc *search.Service) { s.search = svc }

// SetEmail attaches the SMTP channel.
func (s *Service) SetEmail(svc *email.Service) { s.email = svc }

// SetExporter attaches the weekly report exporter.
func (s *Service) SetExporter(svc *export.Service) { s.exporter = svc }

// TokenSecret exposes the HMAC secret for the HTTP layer.
func (s *Service) TokenSecret() []byte { return []byte(s.cfg.TokenSecret) }

// Ping reports store connectivity.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ledgerFor returns the user's ledger, loading it from the store on first
// access. Loaded history is pushed to the search index so queries work
// across restarts.
func (s *Service) ledgerFor(ctx context.Context, userID string) *notify.Ledger {
	s.mu.Lock()
	ledger, ok := s.ledgers[userID]
	if !ok {
		ledger = notify.NewLedger(userID, s.store)
		s.ledgers[userID] = ledger
	}
	s.mu.Unlock()

	if !ok {
		ledger.Load(ctx)
		if s.search != nil {
			entries, _ := ledger.Snapshot()
			s.search.IndexNotifications(searchRecords(userID, entries))
		}
	}
	return ledger
}

// Notifications returns the user's history newest-first with the unread count.
func (s *Service) Notifications(ctx context.Context, userID string) ([]notify.Notification, int) {
	s.settings.Initialize(ctx, userID)
	return s.ledgerFor(ctx, userID).Snapshot()
}

// MarkRead flags a single notification as read.
func (s *Service) MarkRead(ctx context.Context, userID, id string) {
	s.ledgerFor(ctx, userID).MarkRead(ctx, id)
}

// MarkAllRead flags the whole history as read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) {
	s.ledgerFor(ctx, userID).MarkAllRead(ctx)
}

// ClearHistory drops the user's history, in memory, in the store, and in
// the search index.
func (s *Service) ClearHistory(ctx context.Context, userID string) {
	s.ledgerFor(ctx, userID).Clear(ctx)
	if s.search != nil {
		s.search.DeleteUser(userID)
	}
}

// Settings returns the user's preferences, initializing them on first access.
func (s *Service) Settings(ctx context.Context, userID string) notify.Settings {
	return s.settings.Get(ctx, userID)
}

// UpdateSettings applies a partial preference update. Enabling push runs
// the platform permission flow and rolls back on denial.
func (s *Service) UpdateSettings(ctx context.Context, userID string, patch notify.SettingsPatch) notify.Settings {
	return s.settings.Update(ctx, userID, patch)
}

// Emit materializes a draft into the recipient's ledger and fans it out to
// the delivery channels the draft and settings select.
func (s *Service) Emit(ctx context.Context, rcpt Session, draft notify.Draft) notify.Notification {
	prefs := s.settings.Get(ctx, rcpt.UserID)
	n := notify.NewNotification(s.ids.NextID(), s.now(), draft)

	ledger := s.ledgerFor(ctx, rcpt.UserID)
	if !ledger.Append(ctx, n) {
		return n
	}

	if s.search != nil {
		s.search.IndexNotification(searchRecord(rcpt.UserID, n))
	}

	s.negotiator.Dispatch(ctx, rcpt.UserID, n.ID, n.Title, n.Message, prefs.Push)

	if n.Type == notify.TypeEmail && prefs.Email {
		s.mirrorToEmail(rcpt, n)
	}

	return n
}

func (s *Service) mirrorToEmail(rcpt Session, n notify.Notification) {
	if s.email == nil || !s.email.IsConfigured() || rcpt.Email == "" {
		return
	}
	figures, ok := n.Data.(notify.SummaryPayload)
	if !ok {
		return
	}
	go func() {
		if err := s.email.SendWeeklySummary(rcpt.Email, rcpt.Name, figures); err != nil {
			log.Printf("app: weekly summary email to %s failed: %v", rcpt.UserID, err)
		}
	}()
}

// Evaluate runs the rule evaluators over the user's current projects and
// emits whatever they propose.
func (s *Service) Evaluate(ctx context.Context, rcpt Session) ([]notify.Notification, error) {
	projects, err := s.projects.ListProjects(ctx, rcpt.UserID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	prefs := s.settings.Get(ctx, rcpt.UserID)
	now := s.now()

	var drafts []notify.Draft
	drafts = append(drafts, notify.DeadlineAlerts(prefs, projects, now)...)
	drafts = append(drafts, notify.TaskReminders(prefs, projects, now)...)
	drafts = append(drafts, notify.WeeklySummary(prefs, projects, now)...)

	created := make([]notify.Notification, 0, len(drafts))
	for _, d := range drafts {
		created = append(created, s.Emit(ctx, rcpt, d))
	}
	return created, nil
}

// HandleProjectEvent fans a project event out to every user who has been
// seen this session and keeps team updates enabled. The acting user never
// hears about their own change.
func (s *Service) HandleProjectEvent(ctx context.Context, ev bridge.Event) {
	recipients := s.settings.ActiveUsers(func(prefs notify.Settings) bool {
		return prefs.TeamUpdates
	})

	// Update events carry only the project id; resolve the name through
	// the actor's project list, keeping "a project" as the last resort.
	projectName := ev.ProjectName
	if projectName == "" {
		projectName = s.resolveProjectName(ctx, ev.Actor.ID, ev.ProjectID)
	}
	if projectName == "" {
		projectName = "a project"
	}

	for _, userID := range recipients {
		if userID == ev.Actor.ID {
			continue
		}
		s.Emit(ctx, Session{UserID: userID}, notify.Draft{
			Type:     notify.TypePush,
			Category: notify.CategoryTeam,
			Title:    "Team update",
			Message:  fmt.Sprintf("%s %s %s", ev.Actor.Name, ev.Action, projectName),
			Data: notify.TeamPayload{
				ProjectID: ev.ProjectID,
				ActorID:   ev.Actor.ID,
				ActorName: ev.Actor.Name,
				Action:    ev.Action,
			},
		})
	}
}

func (s *Service) resolveProjectName(ctx context.Context, ownerID, projectID string) string {
	projects, err := s.projects.ListProjects(ctx, ownerID)
	if err != nil {
		log.Printf("app: resolve project %s: %v", projectID, err)
		return ""
	}
	for _, p := range projects {
		if p.ID == projectID {
			return p.Name
		}
	}
	return ""
}

// WeeklyReport renders the user's weekly summary as an archived PDF.
func (s *Service) WeeklyReport(ctx context.Context, rcpt Session) (*export.Result, error) {
	if s.exporter == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Report export not configured", nil)
	}

	projects, err := s.projects.ListProjects(ctx, rcpt.UserID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	now := s.now()
	// Force the summary on: the report endpoint is an explicit request,
	// not a scheduled digest.
	drafts := notify.WeeklySummary(notify.Settings{WeeklySummary: true}, projects, now)
	if len(drafts) == 0 {
		return nil, domainError(http.StatusNotFound, "NO_PROJECTS", "No projects to report on", nil)
	}
	figures, _ := drafts[0].Data.(notify.SummaryPayload)

	rows := make([]export.TemplateProject, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, export.TemplateProject{
			Name:     p.Name,
			Status:   p.Status,
			Progress: p.Progress,
			Overdue:  p.Overdue(now),
		})
	}

	return s.exporter.WeeklyReport(ctx, export.Request{
		UserID:   rcpt.UserID,
		UserName: rcpt.Name,
		Week:     now,
	}, figures, rows)
}

// Scan implements search.Fallback by substring-matching the user's
// in-memory ledger.
func (s *Service) Scan(q search.Query) ([]search.Result, int, error) {
	ledger := s.ledgerFor(context.Background(), q.UserID)
	entries, _ := ledger.Snapshot()

	needle := strings.ToLower(strings.TrimSpace(q.Text))
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}

	var results []search.Result
	total := 0
	for _, n := range entries {
		if q.FilterCategory != "" && string(n.Category) != q.FilterCategory {
			continue
		}
		if q.UnreadOnly && n.Read {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(n.Title), needle) &&
			!strings.Contains(strings.ToLower(n.Message), needle) {
			continue
		}
		total++
		if len(results) < limit {
			results = append(results, search.Result{
				ID:       n.ID,
				Category: string(n.Category),
				Title:    n.Title,
				Snippet:  n.Message,
				Read:     n.Read,
			})
		}
	}
	return results, total, nil
}

func searchRecord(userID string, n notify.Notification) search.Record {
	return search.Record{
		ID:        n.ID,
		UserID:    userID,
		Category:  string(n.Category),
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}

func searchRecords(userID string, entries []notify.Notification) []search.Record {
	records := make([]search.Record, 0, len(entries))
	for _, n := range entries {
		records = append(records, searchRecord(userID, n))
	}
	return records
}

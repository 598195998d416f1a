package search

import "log"

// Service is the facade that tries Meilisearch first and falls back to
// scanning in-memory notification state.
type Service struct {
	meili    *Meili
	fallback Fallback
}

// NewService creates a search service. meili may be nil if Meilisearch
// is not configured.
func NewService(meili *Meili, fallback Fallback) *Service {
	return &Service{meili: meili, fallback: fallback}
}

// Search tries Meilisearch if healthy, otherwise scans the fallback.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to scan: %v", err)
	}

	results, total, err := s.fallback.Scan(q)
	if err != nil {
		log.Printf("search: fallback scan error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexNotification indexes a notification (fire-and-forget to Meilisearch).
func (s *Service) IndexNotification(rec Record) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexNotification(rec); err != nil {
			log.Printf("search: index notification %s: %v", rec.ID, err)
		}
	}()
}

// IndexNotifications bulk-indexes a user's history, used when a ledger
// is first loaded from the store.
func (s *Service) IndexNotifications(records []Record) {
	if s.meili == nil || !s.meili.Healthy() || len(records) == 0 {
		return
	}
	go func() {
		if err := s.meili.IndexNotifications(records); err != nil {
			log.Printf("search: bulk index %d notifications: %v", len(records), err)
		}
	}()
}

// DeleteUser removes a user's notifications from the index
// (fire-and-forget), used when their history is cleared.
func (s *Service) DeleteUser(userID string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteUserNotifications(userID); err != nil {
			log.Printf("search: delete notifications for %s: %v", userID, err)
		}
	}()
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}

package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const idxNotifications = "pulseboard_notifications"

// Meili implements Searcher via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the notification
// index. The returned client tolerates an unreachable server; it marks
// itself unhealthy and keeps probing in the background.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxNotifications,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxNotifications, err)
	}

	index := m.client.Index(idxNotifications)
	filterable := []interface{}{"userId", "category", "read"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", idxNotifications, err)
	}
	searchable := []string{"title", "message"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxNotifications, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries the notification index scoped to the query's user.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	filters := []string{fmt.Sprintf("userId = %q", q.UserID)}
	if q.FilterCategory != "" {
		filters = append(filters, fmt.Sprintf("category = %q", q.FilterCategory))
	}
	if q.UnreadOnly {
		filters = append(filters, "read = false")
	}

	resp, err := m.client.Index(idxNotifications).Search(q.Text, &meili.SearchRequest{
		Limit:                 limit,
		Filter:                filters,
		AttributesToHighlight: []string{"*"},
		HighlightPreTag:       "<mark>",
		HighlightPostTag:      "</mark>",
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, hitToResult(hit))
	}
	return results, int(resp.EstimatedTotalHits), nil
}

func hitToResult(hit meili.Hit) Result {
	var read bool
	if raw, ok := hit["read"]; ok {
		_ = json.Unmarshal(raw, &read)
	}
	return Result{
		ID:       decodeString(hit, "id"),
		Category: decodeString(hit, "category"),
		Title:    firstNonBlank(decodeFormattedString(hit, "title"), decodeString(hit, "title")),
		Snippet:  firstNonBlank(decodeFormattedString(hit, "message"), decodeString(hit, "message")),
		Read:     read,
	}
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]string
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	return strings.TrimSpace(formatted[key])
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// IndexNotification adds or updates a notification in the search index.
func (m *Meili) IndexNotification(rec Record) error {
	_, err := m.client.Index(idxNotifications).AddDocuments([]Record{rec}, nil)
	return err
}

// IndexNotifications bulk-indexes notifications.
func (m *Meili) IndexNotifications(records []Record) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxNotifications).AddDocuments(records, nil)
	return err
}

// DeleteUserNotifications removes every indexed notification belonging
// to the given user, matching a cleared history.
func (m *Meili) DeleteUserNotifications(userID string) error {
	_, err := m.client.Index(idxNotifications).DeleteDocumentsByFilter(
		fmt.Sprintf("userId = %q", userID), nil)
	return err
}

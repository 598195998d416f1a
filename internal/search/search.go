// Package search provides full-text search over a user's notification
// history, backed by Meilisearch with an in-memory scan fallback.
package search

// Record is the data we index for a notification.
type Record struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Category  string `json:"category"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

// Result is a single search hit returned to the caller.
type Result struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	Read     bool   `json:"read"`
}

// Query describes a search request. UserID is mandatory; results are
// always scoped to a single user's history.
type Query struct {
	Text           string
	UserID         string
	FilterCategory string // empty = all categories
	UnreadOnly     bool
	Limit          int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Fallback answers searches by scanning in-memory notification state
// when Meilisearch is unavailable.
type Fallback interface {
	Scan(q Query) ([]Result, int, error)
}

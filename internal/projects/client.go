// Package projects reads project state from the Pulseboard dashboard
// backend. The data is a read-only input to the rule evaluators; nothing in
// this service ever writes a project.
package projects

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"pulseboard/notify/internal/notify"
)

// Client fetches a user's project set over the dashboard API using a service
// token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// ListProjects returns the projects visible to ownerID.
func (c *Client) ListProjects(ctx context.Context, ownerID string) ([]notify.Project, error) {
	endpoint := c.baseURL + "/api/projects?owner=" + url.QueryEscape(ownerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build projects request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch projects: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Projects []notify.Project `json:"projects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return body.Projects, nil
}

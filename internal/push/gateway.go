package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Gateway is the HTTP platform implementation. The push gateway holds the
// browser subscriptions and exposes capability, permission, and alert
// endpoints; this client never interprets failures beyond reporting them.
type Gateway struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewGateway(baseURL, token string) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *Gateway) Capabilities(ctx context.Context) (Capabilities, error) {
	var caps Capabilities
	if err := g.getJSON(ctx, "/v1/capabilities", &caps); err != nil {
		return Capabilities{}, err
	}
	return caps, nil
}

func (g *Gateway) Permission(ctx context.Context, userID string) (Permission, error) {
	var body struct {
		Permission Permission `json:"permission"`
	}
	path := "/v1/users/" + url.PathEscape(userID) + "/permission"
	if err := g.getJSON(ctx, path, &body); err != nil {
		return PermissionDefault, err
	}
	return normalizePermission(body.Permission), nil
}

func (g *Gateway) RequestPermission(ctx context.Context, userID string) (Permission, error) {
	var body struct {
		Permission Permission `json:"permission"`
	}
	path := "/v1/users/" + url.PathEscape(userID) + "/permission/request"
	if err := g.postJSON(ctx, path, nil, &body); err != nil {
		return PermissionDefault, err
	}
	return normalizePermission(body.Permission), nil
}

func (g *Gateway) ShowAlert(ctx context.Context, userID string, alert Alert) error {
	path := "/v1/users/" + url.PathEscape(userID) + "/alerts"
	return g.postJSON(ctx, path, alert, nil)
}

func (g *Gateway) CloseAlert(ctx context.Context, userID, tag string) error {
	path := "/v1/users/" + url.PathEscape(userID) + "/alerts/" + url.PathEscape(tag)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, g.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build close request: %w", err)
	}
	return g.do(req, nil)
}

func (g *Gateway) getJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return g.do(req, target)
}

func (g *Gateway) postJSON(ctx context.Context, path string, payload, target any) error {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req, target)
}

func (g *Gateway) do(req *http.Request, target any) error {
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push gateway: unexpected status %d for %s", resp.StatusCode, req.URL.Path)
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("push gateway: decode response: %w", err)
	}
	return nil
}

func normalizePermission(p Permission) Permission {
	switch p {
	case PermissionGranted, PermissionDenied:
		return p
	default:
		return PermissionDefault
	}
}

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pulseboard/notify/internal/auth"
	"pulseboard/notify/internal/notify"
)

func testToken(t *testing.T, secret, userID string) string {
	t.Helper()
	token, err := auth.IssueToken([]byte(secret), auth.Claims{
		Sub:   userID,
		Name:  "Dana",
		Email: "dana@example.com",
		Exp:   time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func newTestServer(t *testing.T, st *memStore, projects *fakeProjects) *httptest.Server {
	t.Helper()
	svc := newTestService(st, projects, nil)
	server := httptest.NewServer(NewHTTPServer(svc, "*").Handler())
	t.Cleanup(server.Close)
	return server
}

func doRequest(t *testing.T, method, url, token string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthNoAuth(t *testing.T) {
	server := newTestServer(t, newMemStore(), &fakeProjects{})

	resp, err := http.Get(server.URL + "/api/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestNotificationsRequireAuth(t *testing.T) {
	server := newTestServer(t, newMemStore(), &fakeProjects{})

	resp := doRequest(t, http.MethodGet, server.URL+"/api/notifications", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodGet, server.URL+"/api/notifications", "not-a-token", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with bad token, got %d", resp.StatusCode)
	}
}

func TestNotificationLifecycleOverHTTP(t *testing.T) {
	st := newMemStore()
	projects := &fakeProjects{projects: []notify.Project{
		{ID: "p1", Name: "Apollo", Status: notify.StatusInProgress,
			DueDate: due(time.Date(2024, 6, 11, 12, 0, 0, 0, time.UTC))},
	}}
	server := newTestServer(t, st, projects)
	token := testToken(t, "test-secret", "u1")

	resp := doRequest(t, http.MethodPost, server.URL+"/api/notifications/evaluate", token, nil)
	var evalBody struct {
		Created []notify.Notification `json:"created"`
	}
	decodeJSON(t, resp, &evalBody)
	if len(evalBody.Created) != 3 {
		t.Fatalf("expected 3 created notifications, got %d", len(evalBody.Created))
	}

	resp = doRequest(t, http.MethodGet, server.URL+"/api/notifications", token, nil)
	var listBody struct {
		Notifications []notify.Notification `json:"notifications"`
		UnreadCount   int                   `json:"unreadCount"`
	}
	decodeJSON(t, resp, &listBody)
	if len(listBody.Notifications) != 3 || listBody.UnreadCount != 3 {
		t.Fatalf("expected 3 unread, got %d/%d", len(listBody.Notifications), listBody.UnreadCount)
	}

	first := listBody.Notifications[0].ID
	resp = doRequest(t, http.MethodPost, server.URL+"/api/notifications/"+first+"/read", token, nil)
	resp.Body.Close()

	resp = doRequest(t, http.MethodGet, server.URL+"/api/notifications", token, nil)
	decodeJSON(t, resp, &listBody)
	if listBody.UnreadCount != 2 {
		t.Errorf("expected 2 unread after mark read, got %d", listBody.UnreadCount)
	}

	resp = doRequest(t, http.MethodPost, server.URL+"/api/notifications/read-all", token, nil)
	resp.Body.Close()
	resp = doRequest(t, http.MethodGet, server.URL+"/api/notifications", token, nil)
	decodeJSON(t, resp, &listBody)
	if listBody.UnreadCount != 0 {
		t.Errorf("expected 0 unread after read-all, got %d", listBody.UnreadCount)
	}

	resp = doRequest(t, http.MethodDelete, server.URL+"/api/notifications", token, nil)
	resp.Body.Close()
	resp = doRequest(t, http.MethodGet, server.URL+"/api/notifications", token, nil)
	decodeJSON(t, resp, &listBody)
	if len(listBody.Notifications) != 0 {
		t.Errorf("expected empty history after clear, got %d", len(listBody.Notifications))
	}
}

func TestSettingsOverHTTP(t *testing.T) {
	st := newMemStore()
	server := newTestServer(t, st, &fakeProjects{})
	token := testToken(t, "test-secret", "u1")

	resp := doRequest(t, http.MethodGet, server.URL+"/api/notifications/settings", token, nil)
	var settings notify.Settings
	decodeJSON(t, resp, &settings)
	if !settings.Email || settings.Push {
		t.Fatalf("unexpected defaults: %+v", settings)
	}

	resp = doRequest(t, http.MethodPut, server.URL+"/api/notifications/settings", token,
		[]byte(`{"email":false}`))
	decodeJSON(t, resp, &settings)
	if settings.Email {
		t.Error("expected email disabled after update")
	}
	if !settings.TaskReminders {
		t.Error("unpatched fields must be preserved")
	}

	stored, _ := st.LoadSettings(context.Background(), "u1")
	if stored.Email {
		t.Error("update must persist")
	}
}

func TestSearchOverHTTPUsesFallback(t *testing.T) {
	st := newMemStore()
	server := newTestServer(t, st, &fakeProjects{})
	token := testToken(t, "test-secret", "u1")

	st.history["u1"] = []notify.Notification{
		{ID: "n_1", Category: notify.CategoryDeadline, Title: "Deadline alert", Message: "Apollo is due tomorrow", CreatedAt: time.Now()},
		{ID: "n_2", Category: notify.CategoryTeam, Title: "Team update", Message: "Dana updated Borealis", CreatedAt: time.Now()},
	}

	resp := doRequest(t, http.MethodGet, server.URL+"/api/notifications/search?q=apollo", token, nil)
	var body struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
		Total int `json:"total"`
	}
	decodeJSON(t, resp, &body)
	if body.Total != 1 || len(body.Results) != 1 || body.Results[0].ID != "n_1" {
		t.Fatalf("unexpected search response: %+v", body)
	}
}

func TestWeeklyReportUnconfiguredOverHTTP(t *testing.T) {
	server := newTestServer(t, newMemStore(), &fakeProjects{})
	token := testToken(t, "test-secret", "u1")

	resp := doRequest(t, http.MethodGet, server.URL+"/api/reports/weekly", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without exporter, got %d", resp.StatusCode)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	server := newTestServer(t, newMemStore(), &fakeProjects{})
	token := testToken(t, "test-secret", "u1")

	resp := doRequest(t, http.MethodGet, server.URL+"/api/notifications/nope/extra/parts", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

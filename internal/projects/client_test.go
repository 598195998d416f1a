package projects

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListProjects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/projects" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("owner"); got != "user-1" {
			t.Errorf("expected owner=user-1, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer svc-token" {
			t.Errorf("expected service token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"projects":[
			{"id":"proj-1","name":"Apollo","status":"in-progress","dueDate":"2024-06-11T00:00:00Z","budget":1000,"progress":50,"created_at":"2024-05-01T00:00:00Z"},
			{"id":"proj-2","name":"Borealis","status":"completed","dueDate":null,"budget":2000,"progress":100,"created_at":"2024-05-02T00:00:00Z","updated_at":"2024-06-08T00:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "svc-token")
	projects, err := client.ListProjects(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}

	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(projects))
	}
	if projects[0].ID != "proj-1" || projects[0].DueDate == nil {
		t.Errorf("unexpected first project %+v", projects[0])
	}
	if projects[1].DueDate != nil {
		t.Error("null due date should decode to nil")
	}
	if projects[1].UpdatedAt == nil {
		t.Error("updated_at should decode when present")
	}
}

func TestListProjectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	if _, err := client.ListProjects(context.Background(), "user-1"); err == nil {
		t.Error("expected error for non-200 status")
	}
}

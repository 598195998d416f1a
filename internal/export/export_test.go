package export

import (
	"strings"
	"testing"
	"time"

	"pulseboard/notify/internal/notify"
)

func TestRenderReportHTML(t *testing.T) {
	data := TemplateData{
		UserName: "Dana",
		Week:     time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC),
		Figures: notify.SummaryPayload{
			Completed:   1,
			InProgress:  2,
			Overdue:     1,
			Total:       4,
			AvgProgress: 62,
			TotalBudget: 3000,
		},
		Projects: []TemplateProject{
			{Name: "Apollo", Status: "in-progress", Progress: 40},
			{Name: "Borealis", Status: "in-progress", Progress: 85, Overdue: true},
		},
	}

	html, err := RenderReportHTML(data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"Prepared for Dana",
		"June 14, 2024",
		"$3000.00",
		"62%",
		"Apollo",
		`class="overdue">Borealis`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered report missing %q", want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	got := percentEncodeForDataURL("a b<c>")
	if got != "a%20b%3Cc%3E" {
		t.Errorf("unexpected encoding: %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"weekly-report-2024-06-14", "weekly-report-2024-06-14"},
		{"Q3 review!", "Q3-review"},
		{"", "report"},
		{strings.Repeat("a", 60), strings.Repeat("a", 50)},
	}
	for _, tc := range tests {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

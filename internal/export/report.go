package export

import (
	"bytes"
	"html/template"
	"time"

	"pulseboard/notify/internal/notify"
)

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
}).Parse(reportHTML))

// TemplateData holds data for report template rendering.
type TemplateData struct {
	UserName string
	Week     time.Time
	Figures  notify.SummaryPayload
	Projects []TemplateProject
}

// TemplateProject holds one project row for the report table.
type TemplateProject struct {
	Name     string
	Status   string
	Progress int
	Overdue  bool
}

// RenderReportHTML renders the weekly report template with provided data.
func RenderReportHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const reportHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Weekly report</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #1a1a1a; margin: 0; padding: 24px; }
        h1 { font-size: 22px; border-bottom: 2px solid #0066cc; padding-bottom: 8px; }
        .meta { color: #666; font-size: 13px; margin-bottom: 24px; }
        .figures { display: flex; gap: 16px; margin-bottom: 24px; }
        .figure { border: 1px solid #ddd; border-radius: 6px; padding: 12px 16px; }
        .figure .value { font-size: 20px; font-weight: bold; }
        .figure .label { font-size: 12px; color: #666; }
        table { border-collapse: collapse; width: 100%; font-size: 13px; }
        th, td { text-align: left; padding: 6px 10px; border-bottom: 1px solid #eee; }
        th { color: #666; font-weight: 600; }
        .overdue { color: #b00020; font-weight: bold; }
    </style>
</head>
<body>
    <h1>Weekly project report</h1>
    <div class="meta">Prepared for {{.UserName}} &middot; week ending {{formatDate .Week "January 2, 2006"}}</div>

    <div class="figures">
        <div class="figure"><div class="value">{{.Figures.Completed}}</div><div class="label">Completed this week</div></div>
        <div class="figure"><div class="value">{{.Figures.InProgress}}</div><div class="label">In progress</div></div>
        <div class="figure"><div class="value">{{.Figures.Overdue}}</div><div class="label">Overdue</div></div>
        <div class="figure"><div class="value">{{.Figures.AvgProgress}}%</div><div class="label">Average progress</div></div>
        <div class="figure"><div class="value">${{printf "%.2f" .Figures.TotalBudget}}</div><div class="label">Total budget</div></div>
    </div>

    {{if .Projects}}
    <table>
        <tr><th>Project</th><th>Status</th><th>Progress</th></tr>
        {{range .Projects}}
        <tr>
            <td{{if .Overdue}} class="overdue"{{end}}>{{.Name}}</td>
            <td>{{.Status}}</td>
            <td>{{.Progress}}%</td>
        </tr>
        {{end}}
    </table>
    {{end}}
</body>
</html>`

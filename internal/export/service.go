package export

import (
	"context"
	"fmt"
	"log"

	"pulseboard/notify/internal/notify"
)

// Service renders weekly reports and optionally archives them.
type Service struct {
	archive *Archive
}

// NewService creates an export service. archive may be nil when object
// storage is not configured; reports are then returned without retention.
func NewService(archive *Archive) *Service {
	return &Service{archive: archive}
}

// WeeklyReport renders a PDF report from the summary figures and the
// project rows behind them.
func (s *Service) WeeklyReport(ctx context.Context, req Request, figures notify.SummaryPayload, projects []TemplateProject) (*Result, error) {
	data := TemplateData{
		UserName: req.UserName,
		Week:     req.Week,
		Figures:  figures,
		Projects: projects,
	}

	html, err := RenderReportHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	title := fmt.Sprintf("weekly-report-%s", req.Week.Format("2006-01-02"))
	res, err := exportPDF(html, title)
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		if err := s.archive.Put(ctx, req.UserID, res); err != nil {
			log.Printf("export: archive failed for %s: %v", req.UserID, err)
		}
	}

	return res, nil
}

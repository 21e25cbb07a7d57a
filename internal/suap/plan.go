package suap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"ifsuap/internal/docwindow"
	"ifsuap/internal/page"
)

const report_service_fetch_teaching_plan = "service.fetch-teaching-plan"

type PlanRequest struct {
	DisciplineId string
}

type TeachingPlan struct {
	DisciplineId string   `json:"discipline_id"`
	Title        string   `json:"title"`
	ContentLines []string `json:"content_lines"`
}

// FetchTeachingPlan downloads the teaching plan of a diary and returns the
// lines of its program content.
func (s *Service) FetchTeachingPlan(ctx context.Context, req PlanRequest) Response {
	if strings.TrimSpace(req.DisciplineId) == "" {
		return Failure("Error: ID must be informed", nil)
	}

	return s.session(ctx, "FetchTeachingPlan", func(ctx context.Context, p page.Page) Response {
		plan, err := s.teachingPlan(ctx, p, req.DisciplineId)
		if err != nil {
			s.tel.ReportBroken(report_service_fetch_teaching_plan, req.DisciplineId, err)
			return Failure(fmt.Sprintf("Error: %s", err), nil)
		}
		if len(plan.ContentLines) == 0 {
			return Success("Teaching plan fetched, content not found", plan)
		}
		return Success("Teaching plan fetched", plan)
	})
}

// optionalText returns the text of the first element matching selector or
// the empty string when there is none.
func (s *Service) optionalText(p page.Page, selector string) (string, error) {
	if selector == "" {
		return "", nil
	}
	el, err := p.Find(selector)
	if errors.Is(err, page.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (s *Service) teachingPlan(ctx context.Context, p page.Page, id string) (TeachingPlan, error) {
	layout := s.opts.Layout
	err := s.goTo(ctx, p, fillPath(layout.DiaryPath, id, 0))
	if err != nil {
		return TeachingPlan{}, err
	}

	link, err := s.waitFind(ctx, p, layout.PlanLink)
	if err != nil {
		return TeachingPlan{}, fmt.Errorf("teaching plan link: %w", err)
	}
	href, err := link.Attribute("href")
	if err != nil {
		return TeachingPlan{}, err
	}
	if href == "" {
		return TeachingPlan{}, fmt.Errorf("teaching plan link has no target")
	}

	title, err := s.optionalText(p, layout.DiaryTitle)
	if err != nil {
		return TeachingPlan{}, err
	}

	path, err := s.tempFile("plano-ensino-*.pdf")
	if err != nil {
		return TeachingPlan{}, err
	}
	defer os.Remove(path)

	err = p.Download(ctx, href, path)
	if err != nil {
		return TeachingPlan{}, fmt.Errorf("download teaching plan: %w", err)
	}
	pages, err := s.opts.Documents.Pages(path)
	if err != nil {
		return TeachingPlan{}, fmt.Errorf("read teaching plan: %w", err)
	}

	return TeachingPlan{
		DisciplineId: id,
		Title:        title,
		ContentLines: docwindow.Extract(pages, s.opts.Markers),
	}, nil
}

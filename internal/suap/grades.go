package suap

import (
	"context"
	"fmt"
	"strings"

	"ifsuap/internal/gradestore"
	"ifsuap/internal/page"
	"ifsuap/internal/reconcile"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_service_update_grades = "service.update-grades"
	report_service_journal       = "service.journal"
)

var meter = otel.Meter("internal/suap")

var outcomeCounter, _ = meter.Int64Counter(
	"ifsuap.grade_outcomes",
	metric.WithDescription("Grade updates by outcome status"),
)

type GradesRequest struct {
	DisciplineId string
	// Step is the grading period, it defaults to 1.
	Step     int
	Requests []reconcile.Request
}

type GradesData struct {
	// RunId is the id of the batch in the journal, empty when there is no journal.
	RunId    string              `json:"run_id,omitempty"`
	Applied  int                 `json:"applied"`
	Failed   int                 `json:"failed"`
	Outcomes []reconcile.Outcome `json:"outcomes"`
}

// UpdateGrades writes a batch of concepts into the grading form of a diary.
// Records that fail are reported in the outcomes, they do not fail the use case.
func (s *Service) UpdateGrades(ctx context.Context, req GradesRequest) Response {
	if strings.TrimSpace(req.DisciplineId) == "" {
		return Failure("Error: ID must be informed", nil)
	}
	if req.Step == 0 {
		req.Step = 1
	}
	if req.Step < 0 {
		return Failure("Error: step must be a positive number", nil)
	}
	if len(req.Requests) == 0 {
		return Failure("Error: no grade updates informed", nil)
	}

	return s.session(ctx, "UpdateGrades", func(ctx context.Context, p page.Page) Response {
		layout := s.opts.Layout
		err := s.goTo(ctx, p, fillPath(layout.GradesPath, req.DisciplineId, req.Step))
		if err != nil {
			s.tel.ReportBroken(report_service_update_grades, err)
			return Failure(fmt.Sprintf("Error: %s", err), nil)
		}
		form, err := s.waitFind(ctx, p, layout.GradeForm)
		if err != nil {
			s.tel.ReportBroken(report_service_update_grades, err)
			return Failure(fmt.Sprintf("Error: grading form: %s", err), nil)
		}

		outcomes := s.engine.Apply(ctx, form, req.Step, req.Requests)
		data := GradesData{Outcomes: outcomes}
		for _, o := range outcomes {
			outcomeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(o.Status))))
			if o.Status == reconcile.Applied {
				data.Applied++
				continue
			}
			data.Failed++
		}

		if s.opts.Journal != nil {
			runId, err := s.opts.Journal.Push(ctx, gradestore.PushRequest{
				Time:         s.opts.Clock.Now(),
				DisciplineId: req.DisciplineId,
				Step:         req.Step,
				Outcomes:     outcomes,
			})
			if err != nil {
				s.tel.ReportWarning(report_service_journal, err)
			}
			data.RunId = runId
		}

		if layout.GradeSave != "" {
			save, err := s.waitFind(ctx, p, layout.GradeSave)
			if err == nil {
				err = save.Click()
			}
			if err != nil {
				s.tel.ReportBroken(report_service_update_grades, err)
				return Failure(fmt.Sprintf("Error: save grades: %s", err), data)
			}
		}

		return Success(fmt.Sprintf("Grades updated: %d applied, %d failed", data.Applied, data.Failed), data)
	})
}

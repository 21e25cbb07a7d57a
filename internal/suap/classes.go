package suap

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"ifsuap/internal/components/chrono"
	"ifsuap/internal/page"
)

const report_service_create_class = "service.create-class"

type ClassRequest struct {
	// Date is formatted dd/mm/yyyy, it defaults to today in the portal's timezone.
	Date         string
	DisciplineId string
	Content      string
	// Quantity is the amount of lessons the class counts for, it defaults to 1.
	Quantity int
}

type ClassData struct {
	DisciplineId string `json:"discipline_id"`
	Date         string `json:"date"`
	Content      string `json:"content"`
	Quantity     int    `json:"quantity"`
}

// CreateClass registers a class in the diary of a discipline.
func (s *Service) CreateClass(ctx context.Context, req ClassRequest) Response {
	if strings.TrimSpace(req.DisciplineId) == "" {
		return Failure("Error: ID must be informed", nil)
	}
	if req.Date == "" {
		req.Date = chrono.FormatDate(s.opts.Clock.Now())
	}
	_, err := chrono.ParseDate(req.Date, s.opts.Clock.Location())
	if err != nil {
		return Failure(fmt.Sprintf("Error: invalid date %q, expected dd/mm/yyyy", req.Date), nil)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		return Failure("Error: the quantity of classes must be a positive number", nil)
	}

	data := ClassData{
		DisciplineId: req.DisciplineId,
		Date:         req.Date,
		Content:      req.Content,
		Quantity:     req.Quantity,
	}

	return s.session(ctx, "CreateClass", func(ctx context.Context, p page.Page) Response {
		err := s.createClass(ctx, p, data)
		if err != nil {
			s.tel.ReportBroken(report_service_create_class, req.DisciplineId, err)
			return Failure(fmt.Sprintf("Error: %s", err), nil)
		}
		return Success("Class created", data)
	})
}

func (s *Service) createClass(ctx context.Context, p page.Page, data ClassData) error {
	layout := s.opts.Layout
	err := s.goTo(ctx, p, fillPath(layout.ClassAddPath, data.DisciplineId, 0))
	if err != nil {
		return err
	}

	fields := []struct {
		selector string
		value    string
	}{
		{layout.ClassDate, data.Date},
		{layout.ClassQuantity, strconv.Itoa(data.Quantity)},
		{layout.ClassContent, data.Content},
	}
	for _, f := range fields {
		err = s.fill(ctx, p, f.selector, f.value)
		if err != nil {
			return fmt.Errorf("fill %s: %w", f.selector, err)
		}
	}

	submit, err := s.waitFind(ctx, p, layout.ClassSubmit)
	if err != nil {
		return err
	}
	err = submit.Click()
	if err != nil {
		return err
	}
	err = p.WaitFor(ctx, layout.ClassSuccess, s.opts.Timeouts.PageReady)
	if err != nil {
		return fmt.Errorf("class not confirmed by the portal: %w", err)
	}
	return nil
}

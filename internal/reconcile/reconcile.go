// Package reconcile writes a batch of grade updates into the grading form of
// a diary, isolating the failure of every update from the rest of the batch.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"ifsuap/internal/components/assert"
	"ifsuap/internal/components/telemetry"
	"ifsuap/internal/page"

	"golang.org/x/time/rate"
)

const (
	report_engine_apply    = "engine.apply"
	report_engine_applied  = "engine.applied"
	report_engine_failed   = "engine.failed"
	report_engine_readback = "engine.readback"
)

type Status string

const (
	Applied            Status = "Applied"
	StudentRowNotFound Status = "StudentRowNotFound"
	FieldNotFound      Status = "FieldNotFound"
)

// Request is a single grade update, the concept is written as is.
type Request struct {
	StudentId   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Concept     string `json:"concept"`
}

type Outcome struct {
	StudentId   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Concept     string `json:"concept"`
	Status      Status `json:"status"`
	// Verified is true when the value read back from the field after the
	// commit equals the concept that was written.
	Verified bool   `json:"verified"`
	Detail   string `json:"detail,omitempty"`
}

var (
	errRowNotFound   = errors.New("student row not found")
	errFieldNotFound = errors.New("field not found")
)

// Finder is the part of a page (or of an element) the engine searches rows in.
type Finder interface {
	FindAll(selector string) ([]page.Element, error)
}

type Selectors struct {
	// Rows selects every student row of the grading form.
	Rows string
	// RowLinks selects the links inside a row that may reference the student.
	RowLinks string
	// Field selects the concept field of a step inside a row, "{step}" is
	// replaced by the step number.
	Field string
}

var DefaultSelectors = Selectors{
	Rows:     "tbody tr",
	RowLinks: "a",
	Field:    `input[data-etapa="{step}"]`,
}

// CommitKey is pressed after writing a concept, the form persists a field when it loses focus.
const CommitKey = "Tab"

type Engine struct {
	sel     Selectors
	tel     telemetry.API
	limiter *rate.Limiter
}

type Option func(e *Engine)

// WithLimiter spaces the writes of a batch.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(e *Engine) {
		e.limiter = limiter
	}
}

func New(sel Selectors, tel telemetry.API, opts ...Option) *Engine {
	assert.NotEmptyStr(sel.Rows)
	assert.NotEmptyStr(sel.RowLinks)
	assert.NotEmptyStr(sel.Field)
	assert.NotNil(tel)

	e := &Engine{
		sel: sel,
		tel: telemetry.NewScopedAPI("reconcile", tel),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply writes every request into the form for the given step and returns
// exactly one outcome per request, in request order. Requests are handled one
// at a time and a failing request never stops the batch.
func (e *Engine) Apply(ctx context.Context, form Finder, step int, requests []Request) []Outcome {
	assert.NotNil(form)
	assert.Positive(step)

	outcomes := make([]Outcome, len(requests))
	var applied, failed int64
	for i, req := range requests {
		outcomes[i] = e.applyOne(ctx, form, step, req)
		if outcomes[i].Status == Applied {
			applied++
			continue
		}
		failed++
		e.tel.ReportWarning(report_engine_apply, req.StudentId, outcomes[i].Status, outcomes[i].Detail)
	}
	e.tel.ReportCount(report_engine_applied, applied)
	e.tel.ReportCount(report_engine_failed, failed)
	return outcomes
}

type phase int

const (
	phaseRow phase = iota
	phaseField
)

// classify maps a failure to the closer of the two known kinds: typed
// resolution errors map to their own kind, anything else to the phase it
// happened in.
func classify(p phase, err error) Status {
	switch {
	case errors.Is(err, errRowNotFound):
		return StudentRowNotFound
	case errors.Is(err, errFieldNotFound):
		return FieldNotFound
	case p == phaseRow:
		return StudentRowNotFound
	}
	return FieldNotFound
}

func (e *Engine) applyOne(ctx context.Context, form Finder, step int, req Request) (out Outcome) {
	out = Outcome{
		StudentId:   req.StudentId,
		StudentName: req.StudentName,
		Concept:     req.Concept,
	}

	current := phaseRow
	fail := func(err error) Outcome {
		out.Status = classify(current, err)
		out.Verified = false
		out.Detail = err.Error()
		return out
	}
	defer func() {
		if rec := recover(); rec != nil {
			out = fail(fmt.Errorf("panic: %v", rec))
		}
	}()

	row, err := e.resolveRow(form, req.StudentId)
	if err != nil {
		return fail(err)
	}

	current = phaseField
	field, err := e.resolveField(row, step)
	if err != nil {
		return fail(err)
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return fail(err)
		}
	}
	if err := write(field, req.Concept); err != nil {
		return fail(err)
	}

	out.Status = Applied
	value, err := field.Value()
	if err != nil {
		e.tel.ReportWarning(report_engine_readback, req.StudentId, err)
		out.Detail = fmt.Sprintf("read back: %s", err)
		return out
	}
	out.Verified = value == req.Concept
	if !out.Verified {
		out.Detail = fmt.Sprintf("field holds %q after commit", value)
	}
	return out
}

func write(field page.Element, concept string) error {
	if err := field.Clear(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	if err := field.SendKeys(concept); err != nil {
		return fmt.Errorf("send keys: %w", err)
	}
	if err := field.Press(CommitKey); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// references reports whether a link targets the student, either through a
// path segment of its href or through its text.
func references(link page.Element, studentId string) (bool, error) {
	href, err := link.Attribute("href")
	if err != nil {
		return false, err
	}
	if href != "" {
		parsed, err := url.Parse(href)
		if err == nil {
			for _, segment := range strings.Split(parsed.Path, "/") {
				if segment == studentId {
					return true, nil
				}
			}
		}
	}
	text, err := link.Text()
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(text) == studentId, nil
}

func (e *Engine) resolveRow(form Finder, studentId string) (page.Element, error) {
	if strings.TrimSpace(studentId) == "" {
		return nil, fmt.Errorf("%w: empty student id", errRowNotFound)
	}
	rows, err := form.FindAll(e.sel.Rows)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		links, err := row.FindAll(e.sel.RowLinks)
		if err != nil {
			return nil, err
		}
		for _, link := range links {
			ok, err := references(link, studentId)
			if err != nil {
				return nil, err
			}
			if ok {
				return row, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", errRowNotFound, studentId)
}

func (e *Engine) resolveField(row page.Element, step int) (page.Element, error) {
	selector := strings.ReplaceAll(e.sel.Field, "{step}", strconv.Itoa(step))
	field, err := row.Find(selector)
	if errors.Is(err, page.ErrNotFound) {
		return nil, fmt.Errorf("%w: step %d", errFieldNotFound, step)
	}
	if err != nil {
		return nil, err
	}
	return field, nil
}

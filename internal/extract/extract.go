// Package extract turns the rendered cards and rows of the portal into typed records.
package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"ifsuap/internal/components/assert"
	"ifsuap/internal/components/telemetry"
	"ifsuap/internal/page"
)

const (
	report_extractor_disciplines = "extractor.disciplines"
	report_extractor_students    = "extractor.students"
	report_extractor_refs        = "extractor.discipline-refs"
)

var (
	ErrMalformedTitle = errors.New("malformed discipline title")
	ErrNoDiaryId      = errors.New("no diary id in link")
)

type Discipline struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"type_discipline"`
}

type Student struct {
	Name string `json:"name"`
	Id   string `json:"id_suap"`
}

// DisciplineRef is a discipline as listed on the diaries page: the id of its
// diary and the full title of the card.
type DisciplineRef struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// ItemError is the failure to extract a single card, the rest of the batch is
// extracted regardless.
type ItemError struct {
	Index int
	Title string
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d (%q): %s", e.Index, e.Title, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}

// Drop records a row that contributed no record.
type Drop struct {
	Index  int
	Reason string
}

// ParseDisciplineTitle derives a discipline from a title like
// "12 - TEC.1 - Algorithms - A" (id "12", name "Algorithms", kind "TECA").
func ParseDisciplineTitle(title string) (Discipline, error) {
	segments := strings.Split(title, "-")
	if len(segments) < 4 {
		return Discipline{}, fmt.Errorf("%w: expected 4 segments, got %d", ErrMalformedTitle, len(segments))
	}
	course := strings.Split(segments[1], ".")[0]
	return Discipline{
		Id:   strings.TrimSpace(segments[0]),
		Name: strings.TrimSpace(segments[2]),
		Kind: strings.TrimSpace(course) + strings.TrimSpace(segments[3]),
	}, nil
}

// DiaryId returns the diary id a discipline link points to, ex.
// "/edu/meu_diario/4821/1/" yields "4821". When the path has no diary
// segment the first numeric segment is used.
func DiaryId(href string) (string, error) {
	link, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	segments := strings.FieldsFunc(link.Path, func(r rune) bool { return r == '/' })
	for i, segment := range segments {
		if segment == "meu_diario" && i+1 < len(segments) {
			return segments[i+1], nil
		}
	}
	for _, segment := range segments {
		if isNumeric(segment) {
			return segment, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoDiaryId, href)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Selectors locate the fields inside a card or row.
type Selectors struct {
	// DisciplineTitle is the link holding the title inside a discipline card.
	DisciplineTitle string
	// StudentLabel holds the name of the student, ex. "Alice Souza (2021101)".
	StudentLabel string
	// StudentId is the link holding the registration of the student.
	StudentId string
}

var DefaultSelectors = Selectors{
	DisciplineTitle: "h5.title a",
	StudentLabel:    "a",
	StudentId:       "div.hide-sm a",
}

// Extractor reads records out of element handles, it never navigates or
// writes to the page.
type Extractor struct {
	sel Selectors
	tel telemetry.API
}

func New(sel Selectors, tel telemetry.API) Extractor {
	assert.NotEmptyStr(sel.DisciplineTitle)
	assert.NotEmptyStr(sel.StudentLabel)
	assert.NotEmptyStr(sel.StudentId)
	assert.NotNil(tel)
	return Extractor{
		sel: sel,
		tel: telemetry.NewScopedAPI("extract", tel),
	}
}

func (e Extractor) cardTitle(card page.Element) (page.Element, string, error) {
	link, err := card.Find(e.sel.DisciplineTitle)
	if err != nil {
		return nil, "", err
	}
	title, err := link.Text()
	if err != nil {
		return nil, "", err
	}
	return link, title, nil
}

// Disciplines extracts one discipline per card, in card order. A card that
// cannot be extracted is skipped and described by an ItemError.
func (e Extractor) Disciplines(cards []page.Element) ([]Discipline, []ItemError) {
	out := []Discipline{}
	var failed []ItemError
	for i, card := range cards {
		_, title, err := e.cardTitle(card)
		if err != nil {
			failed = append(failed, ItemError{Index: i, Err: err})
			e.tel.ReportWarning(report_extractor_disciplines, i, err)
			continue
		}
		discipline, err := ParseDisciplineTitle(title)
		if err != nil {
			failed = append(failed, ItemError{Index: i, Title: title, Err: err})
			e.tel.ReportWarning(report_extractor_disciplines, i, title, err)
			continue
		}
		out = append(out, discipline)
	}
	return out, failed
}

// DisciplineRefs extracts the diary id and the title of every card, in card order.
func (e Extractor) DisciplineRefs(cards []page.Element) ([]DisciplineRef, []ItemError) {
	out := []DisciplineRef{}
	var failed []ItemError
	for i, card := range cards {
		link, title, err := e.cardTitle(card)
		if err != nil {
			failed = append(failed, ItemError{Index: i, Err: err})
			e.tel.ReportWarning(report_extractor_refs, i, err)
			continue
		}
		href, err := link.Attribute("href")
		if err == nil {
			var id string
			id, err = DiaryId(href)
			if err == nil {
				out = append(out, DisciplineRef{Id: id, Name: title})
				continue
			}
		}
		failed = append(failed, ItemError{Index: i, Title: title, Err: err})
		e.tel.ReportWarning(report_extractor_refs, i, title, err)
	}
	return out, failed
}

func (e Extractor) student(row page.Element) (Student, string) {
	label, err := page.FirstText(row, e.sel.StudentLabel)
	if errors.Is(err, page.ErrNotFound) {
		return Student{}, "no name label"
	}
	if err != nil {
		return Student{}, err.Error()
	}
	name, _, _ := strings.Cut(label, "(")
	name = strings.TrimSpace(name)
	if name == "" {
		return Student{}, "empty name label"
	}

	id, err := page.FirstText(row, e.sel.StudentId)
	if errors.Is(err, page.ErrNotFound) {
		return Student{}, "no registration link"
	}
	if err != nil {
		return Student{}, err.Error()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Student{}, "empty registration link"
	}
	return Student{Name: name, Id: id}, ""
}

// Students extracts one student per row, in row order. Rows without a name or
// a registration contribute no student, each of them is described by a Drop
// and reported as a warning.
func (e Extractor) Students(rows []page.Element) ([]Student, []Drop) {
	out := []Student{}
	var drops []Drop
	for i, row := range rows {
		student, reason := e.student(row)
		if reason != "" {
			drops = append(drops, Drop{Index: i, Reason: reason})
			e.tel.ReportWarning(report_extractor_students, i, reason)
			continue
		}
		out = append(out, student)
	}
	return out, drops
}

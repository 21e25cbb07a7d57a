package suap

import (
	"context"
	"fmt"
	"strings"

	"ifsuap/internal/extract"
	"ifsuap/internal/page"
	"ifsuap/lib/textutil"
)

const (
	report_service_fetch_disciplines = "service.fetch-disciplines"
	report_service_fetch_students    = "service.fetch-students"
)

// MinSimilarity is the Jaro-Winkler similarity above which a discipline name
// is accepted as a fuzzy match.
const MinSimilarity = 0.85

func (s *Service) disciplineCards(ctx context.Context, p page.Page) ([]page.Element, error) {
	err := s.goTo(ctx, p, s.opts.Layout.DiariesPath)
	if err != nil {
		return nil, err
	}
	return p.FindAll(s.opts.Layout.DisciplineCards)
}

func skippedSuffix(failed []extract.ItemError) string {
	if len(failed) == 0 {
		return ""
	}
	return fmt.Sprintf(" (%d entries skipped)", len(failed))
}

// FetchDisciplines lists the disciplines of the diaries page.
func (s *Service) FetchDisciplines(ctx context.Context) Response {
	return s.session(ctx, "FetchDisciplines", func(ctx context.Context, p page.Page) Response {
		cards, err := s.disciplineCards(ctx, p)
		if err != nil {
			s.tel.ReportBroken(report_service_fetch_disciplines, err)
			return Failure(fmt.Sprintf("Error: %s", err), nil)
		}

		disciplines, failed := s.extractor.Disciplines(cards)
		if len(disciplines) == 0 {
			return Failure("Disciplines not found something is wrong", disciplines)
		}
		return Success("Disciplines fetched"+skippedSuffix(failed), disciplines)
	})
}

type StudentsRequest struct {
	// Discipline is a diary id or (part of) a discipline name.
	Discipline string
	// Step selects the tab of the diary, 0 is the overview.
	Step int
}

type StudentsData struct {
	Discipline extract.DisciplineRef `json:"discipline"`
	Students   []extract.Student     `json:"students"`
}

// SelectDiscipline picks the discipline a query refers to: the one whose id
// equals it, else the first whose name contains it (ignoring case and
// accents), else the most similar name when it is similar enough.
func SelectDiscipline(refs []extract.DisciplineRef, query string) (extract.DisciplineRef, bool) {
	query = strings.TrimSpace(query)
	for _, ref := range refs {
		if ref.Id == query {
			return ref, true
		}
	}
	for _, ref := range refs {
		if textutil.MatchName(ref.Name, []string{query}) {
			return ref, true
		}
	}

	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = ref.Name
		discipline, err := extract.ParseDisciplineTitle(ref.Name)
		if err == nil {
			names[i] = discipline.Name
		}
	}
	index, similarity := textutil.MostSimilar(query, names)
	if index < 0 || similarity <= MinSimilarity {
		return extract.DisciplineRef{}, false
	}
	return refs[index], true
}

// FetchStudents lists the students of a discipline.
func (s *Service) FetchStudents(ctx context.Context, req StudentsRequest) Response {
	if strings.TrimSpace(req.Discipline) == "" {
		return Failure("Error: ID must be informed", nil)
	}
	if req.Step < 0 {
		return Failure("Error: step must not be negative", nil)
	}

	return s.session(ctx, "FetchStudents", func(ctx context.Context, p page.Page) Response {
		cards, err := s.disciplineCards(ctx, p)
		if err != nil {
			s.tel.ReportBroken(report_service_fetch_students, err)
			return Failure(fmt.Sprintf("Error: %s", err), nil)
		}
		refs, _ := s.extractor.DisciplineRefs(cards)

		selected, ok := SelectDiscipline(refs, req.Discipline)
		if !ok {
			return Failure(fmt.Sprintf("Discipline %q not found", req.Discipline), refs)
		}

		err = s.goTo(ctx, p, fillPath(s.opts.Layout.DiaryPath, selected.Id, req.Step))
		if err != nil {
			s.tel.ReportBroken(report_service_fetch_students, err)
			return Failure(fmt.Sprintf("Error: %s", err), nil)
		}
		rows, err := p.FindAll(s.opts.Layout.StudentRows)
		if err != nil {
			s.tel.ReportBroken(report_service_fetch_students, err)
			return Failure(fmt.Sprintf("Error: %s", err), nil)
		}
		students, drops := s.extractor.Students(rows)

		message := "Discipline found"
		if len(drops) > 0 {
			message = fmt.Sprintf("%s (%d rows without a student skipped)", message, len(drops))
		}
		return Success(message, StudentsData{
			Discipline: selected,
			Students:   students,
		})
	})
}

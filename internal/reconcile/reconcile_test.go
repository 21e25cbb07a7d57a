package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ifsuap/internal/components/telemetry"
	"ifsuap/internal/page"
	"ifsuap/internal/page/htmlpage"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const gradesDoc = `<html><body><form><table><tbody>
<tr>
	<td><a href="/edu/aluno/A1/">Alice</a></td>
	<td><input name="nota_A1_1" data-etapa="1" value="R"></td>
	<td><input name="nota_A1_2" data-etapa="2"></td>
</tr>
<tr>
	<td><a href="/edu/aluno/B2/">Bruno</a></td>
	<td><input name="nota_B2_2" data-etapa="2"></td>
</tr>
<tr>
	<td><span>Carla</span><div class="hide-sm"><a>C3</a></div></td>
	<td><input name="nota_C3_1" data-etapa="1"></td>
</tr>
<tr>
	<td><a href="/edu/aluno/D4/">Davi</a></td>
	<td><input name="nota_D4_1" data-etapa="1" readonly value="I"></td>
</tr>
<tr>
	<td><a href="/edu/aluno/A10/">Alan</a></td>
	<td><input name="nota_A10_1" data-etapa="1"></td>
</tr>
</tbody></table></form></body></html>`

func loadForm(t testing.TB) *htmlpage.Page {
	p := htmlpage.New(htmlpage.Site{
		BaseUrl: "https://suap.example.edu",
		Pages:   map[string]string{"/edu/meu_diario/1/1/": gradesDoc},
	})
	require.NoError(t, p.Navigate(context.Background(), "/edu/meu_diario/1/1/"))
	return p
}

func fieldValue(t testing.TB, p *htmlpage.Page, name string) string {
	el, err := p.Find(`input[name="` + name + `"]`)
	require.NoError(t, err)
	value, err := el.Value()
	require.NoError(t, err)
	return value
}

func TestApplyScenario(t *testing.T) {
	p := loadForm(t)
	engine := New(DefaultSelectors, &telemetry.Recorder{})

	outcomes := engine.Apply(context.Background(), p, 1, []Request{
		{StudentId: "A1", StudentName: "Alice", Concept: "S"},
		{StudentId: "Z9", StudentName: "Zack", Concept: "S"},
	})

	require.Len(t, outcomes, 2)
	require.Equal(t, Applied, outcomes[0].Status)
	require.True(t, outcomes[0].Verified)
	require.Equal(t, "Alice", outcomes[0].StudentName)
	require.Equal(t, StudentRowNotFound, outcomes[1].Status)
	require.Equal(t, "Zack", outcomes[1].StudentName)
	require.False(t, outcomes[1].Verified)

	require.Equal(t, "S", fieldValue(t, p, "nota_A1_1"))
	require.Equal(t, "", fieldValue(t, p, "nota_A10_1"))
	require.Equal(t, []htmlpage.Key{{Field: "nota_A1_1", Key: CommitKey}}, p.Keys)
}

func TestApplyClassification(t *testing.T) {
	p := loadForm(t)
	rec := &telemetry.Recorder{}
	engine := New(DefaultSelectors, rec)

	requests := []Request{
		{StudentId: "B2", StudentName: "Bruno", Concept: "A"},
		{StudentId: "C3", StudentName: "Carla", Concept: "B"},
		{StudentId: "D4", StudentName: "Davi", Concept: "C"},
		{StudentId: "", StudentName: "Nobody", Concept: "C"},
		{StudentId: "A10", StudentName: "Alan", Concept: "D"},
		{StudentId: "A1", StudentName: "Alice", Concept: "B"},
	}
	outcomes := engine.Apply(context.Background(), p, 1, requests)

	got := make([]Status, len(outcomes))
	for i, o := range outcomes {
		got[i] = o.Status
		require.Equal(t, requests[i].StudentId, o.StudentId)
	}
	expected := []Status{FieldNotFound, Applied, Applied, StudentRowNotFound, Applied, Applied}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatal(diff)
	}

	// the readonly field swallows the write
	require.False(t, outcomes[2].Verified)
	require.Contains(t, outcomes[2].Detail, `"I"`)
	require.True(t, outcomes[4].Verified)
	require.Equal(t, "D", fieldValue(t, p, "nota_A10_1"))
	require.Equal(t, "B", fieldValue(t, p, "nota_A1_1"))
	require.Equal(t, "B", fieldValue(t, p, "nota_C3_1"))

	require.Len(t, rec.Reports(telemetry.LEVEL_WARNING), 2)
	counts := rec.Reports(telemetry.LEVEL_COUNT)
	require.Len(t, counts, 2)
	require.Equal(t, int64(4), counts[0].Count)
	require.Equal(t, int64(2), counts[1].Count)
}

func TestApplyOtherStep(t *testing.T) {
	p := loadForm(t)
	outcomes := New(DefaultSelectors, telemetry.SlogAPI{}).Apply(context.Background(), p, 2, []Request{
		{StudentId: "B2", Concept: "A"},
		{StudentId: "C3", Concept: "A"},
	})
	require.Equal(t, Applied, outcomes[0].Status)
	require.Equal(t, FieldNotFound, outcomes[1].Status)
	require.Equal(t, "A", fieldValue(t, p, "nota_B2_2"))
}

func TestApplyEmptyBatch(t *testing.T) {
	outcomes := New(DefaultSelectors, telemetry.SlogAPI{}).Apply(context.Background(), loadForm(t), 1, nil)
	require.Empty(t, outcomes)
}

func TestApplyWithLimiter(t *testing.T) {
	p := loadForm(t)
	engine := New(DefaultSelectors, telemetry.SlogAPI{}, WithLimiter(rate.NewLimiter(rate.Inf, 1)))
	outcomes := engine.Apply(context.Background(), p, 1, []Request{{StudentId: "A1", Concept: "S"}})
	require.Equal(t, Applied, outcomes[0].Status)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine = New(DefaultSelectors, telemetry.SlogAPI{}, WithLimiter(rate.NewLimiter(1, 1)))
	outcomes = engine.Apply(ctx, p, 1, []Request{{StudentId: "A1", Concept: "S"}})
	require.Equal(t, FieldNotFound, outcomes[0].Status)
	require.NotEmpty(t, outcomes[0].Detail)
}

// faultyForm fails in a configurable way to exercise classification of
// unexpected failures.
type faultyForm struct {
	rowsErr error
	panics  bool
}

func (f faultyForm) FindAll(selector string) ([]page.Element, error) {
	if f.panics {
		panic("detached")
	}
	if f.rowsErr != nil {
		return nil, f.rowsErr
	}
	return []page.Element{faultyRow{}}, nil
}

type faultyRow struct{ page.Element }

func (faultyRow) FindAll(selector string) ([]page.Element, error) {
	return []page.Element{faultyLink{}}, nil
}

func (faultyRow) Find(selector string) (page.Element, error) {
	return nil, errors.New("stale element reference")
}

type faultyLink struct{ page.Element }

func (faultyLink) Attribute(name string) (string, error) {
	return "/edu/aluno/X1/", nil
}

func TestApplyUnexpectedFailures(t *testing.T) {
	engine := New(DefaultSelectors, telemetry.SlogAPI{})
	ctx := context.Background()
	batch := []Request{{StudentId: "X1"}, {StudentId: "X1"}}

	outcomes := engine.Apply(ctx, faultyForm{rowsErr: errors.New("connection reset")}, 1, batch)
	require.Len(t, outcomes, 2)
	require.Equal(t, StudentRowNotFound, outcomes[0].Status)
	require.Equal(t, "connection reset", outcomes[0].Detail)

	outcomes = engine.Apply(ctx, faultyForm{panics: true}, 1, batch)
	require.Len(t, outcomes, 2)
	require.Equal(t, StudentRowNotFound, outcomes[1].Status)
	require.Contains(t, outcomes[1].Detail, "detached")

	outcomes = engine.Apply(ctx, faultyForm{}, 1, batch)
	require.Equal(t, FieldNotFound, outcomes[0].Status)
	require.Equal(t, "stale element reference", outcomes[0].Detail)
}

func TestReadRequests(t *testing.T) {
	input := `
// first step
{student_id: "2021101", student_name: "Alice Souza", concept: "A"}

{"student_id": " 2021102 ", "student_name": "Bruno", "concept": "B",}
`
	requests, err := ReadRequests(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []Request{
		{StudentId: "2021101", StudentName: "Alice Souza", Concept: "A"},
		{StudentId: "2021102", StudentName: "Bruno", Concept: "B"},
	}, requests)

	_, err = ReadRequests(strings.NewReader("{concept: \"A\"}"))
	require.ErrorContains(t, err, "line 1")

	_, err = ReadRequests(strings.NewReader("\n{student_id: "))
	require.ErrorContains(t, err, "line 2")

	requests, err = ReadRequests(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, requests)
}

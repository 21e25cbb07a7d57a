package extract

import (
	"context"
	"errors"
	"testing"

	"ifsuap/internal/components/telemetry"
	"ifsuap/internal/page"
	"ifsuap/internal/page/htmlpage"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseDisciplineTitle(t *testing.T) {
	table := []struct {
		title    string
		expected Discipline
		err      error
	}{
		{
			title:    "12 - TEC.1 - Algorithms - A",
			expected: Discipline{Id: "12", Name: "Algorithms", Kind: "TECA"},
		},
		{
			title:    "4821-INF.0354-Banco de Dados-B",
			expected: Discipline{Id: "4821", Name: "Banco de Dados", Kind: "INFB"},
		},
		{
			title:    " 7 - ADS - Redes - N - extra ",
			expected: Discipline{Id: "7", Name: "Redes", Kind: "ADSN"},
		},
		{title: "12 - TEC.1 - Algorithms", err: ErrMalformedTitle},
		{title: "Algorithms", err: ErrMalformedTitle},
		{title: "", err: ErrMalformedTitle},
	}

	for _, test := range table {
		got, err := ParseDisciplineTitle(test.title)
		if test.err != nil {
			require.True(t, errors.Is(err, test.err), test.title)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, test.expected, got)
	}
}

func TestDiaryId(t *testing.T) {
	table := []struct {
		href     string
		expected string
	}{
		{href: "https://suap.ifpr.edu.br/edu/meu_diario/4821/1/", expected: "4821"},
		{href: "/edu/meu_diario/4821/0/", expected: "4821"},
		{href: "/edu/diario/77/", expected: "77"},
	}
	for _, test := range table {
		got, err := DiaryId(test.href)
		require.NoError(t, err)
		require.Equal(t, test.expected, got)
	}

	_, err := DiaryId("/edu/meus_diarios/")
	require.True(t, errors.Is(err, ErrNoDiaryId))
}

const diariesDoc = `<html><body>
<div class="general-box"><h5 class="title"><a href="/edu/meu_diario/4821/1/">12 - TEC.1 - Algorithms - A</a></h5></div>
<div class="general-box"><h5 class="title"><a href="/edu/meu_diario/4822/1/">Malformed title</a></h5></div>
<div class="general-box"><p>no title at all</p></div>
<div class="general-box"><h5 class="title"><a href="/edu/">13 - INF.2 - Redes - B</a></h5></div>
</body></html>`

const diaryDoc = `<html><body><table><tbody>
<tr><td style="height: 55px"><a href="/edu/aluno/2021101/">Alice Souza (2021101)</a><div class="hide-sm"><a>2021101</a></div></td></tr>
<tr><td style="height: 55px"><div class="hide-sm"></div></td></tr>
<tr><td style="height: 55px"><a href="/edu/aluno/2021102/">Bruno Lima</a></td></tr>
<tr><td style="height: 55px"><a href="/edu/aluno/2021103/">  Carla   Dias  (2021103) </a><div class="hide-sm"><a> 2021103 </a></div></td></tr>
</tbody></table></body></html>`

func loadElements(t testing.TB, doc string, selector string) []page.Element {
	p := htmlpage.New(htmlpage.Site{
		BaseUrl: "https://suap.example.edu",
		Pages:   map[string]string{"/": doc},
	})
	require.NoError(t, p.Navigate(context.Background(), "/"))
	elements, err := p.FindAll(selector)
	require.NoError(t, err)
	return elements
}

func TestDisciplines(t *testing.T) {
	rec := &telemetry.Recorder{}
	extractor := New(DefaultSelectors, rec)

	cards := loadElements(t, diariesDoc, "div.general-box")
	disciplines, failed := extractor.Disciplines(cards)

	expected := []Discipline{
		{Id: "12", Name: "Algorithms", Kind: "TECA"},
		{Id: "13", Name: "Redes", Kind: "INFB"},
	}
	if diff := cmp.Diff(expected, disciplines); diff != "" {
		t.Fatal(diff)
	}

	require.Len(t, failed, 2)
	require.Equal(t, 1, failed[0].Index)
	require.Equal(t, "Malformed title", failed[0].Title)
	require.True(t, errors.Is(failed[0], ErrMalformedTitle))
	require.Equal(t, 2, failed[1].Index)
	require.True(t, errors.Is(failed[1], page.ErrNotFound))

	require.Len(t, rec.Reports(telemetry.LEVEL_WARNING), 2)
}

func TestDisciplinesEmpty(t *testing.T) {
	disciplines, failed := New(DefaultSelectors, telemetry.SlogAPI{}).Disciplines(nil)
	require.Empty(t, disciplines)
	require.NotNil(t, disciplines)
	require.Empty(t, failed)
}

func TestDisciplineRefs(t *testing.T) {
	extractor := New(DefaultSelectors, &telemetry.Recorder{})
	refs, failed := extractor.DisciplineRefs(loadElements(t, diariesDoc, "div.general-box"))

	expected := []DisciplineRef{
		{Id: "4821", Name: "12 - TEC.1 - Algorithms - A"},
		{Id: "4822", Name: "Malformed title"},
	}
	if diff := cmp.Diff(expected, refs); diff != "" {
		t.Fatal(diff)
	}
	require.Len(t, failed, 2)
	require.Equal(t, 2, failed[0].Index)
	require.Equal(t, 3, failed[1].Index)
	require.True(t, errors.Is(failed[1], ErrNoDiaryId))
}

func TestStudents(t *testing.T) {
	rec := &telemetry.Recorder{}
	extractor := New(DefaultSelectors, rec)

	rows := loadElements(t, diaryDoc, `td[style*="height: 55px"]`)
	students, drops := extractor.Students(rows)

	expected := []Student{
		{Name: "Alice Souza", Id: "2021101"},
		{Name: "Carla Dias", Id: "2021103"},
	}
	if diff := cmp.Diff(expected, students); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, []Drop{
		{Index: 1, Reason: "no name label"},
		{Index: 2, Reason: "no registration link"},
	}, drops)

	warnings := rec.Reports(telemetry.LEVEL_WARNING)
	require.Len(t, warnings, 2)
	require.Equal(t, "extract: "+report_extractor_students, warnings[0].Id)
}

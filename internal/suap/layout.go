package suap

import (
	"strconv"
	"strings"

	"ifsuap/internal/extract"
	"ifsuap/internal/reconcile"
)

// Layout is every url and selector of the portal the service depends on.
// Paths may hold the "{id}" (diary id) and "{step}" placeholders.
type Layout struct {
	LoginPath     string `json:"login_path"`
	LoginUsername string `json:"login_username"`
	LoginPassword string `json:"login_password"`
	LoginSubmit   string `json:"login_submit"`
	// LoginError is shown by the login page when the credentials are refused.
	LoginError string `json:"login_error"`

	DiariesPath     string `json:"diaries_path"`
	DisciplineCards string `json:"discipline_cards"`
	DisciplineTitle string `json:"discipline_title"`

	DiaryPath    string `json:"diary_path"`
	DiaryTitle   string `json:"diary_title"`
	StudentRows  string `json:"student_rows"`
	StudentLabel string `json:"student_label"`
	StudentId    string `json:"student_id"`

	PlanLink string `json:"plan_link"`

	GradesPath    string `json:"grades_path"`
	GradeForm     string `json:"grade_form"`
	GradeRows     string `json:"grade_rows"`
	GradeRowLinks string `json:"grade_row_links"`
	GradeField    string `json:"grade_field"`
	// GradeSave is clicked once after a batch when it is set.
	GradeSave string `json:"grade_save"`

	ClassAddPath  string `json:"class_add_path"`
	ClassDate     string `json:"class_date"`
	ClassQuantity string `json:"class_quantity"`
	ClassContent  string `json:"class_content"`
	ClassSubmit   string `json:"class_submit"`
	ClassSuccess  string `json:"class_success"`
}

func DefaultLayout() Layout {
	return Layout{
		LoginPath:     "/accounts/login/",
		LoginUsername: "#id_username",
		LoginPassword: "#id_password",
		LoginSubmit:   "input.btn.success",
		LoginError:    ".errornote",

		DiariesPath:     "/edu/meus_diarios/",
		DisciplineCards: "div.general-box",
		DisciplineTitle: extract.DefaultSelectors.DisciplineTitle,

		DiaryPath:    "/edu/meu_diario/{id}/{step}/",
		DiaryTitle:   "h2",
		StudentRows:  `td[style*="height: 55px"]`,
		StudentLabel: extract.DefaultSelectors.StudentLabel,
		StudentId:    extract.DefaultSelectors.StudentId,

		PlanLink: `a[href*="plano_ensino"]`,

		GradesPath:    "/edu/meu_diario/{id}/{step}/?tab=notas",
		GradeForm:     "form",
		GradeRows:     reconcile.DefaultSelectors.Rows,
		GradeRowLinks: reconcile.DefaultSelectors.RowLinks,
		GradeField:    reconcile.DefaultSelectors.Field,

		ClassAddPath:  "/edu/adicionar_aula_diario/{id}/",
		ClassDate:     "#id_data",
		ClassQuantity: "#id_quantidade",
		ClassContent:  "#id_conteudo",
		ClassSubmit:   `input[type="submit"]`,
		ClassSuccess:  ".msg.success",
	}
}

func fillPath(template, id string, step int) string {
	return strings.NewReplacer(
		"{id}", id,
		"{step}", strconv.Itoa(step),
	).Replace(template)
}

func (l Layout) extractSelectors() extract.Selectors {
	return extract.Selectors{
		DisciplineTitle: l.DisciplineTitle,
		StudentLabel:    l.StudentLabel,
		StudentId:       l.StudentId,
	}
}

func (l Layout) reconcileSelectors() reconcile.Selectors {
	return reconcile.Selectors{
		Rows:     l.GradeRows,
		RowLinks: l.GradeRowLinks,
		Field:    l.GradeField,
	}
}

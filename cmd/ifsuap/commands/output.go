package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"ifsuap/internal/extract"
	"ifsuap/internal/gradestore"
	"ifsuap/internal/reconcile"
	"ifsuap/internal/suap"
	"ifsuap/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
)

// printResponse writes the envelope to stdout, as a table when asked to and
// when its data has a tabular form.
func printResponse(res suap.Response) {
	if format != nil && *format == "table" && res.OK() {
		fmt.Fprintln(os.Stderr, res.Message)
		if renderTable(os.Stdout, res.Data) {
			return
		}
	}
	err := res.Write(os.Stdout)
	if err != nil {
		serviceutil.Fatal("failed to write response", err)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func countApplied(outcomes []reconcile.Outcome) (applied, failed int) {
	for _, o := range outcomes {
		if o.Status == reconcile.Applied {
			applied++
			continue
		}
		failed++
	}
	return applied, failed
}

// renderTable reports false when data has no tabular form.
func renderTable(w io.Writer, data any) bool {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	switch d := data.(type) {
	case []extract.Discipline:
		t.AppendHeader(table.Row{"Id", "Name", "Kind"})
		for _, discipline := range d {
			t.AppendRow(table.Row{discipline.Id, discipline.Name, discipline.Kind})
		}
	case suap.StudentsData:
		t.SetTitle(d.Discipline.Name)
		t.AppendHeader(table.Row{"Id", "Name"})
		for _, student := range d.Students {
			t.AppendRow(table.Row{student.Id, student.Name})
		}
	case suap.TeachingPlan:
		t.SetTitle(d.Title)
		t.AppendHeader(table.Row{"#", "Content"})
		for i, line := range d.ContentLines {
			t.AppendRow(table.Row{i + 1, line})
		}
	case suap.GradesData:
		t.AppendHeader(table.Row{"Student", "Name", "Concept", "Status", "Verified", "Detail"})
		for _, o := range d.Outcomes {
			t.AppendRow(table.Row{o.StudentId, o.StudentName, o.Concept, o.Status, yesNo(o.Verified), o.Detail})
		}
		t.AppendFooter(table.Row{"", "", "", "Applied", strconv.Itoa(d.Applied), ""})
	case suap.ClassData:
		t.AppendHeader(table.Row{"Discipline", "Date", "Quantity", "Content"})
		t.AppendRow(table.Row{d.DisciplineId, d.Date, d.Quantity, d.Content})
	case []gradestore.Run:
		t.AppendHeader(table.Row{"Run", "At", "Discipline", "Step", "Applied", "Failed"})
		for _, run := range d {
			applied, failed := countApplied(run.Outcomes)
			t.AppendRow(table.Row{run.Id, run.At.Format("02/01/2006 15:04"), run.DisciplineId, run.Step, applied, failed})
		}
	default:
		return false
	}

	t.Render()
	return true
}

package commands

import (
	"fmt"
	"os"

	"ifsuap/internal/reconcile"
	"ifsuap/internal/suap"

	"github.com/spf13/cobra"
)

var (
	gradesDisciplineId *string
	gradesStep         *int
	gradesFile         *string
)

func readRequests(path string) ([]reconcile.Request, error) {
	if path == "-" {
		return reconcile.ReadRequests(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return reconcile.ReadRequests(f)
}

var gradesCmd = &cobra.Command{
	Use:   "grades",
	Short: "Writes a batch of concepts into the grade form of a discipline and reports what happened to each student.",
	Long: `Writes a batch of concepts into the grade form of a discipline.

The batch file holds one request per line:

	{student_id: "2023001", student_name: "Alice", concept: "A"}

Blank lines and lines starting with // are skipped, "-" reads the batch from stdin.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		requests, err := readRequests(*gradesFile)
		if err != nil {
			printResponse(suap.Failure(fmt.Sprintf("Error: %s", err), nil))
			return
		}

		service, release := newService(cmd.Context())
		defer release()
		printResponse(service.UpdateGrades(cmd.Context(), suap.GradesRequest{
			DisciplineId: *gradesDisciplineId,
			Step:         *gradesStep,
			Requests:     requests,
		}))
	},
}

func init() {
	gradesDisciplineId = gradesCmd.Flags().String("discipline-id", "", "The diary id of the discipline.")
	gradesStep = gradesCmd.Flags().Int("step", 1, "The grading step the concepts belong to.")
	gradesFile = gradesCmd.Flags().String("file", "", "The batch file.")
	gradesCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(gradesCmd)
}

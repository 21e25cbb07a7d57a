package commands

import (
	"ifsuap/internal/suap"

	"github.com/spf13/cobra"
)

var (
	studentsDisciplineId *string
	studentsStep         *int
)

var studentsCmd = &cobra.Command{
	Use:   "students [DISCIPLINE]",
	Short: "Lists the students of a discipline, given by its diary id or (part of) its name.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query := *studentsDisciplineId
		if len(args) > 0 {
			query = args[0]
		}

		service, release := newService(cmd.Context())
		defer release()
		printResponse(service.FetchStudents(cmd.Context(), suap.StudentsRequest{
			Discipline: query,
			Step:       *studentsStep,
		}))
	},
}

func init() {
	studentsDisciplineId = studentsCmd.Flags().String("discipline-id", "", "The diary id (or name) of the discipline.")
	studentsStep = studentsCmd.Flags().Int("step", 0, "The grading step whose tab is read, 0 reads the overview tab.")
	rootCmd.AddCommand(studentsCmd)
}

package commands

import (
	"ifsuap/internal/suap"

	"github.com/spf13/cobra"
)

var planDisciplineId *string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Downloads the teaching plan of a discipline and prints its program content.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		service, release := newService(cmd.Context())
		defer release()
		printResponse(service.FetchTeachingPlan(cmd.Context(), suap.PlanRequest{
			DisciplineId: *planDisciplineId,
		}))
	},
}

func init() {
	planDisciplineId = planCmd.Flags().String("discipline-id", "", "The diary id of the discipline.")
	rootCmd.AddCommand(planCmd)
}

package commands

import (
	"ifsuap/internal/suap"

	"github.com/spf13/cobra"
)

var (
	classDate         *string
	classDisciplineId *string
	classContent      *string
	classQuantity     *int
)

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "Registers a class in the diary of a discipline.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		service, release := newService(cmd.Context())
		defer release()
		printResponse(service.CreateClass(cmd.Context(), suap.ClassRequest{
			Date:         *classDate,
			DisciplineId: *classDisciplineId,
			Content:      *classContent,
			Quantity:     *classQuantity,
		}))
	},
}

func init() {
	classDate = classesCmd.Flags().String("date", "", "The date of the class as dd/mm/yyyy, today when empty.")
	classDisciplineId = classesCmd.Flags().String("discipline-id", "", "The diary id of the discipline.")
	classContent = classesCmd.Flags().String("content-class", "", "What was taught.")
	classQuantity = classesCmd.Flags().Int("qt-classes", 1, "How many classes were given.")
	rootCmd.AddCommand(classesCmd)
}

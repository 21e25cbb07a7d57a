package commands

import (
	"github.com/spf13/cobra"
)

var disciplinesCmd = &cobra.Command{
	Use:   "disciplines",
	Short: "Lists the disciplines of the logged in teacher.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		service, release := newService(cmd.Context())
		defer release()
		printResponse(service.FetchDisciplines(cmd.Context()))
	},
}

func init() {
	rootCmd.AddCommand(disciplinesCmd)
}

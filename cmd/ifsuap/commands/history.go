package commands

import (
	"fmt"

	"ifsuap/internal/gradestore"
	"ifsuap/internal/suap"
	"ifsuap/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	historyDisciplineId *string
	historyLimit        *int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lists the grade batches recorded in the journal, newest first.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if cfg.Journal == "" {
			printResponse(suap.Failure("Error: no journal is configured", nil))
			return
		}

		database, err := openJournal(cmd.Context(), cfg)
		if err != nil {
			serviceutil.Fatal("failed to open journal", err)
		}
		defer database.Close()

		runs, err := gradestore.NewStore(database).Pull(cmd.Context(), gradestore.PullRequest{
			DisciplineId: *historyDisciplineId,
			Limit:        *historyLimit,
		})
		if err != nil {
			printResponse(suap.Failure(fmt.Sprintf("Error: %s", err), nil))
			return
		}
		printResponse(suap.Success(fmt.Sprintf("%d runs found", len(runs)), runs))
	},
}

func init() {
	historyDisciplineId = historyCmd.Flags().String("discipline-id", "", "Only list the batches of this discipline.")
	historyLimit = historyCmd.Flags().Int("limit", 20, "How many batches to list.")
	rootCmd.AddCommand(historyCmd)
}

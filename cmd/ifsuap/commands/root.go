package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"ifsuap/lib/telemetry"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
	offlineDir *string
	format     *string
)

var otelState telemetry.Telemetry

var rootCmd = &cobra.Command{
	Use:   "ifsuap",
	Short: "ifsuap automates the diaries of the SUAP academic portal: disciplines, students, teaching plans, grades and classes.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load .env: %w", err)
		}
		telemetry.InitSlog(os.Stderr, *verbose)

		if *format != "json" && *format != "table" {
			return fmt.Errorf("unknown format %q, expected json or table", *format)
		}

		otelState, err = telemetry.SetupFromEnv(cmd.Context(), "ifsuap")
		if err != nil {
			slog.Warn("telemetry disabled", "err", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		err := otelState.Shutdown(context.Background())
		if err != nil {
			slog.Warn("shutdown telemetry", "err", err)
		}
	},
	SilenceUsage: true,
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "", "Path to the configuration file, ifsuap.json5 is searched from the current directory upwards when empty.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug logs.")
	offlineDir = rootCmd.PersistentFlags().String("offline", "", "Read the portal from a directory of saved pages instead of a browser.")
	format = rootCmd.PersistentFlags().String("format", "json", "Output format, json or table.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

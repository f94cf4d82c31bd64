package cmd

import (
	"os"

	"github.com/inovacc/buildsweep/internal/application"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   application.AppName,
	Short: "Weekly build scheduler for Bitbucket repositories",
	Long: `Buildsweep keeps dormant Bitbucket repositories building.

It reads the service catalog from Datadog, inspects each repository's
recent commits and pipelines, and manages weekly placeholder pipeline
schedules: repositories with no activity in the trailing window get a
Saturday morning schedule, and repositories that became active again
get their placeholder schedule removed.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCmd returns the root command for introspection purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List repositories resolved from the Datadog service catalog",
	Long: `List repositories resolved from the Datadog service catalog.

Each service definition is resolved to its Bitbucket repository slug.
Services without a usable repository link and placeholder entries are
omitted. This is the same list the sweep command operates on.`,
	Args: cobra.NoArgs,
	RunE: runServices,
}

func runServices(cmd *cobra.Command, args []string) error {
	logger := loggerFromFlags(cmd)

	dd, err := newDatadogClient(logger)
	if err != nil {
		return err
	}

	repos, err := dd.ListRepositories(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list services: %w", err)
	}

	if len(repos) == 0 {
		fmt.Println("No repositories found in the service catalog.")

		return nil
	}

	for _, repo := range repos {
		fmt.Println(repo)
	}

	fmt.Printf("\n%d repositories\n", len(repos))

	return nil
}

func init() {
	rootCmd.AddCommand(servicesCmd)

	addLoggingFlags(servicesCmd.Flags())
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var mocksCmd = &cobra.Command{
	Use:   "mocks",
	Short: "Manage the mock Jira and OpenAI services",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var mocksVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Start the mock services and probe their endpoints",
	Long: `Start the mock Jira and OpenAI services in containers and probe
their endpoints to verify they respond. Integration tests bind these
same services.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mocksVerifyRun(cmd.Context())
	},
}

func init() {
	mocksCmd.AddCommand(mocksVerifyCmd)
	rootCmd.AddCommand(mocksCmd)
}

func mocksVerifyRun(ctx context.Context) error {
	eng, err := newEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	res, err := eng.VerifyMockServices(ctx)
	if err != nil {
		return fmt.Errorf("verify mock services: %w", err)
	}

	ui.Info("Services started: %d", res.ServicesCreated)
	ui.Info("Jira endpoints probed: %d", res.JiraCalls)
	ui.Info("OpenAI endpoints probed: %d", res.OpenAICalls)

	if !res.Passed {
		ui.Error("Mock services failed verification")
		return fmt.Errorf("mock services unhealthy")
	}
	ui.Success("Mock services verified")
	return nil
}

package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nebulascloud/jaci/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets coding agents run pipeline stages and query run history
natively. Configure with:

  {
    "mcpServers": {
      "jaci": { "command": "jaci", "args": ["mcp"] }
    }
  }

Available tools: jaci_run_quality, jaci_run_tests, jaci_run_build,
jaci_list_runs, jaci_pipeline_health, jaci_ask`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpRun(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func mcpRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	// The engine and assistant are optional: tools that need them
	// report unavailability instead of blocking server startup.
	var runner mcp.Runner
	eng, err := newEngine(ctx)
	if err != nil {
		ui.VerboseLog("pipeline tools unavailable: %v", err)
	} else {
		defer eng.Close()
		runner = eng
	}

	var asker mcp.Asker
	if client := newAssistant(true, s); client != nil {
		asker = client
	}

	srv := mcp.NewServer(s, runner, asker, viper.GetFloat64("coverage.threshold"))
	return srv.ServeStdio(ctx)
}

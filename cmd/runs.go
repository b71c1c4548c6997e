package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nebulascloud/jaci/internal/models"
	"github.com/nebulascloud/jaci/internal/output"
	"github.com/nebulascloud/jaci/internal/store"
)

var (
	runsStage  string
	runsStatus string
	runsLimit  int
	runsKeep   int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show pipeline run history",
	Long: `Show recorded pipeline runs, newest first.

Running bare 'jaci runs' is the same as 'jaci runs list'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runsListRun(cmd.Context())
	},
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runsListRun(cmd.Context())
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show full detail for one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runsShowRun(cmd.Context(), args[0])
	},
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old runs, keeping the most recent",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runsPruneRun(cmd.Context())
	},
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsStage, "stage", "", "Filter by stage: preflight, quality, test, build, pipeline")
	runsCmd.PersistentFlags().StringVar(&runsStatus, "status", "", "Filter by status: pass, fail, error")
	runsCmd.PersistentFlags().IntVar(&runsLimit, "limit", 20, "Maximum runs to show")
	runsPruneCmd.Flags().IntVar(&runsKeep, "keep", 50, "Number of recent runs to keep")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsPruneCmd)
	rootCmd.AddCommand(runsCmd)
}

func runsListRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	runs, err := s.ListRuns(ctx, store.RunListFilter{
		Stage:  models.Stage(runsStage),
		Status: models.RunStatus(runsStatus),
		Limit:  runsLimit,
	})
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		ui.Info("No runs recorded. Run 'jaci run' to get started.")
		return nil
	}

	table := ui.Table([]string{"ID", "Stage", "Status", "Coverage", "Duration", "When"})
	for _, r := range runs {
		coverage := ""
		if r.Coverage > 0 {
			coverage = fmt.Sprintf("%.1f%%", r.Coverage)
		}
		table.Append([]string{
			r.ID,
			string(r.Stage),
			output.StatusColor(string(r.Status)),
			coverage,
			r.Duration.Round(time.Second).String(),
			timeAgo(r.CreatedAt),
		})
	}
	table.Render()
	return nil
}

func runsShowRun(ctx context.Context, id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	r, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "ID:       %s\n", r.ID)
	fmt.Fprintf(ui.Out, "Stage:    %s\n", r.Stage)
	fmt.Fprintf(ui.Out, "Status:   %s\n", output.StatusColor(string(r.Status)))
	if r.Coverage > 0 {
		fmt.Fprintf(ui.Out, "Coverage: %.1f%%\n", r.Coverage)
	}
	fmt.Fprintf(ui.Out, "Duration: %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(ui.Out, "Source:   %s\n", r.SourcePath)
	fmt.Fprintf(ui.Out, "Created:  %s\n", r.CreatedAt.Format(time.RFC3339))
	if r.Summary != "" {
		fmt.Fprintf(ui.Out, "Summary:  %s\n", r.Summary)
	}
	if r.Detail != "" && r.Detail != "null" {
		var pretty json.RawMessage = []byte(r.Detail)
		data, err := json.MarshalIndent(pretty, "", "  ")
		if err == nil {
			fmt.Fprintln(ui.Out)
			fmt.Fprintln(ui.Out, string(data))
		}
	}
	return nil
}

func runsPruneRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would prune runs, keeping the %d most recent", runsKeep)
		return nil
	}

	n, err := s.PruneRuns(ctx, runsKeep)
	if err != nil {
		return err
	}
	ui.Success("Pruned %d runs", n)
	return nil
}

// timeAgo renders a timestamp as a short relative age.
func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nebulascloud/jaci/internal/llm"
)

var (
	askBatchFile string
	askNoContext bool
	askRaw       bool
	askProvider  string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the assistant about Jira work and dependencies",
	Long: `Ask the assistant a natural language question. Conversation
context carries across questions in a batch, and every exchange is
recorded in the local database.

Responses that list issues or suggest dependency links are formatted
for the terminal.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return askRun(cmd.Context(), args)
	},
}

var askHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent assistant exchanges",
	RunE: func(cmd *cobra.Command, args []string) error {
		return askHistoryRun(cmd.Context())
	},
}

var askClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete stored assistant exchanges",
	RunE: func(cmd *cobra.Command, args []string) error {
		return askClearRun(cmd.Context())
	},
}

func init() {
	askCmd.Flags().StringVar(&askBatchFile, "batch", "", "Read questions from a file, one per line")
	askCmd.Flags().BoolVar(&askNoContext, "no-context", false, "Do not carry conversation context between questions")
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "Print responses without terminal formatting")
	askCmd.Flags().StringVar(&askProvider, "provider", "", "Override the configured provider: openai or anthropic")
	askCmd.AddCommand(askHistoryCmd)
	askCmd.AddCommand(askClearCmd)
	rootCmd.AddCommand(askCmd)
}

func askRun(ctx context.Context, args []string) error {
	questions, err := collectQuestions(args)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("no question given (pass one as arguments or use --batch)")
	}

	s, err := getStore()
	if err != nil {
		return err
	}

	if askProvider != "" {
		viper.Set("llm.provider", askProvider)
	}
	client := newAssistant(!askNoContext, s)
	if client == nil {
		return fmt.Errorf("no API key configured: set openai.api_key or anthropic.api_key (or the matching env var)")
	}

	if len(questions) == 1 {
		answer, err := client.Query(ctx, questions[0])
		if err != nil {
			return err
		}
		printAnswer(answer)
		return nil
	}

	results := client.BatchQuery(ctx, questions)
	keys := make([]string, 0, len(results))
	for q := range results {
		keys = append(keys, q)
	}
	sort.Strings(keys)
	for _, q := range keys {
		fmt.Fprintf(ui.Out, "Q: %s\n", q)
		printAnswer(results[q])
		fmt.Fprintln(ui.Out)
	}
	return nil
}

func collectQuestions(args []string) ([]string, error) {
	if askBatchFile == "" {
		q := strings.TrimSpace(strings.Join(args, " "))
		if q == "" {
			return nil, nil
		}
		return []string{q}, nil
	}

	f, err := os.Open(askBatchFile)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()

	var questions []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	return questions, nil
}

func printAnswer(answer string) {
	if askRaw {
		fmt.Fprintln(ui.Out, answer)
		return
	}
	fmt.Fprintln(ui.Out, llm.FormatResponse(answer))
}

func askHistoryRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	exchanges, err := s.ListExchanges(ctx, 20)
	if err != nil {
		return err
	}
	if len(exchanges) == 0 {
		ui.Info("No exchanges recorded.")
		return nil
	}

	for _, ex := range exchanges {
		fmt.Fprintf(ui.Out, "[%s] %s (%s)\n", timeAgo(ex.CreatedAt), ex.Question, ex.Provider)
		fmt.Fprintf(ui.Out, "    %s\n", firstLine(ex.Response))
	}
	return nil
}

func askClearRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would delete stored exchanges")
		return nil
	}

	n, err := s.ClearExchanges(ctx)
	if err != nil {
		return err
	}
	ui.Success("Deleted %d exchanges", n)
	return nil
}

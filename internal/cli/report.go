package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/andywolf/jarvis/internal/coach"
	"github.com/andywolf/jarvis/internal/config"
	"github.com/andywolf/jarvis/internal/executor"
	"github.com/andywolf/jarvis/internal/learner"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the daily coaching report",
	Long: `Generate a coaching report from today's interaction log.

With executor.enabled the rendered prompt is run through the Claude CLI and
the model's report is printed; otherwise the prompt itself is printed so it
can be piped elsewhere.

Example:
  jarvis report`,
	RunE: generateReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().Bool("prompt-only", false, "Print the report prompt without running the executor")
}

func generateReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := log.New(os.Stderr, "[jarvis] ", log.LstdFlags)
	lrn, err := learner.New(cfg.Learner.BaseDir, logger)
	if err != nil {
		return fmt.Errorf("failed to open interaction log: %w", err)
	}
	defer lrn.Close()

	promptOnly, _ := cmd.Flags().GetBool("prompt-only")

	var exec executor.Executor
	if cfg.Executor.Enabled && !promptOnly {
		opts := []executor.ClaudeOption{executor.WithBinary(cfg.Executor.Binary)}
		if cfg.Executor.SystemPrompt != "" {
			opts = append(opts, executor.WithSystemPrompt(cfg.Executor.SystemPrompt))
		}
		exec = executor.NewClaudeCLI(opts...)
	}

	c := coach.New(lrn, exec, cfg.Probes.WorkDir, logger)
	report, err := c.GenerateReport(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(report)
	return nil
}

package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/andywolf/jarvis/internal/config"
	"github.com/andywolf/jarvis/internal/learner"
	"github.com/andywolf/jarvis/internal/persona"
	"github.com/spf13/cobra"
)

var interactionCmd = &cobra.Command{
	Use:   "interaction",
	Short: "Append an interaction to the log",
	Long: `Append one user/assistant exchange to the interaction log.

Chat frontends call this after each exchange so the learner can mine
patterns and the coach can build daily reports.

Example:
  jarvis interaction --user 42 --prompt "why does the build fail" --response "..." --duration-ms 1800 --tools bash,grep`,
	RunE: logInteraction,
}

func init() {
	rootCmd.AddCommand(interactionCmd)

	interactionCmd.Flags().Int64("user", 0, "User ID")
	interactionCmd.Flags().String("prompt", "", "The user's request text")
	interactionCmd.Flags().String("response", "", "The assistant's response text")
	interactionCmd.Flags().Int("duration-ms", 0, "Exchange duration in milliseconds")
	interactionCmd.Flags().StringSlice("tools", nil, "Tools used (comma-separated)")
	interactionCmd.Flags().String("state", "", "Activity state at the time (e.g. CODING)")

	_ = interactionCmd.MarkFlagRequired("prompt")
}

func logInteraction(cmd *cobra.Command, args []string) error {
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

	userID, _ := cmd.Flags().GetInt64("user")
	prompt, _ := cmd.Flags().GetString("prompt")
	response, _ := cmd.Flags().GetString("response")
	durationMS, _ := cmd.Flags().GetInt("duration-ms")
	tools, _ := cmd.Flags().GetStringSlice("tools")
	state, _ := cmd.Flags().GetString("state")

	lrn.LogInteraction(userID, prompt, response, durationMS, tools, persona.State(state))
	return nil
}

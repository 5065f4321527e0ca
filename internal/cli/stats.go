package cli

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/andywolf/jarvis/internal/config"
	"github.com/andywolf/jarvis/internal/learner"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show interaction statistics",
	Long: `Show aggregated statistics mined from the interaction log.

Example:
  jarvis stats --days 7`,
	RunE: showStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().Int("days", 7, "Window size in days")
}

func showStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	days, _ := cmd.Flags().GetInt("days")
	if days < 1 {
		return fmt.Errorf("--days must be at least 1, got %d", days)
	}

	logger := log.New(os.Stderr, "[jarvis] ", log.LstdFlags)
	lrn, err := learner.New(cfg.Learner.BaseDir, logger)
	if err != nil {
		return fmt.Errorf("failed to open interaction log: %w", err)
	}
	defer lrn.Close()

	summary := lrn.Statistics(days)

	fmt.Printf("Interactions over the last %d day(s): %d\n", days, summary.Total)
	if summary.Total == 0 {
		fmt.Println("No interactions logged yet.")
		return nil
	}

	fmt.Printf("Average duration: %dms\n", summary.AvgDurationMS)

	fmt.Print("Peak hours:")
	for _, h := range summary.PeakHours {
		fmt.Printf(" %02d:00", h)
	}
	fmt.Println()

	types := make([]string, 0, len(summary.RequestTypes))
	for t := range summary.RequestTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	fmt.Println("Request types:")
	for _, t := range types {
		fmt.Printf("  %-12s %d\n", t, summary.RequestTypes[t])
	}

	return nil
}

package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/andywolf/jarvis/internal/config"
	"github.com/andywolf/jarvis/internal/engine"
	"github.com/andywolf/jarvis/internal/event"
	"github.com/andywolf/jarvis/internal/learner"
	"github.com/andywolf/jarvis/internal/logging"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the context-awareness engine",
	Long: `Run the context-awareness engine in the foreground.

The engine polls the system on an interval, classifies your activity, and
writes fired notifications to the events file. Stop it with Ctrl-C.

Example:
  jarvis run --work-dir ~/code/myapp --poll-interval 5m`,
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("work-dir", "", "Directory probed for git state (default: current directory)")
	runCmd.Flags().String("poll-interval", "", "Poll cadence (e.g. 5m)")
	runCmd.Flags().Int("hourly-budget", 0, "Max notifications per hour")
	runCmd.Flags().String("base-dir", "", "Jarvis data directory (default: ~/.jarvis)")

	_ = viper.BindPFlag("probes.work_dir", runCmd.Flags().Lookup("work-dir"))
	_ = viper.BindPFlag("engine.poll_interval", runCmd.Flags().Lookup("poll-interval"))
	_ = viper.BindPFlag("learner.base_dir", runCmd.Flags().Lookup("base-dir"))
}

func runEngine(cmd *cobra.Command, args []string) error {
	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("hourly-budget") {
		budget, _ := cmd.Flags().GetInt("hourly-budget")
		cfg.Engine.HourlyBudget = budget
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := log.New(os.Stderr, "[jarvis] ", log.LstdFlags)

	engineID := uuid.New().String()[:8]
	structured, err := openStructuredLog(cfg, engineID)
	if err != nil {
		return err
	}
	defer structured.Close()

	lrn, err := learner.New(cfg.Learner.BaseDir, logger)
	if err != nil {
		return fmt.Errorf("failed to open interaction log: %w", err)
	}
	defer lrn.Close()

	sink, err := event.NewFileSink(cfg.Notify.EventsFile)
	if err != nil {
		return fmt.Errorf("failed to open events file: %w", err)
	}
	defer sink.Close()

	bus := event.NewBus()
	bus.Subscribe(sink)
	bus.Subscribe(event.PublisherFunc(func(_ context.Context, n *event.Notification) error {
		logger.Printf("notification [%s]: %s", n.Source, n.Message)
		return nil
	}))

	collector := engine.NewCollector(engine.CollectorConfig{
		WorkDir:          cfg.Probes.WorkDir,
		ShellHistoryFile: cfg.Probes.ShellHistoryFile,
		ProbeTimeout:     cfg.ProbeTimeout(),
	}, logger)

	eng := engine.New(engine.Config{
		PollInterval:     cfg.PollInterval(),
		HistorySize:      cfg.Engine.HistorySize,
		HourlyBudget:     cfg.Engine.HourlyBudget,
		SwitchWindow:     cfg.SwitchWindow(),
		WorkingDirectory: cfg.Probes.WorkDir,
		TargetChatIDs:    cfg.Notify.ChatIDs,
		Cooldowns:        cfg.Cooldowns(),
	}, engine.Deps{
		Collector:  collector,
		Publisher:  bus,
		Routines:   lrn,
		Logger:     logger,
		Structured: structured,
	})

	eng.Start()
	logger.Printf("engine %s running, events -> %s", engineID, sink.Path())

	sig := <-sigCh
	logger.Printf("received signal: %v, shutting down", sig)
	eng.Stop()

	return nil
}

// openStructuredLog opens the structured JSONL log, falling back to stderr
// when no file is configured.
func openStructuredLog(cfg *config.Config, engineID string) (*logging.Logger, error) {
	if cfg.Logging.StructuredFile == "" {
		return logging.New(engineID), nil
	}
	f, err := os.OpenFile(cfg.Logging.StructuredFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open structured log: %w", err)
	}
	return logging.New(engineID, logging.WithWriter(f)), nil
}

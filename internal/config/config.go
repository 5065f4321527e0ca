package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the full Jarvis configuration
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Probes   ProbesConfig   `mapstructure:"probes"`
	Learner  LearnerConfig  `mapstructure:"learner"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// EngineConfig contains the poll-loop settings
type EngineConfig struct {
	PollInterval string            `mapstructure:"poll_interval"`
	HistorySize  int               `mapstructure:"history_size"`
	HourlyBudget int               `mapstructure:"hourly_budget"`
	SwitchWindow string            `mapstructure:"switch_window"`
	Cooldowns    map[string]string `mapstructure:"cooldowns"` // per-rule overrides
}

// ProbesConfig contains snapshot-probe settings
type ProbesConfig struct {
	WorkDir          string `mapstructure:"work_dir"`
	ShellHistoryFile string `mapstructure:"shell_history_file"`
	Timeout          string `mapstructure:"timeout"`
}

// LearnerConfig contains interaction-log settings
type LearnerConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// NotifyConfig contains outbound notification settings
type NotifyConfig struct {
	EventsFile string  `mapstructure:"events_file"`
	ChatIDs    []int64 `mapstructure:"chat_ids"`
}

// ExecutorConfig contains the Claude CLI settings used for coach reports
type ExecutorConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Binary       string `mapstructure:"binary"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

// LoggingConfig contains structured-log settings
type LoggingConfig struct {
	StructuredFile string `mapstructure:"structured_file"`
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	cfg := &Config{}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.Engine.PollInterval == "" {
		cfg.Engine.PollInterval = "5m"
	}
	if cfg.Engine.HistorySize == 0 {
		cfg.Engine.HistorySize = 12
	}
	if cfg.Engine.HourlyBudget == 0 {
		cfg.Engine.HourlyBudget = 10
	}
	if cfg.Engine.SwitchWindow == "" {
		cfg.Engine.SwitchWindow = "10m"
	}

	if cfg.Probes.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.Probes.WorkDir = wd
		}
	}
	if cfg.Probes.ShellHistoryFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Probes.ShellHistoryFile = filepath.Join(home, ".zsh_history")
		}
	}
	if cfg.Probes.Timeout == "" {
		cfg.Probes.Timeout = "5s"
	}

	if cfg.Learner.BaseDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Learner.BaseDir = filepath.Join(home, ".jarvis")
		} else {
			cfg.Learner.BaseDir = ".jarvis"
		}
	}

	if cfg.Notify.EventsFile == "" {
		cfg.Notify.EventsFile = filepath.Join(cfg.Learner.BaseDir, "events.jsonl")
	}

	if cfg.Executor.Binary == "" {
		cfg.Executor.Binary = "claude"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Engine.PollInterval); err != nil {
		return fmt.Errorf("invalid poll_interval: %w", err)
	}
	if _, err := time.ParseDuration(c.Engine.SwitchWindow); err != nil {
		return fmt.Errorf("invalid switch_window: %w", err)
	}
	if _, err := time.ParseDuration(c.Probes.Timeout); err != nil {
		return fmt.Errorf("invalid probes timeout: %w", err)
	}

	// The history window must hold at least the current and previous snapshot
	// for the edge-detecting rules.
	if c.Engine.HistorySize < 2 {
		return fmt.Errorf("history_size must be at least 2, got %d", c.Engine.HistorySize)
	}
	if c.Engine.HourlyBudget < 1 {
		return fmt.Errorf("hourly_budget must be at least 1, got %d", c.Engine.HourlyBudget)
	}

	for name, raw := range c.Engine.Cooldowns {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid cooldown for %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("cooldown for %s must be positive", name)
		}
	}

	if c.Learner.BaseDir == "" {
		return fmt.Errorf("learner base_dir is required")
	}

	return nil
}

// PollInterval returns the parsed poll interval. Call Validate first.
func (c *Config) PollInterval() time.Duration {
	d, _ := time.ParseDuration(c.Engine.PollInterval)
	return d
}

// SwitchWindow returns the parsed context-switch window. Call Validate first.
func (c *Config) SwitchWindow() time.Duration {
	d, _ := time.ParseDuration(c.Engine.SwitchWindow)
	return d
}

// ProbeTimeout returns the parsed probe timeout. Call Validate first.
func (c *Config) ProbeTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Probes.Timeout)
	return d
}

// Cooldowns returns the parsed per-rule cooldown overrides. Call Validate
// first; unparseable entries are skipped.
func (c *Config) Cooldowns() map[string]time.Duration {
	if len(c.Engine.Cooldowns) == 0 {
		return nil
	}
	out := make(map[string]time.Duration, len(c.Engine.Cooldowns))
	for name, raw := range c.Engine.Cooldowns {
		if d, err := time.ParseDuration(raw); err == nil {
			out[name] = d
		}
	}
	return out
}

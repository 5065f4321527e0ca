package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func validConfig() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "invalid poll interval",
			mutate:  func(c *Config) { c.Engine.PollInterval = "five minutes" },
			wantErr: true,
			errMsg:  "invalid poll_interval",
		},
		{
			name:    "invalid switch window",
			mutate:  func(c *Config) { c.Engine.SwitchWindow = "soon" },
			wantErr: true,
			errMsg:  "invalid switch_window",
		},
		{
			name:    "invalid probe timeout",
			mutate:  func(c *Config) { c.Probes.Timeout = "never" },
			wantErr: true,
			errMsg:  "invalid probes timeout",
		},
		{
			name:    "history size too small",
			mutate:  func(c *Config) { c.Engine.HistorySize = 1 },
			wantErr: true,
			errMsg:  "history_size",
		},
		{
			name:    "zero budget",
			mutate:  func(c *Config) { c.Engine.HourlyBudget = -1 },
			wantErr: true,
			errMsg:  "hourly_budget",
		},
		{
			name: "unparseable cooldown",
			mutate: func(c *Config) {
				c.Engine.Cooldowns = map[string]string{"terminal_error": "later"}
			},
			wantErr: true,
			errMsg:  "invalid cooldown for terminal_error",
		},
		{
			name: "negative cooldown",
			mutate: func(c *Config) {
				c.Engine.Cooldowns = map[string]string{"terminal_error": "-5m"}
			},
			wantErr: true,
			errMsg:  "must be positive",
		},
		{
			name: "valid cooldown overrides",
			mutate: func(c *Config) {
				c.Engine.Cooldowns = map[string]string{"battery_critical": "15m", "terminal_error": "1h"}
			},
		},
		{
			name:    "missing learner base dir",
			mutate:  func(c *Config) { c.Learner.BaseDir = "" },
			wantErr: true,
			errMsg:  "base_dir is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error = %q, want substring %q", err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	applyDefaults(&cfg)

	if cfg.Engine.PollInterval != "5m" {
		t.Errorf("poll_interval = %q, want 5m", cfg.Engine.PollInterval)
	}
	if cfg.Engine.HistorySize != 12 {
		t.Errorf("history_size = %d, want 12", cfg.Engine.HistorySize)
	}
	if cfg.Engine.HourlyBudget != 10 {
		t.Errorf("hourly_budget = %d, want 10", cfg.Engine.HourlyBudget)
	}
	if cfg.Engine.SwitchWindow != "10m" {
		t.Errorf("switch_window = %q, want 10m", cfg.Engine.SwitchWindow)
	}
	if cfg.Probes.Timeout != "5s" {
		t.Errorf("probes timeout = %q, want 5s", cfg.Probes.Timeout)
	}
	if cfg.Learner.BaseDir == "" {
		t.Error("learner base_dir should get a default")
	}
	if cfg.Notify.EventsFile == "" {
		t.Error("events_file should default under the learner base dir")
	}
	if cfg.Executor.Binary != "claude" {
		t.Errorf("executor binary = %q, want claude", cfg.Executor.Binary)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{
		Engine:  EngineConfig{PollInterval: "1m", HistorySize: 24, HourlyBudget: 3},
		Learner: LearnerConfig{BaseDir: "/var/lib/jarvis"},
		Notify:  NotifyConfig{EventsFile: "/tmp/events.jsonl"},
	}
	applyDefaults(&cfg)

	if cfg.Engine.PollInterval != "1m" || cfg.Engine.HistorySize != 24 || cfg.Engine.HourlyBudget != 3 {
		t.Errorf("engine settings overwritten: %+v", cfg.Engine)
	}
	if cfg.Learner.BaseDir != "/var/lib/jarvis" {
		t.Errorf("base_dir overwritten: %q", cfg.Learner.BaseDir)
	}
	if cfg.Notify.EventsFile != "/tmp/events.jsonl" {
		t.Errorf("events_file overwritten: %q", cfg.Notify.EventsFile)
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.PollInterval = "90s"
	cfg.Engine.SwitchWindow = "15m"
	cfg.Probes.Timeout = "2s"
	cfg.Engine.Cooldowns = map[string]string{"battery_critical": "45m"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := cfg.PollInterval(); got != 90*time.Second {
		t.Errorf("PollInterval = %s", got)
	}
	if got := cfg.SwitchWindow(); got != 15*time.Minute {
		t.Errorf("SwitchWindow = %s", got)
	}
	if got := cfg.ProbeTimeout(); got != 2*time.Second {
		t.Errorf("ProbeTimeout = %s", got)
	}
	cds := cfg.Cooldowns()
	if cds["battery_critical"] != 45*time.Minute {
		t.Errorf("Cooldowns = %v", cds)
	}
}

func TestLoad_FromViper(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("engine.poll_interval", "2m")
	viper.Set("engine.hourly_budget", 5)
	viper.Set("notify.chat_ids", []int64{100, 200})
	viper.Set("executor.enabled", true)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.PollInterval != "2m" {
		t.Errorf("poll_interval = %q, want 2m", cfg.Engine.PollInterval)
	}
	if cfg.Engine.HourlyBudget != 5 {
		t.Errorf("hourly_budget = %d, want 5", cfg.Engine.HourlyBudget)
	}
	if len(cfg.Notify.ChatIDs) != 2 || cfg.Notify.ChatIDs[0] != 100 {
		t.Errorf("chat_ids = %v", cfg.Notify.ChatIDs)
	}
	if !cfg.Executor.Enabled {
		t.Error("executor.enabled should be true")
	}
	// Unset fields still pick up defaults.
	if cfg.Engine.HistorySize != 12 {
		t.Errorf("history_size = %d, want default 12", cfg.Engine.HistorySize)
	}
}

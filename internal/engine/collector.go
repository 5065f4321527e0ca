package engine

import (
	"context"
	"log"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultProbeTimeout bounds each individual external probe call.
const DefaultProbeTimeout = 5 * time.Second

// recentCommandCount is how many shell-history commands a snapshot carries.
const recentCommandCount = 5

var (
	batteryPctRe = regexp.MustCompile(`(\d+)%`)
	loadAvgRe    = regexp.MustCompile(`[\d.]+`)
	// zsh extended history lines look like ": 1700000000:0;git status".
	zshHistoryRe = regexp.MustCompile(`^: \d+:\d+;`)
)

// probeFunc runs one data-source probe, returning trimmed output or "" on
// any failure. Probes never return errors; a failed probe degrades to a
// neutral snapshot field.
type probeFunc func(ctx context.Context) string

// Collector gathers a system snapshot by fanning out to external tool probes
// concurrently. Collect never fails: every probe error or timeout yields the
// neutral value for its field.
type Collector struct {
	timeout time.Duration
	logger  *log.Logger

	frontApp   probeFunc
	battery    probeFunc
	loadAvg    probeFunc
	gitBranch  probeFunc
	gitStatus  probeFunc
	browserTab probeFunc
	shellTail  probeFunc

	now func() time.Time
}

// CollectorConfig configures the external probes.
type CollectorConfig struct {
	// WorkDir is the directory probed for VCS state.
	WorkDir string
	// ShellHistoryFile is the shell history file tailed for recent commands.
	// Empty disables the probe.
	ShellHistoryFile string
	// ProbeTimeout bounds each probe call (DefaultProbeTimeout when zero).
	ProbeTimeout time.Duration
}

// NewCollector creates a Collector with the platform's default probe
// commands (macOS tooling: osascript, pmset, sysctl).
func NewCollector(cfg CollectorConfig, logger *log.Logger) *Collector {
	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	c := &Collector{
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
	c.frontApp = c.commandProbe("osascript", "-e",
		`tell app "System Events" to get name of first process whose frontmost is true`)
	c.battery = c.commandProbe("pmset", "-g", "batt")
	c.loadAvg = c.commandProbe("sysctl", "-n", "vm.loadavg")
	c.gitBranch = c.commandProbe("git", "-C", cfg.WorkDir, "branch", "--show-current")
	c.gitStatus = c.commandProbe("git", "-C", cfg.WorkDir, "status", "--short")
	c.browserTab = c.commandProbe("osascript", "-e",
		`tell application "Google Chrome" to get title of active tab of front window`)
	c.shellTail = c.historyProbe(cfg.ShellHistoryFile)
	return c
}

// commandProbe builds a probe that runs a single external command with the
// collector's per-probe timeout and returns its trimmed stdout.
func (c *Collector) commandProbe(name string, args ...string) probeFunc {
	return func(ctx context.Context) string {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		out, err := exec.CommandContext(ctx, name, args...).Output()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(out))
	}
}

// historyProbe builds a probe that reads the tail of a shell history file.
func (c *Collector) historyProbe(path string) probeFunc {
	return func(_ context.Context) string {
		if path == "" {
			return ""
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// Collect captures a snapshot. All probes run concurrently; the slowest
// probe's timeout bounds the whole call, not the sum of the probes.
func (c *Collector) Collect(ctx context.Context) Snapshot {
	var (
		appOut, battOut, loadOut     string
		branchOut, statusOut, tabOut string
		historyOut                   string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { appOut = c.frontApp(gctx); return nil })
	g.Go(func() error { battOut = c.battery(gctx); return nil })
	g.Go(func() error { loadOut = c.loadAvg(gctx); return nil })
	g.Go(func() error { branchOut = c.gitBranch(gctx); return nil })
	g.Go(func() error { statusOut = c.gitStatus(gctx); return nil })
	g.Go(func() error { tabOut = c.browserTab(gctx); return nil })
	g.Go(func() error { historyOut = c.shellTail(gctx); return nil })
	_ = g.Wait() // probes never return errors

	snap := Snapshot{
		ActiveApp:       appOut,
		BatteryPct:      parseBatteryPct(battOut),
		BatteryCharging: parseBatteryCharging(battOut),
		CPULoad:         parseLoadAvg(loadOut),
		GitBranch:       branchOut,
		GitDirty:        statusOut != "",
		RecentCommands:  parseHistoryTail(historyOut, recentCommandCount),
		Timestamp:       c.now(),
	}
	if tabOut != "" {
		snap.BrowserTabs = []string{tabOut}
	}
	return snap
}

// parseBatteryPct extracts the charge percentage from pmset output.
// Unknown output reads as a full battery so no battery rule misfires.
func parseBatteryPct(out string) int {
	m := batteryPctRe.FindStringSubmatch(out)
	if m == nil {
		return 100
	}
	pct, err := strconv.Atoi(m[1])
	if err != nil {
		return 100
	}
	return pct
}

// parseBatteryCharging reports whether pmset output indicates AC power.
// "discharging" must not read as charging.
func parseBatteryCharging(out string) bool {
	lower := strings.ToLower(out)
	if strings.Contains(lower, "discharging") {
		return false
	}
	return strings.Contains(lower, "charging") || strings.Contains(lower, "charged")
}

// parseLoadAvg extracts the first load figure from sysctl vm.loadavg output,
// e.g. "{ 1.78 2.05 2.21 }".
func parseLoadAvg(out string) float64 {
	m := loadAvgRe.FindString(out)
	if m == "" {
		return 0
	}
	load, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return load
}

// parseHistoryTail returns the last n non-empty commands from raw shell
// history content, stripping zsh extended-history prefixes.
func parseHistoryTail(raw string, n int) []string {
	if raw == "" {
		return nil
	}
	lines := strings.Split(raw, "\n")
	var commands []string
	for _, line := range lines {
		line = strings.TrimSpace(zshHistoryRe.ReplaceAllString(line, ""))
		if line != "" {
			commands = append(commands, line)
		}
	}
	if len(commands) > n {
		commands = commands[len(commands)-n:]
	}
	return commands
}

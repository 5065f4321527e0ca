package engine

import (
	"fmt"
	"regexp"
	"time"

	"github.com/andywolf/jarvis/internal/learner"
	"github.com/andywolf/jarvis/internal/persona"
)

// Rule thresholds.
const (
	batteryCriticalPct   = 20
	longCodingMinutes    = 180
	stuckDwellMinutes    = 30
	switchOverloadCount  = 5
	terminalErrorScanLen = 3
	terminalErrorMaxLen  = 200

	// stuckLookbackSlots is how many history slots back the stuck rule
	// compares against. At the default 5-minute poll interval this is
	// roughly 30 minutes; the offset is fixed in slots, not recomputed
	// from wall-clock time, so it drifts if the interval is reconfigured.
	stuckLookbackSlots = 5
)

// Default cooldowns per rule. Overridable through configuration.
var DefaultCooldowns = map[string]time.Duration{
	"battery_critical":        30 * time.Minute,
	"return_from_away":        30 * time.Minute,
	"long_coding_session":     time.Hour,
	"context_switch_overload": 30 * time.Minute,
	"terminal_error":          10 * time.Minute,
	"stuck_detection":         time.Hour,
	"preemptive_routine":      2 * time.Hour,
}

// fallbackCooldown applies to a rule with no configured cooldown.
const fallbackCooldown = 10 * time.Minute

var terminalErrorRe = regexp.MustCompile(`(?i)(error|fail|panic|traceback)`)

// RoutineSource answers preemptive-routine lookups. Implemented by the
// pattern learner; nil disables the preemptive rule.
type RoutineSource interface {
	CheckPreemptive(state persona.State, hour int) *learner.Routine
}

// RuleContext is the read-only view a rule predicate evaluates against.
type RuleContext struct {
	// Snapshot is the current cycle's snapshot (already in History).
	Snapshot Snapshot
	// History is the rolling snapshot window, newest last.
	History *history
	// State is the activity state after this cycle's classification.
	State persona.State
	// DwellMinutes is the time spent in State.
	DwellMinutes int
	// Transitions holds state-transition timestamps in the trailing window.
	Transitions []time.Time
	// Routines answers preemptive lookups; may be nil.
	Routines RoutineSource
	// Now is the cycle's evaluation time.
	Now time.Time
}

// Rule is one trigger: a predicate over the rule context paired with a
// message builder and a cooldown. Critical rules stay eligible during
// DEEP_WORK; everything else is gated off.
type Rule struct {
	Name     string
	Cooldown time.Duration
	Critical bool
	When     func(rc *RuleContext) bool
	Message  func(rc *RuleContext) string
}

// defaultRules returns the rule catalog in priority order: battery-critical
// first, behavioral rules after. cooldowns overrides the per-rule defaults.
func defaultRules(cooldowns map[string]time.Duration) []Rule {
	cd := func(name string) time.Duration {
		if d, ok := cooldowns[name]; ok && d > 0 {
			return d
		}
		if d, ok := DefaultCooldowns[name]; ok {
			return d
		}
		return fallbackCooldown
	}

	return []Rule{
		{
			Name:     "battery_critical",
			Cooldown: cd("battery_critical"),
			Critical: true,
			When: func(rc *RuleContext) bool {
				return rc.Snapshot.BatteryPct < batteryCriticalPct && !rc.Snapshot.BatteryCharging
			},
			Message: func(rc *RuleContext) string {
				return fmt.Sprintf("Battery is at %d%%. Plug in the charger or save your work.", rc.Snapshot.BatteryPct)
			},
		},
		{
			Name:     "return_from_away",
			Cooldown: cd("return_from_away"),
			When: func(rc *RuleContext) bool {
				prev, ok := rc.History.at(1)
				if !ok {
					return false
				}
				return isLockOrIdle(prev.ActiveApp) && !isLockOrIdle(rc.Snapshot.ActiveApp)
			},
			Message: func(rc *RuleContext) string {
				branch := rc.Snapshot.GitBranch
				if branch == "" {
					branch = "unknown"
				}
				msg := fmt.Sprintf("Welcome back. Last context: branch %s", branch)
				if rc.Snapshot.GitDirty {
					msg += " (uncommitted changes)"
				}
				return msg + "."
			},
		},
		{
			Name:     "long_coding_session",
			Cooldown: cd("long_coding_session"),
			When: func(rc *RuleContext) bool {
				coding := rc.State == persona.StateCoding || rc.State == persona.StateDeepWork
				return coding && rc.DwellMinutes >= longCodingMinutes
			},
			Message: func(rc *RuleContext) string {
				return fmt.Sprintf("You've been coding for %d minutes. Time for a short break? Stretch or grab some water.", rc.DwellMinutes)
			},
		},
		{
			Name:     "context_switch_overload",
			Cooldown: cd("context_switch_overload"),
			When: func(rc *RuleContext) bool {
				return len(rc.Transitions) >= switchOverloadCount
			},
			Message: func(rc *RuleContext) string {
				return fmt.Sprintf("%d context switches in the last 10 minutes. Frequent switching makes focus hard; try sticking to one task.", len(rc.Transitions))
			},
		},
		{
			Name:     "terminal_error",
			Cooldown: cd("terminal_error"),
			When: func(rc *RuleContext) bool {
				return failingCommand(rc.Snapshot.RecentCommands) != ""
			},
			Message: func(rc *RuleContext) string {
				cmd := failingCommand(rc.Snapshot.RecentCommands)
				if len(cmd) > terminalErrorMaxLen {
					cmd = cmd[:terminalErrorMaxLen]
				}
				return fmt.Sprintf("Spotted an error in your terminal: %s. Need a hand?", cmd)
			},
		},
		{
			Name:     "stuck_detection",
			Cooldown: cd("stuck_detection"),
			When: func(rc *RuleContext) bool {
				if rc.State != persona.StateCoding || rc.DwellMinutes < stuckDwellMinutes || !rc.Snapshot.GitDirty {
					return false
				}
				old, ok := rc.History.at(stuckLookbackSlots)
				if !ok {
					return false
				}
				return old.GitBranch == rc.Snapshot.GitBranch && old.GitDirty
			},
			Message: func(rc *RuleContext) string {
				return fmt.Sprintf("Over 30 minutes on branch %s without a commit. Stuck on something?", rc.Snapshot.GitBranch)
			},
		},
		{
			Name:     "preemptive_routine",
			Cooldown: cd("preemptive_routine"),
			When: func(rc *RuleContext) bool {
				if rc.Routines == nil {
					return false
				}
				return rc.Routines.CheckPreemptive(rc.State, rc.Now.Hour()) != nil
			},
			Message: func(rc *RuleContext) string {
				routine := rc.Routines.CheckPreemptive(rc.State, rc.Now.Hour())
				if routine == nil {
					return ""
				}
				return fmt.Sprintf("Around this time you usually do %q work. Anything to prep?", routine.RequestType)
			},
		},
	}
}

// failingCommand returns the first recent command containing an
// error-indicating substring, scanning the newest few commands.
func failingCommand(commands []string) string {
	start := len(commands) - terminalErrorScanLen
	if start < 0 {
		start = 0
	}
	for _, cmd := range commands[start:] {
		if terminalErrorRe.MatchString(cmd) {
			return cmd
		}
	}
	return ""
}

package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/andywolf/jarvis/internal/learner"
	"github.com/andywolf/jarvis/internal/persona"
)

// ruleByName fetches a rule from the default catalog.
func ruleByName(t *testing.T, name string) Rule {
	t.Helper()
	for _, r := range defaultRules(nil) {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no rule named %q", name)
	return Rule{}
}

// historyOf builds a history window from snapshots, oldest first.
func historyOf(capacity int, snaps ...Snapshot) *history {
	h := newHistory(capacity)
	for _, s := range snaps {
		h.push(s)
	}
	return h
}

type staticRoutines struct {
	routine *learner.Routine
}

func (s staticRoutines) CheckPreemptive(persona.State, int) *learner.Routine {
	return s.routine
}

func TestRuleOrder_BatteryCriticalFirst(t *testing.T) {
	rules := defaultRules(nil)
	if rules[0].Name != "battery_critical" {
		t.Errorf("first rule = %q, want battery_critical", rules[0].Name)
	}
	if !rules[0].Critical {
		t.Error("battery_critical must be flagged Critical for the deep-work gate")
	}
	for _, r := range rules[1:] {
		if r.Critical {
			t.Errorf("rule %q should not be Critical", r.Name)
		}
	}
}

func TestCooldownOverrides(t *testing.T) {
	rules := defaultRules(map[string]time.Duration{"terminal_error": time.Minute})
	for _, r := range rules {
		want, ok := DefaultCooldowns[r.Name]
		if !ok {
			t.Fatalf("rule %q has no default cooldown", r.Name)
		}
		if r.Name == "terminal_error" {
			want = time.Minute
		}
		if r.Cooldown != want {
			t.Errorf("rule %q cooldown = %s, want %s", r.Name, r.Cooldown, want)
		}
	}
}

func TestBatteryCritical(t *testing.T) {
	rule := ruleByName(t, "battery_critical")
	tests := []struct {
		pct      int
		charging bool
		want     bool
	}{
		{15, false, true},
		{19, false, true},
		{20, false, false},
		{15, true, false},
		{80, false, false},
	}
	for _, tt := range tests {
		rc := &RuleContext{Snapshot: Snapshot{BatteryPct: tt.pct, BatteryCharging: tt.charging}}
		if got := rule.When(rc); got != tt.want {
			t.Errorf("battery %d%% charging=%t: fired=%t, want %t", tt.pct, tt.charging, got, tt.want)
		}
	}

	rc := &RuleContext{Snapshot: Snapshot{BatteryPct: 15}}
	if msg := rule.Message(rc); !strings.Contains(msg, "15%") {
		t.Errorf("message should mention the charge level: %q", msg)
	}
}

func TestReturnFromAway_RisingEdge(t *testing.T) {
	rule := ruleByName(t, "return_from_away")

	cur := Snapshot{ActiveApp: "iTerm", GitBranch: "main", GitDirty: true}

	rc := &RuleContext{
		Snapshot: cur,
		History:  historyOf(12, Snapshot{ActiveApp: "loginwindow"}, cur),
	}
	if !rule.When(rc) {
		t.Error("lock -> app should fire")
	}
	if msg := rule.Message(rc); !strings.Contains(msg, "main") || !strings.Contains(msg, "uncommitted") {
		t.Errorf("message should mention branch and dirty state: %q", msg)
	}

	// Empty previous app also counts as away.
	rc.History = historyOf(12, Snapshot{}, cur)
	if !rule.When(rc) {
		t.Error("empty -> app should fire")
	}

	// No edge: previous snapshot was a normal app.
	rc.History = historyOf(12, Snapshot{ActiveApp: "Slack"}, cur)
	if rule.When(rc) {
		t.Error("app -> app should not fire")
	}

	// Still locked: no rising edge.
	locked := Snapshot{ActiveApp: "screensaver"}
	rc = &RuleContext{Snapshot: locked, History: historyOf(12, Snapshot{ActiveApp: "loginwindow"}, locked)}
	if rule.When(rc) {
		t.Error("lock -> lock should not fire")
	}

	// Single-snapshot history has no previous slot.
	rc = &RuleContext{Snapshot: cur, History: historyOf(12, cur)}
	if rule.When(rc) {
		t.Error("no history should not fire")
	}
}

func TestLongCodingSession(t *testing.T) {
	rule := ruleByName(t, "long_coding_session")
	tests := []struct {
		state persona.State
		dwell int
		want  bool
	}{
		{persona.StateCoding, 180, true},
		{persona.StateDeepWork, 240, true},
		{persona.StateCoding, 179, false},
		{persona.StateBrowsing, 500, false},
	}
	for _, tt := range tests {
		rc := &RuleContext{State: tt.state, DwellMinutes: tt.dwell}
		if got := rule.When(rc); got != tt.want {
			t.Errorf("state=%s dwell=%d: fired=%t, want %t", tt.state, tt.dwell, got, tt.want)
		}
	}
}

func TestContextSwitchOverload(t *testing.T) {
	rule := ruleByName(t, "context_switch_overload")
	now := time.Now()

	// 6 transitions within the trailing window fires.
	var six []time.Time
	for i := 0; i < 6; i++ {
		six = append(six, now.Add(-time.Duration(i)*90*time.Second))
	}
	if !rule.When(&RuleContext{Transitions: six, Now: now}) {
		t.Error("6 recent transitions should fire")
	}

	// Only 4 does not.
	if rule.When(&RuleContext{Transitions: six[:4], Now: now}) {
		t.Error("4 recent transitions should not fire")
	}
}

func TestTerminalError(t *testing.T) {
	rule := ruleByName(t, "terminal_error")

	rc := &RuleContext{Snapshot: Snapshot{RecentCommands: []string{
		"git pull", "make build", "make test FAILED: exit 2",
	}}}
	if !rule.When(rc) {
		t.Error("error substring in recent command should fire")
	}
	if msg := rule.Message(rc); !strings.Contains(msg, "make test FAILED") {
		t.Errorf("message should quote the failing command: %q", msg)
	}

	// Matching is case-insensitive and only the newest commands are scanned.
	rc = &RuleContext{Snapshot: Snapshot{RecentCommands: []string{
		"npm install # had an Error once", "ls", "pwd", "whoami",
	}}}
	if rule.When(rc) {
		t.Error("error outside the last 3 commands should not fire")
	}

	if rule.When(&RuleContext{Snapshot: Snapshot{}}) {
		t.Error("no commands should not fire")
	}

	// Long commands are truncated in the message.
	long := "go test ./... # error " + strings.Repeat("x", 400)
	rc = &RuleContext{Snapshot: Snapshot{RecentCommands: []string{long}}}
	msg := rule.Message(rc)
	if strings.Contains(msg, strings.Repeat("x", 300)) {
		t.Errorf("command should be truncated to %d chars", terminalErrorMaxLen)
	}
}

func TestStuckDetection(t *testing.T) {
	rule := ruleByName(t, "stuck_detection")

	dirty := func(branch string) Snapshot {
		return Snapshot{ActiveApp: "iTerm", GitBranch: branch, GitDirty: true}
	}
	cur := dirty("feature/x")

	// Six cycles of the same dirty branch: the slot 5 back matches.
	full := historyOf(12, dirty("feature/x"), dirty("feature/x"), dirty("feature/x"),
		dirty("feature/x"), dirty("feature/x"), cur)

	rc := &RuleContext{Snapshot: cur, History: full, State: persona.StateCoding, DwellMinutes: 35}
	if !rule.When(rc) {
		t.Error("same dirty branch across the lookback window should fire")
	}

	// Not enough history yet.
	rc.History = historyOf(12, dirty("feature/x"), cur)
	if rule.When(rc) {
		t.Error("short history should not fire")
	}

	// Branch changed in between: progress was made.
	rc.History = historyOf(12, dirty("main"), dirty("feature/x"), dirty("feature/x"),
		dirty("feature/x"), dirty("feature/x"), cur)
	if rule.When(rc) {
		t.Error("different branch at the lookback slot should not fire")
	}

	// Tree was clean back then: the dirt is recent.
	clean := Snapshot{ActiveApp: "iTerm", GitBranch: "feature/x"}
	rc.History = historyOf(12, clean, dirty("feature/x"), dirty("feature/x"),
		dirty("feature/x"), dirty("feature/x"), cur)
	if rule.When(rc) {
		t.Error("clean tree at the lookback slot should not fire")
	}

	// Gated on state and dwell.
	rc.History = full
	rc.State = persona.StateBrowsing
	if rule.When(rc) {
		t.Error("non-coding state should not fire")
	}
	rc.State = persona.StateCoding
	rc.DwellMinutes = 20
	if rule.When(rc) {
		t.Error("dwell below 30 should not fire")
	}
}

func TestPreemptiveRoutine(t *testing.T) {
	rule := ruleByName(t, "preemptive_routine")
	now := time.Now()

	rc := &RuleContext{
		State:    persona.StateCoding,
		Routines: staticRoutines{routine: &learner.Routine{Pattern: "mon 09", Confidence: 0.9, RequestType: "debug"}},
		Now:      now,
	}
	if !rule.When(rc) {
		t.Error("matching routine should fire")
	}
	if msg := rule.Message(rc); !strings.Contains(msg, "debug") {
		t.Errorf("message should mention the routine's request type: %q", msg)
	}

	rc.Routines = staticRoutines{}
	if rule.When(rc) {
		t.Error("no matching routine should not fire")
	}

	rc.Routines = nil
	if rule.When(rc) {
		t.Error("nil routine source should not fire")
	}
}

func TestFailingCommand_ScansNewestThree(t *testing.T) {
	cmds := []string{"error old", "ok1", "ok2", "ok3"}
	if got := failingCommand(cmds); got != "" {
		t.Errorf("failingCommand = %q, want no match outside scan window", got)
	}
	cmds = []string{"ok", "cargo build", "Error: linker failed", "ls"}
	if got := failingCommand(cmds); got != "Error: linker failed" {
		t.Errorf("failingCommand = %q", got)
	}
}

package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/andywolf/jarvis/internal/event"
	"github.com/andywolf/jarvis/internal/logging"
	"github.com/andywolf/jarvis/internal/persona"
)

// Engine defaults.
const (
	DefaultPollInterval = 5 * time.Minute
	DefaultHistorySize  = 12 // one hour at the default interval
	DefaultHourlyBudget = 10
	DefaultSwitchWindow = 10 * time.Minute
)

// Config holds the engine's tunables.
type Config struct {
	// PollInterval is the cycle cadence.
	PollInterval time.Duration
	// HistorySize is the rolling snapshot window capacity.
	HistorySize int
	// HourlyBudget caps total notifications across all rules per hour.
	HourlyBudget int
	// SwitchWindow is the trailing window for the context-switch rule.
	SwitchWindow time.Duration
	// WorkingDirectory is attached to outbound notifications.
	WorkingDirectory string
	// TargetChatIDs are the notification recipients.
	TargetChatIDs []int64
	// Cooldowns overrides per-rule cooldown defaults, keyed by rule name.
	Cooldowns map[string]time.Duration
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.HistorySize <= 0 {
		c.HistorySize = DefaultHistorySize
	}
	if c.HourlyBudget <= 0 {
		c.HourlyBudget = DefaultHourlyBudget
	}
	if c.SwitchWindow <= 0 {
		c.SwitchWindow = DefaultSwitchWindow
	}
}

// SnapshotSource produces system snapshots. Implemented by Collector.
type SnapshotSource interface {
	Collect(ctx context.Context) Snapshot
}

// Deps wires the engine's collaborators.
type Deps struct {
	// Collector produces the per-cycle snapshot.
	Collector SnapshotSource
	// Publisher receives fired notifications.
	Publisher event.Publisher
	// Routines answers preemptive lookups; may be nil.
	Routines RoutineSource
	// Logger is the local logger; may be nil.
	Logger *log.Logger
	// Structured is an optional structured JSONL mirror; may be nil.
	Structured *logging.Logger
}

// Engine runs the context-awareness poll loop. All engine state is mutated
// only from the single loop goroutine; the mutex exists for the read-only
// status accessors and idempotent lifecycle calls.
type Engine struct {
	cfg        Config
	collector  SnapshotSource
	publisher  event.Publisher
	routines   RoutineSource
	logger     *log.Logger
	structured *logging.Logger
	rules      []Rule

	mu      sync.Mutex
	running bool
	enabled bool
	cancel  context.CancelFunc
	done    chan struct{}

	state      persona.State
	stateSince time.Time

	// Loop-goroutine-only state.
	hist          *history
	lastFire      map[string]time.Time
	firesThisHour int
	hourResetAt   time.Time
	transitions   []time.Time
	cycle         int

	now func() time.Time
}

// New creates an Engine. It does not start polling; call Start.
func New(cfg Config, deps Deps) *Engine {
	cfg.applyDefaults()
	e := &Engine{
		cfg:        cfg,
		collector:  deps.Collector,
		publisher:  deps.Publisher,
		routines:   deps.Routines,
		logger:     deps.Logger,
		structured: deps.Structured,
		rules:      defaultRules(cfg.Cooldowns),
		enabled:    true,
		state:      persona.StateAway,
		hist:       newHistory(cfg.HistorySize),
		lastFire:   make(map[string]time.Time),
		now:        time.Now,
	}
	e.stateSince = e.now()
	e.hourResetAt = e.stateSince
	return e
}

// Start launches the poll loop. Starting a running engine is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	go e.loop(ctx, e.done)
	e.logInfo("context engine started (interval=%s)", e.cfg.PollInterval)
}

// Stop cancels the poll loop and waits for it to finish. Stopping a stopped
// engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	done := e.done
	e.mu.Unlock()

	cancel()
	<-done
	e.logInfo("context engine stopped")
}

// Running reports whether the poll loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Enabled reports whether ticks are being executed.
func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// SetEnabled flips the tick gate. A disabled engine keeps its loop alive but
// skips the tick body.
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	e.enabled = enabled
	e.mu.Unlock()
	if enabled {
		e.logInfo("context engine enabled")
	} else {
		e.logInfo("context engine disabled")
	}
}

// Toggle flips the tick gate and returns the new value.
func (e *Engine) Toggle() bool {
	e.mu.Lock()
	e.enabled = !e.enabled
	enabled := e.enabled
	e.mu.Unlock()
	if enabled {
		e.logInfo("context engine enabled")
	} else {
		e.logInfo("context engine disabled")
	}
	return enabled
}

// CurrentState returns the current activity state.
func (e *Engine) CurrentState() persona.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// DwellMinutes returns the minutes spent in the current state.
func (e *Engine) DwellMinutes() int {
	e.mu.Lock()
	since := e.stateSince
	e.mu.Unlock()
	return int(e.now().Sub(since).Minutes())
}

// loop runs ticks on the poll interval until ctx is cancelled. A failed tick
// backs off to twice the interval before retrying.
func (e *Engine) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(e.cfg.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		next := e.cfg.PollInterval
		if e.Enabled() {
			if err := e.safeTick(ctx); err != nil {
				e.logError("poll cycle failed: %v", err)
				next = 2 * e.cfg.PollInterval
			}
		}
		timer.Reset(next)
	}
}

// safeTick runs one tick, converting a panic into an error so a bad cycle
// never kills the loop.
func (e *Engine) safeTick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panicked: %v", r)
		}
	}()
	return e.tick(ctx)
}

// tick is one poll cycle: collect, classify, evaluate triggers.
func (e *Engine) tick(ctx context.Context) error {
	now := e.now()
	e.cycle++
	if e.structured != nil {
		e.structured.SetCycle(e.cycle)
	}

	if now.Sub(e.hourResetAt) >= time.Hour {
		e.firesThisHour = 0
		e.hourResetAt = now
	}

	snap := e.collector.Collect(ctx)
	e.hist.push(snap)

	prevState := e.CurrentState()
	dwell := e.DwellMinutes()

	newState := Classify(snap, prevState, dwell)
	if newState != prevState {
		e.transitions = append(e.transitions, now)
		e.mu.Lock()
		e.state = newState
		e.stateSince = now
		e.mu.Unlock()
		dwell = 0
		e.logInfo("state transition: %s -> %s (app=%q)", prevState, newState, snap.ActiveApp)
	}
	e.transitions = pruneTimes(e.transitions, now, e.cfg.SwitchWindow)

	rc := &RuleContext{
		Snapshot:     snap,
		History:      e.hist,
		State:        newState,
		DwellMinutes: dwell,
		Transitions:  e.transitions,
		Routines:     e.routines,
		Now:          now,
	}
	e.evaluateRules(ctx, rc, now)
	return nil
}

// evaluateRules walks the rule catalog in priority order, firing every rule
// whose predicate holds, whose cooldown has elapsed, and that fits in the
// hourly budget. Budget exhaustion defers the rest of the cycle's rules.
func (e *Engine) evaluateRules(ctx context.Context, rc *RuleContext, now time.Time) {
	deepWork := rc.State == persona.StateDeepWork

	for i := range e.rules {
		rule := &e.rules[i]

		if e.firesThisHour >= e.cfg.HourlyBudget {
			e.logWarning("hourly notification budget reached, deferring remaining rules")
			return
		}
		// Deep-work gate: only critical rules may fire, regardless of cooldowns.
		if deepWork && !rule.Critical {
			continue
		}
		if !e.safePredicate(rule, rc) {
			continue
		}
		if now.Sub(e.lastFire[rule.Name]) < rule.Cooldown {
			continue
		}

		msg := e.safeMessage(rule, rc)
		if msg == "" {
			continue
		}

		full := persona.Prefix(rc.State, now.Hour(), rc.DwellMinutes) + "\n\n" + msg
		n := event.New(full, e.cfg.WorkingDirectory, "jarvis-"+rule.Name, e.cfg.TargetChatIDs)

		e.lastFire[rule.Name] = now
		e.firesThisHour++

		if err := e.publisher.Publish(ctx, n); err != nil {
			e.logError("publish failed for trigger %s: %v", rule.Name, err)
			continue
		}
		e.logInfo("trigger fired: %s", rule.Name)
	}
}

// safePredicate evaluates a rule predicate, treating a panic as "did not
// fire" so one faulty rule never aborts the cycle.
func (e *Engine) safePredicate(rule *Rule, rc *RuleContext) (fired bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logError("rule %s predicate panicked: %v", rule.Name, r)
			fired = false
		}
	}()
	return rule.When(rc)
}

// safeMessage builds a rule message, treating a panic as an empty message.
func (e *Engine) safeMessage(rule *Rule, rc *RuleContext) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			e.logError("rule %s message builder panicked: %v", rule.Name, r)
			msg = ""
		}
	}()
	return rule.Message(rc)
}

// pruneTimes drops timestamps older than the trailing window.
func pruneTimes(times []time.Time, now time.Time, window time.Duration) []time.Time {
	kept := times[:0]
	for _, t := range times {
		if now.Sub(t) < window {
			kept = append(kept, t)
		}
	}
	return kept
}

// logInfo logs at INFO level to the local logger and the structured mirror.
func (e *Engine) logInfo(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if e.logger != nil {
		e.logger.Printf("%s", msg)
	}
	if e.structured != nil {
		e.structured.Info(msg)
	}
}

// logWarning logs at WARNING level to the local logger and the structured mirror.
func (e *Engine) logWarning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if e.logger != nil {
		e.logger.Printf("Warning: %s", msg)
	}
	if e.structured != nil {
		e.structured.Warning(msg)
	}
}

// logError logs at ERROR level to the local logger and the structured mirror.
func (e *Engine) logError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if e.logger != nil {
		e.logger.Printf("Error: %s", msg)
	}
	if e.structured != nil {
		e.structured.Error(msg)
	}
}

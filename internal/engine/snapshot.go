// Package engine implements the proactive context-awareness core: it polls
// observable system state on a fixed interval, classifies the user's activity,
// and evaluates cooldown- and budget-gated trigger rules that publish
// notifications through the event boundary.
package engine

import "time"

// Snapshot is an immutable point-in-time view of the user's system state,
// captured once per poll cycle.
type Snapshot struct {
	// ActiveApp is the frontmost application name ("" when unknown).
	ActiveApp string
	// BatteryPct is the battery charge percentage (100 when unknown).
	BatteryPct int
	// BatteryCharging reports whether the battery is charging or full.
	BatteryCharging bool
	// CPULoad is the 1-minute load average (0 when unknown).
	CPULoad float64
	// GitBranch is the current branch of the working directory.
	GitBranch string
	// GitDirty reports whether the working tree has uncommitted changes.
	GitDirty bool
	// RecentCommands holds the most recently observed shell commands.
	RecentCommands []string
	// BrowserTabs holds the currently visible browser tab titles.
	BrowserTabs []string
	// Timestamp is when the snapshot was captured.
	Timestamp time.Time
}

// history is a bounded rolling window of snapshots. Oldest entries are
// evicted once capacity is reached. It is mutated only by the poll loop.
type history struct {
	slots    []Snapshot
	capacity int
}

func newHistory(capacity int) *history {
	if capacity < 1 {
		capacity = 1
	}
	return &history{capacity: capacity}
}

// push appends a snapshot, evicting the oldest when full.
func (h *history) push(s Snapshot) {
	h.slots = append(h.slots, s)
	if len(h.slots) > h.capacity {
		h.slots = h.slots[1:]
	}
}

// len returns the number of retained snapshots.
func (h *history) len() int {
	return len(h.slots)
}

// at returns the snapshot `back` positions before the newest one.
// at(0) is the newest, at(1) the one before it.
func (h *history) at(back int) (Snapshot, bool) {
	idx := len(h.slots) - 1 - back
	if idx < 0 {
		return Snapshot{}, false
	}
	return h.slots[idx], true
}

package engine

import (
	"strings"

	"github.com/andywolf/jarvis/internal/persona"
)

// deepWorkPromotionMinutes is the CODING dwell after which the state is
// promoted to DEEP_WORK.
const deepWorkPromotionMinutes = 120

// appStates maps application-name fragments to activity states. Evaluated in
// order with case-insensitive substring matching; first match wins.
var appStates = []struct {
	fragment string
	state    persona.State
}{
	{"code", persona.StateCoding},
	{"terminal", persona.StateCoding},
	{"iterm", persona.StateCoding},
	{"warp", persona.StateCoding},
	{"xcode", persona.StateCoding},
	{"cursor", persona.StateCoding},
	{"goland", persona.StateCoding},
	{"chrome", persona.StateBrowsing},
	{"safari", persona.StateBrowsing},
	{"firefox", persona.StateBrowsing},
	{"arc", persona.StateBrowsing},
	{"zoom", persona.StateMeeting},
	{"meet", persona.StateMeeting},
	{"teams", persona.StateMeeting},
	{"facetime", persona.StateMeeting},
	{"slack", persona.StateCommunicating},
	{"discord", persona.StateCommunicating},
	{"messages", persona.StateCommunicating},
	{"telegram", persona.StateCommunicating},
	{"mail", persona.StateCommunicating},
}

// lockScreenApps are foreground identifiers meaning the machine is locked or
// idle.
var lockScreenApps = map[string]bool{
	"loginwindow": true,
	"screensaver": true,
}

// isLockOrIdle reports whether the app name indicates an absent user.
func isLockOrIdle(app string) bool {
	return app == "" || lockScreenApps[strings.ToLower(app)]
}

// Classify maps a snapshot to an activity state given the previous state and
// the minutes spent in it. Pure function of its inputs and the static table.
//
// CODING promotes to DEEP_WORK after deepWorkPromotionMinutes of dwell, and
// DEEP_WORK holds as long as a coding app stays frontmost; it demotes only
// through a fresh classification that no longer matches a coding app. An
// unrecognized foreground app keeps the previous state.
func Classify(snap Snapshot, prev persona.State, dwellMinutes int) persona.State {
	appLower := strings.ToLower(snap.ActiveApp)

	for _, entry := range appStates {
		if !strings.Contains(appLower, entry.fragment) {
			continue
		}
		if entry.state == persona.StateCoding {
			if prev == persona.StateDeepWork {
				return persona.StateDeepWork
			}
			if prev == persona.StateCoding && dwellMinutes >= deepWorkPromotionMinutes {
				return persona.StateDeepWork
			}
		}
		return entry.state
	}

	if isLockOrIdle(snap.ActiveApp) {
		return persona.StateAway
	}

	// Unknown app: hold the previous state. There is no neutral default.
	return prev
}

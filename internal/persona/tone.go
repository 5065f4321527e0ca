package persona

import "fmt"

// lateNightHour is the hour (24h clock) from which the wind-down directive
// overrides all state-based tone rules.
const lateNightHour = 22

// longCodingMinutes is the dwell threshold after which a break suggestion is
// appended to the CODING directive.
const longCodingMinutes = 180

const tag = "[Jarvis]"

// Prefix returns a short tone directive to prepend to any outbound prompt.
// It is a pure function of (state, hour, dwellMinutes) and is safe to call
// from any goroutine.
func Prefix(state State, hour int, dwellMinutes int) string {
	if hour >= lateNightHour {
		return tag + " The user is working late at night. Use a concerned tone and gently suggest wrapping up. Keep it brief."
	}

	switch state {
	case StateDeepWork:
		return tag + " The user is in deep work. Respond with the bare minimum. No filler."
	case StateCoding:
		prefix := tag + " The user is coding. Respond technically and concisely. Prefer file:line references."
		if dwellMinutes >= longCodingMinutes {
			prefix += fmt.Sprintf(" (%d minutes of coding so far; add one line suggesting a break.)", dwellMinutes)
		}
		return prefix
	case StateOnBreak:
		return tag + " The user just came back from a break. Respond warmly and concisely."
	case StateMeeting:
		return tag + " The user is in or just out of a meeting. Give short answers, essentials only."
	case StateBrowsing:
		return tag + " The user is browsing. Respond concisely."
	case StateCommunicating:
		return tag + " The user is in the middle of a conversation. Respond concisely."
	case StateAway:
		return tag + " The user is away. Respond with a summary they can pick up on return."
	}
	return tag
}

// Package persona provides the activity-state vocabulary shared across the
// engine and the context-aware tone layer that shapes outbound prompts.
package persona

// State is the classified user activity state. Exactly one state is current
// at any time; DEEP_WORK is reachable only by promotion from CODING.
type State string

const (
	StateCoding        State = "CODING"
	StateBrowsing      State = "BROWSING"
	StateMeeting       State = "MEETING"
	StateCommunicating State = "COMMUNICATING"
	StateOnBreak       State = "ON_BREAK"
	StateDeepWork      State = "DEEP_WORK"
	StateAway          State = "AWAY"
)

// String returns the state's wire value.
func (s State) String() string {
	return string(s)
}

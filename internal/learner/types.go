// Package learner owns the append-only interaction log and the statistics
// mined from it. Every real user/assistant exchange is recorded here; the
// engine's preemptive trigger and the coach reporter both read back out.
package learner

import "time"

// InteractionRecord is one logged user/assistant exchange. Records are
// append-only: the learner never mutates or deletes them.
type InteractionRecord struct {
	// Timestamp is when the interaction happened.
	Timestamp time.Time `json:"ts"`
	// DayOfWeek is the lowercase three-letter day ("mon".."sun").
	DayOfWeek string `json:"dow"`
	// Hour is the local hour of day (0-23).
	Hour int `json:"hour"`
	// UserID identifies the requesting user.
	UserID int64 `json:"user_id"`
	// State is the activity state at the time of the interaction.
	State string `json:"state"`
	// RequestType is the classified request category.
	RequestType string `json:"request_type"`
	// PromptLength is the request text length in runes.
	PromptLength int `json:"prompt_length"`
	// ResponseLength is the response text length in runes.
	ResponseLength int `json:"response_length"`
	// DurationMS is how long the exchange took.
	DurationMS int `json:"duration_ms"`
	// ToolsUsed lists the tool/capability names invoked.
	ToolsUsed []string `json:"tools_used"`
}

// PatternSummary aggregates interaction records over a time window.
type PatternSummary struct {
	// HourlyCounts maps hour of day to interaction count.
	HourlyCounts map[int]int
	// PeakHours lists the top hours by count, busiest first; ties broken by
	// the earlier hour.
	PeakHours []int
	// RequestTypes maps request category to count.
	RequestTypes map[string]int
	// AvgDurationMS is the mean exchange duration.
	AvgDurationMS int
	// Total is the number of records in the window.
	Total int
}

// Routine is an externally learned (pattern, confidence) association. The
// learner only reads routines; mining and updating them happens elsewhere.
type Routine struct {
	// Pattern is a textual descriptor, e.g. "mon 09 debug session".
	Pattern string `yaml:"pattern"`
	// Confidence is the routine's confidence score in [0, 1].
	Confidence float64 `yaml:"confidence"`
	// RequestType is the request category the routine predicts.
	RequestType string `yaml:"request_type"`
}

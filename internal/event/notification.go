// Package event provides the notification boundary between the Jarvis engine
// and whatever delivers its messages (chat transport, files, test doubles).
// The engine publishes and moves on; delivery is the subscriber's problem.
package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification is a single outbound message request produced by the engine.
type Notification struct {
	// ID uniquely identifies this notification.
	ID string `json:"id"`
	// Message is the full text to deliver, persona prefix included.
	Message string `json:"message"`
	// TargetChatIDs lists the recipient identifiers.
	TargetChatIDs []int64 `json:"target_chat_ids"`
	// WorkingDirectory is the directory context the message refers to.
	WorkingDirectory string `json:"working_directory,omitempty"`
	// Source tags the producer (e.g. "jarvis-battery_critical").
	Source string `json:"source"`
	// Timestamp is when the notification was created.
	Timestamp time.Time `json:"timestamp"`
}

// New creates a Notification with a fresh ID and the current timestamp.
func New(message, workingDir, source string, targets []int64) *Notification {
	return &Notification{
		ID:               uuid.New().String(),
		Message:          message,
		TargetChatIDs:    targets,
		WorkingDirectory: workingDir,
		Source:           source,
		Timestamp:        time.Now(),
	}
}

// MarshalJSONL marshals the notification to a JSON line (no trailing newline).
func (n *Notification) MarshalJSONL() ([]byte, error) {
	return json.Marshal(n)
}

// Publisher delivers notifications. Publish should return promptly; slow
// transports must bound their own work with the given context.
type Publisher interface {
	Publish(ctx context.Context, n *Notification) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, n *Notification) error

// Publish calls f(ctx, n).
func (f PublisherFunc) Publish(ctx context.Context, n *Notification) error {
	return f(ctx, n)
}

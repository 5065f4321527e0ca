package event

import (
	"context"
	"errors"
	"sync"
)

// Bus fans a notification out to every subscribed publisher. A failing
// subscriber does not stop delivery to the others; Publish returns the
// joined errors so the caller can log them.
type Bus struct {
	mu   sync.RWMutex
	subs []Publisher
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a publisher to receive every notification.
func (b *Bus) Subscribe(p Publisher) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, p)
}

// Publish delivers the notification to all subscribers in registration order.
func (b *Bus) Publish(ctx context.Context, n *Notification) error {
	b.mu.RLock()
	subs := make([]Publisher, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		if err := sub.Publish(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Package notify is the offline-delivery seam: recipients without a live
// connection get a push notification instead of a websocket payload.
package notify

import "context"

// Notification is the human-readable summary handed to the push provider.
// It never carries the raw event payload.
type Notification struct {
	UserID string            `json:"user_id"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Meta   map[string]string `json:"meta,omitempty"`
}

// Notifier dispatches a notification to a disconnected user. A false return
// means the notification was dropped; callers treat that as silent, with
// no retry and no error surfaced to the sender.
type Notifier interface {
	Notify(ctx context.Context, n Notification) bool
}

// Discard drops every notification. Useful in tests.
type Discard struct{}

func (Discard) Notify(context.Context, Notification) bool { return false }

// Truncate shortens a message body for a push summary.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}

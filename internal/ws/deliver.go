package ws

import (
	"context"
	"encoding/json"

	"github.com/danchikt/my-messenger/internal/metrics"
	"github.com/danchikt/my-messenger/internal/notify"
	"github.com/rs/zerolog/log"
)

// Delivery pushes a payload to every live member of a target set and hands
// everyone else to the offline dispatcher. Per-recipient failures are
// fire-and-forget: nothing retries, nothing blocks the rest of the set.
type Delivery struct {
	registry *Registry
	notifier notify.Notifier
}

func NewDelivery(registry *Registry, notifier notify.Notifier) *Delivery {
	return &Delivery{registry: registry, notifier: notifier}
}

// Summary derives the human-readable push text for one offline recipient.
// A nil summary skips offline dispatch entirely (low-stakes events).
type Summary func(userID string) notify.Notification

// Deliver sends payload to each live target exactly once and dispatches one
// notification per offline target. A recipient never gets both.
func (d *Delivery) Deliver(targets []string, payload M, summary Summary) {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("deliver marshal")
		return
	}
	live, offline := d.registry.LiveRecipients(targets)
	for _, c := range live {
		if c.Push(b) == nil {
			metrics.FanoutDeliveries.Inc()
		}
	}
	if summary == nil {
		return
	}
	for _, id := range offline {
		if d.notifier.Notify(context.Background(), summary(id)) {
			metrics.OfflineDispatches.Inc()
		}
	}
}

// DeliverOne is Deliver for a single recipient.
func (d *Delivery) DeliverOne(userID string, payload M, summary Summary) {
	d.Deliver([]string{userID}, payload, summary)
}

// Broadcast pushes payload to every live connection. Reactions, pins, edits
// and deletes still go out this way for compatibility with existing
// clients; narrowing the set to chat participants only needs to happen
// here.
func (d *Delivery) Broadcast(payload M) {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("broadcast marshal")
		return
	}
	for _, c := range d.registry.All() {
		if c.Push(b) == nil {
			metrics.FanoutDeliveries.Inc()
		}
	}
}

package ws

import (
	"context"
	"time"

	"github.com/danchikt/my-messenger/internal/metrics"
	"github.com/danchikt/my-messenger/internal/models"
	"github.com/rs/zerolog/log"
)

// Presence records online/offline transitions in the store. Status changes
// are not pushed to contacts; a contact observes them the next time their
// friends list is recomputed (pull-based presence).
type Presence struct {
	users UserStore
}

func NewPresence(users UserStore) *Presence {
	return &Presence{users: users}
}

func (p *Presence) CameOnline(userID string) {
	p.transition(userID, models.StatusOnline)
}

func (p *Presence) WentOffline(userID string) {
	p.transition(userID, models.StatusOffline)
}

func (p *Presence) transition(userID, status string) {
	u, err := p.users.Get(userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("presence lookup")
		return
	}
	// Invisible users keep their stored status untouched so nothing leaks
	// through last-seen either.
	if u.Invisible {
		return
	}
	if err := p.users.SetPresence(userID, status, time.Now()); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("status", status).Msg("presence update")
	}
}

// Sweeper periodically reaps expired self-destruct messages and expired
// stories. It is one background task, independent of any connection.
type Sweeper struct {
	messages MessageStore
	social   SocialStore
	interval time.Duration
}

func NewSweeper(messages MessageStore, social SocialStore, interval time.Duration) *Sweeper {
	return &Sweeper{messages: messages, social: social, interval: interval}
}

// Run blocks until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *Sweeper) sweep(now time.Time) {
	n, err := s.messages.DeleteExpired(now)
	if err != nil {
		log.Warn().Err(err).Msg("sweep messages")
	} else if n > 0 {
		metrics.SweptMessages.Add(float64(n))
		log.Info().Int64("count", n).Msg("swept self-destruct messages")
	}
	if _, err := s.social.DeleteExpiredStories(now); err != nil {
		log.Warn().Err(err).Msg("sweep stories")
	}
}

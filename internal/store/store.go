// Package store implements the durable side of the messenger over GORM.
// The websocket core consumes these types through interfaces it declares
// itself, so nothing here leaks into routing logic.
package store

import (
	"errors"

	"github.com/danchikt/my-messenger/internal/apperr"
	"gorm.io/gorm"
)

// Stores bundles one repository per entity family.
type Stores struct {
	Users    *UserStore
	Friends  *FriendStore
	Messages *MessageStore
	Channel  *ChannelStore
	Groups   *GroupStore
	Polls    *PollStore
	Social   *SocialStore
}

func New(db *gorm.DB) *Stores {
	return &Stores{
		Users:    &UserStore{db: db},
		Friends:  &FriendStore{db: db},
		Messages: &MessageStore{db: db},
		Channel:  &ChannelStore{db: db},
		Groups:   &GroupStore{db: db},
		Polls:    &PollStore{db: db},
		Social:   &SocialStore{db: db},
	}
}

// translate maps GORM failures onto the wire error taxonomy. Unique
// violations must stay distinguishable from generic I/O failures.
func translate(err error, notFoundMsg, conflictMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(notFoundMsg)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict(conflictMsg)
	default:
		return apperr.Internal("storage failure", err)
	}
}

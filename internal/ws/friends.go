package ws

import (
	"github.com/danchikt/my-messenger/internal/apperr"
	"github.com/danchikt/my-messenger/internal/notify"
)

// Friend mutations always end with both parties' friend-list views being
// recomputed and pushed, not just the mutation echoed: either side's own
// list may now include or exclude the other.

func (r *Router) handleAddFriend(c *Client, ev *Event) error {
	if ev.FriendID == "" {
		return apperr.Malformed("add_friend requires friendId")
	}
	if ev.FriendID == c.userID {
		return apperr.Conflict("you cannot add yourself")
	}
	if _, err := r.deps.Users.Get(ev.FriendID); err != nil {
		return err
	}
	blocked, err := r.deps.Friends.IsBlocked(c.userID, ev.FriendID)
	if err != nil {
		return err
	}
	if blocked {
		return apperr.Forbidden("that user has blocked you")
	}
	if err := r.deps.Friends.CreateRequest(c.userID, ev.FriendID); err != nil {
		return err
	}

	fromName := c.name
	r.delivery.DeliverOne(ev.FriendID, M{
		"type":     "friend_request",
		"from":     c.userID,
		"fromName": fromName,
	}, func(userID string) notify.Notification {
		return notify.Notification{
			UserID: userID,
			Title:  "Friend request",
			Body:   fromName + " wants to add you as a friend",
			Meta:   map[string]string{"kind": "friend_request", "from": c.userID},
		}
	})
	c.PushEvent(M{"type": "friend_request_sent", "to": ev.FriendID})
	return nil
}

func (r *Router) handleAcceptFriend(c *Client, ev *Event) error {
	if ev.RequesterID == "" {
		return apperr.Malformed("accept_friend requires requesterId")
	}
	if err := r.deps.Friends.Accept(ev.RequesterID, c.userID); err != nil {
		return err
	}

	byName := c.name
	r.delivery.DeliverOne(ev.RequesterID, M{
		"type":   "friend_request_accepted",
		"by":     c.userID,
		"byName": byName,
	}, func(userID string) notify.Notification {
		return notify.Notification{
			UserID: userID,
			Title:  "Friend request accepted",
			Body:   byName + " accepted your friend request",
			Meta:   map[string]string{"kind": "friend_accepted", "by": c.userID},
		}
	})
	c.PushEvent(M{"type": "notification", "message": "friend request accepted"})

	r.pushContacts(c.userID)
	r.pushContacts(ev.RequesterID)
	return nil
}

func (r *Router) handleDeclineFriend(c *Client, ev *Event) error {
	if ev.RequesterID == "" {
		return apperr.Malformed("decline_friend requires requesterId")
	}
	if err := r.deps.Friends.Delete(ev.RequesterID, c.userID); err != nil {
		return err
	}
	c.PushEvent(M{"type": "notification", "message": "friend request declined"})
	return nil
}

func (r *Router) handleDeleteFriend(c *Client, ev *Event) error {
	if ev.FriendID == "" {
		return apperr.Malformed("delete_friend requires friendId")
	}
	if err := r.deps.Friends.Delete(c.userID, ev.FriendID); err != nil {
		return err
	}
	r.delivery.DeliverOne(ev.FriendID, M{"type": "friend_removed", "by": c.userID}, nil)
	r.pushContacts(c.userID)
	r.pushContacts(ev.FriendID)
	return nil
}

// Blocking removes the friendship edge in the same transaction, so both
// lists change.
func (r *Router) handleBlockUser(c *Client, ev *Event) error {
	if ev.UserID == "" {
		return apperr.Malformed("block_user requires userId")
	}
	if ev.UserID == c.userID {
		return apperr.Conflict("you cannot block yourself")
	}
	if err := r.deps.Friends.Block(c.userID, ev.UserID); err != nil {
		return err
	}
	r.pushBlocked(c)
	r.pushContacts(c.userID)
	r.pushContacts(ev.UserID)
	return nil
}

func (r *Router) handleUnblockUser(c *Client, ev *Event) error {
	if ev.UserID == "" {
		return apperr.Malformed("unblock_user requires userId")
	}
	if err := r.deps.Friends.Unblock(c.userID, ev.UserID); err != nil {
		return err
	}
	r.pushBlocked(c)
	return nil
}

func (r *Router) handlePinContact(c *Client, ev *Event) error {
	if ev.ContactID == "" {
		return apperr.Malformed("pin_contact requires contactId")
	}
	var err error
	if ev.Type == EvPinContact {
		err = r.deps.Friends.PinContact(c.userID, ev.ContactID)
	} else {
		err = r.deps.Friends.UnpinContact(c.userID, ev.ContactID)
	}
	if err != nil {
		return err
	}
	pinned, err := r.deps.Friends.PinnedContacts(c.userID)
	if err != nil {
		return err
	}
	c.PushEvent(M{"type": "pinned_contacts", "contactIds": pinned})
	return nil
}

func (r *Router) pushBlocked(c *Client) {
	blocked, err := r.deps.Friends.Blocked(c.userID)
	if err != nil {
		return
	}
	out := make([]M, 0, len(blocked))
	for _, u := range blocked {
		out = append(out, userDTO(u))
	}
	c.PushEvent(M{"type": "blocked_users", "users": out})
}

package ws

import (
	"time"

	"github.com/danchikt/my-messenger/internal/apperr"
	"github.com/danchikt/my-messenger/internal/models"
	"github.com/danchikt/my-messenger/internal/notify"
	"github.com/google/uuid"
)

// Reactions and message pins are low-stakes events broadcast to every live
// connection; see Delivery.Broadcast for the compatibility note.

func (r *Router) handleReaction(c *Client, ev *Event) error {
	if ev.MessageID == 0 || ev.Emoji == "" {
		return apperr.Malformed("reaction requires messageId and emoji")
	}
	if err := r.deps.Social.SetReaction(ev.MessageID, c.userID, ev.Emoji); err != nil {
		return err
	}
	r.delivery.Broadcast(M{
		"type":      EvReaction,
		"messageId": ev.MessageID,
		"emoji":     ev.Emoji,
		"by":        c.userID,
	})
	return nil
}

func (r *Router) handlePinMessage(c *Client, ev *Event) error {
	if ev.MessageID == 0 || ev.ChatID == "" {
		return apperr.Malformed("pinning requires messageId and chatId")
	}
	if ev.Type == EvPinMessage {
		if err := r.deps.Social.PinMessage(ev.ChatID, ev.MessageID, c.userID); err != nil {
			return err
		}
		r.delivery.Broadcast(M{"type": "message_pinned", "chatId": ev.ChatID, "messageId": ev.MessageID, "by": c.userID})
		return nil
	}
	if err := r.deps.Social.UnpinMessage(ev.ChatID, ev.MessageID); err != nil {
		return err
	}
	r.delivery.Broadcast(M{"type": "message_unpinned", "chatId": ev.ChatID, "messageId": ev.MessageID, "by": c.userID})
	return nil
}

func (r *Router) handleUpdateProfile(c *Client, ev *Event) error {
	if ev.Name == "" && ev.Bio == "" && ev.Avatar == "" && ev.Invisible == nil {
		return apperr.Malformed("update_profile requires at least one field")
	}
	if err := r.deps.Users.UpdateProfile(c.userID, ev.Name, ev.Bio, ev.Avatar); err != nil {
		return err
	}
	if ev.Invisible != nil {
		if err := r.deps.Users.SetInvisible(c.userID, *ev.Invisible); err != nil {
			return err
		}
	}
	if ev.Name != "" {
		c.name = ev.Name
	}
	out := M{"type": "profile_updated", "name": ev.Name, "bio": ev.Bio, "avatar": ev.Avatar}
	if ev.Invisible != nil {
		out["invisible"] = *ev.Invisible
	}
	c.PushEvent(out)
	return nil
}

// Stories fan out to the author's contacts, live connections only; they
// expire on their own via the sweeper.
func (r *Router) handleCreateStory(c *Client, ev *Event) error {
	if ev.Content == "" && ev.FileData == "" {
		return apperr.Malformed("create_story requires content")
	}
	st := models.Story{
		AuthorID:  c.userID,
		Content:   ev.Content,
		FileName:  ev.FileName,
		FileData:  ev.FileData,
		ExpiresAt: time.Now().Add(r.storyTTL),
	}
	if err := r.deps.Social.CreateStory(&st); err != nil {
		return err
	}

	contacts, err := r.deps.Friends.ContactIDs(c.userID)
	if err != nil {
		return err
	}
	r.delivery.Deliver(contacts, M{
		"type":       "story_created",
		"storyId":    st.ID,
		"authorId":   c.userID,
		"authorName": c.name,
		"content":    st.Content,
		"expiresAt":  st.ExpiresAt,
	}, nil)
	c.PushEvent(M{"type": "story_posted", "storyId": st.ID, "expiresAt": st.ExpiresAt})
	return nil
}

func (r *Router) handleViewStory(c *Client, ev *Event) error {
	if ev.StoryID == 0 {
		return apperr.Malformed("view_story requires storyId")
	}
	st, err := r.deps.Social.GetStory(ev.StoryID)
	if err != nil {
		return err
	}
	views, err := r.deps.Social.ViewStory(ev.StoryID, c.userID)
	if err != nil {
		return err
	}
	if st.AuthorID != c.userID {
		r.delivery.DeliverOne(st.AuthorID, M{
			"type":    "story_viewed",
			"storyId": st.ID,
			"by":      c.userID,
			"views":   views,
		}, nil)
	}
	return nil
}

func (r *Router) handleCreateBot(c *Client, ev *Event) error {
	if ev.BotName == "" {
		return apperr.Malformed("create_bot requires botName")
	}
	b := models.Bot{OwnerID: c.userID, Name: ev.BotName, Token: uuid.NewString()}
	if err := r.deps.Social.CreateBot(&b); err != nil {
		return err
	}
	c.PushEvent(M{"type": "bot_created", "botId": b.ID, "botName": b.Name, "token": b.Token})
	return nil
}

// handleBotMessage lets a bot owner send on the bot's behalf. The message
// persists under the owner's identity so the usual edit/delete/read rules
// keep working.
func (r *Router) handleBotMessage(c *Client, ev *Event) error {
	if ev.BotID == 0 || ev.To == "" || ev.Text == "" {
		return apperr.Malformed("bot_message requires botId, to and text")
	}
	b, err := r.deps.Social.GetBot(ev.BotID)
	if err != nil {
		return err
	}
	if b.OwnerID != c.userID {
		return apperr.Forbidden("you do not own that bot")
	}
	if _, err := r.deps.Users.Get(ev.To); err != nil {
		return err
	}

	msg := models.Message{FromID: c.userID, ToID: ev.To, Text: ev.Text}
	if err := r.deps.Messages.Create(&msg); err != nil {
		return err
	}

	botName := b.Name
	payload := messageDTO(msg)
	payload["type"] = EvBotMessage
	payload["botId"] = b.ID
	payload["botName"] = botName
	r.delivery.DeliverOne(ev.To, payload, func(userID string) notify.Notification {
		return notify.Notification{
			UserID: userID,
			Title:  botName,
			Body:   notify.Truncate(msg.Text, 80),
			Meta:   map[string]string{"kind": "bot_message", "botId": itoa(b.ID)},
		}
	})
	c.PushEvent(M{"type": "message_sent", "messageId": msg.ID, "to": msg.ToID, "botId": b.ID})
	return nil
}

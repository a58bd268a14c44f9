package ws

import (
	"github.com/danchikt/my-messenger/internal/apperr"
	"github.com/danchikt/my-messenger/internal/models"
	"github.com/danchikt/my-messenger/internal/notify"
)

// handleDirectMessage covers both text and file messages. The persist
// happens first so the durable id rides in the delivered payload and the
// sender confirmation; recipient and sender can then agree on identity for
// edits, deletes, reactions, pins and read receipts.
func (r *Router) handleDirectMessage(c *Client, ev *Event) error {
	if ev.To == "" {
		return apperr.Malformed("message requires a recipient")
	}
	if ev.Type == EvFileMessage && ev.FileData == "" {
		return apperr.Malformed("file message requires file data")
	}
	if ev.Type == EvMessage && ev.Text == "" {
		return apperr.Malformed("message requires text")
	}

	if _, err := r.deps.Users.Get(ev.To); err != nil {
		return err
	}
	blocked, err := r.deps.Friends.IsBlocked(c.userID, ev.To)
	if err != nil {
		return err
	}
	if blocked {
		return apperr.Forbidden("recipient has blocked you")
	}

	msg := models.Message{
		FromID:        c.userID,
		ToID:          ev.To,
		Text:          ev.Text,
		FileName:      ev.FileName,
		FileData:      ev.FileData,
		ReplyToID:     ev.ReplyTo,
		ForwardedFrom: ev.ForwardFrom,
		SelfDestruct:  ev.SelfDestruct,
	}
	if err := r.deps.Messages.Create(&msg); err != nil {
		return err
	}

	payload := messageDTO(msg)
	payload["type"] = ev.Type
	payload["fromName"] = c.name

	senderName := c.name
	r.delivery.DeliverOne(ev.To, payload, func(userID string) notify.Notification {
		body := notify.Truncate(msg.Text, 80)
		if msg.FileName != "" {
			body = "sent a file"
		}
		return notify.Notification{
			UserID: userID,
			Title:  senderName,
			Body:   body,
			Meta:   map[string]string{"kind": "message", "from": msg.FromID},
		}
	})

	c.PushEvent(M{"type": "message_sent", "messageId": msg.ID, "to": msg.ToID, "timestamp": msg.CreatedAt})
	return nil
}

// Edits and deletes go out to every live connection; clients that do not
// show the message ignore them.
func (r *Router) handleEditMessage(c *Client, ev *Event) error {
	if ev.MessageID == 0 || ev.Text == "" {
		return apperr.Malformed("edit requires messageId and text")
	}
	if err := r.deps.Messages.Edit(ev.MessageID, c.userID, ev.Text); err != nil {
		return err
	}
	r.delivery.Broadcast(M{"type": "message_edited", "messageId": ev.MessageID, "text": ev.Text, "by": c.userID})
	return nil
}

func (r *Router) handleDeleteMessage(c *Client, ev *Event) error {
	if ev.MessageID == 0 {
		return apperr.Malformed("delete requires messageId")
	}
	if err := r.deps.Messages.Delete(ev.MessageID, c.userID); err != nil {
		return err
	}
	r.delivery.Broadcast(M{"type": "message_deleted", "messageId": ev.MessageID, "by": c.userID})
	return nil
}

// Typing goes only to the counterpart, is never persisted and never echoed
// back; the actor already knows they are typing.
func (r *Router) handleTyping(c *Client, ev *Event) error {
	if ev.To == "" {
		return apperr.Malformed("typing requires a recipient")
	}
	r.delivery.DeliverOne(ev.To, M{
		"type":     EvTyping,
		"from":     c.userID,
		"fromName": c.name,
		"isTyping": ev.IsTyping,
	}, nil)
	return nil
}

// handleMarkRead flips the read flag and tells exactly the sender.
func (r *Router) handleMarkRead(c *Client, ev *Event) error {
	if ev.MessageID == 0 {
		return apperr.Malformed("mark_read requires messageId")
	}
	msg, err := r.deps.Messages.Get(ev.MessageID)
	if err != nil {
		return err
	}
	if msg.ToID != c.userID {
		return apperr.Forbidden("only the recipient can mark a message read")
	}
	if err := r.deps.Messages.MarkRead(ev.MessageID, c.userID); err != nil {
		return err
	}
	r.delivery.DeliverOne(msg.FromID, M{"type": "read_receipt", "messageId": msg.ID, "by": c.userID}, nil)
	return nil
}

func (r *Router) handleSaveMessage(c *Client, ev *Event) error {
	if ev.MessageID == 0 {
		return apperr.Malformed("save_message requires messageId")
	}
	saved := true
	if ev.Saved != nil {
		saved = *ev.Saved
	}
	if err := r.deps.Messages.SetSaved(ev.MessageID, c.userID, saved); err != nil {
		return err
	}
	c.PushEvent(M{"type": "message_saved", "messageId": ev.MessageID, "saved": saved})
	return nil
}

// handleClearChat wipes the conversation for both sides and tells both.
func (r *Router) handleClearChat(c *Client, ev *Event) error {
	if ev.To == "" {
		return apperr.Malformed("clear_chat requires the peer id")
	}
	if err := r.deps.Messages.ClearChat(c.userID, ev.To); err != nil {
		return err
	}
	c.PushEvent(M{"type": "chat_cleared", "with": ev.To})
	r.delivery.DeliverOne(ev.To, M{"type": "chat_cleared", "with": c.userID}, nil)
	return nil
}

func (r *Router) handleSearchMessages(c *Client, ev *Event) error {
	if ev.Query == "" {
		return apperr.Malformed("search requires a query")
	}
	msgs, err := r.deps.Messages.Search(c.userID, ev.Query, 50)
	if err != nil {
		return err
	}
	out := make([]M, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageDTO(m))
	}
	c.PushEvent(M{"type": "search_results", "query": ev.Query, "messages": out})
	return nil
}

package ws

import (
	"github.com/danchikt/my-messenger/internal/apperr"
	"github.com/danchikt/my-messenger/internal/models"
	"github.com/danchikt/my-messenger/internal/notify"
)

// handleChannelMessage publishes to the broadcast channel. Only the
// designated owner identity may publish. The subscriber set is resolved at
// publish time; late joiners see past posts only via history replay on
// connect.
func (r *Router) handleChannelMessage(c *Client, ev *Event) error {
	if c.userID != r.channelOwner {
		return apperr.Forbidden("only the channel owner can publish")
	}
	if ev.Content == "" && ev.FileData == "" {
		return apperr.Malformed("channel message requires content")
	}

	post := models.ChannelPost{
		Content:    ev.Content,
		AuthorID:   c.userID,
		AuthorName: c.name,
		FileName:   ev.FileName,
		FileData:   ev.FileData,
	}
	if err := r.deps.Channel.CreatePost(&post); err != nil {
		return err
	}

	subscribers, err := r.deps.Channel.Subscribers()
	if err != nil {
		return err
	}

	payload := channelPostDTO(post)
	payload["type"] = EvChannelMessage
	authorName := c.name
	r.delivery.Deliver(subscribers, payload, func(userID string) notify.Notification {
		body := notify.Truncate(post.Content, 80)
		if post.FileName != "" {
			body = "sent a file"
		}
		return notify.Notification{
			UserID: userID,
			Title:  authorName,
			Body:   body,
			Meta:   map[string]string{"kind": "channel_post", "postId": itoa(post.ID)},
		}
	})
	return nil
}

// Comments fan out to the current subscriber set, live connections only.
func (r *Router) handleChannelComment(c *Client, ev *Event) error {
	if ev.PostID == 0 || ev.Text == "" {
		return apperr.Malformed("channel comment requires postId and text")
	}
	comment := models.ChannelComment{PostID: ev.PostID, AuthorID: c.userID, Text: ev.Text}
	if err := r.deps.Channel.AddComment(&comment); err != nil {
		return err
	}
	subscribers, err := r.deps.Channel.Subscribers()
	if err != nil {
		return err
	}
	r.delivery.Deliver(subscribers, M{
		"type":       EvChannelComment,
		"id":         comment.ID,
		"postId":     comment.PostID,
		"authorId":   comment.AuthorID,
		"authorName": c.name,
		"text":       comment.Text,
		"timestamp":  comment.CreatedAt,
	}, nil)
	return nil
}

func (r *Router) handleChannelView(c *Client, ev *Event) error {
	if ev.PostID == 0 {
		return apperr.Malformed("channel_view requires postId")
	}
	views, err := r.deps.Channel.IncrementViews(ev.PostID)
	if err != nil {
		return err
	}
	c.PushEvent(M{"type": "channel_views", "postId": ev.PostID, "views": views})
	return nil
}

func (r *Router) handleClearChannel(c *Client, ev *Event) error {
	if c.userID != r.channelOwner {
		return apperr.Forbidden("only the channel owner can clear the channel")
	}
	if err := r.deps.Channel.Clear(); err != nil {
		return err
	}
	r.delivery.Broadcast(M{"type": "channel_cleared"})
	return nil
}

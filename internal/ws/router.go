package ws

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/danchikt/my-messenger/internal/apperr"
	"github.com/danchikt/my-messenger/internal/auth"
	"github.com/danchikt/my-messenger/internal/config"
	"github.com/danchikt/my-messenger/internal/metrics"
	"github.com/danchikt/my-messenger/internal/models"
	"github.com/rs/zerolog/log"
)

// Router decodes inbound envelopes, validates connection state, runs the
// domain operation and computes the fan-out.
type Router struct {
	registry *Registry
	delivery *Delivery
	presence *Presence
	deps     Deps

	jwtSecret    string
	channelOwner string
	storyTTL     time.Duration
}

func NewRouter(registry *Registry, deps Deps, cfg config.Config) *Router {
	return &Router{
		registry:     registry,
		delivery:     NewDelivery(registry, deps.Notifier),
		presence:     NewPresence(deps.Users),
		deps:         deps,
		jwtSecret:    cfg.JWTSecret,
		channelOwner: cfg.ChannelOwner,
		storyTTL:     time.Duration(cfg.StoryTTLHours) * time.Hour,
	}
}

// Registry exposes the session registry for the HTTP layer.
func (r *Router) Registry() *Registry { return r.registry }

// Handle processes one inbound frame. It runs on the connection's readPump
// goroutine, so events from a single connection are handled strictly in
// arrival order.
func (r *Router) Handle(c *Client, raw []byte) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		// Malformed frames are logged and skipped; the connection stays up.
		log.Warn().Err(err).Str("user_id", c.userID).Msg("ws malformed envelope")
		return
	}
	if ev.Type == "" {
		log.Warn().Str("user_id", c.userID).Msg("ws envelope missing type")
		return
	}
	metrics.WsEventsTotal.WithLabelValues(ev.Type).Inc()

	if ev.Type == EvAuth {
		r.handleAuth(c, &ev)
		return
	}
	if !c.authenticated() {
		c.PushEvent(M{"type": "error", "code": apperr.CodeUnauthorized, "message": "authenticate first"})
		return
	}

	var err error
	switch ev.Type {
	case EvMessage, EvFileMessage:
		err = r.handleDirectMessage(c, &ev)
	case EvEditMessage:
		err = r.handleEditMessage(c, &ev)
	case EvDeleteMessage:
		err = r.handleDeleteMessage(c, &ev)
	case EvTyping:
		err = r.handleTyping(c, &ev)
	case EvMarkRead:
		err = r.handleMarkRead(c, &ev)
	case EvSaveMessage:
		err = r.handleSaveMessage(c, &ev)
	case EvClearChat:
		err = r.handleClearChat(c, &ev)
	case EvSearchMessages:
		err = r.handleSearchMessages(c, &ev)
	case EvAddFriend:
		err = r.handleAddFriend(c, &ev)
	case EvAcceptFriend:
		err = r.handleAcceptFriend(c, &ev)
	case EvDeclineFriend:
		err = r.handleDeclineFriend(c, &ev)
	case EvDeleteFriend:
		err = r.handleDeleteFriend(c, &ev)
	case EvBlockUser:
		err = r.handleBlockUser(c, &ev)
	case EvUnblockUser:
		err = r.handleUnblockUser(c, &ev)
	case EvPinContact, EvUnpinContact:
		err = r.handlePinContact(c, &ev)
	case EvChannelMessage:
		err = r.handleChannelMessage(c, &ev)
	case EvChannelComment:
		err = r.handleChannelComment(c, &ev)
	case EvChannelView:
		err = r.handleChannelView(c, &ev)
	case EvClearChannel:
		err = r.handleClearChannel(c, &ev)
	case EvCreateGroup:
		err = r.handleCreateGroup(c, &ev)
	case EvAddToGroup:
		err = r.handleAddToGroup(c, &ev)
	case EvKickFromGroup:
		err = r.handleKickFromGroup(c, &ev)
	case EvDeleteGroup:
		err = r.handleDeleteGroup(c, &ev)
	case EvLeaveGroup:
		err = r.handleLeaveGroup(c, &ev)
	case EvCreatePoll:
		err = r.handleCreatePoll(c, &ev)
	case EvVotePoll:
		err = r.handleVotePoll(c, &ev)
	case EvReaction:
		err = r.handleReaction(c, &ev)
	case EvPinMessage, EvUnpinMessage:
		err = r.handlePinMessage(c, &ev)
	case EvUpdateProfile:
		err = r.handleUpdateProfile(c, &ev)
	case EvCreateStory:
		err = r.handleCreateStory(c, &ev)
	case EvViewStory:
		err = r.handleViewStory(c, &ev)
	case EvCreateBot:
		err = r.handleCreateBot(c, &ev)
	case EvBotMessage:
		err = r.handleBotMessage(c, &ev)
	default:
		log.Warn().Str("type", ev.Type).Str("user_id", c.userID).Msg("ws unknown event type")
		return
	}
	if err != nil {
		r.reportError(c, &ev, err)
	}
}

// reportError sends a typed error event back to the originating connection.
// Errors never close the connection and never reach anyone else. Malformed
// stays log-only per the propagation policy.
func (r *Router) reportError(c *Client, ev *Event, err error) {
	code := apperr.CodeOf(err)
	if code == apperr.CodeMalformed {
		log.Warn().Err(err).Str("type", ev.Type).Str("user_id", c.userID).Msg("ws malformed event")
		return
	}
	if code == apperr.CodeInternal {
		log.Error().Err(err).Str("type", ev.Type).Str("user_id", c.userID).Msg("ws event failed")
	}
	c.PushEvent(M{"type": "error", "code": code, "message": apperr.MessageOf(err)})
}

// handleAuth verifies the bearer credential carried in the envelope. On
// failure the connection stays unauthenticated and usable for a retry.
func (r *Router) handleAuth(c *Client, ev *Event) {
	claims, err := auth.ParseAccessToken(ev.Token, r.jwtSecret)
	if err != nil {
		c.PushEvent(M{"type": "auth_error", "message": "invalid or expired token"})
		return
	}

	// Re-auth under a different identity releases the old registration.
	// Without this the old entry would outlive the socket: shutdown
	// compare-and-removes only the current identity.
	if c.authenticated() && c.userID != claims.UserID {
		if r.registry.Unregister(c.userID, c) {
			r.presence.WentOffline(c.userID)
		}
	}

	c.bindIdentity(claims.UserID, claims.Name)
	r.registry.Register(claims.UserID, c)
	r.presence.CameOnline(claims.UserID)

	c.PushEvent(M{"type": "auth_success", "userId": claims.UserID, "name": claims.Name})
	r.pushInitialState(c)
}

// pushInitialState replays channel history and sends the derived views a
// fresh client needs: contacts, blocked users, pinned contacts, groups.
// Everything is recomputed from the store; nothing is cached.
func (r *Router) pushInitialState(c *Client) {
	if posts, err := r.deps.Channel.History(50); err == nil {
		out := make([]M, 0, len(posts))
		for _, p := range posts {
			out = append(out, channelPostDTO(p))
		}
		c.PushEvent(M{"type": "channel_history", "posts": out})
	} else {
		log.Warn().Err(err).Str("user_id", c.userID).Msg("channel history replay")
	}

	r.pushContacts(c.userID)

	if blocked, err := r.deps.Friends.Blocked(c.userID); err == nil {
		out := make([]M, 0, len(blocked))
		for _, u := range blocked {
			out = append(out, userDTO(u))
		}
		c.PushEvent(M{"type": "blocked_users", "users": out})
	}

	if pinned, err := r.deps.Friends.PinnedContacts(c.userID); err == nil {
		c.PushEvent(M{"type": "pinned_contacts", "contactIds": pinned})
	}

	if groups, err := r.deps.Groups.GroupsOf(c.userID); err == nil {
		out := make([]M, 0, len(groups))
		for _, g := range groups {
			out = append(out, M{"id": g.ID, "name": g.Name, "creatorId": g.CreatorID})
		}
		c.PushEvent(M{"type": "groups", "groups": out})
	}
}

// pushContacts recomputes the friends list for userID and pushes it if the
// user is live. The list is a derived view over the relationship table, so
// it is rebuilt on every mutation rather than patched.
func (r *Router) pushContacts(userID string) {
	target, ok := r.registry.Resolve(userID)
	if !ok {
		return
	}
	contacts, err := r.deps.Friends.Contacts(userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("contacts recompute")
		return
	}
	out := make([]M, 0, len(contacts))
	for _, u := range contacts {
		out = append(out, userDTO(u))
	}
	target.PushEvent(M{"type": "contacts", "contacts": out})
}

func userDTO(u models.User) M {
	return M{
		"id":       u.ID,
		"name":     u.Name,
		"username": u.Username,
		"bio":      u.Bio,
		"avatar":   u.Avatar,
		"status":   u.Status,
		"lastSeen": u.LastSeen,
	}
}

func messageDTO(m models.Message) M {
	out := M{
		"id":        m.ID,
		"from":      m.FromID,
		"to":        m.ToID,
		"text":      m.Text,
		"edited":    m.Edited,
		"read":      m.Read,
		"timestamp": m.CreatedAt,
	}
	if m.FileName != "" {
		out["fileName"] = m.FileName
		out["fileData"] = m.FileData
	}
	if m.ReplyToID != nil {
		out["replyTo"] = *m.ReplyToID
	}
	if m.ForwardedFrom != "" {
		out["forwardFrom"] = m.ForwardedFrom
	}
	if m.SelfDestruct > 0 {
		out["selfDestruct"] = m.SelfDestruct
	}
	return out
}

func itoa(n uint) string { return strconv.FormatUint(uint64(n), 10) }

func channelPostDTO(p models.ChannelPost) M {
	out := M{
		"id":         p.ID,
		"content":    p.Content,
		"authorId":   p.AuthorID,
		"authorName": p.AuthorName,
		"views":      p.Views,
		"timestamp":  p.CreatedAt,
	}
	if p.FileName != "" {
		out["fileName"] = p.FileName
		out["fileData"] = p.FileData
	}
	return out
}

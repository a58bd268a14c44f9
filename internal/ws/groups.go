package ws

import (
	"encoding/json"

	"github.com/danchikt/my-messenger/internal/apperr"
	"github.com/danchikt/my-messenger/internal/models"
	"github.com/danchikt/my-messenger/internal/notify"
)

// Group roster mutations follow a deliberate asymmetry: the actor gets the
// recomputed member count, each individually affected member gets a
// discrete event rather than the full roster.

func (r *Router) handleCreateGroup(c *Client, ev *Event) error {
	if ev.GroupName == "" {
		return apperr.Malformed("create_group requires groupName")
	}
	g := models.Group{Name: ev.GroupName, CreatorID: c.userID}
	if err := r.deps.Groups.Create(&g); err != nil {
		return err
	}

	// Optional initial members ride in the options field as user ids.
	added := make([]string, 0, len(ev.Options))
	for _, uid := range ev.Options {
		if uid == c.userID {
			continue
		}
		if err := r.deps.Groups.AddMember(g.ID, uid); err != nil {
			continue // skip unknown or duplicate members, the rest still join
		}
		added = append(added, uid)
	}

	r.delivery.Deliver(added, M{
		"type":      "group_created",
		"groupId":   g.ID,
		"groupName": g.Name,
		"creatorId": c.userID,
	}, nil)

	count, err := r.deps.Groups.MemberCount(g.ID)
	if err != nil {
		return err
	}
	c.PushEvent(M{"type": "member_count", "groupId": g.ID, "count": count})
	return nil
}

func (r *Router) handleAddToGroup(c *Client, ev *Event) error {
	if ev.GroupID == 0 || ev.UserID == "" {
		return apperr.Malformed("add_to_group requires groupId and userId")
	}
	if _, err := r.deps.Groups.Role(ev.GroupID, c.userID); err != nil {
		return err
	}
	if _, err := r.deps.Users.Get(ev.UserID); err != nil {
		return err
	}
	if err := r.deps.Groups.AddMember(ev.GroupID, ev.UserID); err != nil {
		return err
	}
	g, err := r.deps.Groups.Get(ev.GroupID)
	if err != nil {
		return err
	}

	r.delivery.DeliverOne(ev.UserID, M{
		"type":      "added_to_group",
		"groupId":   g.ID,
		"groupName": g.Name,
		"by":        c.userID,
	}, nil)

	count, err := r.deps.Groups.MemberCount(ev.GroupID)
	if err != nil {
		return err
	}
	c.PushEvent(M{"type": "member_count", "groupId": ev.GroupID, "count": count})
	return nil
}

func (r *Router) handleKickFromGroup(c *Client, ev *Event) error {
	if ev.GroupID == 0 || ev.UserID == "" {
		return apperr.Malformed("kick_from_group requires groupId and userId")
	}
	role, err := r.deps.Groups.Role(ev.GroupID, c.userID)
	if err != nil {
		return err
	}
	if role != models.RoleCreator {
		return apperr.Forbidden("only the group creator can kick members")
	}
	if ev.UserID == c.userID {
		return apperr.Conflict("the creator cannot kick themselves")
	}
	if err := r.deps.Groups.RemoveMember(ev.GroupID, ev.UserID); err != nil {
		return err
	}

	r.delivery.DeliverOne(ev.UserID, M{"type": "member_kicked", "groupId": ev.GroupID, "by": c.userID}, nil)

	count, err := r.deps.Groups.MemberCount(ev.GroupID)
	if err != nil {
		return err
	}
	c.PushEvent(M{"type": "member_count", "groupId": ev.GroupID, "count": count})
	return nil
}

func (r *Router) handleDeleteGroup(c *Client, ev *Event) error {
	if ev.GroupID == 0 {
		return apperr.Malformed("delete_group requires groupId")
	}
	role, err := r.deps.Groups.Role(ev.GroupID, c.userID)
	if err != nil {
		return err
	}
	if role != models.RoleCreator {
		return apperr.Forbidden("only the group creator can delete the group")
	}
	members, err := r.deps.Groups.Members(ev.GroupID)
	if err != nil {
		return err
	}
	if err := r.deps.Groups.Delete(ev.GroupID); err != nil {
		return err
	}

	affected := make([]string, 0, len(members))
	for _, id := range members {
		if id != c.userID {
			affected = append(affected, id)
		}
	}
	r.delivery.Deliver(affected, M{"type": "group_deleted", "groupId": ev.GroupID, "by": c.userID}, nil)
	c.PushEvent(M{"type": "group_deleted", "groupId": ev.GroupID, "by": c.userID})
	return nil
}

func (r *Router) handleLeaveGroup(c *Client, ev *Event) error {
	if ev.GroupID == 0 {
		return apperr.Malformed("leave_group requires groupId")
	}
	if err := r.deps.Groups.RemoveMember(ev.GroupID, c.userID); err != nil {
		return err
	}
	count, err := r.deps.Groups.MemberCount(ev.GroupID)
	if err != nil {
		return err
	}
	c.PushEvent(M{"type": "group_left", "groupId": ev.GroupID, "count": count})
	return nil
}

// handleCreatePoll fans the new poll out to the group roster; offline
// members get a push notification.
func (r *Router) handleCreatePoll(c *Client, ev *Event) error {
	if ev.GroupID == 0 || ev.Question == "" || len(ev.Options) < 2 {
		return apperr.Malformed("create_poll requires groupId, question and at least two options")
	}
	if _, err := r.deps.Groups.Role(ev.GroupID, c.userID); err != nil {
		return err
	}

	opts, err := json.Marshal(ev.Options)
	if err != nil {
		return apperr.Malformed("poll options cannot be encoded")
	}
	p := models.Poll{GroupID: ev.GroupID, CreatorID: c.userID, Question: ev.Question, Options: string(opts)}
	if err := r.deps.Polls.Create(&p); err != nil {
		return err
	}

	members, err := r.deps.Groups.Members(ev.GroupID)
	if err != nil {
		return err
	}

	creatorName := c.name
	question := ev.Question
	r.delivery.Deliver(members, M{
		"type":     "poll_created",
		"pollId":   p.ID,
		"groupId":  p.GroupID,
		"question": p.Question,
		"options":  ev.Options,
		"by":       c.userID,
	}, func(userID string) notify.Notification {
		return notify.Notification{
			UserID: userID,
			Title:  creatorName,
			Body:   "created a poll: " + notify.Truncate(question, 60),
			Meta:   map[string]string{"kind": "poll", "pollId": itoa(p.ID)},
		}
	})
	return nil
}

// handleVotePoll persists with last-vote-wins and has no fan-out.
func (r *Router) handleVotePoll(c *Client, ev *Event) error {
	if ev.PollID == 0 || ev.Option == nil {
		return apperr.Malformed("vote_poll requires pollId and option")
	}
	p, err := r.deps.Polls.Get(ev.PollID)
	if err != nil {
		return err
	}
	if _, err := r.deps.Groups.Role(p.GroupID, c.userID); err != nil {
		return err
	}
	var opts []string
	if err := json.Unmarshal([]byte(p.Options), &opts); err != nil {
		return apperr.Internal("poll options are corrupt", err)
	}
	if *ev.Option < 0 || *ev.Option >= len(opts) {
		return apperr.Malformed("option index out of range")
	}
	if err := r.deps.Polls.Vote(ev.PollID, c.userID, *ev.Option); err != nil {
		return err
	}
	results, err := r.deps.Polls.Results(ev.PollID)
	if err != nil {
		return err
	}
	c.PushEvent(M{"type": "vote_recorded", "pollId": ev.PollID, "option": *ev.Option, "results": results})
	return nil
}

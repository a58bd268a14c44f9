package ws

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danchikt/my-messenger/internal/apperr"
	"github.com/danchikt/my-messenger/internal/config"
	"github.com/danchikt/my-messenger/internal/models"
	"github.com/danchikt/my-messenger/internal/notify"
)

// In-memory fakes for the store interfaces. They keep just enough state to
// observe what a handler persisted and what it fanned out.

type fakeUsers struct {
	mu       sync.Mutex
	users    map[string]*models.User
	presence map[string]string
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: make(map[string]*models.User), presence: make(map[string]string)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Get(id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperr.NotFound("user not found")
}

func (f *fakeUsers) SetPresence(id, status string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presence[id] = status
	if u, ok := f.users[id]; ok {
		u.Status = status
		u.LastSeen = &at
	}
	return nil
}

func (f *fakeUsers) SetInvisible(id string, invisible bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.Invisible = invisible
	return nil
}

func (f *fakeUsers) UpdateProfile(id, name, bio, avatar string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.Name, u.Bio, u.Avatar = name, bio, avatar
	return nil
}

type fakeFriends struct {
	mu     sync.Mutex
	edges  map[[2]string]string // directed [requester, target] -> status
	blocks map[[2]string]bool   // [blocker, blocked]
	pins   map[string][]string
	users  *fakeUsers
}

func newFakeFriends(users *fakeUsers) *fakeFriends {
	return &fakeFriends{
		edges:  make(map[[2]string]string),
		blocks: make(map[[2]string]bool),
		pins:   make(map[string][]string),
		users:  users,
	}
}

func (f *fakeFriends) CreateRequest(from, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.edges[[2]string{from, to}]; ok {
		return apperr.Conflict("friend request already exists")
	}
	if _, ok := f.edges[[2]string{to, from}]; ok {
		return apperr.Conflict("friend request already exists")
	}
	f.edges[[2]string{from, to}] = models.FriendPending
	return nil
}

func (f *fakeFriends) Accept(requester, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := [2]string{requester, target}
	if f.edges[k] != models.FriendPending {
		return apperr.NotFound("friend request not found")
	}
	f.edges[k] = models.FriendAccepted
	return nil
}

func (f *fakeFriends) Delete(a, b string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.edges, [2]string{a, b})
	delete(f.edges, [2]string{b, a})
	return nil
}

func (f *fakeFriends) ContactIDs(userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for k, status := range f.edges {
		if status != models.FriendAccepted {
			continue
		}
		if k[0] == userID {
			ids = append(ids, k[1])
		} else if k[1] == userID {
			ids = append(ids, k[0])
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeFriends) Contacts(userID string) ([]models.User, error) {
	ids, _ := f.ContactIDs(userID)
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, err := f.users.Get(id); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeFriends) Block(userID, target string) error {
	_ = f.Delete(userID, target)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks[[2]string{userID, target}] = true
	return nil
}

func (f *fakeFriends) Unblock(userID, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blocks, [2]string{userID, target})
	return nil
}

func (f *fakeFriends) Blocked(userID string) ([]models.User, error) {
	f.mu.Lock()
	blockedIDs := make([]string, 0)
	for k := range f.blocks {
		if k[0] == userID {
			blockedIDs = append(blockedIDs, k[1])
		}
	}
	f.mu.Unlock()
	sort.Strings(blockedIDs)
	out := make([]models.User, 0, len(blockedIDs))
	for _, id := range blockedIDs {
		if u, err := f.users.Get(id); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeFriends) IsBlocked(userID, by string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blocks[[2]string{by, userID}], nil
}

func (f *fakeFriends) PinContact(userID, contactID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.pins[userID] {
		if id == contactID {
			return apperr.Conflict("contact already pinned")
		}
	}
	f.pins[userID] = append(f.pins[userID], contactID)
	return nil
}

func (f *fakeFriends) UnpinContact(userID, contactID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.pins[userID][:0]
	for _, id := range f.pins[userID] {
		if id != contactID {
			kept = append(kept, id)
		}
	}
	f.pins[userID] = kept
	return nil
}

func (f *fakeFriends) PinnedContacts(userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pins[userID]...), nil
}

type fakeMessages struct {
	mu   sync.Mutex
	seq  uint
	byID map[uint]*models.Message
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{byID: make(map[uint]*models.Message)}
}

func (f *fakeMessages) Create(m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	m.ID = f.seq
	m.CreatedAt = time.Now()
	cp := *m
	f.byID[m.ID] = &cp
	return nil
}

func (f *fakeMessages) Get(id uint) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.byID[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, apperr.NotFound("message not found")
}

func (f *fakeMessages) Edit(id uint, from, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok || m.FromID != from {
		return apperr.NotFound("message not found")
	}
	m.Text = text
	m.Edited = true
	return nil
}

func (f *fakeMessages) Delete(id uint, from string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok || m.FromID != from {
		return apperr.NotFound("message not found")
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeMessages) MarkRead(id uint, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok || m.ToID != to {
		return apperr.NotFound("message not found")
	}
	m.Read = true
	return nil
}

func (f *fakeMessages) SetSaved(id uint, userID string, saved bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok || (m.FromID != userID && m.ToID != userID) {
		return apperr.NotFound("message not found")
	}
	m.Saved = saved
	return nil
}

func (f *fakeMessages) ClearChat(a, b string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, m := range f.byID {
		if (m.FromID == a && m.ToID == b) || (m.FromID == b && m.ToID == a) {
			delete(f.byID, id)
		}
	}
	return nil
}

func (f *fakeMessages) Search(userID, query string, limit int) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.byID {
		if m.FromID != userID && m.ToID != userID {
			continue
		}
		if strings.Contains(strings.ToLower(m.Text), strings.ToLower(query)) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessages) DeleteExpired(now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, m := range f.byID {
		if m.SelfDestruct > 0 && m.CreatedAt.Add(time.Duration(m.SelfDestruct)*time.Second).Before(now) {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

type fakeChannel struct {
	mu       sync.Mutex
	seq      uint
	posts    []models.ChannelPost
	comments []models.ChannelComment
	subs     []string
}

func newFakeChannel(subs ...string) *fakeChannel {
	return &fakeChannel{subs: subs}
}

func (f *fakeChannel) CreatePost(p *models.ChannelPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p.ID = f.seq
	p.CreatedAt = time.Now()
	f.posts = append(f.posts, *p)
	return nil
}

func (f *fakeChannel) Subscribers() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subs...), nil
}

func (f *fakeChannel) History(limit int) ([]models.ChannelPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	start := 0
	if len(f.posts) > limit {
		start = len(f.posts) - limit
	}
	return append([]models.ChannelPost(nil), f.posts[start:]...), nil
}

func (f *fakeChannel) IncrementViews(postID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == postID {
			f.posts[i].Views++
			return f.posts[i].Views, nil
		}
	}
	return 0, apperr.NotFound("channel post not found")
}

func (f *fakeChannel) AddComment(c *models.ChannelComment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := false
	for i := range f.posts {
		if f.posts[i].ID == c.PostID {
			found = true
			break
		}
	}
	if !found {
		return apperr.NotFound("channel post not found")
	}
	f.seq++
	c.ID = f.seq
	c.CreatedAt = time.Now()
	f.comments = append(f.comments, *c)
	return nil
}

func (f *fakeChannel) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = nil
	f.comments = nil
	return nil
}

type fakeGroups struct {
	mu      sync.Mutex
	seq     uint
	groups  map[uint]*models.Group
	members map[uint]map[string]string // groupID -> userID -> role
}

func newFakeGroups() *fakeGroups {
	return &fakeGroups{groups: make(map[uint]*models.Group), members: make(map[uint]map[string]string)}
}

func (f *fakeGroups) Create(g *models.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	g.ID = f.seq
	cp := *g
	f.groups[g.ID] = &cp
	f.members[g.ID] = map[string]string{g.CreatorID: models.RoleCreator}
	return nil
}

func (f *fakeGroups) Get(id uint) (*models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.groups[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, apperr.NotFound("group not found")
}

func (f *fakeGroups) AddMember(groupID uint, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[groupID]
	if !ok {
		return apperr.NotFound("group not found")
	}
	if _, ok := m[userID]; ok {
		return apperr.Conflict("already a member")
	}
	m[userID] = models.RoleMember
	return nil
}

func (f *fakeGroups) RemoveMember(groupID uint, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[groupID]
	if !ok {
		return apperr.NotFound("group not found")
	}
	if _, ok := m[userID]; !ok {
		return apperr.NotFound("not a member")
	}
	delete(m, userID)
	return nil
}

func (f *fakeGroups) Delete(groupID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.groups, groupID)
	delete(f.members, groupID)
	return nil
}

func (f *fakeGroups) Members(groupID uint) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.members[groupID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeGroups) MemberCount(groupID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.members[groupID])), nil
}

func (f *fakeGroups) Role(groupID uint, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if role, ok := f.members[groupID][userID]; ok {
		return role, nil
	}
	return "", apperr.NotFound("not a member")
}

func (f *fakeGroups) GroupsOf(userID string) ([]models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Group
	for gid, m := range f.members {
		if _, ok := m[userID]; ok {
			out = append(out, *f.groups[gid])
		}
	}
	return out, nil
}

type fakePolls struct {
	mu    sync.Mutex
	seq   uint
	polls map[uint]*models.Poll
	votes map[uint]map[string]int
}

func newFakePolls() *fakePolls {
	return &fakePolls{polls: make(map[uint]*models.Poll), votes: make(map[uint]map[string]int)}
}

func (f *fakePolls) Create(p *models.Poll) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p.ID = f.seq
	cp := *p
	f.polls[p.ID] = &cp
	f.votes[p.ID] = make(map[string]int)
	return nil
}

func (f *fakePolls) Get(id uint) (*models.Poll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.polls[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, apperr.NotFound("poll not found")
}

func (f *fakePolls) Vote(pollID uint, userID string, option int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.polls[pollID]; !ok {
		return apperr.NotFound("poll not found")
	}
	f.votes[pollID][userID] = option
	return nil
}

func (f *fakePolls) Results(pollID uint) (map[int]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int]int64)
	for _, opt := range f.votes[pollID] {
		out[opt]++
	}
	return out, nil
}

type fakeSocial struct {
	mu        sync.Mutex
	seq       uint
	reactions map[uint]map[string]string
	stories   map[uint]*models.Story
	views     map[uint]map[string]bool
	bots      map[uint]*models.Bot
}

func newFakeSocial() *fakeSocial {
	return &fakeSocial{
		reactions: make(map[uint]map[string]string),
		stories:   make(map[uint]*models.Story),
		views:     make(map[uint]map[string]bool),
		bots:      make(map[uint]*models.Bot),
	}
}

func (f *fakeSocial) SetReaction(messageID uint, userID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reactions[messageID] == nil {
		f.reactions[messageID] = make(map[string]string)
	}
	f.reactions[messageID][userID] = emoji
	return nil
}

func (f *fakeSocial) PinMessage(chatID string, messageID uint, pinnedBy string) error { return nil }
func (f *fakeSocial) UnpinMessage(chatID string, messageID uint) error                { return nil }

func (f *fakeSocial) CreateStory(st *models.Story) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	st.ID = f.seq
	st.CreatedAt = time.Now()
	cp := *st
	f.stories[st.ID] = &cp
	f.views[st.ID] = make(map[string]bool)
	return nil
}

func (f *fakeSocial) GetStory(id uint) (*models.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.stories[id]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, apperr.NotFound("story not found")
}

func (f *fakeSocial) ViewStory(storyID uint, viewerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.stories[storyID]
	if !ok {
		return 0, apperr.NotFound("story not found")
	}
	if !f.views[storyID][viewerID] {
		f.views[storyID][viewerID] = true
		st.Views++
	}
	return st.Views, nil
}

func (f *fakeSocial) DeleteExpiredStories(now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, st := range f.stories {
		if st.ExpiresAt.Before(now) {
			delete(f.stories, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSocial) CreateBot(b *models.Bot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	b.ID = f.seq
	cp := *b
	f.bots[b.ID] = &cp
	return nil
}

func (f *fakeSocial) GetBot(id uint) (*models.Bot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bots[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, apperr.NotFound("bot not found")
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (f *fakeNotifier) Notify(ctx context.Context, n notify.Notification) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return true
}

func (f *fakeNotifier) dispatched() []notify.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Notification(nil), f.sent...)
}

// fixture bundles the fakes behind one router so tests can both drive
// events and inspect what got persisted or dispatched.
type fixture struct {
	router   *Router
	registry *Registry
	users    *fakeUsers
	friends  *fakeFriends
	messages *fakeMessages
	channel  *fakeChannel
	groups   *fakeGroups
	polls    *fakePolls
	social   *fakeSocial
	notifier *fakeNotifier
}

func newFixture(users ...*models.User) *fixture {
	fu := newFakeUsers(users...)
	fx := &fixture{
		registry: NewRegistry(),
		users:    fu,
		friends:  newFakeFriends(fu),
		messages: newFakeMessages(),
		channel:  newFakeChannel(),
		groups:   newFakeGroups(),
		polls:    newFakePolls(),
		social:   newFakeSocial(),
		notifier: &fakeNotifier{},
	}
	fx.router = NewRouter(fx.registry, Deps{
		Users:    fx.users,
		Friends:  fx.friends,
		Messages: fx.messages,
		Channel:  fx.channel,
		Groups:   fx.groups,
		Polls:    fx.polls,
		Social:   fx.social,
		Notifier: fx.notifier,
	}, config.Config{
		JWTSecret:             "test-secret",
		ChannelOwner:          "admin",
		AccessTokenTTLMinutes: 15,
		StoryTTLHours:         24,
	})
	return fx
}

// connect registers a client for userID as if it had authenticated, without
// going through the token path.
func (fx *fixture) connect(userID, name string) *Client {
	c := &Client{send: make(chan []byte, 256), done: make(chan struct{}), router: fx.router}
	c.bindIdentity(userID, name)
	fx.registry.Register(userID, c)
	return c
}

// newConn returns a raw unauthenticated client attached to the router.
func (fx *fixture) newConn() *Client {
	return &Client{send: make(chan []byte, 256), done: make(chan struct{}), router: fx.router}
}

func (fx *fixture) handle(c *Client, payload M) {
	b, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	fx.router.Handle(c, b)
}

// drain empties a client's outbound buffer into decoded envelopes.
func drain(t *testing.T, c *Client) []M {
	t.Helper()
	var out []M
	for {
		select {
		case b := <-c.send:
			var m M
			if err := json.Unmarshal(b, &m); err != nil {
				t.Fatalf("undecodable outbound frame: %v", err)
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func eventsOfType(events []M, typ string) []M {
	var out []M
	for _, e := range events {
		if e["type"] == typ {
			out = append(out, e)
		}
	}
	return out
}

func firstOfType(t *testing.T, events []M, typ string) M {
	t.Helper()
	got := eventsOfType(events, typ)
	if len(got) == 0 {
		t.Fatalf("no %q event in %v", typ, types(events))
	}
	return got[0]
}

func types(events []M) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		if s, ok := e["type"].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

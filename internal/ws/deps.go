package ws

import (
	"time"

	"github.com/danchikt/my-messenger/internal/models"
	"github.com/danchikt/my-messenger/internal/notify"
)

// The core consumes persistence through interfaces it declares itself; the
// GORM-backed store satisfies them, and tests substitute fakes.

type UserStore interface {
	Get(id string) (*models.User, error)
	SetPresence(id, status string, at time.Time) error
	UpdateProfile(id, name, bio, avatar string) error
	SetInvisible(id string, invisible bool) error
}

type FriendStore interface {
	CreateRequest(from, to string) error
	Accept(requester, target string) error
	Delete(a, b string) error
	Contacts(userID string) ([]models.User, error)
	ContactIDs(userID string) ([]string, error)
	Block(userID, target string) error
	Unblock(userID, target string) error
	Blocked(userID string) ([]models.User, error)
	IsBlocked(userID, by string) (bool, error)
	PinContact(userID, contactID string) error
	UnpinContact(userID, contactID string) error
	PinnedContacts(userID string) ([]string, error)
}

type MessageStore interface {
	Create(m *models.Message) error
	Get(id uint) (*models.Message, error)
	Edit(id uint, from, text string) error
	Delete(id uint, from string) error
	MarkRead(id uint, to string) error
	SetSaved(id uint, userID string, saved bool) error
	ClearChat(a, b string) error
	Search(userID, query string, limit int) ([]models.Message, error)
	DeleteExpired(now time.Time) (int64, error)
}

type ChannelStore interface {
	CreatePost(p *models.ChannelPost) error
	Subscribers() ([]string, error)
	History(limit int) ([]models.ChannelPost, error)
	IncrementViews(postID uint) (int64, error)
	AddComment(c *models.ChannelComment) error
	Clear() error
}

type GroupStore interface {
	Create(g *models.Group) error
	Get(id uint) (*models.Group, error)
	AddMember(groupID uint, userID string) error
	RemoveMember(groupID uint, userID string) error
	Delete(groupID uint) error
	Members(groupID uint) ([]string, error)
	MemberCount(groupID uint) (int64, error)
	Role(groupID uint, userID string) (string, error)
	GroupsOf(userID string) ([]models.Group, error)
}

type PollStore interface {
	Create(p *models.Poll) error
	Get(id uint) (*models.Poll, error)
	Vote(pollID uint, userID string, option int) error
	Results(pollID uint) (map[int]int64, error)
}

type SocialStore interface {
	SetReaction(messageID uint, userID, emoji string) error
	PinMessage(chatID string, messageID uint, pinnedBy string) error
	UnpinMessage(chatID string, messageID uint) error
	CreateStory(st *models.Story) error
	GetStory(id uint) (*models.Story, error)
	ViewStory(storyID uint, viewerID string) (int64, error)
	DeleteExpiredStories(now time.Time) (int64, error)
	CreateBot(b *models.Bot) error
	GetBot(id uint) (*models.Bot, error)
}

// Deps wires the router to its collaborators.
type Deps struct {
	Users    UserStore
	Friends  FriendStore
	Messages MessageStore
	Channel  ChannelStore
	Groups   GroupStore
	Polls    PollStore
	Social   SocialStore
	Notifier notify.Notifier
}

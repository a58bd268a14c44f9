package models

import "time"

// Friendship status values.
const (
	FriendPending  = "pending"
	FriendAccepted = "accepted"
)

// Group member roles.
const (
	RoleCreator = "creator"
	RoleMember  = "member"
)

// Presence status values.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

type User struct {
	ID           string  `gorm:"primaryKey;size:36"`
	Name         string  `gorm:"size:128;not null"`
	Username     string  `gorm:"uniqueIndex;size:64;not null"`
	Email        *string `gorm:"uniqueIndex;size:128"`
	Phone        *string `gorm:"uniqueIndex;size:32"`
	PasswordHash string  `gorm:"not null"`
	Bio          string  `gorm:"size:512"`
	Avatar       string  `gorm:"type:text"`
	Status       string  `gorm:"size:16;default:offline"`
	LastSeen     *time.Time
	Invisible    bool `gorm:"default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"index;size:36;not null"`
	Token     string    `gorm:"uniqueIndex;size:128;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Friendship is a directed edge requester -> target. Only accepted edges are
// usable for routing, and accepted edges read as symmetric in contact lists.
type Friendship struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"uniqueIndex:idx_friend_pair;size:36;not null"`
	FriendID  string `gorm:"uniqueIndex:idx_friend_pair;size:36;not null"`
	Status    string `gorm:"size:16;default:pending"`
	CreatedAt time.Time
}

type BlockedUser struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"uniqueIndex:idx_block_pair;size:36;not null"`
	BlockedID string `gorm:"uniqueIndex:idx_block_pair;size:36;not null"`
	CreatedAt time.Time
}

type Message struct {
	ID            uint   `gorm:"primaryKey"`
	FromID        string `gorm:"index:idx_msg_from;size:36;not null"`
	ToID          string `gorm:"index:idx_msg_to;size:36;not null"`
	Text          string `gorm:"type:text"`
	FileName      string `gorm:"size:256"`
	FileData      string `gorm:"type:text"` // inline base64, never separate frames
	ReplyToID     *uint
	ForwardedFrom string `gorm:"size:36"`
	Edited        bool   `gorm:"default:false"`
	Read          bool   `gorm:"default:false"`
	Saved         bool   `gorm:"default:false"`
	SelfDestruct  int    `gorm:"default:0"` // lifetime in seconds, 0 = keep forever
	CreatedAt     time.Time
}

type ChannelPost struct {
	ID         uint   `gorm:"primaryKey"`
	Content    string `gorm:"type:text;not null"`
	AuthorID   string `gorm:"size:36"`
	AuthorName string `gorm:"size:128"`
	FileName   string `gorm:"size:256"`
	FileData   string `gorm:"type:text"`
	Views      int64  `gorm:"default:0"`
	CreatedAt  time.Time
}

type ChannelComment struct {
	ID        uint   `gorm:"primaryKey"`
	PostID    uint   `gorm:"index;not null"`
	AuthorID  string `gorm:"size:36;not null"`
	Text      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

type ChannelSubscriber struct {
	UserID       string `gorm:"primaryKey;size:36"`
	SubscribedAt time.Time
}

type Group struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:128;not null"`
	CreatorID string `gorm:"size:36;not null"`
	CreatedAt time.Time
}

type GroupMember struct {
	ID      uint   `gorm:"primaryKey"`
	GroupID uint   `gorm:"uniqueIndex:idx_group_member;not null"`
	UserID  string `gorm:"uniqueIndex:idx_group_member;size:36;not null"`
	Role    string `gorm:"size:16;default:member"`
	AddedAt time.Time
}

type Poll struct {
	ID        uint   `gorm:"primaryKey"`
	GroupID   uint   `gorm:"index;not null"`
	CreatorID string `gorm:"size:36;not null"`
	Question  string `gorm:"size:512;not null"`
	Options   string `gorm:"type:text;not null"` // JSON array of option labels
	CreatedAt time.Time
}

// PollVote keeps one row per (poll, user); a re-vote overwrites the option.
type PollVote struct {
	ID      uint   `gorm:"primaryKey"`
	PollID  uint   `gorm:"uniqueIndex:idx_poll_vote;not null"`
	UserID  string `gorm:"uniqueIndex:idx_poll_vote;size:36;not null"`
	Option  int    `gorm:"not null"`
	VotedAt time.Time
}

// Reaction keeps one row per (message, user); last write wins.
type Reaction struct {
	ID        uint   `gorm:"primaryKey"`
	MessageID uint   `gorm:"uniqueIndex:idx_reaction;not null"`
	UserID    string `gorm:"uniqueIndex:idx_reaction;size:36;not null"`
	Emoji     string `gorm:"size:16;not null"`
	CreatedAt time.Time
}

type PinnedMessage struct {
	ID        uint   `gorm:"primaryKey"`
	ChatID    string `gorm:"uniqueIndex:idx_pinned_msg;size:80;not null"`
	MessageID uint   `gorm:"uniqueIndex:idx_pinned_msg;not null"`
	PinnedBy  string `gorm:"size:36"`
	CreatedAt time.Time
}

type PinnedContact struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"uniqueIndex:idx_pinned_contact;size:36;not null"`
	ContactID string `gorm:"uniqueIndex:idx_pinned_contact;size:36;not null"`
	CreatedAt time.Time
}

type Story struct {
	ID        uint      `gorm:"primaryKey"`
	AuthorID  string    `gorm:"index;size:36;not null"`
	Content   string    `gorm:"type:text"`
	FileName  string    `gorm:"size:256"`
	FileData  string    `gorm:"type:text"`
	Views     int64     `gorm:"default:0"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

type StoryView struct {
	ID       uint   `gorm:"primaryKey"`
	StoryID  uint   `gorm:"uniqueIndex:idx_story_view;not null"`
	ViewerID string `gorm:"uniqueIndex:idx_story_view;size:36;not null"`
	ViewedAt time.Time
}

type Bot struct {
	ID        uint   `gorm:"primaryKey"`
	OwnerID   string `gorm:"index;size:36;not null"`
	Name      string `gorm:"size:128;not null"`
	Token     string `gorm:"uniqueIndex;size:64;not null"`
	CreatedAt time.Time
}

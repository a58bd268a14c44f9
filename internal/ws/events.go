package ws

// Inbound event type names. Each websocket frame is one self-describing
// JSON envelope discriminated by "type".
const (
	EvAuth           = "auth"
	EvMessage        = "message"
	EvFileMessage    = "file_message"
	EvChannelMessage = "channel_message"
	EvChannelComment = "channel_comment"
	EvChannelView    = "channel_view"
	EvAddFriend      = "add_friend"
	EvAcceptFriend   = "accept_friend"
	EvDeclineFriend  = "decline_friend"
	EvDeleteFriend   = "delete_friend"
	EvBlockUser      = "block_user"
	EvUnblockUser    = "unblock_user"
	EvPinContact     = "pin_contact"
	EvUnpinContact   = "unpin_contact"
	EvClearChat      = "clear_chat"
	EvClearChannel   = "clear_channel"
	EvUpdateProfile  = "update_profile"
	EvCreateGroup    = "create_group"
	EvAddToGroup     = "add_to_group"
	EvKickFromGroup  = "kick_from_group"
	EvDeleteGroup    = "delete_group"
	EvLeaveGroup     = "leave_group"
	EvCreatePoll     = "create_poll"
	EvVotePoll       = "vote_poll"
	EvReaction       = "reaction"
	EvPinMessage     = "pin_message"
	EvUnpinMessage   = "unpin_message"
	EvEditMessage    = "edit_message"
	EvDeleteMessage  = "delete_message"
	EvTyping         = "typing"
	EvSaveMessage    = "save_message"
	EvMarkRead       = "mark_read"
	EvCreateStory    = "create_story"
	EvViewStory      = "view_story"
	EvSearchMessages = "search_messages"
	EvCreateBot      = "create_bot"
	EvBotMessage     = "bot_message"
)

// Event is the decoded inbound envelope. The field set is the union over
// all event types; handlers validate what they need.
type Event struct {
	Type string `json:"type"`

	// auth
	Token string `json:"token,omitempty"`

	// direct and file messages
	To           string `json:"to,omitempty"`
	Text         string `json:"text,omitempty"`
	FileName     string `json:"fileName,omitempty"`
	FileData     string `json:"fileData,omitempty"`
	ReplyTo      *uint  `json:"replyTo,omitempty"`
	ForwardFrom  string `json:"forwardFrom,omitempty"`
	SelfDestruct int    `json:"selfDestruct,omitempty"`

	// friends and contacts
	FriendID    string `json:"friendId,omitempty"`
	RequesterID string `json:"requesterId,omitempty"`
	ContactID   string `json:"contactId,omitempty"`

	// channel
	Content string `json:"content,omitempty"`
	PostID  uint   `json:"postId,omitempty"`

	// messages referenced by id
	MessageID uint   `json:"messageId,omitempty"`
	ChatID    string `json:"chatId,omitempty"`
	Emoji     string `json:"emoji,omitempty"`
	Saved     *bool  `json:"saved,omitempty"`

	// groups and polls
	GroupID   uint     `json:"groupId,omitempty"`
	GroupName string   `json:"groupName,omitempty"`
	UserID    string   `json:"userId,omitempty"`
	Question  string   `json:"question,omitempty"`
	Options   []string `json:"options,omitempty"`
	PollID    uint     `json:"pollId,omitempty"`
	Option    *int     `json:"option,omitempty"`

	// profile
	Name      string `json:"name,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Invisible *bool  `json:"invisible,omitempty"`

	// typing
	IsTyping bool `json:"isTyping,omitempty"`

	// stories, search, bots
	StoryID uint   `json:"storyId,omitempty"`
	Query   string `json:"query,omitempty"`
	BotID   uint   `json:"botId,omitempty"`
	BotName string `json:"botName,omitempty"`
}

// M is a loose outbound envelope; every one carries a "type" key.
type M map[string]interface{}

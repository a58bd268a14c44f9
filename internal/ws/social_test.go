package ws

import (
	"testing"
	"time"

	"github.com/danchikt/my-messenger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactionBroadcastsToAllLive(t *testing.T) {
	fx := newFixture(user("alice", "Alice"), user("bob", "Bob"), user("carol", "Carol"))
	alice := fx.connect("alice", "Alice")
	bob := fx.connect("bob", "Bob")
	carol := fx.connect("carol", "Carol")

	fx.handle(alice, M{"type": EvMessage, "to": "bob", "text": "hi"})
	drain(t, alice)
	drain(t, bob)

	fx.handle(bob, M{"type": EvReaction, "messageId": 1, "emoji": "👍"})

	for _, c := range []*Client{alice, bob, carol} {
		got := firstOfType(t, drain(t, c), EvReaction)
		assert.Equal(t, "👍", got["emoji"])
		assert.Equal(t, "bob", got["by"])
	}
}

func TestPinMessageRoundTrip(t *testing.T) {
	fx := newFixture(user("alice", "Alice"), user("bob", "Bob"))
	alice := fx.connect("alice", "Alice")
	bob := fx.connect("bob", "Bob")

	fx.handle(alice, M{"type": EvPinMessage, "chatId": "alice:bob", "messageId": 7})
	firstOfType(t, drain(t, bob), "message_pinned")
	firstOfType(t, drain(t, alice), "message_pinned")

	fx.handle(alice, M{"type": EvUnpinMessage, "chatId": "alice:bob", "messageId": 7})
	firstOfType(t, drain(t, bob), "message_unpinned")
}

func TestUpdateProfileRenamesFanoutIdentity(t *testing.T) {
	fx := newFixture(user("alice", "Alice"), user("bob", "Bob"))
	alice := fx.connect("alice", "Alice")
	bob := fx.connect("bob", "Bob")

	fx.handle(alice, M{"type": EvUpdateProfile, "name": "Alicia", "bio": "hello"})
	updated := firstOfType(t, drain(t, alice), "profile_updated")
	assert.Equal(t, "Alicia", updated["name"])

	// Subsequent deliveries carry the new display name.
	fx.handle(alice, M{"type": EvMessage, "to": "bob", "text": "hi"})
	got := firstOfType(t, drain(t, bob), EvMessage)
	assert.Equal(t, "Alicia", got["fromName"])
}

func TestUpdateProfileTogglesInvisibility(t *testing.T) {
	fx := newFixture(user("alice", "Alice"))
	alice := fx.connect("alice", "Alice")

	fx.handle(alice, M{"type": EvUpdateProfile, "invisible": true})
	updated := firstOfType(t, drain(t, alice), "profile_updated")
	assert.Equal(t, true, updated["invisible"])

	u, err := fx.users.Get("alice")
	require.NoError(t, err)
	assert.True(t, u.Invisible)

	// The presence manager honors the flag from the next transition on.
	fx.router.presence.WentOffline("alice")
	assert.Empty(t, fx.users.presence)
}

func TestCreateStoryReachesLiveContactsOnly(t *testing.T) {
	fx := newFixture(user("alice", "Alice"), user("bob", "Bob"), user("carol", "Carol"))
	require.NoError(t, fx.friends.CreateRequest("alice", "bob"))
	require.NoError(t, fx.friends.Accept("alice", "bob"))
	require.NoError(t, fx.friends.CreateRequest("alice", "carol"))
	require.NoError(t, fx.friends.Accept("alice", "carol"))
	alice := fx.connect("alice", "Alice")
	bob := fx.connect("bob", "Bob")
	// carol stays offline

	fx.handle(alice, M{"type": EvCreateStory, "content": "sunset"})

	firstOfType(t, drain(t, alice), "story_posted")
	story := firstOfType(t, drain(t, bob), "story_created")
	assert.Equal(t, "sunset", story["content"])
	assert.Empty(t, fx.notifier.dispatched(), "stories never page offline contacts")
}

func TestViewStoryCountsUniquePerViewer(t *testing.T) {
	fx := newFixture(user("alice", "Alice"), user("bob", "Bob"))
	alice := fx.connect("alice", "Alice")
	bob := fx.connect("bob", "Bob")

	fx.handle(alice, M{"type": EvCreateStory, "content": "sunset"})
	drain(t, alice)

	fx.handle(bob, M{"type": EvViewStory, "storyId": 1})
	viewed := firstOfType(t, drain(t, alice), "story_viewed")
	assert.Equal(t, float64(1), viewed["views"])

	fx.handle(bob, M{"type": EvViewStory, "storyId": 1})
	viewed = firstOfType(t, drain(t, alice), "story_viewed")
	assert.Equal(t, float64(1), viewed["views"], "a repeat view by the same user does not count")
}

func TestBotMessageOwnerOnly(t *testing.T) {
	fx := newFixture(user("alice", "Alice"), user("bob", "Bob"), user("mallory", "Mallory"))
	require.NoError(t, fx.social.CreateBot(&models.Bot{OwnerID: "alice", Name: "newsbot", Token: "tok"}))
	mallory := fx.connect("mallory", "Mallory")

	fx.handle(mallory, M{"type": EvBotMessage, "botId": 1, "to": "bob", "text": "spam"})

	events := drain(t, mallory)
	require.Len(t, events, 1)
	assert.Equal(t, "FORBIDDEN", events[0]["code"])
	assert.Empty(t, fx.messages.byID)
}

func TestBotMessageDeliversUnderBotName(t *testing.T) {
	fx := newFixture(user("alice", "Alice"), user("bob", "Bob"))
	require.NoError(t, fx.social.CreateBot(&models.Bot{OwnerID: "alice", Name: "newsbot", Token: "tok"}))
	alice := fx.connect("alice", "Alice")
	bob := fx.connect("bob", "Bob")

	fx.handle(alice, M{"type": EvBotMessage, "botId": 1, "to": "bob", "text": "headline"})

	got := firstOfType(t, drain(t, bob), EvBotMessage)
	assert.Equal(t, "newsbot", got["botName"])
	assert.Equal(t, "alice", got["from"], "the message persists under the owner identity")
	firstOfType(t, drain(t, alice), "message_sent")
}

func TestCreateBotIssuesToken(t *testing.T) {
	fx := newFixture(user("alice", "Alice"))
	alice := fx.connect("alice", "Alice")

	fx.handle(alice, M{"type": EvCreateBot, "botName": "newsbot"})

	created := firstOfType(t, drain(t, alice), "bot_created")
	assert.Equal(t, "newsbot", created["botName"])
	assert.NotEmpty(t, created["token"])
}

func TestStoryExpiryUsesConfiguredTTL(t *testing.T) {
	fx := newFixture(user("alice", "Alice"))
	alice := fx.connect("alice", "Alice")

	before := time.Now()
	fx.handle(alice, M{"type": EvCreateStory, "content": "sunset"})
	drain(t, alice)

	st, err := fx.social.GetStory(1)
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(24*time.Hour), st.ExpiresAt, time.Minute)
}

package store

import (
	"testing"

	"support-relay/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testStore(t *testing.T) *Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	s := New(db)
	if err := s.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return s
}

func seedMessage(t *testing.T, s *Store, owner string, fromUser bool, content string) *model.Message {
	message := &model.Message{OwnerID: owner, Kind: "text", Content: content, FromUser: fromUser}
	if err := s.CreateMessage(message); err != nil {
		t.Fatalf("failed to seed message: %v", err)
	}
	return message
}

func TestIdentityUpsert(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)

	t.Run("Create", func(t *testing.T) {
		identity, err := s.UpsertIdentity("100001", "opX")
		assert.Nil(err)
		assert.Equal("opX", identity.OwnerTag)
		assert.False(identity.Blocked)
	})

	t.Run("RefreshTag", func(t *testing.T) {
		identity, err := s.UpsertIdentity("100001", "opY")
		assert.Nil(err)
		assert.Equal("opY", identity.OwnerTag)
	})

	t.Run("DoesNotUnblock", func(t *testing.T) {
		assert.Nil(s.SetBlocked("100001", true))
		identity, err := s.UpsertIdentity("100001", "opZ")
		assert.Nil(err)
		assert.True(identity.Blocked)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := s.GetIdentity("999999")
		assert.ErrorIs(err, ErrNotFound)
		assert.ErrorIs(s.SetMuted("999999", true), ErrNotFound)
	})
}

func TestMessages(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)
	s.UpsertIdentity("100001", "opX")

	first := seedMessage(t, s, "100001", true, "hello")
	seedMessage(t, s, "100001", false, "hi there")
	seedMessage(t, s, "100001", true, "thanks")

	t.Run("ListOrdered", func(t *testing.T) {
		messages, err := s.ListMessagesByOwner("100001")
		assert.Nil(err)
		assert.Len(messages, 3)
		assert.Equal("hello", messages[0].Content)
		assert.Equal("thanks", messages[2].Content)
	})

	t.Run("MarkRead", func(t *testing.T) {
		assert.Nil(s.MarkMessagesRead("100001", true))
		messages, _ := s.ListMessagesByOwner("100001")
		for _, message := range messages {
			if message.FromUser {
				assert.True(message.Read)
			} else {
				assert.False(message.Read)
			}
		}
	})

	t.Run("DeleteOne", func(t *testing.T) {
		assert.Nil(s.DeleteMessage(first.ID))
		assert.ErrorIs(s.DeleteMessage(first.ID), ErrNotFound)
		messages, _ := s.ListMessagesByOwner("100001")
		assert.Len(messages, 2)
	})

	t.Run("Summaries", func(t *testing.T) {
		summaries, err := s.ListIdentitySummaries()
		assert.Nil(err)
		assert.Len(summaries, 1)
		assert.Equal(int64(2), summaries[0].MessageCount)
	})
}

func TestConfig(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)

	_, err := s.GetConfig("notifications")
	assert.ErrorIs(err, ErrNotFound)

	assert.Nil(s.SetConfig("notifications", "on"))
	assert.Nil(s.SetConfig("notifications", "off"))

	value, err := s.GetConfig("notifications")
	assert.Nil(err)
	assert.Equal("off", value)
}

func TestSubscriptions(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)
	s.UpsertIdentity("100001", "opX")
	s.UpsertIdentity("100002", "opX")

	assert.Nil(s.UpsertSubscription(&model.Subscription{
		OwnerID:  "100001",
		Endpoint: "https://push.example/a",
		Keys:     `{"auth":"a","p256dh":"b"}`,
	}))

	t.Run("EndpointReassigned", func(t *testing.T) {
		assert.Nil(s.UpsertSubscription(&model.Subscription{
			OwnerID:  "100002",
			Endpoint: "https://push.example/a",
			Keys:     `{"auth":"c","p256dh":"d"}`,
		}))

		orphaned, _ := s.ListSubscriptionsByOwner("100001")
		assert.Empty(orphaned)
		moved, _ := s.ListSubscriptionsByOwner("100002")
		assert.Len(moved, 1)
		assert.Equal(`{"auth":"c","p256dh":"d"}`, moved[0].Keys)
	})

	t.Run("DeleteByOwner", func(t *testing.T) {
		assert.Nil(s.DeleteSubscriptionsByOwner("100002"))
		remaining, _ := s.ListSubscriptionsByOwner("100002")
		assert.Empty(remaining)
	})
}

func TestPurgeIdentity(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)
	s.UpsertIdentity("100001", "opX")
	seedMessage(t, s, "100001", true, "hello")
	s.UpsertSubscription(&model.Subscription{OwnerID: "100001", Endpoint: "e", Keys: "{}"})

	t.Run("RetainShell", func(t *testing.T) {
		assert.Nil(s.PurgeIdentity("100001", true))

		messages, _ := s.ListMessagesByOwner("100001")
		assert.Empty(messages)
		subs, _ := s.ListSubscriptionsByOwner("100001")
		assert.Empty(subs)

		identity, err := s.GetIdentity("100001")
		assert.Nil(err)
		assert.True(identity.Blocked)
	})

	t.Run("FullDelete", func(t *testing.T) {
		assert.Nil(s.PurgeIdentity("100001", false))
		_, err := s.GetIdentity("100001")
		assert.ErrorIs(err, ErrNotFound)
	})

	t.Run("MissingIdentity", func(t *testing.T) {
		assert.ErrorIs(s.PurgeIdentity("999999", false), ErrNotFound)
	})
}

func TestMergeIdentity(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)
	s.UpsertIdentity("100042", "opX")
	s.UpsertIdentity("100099", "opX")
	seedMessage(t, s, "100042", true, "one")
	seedMessage(t, s, "100042", true, "two")
	seedMessage(t, s, "100042", false, "three")
	seedMessage(t, s, "100099", true, "mine")
	s.UpsertSubscription(&model.Subscription{OwnerID: "100042", Endpoint: "e", Keys: "{}"})

	t.Run("Success", func(t *testing.T) {
		assert.Nil(s.MergeIdentity("100042", "100099"))

		merged, _ := s.ListMessagesByOwner("100099")
		assert.Len(merged, 4)
		orphaned, _ := s.ListMessagesByOwner("100042")
		assert.Empty(orphaned)

		subs, _ := s.ListSubscriptionsByOwner("100099")
		assert.Len(subs, 1)

		_, err := s.GetIdentity("100042")
		assert.ErrorIs(err, ErrNotFound)
	})

	t.Run("MissingSource", func(t *testing.T) {
		assert.ErrorIs(s.MergeIdentity("100042", "100099"), ErrNotFound)
	})

	t.Run("MissingTargetAutoCreated", func(t *testing.T) {
		s.UpsertIdentity("100010", "opY")
		seedMessage(t, s, "100010", true, "hello")

		assert.Nil(s.MergeIdentity("100010", "100011"))

		created, err := s.GetIdentity("100011")
		assert.Nil(err)
		assert.Equal("opY", created.OwnerTag)
		messages, _ := s.ListMessagesByOwner("100011")
		assert.Len(messages, 1)
	})
}

func TestWipeAll(t *testing.T) {
	assert := assert.New(t)
	s := testStore(t)
	s.UpsertIdentity("100001", "opX")
	s.UpsertIdentity("100002", "opY")
	seedMessage(t, s, "100001", true, "hello")
	s.UpsertSubscription(&model.Subscription{OwnerID: "100001", Endpoint: "e", Keys: "{}"})
	s.SetConfig("bot_channel", "-100500")

	assert.Nil(s.WipeAll())

	identities, _ := s.CountIdentities()
	assert.Zero(identities)
	messages, _ := s.CountMessages()
	assert.Zero(messages)
	subs, _ := s.ListSubscriptionsByOwner("100001")
	assert.Empty(subs)

	// Configuration survives a wipe
	value, err := s.GetConfig("bot_channel")
	assert.Nil(err)
	assert.Equal("-100500", value)
}

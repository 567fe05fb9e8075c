package relay

import (
	"testing"

	"support-relay/model"
	"support-relay/store"

	"github.com/stretchr/testify/assert"
)

func TestMuteBroadcastsState(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)
	id := f.join(t, "c1", "", "opX")

	assert.Nil(f.engine.Mute(id, true))

	payload, found := f.transport.last("operators", EventUserState)
	assert.True(found)
	state := payload.(StateEvent)
	assert.Equal(id, state.Identity)
	assert.True(state.Muted)

	// Mute does not affect presence
	assert.True(f.presence.Contains(id))

	assert.ErrorIs(f.engine.Mute("999999", true), store.ErrNotFound)
}

func TestBlockEvictsAndRejectsRejoin(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)

	// Two live connections for the same identity
	id := f.join(t, "c1", "424242", "opX")
	f.join(t, "c2", "424242", "opX")
	f.engine.UserSend("c1", id, "opX", "", "hello", "")
	f.engine.SubscribePush(id, "https://push.example/a", "{}")

	assert.Nil(f.engine.Block(id))

	// Both connections get the signal and are closed
	assert.Equal(1, f.transport.count("identity:"+id, EventForceLogout))
	assert.Contains(f.transport.evicted, id)
	assert.False(f.presence.Contains(id))
	assert.Equal(1, f.transport.count("operators", EventUserDeleted))

	// Data purged, shell record blocked
	messages, _ := f.store.ListMessagesByOwner(id)
	assert.Empty(messages)
	subs, _ := f.store.ListSubscriptionsByOwner(id)
	assert.Empty(subs)

	// A later join attempt is rejected before anything is persisted
	f.engine.Connect("c3")
	_, err := f.engine.Join("c3", id, "opX")
	assert.ErrorIs(err, ErrBlocked)
	assert.ErrorIs(f.engine.UserSend("c3", id, "opX", "", "let me in", ""), ErrBlocked)
	count, _ := f.store.CountMessages()
	assert.Zero(count)
}

func TestDeleteAllData(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)
	id := f.join(t, "c1", "", "opX")
	f.engine.UserSend("c1", id, "opX", "", "hello", "")
	f.engine.SubscribePush(id, "https://push.example/a", "{}")

	assert.Nil(f.engine.DeleteAllData(id))

	messages, _ := f.store.ListMessagesByOwner(id)
	assert.Empty(messages)
	subs, _ := f.store.ListSubscriptionsByOwner(id)
	assert.Empty(subs)
	_, err := f.store.GetIdentity(id)
	assert.ErrorIs(err, store.ErrNotFound)

	assert.False(f.presence.Contains(id))
	assert.Contains(f.transport.evicted, id)
	assert.Equal(1, f.transport.count("identity:"+id, EventForceLogout))

	// Deleting again reports not-found instead of crashing
	assert.ErrorIs(f.engine.DeleteAllData(id), store.ErrNotFound)
}

func TestMerge(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)
	f.store.UpsertIdentity("100042", "opX")
	f.store.UpsertIdentity("100099", "opX")
	for _, content := range []string{"one", "two", "three"} {
		f.store.CreateMessage(&model.Message{OwnerID: "100042", Kind: "text", Content: content, FromUser: true})
	}
	f.store.CreateMessage(&model.Message{OwnerID: "100099", Kind: "text", Content: "mine", FromUser: true})

	assert.Nil(f.engine.Merge("100042", "100099"))

	merged, _ := f.store.ListMessagesByOwner("100099")
	assert.Len(merged, 4)
	_, err := f.store.GetIdentity("100042")
	assert.ErrorIs(err, store.ErrNotFound)

	// Source removed from operators' view, target refreshed
	assert.Equal(1, f.transport.count("operators", EventUserDeleted))
	assert.Equal(1, f.transport.count("identity:100099", EventReadUpdate))
	assert.Contains(f.transport.evicted, "100042")

	assert.ErrorIs(f.engine.Merge("100042", "100099"), ErrSourceNotFound)
}

func TestWipeAll(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)

	conns := []string{"c1", "c2", "c3", "c4", "c5"}
	for _, conn := range conns {
		f.join(t, conn, "", "opX")
	}
	assert.Len(f.presence.Snapshot(), 5)

	assert.Nil(f.engine.WipeAll())

	assert.Empty(f.presence.Snapshot())
	assert.Equal(1, f.transport.evictAll)
	assert.Equal(1, f.transport.count("*", EventForceLogout))

	identities, _ := f.store.CountIdentities()
	assert.Zero(identities)
	messages, _ := f.store.CountMessages()
	assert.Zero(messages)
}

func TestStats(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)
	id := f.join(t, "c1", "", "opX")
	f.engine.UserSend("c1", id, "opX", "", "hello", "")

	stats, err := f.engine.Stats()
	assert.Nil(err)
	assert.Equal(int64(1), stats.Identities)
	assert.Equal(int64(2), stats.Messages) // welcome + send
}

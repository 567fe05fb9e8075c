package relay

import (
	"errors"

	"support-relay/store"
)

// Moderation operations. All are operator-initiated, arriving either
// from the console REST surface or from the bot command listener.

// Mute flips the notification-suppression flag. Presence and in-app
// delivery are unaffected.
func (e *Engine) Mute(identity string, muted bool) error {
	if err := e.store.SetMuted(identity, muted); err != nil {
		return err
	}
	record, err := e.store.GetIdentity(identity)
	if err != nil {
		return err
	}
	e.transport.ToOperators(EventUserState, StateEvent{
		Identity: identity,
		Muted:    record.Muted,
		Blocked:  record.Blocked,
	})
	return nil
}

// Block purges an identity's messages and subscriptions, keeps a
// blocked shell record so later joins can be rejected, and evicts every
// live connection.
func (e *Engine) Block(identity string) error {
	return e.removeIdentity(identity, true, ReasonBlocked)
}

// DeleteAllData purges an identity entirely, record included, and
// evicts every live connection. Not reversible.
func (e *Engine) DeleteAllData(identity string) error {
	return e.removeIdentity(identity, false, ReasonDeleted)
}

// Block and delete are one destructive path with a retain-shell switch.
func (e *Engine) removeIdentity(identity string, retainShell bool, reason string) error {
	if err := e.store.PurgeIdentity(identity, retainShell); err != nil {
		return err
	}

	// Presence goes first so the eviction-triggered disconnects do not
	// race an offline broadcast in ahead of the removal event.
	e.presence.Remove(identity)
	e.transport.ToIdentity(identity, EventForceLogout, LogoutEvent{Reason: reason})
	e.transport.Evict(identity)
	e.transport.ToOperators(EventUserDeleted, RemovedEvent{Identity: identity})
	return nil
}

// Merge reassigns every message and subscription from one identity to
// another, then deletes the source. A missing target is auto-created:
// operator-initiated sends already create placeholder identities, and
// merging into a fresh placeholder is the same gesture.
func (e *Engine) Merge(from string, to string) error {
	if err := e.store.MergeIdentity(from, to); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSourceNotFound
		}
		return err
	}

	e.presence.Remove(from)
	e.transport.ToIdentity(from, EventForceLogout, LogoutEvent{Reason: ReasonMerged})
	e.transport.Evict(from)
	e.transport.ToOperators(EventUserDeleted, RemovedEvent{Identity: from})
	e.transport.ToIdentity(to, EventReadUpdate, ReadEvent{Identity: to, FromUser: false})
	return nil
}

// WipeAll deletes every identity, message and subscription, then force
// disconnects everyone. The multi-step confirmation lives at the bot /
// console boundary; here it is one atomic-effect operation.
func (e *Engine) WipeAll() error {
	if err := e.store.WipeAll(); err != nil {
		return err
	}
	e.presence.Clear()
	e.transport.Broadcast(EventForceLogout, LogoutEvent{Reason: ReasonReset})
	e.transport.EvictAll()
	return nil
}

// Stats reports stored record counts for the bot's status command.
type Stats struct {
	Identities int64 `json:"identities"`
	Messages   int64 `json:"messages"`
}

func (e *Engine) Stats() (Stats, error) {
	identities, err := e.store.CountIdentities()
	if err != nil {
		return Stats{}, err
	}
	messages, err := e.store.CountMessages()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Identities: identities, Messages: messages}, nil
}

package relay

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"support-relay/model"
	"support-relay/store"
)

// inferKind guesses the message kind from the content shape when the
// client did not say.
func inferKind(kind string, content string) string {
	if kind == "text" || kind == "image" {
		return kind
	}
	if strings.HasPrefix(content, "data:image/") {
		return "image"
	}
	return "text"
}

// storeContent moves image payloads out of line; the message then
// carries the image id.
func (e *Engine) storeContent(kind string, content string) (string, error) {
	if kind != "image" {
		return content, nil
	}
	image := &model.Image{Data: content}
	if err := e.store.CreateImage(image); err != nil {
		return "", err
	}
	return strconv.FormatUint(uint64(image.ID), 10), nil
}

// UserSend relays a message from a user connection: persist, echo to
// the sender's channel, fan out to operators, then fire the two side
// channels (off-hours auto-reply, bot notification) under their
// suppression rules.
func (e *Engine) UserSend(connID string, identity string, ownerTag string, kind string, content string, token string) error {
	record, err := e.store.GetIdentity(identity)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotAuthorized
	}
	if err != nil {
		return err
	}
	if record.Blocked {
		return ErrBlocked
	}

	tag := record.OwnerTag
	if usableTag(ownerTag) {
		tag = strings.TrimSpace(ownerTag)
	}
	if record, err = e.store.UpsertIdentity(identity, tag); err != nil {
		return err
	}

	kind = inferKind(kind, content)
	stored, err := e.storeContent(kind, content)
	if err != nil {
		return err
	}

	message := &model.Message{
		OwnerID:  identity,
		Kind:     kind,
		Content:  stored,
		FromUser: true,
	}
	if err := e.store.CreateMessage(message); err != nil {
		return err
	}

	event := eventFor(message, token)
	e.transport.ToIdentity(identity, EventReceiveMessage, event)
	e.transport.ToOperators(EventAdminReceive, event)

	e.maybeAutoReply(connID, identity)
	e.maybeNotify(record, kind, content)
	return nil
}

// maybeNotify forwards the message to the external bot channel unless
// the identity is muted, notifications are switched off, or no channel
// is bound. Best-effort by contract.
func (e *Engine) maybeNotify(record *model.Identity, kind string, content string) {
	if record.Muted {
		return
	}
	if value, err := e.store.GetConfig("notifications"); err == nil && value == "off" {
		return
	}
	channel, err := e.store.GetConfig("bot_channel")
	if err != nil || channel == "" {
		return
	}
	e.notifier.MessageReceived(record, kind, content, channel)
}

// OperatorSend relays a console reply to a user. The target identity is
// created as a placeholder when missing: operators may open a
// conversation before the user has ever connected.
func (e *Engine) OperatorSend(identity string, kind string, content string, token string) error {
	record, err := e.store.GetIdentity(identity)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if record, err = e.store.UpsertIdentity(identity, ""); err != nil {
			return err
		}
	case err != nil:
		return err
	case record.Blocked:
		return ErrBlocked
	}

	kind = inferKind(kind, content)
	stored, err := e.storeContent(kind, content)
	if err != nil {
		return err
	}

	message := &model.Message{
		OwnerID:  identity,
		Kind:     kind,
		Content:  stored,
		FromUser: false,
	}
	if err := e.store.CreateMessage(message); err != nil {
		return err
	}

	event := eventFor(message, token)
	e.transport.ToIdentity(identity, EventReceiveMessage, event)
	e.transport.ToOperators(EventAdminReceive, event)

	e.pusher.Fanout(identity, kind, content)
	return nil
}

// Typing routes a transient typing indicator; nothing is persisted.
// Operators address a target identity, users address the operator pool.
func (e *Engine) Typing(connID string, target string) {
	e.mu.Lock()
	c := e.conns[connID]
	e.mu.Unlock()
	if c == nil {
		return
	}
	if c.operator {
		if target != "" {
			e.transport.ToIdentity(target, EventTyping, TypingEvent{Identity: target, FromUser: false})
		}
		return
	}
	if c.identity != "" {
		e.transport.ToOperators(EventTyping, TypingEvent{Identity: c.identity, FromUser: true})
	}
}

// MarkRead flags all messages of the opposite direction as read and
// tells the side that did not initiate the read.
func (e *Engine) MarkRead(connID string, target string) error {
	e.mu.Lock()
	c := e.conns[connID]
	e.mu.Unlock()
	if c == nil {
		return ErrNotAuthorized
	}

	if c.operator {
		if err := e.store.MarkMessagesRead(target, true); err != nil {
			return err
		}
		e.transport.ToIdentity(target, EventReadUpdate, ReadEvent{Identity: target, FromUser: false})
		return nil
	}

	if c.identity == "" {
		return ErrNotAuthorized
	}
	if err := e.store.MarkMessagesRead(c.identity, false); err != nil {
		return err
	}
	e.transport.ToOperators(EventReadUpdate, ReadEvent{Identity: c.identity, FromUser: true})
	return nil
}

// DeleteMessage removes one message and tells both sides.
func (e *Engine) DeleteMessage(identity string, messageID uint) error {
	if err := e.store.DeleteMessage(messageID); err != nil {
		return err
	}
	event := MessageDeletedEvent{Identity: identity, ID: messageID}
	e.transport.ToIdentity(identity, EventMessageDeleted, event)
	e.transport.ToOperators(EventMessageDeleted, event)
	return nil
}

// SubscribePush registers a push endpoint for an identity.
func (e *Engine) SubscribePush(identity string, endpoint string, keys string) error {
	record, err := e.store.GetIdentity(identity)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotAuthorized
	}
	if err != nil {
		return err
	}
	if record.Blocked {
		return ErrBlocked
	}
	if endpoint == "" {
		return errors.New("empty push endpoint")
	}
	if err := e.store.UpsertSubscription(&model.Subscription{
		OwnerID:  identity,
		Endpoint: endpoint,
		Keys:     keys,
	}); err != nil {
		log.Printf("register push endpoint for %s: %v", identity, err)
		return err
	}
	return nil
}

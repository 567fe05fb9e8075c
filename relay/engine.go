// Package relay implements the session/presence/relay core: it tracks
// connected identities, routes messages between per-identity private
// channels and the shared operator channel, enforces the per-identity
// moderation state, and drives off-hours auto-replies.
package relay

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"support-relay/model"
	"support-relay/presence"
	"support-relay/store"
)

var (
	// ErrNotAuthorized rejects joins and sends from identities the relay
	// does not know and can not create.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrBlocked rejects any activity from a blocked identity.
	ErrBlocked = errors.New("identity is blocked")
	// ErrSourceNotFound reports a merge whose source identity does not
	// exist.
	ErrSourceNotFound = errors.New("merge source not found")
)

// Transport is the realtime fan-out surface the engine emits into.
// Emission is fire-and-forget; delivering into an empty room is a no-op.
type Transport interface {
	ToIdentity(id string, event string, payload any)
	ToOperators(event string, payload any)
	Broadcast(event string, payload any)
	Evict(id string)
	EvictAll()
}

// Notifier bridges inbound user messages to the external bot channel.
// Implementations are best-effort and must never fail the chat path.
type Notifier interface {
	MessageReceived(identity *model.Identity, kind string, content string, channel string)
}

// Pusher fans a message summary out to an identity's push subscriptions.
type Pusher interface {
	Fanout(identity string, kind string, content string)
}

type Options struct {
	Store     *store.Store
	Presence  *presence.Registry
	Transport Transport
	Notifier  Notifier
	Pusher    Pusher
	Issuer    *Issuer

	// Now and ReplyDelay exist for tests; zero values mean time.Now and
	// the default auto-reply delay.
	Now        func() time.Time
	ReplyDelay time.Duration
}

const defaultReplyDelay = 2 * time.Second

type Engine struct {
	store     *store.Store
	presence  *presence.Registry
	transport Transport
	notifier  Notifier
	pusher    Pusher
	issuer    *Issuer

	now        func() time.Time
	replyDelay time.Duration

	mu    sync.Mutex
	conns map[string]*conn
}

// conn is the per-connection state: the bound identity, the operator
// flag and the auto-reply dedup marker. It lives exactly as long as the
// underlying socket.
type conn struct {
	identity    string
	operator    bool
	autoReplied bool
	autoTimer   *time.Timer
}

func New(options Options) *Engine {
	engine := &Engine{
		store:      options.Store,
		presence:   options.Presence,
		transport:  options.Transport,
		notifier:   options.Notifier,
		pusher:     options.Pusher,
		issuer:     options.Issuer,
		now:        options.Now,
		replyDelay: options.ReplyDelay,
		conns:      make(map[string]*conn),
	}
	if engine.issuer == nil {
		engine.issuer = NewIssuer(nil)
	}
	if engine.now == nil {
		engine.now = time.Now
	}
	if engine.replyDelay == 0 {
		engine.replyDelay = defaultReplyDelay
	}
	return engine
}

// Connect registers a connection. Called once per socket before any
// other engine call for that socket.
func (e *Engine) Connect(connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conns[connID] = &conn{}
}

// Disconnect is the connection finalizer: it cancels any pending
// auto-reply delivery, drops the identity from presence and tells the
// operator channel. It runs no matter how the transport closed.
func (e *Engine) Disconnect(connID string) {
	e.mu.Lock()
	c := e.conns[connID]
	delete(e.conns, connID)
	e.mu.Unlock()

	if c == nil {
		return
	}
	if c.autoTimer != nil {
		c.autoTimer.Stop()
	}
	if c.operator || c.identity == "" {
		return
	}
	if e.presence.Remove(c.identity) {
		e.transport.ToOperators(EventUserOffline, PresenceEvent{Identity: c.identity, Online: false})
	}
	if err := e.store.TouchIdentity(c.identity); err != nil {
		log.Printf("touch identity %s on disconnect: %v", c.identity, err)
	}
}

// JoinOperator puts a connection into the operator pool and returns the
// point-in-time presence snapshot for the console.
func (e *Engine) JoinOperator(connID string) SnapshotEvent {
	e.mu.Lock()
	if c := e.conns[connID]; c != nil {
		c.operator = true
	}
	e.mu.Unlock()
	return SnapshotEvent{Online: e.presence.Snapshot()}
}

// usableTag reports whether an owner tag can route an identity. The web
// widget sends literal "null"/"undefined" when it has nothing.
func usableTag(tag string) bool {
	switch strings.TrimSpace(tag) {
	case "", "null", "undefined":
		return false
	}
	return true
}

// Join admits a user connection. An empty identity asks the relay to
// issue one. The returned identity is the one the connection is bound
// to; on error the caller must signal the client and drop the socket.
func (e *Engine) Join(connID string, identity string, ownerTag string) (string, error) {
	if identity == "" {
		issued, err := e.IssueIdentity()
		if err != nil {
			return "", err
		}
		identity = issued
	}

	existing, err := e.store.GetIdentity(identity)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if !usableTag(ownerTag) {
			return "", ErrNotAuthorized
		}
		if _, err := e.store.UpsertIdentity(identity, strings.TrimSpace(ownerTag)); err != nil {
			return "", err
		}
		e.deliverWelcome(identity)
	case err != nil:
		return "", err
	case existing.Blocked:
		return "", ErrBlocked
	default:
		if usableTag(ownerTag) && strings.TrimSpace(ownerTag) != existing.OwnerTag {
			if _, err := e.store.UpsertIdentity(identity, strings.TrimSpace(ownerTag)); err != nil {
				return "", err
			}
		}
	}

	e.mu.Lock()
	if c := e.conns[connID]; c != nil {
		c.identity = identity
	}
	e.mu.Unlock()

	if e.presence.Add(identity) {
		tag := ownerTag
		if existing != nil {
			tag = existing.OwnerTag
		}
		e.transport.ToOperators(EventUserOnline, PresenceEvent{Identity: identity, OwnerTag: tag, Online: true})
	}
	return identity, nil
}

func (e *Engine) deliverWelcome(identity string) {
	text := e.configOr("welcome_message", "Hello! An operator will be with you shortly.")
	message := &model.Message{
		OwnerID:  identity,
		Kind:     "text",
		Content:  text,
		FromUser: false,
	}
	if err := e.store.CreateMessage(message); err != nil {
		log.Printf("persist welcome message for %s: %v", identity, err)
		return
	}
	e.transport.ToIdentity(identity, EventReceiveMessage, eventFor(message, ""))
}

// configOr reads a configuration key, falling back on any error; a
// missing config row is not worth failing a chat action over.
func (e *Engine) configOr(key string, fallback string) string {
	value, err := e.store.GetConfig(key)
	if err != nil || value == "" {
		return fallback
	}
	return value
}

func eventFor(message *model.Message, token string) MessageEvent {
	return MessageEvent{
		ID:       message.ID,
		Identity: message.OwnerID,
		Kind:     message.Kind,
		Content:  message.Content,
		FromUser: message.FromUser,
		Read:     message.Read,
		Token:    token,
		Created:  message.CreatedAt,
	}
}

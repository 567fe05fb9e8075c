// Package schema defines the envelopes exchanged with the bot bridge
// worker over RabbitMQ. One struct per event kind; the bridge owns the
// chat-command syntax, the relay only sees the decoded effects.
package schema

import (
	"time"

	"github.com/google/uuid"
)

type Meta struct {
	ID     string    `json:"id"`
	Source string    `json:"source"`
	Time   time.Time `json:"time"`
}

func NewMeta(source string) Meta {
	return Meta{
		ID:     uuid.NewString(),
		Source: source,
		Time:   time.Now(),
	}
}

// Notification goes relay -> bot: a new-user-message summary for the
// bound group chat, with a moderation shortcut the bridge renders as an
// inline action.
type Notification struct {
	Meta     Meta   `json:"meta"`
	Channel  string `json:"channel"`
	Identity string `json:"identity"`
	OwnerTag string `json:"owner_tag"`
	Kind     string `json:"kind"`
	Preview  string `json:"preview"`
	Action   string `json:"action"` // e.g. "delete"
}

// Command goes bot -> relay. Actions: mute, unmute, block, delete,
// merge, wipe, stats. Target is the merge destination.
type Command struct {
	Meta     Meta   `json:"meta"`
	Identity string `json:"identity,omitempty"`
	Target   string `json:"target,omitempty"`
}

// Reply goes relay -> bot: the in-channel outcome of a command.
type Reply struct {
	Meta Meta   `json:"meta"`
	Ok   bool   `json:"ok"`
	Text string `json:"text"`
}

// StatsReply carries the record counts for the status command.
type StatsReply struct {
	Meta       Meta  `json:"meta"`
	Identities int64 `json:"identities"`
	Messages   int64 `json:"messages"`
}

package relay

import "time"

// Wire event names. User-facing and operator-facing names follow the
// web widget / console protocol.
const (
	EventJoined         = "joined"
	EventReceiveMessage = "receive_message"
	EventAdminReceive   = "admin_receive_message"
	EventUserOnline     = "new_user_online"
	EventUserOffline    = "user_offline"
	EventUserState      = "user_state"
	EventUserDeleted    = "admin_user_deleted"
	EventForceLogout    = "force_logout"
	EventTyping         = "typing"
	EventReadUpdate     = "read_update"
	EventMessageDeleted = "message_deleted"
	EventInit           = "init"
	EventError          = "server_error"
)

// Logout reasons carried by EventForceLogout.
const (
	ReasonUnauthorized = "unauthorized"
	ReasonBlocked      = "blocked"
	ReasonDeleted      = "deleted"
	ReasonMerged       = "merged"
	ReasonReset        = "reset"
)

// One payload struct per event kind; no untyped maps cross the wire.

type JoinedEvent struct {
	Identity string `json:"identity"`
}

type PresenceEvent struct {
	Identity string `json:"identity"`
	OwnerTag string `json:"owner_tag,omitempty"`
	Online   bool   `json:"online"`
}

type MessageEvent struct {
	ID       uint      `json:"id"`
	Identity string    `json:"identity"`
	Kind     string    `json:"kind"`
	Content  string    `json:"content"`
	FromUser bool      `json:"from_user"`
	Read     bool      `json:"read"`
	Token    string    `json:"token,omitempty"`
	Created  time.Time `json:"created"`
}

type StateEvent struct {
	Identity string `json:"identity"`
	Muted    bool   `json:"muted"`
	Blocked  bool   `json:"blocked"`
}

type RemovedEvent struct {
	Identity string `json:"identity"`
}

type LogoutEvent struct {
	Reason string `json:"reason"`
}

type TypingEvent struct {
	Identity string `json:"identity"`
	FromUser bool   `json:"from_user"`
}

type ReadEvent struct {
	Identity string `json:"identity"`
	FromUser bool   `json:"from_user"`
}

type MessageDeletedEvent struct {
	Identity string `json:"identity"`
	ID       uint   `json:"id"`
}

type SnapshotEvent struct {
	Online []string `json:"online"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

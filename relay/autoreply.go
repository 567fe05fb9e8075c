package relay

import (
	"log"
	"time"

	"support-relay/model"
)

const (
	defaultWorkStart = "09:00"
	defaultWorkEnd   = "21:00"
)

// staffed reports whether the given wall-clock time falls inside the
// configured business-hours window. The window may wrap midnight.
func (e *Engine) staffed(now time.Time) bool {
	start := parseClock(e.configOr("work_start", defaultWorkStart), defaultWorkStart)
	end := parseClock(e.configOr("work_end", defaultWorkEnd), defaultWorkEnd)
	minute := now.Hour()*60 + now.Minute()

	if start == end {
		return true
	}
	if start < end {
		return minute >= start && minute < end
	}
	return minute >= start || minute < end
}

func parseClock(value string, fallback string) int {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		parsed, _ = time.Parse("15:04", fallback)
	}
	return parsed.Hour()*60 + parsed.Minute()
}

// maybeAutoReply persists and schedules the off-hours reply. It fires
// at most once per connection lifetime; reconnecting resets
// eligibility. The delayed delivery is cancelled by Disconnect, and
// delivering into a room nobody occupies is a no-op anyway.
func (e *Engine) maybeAutoReply(connID string, identity string) {
	if e.staffed(e.now()) {
		return
	}

	e.mu.Lock()
	c := e.conns[connID]
	if c == nil || c.operator || c.autoReplied {
		e.mu.Unlock()
		return
	}
	c.autoReplied = true
	e.mu.Unlock()

	text := e.configOr("autoreply_message", "We are away right now. An operator will reply during business hours.")
	message := &model.Message{
		OwnerID:  identity,
		Kind:     "text",
		Content:  text,
		FromUser: false,
	}
	if err := e.store.CreateMessage(message); err != nil {
		log.Printf("persist auto-reply for %s: %v", identity, err)
		return
	}

	event := eventFor(message, "")
	timer := time.AfterFunc(e.replyDelay, func() {
		e.transport.ToIdentity(identity, EventReceiveMessage, event)
		e.transport.ToOperators(EventAdminReceive, event)
	})

	e.mu.Lock()
	if c := e.conns[connID]; c != nil {
		c.autoTimer = timer
	} else {
		timer.Stop()
	}
	e.mu.Unlock()
}

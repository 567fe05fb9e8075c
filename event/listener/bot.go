// Package listener consumes moderation commands the bot bridge decoded
// from the group chat and applies them to the relay engine.
package listener

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"support-relay/event"
	"support-relay/event/schema"
	"support-relay/relay"
	"support-relay/store"
)

var (
	BotChannel = make(chan event.EventChannelData)
)

func Bot(engine *relay.Engine) {
	for data := range BotChannel {
		handle(engine, data)
	}
}

func handle(engine *relay.Engine, data event.EventChannelData) {
	command := schema.Command{}
	if err := json.Unmarshal(data.Data, &command); err != nil {
		log.Printf("undecodable bot command [%s]: %v", data.Action, err)
		return
	}

	switch data.Action {
	case "mute":
		reply(engine.Mute(command.Identity, true),
			fmt.Sprintf("identity %s muted", command.Identity))
	case "unmute":
		reply(engine.Mute(command.Identity, false),
			fmt.Sprintf("identity %s unmuted", command.Identity))
	case "block":
		reply(engine.Block(command.Identity),
			fmt.Sprintf("identity %s blocked, data purged", command.Identity))
	case "delete":
		reply(engine.DeleteAllData(command.Identity),
			fmt.Sprintf("identity %s erased", command.Identity))
	case "merge":
		reply(engine.Merge(command.Identity, command.Target),
			fmt.Sprintf("identity %s merged into %s", command.Identity, command.Target))
	case "wipe":
		// The bridge has already walked the caller through its
		// confirmation step; here the wipe is immediate.
		reply(engine.WipeAll(), "all data wiped")
	case "stats":
		stats, err := engine.Stats()
		if err != nil {
			reply(err, "")
			return
		}
		emit("stats_result", schema.StatsReply{
			Meta:       schema.NewMeta("relay"),
			Identities: stats.Identities,
			Messages:   stats.Messages,
		})
	default:
		log.Printf("unknown bot command action: %s", data.Action)
	}
}

// reply publishes the command outcome back to the bot channel. Errors
// become in-channel failure replies rather than silent no-ops.
func reply(err error, okText string) {
	if err == nil {
		emit("reply", schema.Reply{Meta: schema.NewMeta("relay"), Ok: true, Text: okText})
		return
	}

	text := "command failed"
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, relay.ErrSourceNotFound):
		text = "no such identity"
	case errors.Is(err, relay.ErrBlocked):
		text = "identity is blocked"
	}
	log.Printf("bot command failed: %v", err)
	emit("reply", schema.Reply{Meta: schema.NewMeta("relay"), Ok: false, Text: text})
}

func emit(action string, payload any) {
	data, _ := json.Marshal(payload)
	if err := event.Emit("bot", action, data); err != nil {
		log.Printf("publish %s to bot queue: %v", action, err)
	}
}

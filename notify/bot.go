// Package notify holds the outbound side channels: the bot-channel
// dispatcher and the web-push dispatcher. Both are sinks invoked by the
// relay engine; neither may fail the chat path.
package notify

import (
	"encoding/json"
	"log"

	"support-relay/event"
	"support-relay/event/schema"
	"support-relay/model"
)

// Bot publishes new-message summaries to the bot bridge queue. The
// bridge formats them for the bound group chat and attaches the
// moderation shortcut.
type Bot struct{}

func NewBot() *Bot {
	return &Bot{}
}

const previewLimit = 256

func preview(kind string, content string) string {
	if kind == "image" {
		return "[image]"
	}
	if len(content) > previewLimit {
		return content[:previewLimit]
	}
	return content
}

func (b *Bot) MessageReceived(identity *model.Identity, kind string, content string, channel string) {
	notification := schema.Notification{
		Meta:     schema.NewMeta("relay"),
		Channel:  channel,
		Identity: identity.ID,
		OwnerTag: identity.OwnerTag,
		Kind:     kind,
		Preview:  preview(kind, content),
		Action:   "delete",
	}
	data, _ := json.Marshal(notification)
	if err := event.Emit("bot", "notify", data); err != nil {
		log.Printf("bot notification for %s dropped: %v", identity.ID, err)
	}
}

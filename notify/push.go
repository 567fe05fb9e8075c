package notify

import (
	"encoding/json"
	"log"
	"net/http"

	"support-relay/config"
	"support-relay/model"
	"support-relay/store"

	webpush "github.com/SherClockHolmes/webpush-go"
)

type sendFunc func(message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)

// Push fans operator replies out to an identity's web-push endpoints.
// An endpoint answering 404/410 is permanently gone and its
// subscription row is deleted, so the list heals itself.
type Push struct {
	store   *store.Store
	options webpush.Options
	send    sendFunc
}

func NewPush(st *store.Store) *Push {
	return &Push{
		store: st,
		options: webpush.Options{
			Subscriber:      config.Config("VAPID_SUBSCRIBER"),
			VAPIDPublicKey:  config.Config("VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: config.Config("VAPID_PRIVATE_KEY"),
			TTL:             60,
		},
		send: webpush.SendNotification,
	}
}

type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type subscriptionKeys struct {
	Auth   string `json:"auth"`
	P256dh string `json:"p256dh"`
}

func (p *Push) Fanout(identity string, kind string, content string) {
	subscriptions, err := p.store.ListSubscriptionsByOwner(identity)
	if err != nil {
		log.Printf("list push subscriptions for %s: %v", identity, err)
		return
	}

	payload, _ := json.Marshal(pushPayload{
		Title: "New message from support",
		Body:  preview(kind, content),
	})

	for _, subscription := range subscriptions {
		p.deliver(subscription, payload)
	}
}

// deliver pushes to one endpoint. Failures are isolated per endpoint;
// only the permanent class triggers cleanup.
func (p *Push) deliver(subscription model.Subscription, payload []byte) {
	keys := subscriptionKeys{}
	if err := json.Unmarshal([]byte(subscription.Keys), &keys); err != nil {
		log.Printf("undecodable keys for push endpoint %d: %v", subscription.ID, err)
		return
	}

	response, err := p.send(payload, &webpush.Subscription{
		Endpoint: subscription.Endpoint,
		Keys: webpush.Keys{
			Auth:   keys.Auth,
			P256dh: keys.P256dh,
		},
	}, &p.options)
	if err != nil {
		log.Printf("push to endpoint %d failed: %v", subscription.ID, err)
		return
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound || response.StatusCode == http.StatusGone {
		if err := p.store.DeleteSubscription(subscription.ID); err != nil {
			log.Printf("drop dead push endpoint %d: %v", subscription.ID, err)
		}
	}
}

package controller

import (
	"support-relay/presence"
	"support-relay/relay"
	"support-relay/store"
)

var (
	engine *relay.Engine
	data   *store.Store
	online *presence.Registry
)

// Init hands the controllers their collaborators; called once from
// main before the routes are mounted.
func Init(e *relay.Engine, s *store.Store, p *presence.Registry) {
	engine = e
	data = s
	online = p
}

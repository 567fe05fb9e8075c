package router

import (
	"encoding/json"
	"errors"

	"support-relay/relay"
	"support-relay/socketio"

	"github.com/zishang520/socket.io/v2/socket"
)

// payload pulls the first argument of a socket event as an object.
// socket.io hands JSON objects over as map[string]interface{}.
func payload(args []interface{}) map[string]interface{} {
	if len(args) == 0 {
		return map[string]interface{}{}
	}
	if m, ok := args[0].(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func str(m map[string]interface{}, key string) string {
	if value, ok := m[key].(string); ok {
		return value
	}
	return ""
}

func num(m map[string]interface{}, key string) uint {
	if value, ok := m[key].(float64); ok && value > 0 {
		return uint(value)
	}
	return 0
}

func isOperator(client *socket.Socket) bool {
	return client.Data() != nil
}

// reject signals a refused join or send and drops the socket, per the
// unauthorized/blocked contract. Store failures instead surface as a
// retryable error without logging the client out.
func reject(client *socket.Socket, err error) {
	switch {
	case errors.Is(err, relay.ErrBlocked):
		client.Emit(relay.EventForceLogout, relay.LogoutEvent{Reason: relay.ReasonBlocked})
		client.Disconnect(true)
	case errors.Is(err, relay.ErrNotAuthorized):
		client.Emit(relay.EventForceLogout, relay.LogoutEvent{Reason: relay.ReasonUnauthorized})
		client.Disconnect(true)
	default:
		client.Emit(relay.EventError, relay.ErrorEvent{Message: "temporary failure, retry"})
	}
}

func Socket(server *socket.Server, engine *relay.Engine) {
	server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)
		connID := string(client.Id())
		engine.Connect(connID)

		// Fires on every teardown path, crash and timeout included;
		// this is the presence finalizer.
		client.On("disconnect", func(args ...interface{}) {
			engine.Disconnect(connID)
		})

		client.On("join", func(args ...interface{}) {
			data := payload(args)
			identity := str(data, "identity")

			if identity == "" {
				issued, err := engine.IssueIdentity()
				if err != nil {
					reject(client, err)
					return
				}
				identity = issued
			}

			// Join the room before admitting so the welcome message and
			// later emits reach this socket.
			room := socket.Room(identity)
			client.Join(room)

			admitted, err := engine.Join(connID, identity, str(data, "owner_tag"))
			if err != nil {
				client.Leave(room)
				reject(client, err)
				return
			}
			client.Emit(relay.EventJoined, relay.JoinedEvent{Identity: admitted})
		})

		client.On("send_message", func(args ...interface{}) {
			data := payload(args)
			err := engine.UserSend(
				connID,
				str(data, "identity"),
				str(data, "owner_tag"),
				str(data, "kind"),
				str(data, "content"),
				str(data, "token"),
			)
			if err != nil {
				reject(client, err)
			}
		})

		client.On("admin_join", func(args ...interface{}) {
			if !isOperator(client) {
				reject(client, relay.ErrNotAuthorized)
				return
			}
			client.Join(socket.Room(socketio.OperatorRoom))
			client.Emit(relay.EventInit, engine.JoinOperator(connID))
		})

		client.On("admin_reply", func(args ...interface{}) {
			if !isOperator(client) {
				reject(client, relay.ErrNotAuthorized)
				return
			}
			data := payload(args)
			err := engine.OperatorSend(
				str(data, "identity"),
				str(data, "kind"),
				str(data, "content"),
				str(data, "token"),
			)
			if err != nil {
				client.Emit(relay.EventError, relay.ErrorEvent{Message: err.Error()})
			}
		})

		client.On("typing", func(args ...interface{}) {
			engine.Typing(connID, str(payload(args), "identity"))
		})

		client.On("read", func(args ...interface{}) {
			if err := engine.MarkRead(connID, str(payload(args), "identity")); err != nil {
				client.Emit(relay.EventError, relay.ErrorEvent{Message: "temporary failure, retry"})
			}
		})

		client.On("delete_message", func(args ...interface{}) {
			if !isOperator(client) {
				reject(client, relay.ErrNotAuthorized)
				return
			}
			data := payload(args)
			if err := engine.DeleteMessage(str(data, "identity"), num(data, "id")); err != nil {
				client.Emit(relay.EventError, relay.ErrorEvent{Message: err.Error()})
			}
		})

		client.On("subscribe_push", func(args ...interface{}) {
			data := payload(args)
			keys, _ := json.Marshal(data["keys"])
			err := engine.SubscribePush(
				str(data, "identity"),
				str(data, "endpoint"),
				string(keys),
			)
			if err != nil {
				reject(client, err)
			}
		})
	})
}

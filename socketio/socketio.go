package socketio

import (
	"context"
	"time"

	"support-relay/database"
	"support-relay/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/zishang520/engine.io/v2/log"
	"github.com/zishang520/socket.io-go-redis/adapter"
	r_type "github.com/zishang520/socket.io-go-redis/types"
	"github.com/zishang520/socket.io/v2/socket"
)

// OperatorRoom is the shared channel every authenticated console joins.
const OperatorRoom = "admin_room"

var server *socket.Server

func Init(app *fiber.App) *socket.Server {
	log.DEBUG = false

	options := socket.DefaultServerOptions()
	options.SetServeClient(true)
	options.SetAllowEIO3(true)
	options.SetPingInterval(25 * time.Second)
	options.SetPingTimeout(60 * time.Second)
	options.SetMaxHttpBufferSize(100000000)
	options.SetConnectTimeout(5000 * time.Millisecond)
	options.SetAdapter(&adapter.RedisAdapterBuilder{
		Redis: r_type.NewRedisClient(context.Background(), database.Redis[1]),
		Opts:  &adapter.RedisAdapterOptions{},
	})

	server = socket.NewServer(nil, nil)

	// Operator consoles pass a JWT in the handshake query; everything
	// else connects anonymously and must go through the join flow.
	server.Use(func(client *socket.Socket, next func(*socket.ExtendedError)) {
		token, auth := client.Conn().Request().Query().Get("token")

		if auth {
			claims, err := utils.CheckAndExtractTokenMetadata(token, "JWT_ACCESS_KEY")
			if err == nil {
				client.SetData(claims)
			}
		}

		next(nil)
	})

	app.Get("/socket.io/", adaptor.HTTPHandler(server.ServeHandler(options)))
	app.Post("/socket.io/", adaptor.HTTPHandler(server.ServeHandler(options)))

	return server
}

// Transport adapts the socket.io server to the relay engine's fan-out
// surface.
type Transport struct {
	server *socket.Server
}

func NewTransport(server *socket.Server) *Transport {
	return &Transport{server: server}
}

func (t *Transport) ToIdentity(id string, event string, payload any) {
	t.server.To(socket.Room(id)).Emit(event, payload)
}

func (t *Transport) ToOperators(event string, payload any) {
	t.server.To(socket.Room(OperatorRoom)).Emit(event, payload)
}

func (t *Transport) Broadcast(event string, payload any) {
	t.server.FetchSockets()(func(sockets []*socket.RemoteSocket, _ error) {
		for _, socket := range sockets {
			socket.Emit(event, payload)
		}
	})
}

func (t *Transport) Evict(id string) {
	t.server.To(socket.Room(id)).DisconnectSockets(true)
}

func (t *Transport) EvictAll() {
	t.server.FetchSockets()(func(sockets []*socket.RemoteSocket, _ error) {
		for _, socket := range sockets {
			socket.Disconnect(true)
		}
	})
}

package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"support-relay/config"
	"support-relay/controller"
	"support-relay/database"
	"support-relay/event"
	"support-relay/event/listener"
	"support-relay/notify"
	"support-relay/presence"
	"support-relay/relay"
	"support-relay/router"
	"support-relay/socketio"
	"support-relay/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	log.SetPrefix("support-relay: ")

	rest := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		AppName:               "support-relay",
	})

	rest.Use(cors.New())

	database.RedisConnect()
	database.PostgresConnect()

	relayStore := store.New(database.Postgres)
	seedConfig(relayStore)

	event.RabbitMQConnect([]string{
		// Outbound notifications and replies for the bot bridge
		"bot",
		// Inbound moderation commands from the bot bridge
		"relay",
	})

	server := socketio.Init(rest)

	registry := presence.NewRegistry()
	engine := relay.New(relay.Options{
		Store:     relayStore,
		Presence:  registry,
		Transport: socketio.NewTransport(server),
		Notifier:  notify.NewBot(),
		Pusher:    notify.NewPush(relayStore),
	})

	// Run the bot command listener
	go listener.Bot(engine)

	// Subscribe listener channel to inbound bot commands
	event.RabbitMQSubscribe([]event.RabbitMQSubscribeListener{
		{
			Queue:   "relay",
			Channel: listener.BotChannel,
		},
	})

	controller.Init(engine, relayStore, registry)
	router.Rest(rest)
	router.Socket(server, engine)

	go rest.Listen(fmt.Sprintf(":%s", config.Config("SERVER_PORT")))

	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	server.Close(nil)
	event.RabbitMQChannel.Close()
	event.RabbitMQConnection.Close()
	event.InLogFile.Close()
	event.OutLogFile.Close()
	os.Exit(0)
}

// seedConfig installs first-boot configuration rows from the
// environment; existing rows win.
func seedConfig(relayStore *store.Store) {
	seed := func(key string, value string) {
		if value == "" {
			return
		}
		if _, err := relayStore.GetConfig(key); errors.Is(err, store.ErrNotFound) {
			if err := relayStore.SetConfig(key, value); err != nil {
				log.Printf("seed config %s: %v", key, err)
			}
		}
	}

	if password := config.Config("CONSOLE_PASSWORD"); password != "" {
		if _, err := relayStore.GetConfig("console_password"); errors.Is(err, store.ErrNotFound) {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				log.Printf("hash console password: %v", err)
			} else {
				seed("console_password", string(hash))
			}
		}
	}
	seed("bot_channel", config.Config("BOT_CHANNEL"))
	seed("work_start", config.Config("WORK_START"))
	seed("work_end", config.Config("WORK_END"))
}

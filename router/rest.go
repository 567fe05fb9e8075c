package router

import (
	"support-relay/controller"
	"support-relay/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func Rest(app *fiber.App) {
	api := app.Group("/v1", logger.New())

	// Messenger assets
	messenger := api.Group("/messenger")
	messenger.Get("/image/:id", controller.MessageImage)

	// Console auth
	auth := api.Group("/auth")
	auth.Post("/console", controller.ConsoleAuth)
	auth.Post("/token/renew", controller.ConsoleTokenRenew)

	// Admin console
	admin := api.Group("/admin", middleware.JWT(), middleware.RBAC())
	admin.Get("/users", controller.AdminUsers)
	admin.Get("/history/:id", controller.AdminHistory)
	admin.Post("/mute/:id", controller.AdminMute)
	admin.Post("/unmute/:id", controller.AdminUnmute)
	admin.Post("/block/:id", controller.AdminBlock)
	admin.Delete("/users/:id", controller.AdminDelete)
	admin.Post("/merge", controller.AdminMerge)
	admin.Post("/wipe", controller.AdminWipe)
	admin.Post("/config", controller.AdminSetConfig)
}

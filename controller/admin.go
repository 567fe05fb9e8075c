package controller

import (
	"errors"

	"support-relay/relay"
	"support-relay/store"

	"github.com/gofiber/fiber/v2"
)

func moderationError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, relay.ErrSourceNotFound):
		status = fiber.StatusNotFound
		message = "No such identity"
	case errors.Is(err, relay.ErrBlocked):
		status = fiber.StatusConflict
		message = "Identity is blocked"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    data,
	})
}

type adminUser struct {
	store.IdentitySummary
	Online bool `json:"online"`
}

// AdminUsers lists every identity with its stored message count and
// live presence flag, newest first.
func AdminUsers(c *fiber.Ctx) error {
	summaries, err := data.ListIdentitySummaries()
	if err != nil {
		return moderationError(c, err)
	}

	users := make([]adminUser, 0, len(summaries))
	for _, summary := range summaries {
		users = append(users, adminUser{
			IdentitySummary: summary,
			Online:          online.Contains(summary.ID),
		})
	}
	return ok(c, users)
}

func AdminHistory(c *fiber.Ctx) error {
	messages, err := data.ListMessagesByOwner(c.Params("id"))
	if err != nil {
		return moderationError(c, err)
	}
	return ok(c, messages)
}

func AdminMute(c *fiber.Ctx) error {
	if err := engine.Mute(c.Params("id"), true); err != nil {
		return moderationError(c, err)
	}
	return ok(c, nil)
}

func AdminUnmute(c *fiber.Ctx) error {
	if err := engine.Mute(c.Params("id"), false); err != nil {
		return moderationError(c, err)
	}
	return ok(c, nil)
}

func AdminBlock(c *fiber.Ctx) error {
	if err := engine.Block(c.Params("id")); err != nil {
		return moderationError(c, err)
	}
	return ok(c, nil)
}

func AdminDelete(c *fiber.Ctx) error {
	if err := engine.DeleteAllData(c.Params("id")); err != nil {
		return moderationError(c, err)
	}
	return ok(c, nil)
}

type AdminMergeInput struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func AdminMerge(c *fiber.Ctx) error {
	input := new(AdminMergeInput)
	if err := c.BodyParser(input); err != nil || input.From == "" || input.To == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Review your input",
			"data":    nil,
		})
	}
	if err := engine.Merge(input.From, input.To); err != nil {
		return moderationError(c, err)
	}
	return ok(c, nil)
}

type AdminWipeInput struct {
	Confirm string `json:"confirm"`
}

// AdminWipe destroys everything. The caller must echo the literal
// confirmation phrase; the core itself is a single atomic operation.
func AdminWipe(c *fiber.Ctx) error {
	input := new(AdminWipeInput)
	if err := c.BodyParser(input); err != nil || input.Confirm != "WIPE ALL DATA" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Confirmation phrase required",
			"data":    nil,
		})
	}
	if err := engine.WipeAll(); err != nil {
		return moderationError(c, err)
	}
	return ok(c, nil)
}

type AdminConfigInput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func AdminSetConfig(c *fiber.Ctx) error {
	input := new(AdminConfigInput)
	if err := c.BodyParser(input); err != nil || input.Key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Review your input",
			"data":    nil,
		})
	}
	if err := data.SetConfig(input.Key, input.Value); err != nil {
		return moderationError(c, err)
	}
	return ok(c, nil)
}

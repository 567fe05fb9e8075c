package controller

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func MessageImage(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	image, err := data.GetImage(uint(id))
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	// Payloads arrive as data URLs; strip the prefix before decoding.
	raw := image.Data
	if idx := strings.IndexByte(raw, ','); idx >= 0 {
		raw = raw[idx+1:]
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return c.SendStatus(fiber.StatusUnprocessableEntity)
	}

	c.Set("Content-Type", "image/png")
	return c.Send(decoded)
}

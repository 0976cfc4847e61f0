package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/uzpay/uzpay/internal/card"
)

// RegisterCardRoutes wires the read-only card balance endpoint.
func RegisterCardRoutes(r fiber.Router, h *card.Handler) {
	r.Get("/cards/:cardId/balance", h.Balance)
}

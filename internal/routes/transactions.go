package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/uzpay/uzpay/internal/purchase"
)

// RegisterTransactionRoutes wires the purchase endpoint.
func RegisterTransactionRoutes(r fiber.Router, h *purchase.Handler, rateLimiter fiber.Handler) {
	if rateLimiter != nil {
		r.Post("/transactions", rateLimiter, h.Create)
	} else {
		r.Post("/transactions", h.Create)
	}
}

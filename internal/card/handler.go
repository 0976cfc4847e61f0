package card

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/uzpay/uzpay/internal/ledger"
)

// Handler exposes the read-only card balance endpoint.
type Handler struct {
	cards Repository
	store ledger.Store
}

// NewHandler constructs a card handler.
func NewHandler(cards Repository, store ledger.Store) *Handler {
	return &Handler{cards: cards, store: store}
}

// Balance returns the current balance of a card the caller owns.
func (h *Handler) Balance(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required."})
	}

	cardID := c.Params("cardId")
	crd, err := h.cards.Get(c.UserContext(), cardID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "No card on file."})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Internal error."})
	}
	if crd.OwnerID != uid {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Card does not belong to caller."})
	}

	balance, err := h.store.Balance(c.UserContext(), cardID)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Internal error."})
	}

	return c.JSON(fiber.Map{
		"card_id": crd.ID,
		"network": crd.Network,
		"balance": balance.StringFixed(2),
		"as_of":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

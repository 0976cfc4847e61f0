package purchase

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/uzpay/uzpay/internal/funds"
	"github.com/uzpay/uzpay/internal/ledger"
	"github.com/uzpay/uzpay/internal/merchant"
)

// Handler exposes the purchase endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a purchase handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type purchaseRequest struct {
	CardID      string          `json:"card_id"`
	MerchantID  string          `json:"merchant_id"`
	Amount      decimal.Decimal `json:"amount"`
	PhoneNumber string          `json:"phone_number"`
	DeviceID    string          `json:"device_id"`
}

// Create processes POST /transactions: debit the named card and record the
// purchase. Caller identity comes from the auth middleware, the origin
// address from the transport.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req purchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body."})
	}
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required."})
	}

	res, err := h.service.MakePurchase(c.UserContext(), Input{
		PayerID:        uid,
		CardID:         req.CardID,
		MerchantID:     req.MerchantID,
		Amount:         req.Amount,
		PhoneNumber:    req.PhoneNumber,
		DeviceID:       req.DeviceID,
		OriginIP:       c.IP(),
		IdempotencyKey: c.Get("Idempotency-Key"),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Merchant ID, amount, and phone number are required."})
		case errors.Is(err, ErrMissingCard):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Card ID is required."})
		case errors.Is(err, merchant.ErrNotFound):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Merchant not found."})
		case errors.Is(err, funds.ErrInvalidAmount):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Amount must be positive."})
		case errors.Is(err, funds.ErrInsufficientFunds):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Insufficient funds."})
		case errors.Is(err, ledger.ErrCardNotFound):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "No card on file."})
		case errors.Is(err, ledger.ErrNotCardOwner):
			return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Card does not belong to caller."})
		case errors.Is(err, ledger.ErrBusy):
			return c.Status(http.StatusConflict).JSON(fiber.Map{"error": "Card is busy, retry the request."})
		default:
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Internal error."})
		}
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":        "Transaction successful.",
		"transaction_id": res.Transaction.ID,
	})
}

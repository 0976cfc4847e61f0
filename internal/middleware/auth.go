package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/uzpay/uzpay/internal/identity"
)

// Auth resolves the bearer credential through the identity provider and
// stores the caller's user id in request locals. Token issuance and
// verification mechanics live in the external auth service.
func Auth(provider identity.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		credential := strings.TrimSpace(authz[len("Bearer "):])

		id, err := provider.Resolve(c.UserContext(), credential)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid credential")
		}

		c.Locals("user_id", id.ID)
		c.Locals("user_phone", id.Phone)
		return c.Next()
	}
}

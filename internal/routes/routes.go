package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/uzpay/uzpay/internal/card"
	"github.com/uzpay/uzpay/internal/config"
	"github.com/uzpay/uzpay/internal/identity"
	"github.com/uzpay/uzpay/internal/ledger"
	"github.com/uzpay/uzpay/internal/merchant"
	"github.com/uzpay/uzpay/internal/middleware"
	"github.com/uzpay/uzpay/internal/notification"
	"github.com/uzpay/uzpay/internal/purchase"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Storage backends
	var store ledger.Store
	var cards card.Repository
	var merchants merchant.Repository
	var provider identity.Provider
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB, d.Cfg.StoreTimeout)
		cards = card.NewPostgresRepository(d.DB)
		merchants = merchant.NewPostgresRepository(d.DB)
		provider = identity.NewPostgresProvider(d.DB)
	} else {
		store = ledger.NewInMemory()
		cards = card.NewMemoryRepository()
		merchants = merchant.NewMemoryRepository()
		provider = identity.NewStaticProvider()
	}

	// Services and handlers
	notifier := notification.NewLoggerNotifier(d.Logger)
	purchaseSvc := purchase.NewService(store, merchants, notifier, d.Logger)
	purchaseHandler := purchase.NewHandler(purchaseSvc)
	cardHandler := card.NewHandler(cards, store)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Protected routes. Idempotency sits after Auth so its cache keys are
	// scoped to the resolved user.
	protected := api.Group("", middleware.Auth(provider))
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	rateLimiter := middleware.PurchaseRateLimit(d.Cache, d.Cfg.PurchaseRatePerMin)
	RegisterTransactionRoutes(protected, purchaseHandler, rateLimiter)
	RegisterCardRoutes(protected, cardHandler)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

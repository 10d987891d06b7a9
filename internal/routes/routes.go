package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/agentvault/agentvault/internal/admin"
	"github.com/agentvault/agentvault/internal/agents"
	"github.com/agentvault/agentvault/internal/config"
	"github.com/agentvault/agentvault/internal/middleware"
	"github.com/agentvault/agentvault/internal/vault"
)

// Deps aggregates shared dependencies required to wire routes. The vault
// and agents service are constructed in main so the reconciler can share
// the same instances.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	Vault  vault.Vault
	Agents *agents.Service
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Vault == nil {
		return fmt.Errorf("vault is required")
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

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

	RegisterAccountRoutes(api, d.Vault)
	RegisterBotRoutes(api, d.Vault)
	RegisterPurchaseRoutes(api, d.Vault, d.Cfg.Custody)

	if d.Agents != nil {
		RegisterAgentRoutes(api, agents.NewHandler(d.Agents))
	}

	// Admin routes sit behind the bearer key. The configured admin address
	// is the caller for policy mutations.
	adminAuth := middleware.AdminAuth(d.Cfg.AdminKeyHash)
	RegisterAdminRoutes(api, admin.NewHandler(d.Vault, d.Cfg.Admin), adminAuth)

	return nil
}

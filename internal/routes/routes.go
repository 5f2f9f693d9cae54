package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/expense-pilot/expense_pilot/internal/auth"
	"github.com/expense-pilot/expense_pilot/internal/category"
	"github.com/expense-pilot/expense_pilot/internal/config"
	"github.com/expense-pilot/expense_pilot/internal/expense"
	"github.com/expense-pilot/expense_pilot/internal/identity"
	"github.com/expense-pilot/expense_pilot/internal/ledger"
	"github.com/expense-pilot/expense_pilot/internal/middleware"
	"github.com/expense-pilot/expense_pilot/internal/report"
)

const apiVersion = "1.0.0"

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Without a
// database the in-memory stores are used, which is only allowed in
// development and test environments.
func Setup(app *fiber.App, d Deps) error {
	if d.DB == nil && !d.Cfg.InMemoryAllowed() {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}
	policy, err := ledger.ParseDeletePolicy(d.Cfg.CategoryDeletePolicy)
	if err != nil {
		return err
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.Cfg.IsDevelopment() {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	} else {
		app.Use(middleware.Audit(d.Logger))
	}
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     d.Cfg.CORSOrigin,
		AllowCredentials: d.Cfg.CORSOrigin != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key, X-Request-ID",
	}))
	app.Use("/api", limiter.New(limiter.Config{
		Max:        d.Cfg.RateLimitMax,
		Expiration: d.Cfg.RateLimitWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(http.StatusTooManyRequests, "Too many requests from this IP, please try again later.")
		},
	}))

	// Stores
	var (
		identityRepo  identity.Repository
		ledgerBackend ledger.Ledger
	)
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
	} else {
		d.Logger.Warn("no database configured, using in-memory stores")
		identityRepo = identity.NewMemoryRepository()
		ledgerBackend = ledger.NewInMemory()
	}

	// Services and handlers
	tokens := auth.NewJWTManager(d.Cfg.JWTSecret, d.Cfg.TokenTTL)
	authn := auth.NewAuthenticator(tokens, identityRepo)
	authHandler := auth.NewHandler(auth.NewService(identity.NewService(identityRepo), tokens))
	expenseHandler := expense.NewHandler(expense.NewService(ledgerBackend))
	categoryHandler := category.NewHandler(category.NewService(ledgerBackend, policy))
	reportHandler := report.NewHandler(report.NewService(ledgerBackend, d.Cfg.ReportLocation))

	RegisterHealthRoutes(app, ledgerBackend, d.Cache)
	app.Get("/", index(d.Cfg.AppName))

	// API routes
	api := app.Group("/api")
	requireIdentity := middleware.RequireIdentity(authn)
	idempotent := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	protect := func(h middleware.IdentityHandler) fiber.Handler {
		return requireIdentity(idempotent(h))
	}

	RegisterAuthRoutes(api, authHandler, protect, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginAttemptsPerMinute, d.Logger))
	RegisterExpenseRoutes(api, expenseHandler, protect)
	RegisterCategoryRoutes(api, categoryHandler, protect)
	RegisterReportRoutes(api, reportHandler, protect)

	api.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(http.StatusNotFound, "API endpoint not found")
	})
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(http.StatusNotFound, fmt.Sprintf("Cannot %s %s", c.Method(), c.Path()))
	})

	return nil
}

func index(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": strings.TrimSpace(name + " API"),
			"version": apiVersion,
			"endpoints": fiber.Map{
				"health":     "/health",
				"auth":       "/api/auth",
				"expenses":   "/api/expenses",
				"categories": "/api/categories",
				"reports":    "/api/reports",
			},
		})
	}
}

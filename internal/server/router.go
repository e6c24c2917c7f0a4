// Package server assembles the fiber application: middleware, error mapping
// and the route table.
package server

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"gestion-stock/internal/admin"
	"gestion-stock/internal/alert"
	"gestion-stock/internal/api"
	"gestion-stock/internal/audit"
	"gestion-stock/internal/auth"
	"gestion-stock/internal/common"
	"gestion-stock/internal/config"
	"gestion-stock/internal/dashboard"
	"gestion-stock/internal/database"
	"gestion-stock/internal/inventory"
	"gestion-stock/internal/logging"
	"gestion-stock/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func New(cfg *config.Config, log logging.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "gestion-stock",
		ErrorHandler: errorHandler(log),
		BodyLimit:    10 * 1024 * 1024, // xlsx uploads
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	if level := logging.ParseLevel(cfg.LogLevel); level <= slog.LevelInfo {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
			Output: os.Stdout,
		}))
	}
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/health", healthHandler())

	jwt := auth.JWTMiddleware(cfg)
	adminOnly := auth.RequireRole(api.RoleAdmin)

	// Public auth
	apiGroup := app.Group("/api")
	login := []fiber.Handler{auth.LoginHandler(cfg)}
	if cfg.LoginRateLimit > 0 {
		login = append([]fiber.Handler{limiter.New(limiter.Config{
			Max:        cfg.LoginRateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTooManyRequests, "Trop de tentatives de connexion")
			},
		})}, login...)
	}
	apiGroup.Post("/login", login...)
	apiGroup.Post("/register", auth.RegisterHandler(cfg))

	// Protected
	protected := apiGroup.Group("", jwt)
	protected.Get("/me", auth.MeHandler())
	protected.Get("/users", auth.ListUsersHandler())

	// Lots
	protected.Get("/lots", inventory.ListLotsHandler())
	protected.Post("/lots", inventory.CreateLotHandler())
	protected.Get("/lots/:id", inventory.GetLotHandler())
	protected.Put("/lots/:id", inventory.UpdateLotHandler())
	protected.Delete("/lots/:id", inventory.DeleteLotHandler())

	// Historique
	protected.Get("/historique", audit.ListHistoryHandler())
	protected.Post("/historique/:id/undo", adminOnly, audit.UndoHistoryHandler())

	// Tableau de bord
	protected.Get("/dashboard/stock", dashboard.StockSummaryHandler())
	protected.Get("/dashboard/movements-chart", dashboard.MovementChartHandler())

	// Médicaments
	medicins := app.Group("/medicins", jwt)
	medicins.Get("/", inventory.ListMedicinsHandler())
	medicins.Post("/", inventory.CreateMedicinHandler())
	medicins.Get("/low-stock", inventory.LowStockHandler())
	medicins.Post("/import", inventory.ImportMedicinsHandler())
	medicins.Get("/:id", inventory.GetMedicinHandler())
	medicins.Put("/:id", inventory.UpdateMedicinHandler())
	medicins.Delete("/:id", inventory.DeleteMedicinHandler())

	// Mouvements
	mouvements := app.Group("/mouvements", jwt)
	mouvements.Get("/", inventory.ListMovementsHandler())
	mouvements.Post("/", inventory.CreateMovementHandler())
	mouvements.Get("/:id", inventory.GetMovementHandler())
	mouvements.Put("/:id", inventory.UpdateMovementHandler())
	mouvements.Delete("/:id", inventory.DeleteMovementHandler())

	// Alertes
	alertes := app.Group("/alertes", jwt)
	alertes.Get("/", alert.ListAlertsHandler())
	alertes.Post("/", alert.CreateAlertHandler())
	alertes.Get("/:id", alert.GetAlertHandler())
	alertes.Put("/:id/resolve", alert.ResolveAlertHandler())
	alertes.Put("/:id", alert.UpdateAlertHandler())
	alertes.Delete("/:id", alert.DeleteAlertHandler())

	// Journal
	logs := app.Group("/log", jwt)
	logs.Get("/", audit.ListLogsHandler())
	logs.Post("/", audit.CreateLogHandler())
	logs.Get("/:id", audit.GetLogHandler())
	logs.Put("/:id", audit.UpdateLogHandler())
	logs.Delete("/:id", audit.DeleteLogHandler())

	// Administration
	app.Get("/admin/all-users", jwt, adminOnly, admin.AllUsersHandler())
	app.Post("/firebase/block/:uid", jwt, adminOnly, admin.BlockUserHandler())
	app.Post("/firebase/unblock/:uid", jwt, adminOnly, admin.UnblockUserHandler())

	return app
}

func healthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := database.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// errorHandler maps handler errors to {error, details}. Sentinel errors that
// reach it unwrapped by a handler get their natural status code.
func errorHandler(log logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(api.ErrorResponse{Error: fe.Message})
		}

		var ve *validation.Error
		if errors.As(err, &ve) {
			return c.Status(fiber.StatusBadRequest).JSON(api.ErrorResponse{
				Error:   "Données invalides",
				Details: ve.Violations,
			})
		}

		switch {
		case errors.Is(err, common.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(api.ErrorResponse{Error: "Ressource introuvable"})
		case errors.Is(err, common.ErrInsufficientStock):
			return c.Status(fiber.StatusConflict).JSON(api.ErrorResponse{Error: "Stock insuffisant"})
		case errors.Is(err, common.ErrAlreadyExists):
			return c.Status(fiber.StatusConflict).JSON(api.ErrorResponse{Error: "Ressource déjà existante"})
		case errors.Is(err, common.ErrValidation):
			return c.Status(fiber.StatusBadRequest).JSON(api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, common.ErrUnauthorized):
			return c.Status(fiber.StatusUnauthorized).JSON(api.ErrorResponse{Error: "Non authentifié"})
		case errors.Is(err, common.ErrForbidden), errors.Is(err, common.ErrBlocked):
			return c.Status(fiber.StatusForbidden).JSON(api.ErrorResponse{Error: "Accès refusé"})
		}

		log.Error(c.UserContext(), "unexpected error",
			"error", err,
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.Locals(requestid.ConfigDefault.ContextKey),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(api.ErrorResponse{Error: "Erreur interne du serveur"})
	}
}

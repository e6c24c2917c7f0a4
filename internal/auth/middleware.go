package auth

import (
	"strings"

	"gestion-stock/internal/api"
	"gestion-stock/internal/config"
	"gestion-stock/internal/database"
	"gestion-stock/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
	CtxUserNameKey = "user_name"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "En-tête Authorization manquant")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Format attendu: 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Token invalide ou expiré")
		}

		// blocking takes effect immediately, not at token expiry
		var user models.User
		if err := database.DB.Select("id", "blocked").First(&user, claims.UserID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Utilisateur introuvable")
		}
		if user.Blocked {
			return fiber.NewError(fiber.StatusForbidden, "Compte bloqué")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxUserNameKey, claims.Username)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...api.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(api.Role)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rôle introuvable")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Accès réservé à l'administrateur")
	}
}

// CurrentUserID returns the authenticated user id, or 0.
func CurrentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(CtxUserIDKey).(uint)
	return id
}

func CurrentRole(c *fiber.Ctx) api.Role {
	role, _ := c.Locals(CtxUserRoleKey).(api.Role)
	return role
}

func CurrentUserName(c *fiber.Ctx) string {
	name, _ := c.Locals(CtxUserNameKey).(string)
	return name
}

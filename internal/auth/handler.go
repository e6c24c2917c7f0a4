package auth

import (
	"errors"
	"fmt"
	"strings"

	"gestion-stock/internal/api"
	"gestion-stock/internal/config"
	"gestion-stock/internal/database"
	"gestion-stock/internal/models"
	"gestion-stock/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// POST /api/register
// The first administrator can register freely; later ones need an admin token.
func RegisterHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body api.RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corps de requête invalide")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.Username = strings.TrimSpace(body.Username)
		if body.Role == "" {
			body.Role = api.RolePharmacist
		}
		if err := validation.Register(body).Err(); err != nil {
			return err
		}

		if body.Role == api.RoleAdmin {
			var count int64
			database.DB.Model(&models.User{}).Where("role = ?", api.RoleAdmin).Count(&count)
			if count > 0 && !callerIsAdmin(c, cfg) {
				return fiber.NewError(fiber.StatusForbidden, "Seul un administrateur peut créer un administrateur")
			}
		}

		var existing models.User
		err := database.DB.Where("email = ?", body.Email).First(&existing).Error
		if err == nil {
			return fiber.NewError(fiber.StatusConflict, "Cet email est déjà utilisé")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hachage du mot de passe impossible")
		}

		user := models.User{
			Username:     body.Username,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         body.Role,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Création de l'utilisateur impossible")
		}

		return c.Status(fiber.StatusCreated).JSON(api.AuthResponse{
			Message: fmt.Sprintf("Utilisateur %s créé avec succès", user.Username),
			User:    user.ToAPI(),
		})
	}
}

// POST /api/login?email=..&password=.. (a JSON body works too)
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body api.LoginRequest
		if err := c.QueryParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Paramètres invalides")
		}
		if body.Email == "" && len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Corps de requête invalide")
			}
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if err := validation.Login(body.Email, body.Password).Err(); err != nil {
			return err
		}

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email ou mot de passe incorrect")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email ou mot de passe incorrect")
		}
		if user.Blocked {
			return fiber.NewError(fiber.StatusForbidden, "Compte bloqué")
		}

		token, err := GenerateToken(cfg.JWTSecret, cfg.TokenTTL, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Création du token impossible")
		}

		out := user.ToAPI()
		out.Token = token
		return c.JSON(api.AuthResponse{
			Message: "Connecté en tant que " + string(user.Role),
			Token:   token,
			User:    out,
		})
	}
}

// GET /api/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var user models.User
		if err := database.DB.First(&user, CurrentUserID(c)).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Utilisateur introuvable")
		}
		return c.JSON(user.ToAPI())
	}
}

// GET /api/users
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := database.DB.Order("username asc").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Liste des utilisateurs indisponible")
		}

		res := make([]api.User, 0, len(users))
		for _, u := range users {
			res = append(res, u.ToAPI())
		}
		return c.JSON(res)
	}
}

func callerIsAdmin(c *fiber.Ctx, cfg *config.Config) bool {
	parts := strings.SplitN(c.Get("Authorization"), " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return false
	}
	claims, err := ParseToken(cfg.JWTSecret, parts[1])
	return err == nil && claims.Role == api.RoleAdmin
}

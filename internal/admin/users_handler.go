package admin

import (
	"fmt"

	"gestion-stock/internal/api"
	"gestion-stock/internal/auth"
	"gestion-stock/internal/audit"
	"gestion-stock/internal/database"
	"gestion-stock/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ----------------------------------------
// USERS
// GET /admin/all-users
// ----------------------------------------

func AllUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := database.DB.Order("id asc").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Utilisateurs indisponibles")
		}

		res := make([]api.User, 0, len(users))
		for _, u := range users {
			res = append(res, u.ToAPI())
		}
		return c.JSON(res)
	}
}

// ----------------------------------------
// BLOCK / UNBLOCK
// POST /firebase/block/:uid
// POST /firebase/unblock/:uid
// ----------------------------------------

// Blocked users keep their data but are refused at login and by the JWT
// middleware on their next request.
func BlockUserHandler() fiber.Handler {
	return setBlocked(true)
}

func UnblockUserHandler() fiber.Handler {
	return setBlocked(false)
}

func setBlocked(blocked bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var uid uint
		if _, err := fmt.Sscan(c.Params("uid"), &uid); err != nil || uid == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Identifiant utilisateur invalide")
		}
		if blocked && uid == auth.CurrentUserID(c) {
			return fiber.NewError(fiber.StatusBadRequest, "Impossible de bloquer son propre compte")
		}

		var user models.User
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&user, uid).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Utilisateur introuvable")
			}
			if err := tx.Model(&user).Update("blocked", blocked).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Mise à jour de l'utilisateur impossible")
			}
			return audit.WriteAction(tx, auth.CurrentUserID(c), blockMessage(user.Username, blocked))
		})
		if err != nil {
			return err
		}
		return c.SendString(blockMessage(user.Username, blocked))
	}
}

func blockMessage(username string, blocked bool) string {
	if blocked {
		return fmt.Sprintf("Utilisateur %s bloqué", username)
	}
	return fmt.Sprintf("Utilisateur %s débloqué", username)
}

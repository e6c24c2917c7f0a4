package audit

import (
	"errors"
	"fmt"

	"gestion-stock/internal/api"
	"gestion-stock/internal/auth"
	"gestion-stock/internal/common"
	"gestion-stock/internal/database"
	"gestion-stock/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/historique?userId=1&action=Ajout&entityType=medicin&entityId=3
func ListHistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.MedicinHistory{})

		if uid := c.QueryInt("userId"); uid > 0 {
			dbq = dbq.Where("user_id = ?", uid)
		}
		if action := c.Query("action"); action != "" {
			dbq = dbq.Where("action = ?", action)
		}
		if entityType := c.Query("entityType"); entityType != "" {
			dbq = dbq.Where("entity_type = ?", entityType)
		}
		if eid := c.QueryInt("entityId"); eid > 0 {
			dbq = dbq.Where("entity_id = ?", eid)
		}

		var entries []models.MedicinHistory
		if err := dbq.Order("id DESC").Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Historique indisponible")
		}

		resp := make([]api.History, 0, len(entries))
		for _, h := range entries {
			resp = append(resp, h.ToAPI())
		}
		return c.JSON(resp)
	}
}

// POST /api/historique/:id/undo (admin only)
func UndoHistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID d'historique invalide")
		}

		err := UndoHistory(id, auth.CurrentUserID(c), auth.CurrentUserName(c))
		switch {
		case err == nil:
		case errors.Is(err, common.ErrNotFound):
			return fiber.NewError(fiber.StatusNotFound, "Entrée d'historique introuvable")
		case errors.Is(err, ErrAlreadyUndone):
			return fiber.NewError(fiber.StatusConflict, "Cette opération a déjà été annulée")
		case errors.Is(err, ErrNotUndoable):
			return fiber.NewError(fiber.StatusBadRequest, "Cette opération ne peut pas être annulée")
		default:
			return err
		}

		return c.JSON(fiber.Map{
			"message": "Opération annulée avec succès",
		})
	}
}

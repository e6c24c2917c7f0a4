package inventory

import (
	"errors"
	"strings"

	"gestion-stock/internal/alert"
	"gestion-stock/internal/api"
	"gestion-stock/internal/audit"
	"gestion-stock/internal/common"
	"gestion-stock/internal/database"
	"gestion-stock/internal/models"
	"gestion-stock/internal/stock"
	"gestion-stock/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /mouvements?type=SORTIE&from=2025-01-01&to=2025-01-31&medicinId=1&lotId=2
func ListMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.StockMovement{})

		if t := c.Query("type"); t != "" {
			mt, err := api.ParseMovementType(t)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Type de mouvement invalide")
			}
			dbq = dbq.Where("type = ?", mt)
		}
		if from := c.Query("from"); from != "" {
			d, err := api.ParseLocalDateTime(from)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Date 'from' invalide")
			}
			dbq = dbq.Where("date_mouvement >= ?", d)
		}
		if to := c.Query("to"); to != "" {
			d, err := api.ParseLocalDate(to)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Date 'to' invalide")
			}
			dbq = dbq.Where("date_mouvement < ?", api.LocalDateTime{Time: d.AddDays(1).Time})
		}
		if mid := c.QueryInt("medicinId"); mid > 0 {
			dbq = dbq.Where("medicin_id = ?", mid)
		}
		if lid := c.QueryInt("lotId"); lid > 0 {
			dbq = dbq.Where("lot_id = ?", lid)
		}
		if uid := c.QueryInt("userId"); uid > 0 {
			dbq = dbq.Where("utilisateur_id = ?", uid)
		}

		var movements []models.StockMovement
		if err := dbq.Order("date_mouvement desc, id desc").Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mouvements indisponibles")
		}

		res := make([]api.StockMovement, 0, len(movements))
		for _, m := range movements {
			res = append(res, m.ToAPI())
		}
		return c.JSON(res)
	}
}

// GET /mouvements/:id
func GetMovementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		var mv models.StockMovement
		if err := database.DB.First(&mv, id).Error; err != nil {
			return notFound(err, "Mouvement introuvable")
		}
		return c.JSON(mv.ToAPI())
	}
}

// POST /mouvements
// The movement, the lot/medicine quantities, the journal line and the
// low-stock check are committed together.
func CreateMovementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := parseMovement(c)
		if err != nil {
			return err
		}

		mv := models.StockMovement{
			Motif:         body.Motif,
			DateMouvement: body.DateMouvement,
			Type:          body.Type,
			LotID:         models.FromID64(body.LotID),
			MedicinID:     models.FromID64(body.MedicinID),
			UtilisateurID: ownerOr(c, body.UtilisateurID),
			Quantite:      body.Quantite,
		}
		if mv.DateMouvement.IsZero() {
			mv.DateMouvement = api.Now()
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			m, err := stock.Apply(tx, &mv, 1)
			if err != nil {
				return movementError(err)
			}
			if err := tx.Create(&mv).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Enregistrement du mouvement impossible")
			}
			return afterMovement(tx, &mv, m)
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(mv.ToAPI())
	}
}

// PUT /mouvements/:id
// The previous effect is reverted before the new one is applied. A movement
// whose lot or medicine was deleted has no effect left to revert.
func UpdateMovementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		body, err := parseMovement(c)
		if err != nil {
			return err
		}

		var mv models.StockMovement
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&mv, id).Error; err != nil {
				return notFound(err, "Mouvement introuvable")
			}
			old, err := stock.Revert(tx, &mv)
			if err != nil {
				return movementError(err)
			}

			mv.Motif = body.Motif
			mv.Type = body.Type
			mv.Quantite = body.Quantite
			mv.LotID = models.FromID64(body.LotID)
			mv.MedicinID = models.FromID64(body.MedicinID)
			if !body.DateMouvement.IsZero() {
				mv.DateMouvement = body.DateMouvement
			}
			if body.UtilisateurID > 0 {
				mv.UtilisateurID = uint(body.UtilisateurID)
			}

			m, err := stock.Apply(tx, &mv, 1)
			if err != nil {
				return movementError(err)
			}
			if err := tx.Save(&mv).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Mise à jour du mouvement impossible")
			}
			// the revert may have touched another medicine
			if old != nil && old.ID != m.ID {
				if _, err := alert.CheckStock(tx, old); err != nil {
					return err
				}
			}
			return afterMovement(tx, &mv, m)
		})
		if err != nil {
			return err
		}
		return c.JSON(mv.ToAPI())
	}
}

// DELETE /mouvements/:id
// Deleting a movement cancels its effect on stock, if its lot or medicine
// still exists.
func DeleteMovementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var mv models.StockMovement
			if err := tx.First(&mv, id).Error; err != nil {
				return notFound(err, "Mouvement introuvable")
			}
			m, err := stock.Revert(tx, &mv)
			if err != nil {
				return movementError(err)
			}
			if err := tx.Delete(&mv).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Suppression du mouvement impossible")
			}
			if m == nil {
				return nil
			}
			_, err = alert.CheckStock(tx, m)
			return err
		})
		if err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func parseMovement(c *fiber.Ctx) (api.StockMovement, error) {
	var body api.StockMovement
	if err := c.BodyParser(&body); err != nil {
		return body, fiber.NewError(fiber.StatusBadRequest, "Données invalides")
	}
	body.Motif = strings.TrimSpace(body.Motif)
	if err := validation.StockMovement(body).Err(); err != nil {
		return body, err
	}
	return body, nil
}

func afterMovement(tx *gorm.DB, mv *models.StockMovement, m *models.Medicin) error {
	if err := audit.WriteAction(tx, mv.UtilisateurID, stock.Describe(mv.Type, mv.Quantite, mv.Motif)); err != nil {
		return err
	}
	_, err := alert.CheckStock(tx, m)
	return err
}

func movementError(err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Lot ou médicament introuvable")
	case errors.Is(err, common.ErrInsufficientStock):
		return fiber.NewError(fiber.StatusConflict, "Stock insuffisant")
	case errors.Is(err, common.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}

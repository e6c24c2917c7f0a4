package inventory

import (
	"strings"

	"gestion-stock/internal/alert"
	"gestion-stock/internal/api"
	"gestion-stock/internal/audit"
	"gestion-stock/internal/auth"
	"gestion-stock/internal/database"
	"gestion-stock/internal/models"
	"gestion-stock/internal/stock"
	"gestion-stock/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/lots?medicinId=1&userId=2&expiringBefore=2025-06-30
func ListLotsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Lot{})

		if mid := c.QueryInt("medicinId"); mid > 0 {
			dbq = dbq.Where("medicin_id = ?", mid)
		}
		if uid := c.QueryInt("userId"); uid > 0 {
			dbq = dbq.Where("user_id = ?", uid)
		}
		if before := c.Query("expiringBefore"); before != "" {
			d, err := api.ParseLocalDate(before)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Date 'expiringBefore' invalide")
			}
			dbq = dbq.Where("date_expiration IS NOT NULL AND date_expiration <= ?", d)
		}

		var lots []models.Lot
		if err := dbq.Order("date_expiration asc, id asc").Find(&lots).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Lots indisponibles")
		}

		res := make([]api.Lot, 0, len(lots))
		for _, l := range lots {
			res = append(res, l.ToAPI())
		}
		return c.JSON(res)
	}
}

// GET /api/lots/:id
func GetLotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		var l models.Lot
		if err := database.DB.First(&l, id).Error; err != nil {
			return notFound(err, "Lot introuvable")
		}
		return c.JSON(l.ToAPI())
	}
}

// POST /api/lots
// The lot quantity is added to its medicine.
func CreateLotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body api.Lot
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Données invalides")
		}
		body.NumeroLot = strings.TrimSpace(body.NumeroLot)
		if err := validation.Lot(body).Err(); err != nil {
			return err
		}

		l := models.Lot{
			NumeroLot:      body.NumeroLot,
			DateExpiration: body.DateExpiration,
			DateEntree:     body.DateEntree,
			Quantite:       body.Quantite,
			MedicinID:      uint(body.MedicinID),
			UserID:         ownerOr(c, body.UserID),
		}
		if l.DateEntree.IsZero() {
			l.DateEntree = api.Now()
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			m, err := stock.AdjustMedicin(tx, l.MedicinID, l.Quantite)
			if err != nil {
				return notFound(err, "Médicament introuvable")
			}
			if err := tx.Create(&l).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Création du lot impossible")
			}
			if err := writeLotHistory(tx, c, api.HistoryCreate, m.Name, l.ID, nil, l.ToAPI()); err != nil {
				return err
			}
			_, err = alert.CheckStock(tx, m)
			return err
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(l.ToAPI())
	}
}

// PUT /api/lots/:id
// A quantity change is reflected on the medicine. Moving a lot to another
// medicine is not allowed.
func UpdateLotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body api.Lot
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Données invalides")
		}
		body.NumeroLot = strings.TrimSpace(body.NumeroLot)

		var l models.Lot
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&l, id).Error; err != nil {
				return notFound(err, "Lot introuvable")
			}
			if body.MedicinID == 0 {
				body.MedicinID = int64(l.MedicinID)
			}
			if err := validation.Lot(body).Err(); err != nil {
				return err
			}
			if uint(body.MedicinID) != l.MedicinID {
				return fiber.NewError(fiber.StatusBadRequest, "Un lot ne peut pas changer de médicament")
			}

			before := l.ToAPI()
			m, err := stock.AdjustMedicin(tx, l.MedicinID, body.Quantite-l.Quantite)
			if err != nil {
				return err
			}

			l.NumeroLot = body.NumeroLot
			l.DateExpiration = body.DateExpiration
			l.Quantite = body.Quantite
			if !body.DateEntree.IsZero() {
				l.DateEntree = body.DateEntree
			}
			if body.UserID > 0 {
				l.UserID = uint(body.UserID)
			}
			if err := tx.Save(&l).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Mise à jour du lot impossible")
			}
			if err := writeLotHistory(tx, c, api.HistoryUpdate, m.Name, l.ID, before, l.ToAPI()); err != nil {
				return err
			}
			_, err = alert.CheckStock(tx, m)
			return err
		})
		if err != nil {
			return err
		}
		return c.JSON(l.ToAPI())
	}
}

// DELETE /api/lots/:id
// The remaining lot quantity is removed from the medicine.
func DeleteLotHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var l models.Lot
			if err := tx.First(&l, id).Error; err != nil {
				return notFound(err, "Lot introuvable")
			}
			m, err := stock.AdjustMedicinClamped(tx, l.MedicinID, -l.Quantite)
			if err != nil {
				return err
			}
			if err := tx.Delete(&l).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Suppression du lot impossible")
			}
			if err := writeLotHistory(tx, c, api.HistoryDelete, m.Name, l.ID, l.ToAPI(), nil); err != nil {
				return err
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

func writeLotHistory(tx *gorm.DB, c *fiber.Ctx, action api.HistoryAction, medicinName string, lotID uint, before, after any) error {
	return audit.WriteHistory(tx, audit.HistoryOptions{
		UserID:      auth.CurrentUserID(c),
		UserName:    auth.CurrentUserName(c),
		EntityType:  audit.EntityLot,
		EntityID:    lotID,
		Action:      action,
		MedicinName: medicinName,
		Before:      before,
		After:       after,
	})
}

package alert

import (
	"errors"
	"fmt"
	"strings"

	"gestion-stock/internal/api"
	"gestion-stock/internal/database"
	"gestion-stock/internal/models"
	"gestion-stock/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /alertes?active=true&type=STOCK&lotId=1&medicinId=2
func ListAlertsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Alert{})

		switch strings.ToLower(c.Query("active")) {
		case "true", "1":
			dbq = dbq.Where("est_resolue = ?", false)
		case "false", "0":
			dbq = dbq.Where("est_resolue = ?", true)
		}

		if t := c.Query("type"); t != "" {
			at, err := api.ParseAlertType(t)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Type d'alerte invalide")
			}
			dbq = dbq.Where("type = ?", at)
		}
		if id := c.QueryInt("lotId"); id > 0 {
			dbq = dbq.Where("lot_id = ?", id)
		}
		if id := c.QueryInt("medicinId"); id > 0 {
			dbq = dbq.Where("medicin_id = ?", id)
		}

		var alerts []models.Alert
		if err := dbq.Order("date_alerte desc, id desc").Find(&alerts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Alertes indisponibles")
		}

		res := make([]api.Alert, 0, len(alerts))
		for _, a := range alerts {
			res = append(res, a.ToAPI())
		}
		return c.JSON(res)
	}
}

// GET /alertes/:id
func GetAlertHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := findAlert(c)
		if err != nil {
			return err
		}
		return c.JSON(a.ToAPI())
	}
}

// POST /alertes
func CreateAlertHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body api.Alert
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Données invalides")
		}
		body.Message = strings.TrimSpace(body.Message)
		if t, err := api.ParseAlertType(string(body.Type)); err == nil {
			body.Type = t
		}
		if err := validation.Alert(body).Err(); err != nil {
			return err
		}

		a := models.Alert{
			Type:       body.Type,
			Message:    body.Message,
			EstResolue: body.EstResolue,
			DateAlerte: body.DateAlerte,
			LotID:      models.FromID64(body.LotID),
			MedicinID:  models.FromID64(body.MedicinID),
		}
		if a.DateAlerte.IsZero() {
			a.DateAlerte = api.Now()
		}
		if err := database.DB.Create(&a).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Création de l'alerte impossible")
		}
		return c.Status(fiber.StatusCreated).JSON(a.ToAPI())
	}
}

// PUT /alertes/:id
func UpdateAlertHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := findAlert(c)
		if err != nil {
			return err
		}

		var body api.Alert
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Données invalides")
		}
		body.Message = strings.TrimSpace(body.Message)
		if t, err := api.ParseAlertType(string(body.Type)); err == nil {
			body.Type = t
		}
		if err := validation.Alert(body).Err(); err != nil {
			return err
		}

		a.Type = body.Type
		a.Message = body.Message
		a.EstResolue = body.EstResolue
		a.LotID = models.FromID64(body.LotID)
		a.MedicinID = models.FromID64(body.MedicinID)
		if !body.DateAlerte.IsZero() {
			a.DateAlerte = body.DateAlerte
		}

		if err := database.DB.Save(a).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mise à jour de l'alerte impossible")
		}
		return c.JSON(a.ToAPI())
	}
}

// PUT /alertes/:id/resolve
func ResolveAlertHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := findAlert(c)
		if err != nil {
			return err
		}
		if err := database.DB.Model(a).Update("est_resolue", true).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Résolution de l'alerte impossible")
		}
		a.EstResolue = true
		return c.JSON(a.ToAPI())
	}
}

// DELETE /alertes/:id
func DeleteAlertHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := findAlert(c)
		if err != nil {
			return err
		}
		if err := database.DB.Delete(a).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Suppression de l'alerte impossible")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func findAlert(c *fiber.Ctx) (*models.Alert, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "ID invalide")
	}
	var a models.Alert
	if err := database.DB.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Alerte introuvable")
		}
		return nil, err
	}
	return &a, nil
}

package audit

import (
	"errors"
	"fmt"
	"strings"

	"gestion-stock/internal/api"
	"gestion-stock/internal/auth"
	"gestion-stock/internal/database"
	"gestion-stock/internal/models"
	"gestion-stock/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /log?userId=1&q=sortie&from=2025-01-01&to=2025-01-31
func ListLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.ActionLog{})

		if uid := c.QueryInt("userId"); uid > 0 {
			dbq = dbq.Where("utilisateur_id = ?", uid)
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			dbq = dbq.Where("LOWER(action) LIKE ?", "%"+strings.ToLower(q)+"%")
		}
		if from := c.Query("from"); from != "" {
			d, err := api.ParseLocalDateTime(from)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Date 'from' invalide")
			}
			dbq = dbq.Where("date_action >= ?", d)
		}
		if to := c.Query("to"); to != "" {
			d, err := api.ParseLocalDate(to)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Date 'to' invalide")
			}
			// inclusive upper day
			dbq = dbq.Where("date_action < ?", api.LocalDateTime{Time: d.AddDays(1).Time})
		}

		var logs []models.ActionLog
		if err := dbq.Order("date_action DESC, id DESC").Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Journal indisponible")
		}

		resp := make([]api.ActionLog, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, l.ToAPI())
		}
		return c.JSON(resp)
	}
}

// GET /log/:id
func GetLogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		l, err := findLog(c)
		if err != nil {
			return err
		}
		return c.JSON(l.ToAPI())
	}
}

// POST /log
func CreateLogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body api.ActionLog
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Données invalides")
		}
		body.Action = strings.TrimSpace(body.Action)
		if err := validation.ActionLog(body).Err(); err != nil {
			return err
		}

		l := models.ActionLog{
			Action:        body.Action,
			DateAction:    body.DateAction,
			UtilisateurID: uint(body.UtilisateurID),
		}
		if l.DateAction.IsZero() {
			l.DateAction = api.Now()
		}
		if l.UtilisateurID == 0 {
			l.UtilisateurID = auth.CurrentUserID(c)
		}
		if err := database.DB.Create(&l).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Enregistrement du journal impossible")
		}
		return c.Status(fiber.StatusCreated).JSON(l.ToAPI())
	}
}

// PUT /log/:id
func UpdateLogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		l, err := findLog(c)
		if err != nil {
			return err
		}

		var body api.ActionLog
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Données invalides")
		}
		body.Action = strings.TrimSpace(body.Action)
		if err := validation.ActionLog(body).Err(); err != nil {
			return err
		}

		l.Action = body.Action
		if !body.DateAction.IsZero() {
			l.DateAction = body.DateAction
		}
		if body.UtilisateurID > 0 {
			l.UtilisateurID = uint(body.UtilisateurID)
		}
		if err := database.DB.Save(l).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mise à jour du journal impossible")
		}
		return c.JSON(l.ToAPI())
	}
}

// DELETE /log/:id
func DeleteLogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		l, err := findLog(c)
		if err != nil {
			return err
		}
		if err := database.DB.Delete(l).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Suppression du journal impossible")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func findLog(c *fiber.Ctx) (*models.ActionLog, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "ID invalide")
	}
	var l models.ActionLog
	if err := database.DB.First(&l, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Entrée du journal introuvable")
		}
		return nil, err
	}
	return &l, nil
}

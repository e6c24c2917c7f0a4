package inventory

import (
	"strings"

	"gestion-stock/internal/alert"
	"gestion-stock/internal/api"
	"gestion-stock/internal/audit"
	"gestion-stock/internal/auth"
	"gestion-stock/internal/database"
	"gestion-stock/internal/models"
	"gestion-stock/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /medicins?userId=1&categorie=Antibiotique&q=doli
func ListMedicinsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Medicin{})

		if uid := c.QueryInt("userId"); uid > 0 {
			dbq = dbq.Where("user_id = ?", uid)
		}
		if cat := strings.TrimSpace(c.Query("categorie")); cat != "" {
			dbq = dbq.Where("LOWER(categorie) = ?", strings.ToLower(cat))
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			dbq = dbq.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(fabriquant) LIKE ?", like, like, like)
		}

		var medicins []models.Medicin
		if err := dbq.Order("name asc").Find(&medicins).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Médicaments indisponibles")
		}
		return c.JSON(toMedicinList(medicins))
	}
}

// GET /medicins/low-stock?userId=1
// A medicine is low on stock when quantity <= seuilAlerte, both being set.
func LowStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Medicin{}).
			Where("quantity IS NOT NULL AND seuil_alerte IS NOT NULL AND quantity <= seuil_alerte")
		if uid := c.QueryInt("userId"); uid > 0 {
			dbq = dbq.Where("user_id = ?", uid)
		}

		var medicins []models.Medicin
		if err := dbq.Order("quantity asc, name asc").Find(&medicins).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Médicaments indisponibles")
		}
		return c.JSON(toMedicinList(medicins))
	}
}

// GET /medicins/:id
func GetMedicinHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		var m models.Medicin
		if err := database.DB.First(&m, id).Error; err != nil {
			return notFound(err, "Médicament introuvable")
		}
		return c.JSON(m.ToAPI())
	}
}

// POST /medicins
func CreateMedicinHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body api.Medicin
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Données invalides")
		}
		normalizeMedicin(&body)
		if err := validation.Medicin(body).Err(); err != nil {
			return err
		}

		m := models.Medicin{UserID: ownerOr(c, body.UserID)}
		m.Apply(body)

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			return createMedicin(tx, c, &m)
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(m.ToAPI())
	}
}

func createMedicin(tx *gorm.DB, c *fiber.Ctx, m *models.Medicin) error {
	if err := tx.Create(m).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Création du médicament impossible")
	}
	if err := audit.WriteHistory(tx, audit.HistoryOptions{
		UserID:      auth.CurrentUserID(c),
		UserName:    auth.CurrentUserName(c),
		EntityType:  audit.EntityMedicin,
		EntityID:    m.ID,
		Action:      api.HistoryCreate,
		MedicinName: m.Name,
		After:       m.ToAPI(),
	}); err != nil {
		return err
	}
	_, err := alert.CheckStock(tx, m)
	return err
}

// PUT /medicins/:id
func UpdateMedicinHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body api.Medicin
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Données invalides")
		}
		normalizeMedicin(&body)
		if err := validation.Medicin(body).Err(); err != nil {
			return err
		}

		var m models.Medicin
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&m, id).Error; err != nil {
				return notFound(err, "Médicament introuvable")
			}
			before := m.ToAPI()
			m.Apply(body)
			if body.UserID > 0 {
				m.UserID = uint(body.UserID)
			}
			if err := tx.Save(&m).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Mise à jour du médicament impossible")
			}
			if err := audit.WriteHistory(tx, audit.HistoryOptions{
				UserID:      auth.CurrentUserID(c),
				UserName:    auth.CurrentUserName(c),
				EntityType:  audit.EntityMedicin,
				EntityID:    m.ID,
				Action:      api.HistoryUpdate,
				MedicinName: m.Name,
				Before:      before,
				After:       m.ToAPI(),
			}); err != nil {
				return err
			}
			_, err := alert.CheckStock(tx, &m)
			return err
		})
		if err != nil {
			return err
		}
		return c.JSON(m.ToAPI())
	}
}

// DELETE /medicins/:id
// Lots of the medicine go with it; movements and alerts are kept as history.
func DeleteMedicinHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var m models.Medicin
			if err := tx.First(&m, id).Error; err != nil {
				return notFound(err, "Médicament introuvable")
			}
			if err := tx.Where("medicin_id = ?", m.ID).Delete(&models.Lot{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&m).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Suppression du médicament impossible")
			}
			return audit.WriteHistory(tx, audit.HistoryOptions{
				UserID:      auth.CurrentUserID(c),
				UserName:    auth.CurrentUserName(c),
				EntityType:  audit.EntityMedicin,
				EntityID:    m.ID,
				Action:      api.HistoryDelete,
				MedicinName: m.Name,
				Before:      m.ToAPI(),
			})
		})
		if err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func normalizeMedicin(m *api.Medicin) {
	m.Name = strings.TrimSpace(m.Name)
	m.Description = strings.TrimSpace(m.Description)
	m.Fabriquant = strings.TrimSpace(m.Fabriquant)
	m.CodeBarres = trimOptional(m.CodeBarres)
	m.Categorie = trimOptional(m.Categorie)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func toMedicinList(medicins []models.Medicin) []api.Medicin {
	res := make([]api.Medicin, 0, len(medicins))
	for _, m := range medicins {
		res = append(res, m.ToAPI())
	}
	return res
}

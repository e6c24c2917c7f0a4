package inventory

import (
	"errors"
	"fmt"

	"gestion-stock/internal/auth"
	"gestion-stock/internal/common"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func parseID(c *fiber.Ctx) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "ID invalide")
	}
	return id, nil
}

// ownerOr returns id when set, the current user otherwise.
func ownerOr(c *fiber.Ctx, id int64) uint {
	if id > 0 {
		return uint(id)
	}
	return auth.CurrentUserID(c)
}

func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, common.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, msg)
	}
	return err
}

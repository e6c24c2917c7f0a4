package alert

import (
	"fmt"

	"gestion-stock/internal/api"
	"gestion-stock/internal/models"

	"gorm.io/gorm"
)

// CheckStock raises a STOCK alert when m is at or under its threshold and no
// unresolved one exists yet. When stock is back above the threshold, open
// STOCK alerts for m are resolved. It returns the alert it created, if any.
func CheckStock(tx *gorm.DB, m *models.Medicin) (*models.Alert, error) {
	open := tx.Model(&models.Alert{}).
		Where("type = ? AND medicin_id = ? AND est_resolue = ?", api.AlertStock, m.ID, false)

	if !m.ToAPI().IsLowStock() {
		if err := open.Update("est_resolue", true).Error; err != nil {
			return nil, fmt.Errorf("resolve stock alerts: %w", err)
		}
		return nil, nil
	}

	var count int64
	if err := open.Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}

	id := m.ID
	a := models.Alert{
		Type:       api.AlertStock,
		Message:    fmt.Sprintf("Stock bas pour le médicament ID %d: %d unités restantes", m.ID, m.Qty()),
		DateAlerte: api.Now(),
		MedicinID:  &id,
	}
	if err := tx.Create(&a).Error; err != nil {
		return nil, fmt.Errorf("create stock alert: %w", err)
	}
	return &a, nil
}

// ScanExpiring raises one EXPIRATION alert per lot that still holds stock and
// expires on or before today+windowDays. Lots with an unresolved expiry alert
// are skipped. It returns the number of alerts created.
func ScanExpiring(tx *gorm.DB, today api.LocalDate, windowDays int) (int, error) {
	limit := today.AddDays(windowDays)

	var lots []models.Lot
	err := tx.Where("date_expiration IS NOT NULL AND date_expiration <= ? AND quantite > 0", limit).
		Where("id NOT IN (?)", tx.Model(&models.Alert{}).
			Select("lot_id").
			Where("type = ? AND est_resolue = ? AND lot_id IS NOT NULL", api.AlertExpiration, false)).
		Order("date_expiration asc").
		Find(&lots).Error
	if err != nil {
		return 0, fmt.Errorf("find expiring lots: %w", err)
	}

	created := 0
	for _, l := range lots {
		lotID, medicinID := l.ID, l.MedicinID
		a := models.Alert{
			Type:       api.AlertExpiration,
			Message:    expiryMessage(l, today),
			DateAlerte: api.Now(),
			LotID:      &lotID,
			MedicinID:  &medicinID,
		}
		if err := tx.Create(&a).Error; err != nil {
			return created, fmt.Errorf("create expiry alert for lot %d: %w", l.ID, err)
		}
		created++
	}
	return created, nil
}

func expiryMessage(l models.Lot, today api.LocalDate) string {
	if l.DateExpiration.Before(today) {
		return fmt.Sprintf("Le lot %s (médicament ID %d) a expiré le %s", l.NumeroLot, l.MedicinID, l.DateExpiration)
	}
	return fmt.Sprintf("Le lot %s (médicament ID %d) expire le %s", l.NumeroLot, l.MedicinID, l.DateExpiration)
}

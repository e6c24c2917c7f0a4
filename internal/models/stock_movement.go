package models

import (
	"time"

	"gestion-stock/internal/api"
)

// StockMovement is a stock entry or exit. LotID or MedicinID (or both) is set;
// a movement without a lot acts on the medicine quantity directly.
type StockMovement struct {
	ID            uint              `gorm:"primaryKey"`
	Motif         string            `gorm:"size:255"`
	DateMouvement api.LocalDateTime `gorm:"type:varchar(19);index"`
	Type          api.MovementType  `gorm:"size:10;not null;index"`
	LotID         *uint             `gorm:"index"`
	MedicinID     *uint             `gorm:"index"`
	UtilisateurID uint              `gorm:"index"`
	Quantite      int               `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (m StockMovement) ToAPI() api.StockMovement {
	return api.StockMovement{
		ID:            int64(m.ID),
		Motif:         m.Motif,
		DateMouvement: m.DateMouvement,
		Type:          m.Type,
		LotID:         toID64(m.LotID),
		MedicinID:     toID64(m.MedicinID),
		UtilisateurID: int64(m.UtilisateurID),
		Quantite:      m.Quantite,
	}
}

func toID64(id *uint) *int64 {
	if id == nil {
		return nil
	}
	v := int64(*id)
	return &v
}

// FromID64 converts an optional wire id.
func FromID64(id *int64) *uint {
	if id == nil || *id <= 0 {
		return nil
	}
	v := uint(*id)
	return &v
}

package models

import (
	"time"

	"gestion-stock/internal/api"
)

// Lot is a batch of one medicine sharing a lot number and expiry date.
type Lot struct {
	ID             uint              `gorm:"primaryKey"`
	NumeroLot      string            `gorm:"size:64;not null;index"`
	DateExpiration api.LocalDate     `gorm:"type:varchar(10);index"`
	DateEntree     api.LocalDateTime `gorm:"type:varchar(19)"`
	Quantite       int               `gorm:"not null;default:0"`
	MedicinID      uint              `gorm:"index;not null"`
	UserID         uint              `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (l Lot) ToAPI() api.Lot {
	return api.Lot{
		ID:             int64(l.ID),
		NumeroLot:      l.NumeroLot,
		DateExpiration: l.DateExpiration,
		DateEntree:     l.DateEntree,
		Quantite:       l.Quantite,
		MedicinID:      int64(l.MedicinID),
		UserID:         int64(l.UserID),
	}
}

package models

import (
	"time"

	"gestion-stock/internal/api"
)

type Alert struct {
	ID         uint              `gorm:"primaryKey"`
	Type       api.AlertType     `gorm:"size:20;not null;index"`
	Message    string            `gorm:"size:500;not null"`
	EstResolue bool              `gorm:"not null;default:false;index"`
	DateAlerte api.LocalDateTime `gorm:"type:varchar(19);index"`
	LotID      *uint             `gorm:"index"`
	MedicinID  *uint             `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (a Alert) ToAPI() api.Alert {
	return api.Alert{
		ID:         int64(a.ID),
		Type:       a.Type,
		Message:    a.Message,
		EstResolue: a.EstResolue,
		DateAlerte: a.DateAlerte,
		LotID:      toID64(a.LotID),
		MedicinID:  toID64(a.MedicinID),
	}
}

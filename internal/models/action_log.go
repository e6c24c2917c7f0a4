package models

import (
	"time"

	"gestion-stock/internal/api"
)

// ActionLog is the free-text journal exposed under /log.
type ActionLog struct {
	ID            uint              `gorm:"primaryKey"`
	Action        string            `gorm:"size:500;not null"`
	DateAction    api.LocalDateTime `gorm:"type:varchar(19);index"`
	UtilisateurID uint              `gorm:"index"`
	CreatedAt     time.Time
}

func (l ActionLog) ToAPI() api.ActionLog {
	return api.ActionLog{
		ID:            int64(l.ID),
		Action:        l.Action,
		DateAction:    l.DateAction,
		UtilisateurID: int64(l.UtilisateurID),
	}
}

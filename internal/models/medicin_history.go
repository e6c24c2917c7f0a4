package models

import (
	"time"

	"gestion-stock/internal/api"
)

// MedicinHistory records every change made to a medicine or one of its lots.
type MedicinHistory struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time

	UserID   uint   `gorm:"index"`
	UserName string `gorm:"size:100"` // denormalized

	// "medicin" or "lot"
	EntityType  string            `gorm:"size:20;index"`
	EntityID    uint              `gorm:"index"`
	Action      api.HistoryAction `gorm:"size:20;index"`
	MedicinName string            `gorm:"size:150"`
	DateAction  api.LocalDateTime `gorm:"type:varchar(19);index"`

	// Previous and new state as JSON ("null" when absent).
	BeforeData string `gorm:"type:text"`
	AfterData  string `gorm:"type:text"`

	IsUndone bool `gorm:"default:false"`
	UndoneBy *uint
	UndoneAt *time.Time
}

func (h MedicinHistory) ToAPI() api.History {
	return api.History{
		ID:          int64(h.ID),
		Action:      h.Action,
		MedicinName: h.MedicinName,
		EntityType:  h.EntityType,
		EntityID:    int64(h.EntityID),
		UserID:      int64(h.UserID),
		DateAction:  h.DateAction,
		EstAnnule:   h.IsUndone,
	}
}

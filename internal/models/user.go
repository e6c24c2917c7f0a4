package models

import (
	"time"

	"gestion-stock/internal/api"
)

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Username     string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         api.Role `gorm:"size:20;not null"`
	Blocked      bool     `gorm:"not null;default:false"` // blocked users cannot log in
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) ToAPI() api.User {
	return api.User{
		ID:       int64(u.ID),
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Blocked:  u.Blocked,
	}
}

package models

import (
	"time"

	"gestion-stock/internal/api"
)

type Medicin struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"size:150;not null;index"`
	Description string  `gorm:"size:500"`
	CodeBarres  *string `gorm:"size:64;index"`
	Categorie   *string `gorm:"size:100;index"`
	Fabriquant  string  `gorm:"size:150"`
	SeuilAlerte *int    // nil: no low-stock tracking
	Quantity    *int
	UserID      uint `gorm:"index"` // owner
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (m Medicin) ToAPI() api.Medicin {
	return api.Medicin{
		ID:          int64(m.ID),
		Name:        m.Name,
		Description: m.Description,
		CodeBarres:  m.CodeBarres,
		Categorie:   m.Categorie,
		Fabriquant:  m.Fabriquant,
		SeuilAlerte: m.SeuilAlerte,
		Quantity:    m.Quantity,
		UserID:      int64(m.UserID),
	}
}

// Apply copies the editable fields of in onto m.
func (m *Medicin) Apply(in api.Medicin) {
	m.Name = in.Name
	m.Description = in.Description
	m.CodeBarres = in.CodeBarres
	m.Categorie = in.Categorie
	m.Fabriquant = in.Fabriquant
	m.SeuilAlerte = in.SeuilAlerte
	m.Quantity = in.Quantity
}

func (m Medicin) Qty() int {
	if m.Quantity == nil {
		return 0
	}
	return *m.Quantity
}

package database

import (
	"testing"

	"gestion-stock/internal/api"
	"gestion-stock/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	require.Error(t, err)
}

func TestSeedAdmin_Idempotent(t *testing.T) {
	db := OpenTest(t)

	created, err := SeedAdmin(db, "Admin@Pharma.test", "secret")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = SeedAdmin(db, "other@pharma.test", "secret")
	require.NoError(t, err)
	assert.False(t, created)

	var admin models.User
	require.NoError(t, db.Where("role = ?", api.RoleAdmin).First(&admin).Error)
	assert.Equal(t, "admin@pharma.test", admin.Email)
	assert.Equal(t, "admin", admin.Username)
	assert.NotEqual(t, "secret", admin.PasswordHash)
}

func TestLocalDateRoundTrip(t *testing.T) {
	db := OpenTest(t)

	lot := models.Lot{
		NumeroLot:      "L-1",
		DateExpiration: api.NewLocalDate(2026, 1, 31),
		DateEntree:     api.Now(),
		Quantite:       4,
		MedicinID:      1,
	}
	require.NoError(t, db.Create(&lot).Error)

	var got models.Lot
	require.NoError(t, db.Where("date_expiration <= ?", api.NewLocalDate(2026, 2, 1)).First(&got).Error)
	assert.Equal(t, "2026-01-31", got.DateExpiration.String())
	assert.Equal(t, lot.DateEntree.String(), got.DateEntree.String())
}

package alert

import (
	"context"
	"testing"
	"time"

	"gestion-stock/internal/api"
	"gestion-stock/internal/database"
	"gestion-stock/internal/logging"
	"gestion-stock/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStock(t *testing.T) {
	db := database.OpenTest(t)
	m := models.Medicin{Name: "Smecta", Quantity: api.Ptr(3), SeuilAlerte: api.Ptr(5)}
	require.NoError(t, db.Create(&m).Error)

	a, err := CheckStock(db, &m)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, api.AlertStock, a.Type)
	assert.Contains(t, a.Message, "3 unités restantes")

	// one open alert per medicine
	a, err = CheckStock(db, &m)
	require.NoError(t, err)
	assert.Nil(t, a)

	m.Quantity = api.Ptr(20)
	_, err = CheckStock(db, &m)
	require.NoError(t, err)

	var open int64
	db.Model(&models.Alert{}).Where("est_resolue = ?", false).Count(&open)
	assert.Zero(t, open)
}

func TestCheckStockWithoutThreshold(t *testing.T) {
	db := database.OpenTest(t)
	m := models.Medicin{Name: "Sans seuil", Quantity: api.Ptr(0)}
	require.NoError(t, db.Create(&m).Error)

	a, err := CheckStock(db, &m)
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestScanExpiring(t *testing.T) {
	db := database.OpenTest(t)
	m := models.Medicin{Name: "Amoxicilline", Quantity: api.Ptr(30)}
	require.NoError(t, db.Create(&m).Error)

	today := api.NewLocalDate(2025, 6, 1)
	lots := []models.Lot{
		{NumeroLot: "EXPIRED", DateExpiration: api.NewLocalDate(2025, 5, 20), Quantite: 5, MedicinID: m.ID},
		{NumeroLot: "SOON", DateExpiration: api.NewLocalDate(2025, 6, 20), Quantite: 5, MedicinID: m.ID},
		{NumeroLot: "LATER", DateExpiration: api.NewLocalDate(2026, 1, 1), Quantite: 5, MedicinID: m.ID},
		{NumeroLot: "EMPTY", DateExpiration: api.NewLocalDate(2025, 6, 2), Quantite: 0, MedicinID: m.ID},
	}
	require.NoError(t, db.Create(&lots).Error)

	n, err := ScanExpiring(db, today, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var alerts []models.Alert
	require.NoError(t, db.Order("id").Find(&alerts).Error)
	require.Len(t, alerts, 2)
	assert.Contains(t, alerts[0].Message, "a expiré le 2025-05-20")
	assert.Contains(t, alerts[1].Message, "expire le 2025-06-20")

	n, err = ScanExpiring(db, today, 30)
	require.NoError(t, err)
	assert.Zero(t, n, "lots with an open alert are skipped")

	// a resolved alert lets the lot be reported again
	require.NoError(t, db.Model(&alerts[0]).Update("est_resolue", true).Error)
	n, err = ScanExpiring(db, today, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestScannerRunOnce(t *testing.T) {
	db := database.OpenTest(t)
	m := models.Medicin{Name: "Ventoline"}
	require.NoError(t, db.Create(&m).Error)
	require.NoError(t, db.Create(&models.Lot{
		NumeroLot: "V1", DateExpiration: api.NewLocalDate(2025, 1, 10), Quantite: 1, MedicinID: m.ID,
	}).Error)

	s := NewScanner(db, 7, time.Hour, logging.Discard())
	s.now = func() time.Time { return time.Date(2025, 1, 5, 9, 0, 0, 0, time.Local) }

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestScannerStopsOnCancel(t *testing.T) {
	db := database.OpenTest(t)
	s := NewScanner(db, 7, time.Hour, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scanner did not stop")
	}
}

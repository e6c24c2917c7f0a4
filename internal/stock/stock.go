// Package stock holds the quantity bookkeeping shared by movements, lots and
// history undo. Every function expects to run inside a transaction.
package stock

import (
	"errors"
	"fmt"

	"gestion-stock/internal/api"
	"gestion-stock/internal/common"
	"gestion-stock/internal/models"

	"gorm.io/gorm"
)

// AdjustMedicin adds delta to the medicine quantity. A result below zero
// fails with common.ErrInsufficientStock.
func AdjustMedicin(tx *gorm.DB, medicinID uint, delta int) (*models.Medicin, error) {
	var m models.Medicin
	if err := tx.First(&m, medicinID).Error; err != nil {
		return nil, notFound("medicin", medicinID, err)
	}
	next := m.Qty() + delta
	if next < 0 {
		return nil, fmt.Errorf("%w: medicin %d has %d, needs %d", common.ErrInsufficientStock, m.ID, m.Qty(), -delta)
	}
	m.Quantity = &next
	if err := tx.Model(&m).Update("quantity", next).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// AdjustMedicinClamped is AdjustMedicin that floors the result at zero.
// Used when removing stock that may already have been consumed.
func AdjustMedicinClamped(tx *gorm.DB, medicinID uint, delta int) (*models.Medicin, error) {
	var m models.Medicin
	if err := tx.First(&m, medicinID).Error; err != nil {
		return nil, notFound("medicin", medicinID, err)
	}
	next := m.Qty() + delta
	if next < 0 {
		next = 0
	}
	m.Quantity = &next
	if err := tx.Model(&m).Update("quantity", next).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func AdjustLot(tx *gorm.DB, lotID uint, delta int) (*models.Lot, error) {
	var l models.Lot
	if err := tx.First(&l, lotID).Error; err != nil {
		return nil, notFound("lot", lotID, err)
	}
	next := l.Quantite + delta
	if next < 0 {
		return nil, fmt.Errorf("%w: lot %s has %d, needs %d", common.ErrInsufficientStock, l.NumeroLot, l.Quantite, -delta)
	}
	l.Quantite = next
	if err := tx.Model(&l).Update("quantite", next).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// Apply books the effect of mv. direction is +1 to apply and -1 to revert.
// With a lot, both the lot and its medicine move; without one, only the
// medicine does. It returns the medicine after the change.
func Apply(tx *gorm.DB, mv *models.StockMovement, direction int) (*models.Medicin, error) {
	delta := mv.Type.Sign() * mv.Quantite * direction

	medicinID := uint(0)
	if mv.MedicinID != nil {
		medicinID = *mv.MedicinID
	}

	if mv.LotID != nil {
		lot, err := AdjustLot(tx, *mv.LotID, delta)
		if err != nil {
			return nil, err
		}
		if medicinID != 0 && medicinID != lot.MedicinID {
			return nil, fmt.Errorf("%w: lot %d does not belong to medicin %d", common.ErrValidation, lot.ID, medicinID)
		}
		medicinID = lot.MedicinID
		// keep the movement pointing at both sides once resolved
		mv.MedicinID = &medicinID
	}

	if medicinID == 0 {
		return nil, fmt.Errorf("%w: movement has neither lot nor medicin", common.ErrValidation)
	}
	return AdjustMedicin(tx, medicinID, delta)
}

// Revert cancels the effect of mv. When the lot (or, for a movement without
// lot, the medicine) has been deleted, its stock is already gone: nothing is
// adjusted and the returned medicine is nil.
func Revert(tx *gorm.DB, mv *models.StockMovement) (*models.Medicin, error) {
	gone, err := orphaned(tx, mv)
	if err != nil || gone {
		return nil, err
	}
	return Apply(tx, mv, -1)
}

// orphaned reports whether the row mv acts on no longer exists. A lot never
// outlives its medicine, so the lot is the only row checked when set.
func orphaned(tx *gorm.DB, mv *models.StockMovement) (bool, error) {
	var n int64
	switch {
	case mv.LotID != nil:
		err := tx.Model(&models.Lot{}).Where("id = ?", *mv.LotID).Count(&n).Error
		return n == 0, err
	case mv.MedicinID != nil:
		err := tx.Model(&models.Medicin{}).Where("id = ?", *mv.MedicinID).Count(&n).Error
		return n == 0, err
	}
	return false, nil
}

// Describe renders the journal line written for a movement.
func Describe(t api.MovementType, qty int, motif string) string {
	return fmt.Sprintf("Mouvement de stock: %s de %d unités, motif: %s", t.Label(), qty, motif)
}

func notFound(kind string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", kind, id, common.ErrNotFound)
	}
	return err
}

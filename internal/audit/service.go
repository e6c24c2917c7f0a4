package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gestion-stock/internal/api"
	"gestion-stock/internal/common"
	"gestion-stock/internal/database"
	"gestion-stock/internal/models"
	"gestion-stock/internal/stock"

	"gorm.io/gorm"
)

const (
	EntityMedicin = "medicin"
	EntityLot     = "lot"
)

type HistoryOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      api.HistoryAction
	MedicinName string
	Before      any
	After       any
}

// WriteHistory stores one history entry. Before/After are kept as JSON.
func WriteHistory(tx *gorm.DB, opts HistoryOptions) error {
	h := models.MedicinHistory{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		MedicinName: opts.MedicinName,
		DateAction:  api.Now(),
		BeforeData:  toJSON(opts.Before),
		AfterData:   toJSON(opts.After),
	}
	if err := tx.Create(&h).Error; err != nil {
		return fmt.Errorf("history entry not saved: %w", err)
	}
	return nil
}

// WriteAction appends a line to the action log.
func WriteAction(tx *gorm.DB, userID uint, action string) error {
	l := models.ActionLog{
		Action:        action,
		DateAction:    api.Now(),
		UtilisateurID: userID,
	}
	if err := tx.Create(&l).Error; err != nil {
		return fmt.Errorf("action log not saved: %w", err)
	}
	return nil
}

var (
	ErrAlreadyUndone = errors.New("history entry already undone")
	ErrNotUndoable   = errors.New("history entry cannot be undone")
)

// UndoHistory reverts the change recorded by entry id and records the undo.
func UndoHistory(id, userID uint, userName string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var h models.MedicinHistory
		if err := tx.First(&h, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("history %d: %w", id, common.ErrNotFound)
			}
			return err
		}
		if h.IsUndone {
			return ErrAlreadyUndone
		}

		var err error
		switch h.EntityType {
		case EntityMedicin:
			err = undoMedicin(tx, &h)
		case EntityLot:
			err = undoLot(tx, &h)
		default:
			err = fmt.Errorf("%w: unknown entity %q", ErrNotUndoable, h.EntityType)
		}
		if err != nil {
			return err
		}

		now := time.Now()
		h.IsUndone = true
		h.UndoneBy = &userID
		h.UndoneAt = &now
		if err := tx.Save(&h).Error; err != nil {
			return fmt.Errorf("history entry not updated: %w", err)
		}

		return WriteHistory(tx, HistoryOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  h.EntityType,
			EntityID:    h.EntityID,
			Action:      api.HistoryUndo,
			MedicinName: h.MedicinName,
			Before:      rawJSON(h.AfterData),
			After:       rawJSON(h.BeforeData),
		})
	})
}

func undoMedicin(tx *gorm.DB, h *models.MedicinHistory) error {
	switch h.Action {
	case api.HistoryCreate:
		if err := tx.Where("medicin_id = ?", h.EntityID).Delete(&models.Lot{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Medicin{}, h.EntityID).Error

	case api.HistoryUpdate:
		var before api.Medicin
		if err := json.Unmarshal([]byte(h.BeforeData), &before); err != nil {
			return err
		}
		var m models.Medicin
		if err := tx.First(&m, h.EntityID).Error; err != nil {
			return fmt.Errorf("medicin %d: %w", h.EntityID, common.ErrNotFound)
		}
		m.Apply(before)
		return tx.Save(&m).Error

	case api.HistoryDelete:
		var before api.Medicin
		if err := json.Unmarshal([]byte(h.BeforeData), &before); err != nil {
			return err
		}
		m := models.Medicin{ID: h.EntityID, UserID: uint(before.UserID)}
		m.Apply(before)
		return tx.Create(&m).Error
	}
	return ErrNotUndoable
}

// Lot undo keeps the owning medicine quantity in step with the lot.
func undoLot(tx *gorm.DB, h *models.MedicinHistory) error {
	switch h.Action {
	case api.HistoryCreate:
		var l models.Lot
		if err := tx.First(&l, h.EntityID).Error; err != nil {
			return fmt.Errorf("lot %d: %w", h.EntityID, common.ErrNotFound)
		}
		if _, err := stock.AdjustMedicinClamped(tx, l.MedicinID, -l.Quantite); err != nil {
			return err
		}
		return tx.Delete(&l).Error

	case api.HistoryUpdate:
		var before api.Lot
		if err := json.Unmarshal([]byte(h.BeforeData), &before); err != nil {
			return err
		}
		var l models.Lot
		if err := tx.First(&l, h.EntityID).Error; err != nil {
			return fmt.Errorf("lot %d: %w", h.EntityID, common.ErrNotFound)
		}
		if _, err := stock.AdjustMedicinClamped(tx, l.MedicinID, before.Quantite-l.Quantite); err != nil {
			return err
		}
		l.NumeroLot = before.NumeroLot
		l.DateExpiration = before.DateExpiration
		l.DateEntree = before.DateEntree
		l.Quantite = before.Quantite
		return tx.Save(&l).Error

	case api.HistoryDelete:
		var before api.Lot
		if err := json.Unmarshal([]byte(h.BeforeData), &before); err != nil {
			return err
		}
		l := models.Lot{
			ID:             h.EntityID,
			NumeroLot:      before.NumeroLot,
			DateExpiration: before.DateExpiration,
			DateEntree:     before.DateEntree,
			Quantite:       before.Quantite,
			MedicinID:      uint(before.MedicinID),
			UserID:         uint(before.UserID),
		}
		if _, err := stock.AdjustMedicin(tx, l.MedicinID, l.Quantite); err != nil {
			return err
		}
		return tx.Create(&l).Error
	}
	return ErrNotUndoable
}

// toJSON returns "null" for nil so the column always holds valid JSON.
func toJSON(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func rawJSON(s string) any {
	if s == "" || s == "null" {
		return nil
	}
	return json.RawMessage(s)
}

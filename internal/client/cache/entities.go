package cache

import (
	"context"
	"fmt"
	"strings"

	"gestion-stock/internal/api"
)

var (
	medicinColumns  = []string{"id", "name", "description", "code_barres", "categorie", "fabriquant", "seuil_alerte", "quantity", "user_id"}
	lotColumns      = []string{"id", "numero_lot", "date_expiration", "date_entree", "quantite", "medicin_id", "user_id"}
	movementColumns = []string{"id", "motif", "date_mouvement", "type", "lot_id", "medicin_id", "utilisateur_id", "quantite"}
	alertColumns    = []string{"id", "type", "message", "est_resolue", "date_alerte", "lot_id", "medicin_id"}
	logColumns      = []string{"id", "action", "date_action", "utilisateur_id"}
	userColumns     = []string{"id", "username", "email", "role", "blocked"}
)

type MedicinStore struct{ *table[api.Medicin] }

// LowStock mirrors the server rule: quantity <= seuilAlerte, both set.
func (s *MedicinStore) LowStock(ctx context.Context, userID *int64) ([]api.Medicin, error) {
	cond := "quantity IS NOT NULL AND seuil_alerte IS NOT NULL AND quantity <= seuil_alerte"
	if userID != nil {
		return s.where(ctx, cond+" AND user_id = ?", *userID)
	}
	return s.where(ctx, cond)
}

func (s *MedicinStore) ByCategory(ctx context.Context, category string) ([]api.Medicin, error) {
	return s.where(ctx, "categorie = ? COLLATE NOCASE", category)
}

type LotStore struct{ *table[api.Lot] }

func (s *LotStore) ByMedicin(ctx context.Context, medicinID int64) ([]api.Lot, error) {
	return s.where(ctx, "medicin_id = ?", medicinID)
}

// DeleteByMedicin drops the lots the server removed along with their medicin.
func (s *LotStore) DeleteByMedicin(ctx context.Context, medicinID int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+s.name+" WHERE medicin_id = ?", medicinID); err != nil {
		return fmt.Errorf("failed to delete lots of medicin %d: %w", medicinID, err)
	}
	s.notifier.Notify(s.name)
	return nil
}

// ExpiringBefore returns lots expiring on or before day that still hold stock.
func (s *LotStore) ExpiringBefore(ctx context.Context, day api.LocalDate) ([]api.Lot, error) {
	return s.where(ctx, "date_expiration IS NOT NULL AND date_expiration <= ? AND quantite > 0", day)
}

type MovementStore struct{ *table[api.StockMovement] }

// MovementFilter fields are ignored when zero. To is inclusive.
type MovementFilter struct {
	Type      api.MovementType
	From, To  api.LocalDate
	MedicinID int64
}

func (s *MovementStore) Filter(ctx context.Context, f MovementFilter) ([]api.StockMovement, error) {
	var (
		conds []string
		args  []any
	)
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, f.Type)
	}
	if !f.From.IsZero() {
		conds = append(conds, "date_mouvement >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		conds = append(conds, "date_mouvement < ?")
		args = append(args, f.To.AddDays(1).String())
	}
	if f.MedicinID > 0 {
		conds = append(conds, "medicin_id = ?")
		args = append(args, f.MedicinID)
	}
	return s.where(ctx, strings.Join(conds, " AND "), args...)
}

type AlertStore struct{ *table[api.Alert] }

func (s *AlertStore) Active(ctx context.Context) ([]api.Alert, error) {
	return s.where(ctx, "est_resolue = 0")
}

type LogStore struct{ *table[api.ActionLog] }

// LogFilter fields are ignored when zero. To is inclusive.
type LogFilter struct {
	UserID   int64
	Keyword  string
	From, To api.LocalDate
}

func (s *LogStore) Filter(ctx context.Context, f LogFilter) ([]api.ActionLog, error) {
	var (
		conds []string
		args  []any
	)
	if f.UserID > 0 {
		conds = append(conds, "utilisateur_id = ?")
		args = append(args, f.UserID)
	}
	if f.Keyword != "" {
		conds = append(conds, "action LIKE ?")
		args = append(args, "%"+f.Keyword+"%")
	}
	if !f.From.IsZero() {
		conds = append(conds, "date_action >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		conds = append(conds, "date_action < ?")
		args = append(args, f.To.AddDays(1).String())
	}
	return s.where(ctx, strings.Join(conds, " AND "), args...)
}

type UserStore struct{ *table[api.User] }

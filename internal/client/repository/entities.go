package repository

import (
	"context"

	"gestion-stock/internal/api"
	"gestion-stock/internal/validation"
)

type LowStockSource interface {
	LowStock(ctx context.Context, userID *int64) ([]api.Medicin, error)
}

// LotPurger is the local lot mirror.
type LotPurger interface {
	DeleteByMedicin(ctx context.Context, medicinID int64) error
}

type MedicinRepository struct {
	*Repository[api.Medicin]
	low  LowStockSource
	lots LotPurger
}

func NewMedicinRepository(remote Remote[api.Medicin], local Local[api.Medicin], low LowStockSource, lots LotPurger) *MedicinRepository {
	return &MedicinRepository{
		Repository: New(remote, local, validation.Medicin),
		low:        low,
		lots:       lots,
	}
}

// DeleteRemote also drops the medicin's lots from the cache, since the server
// deletes them with it.
func (r *MedicinRepository) DeleteRemote(ctx context.Context, id int64) error {
	if err := r.Repository.DeleteRemote(ctx, id); err != nil {
		return err
	}
	if err := r.lots.DeleteByMedicin(ctx, id); err != nil {
		return localErr(err)
	}
	return nil
}

// GetLowStock asks the server and mirrors the answer.
func (r *MedicinRepository) GetLowStock(ctx context.Context, userID *int64) ([]api.Medicin, error) {
	items, err := r.low.LowStock(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := r.local.UpsertAll(ctx, items); err != nil {
		return items, localErr(err)
	}
	return items, nil
}

type LotRepository struct {
	*Repository[api.Lot]
	medicins *Repository[api.Medicin]
}

func NewLotRepository(remote Remote[api.Lot], local Local[api.Lot], medicins *Repository[api.Medicin]) *LotRepository {
	return &LotRepository{
		Repository: New(remote, local, validation.Lot),
		medicins:   medicins,
	}
}

// The server moves the medicine quantity with its lots, so the medicine
// mirror is refreshed after every lot write.

func (r *LotRepository) CreateRemote(ctx context.Context, l api.Lot) (api.Lot, error) {
	created, err := r.Repository.CreateRemote(ctx, l)
	if err != nil {
		return created, err
	}
	_, err = r.medicins.Refresh(ctx, created.MedicinID)
	return created, err
}

func (r *LotRepository) UpdateRemote(ctx context.Context, id int64, l api.Lot) (api.Lot, error) {
	updated, err := r.Repository.UpdateRemote(ctx, id, l)
	if err != nil {
		return updated, err
	}
	_, err = r.medicins.Refresh(ctx, updated.MedicinID)
	return updated, err
}

func (r *LotRepository) DeleteRemote(ctx context.Context, id int64) error {
	lot, lookupErr := r.local.Get(ctx, id)
	if err := r.Repository.DeleteRemote(ctx, id); err != nil {
		return err
	}
	if lookupErr != nil {
		return nil
	}
	_, err := r.medicins.Refresh(ctx, lot.MedicinID)
	return err
}

type MovementRepository struct {
	*Repository[api.StockMovement]
	medicins *Repository[api.Medicin]
	lots     *Repository[api.Lot]
}

func NewMovementRepository(remote Remote[api.StockMovement], local Local[api.StockMovement], medicins *Repository[api.Medicin], lots *Repository[api.Lot]) *MovementRepository {
	return &MovementRepository{
		Repository: New(remote, local, validation.StockMovement),
		medicins:   medicins,
		lots:       lots,
	}
}

// CreateRemote records the movement and refreshes the affected medicine and
// lot mirrors from the server.
func (r *MovementRepository) CreateRemote(ctx context.Context, mv api.StockMovement) (api.StockMovement, error) {
	created, err := r.Repository.CreateRemote(ctx, mv)
	if err != nil {
		return created, err
	}
	return created, r.refresh(ctx, created)
}

func (r *MovementRepository) UpdateRemote(ctx context.Context, id int64, mv api.StockMovement) (api.StockMovement, error) {
	prev, prevErr := r.local.Get(ctx, id)
	updated, err := r.Repository.UpdateRemote(ctx, id, mv)
	if err != nil {
		return updated, err
	}
	if prevErr == nil {
		if err := r.refresh(ctx, prev); err != nil {
			return updated, err
		}
	}
	return updated, r.refresh(ctx, updated)
}

func (r *MovementRepository) DeleteRemote(ctx context.Context, id int64) error {
	prev, prevErr := r.local.Get(ctx, id)
	if err := r.Repository.DeleteRemote(ctx, id); err != nil {
		return err
	}
	if prevErr != nil {
		return nil
	}
	return r.refresh(ctx, prev)
}

func (r *MovementRepository) refresh(ctx context.Context, mv api.StockMovement) error {
	if mv.LotID != nil {
		if _, err := r.lots.Refresh(ctx, *mv.LotID); err != nil {
			return err
		}
	}
	if mv.MedicinID != nil {
		if _, err := r.medicins.Refresh(ctx, *mv.MedicinID); err != nil {
			return err
		}
	}
	return nil
}

type AlertResolver interface {
	ResolveAlert(ctx context.Context, id int64) (api.Alert, error)
}

type AlertRepository struct {
	*Repository[api.Alert]
	resolver AlertResolver
}

func NewAlertRepository(remote Remote[api.Alert], local Local[api.Alert], resolver AlertResolver) *AlertRepository {
	return &AlertRepository{
		Repository: New(remote, local, validation.Alert),
		resolver:   resolver,
	}
}

func (r *AlertRepository) Resolve(ctx context.Context, id int64) (api.Alert, error) {
	a, err := r.resolver.ResolveAlert(ctx, id)
	if err != nil {
		return a, err
	}
	if err := r.local.Upsert(ctx, a); err != nil {
		return a, localErr(err)
	}
	return a, nil
}

func NewLogRepository(remote Remote[api.ActionLog], local Local[api.ActionLog]) *Repository[api.ActionLog] {
	return New(remote, local, validation.ActionLog)
}

// UserSource lists users; the admin variant includes the blocked flag.
type UserSource interface {
	Users(ctx context.Context) ([]api.User, error)
	AllUsers(ctx context.Context) ([]api.User, error)
	Block(ctx context.Context, id int64) (string, error)
	Unblock(ctx context.Context, id int64) (string, error)
}

// UserRepository mirrors the user directory. Users are created through
// registration, not through this repository.
type UserRepository struct {
	source UserSource
	local  Local[api.User]
}

func NewUserRepository(source UserSource, local Local[api.User]) *UserRepository {
	return &UserRepository{source: source, local: local}
}

func (r *UserRepository) Watch(ctx context.Context) (<-chan []api.User, error) {
	ch, err := r.local.Watch(ctx)
	if err != nil {
		return nil, localErr(err)
	}
	return ch, nil
}

func (r *UserRepository) ListLocal(ctx context.Context) ([]api.User, error) {
	out, err := r.local.List(ctx)
	if err != nil {
		return nil, localErr(err)
	}
	return out, nil
}

// Sync replaces the mirror. admin selects the admin listing.
func (r *UserRepository) Sync(ctx context.Context, admin bool) error {
	list := r.source.Users
	if admin {
		list = r.source.AllUsers
	}
	users, err := list(ctx)
	if err != nil {
		return err
	}
	if err := r.local.ReplaceAll(ctx, users); err != nil {
		return localErr(err)
	}
	return nil
}

// SetBlocked blocks or unblocks id and updates the mirror.
func (r *UserRepository) SetBlocked(ctx context.Context, id int64, blocked bool) (string, error) {
	op := r.source.Unblock
	if blocked {
		op = r.source.Block
	}
	msg, err := op(ctx, id)
	if err != nil {
		return "", err
	}

	u, err := r.local.Get(ctx, id)
	if err != nil {
		// not mirrored yet
		return msg, nil
	}
	u.Blocked = blocked
	if err := r.local.Upsert(ctx, u); err != nil {
		return msg, localErr(err)
	}
	return msg, nil
}

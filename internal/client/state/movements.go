package state

import (
	"context"

	"gestion-stock/internal/api"
)

type MovementRepository interface {
	Watch(ctx context.Context) (<-chan []api.StockMovement, error)
	CreateRemote(ctx context.Context, mv api.StockMovement) (api.StockMovement, error)
	UpdateRemote(ctx context.Context, id int64, mv api.StockMovement) (api.StockMovement, error)
	DeleteRemote(ctx context.Context, id int64) error
	Sync(ctx context.Context) error
}

type MovementFilters struct {
	Type api.MovementType // empty for both directions
}

type MovementState = ListState[api.StockMovement, MovementFilters]

type MovementList struct {
	list[api.StockMovement, MovementFilters]
	repo MovementRepository
}

func NewMovementList(repo MovementRepository) *MovementList {
	l := &MovementList{repo: repo}
	l.id = func(mv api.StockMovement) int64 { return mv.ID }
	l.setID = func(mv *api.StockMovement, id int64) { mv.ID = id }
	return l
}

func (l *MovementList) Load(ctx context.Context) error {
	return l.load(ctx, l.repo.Watch)
}

func (l *MovementList) Sync(ctx context.Context) error {
	if err := l.repo.Sync(ctx); err != nil {
		l.fail(err)
		return err
	}
	return nil
}

func (l *MovementList) Create(ctx context.Context, mv api.StockMovement) (api.StockMovement, error) {
	return l.create(mv, func() (api.StockMovement, error) { return l.repo.CreateRemote(ctx, mv) })
}

func (l *MovementList) Update(ctx context.Context, id int64, mv api.StockMovement) (api.StockMovement, error) {
	mv.ID = id
	return l.replace(id, mv, func() (api.StockMovement, error) { return l.repo.UpdateRemote(ctx, id, mv) })
}

func (l *MovementList) Delete(ctx context.Context, id int64) error {
	return l.remove(id, func() error { return l.repo.DeleteRemote(ctx, id) })
}

func (l *MovementList) SetType(t api.MovementType) {
	l.setFilters(func(f *MovementFilters) { f.Type = t })
}

func (l *MovementList) ClearFilters() {
	l.setFilters(func(f *MovementFilters) { *f = MovementFilters{} })
}

func (l *MovementList) Visible() []api.StockMovement {
	s := l.State()
	if s.Filters.Type == "" {
		return s.Items
	}
	out := make([]api.StockMovement, 0, len(s.Items))
	for _, mv := range s.Items {
		if mv.Type == s.Filters.Type {
			out = append(out, mv)
		}
	}
	return out
}

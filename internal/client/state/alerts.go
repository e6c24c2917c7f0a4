package state

import (
	"context"

	"gestion-stock/internal/api"
)

type AlertRepository interface {
	Watch(ctx context.Context) (<-chan []api.Alert, error)
	Resolve(ctx context.Context, id int64) (api.Alert, error)
	Sync(ctx context.Context) error
}

type AlertFilters struct {
	ActiveOnly bool
}

type AlertState = ListState[api.Alert, AlertFilters]

type AlertList struct {
	list[api.Alert, AlertFilters]
	repo AlertRepository
}

func NewAlertList(repo AlertRepository) *AlertList {
	l := &AlertList{repo: repo}
	l.id = func(a api.Alert) int64 { return a.ID }
	l.setID = func(a *api.Alert, id int64) { a.ID = id }
	return l
}

func (l *AlertList) Load(ctx context.Context) error {
	return l.load(ctx, l.repo.Watch)
}

func (l *AlertList) Sync(ctx context.Context) error {
	if err := l.repo.Sync(ctx); err != nil {
		l.fail(err)
		return err
	}
	return nil
}

// Resolve marks the alert resolved at once and restores it if the server
// refuses.
func (l *AlertList) Resolve(ctx context.Context, id int64) (api.Alert, error) {
	a := api.Alert{ID: id}
	items := l.State().Items
	if i := l.index(items, id); i >= 0 {
		a = items[i]
	}
	a.EstResolue = true
	return l.replace(id, a, func() (api.Alert, error) { return l.repo.Resolve(ctx, id) })
}

func (l *AlertList) SetActiveOnly(on bool) {
	l.setFilters(func(f *AlertFilters) { f.ActiveOnly = on })
}

func (l *AlertList) Visible() []api.Alert {
	s := l.State()
	if !s.Filters.ActiveOnly {
		return s.Items
	}
	out := make([]api.Alert, 0, len(s.Items))
	for _, a := range s.Items {
		if !a.EstResolue {
			out = append(out, a)
		}
	}
	return out
}

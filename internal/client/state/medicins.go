package state

import (
	"context"
	"strings"

	"gestion-stock/internal/api"
)

// MedicinRepository is what MedicinList needs from the repository layer.
type MedicinRepository interface {
	Watch(ctx context.Context) (<-chan []api.Medicin, error)
	CreateRemote(ctx context.Context, m api.Medicin) (api.Medicin, error)
	UpdateRemote(ctx context.Context, id int64, m api.Medicin) (api.Medicin, error)
	DeleteRemote(ctx context.Context, id int64) error
	Sync(ctx context.Context) error
}

type MedicinFilters struct {
	Search       string
	Category     string
	LowStockOnly bool
}

type MedicinState = ListState[api.Medicin, MedicinFilters]

// MedicinStats backs the dashboard counters.
type MedicinStats struct {
	Total      int
	LowStock   int
	Sufficient int
	OutOfStock int
	ByCategory map[string]int
}

type MedicinList struct {
	list[api.Medicin, MedicinFilters]
	repo MedicinRepository
}

func NewMedicinList(repo MedicinRepository) *MedicinList {
	l := &MedicinList{repo: repo}
	l.id = func(m api.Medicin) int64 { return m.ID }
	l.setID = func(m *api.Medicin, id int64) { m.ID = id }
	return l
}

func (l *MedicinList) Load(ctx context.Context) error {
	return l.load(ctx, l.repo.Watch)
}

func (l *MedicinList) Sync(ctx context.Context) error {
	if err := l.repo.Sync(ctx); err != nil {
		l.fail(err)
		return err
	}
	return nil
}

func (l *MedicinList) Create(ctx context.Context, m api.Medicin) (api.Medicin, error) {
	return l.create(m, func() (api.Medicin, error) { return l.repo.CreateRemote(ctx, m) })
}

func (l *MedicinList) Update(ctx context.Context, id int64, m api.Medicin) (api.Medicin, error) {
	m.ID = id
	return l.replace(id, m, func() (api.Medicin, error) { return l.repo.UpdateRemote(ctx, id, m) })
}

func (l *MedicinList) Delete(ctx context.Context, id int64) error {
	return l.remove(id, func() error { return l.repo.DeleteRemote(ctx, id) })
}

func (l *MedicinList) SetSearch(q string) {
	l.setFilters(func(f *MedicinFilters) { f.Search = q })
}

func (l *MedicinList) SetCategory(c string) {
	l.setFilters(func(f *MedicinFilters) { f.Category = c })
}

func (l *MedicinList) SetLowStockOnly(on bool) {
	l.setFilters(func(f *MedicinFilters) { f.LowStockOnly = on })
}

func (l *MedicinList) ClearFilters() {
	l.setFilters(func(f *MedicinFilters) { *f = MedicinFilters{} })
}

// Visible returns the items matching the current filters.
func (l *MedicinList) Visible() []api.Medicin {
	s := l.State()
	return FilterMedicins(s.Items, s.Filters)
}

func (l *MedicinList) Stats() MedicinStats {
	return ComputeStats(l.State().Items)
}

func FilterMedicins(items []api.Medicin, f MedicinFilters) []api.Medicin {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]api.Medicin, 0, len(items))
	for _, m := range items {
		if f.Category != "" && !strings.EqualFold(m.Category(), f.Category) {
			continue
		}
		if f.LowStockOnly && !m.IsLowStock() {
			continue
		}
		if q != "" && !matches(q, m.Name, m.Description, m.Fabriquant, m.Category()) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func matches(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func ComputeStats(items []api.Medicin) MedicinStats {
	st := MedicinStats{Total: len(items), ByCategory: make(map[string]int)}
	for _, m := range items {
		if m.IsLowStock() {
			st.LowStock++
		}
		if m.Qty() <= 0 {
			st.OutOfStock++
		}
		if c := m.Category(); c != "" {
			st.ByCategory[c]++
		}
	}
	st.Sufficient = st.Total - st.LowStock
	return st
}

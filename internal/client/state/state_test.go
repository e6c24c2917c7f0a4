package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestion-stock/internal/api"
)

var errOffline = errors.New("offline")

type fakeMedicins struct {
	stream   chan []api.Medicin
	watchErr error
	err      error
	nextID   int64
	synced   int
	// block holds remote calls until released
	block chan struct{}
}

func newFakeMedicins() *fakeMedicins {
	return &fakeMedicins{stream: make(chan []api.Medicin, 4), nextID: 100}
}

func (f *fakeMedicins) wait() {
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeMedicins) Watch(ctx context.Context) (<-chan []api.Medicin, error) {
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	return f.stream, nil
}

func (f *fakeMedicins) CreateRemote(ctx context.Context, m api.Medicin) (api.Medicin, error) {
	f.wait()
	if f.err != nil {
		return api.Medicin{}, f.err
	}
	f.nextID++
	m.ID = f.nextID
	return m, nil
}

func (f *fakeMedicins) UpdateRemote(ctx context.Context, id int64, m api.Medicin) (api.Medicin, error) {
	f.wait()
	if f.err != nil {
		return api.Medicin{}, f.err
	}
	return m, nil
}

func (f *fakeMedicins) DeleteRemote(ctx context.Context, id int64) error {
	f.wait()
	return f.err
}

func (f *fakeMedicins) Sync(ctx context.Context) error {
	f.synced++
	return f.err
}

func med(id int64, name, cat string, qty, seuil int) api.Medicin {
	return api.Medicin{ID: id, Name: name, Categorie: api.Ptr(cat), Quantity: api.Ptr(qty), SeuilAlerte: api.Ptr(seuil)}
}

func loaded(t *testing.T, items ...api.Medicin) (*MedicinList, *fakeMedicins) {
	t.Helper()
	repo := newFakeMedicins()
	l := NewMedicinList(repo)
	require.NoError(t, l.Load(t.Context()))
	assert.True(t, l.State().IsLoading)

	repo.stream <- items
	require.Eventually(t, func() bool {
		s := l.State()
		return !s.IsLoading && len(s.Items) == len(items)
	}, time.Second, 5*time.Millisecond)
	return l, repo
}

func TestMedicinListLoadRepublishes(t *testing.T) {
	l, repo := loaded(t, med(1, "Doliprane", "Antalgique", 10, 5))

	l.Select(1)
	require.NotNil(t, l.State().Selected)

	updated := med(1, "Doliprane", "Antalgique", 3, 5)
	repo.stream <- []api.Medicin{updated}
	require.Eventually(t, func() bool {
		s := l.State()
		return s.Selected != nil && s.Selected.Qty() == 3
	}, time.Second, 5*time.Millisecond)

	repo.stream <- []api.Medicin{}
	require.Eventually(t, func() bool { return l.State().Selected == nil }, time.Second, 5*time.Millisecond)
}

func TestMedicinListLoadError(t *testing.T) {
	repo := newFakeMedicins()
	repo.watchErr = errOffline
	l := NewMedicinList(repo)

	require.ErrorIs(t, l.Load(t.Context()), errOffline)
	s := l.State()
	assert.False(t, s.IsLoading)
	assert.ErrorIs(t, s.Error, errOffline)

	l.ClearError()
	assert.NoError(t, l.State().Error)
}

func TestMedicinListOptimisticCreate(t *testing.T) {
	l, repo := loaded(t)
	repo.block = make(chan struct{})

	done := make(chan api.Medicin)
	go func() {
		m, _ := l.Create(context.Background(), med(0, "Smecta", "Digestif", 4, 2))
		done <- m
	}()

	require.Eventually(t, func() bool {
		items := l.State().Items
		return len(items) == 1 && items[0].ID < 0
	}, time.Second, 5*time.Millisecond)

	close(repo.block)
	created := <-done
	items := l.State().Items
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)
	assert.Equal(t, int64(101), created.ID)
}

func TestMedicinListCreateRollback(t *testing.T) {
	l, repo := loaded(t, med(1, "Doliprane", "Antalgique", 10, 5))
	repo.err = errOffline

	_, err := l.Create(t.Context(), med(0, "Smecta", "Digestif", 4, 2))
	require.ErrorIs(t, err, errOffline)

	s := l.State()
	require.Len(t, s.Items, 1)
	assert.Equal(t, int64(1), s.Items[0].ID)
	assert.ErrorIs(t, s.Error, errOffline)
}

func TestMedicinListCreateDoesNotDuplicateStreamedItem(t *testing.T) {
	l, repo := loaded(t)
	repo.block = make(chan struct{})

	done := make(chan struct{})
	go func() {
		_, _ = l.Create(context.Background(), med(0, "Smecta", "Digestif", 4, 2))
		close(done)
	}()
	require.Eventually(t, func() bool { return len(l.State().Items) == 1 }, time.Second, 5*time.Millisecond)

	// the cache emits the created row before the call returns
	repo.stream <- []api.Medicin{med(101, "Smecta", "Digestif", 4, 2)}
	require.Eventually(t, func() bool {
		items := l.State().Items
		return len(items) == 1 && items[0].ID == 101
	}, time.Second, 5*time.Millisecond)

	close(repo.block)
	<-done
	assert.Len(t, l.State().Items, 1)
}

func TestMedicinListUpdateRollback(t *testing.T) {
	l, repo := loaded(t, med(1, "Doliprane", "Antalgique", 10, 5))
	repo.err = errOffline

	_, err := l.Update(t.Context(), 1, med(0, "Doliprane 1000", "Antalgique", 10, 5))
	require.ErrorIs(t, err, errOffline)
	assert.Equal(t, "Doliprane", l.State().Items[0].Name)

	repo.err = nil
	_, err = l.Update(t.Context(), 1, med(0, "Doliprane 1000", "Antalgique", 10, 5))
	require.NoError(t, err)
	assert.Equal(t, "Doliprane 1000", l.State().Items[0].Name)
	assert.Equal(t, int64(1), l.State().Items[0].ID)
}

func TestMedicinListDeleteRollback(t *testing.T) {
	l, repo := loaded(t,
		med(1, "Doliprane", "Antalgique", 10, 5),
		med(2, "Smecta", "Digestif", 4, 2),
		med(3, "Spasfon", "Digestif", 1, 2),
	)
	repo.err = errOffline

	require.ErrorIs(t, l.Delete(t.Context(), 2), errOffline)
	items := l.State().Items
	require.Len(t, items, 3)
	assert.Equal(t, int64(2), items[1].ID)

	repo.err = nil
	l.Select(2)
	require.NoError(t, l.Delete(t.Context(), 2))
	assert.Len(t, l.State().Items, 2)
	assert.Nil(t, l.State().Selected)
}

func TestMedicinListFiltersAndStats(t *testing.T) {
	l, _ := loaded(t,
		med(1, "Doliprane", "Antalgique", 10, 5),
		med(2, "Smecta", "Digestif", 2, 2),
		med(3, "Spasfon", "Digestif", 0, 2),
		api.Medicin{ID: 4, Name: "Vitamine C", Fabriquant: "UPSA"},
	)

	l.SetSearch("upsa")
	assert.Len(t, l.Visible(), 1)

	l.SetSearch("DIGEST")
	assert.Len(t, l.Visible(), 2)

	l.ClearFilters()
	l.SetCategory("digestif")
	l.SetLowStockOnly(true)
	assert.Len(t, l.Visible(), 2)

	l.SetCategory("Antalgique")
	assert.Empty(t, l.Visible())

	l.ClearFilters()
	assert.Len(t, l.Visible(), 4)

	st := l.Stats()
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 2, st.LowStock)
	assert.Equal(t, 2, st.Sufficient)
	assert.Equal(t, 2, st.OutOfStock)
	assert.Equal(t, map[string]int{"Antalgique": 1, "Digestif": 2}, st.ByCategory)
}

func TestMedicinListSync(t *testing.T) {
	repo := newFakeMedicins()
	l := NewMedicinList(repo)
	require.NoError(t, l.Sync(t.Context()))
	assert.Equal(t, 1, repo.synced)

	repo.err = errOffline
	require.ErrorIs(t, l.Sync(t.Context()), errOffline)
	assert.ErrorIs(t, l.State().Error, errOffline)
}

func TestSubscribeDeliversLatest(t *testing.T) {
	l := NewMedicinList(newFakeMedicins())
	ctx, cancel := context.WithCancel(t.Context())

	ch := l.Subscribe(ctx)
	first := <-ch
	assert.Empty(t, first.Filters.Search)

	l.SetSearch("a")
	l.SetSearch("ab")
	latest := <-ch
	assert.Equal(t, "ab", latest.Filters.Search)

	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}

type fakeMovements struct {
	stream chan []api.StockMovement
	err    error
}

func (f *fakeMovements) Watch(ctx context.Context) (<-chan []api.StockMovement, error) {
	return f.stream, nil
}

func (f *fakeMovements) CreateRemote(ctx context.Context, mv api.StockMovement) (api.StockMovement, error) {
	if f.err != nil {
		return api.StockMovement{}, f.err
	}
	mv.ID = 50
	return mv, nil
}

func (f *fakeMovements) UpdateRemote(ctx context.Context, id int64, mv api.StockMovement) (api.StockMovement, error) {
	return mv, f.err
}

func (f *fakeMovements) DeleteRemote(ctx context.Context, id int64) error { return f.err }

func (f *fakeMovements) Sync(ctx context.Context) error { return f.err }

func TestMovementList(t *testing.T) {
	repo := &fakeMovements{stream: make(chan []api.StockMovement, 1)}
	l := NewMovementList(repo)
	require.NoError(t, l.Load(t.Context()))

	repo.stream <- []api.StockMovement{
		{ID: 1, Type: api.MovementIn, Quantite: 5},
		{ID: 2, Type: api.MovementOut, Quantite: 2},
	}
	require.Eventually(t, func() bool { return len(l.State().Items) == 2 }, time.Second, 5*time.Millisecond)

	l.SetType(api.MovementOut)
	visible := l.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, int64(2), visible[0].ID)

	repo.err = errOffline
	_, err := l.Create(t.Context(), api.StockMovement{Type: api.MovementOut, Quantite: 1})
	require.ErrorIs(t, err, errOffline)
	assert.Len(t, l.State().Items, 2)

	repo.err = nil
	_, err = l.Create(t.Context(), api.StockMovement{Type: api.MovementOut, Quantite: 1})
	require.NoError(t, err)
	assert.Len(t, l.Visible(), 2)

	l.ClearFilters()
	assert.Len(t, l.Visible(), 3)
}

type fakeAlerts struct {
	stream chan []api.Alert
	err    error
}

func (f *fakeAlerts) Watch(ctx context.Context) (<-chan []api.Alert, error) {
	return f.stream, nil
}

func (f *fakeAlerts) Resolve(ctx context.Context, id int64) (api.Alert, error) {
	if f.err != nil {
		return api.Alert{}, f.err
	}
	return api.Alert{ID: id, Type: api.AlertStock, EstResolue: true}, nil
}

func (f *fakeAlerts) Sync(ctx context.Context) error { return f.err }

func TestAlertList(t *testing.T) {
	repo := &fakeAlerts{stream: make(chan []api.Alert, 1)}
	l := NewAlertList(repo)
	require.NoError(t, l.Load(t.Context()))

	repo.stream <- []api.Alert{
		{ID: 1, Type: api.AlertStock},
		{ID: 2, Type: api.AlertExpiration, EstResolue: true},
	}
	require.Eventually(t, func() bool { return len(l.State().Items) == 2 }, time.Second, 5*time.Millisecond)

	l.SetActiveOnly(true)
	assert.Len(t, l.Visible(), 1)

	repo.err = errOffline
	_, err := l.Resolve(t.Context(), 1)
	require.ErrorIs(t, err, errOffline)
	assert.False(t, l.State().Items[0].EstResolue)
	assert.Len(t, l.Visible(), 1)

	repo.err = nil
	_, err = l.Resolve(t.Context(), 1)
	require.NoError(t, err)
	assert.True(t, l.State().Items[0].EstResolue)
	assert.Empty(t, l.Visible())
}

func TestDailyCounts(t *testing.T) {
	at := func(d, h int) api.LocalDateTime {
		return api.DateTimeOf(time.Date(2024, 3, d, h, 0, 0, 0, time.UTC))
	}
	counts := DailyCounts([]api.History{
		{ID: 1, DateAction: at(5, 9)},
		{ID: 2, DateAction: at(3, 10)},
		{ID: 3, DateAction: at(5, 18)},
	})

	require.Len(t, counts, 2)
	assert.Equal(t, "2024-03-03", counts[0].Day.String())
	assert.Equal(t, 1, counts[0].Count)
	assert.Equal(t, "2024-03-05", counts[1].Day.String())
	assert.Equal(t, 2, counts[1].Count)

	assert.Empty(t, DailyCounts(nil))
}

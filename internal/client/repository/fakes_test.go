package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gestion-stock/internal/api"
	"gestion-stock/internal/common"
)

// fakeRemote is an in-memory server keyed by id. Calls counts every request.
type fakeRemote[T any] struct {
	mu     sync.Mutex
	items  map[int64]T
	nextID int64
	getID  func(T) int64
	setID  func(*T, int64)
	err    error
	Calls  int
}

func newFakeRemote[T any](getID func(T) int64, setID func(*T, int64)) *fakeRemote[T] {
	return &fakeRemote[T]{items: map[int64]T{}, getID: getID, setID: setID}
}

func (f *fakeRemote[T]) List(ctx context.Context) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]T, 0, len(f.items))
	for _, v := range f.items {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeRemote[T]) Get(ctx context.Context, id int64) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	v, ok := f.items[id]
	if !ok {
		return v, common.ErrNotFound
	}
	return v, f.err
}

func (f *fakeRemote[T]) Create(ctx context.Context, v T) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.err != nil {
		var zero T
		return zero, f.err
	}
	f.nextID++
	f.setID(&v, f.nextID)
	f.items[f.nextID] = v
	return v, nil
}

func (f *fakeRemote[T]) Update(ctx context.Context, id int64, v T) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.err != nil {
		var zero T
		return zero, f.err
	}
	if _, ok := f.items[id]; !ok {
		var zero T
		return zero, common.ErrNotFound
	}
	f.setID(&v, id)
	f.items[id] = v
	return v, nil
}

func (f *fakeRemote[T]) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.err != nil {
		return f.err
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRemote[T]) put(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[f.getID(v)] = v
}

// fakeLocal is a map-backed cache. failWith makes every call fail.
type fakeLocal[T any] struct {
	mu       sync.Mutex
	items    map[int64]T
	getID    func(T) int64
	failWith error
}

func newFakeLocal[T any](getID func(T) int64) *fakeLocal[T] {
	return &fakeLocal[T]{items: map[int64]T{}, getID: getID}
}

func (f *fakeLocal[T]) Watch(ctx context.Context) (<-chan []T, error) {
	items, err := f.List(ctx)
	if err != nil {
		return nil, err
	}
	ch := make(chan []T, 1)
	ch <- items
	close(ch)
	return ch, nil
}

func (f *fakeLocal[T]) List(ctx context.Context) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]T, 0, len(f.items))
	for _, v := range f.items {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeLocal[T]) Get(ctx context.Context, id int64) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.items[id]
	if !ok {
		return v, fmt.Errorf("id %d: %w", id, common.ErrNotFound)
	}
	return v, f.failWith
}

func (f *fakeLocal[T]) Upsert(ctx context.Context, v T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.items[f.getID(v)] = v
	return nil
}

func (f *fakeLocal[T]) UpsertAll(ctx context.Context, vs []T) error {
	for _, v := range vs {
		if err := f.Upsert(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeLocal[T]) ReplaceAll(ctx context.Context, vs []T) error {
	f.mu.Lock()
	if f.failWith != nil {
		f.mu.Unlock()
		return f.failWith
	}
	f.items = map[int64]T{}
	f.mu.Unlock()
	return f.UpsertAll(ctx, vs)
}

func (f *fakeLocal[T]) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	delete(f.items, id)
	return nil
}

var errDisk = errors.New("disk full")

func medicinID(m api.Medicin) int64 { return m.ID }
func setMedicinID(m *api.Medicin, id int64) { m.ID = id }
func lotID(l api.Lot) int64 { return l.ID }
func setLotID(l *api.Lot, id int64) { l.ID = id }
func movementID(m api.StockMovement) int64 { return m.ID }
func setMovementID(m *api.StockMovement, id int64) { m.ID = id }
func alertID(a api.Alert) int64 { return a.ID }
func setAlertID(a *api.Alert, id int64) { a.ID = id }
func userID(u api.User) int64 { return u.ID }

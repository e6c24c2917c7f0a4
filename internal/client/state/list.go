package state

import (
	"context"
	"slices"
	"sync/atomic"
)

// ListState is the snapshot shared by the entity lists.
type ListState[T any, F any] struct {
	IsLoading bool
	Error     error
	Items     []T
	Selected  *T
	Filters   F
}

// list implements loading, selection and optimistic writes for one entity.
// Optimistic items get negative ids until the server answers.
type list[T any, F any] struct {
	holder[ListState[T, F]]
	id    func(T) int64
	setID func(*T, int64)
	temp  atomic.Int64
}

func (l *list[T, F]) State() ListState[T, F] {
	return l.get()
}

func (l *list[T, F]) Subscribe(ctx context.Context) <-chan ListState[T, F] {
	return l.subscribe(ctx)
}

// load marks the list as loading and republishes every emission of watch
// until ctx is done.
func (l *list[T, F]) load(ctx context.Context, watch func(context.Context) (<-chan []T, error)) error {
	l.update(func(s *ListState[T, F]) { s.IsLoading = true })

	ch, err := watch(ctx)
	if err != nil {
		l.fail(err)
		return err
	}
	go func() {
		for items := range ch {
			l.update(func(s *ListState[T, F]) {
				s.IsLoading = false
				s.Items = items
				s.Selected = l.find(items, s.Selected)
			})
		}
	}()
	return nil
}

func (l *list[T, F]) fail(err error) {
	l.update(func(s *ListState[T, F]) {
		s.IsLoading = false
		s.Error = err
	})
}

func (l *list[T, F]) create(v T, call func() (T, error)) (T, error) {
	tempID := l.temp.Add(-1)
	l.setID(&v, tempID)
	l.update(func(s *ListState[T, F]) {
		s.Items = append(slices.Clip(s.Items), v)
	})

	created, err := call()

	l.update(func(s *ListState[T, F]) {
		items := slices.DeleteFunc(slices.Clone(s.Items), func(it T) bool { return l.id(it) == tempID })
		if err != nil {
			s.Error = err
		} else if l.index(items, l.id(created)) < 0 {
			items = append(items, created)
		}
		s.Items = items
	})
	return created, err
}

func (l *list[T, F]) replace(id int64, v T, call func() (T, error)) (T, error) {
	var prev T
	found := false
	l.update(func(s *ListState[T, F]) {
		i := l.index(s.Items, id)
		if i < 0 {
			return
		}
		prev, found = s.Items[i], true
		items := slices.Clone(s.Items)
		items[i] = v
		s.Items = items
	})

	updated, err := call()

	l.update(func(s *ListState[T, F]) {
		i := l.index(s.Items, id)
		if err != nil {
			s.Error = err
			if !found || i < 0 {
				return
			}
			v = prev
		} else {
			v = updated
			if i < 0 {
				s.Items = append(slices.Clip(s.Items), v)
				return
			}
		}
		items := slices.Clone(s.Items)
		items[i] = v
		s.Items = items
	})
	return updated, err
}

func (l *list[T, F]) remove(id int64, call func() error) error {
	var prev T
	at := -1
	l.update(func(s *ListState[T, F]) {
		at = l.index(s.Items, id)
		if at < 0 {
			return
		}
		prev = s.Items[at]
		s.Items = slices.Delete(slices.Clone(s.Items), at, at+1)
		if s.Selected != nil && l.id(*s.Selected) == id {
			s.Selected = nil
		}
	})

	err := call()
	if err == nil {
		return nil
	}

	l.update(func(s *ListState[T, F]) {
		s.Error = err
		if at < 0 || l.index(s.Items, id) >= 0 {
			return
		}
		s.Items = slices.Insert(slices.Clone(s.Items), min(at, len(s.Items)), prev)
	})
	return err
}

func (l *list[T, F]) Select(id int64) {
	l.update(func(s *ListState[T, F]) {
		if i := l.index(s.Items, id); i >= 0 {
			v := s.Items[i]
			s.Selected = &v
			return
		}
		s.Selected = nil
	})
}

func (l *list[T, F]) ClearError() {
	l.update(func(s *ListState[T, F]) { s.Error = nil })
}

func (l *list[T, F]) setFilters(fn func(*F)) {
	l.update(func(s *ListState[T, F]) { fn(&s.Filters) })
}

func (l *list[T, F]) index(items []T, id int64) int {
	return slices.IndexFunc(items, func(it T) bool { return l.id(it) == id })
}

// find returns the fresh copy of sel in items, or nil.
func (l *list[T, F]) find(items []T, sel *T) *T {
	if sel == nil {
		return nil
	}
	if i := l.index(items, l.id(*sel)); i >= 0 {
		v := items[i]
		return &v
	}
	return nil
}

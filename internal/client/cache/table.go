package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gestion-stock/internal/common"

	"github.com/jmoiron/sqlx"
)

// table is the storage shared by every mirrored entity. Columns match the db
// tags of the api types; "id" is always the first one.
type table[T any] struct {
	db       *sqlx.DB
	notifier *Notifier
	name     string
	order    string
	columns  []string
	upsert   string
}

func newTable[T any](db *sqlx.DB, n *Notifier, name, order string, columns []string) *table[T] {
	named := make([]string, len(columns))
	updates := make([]string, 0, len(columns)-1)
	for i, c := range columns {
		named[i] = ":" + c
		if c != "id" {
			updates = append(updates, c+" = excluded."+c)
		}
	}
	return &table[T]{
		db:       db,
		notifier: n,
		name:     name,
		order:    order,
		columns:  columns,
		upsert: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
			name, strings.Join(columns, ", "), strings.Join(named, ", "), strings.Join(updates, ", ")),
	}
}

func (t *table[T]) selectSQL(where string) string {
	q := "SELECT " + strings.Join(t.columns, ", ") + " FROM " + t.name
	if where != "" {
		q += " WHERE " + where
	}
	return q + " ORDER BY " + t.order
}

func (t *table[T]) List(ctx context.Context) ([]T, error) {
	return t.where(ctx, "")
}

func (t *table[T]) where(ctx context.Context, cond string, args ...any) ([]T, error) {
	out := []T{}
	if err := t.db.SelectContext(ctx, &out, t.selectSQL(cond), args...); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.name, err)
	}
	return out, nil
}

func (t *table[T]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	err := t.db.GetContext(ctx, &out, t.selectSQL("id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return out, fmt.Errorf("%s %d: %w", t.name, id, common.ErrNotFound)
	}
	if err != nil {
		return out, fmt.Errorf("failed to get %s %d: %w", t.name, id, err)
	}
	return out, nil
}

func (t *table[T]) Upsert(ctx context.Context, v T) error {
	if _, err := t.db.NamedExecContext(ctx, t.upsert, v); err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", t.name, err)
	}
	t.notifier.Notify(t.name)
	return nil
}

func (t *table[T]) UpsertAll(ctx context.Context, vs []T) error {
	return t.tx(ctx, func(tx *sqlx.Tx) error {
		return t.insert(ctx, tx, vs)
	})
}

// ReplaceAll overwrites the whole table with vs in one transaction.
func (t *table[T]) ReplaceAll(ctx context.Context, vs []T) error {
	return t.tx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t.name); err != nil {
			return fmt.Errorf("failed to clear %s: %w", t.name, err)
		}
		return t.insert(ctx, tx, vs)
	})
}

func (t *table[T]) Delete(ctx context.Context, id int64) error {
	if _, err := t.db.ExecContext(ctx, "DELETE FROM "+t.name+" WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", t.name, id, err)
	}
	t.notifier.Notify(t.name)
	return nil
}

// Watch sends the current rows at once and again after every change, until
// ctx is done. The first read error is returned; later ones skip an update.
func (t *table[T]) Watch(ctx context.Context) (<-chan []T, error) {
	changes, unsubscribe := t.notifier.Subscribe(t.name)

	first, err := t.List(ctx)
	if err != nil {
		unsubscribe()
		return nil, err
	}

	out := make(chan []T, 1)
	out <- first
	go func() {
		defer close(out)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
			}
			rows, err := t.List(ctx)
			if err != nil {
				continue
			}
			select {
			case out <- rows:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (t *table[T]) insert(ctx context.Context, tx *sqlx.Tx, vs []T) error {
	for _, v := range vs {
		if _, err := tx.NamedExecContext(ctx, t.upsert, v); err != nil {
			return fmt.Errorf("failed to upsert into %s: %w", t.name, err)
		}
	}
	return nil
}

func (t *table[T]) tx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	t.notifier.Notify(t.name)
	return nil
}

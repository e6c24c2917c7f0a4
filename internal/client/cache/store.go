// Package cache is the local mirror of server data, kept in an embedded
// sqlite database.
package cache

import (
	"context"
	"fmt"

	"gestion-stock/internal/api"
	"gestion-stock/internal/client/cache/migrations"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type Store struct {
	db       *sqlx.DB
	notifier *Notifier

	Medicins  *MedicinStore
	Lots      *LotStore
	Movements *MovementStore
	Alerts    *AlertStore
	Logs      *LogStore
	Users     *UserStore
	Session   *SessionStore
}

func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db.DB, ".")
}

// Open opens (or creates) the cache at dsn and applies migrations.
// ":memory:" gives a private in-memory cache.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one connection: sqlite serializes writers and :memory: is per connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache migrations: %w", err)
	}

	n := NewNotifier()
	return &Store{
		db:        db,
		notifier:  n,
		Medicins:  &MedicinStore{newTable[api.Medicin](db, n, "medicins", "name COLLATE NOCASE, id", medicinColumns)},
		Lots:      &LotStore{newTable[api.Lot](db, n, "lots", "date_expiration, id", lotColumns)},
		Movements: &MovementStore{newTable[api.StockMovement](db, n, "mouvements", "date_mouvement DESC, id DESC", movementColumns)},
		Alerts:    &AlertStore{newTable[api.Alert](db, n, "alertes", "date_alerte DESC, id DESC", alertColumns)},
		Logs:      &LogStore{newTable[api.ActionLog](db, n, "logs", "date_action DESC, id DESC", logColumns)},
		Users:     &UserStore{newTable[api.User](db, n, "users", "username COLLATE NOCASE, id", userColumns)},
		Session:   &SessionStore{db: db},
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for tests and maintenance commands.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

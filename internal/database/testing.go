package database

import (
	"testing"

	"gorm.io/gorm"
)

// OpenTest opens a migrated in-memory sqlite database unique to t and
// installs it as DB for the duration of the test.
func OpenTest(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	prev := DB
	DB = db
	t.Cleanup(func() {
		DB = prev
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

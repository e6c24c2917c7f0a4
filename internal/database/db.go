package database

import (
	"fmt"
	"log"
	"strings"

	"gestion-stock/internal/api"
	"gestion-stock/internal/config"
	"gestion-stock/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	if cfg.AdminEmail != "" {
		created, err := SeedAdmin(DB, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("admin seed failed: %v", err)
		}
		if created {
			log.Printf("administrator %s created", cfg.AdminEmail)
		}
	}

	log.Println("database connected, migration done")
}

// Open connects to postgres or sqlite. Sqlite gets a single connection so
// in-memory databases stay consistent across queries.
func Open(driver, dsn string) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), gcfg)
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(dsn), gcfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Medicin{},
		&models.Lot{},
		&models.StockMovement{},
		&models.Alert{},
		&models.ActionLog{},
		&models.MedicinHistory{},
	)
}

// SeedAdmin creates an administrator unless one already exists.
func SeedAdmin(db *gorm.DB, email, password string) (bool, error) {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", api.RoleAdmin).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	email = strings.TrimSpace(strings.ToLower(email))
	admin := models.User{
		Username:     strings.Split(email, "@")[0],
		Email:        email,
		PasswordHash: string(hash),
		Role:         api.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, err
	}
	return true, nil
}

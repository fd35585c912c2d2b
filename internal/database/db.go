package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thekade/nopolin-appointments/internal/config"
)

// Initialize opens the configured database and runs migrations
func Initialize(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var (
		db  *gorm.DB
		err error
	)

	switch cfg.DBDriver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), gormCfg)
	default:
		dir := filepath.Dir(cfg.DatabasePath)
		if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", mkErr)
		}
		db, err = gorm.Open(sqlite.Open(cfg.DatabasePath), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the schema for all entities
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Lawyer{},
		&Appointment{},
		&CourtCase{},
		&CourtHearing{},
		&RescheduleRequest{},
	)
}

// SupportsRowLocking reports whether the connected dialect understands
// SELECT ... FOR UPDATE. sqlite does not; its single-writer model makes the
// surrounding transaction sufficient there.
func SupportsRowLocking(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

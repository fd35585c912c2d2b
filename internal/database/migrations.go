package database

import (
	"fmt"

	"gorm.io/gorm"
)

// RunMigrations executes all database migrations
func RunMigrations(db *gorm.DB) error {
	if err := Migrate(db); err != nil {
		return err
	}

	// Create indexes for better performance
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createIndexes creates database indexes
func createIndexes(db *gorm.DB) error {
	// Covering index for the conflict scan: lawyer + active statuses + window start
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_appointments_conflict
		ON appointments(lawyer_id, status, appointment_date)
	`).Error; err != nil {
		return err
	}

	// Index for the single-pending-request scan per hearing
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reschedule_requests_hearing_status
		ON reschedule_requests(court_hearing_id, status)
	`).Error; err != nil {
		return err
	}

	// Index for verified lawyer listings
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_lawyers_directory
		ON lawyers(is_verified, is_active, specialization, city)
	`).Error; err != nil {
		return err
	}

	return nil
}

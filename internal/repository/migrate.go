package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// postgres backstops the lock protocol with an exclusion constraint, so a
// writer that bypasses WithResourceLock still cannot double-book.
var postgresConstraints = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,
	`DO $$
BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservations_positive_duration') THEN
    ALTER TABLE reservations ADD CONSTRAINT reservations_positive_duration CHECK (end_time > start_time);
  END IF;
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservations_no_overlap') THEN
    ALTER TABLE reservations ADD CONSTRAINT reservations_no_overlap
      EXCLUDE USING gist (resource_id WITH =, tstzrange(start_time, end_time, '[)') WITH &&)
      WHERE (status <> 'CANCELLED');
  END IF;
END $$`,
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&resourceModel{}, &reservationModel{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, stmt := range postgresConstraints {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply constraint: %w", err)
		}
	}
	return nil
}

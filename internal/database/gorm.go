package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"propcalc/server/internal/models"
)

// OpenGorm opens the same sqlite file through gorm for the batch insert
// path.
func OpenGorm(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}
	return db, nil
}

// NewTestDB opens an in-memory sqlite database for tests.
func NewTestDB() (*gorm.DB, error) {
	return OpenGorm("file::memory:?cache=shared")
}

// MigrateSchema creates the tables the gorm path writes to.
func MigrateSchema(db *gorm.DB) error {
	return db.AutoMigrate(&models.Transaction{}, &models.Area{})
}

// UpsertTransactions bulk-writes one batch with insert-or-ignore semantics
// on the natural key, so re-ingesting the same file never duplicates rows.
// It returns the number of rows actually inserted.
func UpsertTransactions(tx *gorm.DB, batch []*models.Transaction) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		DoNothing: true,
	}).Create(&batch)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to upsert transactions batch: %w", result.Error)
	}
	return result.RowsAffected, nil
}

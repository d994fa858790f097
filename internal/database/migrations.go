package database

import (
	"fmt"
	"strings"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sequences lists every counter row that must exist before the API serves traffic
var sequences = []string{
	constants.TaskSequenceName,
}

// Migrate creates or updates the schema and seeds the sequence rows
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Sequence{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := backfillTitleKeys(db); err != nil {
		return fmt.Errorf("failed to backfill title keys: %w", err)
	}

	if err := seedSequences(db); err != nil {
		return fmt.Errorf("failed to seed sequences: %w", err)
	}

	return nil
}

// seedSequences inserts missing counters, starting them after the highest
// existing task id so databases created before sequences existed keep
// producing fresh numbers.
func seedSequences(db *gorm.DB) error {
	for _, name := range sequences {
		var start int64
		if name == constants.TaskSequenceName {
			if err := db.Unscoped().Model(&models.Task{}).
				Select("COALESCE(MAX(id), 0)").
				Scan(&start).Error; err != nil {
				return err
			}
		}

		seq := models.Sequence{Name: name, LastValue: start}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
			return err
		}
	}
	return nil
}

// backfillTitleKeys fills the folded title of rows written before the column existed
func backfillTitleKeys(db *gorm.DB) error {
	var tasks []models.Task
	return db.Unscoped().Model(&models.Task{}).
		Select("id", "title").
		Where("title_key = ? AND title <> ?", "", "").
		FindInBatches(&tasks, 200, func(tx *gorm.DB, _ int) error {
			for _, t := range tasks {
				if err := db.Unscoped().Model(&models.Task{}).
					Where("id = ?", t.ID).
					UpdateColumn("title_key", strings.ToLower(t.Title)).Error; err != nil {
					return err
				}
			}
			return nil
		}).Error
}

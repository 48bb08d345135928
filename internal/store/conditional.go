package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound means the target row does not exist (or was hard-deleted).
	ErrNotFound = errors.New("record not found")
	// ErrConflict means the caller's expected version no longer matches the
	// stored version: another writer won the race.
	ErrConflict = errors.New("version conflict")
)

// Patch is a typed set of column changes consumed by ConditionalUpdate.
// It replaces per-request SQL string building with a single parameterized
// update path.
type Patch map[string]interface{}

func NewPatch() Patch {
	return Patch{}
}

func (p Patch) Set(column string, value interface{}) Patch {
	p[column] = value
	return p
}

func (p Patch) Has(column string) bool {
	_, ok := p[column]
	return ok
}

func (p Patch) IsEmpty() bool {
	return len(p) == 0
}

// ConditionalUpdate applies patch to the row of model with the given id,
// always bumping version by exactly 1 in the same statement.
//
// When expectedVersion is non-nil the update only matches a row still at that
// version; zero rows affected then means ErrConflict if the row exists and
// ErrNotFound otherwise. When expectedVersion is nil the write is
// unconditional (last write wins) but the version still increments, so later
// conditional writers observe the change. Atomicity comes from the single
// UPDATE statement; there is no in-process locking.
func ConditionalUpdate(db *gorm.DB, model interface{}, id int64, expectedVersion *int, patch Patch) error {
	updates := make(map[string]interface{}, len(patch)+1)
	for column, value := range patch {
		updates[column] = value
	}
	// COALESCE keeps rows created before the version column migration safe.
	updates["version"] = gorm.Expr("COALESCE(version, 0) + 1")

	tx := db.Model(model).Where("id = ?", id)
	if expectedVersion != nil {
		tx = tx.Where("version = ?", *expectedVersion)
	}

	result := tx.Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("conditional update: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		if expectedVersion != nil && rowExists(db, model, id) {
			return ErrConflict
		}
		return ErrNotFound
	}

	return nil
}

func rowExists(db *gorm.DB, model interface{}, id int64) bool {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

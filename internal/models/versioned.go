package models

import "time"

// Versioned is the shared base for every mutable record. Version is the
// optimistic lock token: it starts at 0 and is bumped by exactly 1 on every
// successful write, never decremented.
type Versioned struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Version   int       `json:"version" gorm:"not null;default:0"`
	CreatedBy string    `json:"created_by"`
	UpdatedBy string    `json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SoftDelete marks a record inactive while keeping the row for the audit
// trail. Soft-deleted rows are excluded from reads and reject further
// mutation as not found.
type SoftDelete struct {
	IsDeleted bool       `json:"is_deleted" gorm:"not null;default:false"`
	DeletedBy *string    `json:"deleted_by"`
	DeletedAt *time.Time `json:"deleted_at"`
}

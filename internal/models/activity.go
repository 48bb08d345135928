package models

import "time"

const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// ActivityLog is an append-only audit row: who changed what. Best effort,
// never authoritative state.
type ActivityLog struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	EntityType string    `json:"entity_type" gorm:"not null;index:idx_activity_entity"`
	EntityID   int64     `json:"entity_id" gorm:"not null;index:idx_activity_entity"`
	ActionType string    `json:"action_type" gorm:"not null"`
	UserID     string    `json:"user_id"`
	Changes    string    `json:"changes" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

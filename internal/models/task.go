package models

import "time"

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidPriority reports whether p is one of the three known priorities.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type Task struct {
	Versioned
	SoftDelete

	Title        string     `json:"title" gorm:"not null"`
	Deadline     *time.Time `json:"deadline"`
	Priority     string     `json:"priority" gorm:"not null;default:'medium'"`
	AssignedTo   string     `json:"assigned_to"`
	GoalID       *int64     `json:"goal_id"`
	Completed    bool       `json:"completed" gorm:"not null;default:false"`
	CompletedAt  *time.Time `json:"completed_at"`
	CompletedBy  *string    `json:"completed_by"`
	ScoreAwarded int        `json:"score_awarded" gorm:"not null;default:0"`
}

package models

import "time"

const DefaultGoalCategory = "Personal"

type Goal struct {
	Versioned
	SoftDelete

	Title     string     `json:"title" gorm:"not null"`
	Category  string     `json:"category" gorm:"not null;default:'Personal'"`
	Deadline  *time.Time `json:"deadline"`
	Progress  int        `json:"progress" gorm:"not null;default:0"`
	Completed bool       `json:"completed" gorm:"not null;default:false"`
}

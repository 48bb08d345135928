package models

// Memory is a shared keepsake (photo, note). Unlike Task and Goal it has no
// soft-delete fields: deletes are hard, and any authenticated user may edit
// or remove any memory.
type Memory struct {
	Versioned

	Title     string `json:"title" gorm:"not null"`
	MediaType string `json:"media_type"`
	MediaData string `json:"media_data"`
	Note      string `json:"note"`
}

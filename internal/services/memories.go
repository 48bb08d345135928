package services

import (
	"fmt"
	"strings"

	"couple-planner/backend/internal/models"
	"couple-planner/backend/internal/store"

	"gorm.io/gorm"
)

type MemoryCreate struct {
	Title     string
	MediaType string
	MediaData string
	Note      string
}

type MemoryUpdate struct {
	ID        int64
	Version   *int
	Title     *string
	MediaType *string
	MediaData *string
	Note      *string
}

type MemoryService interface {
	Create(db *gorm.DB, actor string, input MemoryCreate) (models.Memory, error)
	Update(db *gorm.DB, actor string, input MemoryUpdate) (models.Memory, error)
	Delete(db *gorm.DB, id int64) error
	List(db *gorm.DB) ([]models.Memory, error)
}

// MemoryServiceImpl carries no ownership checks: in a two-user trusted system
// either partner may edit or remove any memory. Deletes are hard.
type MemoryServiceImpl struct{}

func NewMemoryService() *MemoryServiceImpl {
	return &MemoryServiceImpl{}
}

func (s *MemoryServiceImpl) Create(db *gorm.DB, actor string, input MemoryCreate) (models.Memory, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.Memory{}, fmt.Errorf("%w: title is required", ErrValidation)
	}

	memory := models.Memory{
		Versioned: models.Versioned{
			CreatedBy: actor,
			UpdatedBy: actor,
		},
		Title:     title,
		MediaType: input.MediaType,
		MediaData: input.MediaData,
		Note:      input.Note,
	}

	if err := db.Create(&memory).Error; err != nil {
		return models.Memory{}, fmt.Errorf("create memory: %w", err)
	}

	return memory, nil
}

func (s *MemoryServiceImpl) Update(db *gorm.DB, actor string, input MemoryUpdate) (models.Memory, error) {
	patch := store.NewPatch()

	if input.Title != nil {
		patch.Set("title", *input.Title)
	}
	if input.MediaType != nil {
		patch.Set("media_type", *input.MediaType)
	}
	if input.MediaData != nil {
		patch.Set("media_data", *input.MediaData)
	}
	if input.Note != nil {
		patch.Set("note", *input.Note)
	}

	patch.Set("updated_by", actor)

	// No pre-check here: the store disambiguates a zero-row update into
	// conflict versus missing row.
	if err := store.ConditionalUpdate(db, &models.Memory{}, input.ID, input.Version, patch); err != nil {
		return models.Memory{}, err
	}

	var updated models.Memory
	if err := db.First(&updated, input.ID).Error; err != nil {
		return models.Memory{}, fmt.Errorf("reload memory: %w", err)
	}

	return updated, nil
}

func (s *MemoryServiceImpl) Delete(db *gorm.DB, id int64) error {
	result := db.Delete(&models.Memory{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete memory: %w", result.Error)
	}
	return nil
}

func (s *MemoryServiceImpl) List(db *gorm.DB) ([]models.Memory, error) {
	var memories []models.Memory
	result := db.Order("created_at DESC").Find(&memories)
	return memories, result.Error
}

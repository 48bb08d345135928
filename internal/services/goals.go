package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"couple-planner/backend/internal/models"
	"couple-planner/backend/internal/store"

	"gorm.io/gorm"
)

type GoalCreate struct {
	Title    string
	Category string
	Deadline *time.Time
}

type GoalUpdate struct {
	ID          int64
	Version     *int
	Title       *string
	Category    *string
	Progress    *int
	Completed   *bool
	Deadline    *time.Time
	HasDeadline bool
}

type GoalService interface {
	Create(db *gorm.DB, actor string, input GoalCreate) (models.Goal, error)
	Update(db *gorm.DB, actor string, input GoalUpdate) (models.Goal, error)
	SoftDelete(db *gorm.DB, actor string, id int64) error
	List(db *gorm.DB) ([]models.Goal, error)
}

// GoalServiceImpl mirrors the task service without scoring, and with strict
// owner-only authorization: goals have no assignee carve-out.
type GoalServiceImpl struct {
	activity ActivityLogger
	now      func() time.Time
}

func NewGoalService(activity ActivityLogger) *GoalServiceImpl {
	return &GoalServiceImpl{activity: activity, now: time.Now}
}

func (s *GoalServiceImpl) Create(db *gorm.DB, actor string, input GoalCreate) (models.Goal, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.Goal{}, fmt.Errorf("%w: title is required", ErrValidation)
	}

	category := input.Category
	if category == "" {
		category = models.DefaultGoalCategory
	}

	goal := models.Goal{
		Versioned: models.Versioned{
			CreatedBy: actor,
			UpdatedBy: actor,
		},
		Title:    title,
		Category: category,
		Deadline: input.Deadline,
	}

	if err := db.Create(&goal).Error; err != nil {
		return models.Goal{}, fmt.Errorf("create goal: %w", err)
	}

	s.log(models.ActionCreate, goal.ID, actor, map[string]interface{}{
		"title":    goal.Title,
		"category": goal.Category,
		"deadline": goal.Deadline,
	})

	return goal, nil
}

func (s *GoalServiceImpl) Update(db *gorm.DB, actor string, input GoalUpdate) (models.Goal, error) {
	var goal models.Goal
	if err := db.First(&goal, input.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Goal{}, ErrNotFound
		}
		return models.Goal{}, fmt.Errorf("load goal: %w", err)
	}
	if goal.IsDeleted {
		return models.Goal{}, ErrNotFound
	}

	if goal.CreatedBy != "" && goal.CreatedBy != actor {
		return models.Goal{}, ErrForbidden
	}

	if input.Progress != nil && (*input.Progress < 0 || *input.Progress > 100) {
		return models.Goal{}, fmt.Errorf("%w: progress must be between 0 and 100", ErrValidation)
	}

	patch := store.NewPatch()
	changes := map[string]interface{}{}

	if input.Title != nil {
		patch.Set("title", *input.Title)
		changes["title"] = *input.Title
	}
	if input.Category != nil {
		patch.Set("category", *input.Category)
		changes["category"] = *input.Category
	}
	if input.HasDeadline {
		patch.Set("deadline", input.Deadline)
		changes["deadline"] = input.Deadline
	}
	if input.Progress != nil {
		patch.Set("progress", *input.Progress)
		changes["progress"] = *input.Progress
	}
	if input.Completed != nil {
		patch.Set("completed", *input.Completed)
		changes["completed"] = *input.Completed
	}

	patch.Set("updated_by", actor)

	if err := store.ConditionalUpdate(db, &models.Goal{}, input.ID, input.Version, patch); err != nil {
		return models.Goal{}, err
	}

	var updated models.Goal
	if err := db.First(&updated, input.ID).Error; err != nil {
		return models.Goal{}, fmt.Errorf("reload goal: %w", err)
	}

	s.log(models.ActionUpdate, input.ID, actor, changes)

	return updated, nil
}

func (s *GoalServiceImpl) SoftDelete(db *gorm.DB, actor string, id int64) error {
	var goal models.Goal
	if err := db.First(&goal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load goal: %w", err)
	}
	if goal.IsDeleted {
		return ErrNotFound
	}
	if goal.CreatedBy != "" && goal.CreatedBy != actor {
		return ErrForbidden
	}

	patch := store.NewPatch().
		Set("is_deleted", true).
		Set("deleted_by", actor).
		Set("deleted_at", s.now()).
		Set("updated_by", actor)

	if err := store.ConditionalUpdate(db, &models.Goal{}, id, nil, patch); err != nil {
		return err
	}

	s.log(models.ActionDelete, id, actor, nil)

	return nil
}

func (s *GoalServiceImpl) List(db *gorm.DB) ([]models.Goal, error) {
	var goals []models.Goal
	result := db.Where("is_deleted = ?", false).
		Order("id DESC").
		Find(&goals)
	return goals, result.Error
}

func (s *GoalServiceImpl) log(action string, id int64, actor string, changes map[string]interface{}) {
	if s.activity != nil {
		s.activity.Append("goal", id, action, actor, changes)
	}
}

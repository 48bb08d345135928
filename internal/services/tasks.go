package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"couple-planner/backend/internal/models"
	"couple-planner/backend/internal/store"

	"gorm.io/gorm"
)

const (
	taskBaseScore       = 10
	taskOnTimeBonus     = 5
	taskSharedGoalBonus = 5
)

type TaskCreate struct {
	Title      string
	Deadline   *time.Time
	Priority   string
	AssignedTo string
	GoalID     *int64
}

// TaskUpdate is a typed patch. Nil pointer fields are unchanged; the Has*
// flags distinguish "absent" from "present but null" for nullable columns.
type TaskUpdate struct {
	ID          int64
	Version     *int
	Title       *string
	Completed   *bool
	Priority    *string
	AssignedTo  *string
	Deadline    *time.Time
	HasDeadline bool
	GoalID      *int64
	HasGoalID   bool
}

type ScoreEntry struct {
	User           string `json:"user" gorm:"column:completed_by"`
	TotalScore     int    `json:"total_score" gorm:"column:total_score"`
	TasksCompleted int    `json:"tasks_completed" gorm:"column:tasks_completed"`
}

type Scoreboard struct {
	Stats     []ScoreEntry `json:"stats"`
	Combined  int          `json:"combined"`
	WeekStart time.Time    `json:"week_start"`
}

type TaskService interface {
	Create(db *gorm.DB, actor string, input TaskCreate) (models.Task, error)
	Update(db *gorm.DB, actor string, input TaskUpdate) (models.Task, error)
	SoftDelete(db *gorm.DB, actor string, id int64) error
	List(db *gorm.DB) ([]models.Task, error)
	WeeklyScoreboard(db *gorm.DB, now time.Time) (Scoreboard, error)
}

type TaskServiceImpl struct {
	activity ActivityLogger
	now      func() time.Time
}

func NewTaskService(activity ActivityLogger) *TaskServiceImpl {
	return &TaskServiceImpl{activity: activity, now: time.Now}
}

func (s *TaskServiceImpl) Create(db *gorm.DB, actor string, input TaskCreate) (models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.Task{}, fmt.Errorf("%w: title is required", ErrValidation)
	}

	priority := input.Priority
	if !models.ValidPriority(priority) {
		priority = models.PriorityMedium
	}

	assignedTo := input.AssignedTo
	if assignedTo == "" {
		assignedTo = actor
	}

	task := models.Task{
		Versioned: models.Versioned{
			CreatedBy: actor,
			UpdatedBy: actor,
		},
		Title:      title,
		Deadline:   input.Deadline,
		Priority:   priority,
		AssignedTo: assignedTo,
		GoalID:     input.GoalID,
	}

	if err := db.Create(&task).Error; err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.log(models.ActionCreate, task.ID, actor, map[string]interface{}{
		"title":       task.Title,
		"deadline":    task.Deadline,
		"priority":    task.Priority,
		"assigned_to": task.AssignedTo,
		"goal_id":     task.GoalID,
	})

	return task, nil
}

func (s *TaskServiceImpl) Update(db *gorm.DB, actor string, input TaskUpdate) (models.Task, error) {
	var task models.Task
	if err := db.First(&task, input.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, fmt.Errorf("load task: %w", err)
	}
	if task.IsDeleted {
		return models.Task{}, ErrNotFound
	}

	isOwner := task.CreatedBy == actor
	isAssigned := task.AssignedTo == actor
	if !isOwner && !isAssigned && task.CreatedBy != "" {
		return models.Task{}, ErrForbidden
	}

	patch := store.NewPatch()
	changes := map[string]interface{}{}

	if input.Title != nil {
		patch.Set("title", *input.Title)
		changes["title"] = *input.Title
	}
	if input.HasGoalID {
		patch.Set("goal_id", input.GoalID)
		changes["goal_id"] = input.GoalID
	}

	if input.Completed != nil {
		patch.Set("completed", *input.Completed)
		changes["completed"] = *input.Completed

		switch {
		case *input.Completed && !task.Completed:
			// Completion transition: score it exactly once.
			score := s.completionScore(task, input)
			now := s.now()
			patch.Set("score_awarded", score)
			patch.Set("completed_at", now)
			patch.Set("completed_by", actor)
			changes["score_awarded"] = score
			changes["completed_by"] = actor
		case !*input.Completed && task.Completed:
			// Reopening revokes the score unconditionally so the pair can't
			// farm points by toggling.
			patch.Set("score_awarded", 0)
			patch.Set("completed_at", nil)
			patch.Set("completed_by", nil)
			changes["score_awarded"] = 0
		}
	}

	if input.HasDeadline {
		patch.Set("deadline", input.Deadline)
		changes["deadline"] = input.Deadline
	}
	if input.Priority != nil {
		priority := *input.Priority
		if !models.ValidPriority(priority) {
			priority = models.PriorityMedium
		}
		patch.Set("priority", priority)
		changes["priority"] = priority
	}
	if input.AssignedTo != nil {
		patch.Set("assigned_to", *input.AssignedTo)
		changes["assigned_to"] = *input.AssignedTo
	}

	patch.Set("updated_by", actor)

	if err := store.ConditionalUpdate(db, &models.Task{}, input.ID, input.Version, patch); err != nil {
		return models.Task{}, err
	}

	var updated models.Task
	if err := db.First(&updated, input.ID).Error; err != nil {
		return models.Task{}, fmt.Errorf("reload task: %w", err)
	}

	s.log(models.ActionUpdate, input.ID, actor, changes)

	return updated, nil
}

// completionScore computes the points for a false→true completion.
// Base 10, priority multiplier (low ×1, medium ×1.5, high ×2, rounded),
// +5 when the applicable deadline has not passed, +5 when an applicable
// shared goal exists. "Applicable" means the update's value when supplied,
// else the stored one.
func (s *TaskServiceImpl) completionScore(task models.Task, input TaskUpdate) int {
	score := float64(taskBaseScore)

	priority := task.Priority
	if input.Priority != nil {
		priority = *input.Priority
	}
	if !models.ValidPriority(priority) {
		priority = models.PriorityMedium
	}
	switch priority {
	case models.PriorityMedium:
		score = math.Round(score * 1.5)
	case models.PriorityHigh:
		score = math.Round(score * 2)
	}

	total := int(score)

	deadline := task.Deadline
	if input.HasDeadline {
		deadline = input.Deadline
	}
	if deadline != nil && !s.now().After(*deadline) {
		total += taskOnTimeBonus
	}

	goalID := task.GoalID
	if input.HasGoalID {
		goalID = input.GoalID
	}
	if goalID != nil {
		total += taskSharedGoalBonus
	}

	return total
}

func (s *TaskServiceImpl) SoftDelete(db *gorm.DB, actor string, id int64) error {
	var task models.Task
	if err := db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load task: %w", err)
	}
	if task.IsDeleted {
		return ErrNotFound
	}
	if task.CreatedBy != "" && task.CreatedBy != actor {
		return ErrForbidden
	}

	patch := store.NewPatch().
		Set("is_deleted", true).
		Set("deleted_by", actor).
		Set("deleted_at", s.now()).
		Set("updated_by", actor)

	if err := store.ConditionalUpdate(db, &models.Task{}, id, nil, patch); err != nil {
		return err
	}

	s.log(models.ActionDelete, id, actor, nil)

	return nil
}

func (s *TaskServiceImpl) List(db *gorm.DB) ([]models.Task, error) {
	var tasks []models.Task
	result := db.Where("is_deleted = ?", false).
		Order("deadline ASC NULLS LAST, id DESC").
		Find(&tasks)
	return tasks, result.Error
}

// WeeklyScoreboard totals score_awarded per completer since the start of the
// current ISO week (Monday 00:00 UTC).
func (s *TaskServiceImpl) WeeklyScoreboard(db *gorm.DB, now time.Time) (Scoreboard, error) {
	weekStart := startOfWeek(now.UTC())

	var stats []ScoreEntry
	result := db.Model(&models.Task{}).
		Select("completed_by, SUM(score_awarded) AS total_score, COUNT(*) AS tasks_completed").
		Where("completed = ? AND is_deleted = ? AND completed_by IS NOT NULL AND completed_at >= ?",
			true, false, weekStart).
		Group("completed_by").
		Order("total_score DESC").
		Scan(&stats)
	if result.Error != nil {
		return Scoreboard{}, result.Error
	}

	combined := 0
	for _, entry := range stats {
		combined += entry.TotalScore
	}

	return Scoreboard{Stats: stats, Combined: combined, WeekStart: weekStart}, nil
}

func startOfWeek(t time.Time) time.Time {
	day := t.Truncate(24 * time.Hour)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

func (s *TaskServiceImpl) log(action string, id int64, actor string, changes map[string]interface{}) {
	if s.activity != nil {
		s.activity.Append("task", id, action, actor, changes)
	}
}

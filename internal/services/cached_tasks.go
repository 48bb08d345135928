package services

import (
	"log"
	"time"

	"couple-planner/backend/internal/cache"
	"couple-planner/backend/internal/models"

	"gorm.io/gorm"
)

const (
	taskListCacheKey   = "tasks:list"
	scoreboardCacheKey = "tasks:scoreboard"
)

// CachedTaskService layers a short-lived redis snapshot over the list and
// scoreboard reads. Every successful mutation invalidates both keys, so a
// reader never sees a record older than the cache TTL. Cache trouble degrades
// to plain database reads.
type CachedTaskService struct {
	taskService TaskService
	cache       cache.Cache
	ttl         time.Duration
}

func NewCachedTaskService(taskService TaskService, cacheInstance cache.Cache, ttl time.Duration) *CachedTaskService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedTaskService{
		taskService: taskService,
		cache:       cacheInstance,
		ttl:         ttl,
	}
}

func (s *CachedTaskService) Create(db *gorm.DB, actor string, input TaskCreate) (models.Task, error) {
	task, err := s.taskService.Create(db, actor, input)
	if err != nil {
		return task, err
	}
	s.invalidate()
	return task, nil
}

func (s *CachedTaskService) Update(db *gorm.DB, actor string, input TaskUpdate) (models.Task, error) {
	task, err := s.taskService.Update(db, actor, input)
	if err != nil {
		return task, err
	}
	s.invalidate()
	return task, nil
}

func (s *CachedTaskService) SoftDelete(db *gorm.DB, actor string, id int64) error {
	if err := s.taskService.SoftDelete(db, actor, id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *CachedTaskService) List(db *gorm.DB) ([]models.Task, error) {
	var cached []models.Task
	if err := s.cache.Get(taskListCacheKey, &cached); err == nil {
		return cached, nil
	}

	tasks, err := s.taskService.List(db)
	if err != nil {
		return tasks, err
	}

	if err := s.cache.Set(taskListCacheKey, tasks, s.ttl); err != nil && err != cache.ErrCacheDown {
		log.Printf("cache: failed to store task list: %v", err)
	}

	return tasks, nil
}

func (s *CachedTaskService) WeeklyScoreboard(db *gorm.DB, now time.Time) (Scoreboard, error) {
	var cached Scoreboard
	if err := s.cache.Get(scoreboardCacheKey, &cached); err == nil {
		return cached, nil
	}

	board, err := s.taskService.WeeklyScoreboard(db, now)
	if err != nil {
		return board, err
	}

	if err := s.cache.Set(scoreboardCacheKey, board, s.ttl); err != nil && err != cache.ErrCacheDown {
		log.Printf("cache: failed to store scoreboard: %v", err)
	}

	return board, nil
}

func (s *CachedTaskService) invalidate() {
	if err := s.cache.Delete(taskListCacheKey, scoreboardCacheKey); err != nil && err != cache.ErrCacheDown {
		log.Printf("cache: failed to invalidate task keys: %v", err)
	}
}

package services

import (
	"log"
	"time"

	"couple-planner/backend/internal/cache"
	"couple-planner/backend/internal/models"

	"gorm.io/gorm"
)

const goalListCacheKey = "goals:list"

// CachedGoalService is the goal counterpart of CachedTaskService.
// Memories are deliberately uncached: their media payloads are large opaque
// blobs that would crowd out the useful keys.
type CachedGoalService struct {
	goalService GoalService
	cache       cache.Cache
	ttl         time.Duration
}

func NewCachedGoalService(goalService GoalService, cacheInstance cache.Cache, ttl time.Duration) *CachedGoalService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedGoalService{
		goalService: goalService,
		cache:       cacheInstance,
		ttl:         ttl,
	}
}

func (s *CachedGoalService) Create(db *gorm.DB, actor string, input GoalCreate) (models.Goal, error) {
	goal, err := s.goalService.Create(db, actor, input)
	if err != nil {
		return goal, err
	}
	s.invalidate()
	return goal, nil
}

func (s *CachedGoalService) Update(db *gorm.DB, actor string, input GoalUpdate) (models.Goal, error) {
	goal, err := s.goalService.Update(db, actor, input)
	if err != nil {
		return goal, err
	}
	s.invalidate()
	return goal, nil
}

func (s *CachedGoalService) SoftDelete(db *gorm.DB, actor string, id int64) error {
	if err := s.goalService.SoftDelete(db, actor, id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *CachedGoalService) List(db *gorm.DB) ([]models.Goal, error) {
	var cached []models.Goal
	if err := s.cache.Get(goalListCacheKey, &cached); err == nil {
		return cached, nil
	}

	goals, err := s.goalService.List(db)
	if err != nil {
		return goals, err
	}

	if err := s.cache.Set(goalListCacheKey, goals, s.ttl); err != nil && err != cache.ErrCacheDown {
		log.Printf("cache: failed to store goal list: %v", err)
	}

	return goals, nil
}

func (s *CachedGoalService) invalidate() {
	if err := s.cache.Delete(goalListCacheKey); err != nil && err != cache.ErrCacheDown {
		log.Printf("cache: failed to invalidate goal list: %v", err)
	}
}

package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"couple-planner/backend/internal/models"

	"gorm.io/gorm"
)

// ActivityLogger is the best-effort audit hook the mutation services call.
// Implementations must never block the mutation path or surface errors to it.
type ActivityLogger interface {
	Append(entityType string, entityID int64, actionType, userID string, changes map[string]interface{})
}

// ActivitySink queues audit rows on a bounded channel and writes them from
// background goroutines. The parent mutation has already committed by the
// time Append runs, so insert failures are logged and swallowed; a full queue
// drops the entry.
type ActivitySink struct {
	db      *gorm.DB
	entries chan models.ActivityLog
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewActivitySink(db *gorm.DB, queueSize int) *ActivitySink {
	if queueSize <= 0 {
		queueSize = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ActivitySink{
		db:      db,
		entries: make(chan models.ActivityLog, queueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *ActivitySink) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.writeLoop()
	}
}

func (s *ActivitySink) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *ActivitySink) Append(entityType string, entityID int64, actionType, userID string, changes map[string]interface{}) {
	payload := "{}"
	if len(changes) > 0 {
		if data, err := json.Marshal(changes); err == nil {
			payload = string(data)
		}
	}

	entry := models.ActivityLog{
		EntityType: entityType,
		EntityID:   entityID,
		ActionType: actionType,
		UserID:     userID,
		Changes:    payload,
	}

	select {
	case s.entries <- entry:
	default:
		log.Printf("activity sink: queue full, dropping %s %s/%d", actionType, entityType, entityID)
	}
}

func (s *ActivitySink) writeLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case entry := <-s.entries:
			if err := s.db.Create(&entry).Error; err != nil {
				log.Printf("activity sink: failed to log %s %s/%d: %v",
					entry.ActionType, entry.EntityType, entry.EntityID, err)
			}
		}
	}
}

// ListActivity returns the audit feed for one entity, newest first.
func ListActivity(db *gorm.DB, entityType string, entityID int64) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	result := db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&logs)
	return logs, result.Error
}

package handlers

import (
	"net/http"
	"strconv"

	"couple-planner/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ActivityHandler struct {
	db *gorm.DB
}

func NewActivityHandler(db *gorm.DB) *ActivityHandler {
	return &ActivityHandler{db: db}
}

// GetActivity serves the audit feed for one entity, newest first.
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	entityType := c.Query("entity_type")
	entityID, err := strconv.ParseInt(c.Query("entity_id"), 10, 64)
	if entityType == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing entity_type or entity_id"})
		return
	}

	logs, err := services.ListActivity(h.db, entityType, entityID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

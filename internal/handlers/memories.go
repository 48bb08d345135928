package handlers

import (
	"net/http"
	"strconv"

	"couple-planner/backend/internal/middleware"
	"couple-planner/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MemoryHandler struct {
	db            *gorm.DB
	memoryService services.MemoryService
}

func NewMemoryHandler(db *gorm.DB, memoryService services.MemoryService) *MemoryHandler {
	return &MemoryHandler{db: db, memoryService: memoryService}
}

type memoryCreateRequest struct {
	Title     string `json:"title" binding:"required"`
	MediaType string `json:"media_type"`
	MediaData string `json:"media_data"`
	Note      string `json:"note"`
}

type memoryUpdateRequest struct {
	ID        int64   `json:"id"`
	Version   *int    `json:"version"`
	Title     *string `json:"title"`
	MediaType *string `json:"media_type"`
	MediaData *string `json:"media_data"`
	Note      *string `json:"note"`
}

func (h *MemoryHandler) CreateMemory(c *gin.Context) {
	user, ok := middleware.ActingUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req memoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid title"})
		return
	}

	memory, err := h.memoryService.Create(h.db, user, services.MemoryCreate{
		Title:     req.Title,
		MediaType: req.MediaType,
		MediaData: req.MediaData,
		Note:      req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, memory)
}

func (h *MemoryHandler) UpdateMemory(c *gin.Context) {
	user, ok := middleware.ActingUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req memoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
		return
	}
	if req.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	memory, err := h.memoryService.Update(h.db, user, services.MemoryUpdate{
		ID:        req.ID,
		Version:   req.Version,
		Title:     req.Title,
		MediaType: req.MediaType,
		MediaData: req.MediaData,
		Note:      req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, memory)
}

func (h *MemoryHandler) DeleteMemory(c *gin.Context) {
	if _, ok := middleware.ActingUser(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	if err := h.memoryService.Delete(h.db, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *MemoryHandler) GetMemories(c *gin.Context) {
	memories, err := h.memoryService.List(h.db)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, memories)
}

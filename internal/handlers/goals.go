package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"couple-planner/backend/internal/middleware"
	"couple-planner/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type GoalHandler struct {
	db          *gorm.DB
	goalService services.GoalService
}

func NewGoalHandler(db *gorm.DB, goalService services.GoalService) *GoalHandler {
	return &GoalHandler{db: db, goalService: goalService}
}

type goalCreateRequest struct {
	Title    string     `json:"title" binding:"required"`
	Category string     `json:"category"`
	Deadline *time.Time `json:"deadline"`
}

type goalUpdateRequest struct {
	ID        int64      `json:"id"`
	Version   *int       `json:"version"`
	Title     *string    `json:"title"`
	Category  *string    `json:"category"`
	Progress  *int       `json:"progress"`
	Completed *bool      `json:"completed"`
	Deadline  *time.Time `json:"deadline"`
}

func (h *GoalHandler) CreateGoal(c *gin.Context) {
	user, ok := middleware.ActingUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req goalCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid title"})
		return
	}

	goal, err := h.goalService.Create(h.db, user, services.GoalCreate{
		Title:    req.Title,
		Category: req.Category,
		Deadline: req.Deadline,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, goal)
}

func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	user, ok := middleware.ActingUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
		return
	}

	var req goalUpdateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
		return
	}
	if req.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	input := services.GoalUpdate{
		ID:        req.ID,
		Version:   req.Version,
		Title:     req.Title,
		Category:  req.Category,
		Progress:  req.Progress,
		Completed: req.Completed,
	}

	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err == nil {
		if _, ok := present["deadline"]; ok {
			input.HasDeadline = true
			input.Deadline = req.Deadline
		}
	}

	goal, err := h.goalService.Update(h.db, user, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, goal)
}

func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	user, ok := middleware.ActingUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	if err := h.goalService.SoftDelete(h.db, user, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *GoalHandler) GetGoals(c *gin.Context) {
	goals, err := h.goalService.List(h.db)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

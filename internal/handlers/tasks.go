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

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService}
}

type taskCreateRequest struct {
	Title      string     `json:"title" binding:"required"`
	Deadline   *time.Time `json:"deadline"`
	Priority   string     `json:"priority"`
	AssignedTo string     `json:"assigned_to"`
	GoalID     *int64     `json:"goal_id"`
}

type taskUpdateRequest struct {
	ID         int64      `json:"id"`
	Version    *int       `json:"version"`
	Title      *string    `json:"title"`
	Completed  *bool      `json:"completed"`
	Priority   *string    `json:"priority"`
	AssignedTo *string    `json:"assigned_to"`
	Deadline   *time.Time `json:"deadline"`
	GoalID     *int64     `json:"goal_id"`
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, ok := middleware.ActingUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req taskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid title"})
		return
	}

	task, err := h.taskService.Create(h.db, user, services.TaskCreate{
		Title:      req.Title,
		Deadline:   req.Deadline,
		Priority:   req.Priority,
		AssignedTo: req.AssignedTo,
		GoalID:     req.GoalID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
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

	var req taskUpdateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
		return
	}
	if req.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	input := services.TaskUpdate{
		ID:         req.ID,
		Version:    req.Version,
		Title:      req.Title,
		Completed:  req.Completed,
		Priority:   req.Priority,
		AssignedTo: req.AssignedTo,
	}

	// A second decode into raw keys separates "field omitted" from
	// "field set to null": null clears a deadline or goal link.
	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err == nil {
		if _, ok := present["deadline"]; ok {
			input.HasDeadline = true
			input.Deadline = req.Deadline
		}
		if _, ok := present["goal_id"]; ok {
			input.HasGoalID = true
			input.GoalID = req.GoalID
		}
	}

	task, err := h.taskService.Update(h.db, user, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
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

	if err := h.taskService.SoftDelete(h.db, user, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	tasks, err := h.taskService.List(h.db)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetScoreboard(c *gin.Context) {
	board, err := h.taskService.WeeklyScoreboard(h.db, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

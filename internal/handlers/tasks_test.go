package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"couple-planner/backend/internal/middleware"
	"couple-planner/backend/internal/models"
	"couple-planner/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type mockTaskService struct {
	createFn func(actor string, input services.TaskCreate) (models.Task, error)
	updateFn func(actor string, input services.TaskUpdate) (models.Task, error)
	deleteFn func(actor string, id int64) error
	listFn   func() ([]models.Task, error)
	boardFn  func(now time.Time) (services.Scoreboard, error)

	lastUpdate services.TaskUpdate
}

func (m *mockTaskService) Create(db *gorm.DB, actor string, input services.TaskCreate) (models.Task, error) {
	if m.createFn != nil {
		return m.createFn(actor, input)
	}
	return models.Task{Title: input.Title}, nil
}

func (m *mockTaskService) Update(db *gorm.DB, actor string, input services.TaskUpdate) (models.Task, error) {
	m.lastUpdate = input
	if m.updateFn != nil {
		return m.updateFn(actor, input)
	}
	return models.Task{}, nil
}

func (m *mockTaskService) SoftDelete(db *gorm.DB, actor string, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(actor, id)
	}
	return nil
}

func (m *mockTaskService) List(db *gorm.DB) ([]models.Task, error) {
	if m.listFn != nil {
		return m.listFn()
	}
	return nil, nil
}

func (m *mockTaskService) WeeklyScoreboard(db *gorm.DB, now time.Time) (services.Scoreboard, error) {
	if m.boardFn != nil {
		return m.boardFn(now)
	}
	return services.Scoreboard{}, nil
}

func newTaskRouter(svc services.TaskService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserKey, "Zaldy")
	})

	h := NewTaskHandler(nil, svc)
	r.GET("/tasks", h.GetTasks)
	r.POST("/tasks", h.CreateTask)
	r.PUT("/tasks", h.UpdateTask)
	r.DELETE("/tasks", h.DeleteTask)
	r.GET("/stats/scoreboard", h.GetScoreboard)

	return r
}

func performJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateTaskReturns201(t *testing.T) {
	svc := &mockTaskService{
		createFn: func(actor string, input services.TaskCreate) (models.Task, error) {
			if actor != "Zaldy" {
				t.Errorf("expected actor Zaldy, got %s", actor)
			}
			return models.Task{Title: input.Title, Priority: models.PriorityMedium}, nil
		},
	}
	r := newTaskRouter(svc)

	w := performJSON(r, http.MethodPost, "/tasks", `{"title":"dishes"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var got models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if got.Title != "dishes" {
		t.Errorf("expected title dishes, got %q", got.Title)
	}
}

func TestCreateTaskMissingTitleReturns400(t *testing.T) {
	r := newTaskRouter(&mockTaskService{})

	w := performJSON(r, http.MethodPost, "/tasks", `{"priority":"high"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreateTaskMalformedJSONReturns400(t *testing.T) {
	r := newTaskRouter(&mockTaskService{})

	w := performJSON(r, http.MethodPost, "/tasks", `{"title":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUpdateTaskConflictReturns409(t *testing.T) {
	svc := &mockTaskService{
		updateFn: func(actor string, input services.TaskUpdate) (models.Task, error) {
			return models.Task{}, services.ErrConflict
		},
	}
	r := newTaskRouter(svc)

	w := performJSON(r, http.MethodPut, "/tasks", `{"id":1,"version":0,"title":"stale"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected an error message in the 409 body")
	}
}

func TestUpdateTaskForbiddenReturns403(t *testing.T) {
	svc := &mockTaskService{
		updateFn: func(actor string, input services.TaskUpdate) (models.Task, error) {
			return models.Task{}, services.ErrForbidden
		},
	}
	r := newTaskRouter(svc)

	w := performJSON(r, http.MethodPut, "/tasks", `{"id":1,"title":"not yours"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestUpdateTaskNotFoundReturns404(t *testing.T) {
	svc := &mockTaskService{
		updateFn: func(actor string, input services.TaskUpdate) (models.Task, error) {
			return models.Task{}, services.ErrNotFound
		},
	}
	r := newTaskRouter(svc)

	w := performJSON(r, http.MethodPut, "/tasks", `{"id":999,"title":"ghost"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestUpdateTaskRequiresID(t *testing.T) {
	r := newTaskRouter(&mockTaskService{})

	w := performJSON(r, http.MethodPut, "/tasks", `{"title":"no id"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUpdateTaskDistinguishesNullFromOmitted(t *testing.T) {
	svc := &mockTaskService{}
	r := newTaskRouter(svc)

	// deadline: null means "clear it", goal_id omitted means "leave it".
	w := performJSON(r, http.MethodPut, "/tasks", `{"id":1,"deadline":null}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !svc.lastUpdate.HasDeadline {
		t.Error("expected HasDeadline to be set for an explicit null")
	}
	if svc.lastUpdate.Deadline != nil {
		t.Error("expected nil deadline for an explicit null")
	}
	if svc.lastUpdate.HasGoalID {
		t.Error("expected HasGoalID unset when goal_id is omitted")
	}

	w = performJSON(r, http.MethodPut, "/tasks", `{"id":1,"goal_id":4}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !svc.lastUpdate.HasGoalID {
		t.Error("expected HasGoalID to be set when goal_id is present")
	}
	if svc.lastUpdate.GoalID == nil || *svc.lastUpdate.GoalID != 4 {
		t.Errorf("expected goal_id 4, got %v", svc.lastUpdate.GoalID)
	}
	if svc.lastUpdate.HasDeadline {
		t.Error("expected HasDeadline unset when deadline is omitted")
	}
}

func TestUpdateTaskVersionZeroIsCarried(t *testing.T) {
	svc := &mockTaskService{}
	r := newTaskRouter(svc)

	w := performJSON(r, http.MethodPut, "/tasks", `{"id":1,"version":0,"title":"x"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.lastUpdate.Version == nil || *svc.lastUpdate.Version != 0 {
		t.Errorf("expected version pointer to 0, got %v", svc.lastUpdate.Version)
	}

	w = performJSON(r, http.MethodPut, "/tasks", `{"id":1,"title":"x"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.lastUpdate.Version != nil {
		t.Errorf("expected nil version when omitted, got %v", svc.lastUpdate.Version)
	}
}

func TestDeleteTaskValidatesID(t *testing.T) {
	r := newTaskRouter(&mockTaskService{})

	for _, path := range []string{"/tasks", "/tasks?id=abc", "/tasks?id=0"} {
		w := performJSON(r, http.MethodDelete, path, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}

	deleted := int64(0)
	svc := &mockTaskService{deleteFn: func(actor string, id int64) error {
		deleted = id
		return nil
	}}
	r = newTaskRouter(svc)

	w := performJSON(r, http.MethodDelete, "/tasks?id=42", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if deleted != 42 {
		t.Errorf("expected delete of 42, got %d", deleted)
	}
}

func TestGetTasksReturnsList(t *testing.T) {
	svc := &mockTaskService{listFn: func() ([]models.Task, error) {
		return []models.Task{{Title: "a"}, {Title: "b"}}, nil
	}}
	r := newTaskRouter(svc)

	w := performJSON(r, http.MethodGet, "/tasks", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got []models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(got))
	}
}

func TestGetScoreboard(t *testing.T) {
	svc := &mockTaskService{boardFn: func(now time.Time) (services.Scoreboard, error) {
		return services.Scoreboard{Combined: 45}, nil
	}}
	r := newTaskRouter(svc)

	w := performJSON(r, http.MethodGet, "/stats/scoreboard", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got services.Scoreboard
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if got.Combined != 45 {
		t.Errorf("expected combined 45, got %d", got.Combined)
	}
}

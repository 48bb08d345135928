package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"couple-planner/backend/internal/config"
	"couple-planner/backend/internal/database"
	"couple-planner/backend/internal/models"
	"couple-planner/backend/internal/services"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestApplication wires the full router against an in-memory database,
// skipping only the redis layer.
func newTestApplication(t *testing.T) *Application {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("shared-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	t.Setenv("JWT_SECRET", "integration-secret")
	t.Setenv("APP_PASSWORD_HASH", string(hash))
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&models.Task{}, &models.Goal{}, &models.Memory{}, &models.ActivityLog{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	app := &Application{
		Config: cfg,
		Pool:   &database.Pool{DB: db},
	}

	app.ActivitySink = services.NewActivitySink(db, cfg.Activity.QueueSize)
	app.ActivitySink.Start(1)
	t.Cleanup(app.ActivitySink.Stop)

	app.TaskService = services.NewTaskService(app.ActivitySink)
	app.GoalService = services.NewGoalService(app.ActivitySink)
	app.MemoryService = services.NewMemoryService()
	app.AuthService = services.NewAuthService(cfg.Auth)

	app.setupRoutes()

	return app
}

func doRequest(app *Application, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, app *Application, username string) string {
	t.Helper()

	body := fmt.Sprintf(`{"username":%q,"password":"shared-password"}`, username)
	w := doRequest(app, http.MethodPost, "/api/v1/auth/login", "", body)
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid login response: %v", err)
	}
	return resp["token"]
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	app := newTestApplication(t)

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		w := doRequest(app, http.MethodGet, path, "", "")
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApplication(t)

	for _, path := range []string{"/api/v1/tasks", "/api/v1/goals", "/api/v1/memories", "/api/v1/stats/scoreboard"} {
		w := doRequest(app, http.MethodGet, path, "", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, w.Code)
		}
	}
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	app := newTestApplication(t)

	w := doRequest(app, http.MethodPost, "/api/v1/auth/login", "", `{"username":"Mallory","password":"shared-password"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	app := newTestApplication(t)
	zaldy := login(t, app, "Zaldy")
	nesya := login(t, app, "Nesya")

	// Create.
	w := doRequest(app, http.MethodPost, "/api/v1/tasks", zaldy, `{"title":"plan the weekend","priority":"high"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %s", w.Code, w.Body.String())
	}
	var task models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("invalid create response: %v", err)
	}
	if task.Version != 0 {
		t.Fatalf("expected version 0, got %d", task.Version)
	}

	// Complete at the observed version.
	body := fmt.Sprintf(`{"id":%d,"version":0,"completed":true}`, task.ID)
	w = doRequest(app, http.MethodPut, "/api/v1/tasks", zaldy, body)
	if w.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d %s", w.Code, w.Body.String())
	}
	var completed models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &completed); err != nil {
		t.Fatalf("invalid update response: %v", err)
	}
	if completed.Version != 1 || !completed.Completed {
		t.Fatalf("expected completed at version 1, got v%d completed=%v", completed.Version, completed.Completed)
	}
	if completed.ScoreAwarded != 20 {
		t.Errorf("expected score 20 for high priority, got %d", completed.ScoreAwarded)
	}

	// A second writer still holding version 0 loses.
	body = fmt.Sprintf(`{"id":%d,"version":0,"title":"stale edit"}`, task.ID)
	w = doRequest(app, http.MethodPut, "/api/v1/tasks", nesya, body)
	if w.Code != http.StatusConflict {
		t.Fatalf("stale write: expected 409, got %d %s", w.Code, w.Body.String())
	}

	// Only the creator may delete.
	w = doRequest(app, http.MethodDelete, fmt.Sprintf("/api/v1/tasks?id=%d", task.ID), nesya, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign delete: expected 403, got %d", w.Code)
	}
	w = doRequest(app, http.MethodDelete, fmt.Sprintf("/api/v1/tasks?id=%d", task.ID), zaldy, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d %s", w.Code, w.Body.String())
	}

	// Gone from the list, gone for mutations.
	w = doRequest(app, http.MethodGet, "/api/v1/tasks", zaldy, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var tasks []models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("invalid list response: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected empty list, got %d tasks", len(tasks))
	}

	body = fmt.Sprintf(`{"id":%d,"title":"zombie"}`, task.ID)
	w = doRequest(app, http.MethodPut, "/api/v1/tasks", zaldy, body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("mutate deleted: expected 404, got %d", w.Code)
	}
}

func TestGoalOwnershipOverHTTP(t *testing.T) {
	app := newTestApplication(t)
	zaldy := login(t, app, "Zaldy")
	nesya := login(t, app, "Nesya")

	w := doRequest(app, http.MethodPost, "/api/v1/goals", zaldy, `{"title":"save for a trip"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %s", w.Code, w.Body.String())
	}
	var goal models.Goal
	if err := json.Unmarshal(w.Body.Bytes(), &goal); err != nil {
		t.Fatalf("invalid create response: %v", err)
	}

	body := fmt.Sprintf(`{"id":%d,"progress":50}`, goal.ID)
	w = doRequest(app, http.MethodPut, "/api/v1/goals", nesya, body)
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign update: expected 403, got %d", w.Code)
	}

	w = doRequest(app, http.MethodPut, "/api/v1/goals", zaldy, body)
	if w.Code != http.StatusOK {
		t.Fatalf("owner update: expected 200, got %d %s", w.Code, w.Body.String())
	}
}

func TestMemoryOpenAccessOverHTTP(t *testing.T) {
	app := newTestApplication(t)
	zaldy := login(t, app, "Zaldy")
	nesya := login(t, app, "Nesya")

	w := doRequest(app, http.MethodPost, "/api/v1/memories", zaldy, `{"title":"first date"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %s", w.Code, w.Body.String())
	}
	var memory models.Memory
	if err := json.Unmarshal(w.Body.Bytes(), &memory); err != nil {
		t.Fatalf("invalid create response: %v", err)
	}

	// Either partner may edit or remove a memory.
	body := fmt.Sprintf(`{"id":%d,"note":"updated by the other half"}`, memory.ID)
	w = doRequest(app, http.MethodPut, "/api/v1/memories", nesya, body)
	if w.Code != http.StatusOK {
		t.Fatalf("partner update: expected 200, got %d %s", w.Code, w.Body.String())
	}

	w = doRequest(app, http.MethodDelete, fmt.Sprintf("/api/v1/memories?id=%d", memory.ID), nesya, "")
	if w.Code != http.StatusOK {
		t.Fatalf("partner delete: expected 200, got %d", w.Code)
	}
}

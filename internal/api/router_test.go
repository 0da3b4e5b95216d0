package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"daily-streak/internal/api"
	"daily-streak/internal/generator"
	"daily-streak/internal/lock"
	"daily-streak/internal/model"
	"daily-streak/internal/repository"
	"daily-streak/internal/service"
	"daily-streak/internal/testutil"
)

const adminToken = "s3cret"

type stubGenerator struct{}

func (stubGenerator) Complete(context.Context, generator.Prompt) (string, error) {
	return "Start with the red one.", nil
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	t      *testing.T
	store  *repository.Store
	router *gin.Engine
}

func newHarness(t *testing.T) *harness {
	gin.SetMode(gin.TestMode)
	s := testutil.NewTestStore(t)
	log := zaptest.NewLogger(t).Sugar()

	router := api.NewRouter(api.Deps{
		Tasks:      service.NewTaskService(s, time.UTC),
		Summaries:  service.NewSummaryService(s, stubGenerator{}, time.Second, time.UTC, log),
		Users:      service.NewUserService(s, time.UTC),
		Rollover:   service.NewRolloverService(s, lock.NewLocal(), time.UTC, 7, log),
		Location:   time.UTC,
		AdminToken: adminToken,
		Log:        log,
	})
	return &harness{t: t, store: s, router: router}
}

func (h *harness) do(method, path string, body any, headers map[string]string) (int, envelope) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (h *harness) as(user string) map[string]string {
	return map[string]string{"X-User-ID": user, "X-User-Email": user + "@example.com"}
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestMissingIdentity(t *testing.T) {
	h := newHarness(t)
	code, env := h.do(http.MethodGet, "/api/v1/profile", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "error", env.Status)
}

func TestTaskLifecycle(t *testing.T) {
	h := newHarness(t)
	me := h.as("ann")

	code, env := h.do(http.MethodPost, "/api/v1/tasks", map[string]string{
		"title": "Fix bug", "category": "RED", "targetDate": "2026-03-10",
	}, me)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var task model.Task
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, model.StatusActive, task.Status)

	code, env = h.do(http.MethodPatch, "/api/v1/tasks/"+task.ID+"/complete", nil, me)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, model.StatusCompleted, task.Status)

	code, env = h.do(http.MethodGet, "/api/v1/profile", nil, me)
	require.Equal(t, http.StatusOK, code)
	var user model.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, 1, user.TotalTasksCompleted)
	assert.Equal(t, "ann", user.Name)

	code, _ = h.do(http.MethodGet, "/api/v1/tasks/"+task.ID, nil, h.as("bob"))
	assert.Equal(t, http.StatusNotFound, code)

	code, env = h.do(http.MethodGet, "/api/v1/tasks?date=2026-03-10&status=completed", nil, me)
	require.Equal(t, http.StatusOK, code)
	var list []model.Task
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	code, _ = h.do(http.MethodDelete, "/api/v1/tasks/"+task.ID, nil, me)
	assert.Equal(t, http.StatusOK, code)
	code, _ = h.do(http.MethodDelete, "/api/v1/tasks/"+task.ID, nil, me)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCreateTaskRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "bad category", body: map[string]string{"title": "x", "category": "BLUE", "targetDate": "2026-03-10"}},
		{name: "missing date", body: map[string]string{"title": "x", "category": "RED"}},
		{name: "bad date", body: map[string]string{"title": "x", "category": "RED", "targetDate": "10/03/2026"}},
		{name: "empty title", body: map[string]string{"title": " ", "category": "RED", "targetDate": "2026-03-10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := h.do(http.MethodPost, "/api/v1/tasks", tt.body, h.as("ann"))
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "error", env.Status)
		})
	}
}

func TestSummaryEndpoints(t *testing.T) {
	h := newHarness(t)
	me := h.as("ann")

	code, _ := h.do(http.MethodGet, "/api/v1/summary", nil, me)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := h.do(http.MethodGet, "/api/v1/summary?date=2026-03-10", nil, me)
	require.Equal(t, http.StatusOK, code)
	var res service.SummaryResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 0, res.TaskCount)

	testutil.CreateTask(t, h.store, "ann", "Fix bug", model.CategoryRed, model.StatusActive,
		testutil.Day(2026, time.March, 10, time.UTC))

	code, env = h.do(http.MethodPost, "/api/v1/summary/regenerate", map[string]string{"date": "2026-03-10"}, me)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "Start with the red one.", res.Summary)
	assert.Equal(t, 1, res.TaskCount)
	assert.True(t, res.Regenerated)
}

func TestProfileUpdateAndHistory(t *testing.T) {
	h := newHarness(t)
	me := h.as("ann")

	code, env := h.do(http.MethodPatch, "/api/v1/profile", map[string]any{"telegramChatId": 99}, me)
	require.Equal(t, http.StatusOK, code)
	var user model.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, int64(99), user.TelegramChatID)

	code, _ = h.do(http.MethodPatch, "/api/v1/profile", map[string]any{"email": "broken"}, me)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(http.MethodGet, "/api/v1/profile/history?from=2026-03-01", nil, me)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = h.do(http.MethodGet, "/api/v1/profile/history?from=2026-03-01&to=2026-03-31", nil, me)
	require.Equal(t, http.StatusOK, code)
	var snaps []model.DailySnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snaps))
	assert.Empty(t, snaps)
}

func TestInternalRollover(t *testing.T) {
	h := newHarness(t)
	testutil.CreateUser(t, h.store, "ann")
	task := testutil.CreateTask(t, h.store, "ann", "Write report", model.CategoryYellow, model.StatusActive,
		testutil.Day(2026, time.March, 10, time.UTC))

	body := map[string]string{"at": "2026-03-11T00:00:05Z"}

	code, _ := h.do(http.MethodPost, "/internal/rollover", body, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := h.do(http.MethodPost, "/internal/rollover", body, map[string]string{"X-Internal-Auth": adminToken})
	require.Equal(t, http.StatusOK, code, env.Message)

	var report struct {
		Yesterday        string `json:"yesterday"`
		Tomorrow         string `json:"tomorrow"`
		SnapshotsCreated int    `json:"snapshotsCreated"`
		TasksRolled      int    `json:"tasksRolled"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, "2026-03-10", report.Yesterday)
	assert.Equal(t, "2026-03-12", report.Tomorrow)
	assert.Equal(t, 1, report.SnapshotsCreated)
	assert.Equal(t, 1, report.TasksRolled)

	moved, err := h.store.Tasks.FindByID(context.Background(), "ann", task.ID)
	require.NoError(t, err)
	assert.True(t, moved.TargetDate.Equal(testutil.Day(2026, time.March, 11, time.UTC)))
}

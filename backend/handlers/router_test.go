package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PurvDabhi/Task-Management-App/backend/models"
	"github.com/PurvDabhi/Task-Management-App/backend/repositories"
	"github.com/PurvDabhi/Task-Management-App/backend/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()

	db, err := repositories.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	users := services.NewUserService(repositories.NewSQLUserRepository(db), services.NewJWTService("test-secret", time.Hour))
	users.SetPasswordCost(bcrypt.MinCost)
	tasks := services.NewTaskService(repositories.NewSQLTaskRepository(db))
	return NewRouter(users, tasks, "*")
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func register(t *testing.T, h http.Handler, name, email string) models.AuthResponse {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.AuthResponse](t, rec)
}

func TestAuthRoutes(t *testing.T) {
	h := setupRouter(t)

	reg := register(t, h, "Ana", "ana@example.com")
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "ana@example.com", reg.User.Email)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[models.AuthResponse](t, rec)
	assert.Equal(t, reg.User.ID, login.User.ID)

	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode[errorResponse](t, rec).Message)

	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode[errorResponse](t, rec).Message, "unknown email looks like a wrong password")

	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileRoutes(t *testing.T) {
	h := setupRouter(t)
	reg := register(t, h, "Ana", "ana@example.com")

	rec := doJSON(t, h, http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/profile", reg.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[map[string]any](t, rec)
	assert.Equal(t, "Ana", profile["name"])
	assert.NotContains(t, profile, "password")
	assert.NotContains(t, profile, "PasswordHash")

	rec = doJSON(t, h, http.MethodPut, "/api/profile", reg.Token, map[string]string{"name": "Ana Maria"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ana Maria", decode[models.PublicUser](t, rec).Name)

	rec = doJSON(t, h, http.MethodPut, "/api/profile", reg.Token, map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[errorResponse](t, rec)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "email", resp.Errors[0].Field)
}

func TestTaskRoutes(t *testing.T) {
	h := setupRouter(t)
	ana := register(t, h, "Ana", "ana@example.com")
	bob := register(t, h, "Bob", "bob@example.com")

	rec := doJSON(t, h, http.MethodPost, "/api/tasks", ana.Token, map[string]string{"title": "Buy milk", "priority": "high"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decode[models.Task](t, rec)
	assert.Equal(t, models.StatusPending, task.Status)
	assert.Equal(t, ana.User.ID, task.UserID)

	rec = doJSON(t, h, http.MethodPost, "/api/tasks", ana.Token, map[string]string{"title": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "title", decode[errorResponse](t, rec).Errors[0].Field)

	rec = doJSON(t, h, http.MethodGet, "/api/tasks?priority=high&search=MILK", ana.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Task](t, rec), 1)

	rec = doJSON(t, h, http.MethodGet, "/api/tasks?priority=low", ana.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/api/tasks?status=archived", ana.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/tasks", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Task](t, rec))

	rec = doJSON(t, h, http.MethodPut, "/api/tasks/"+task.ID, bob.Token, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", decode[errorResponse](t, rec).Message)

	rec = doJSON(t, h, http.MethodPut, "/api/tasks/"+task.ID, ana.Token, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[models.Task](t, rec)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, "Buy milk", updated.Title)

	rec = doJSON(t, h, http.MethodDelete, "/api/tasks/"+task.ID, bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/tasks/"+task.ID, ana.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task deleted", decode[messageResponse](t, rec).Message)

	rec = doJSON(t, h, http.MethodDelete, "/api/tasks/"+task.ID, ana.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/tasks", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	h := setupRouter(t)

	rec := doJSON(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodOptions, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

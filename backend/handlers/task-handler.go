package handlers

import (
	"net/http"

	"github.com/PurvDabhi/Task-Management-App/backend/middleware"
	"github.com/PurvDabhi/Task-Management-App/backend/models"
	"github.com/PurvDabhi/Task-Management-App/backend/services"

	"github.com/gorilla/mux"
)

const taskNotFound = "Task not found"

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, services.ErrUnauthorized, "")
		return "", false
	}
	return user.ID, true
}

// GetTasks lists the caller's tasks narrowed by the search, status and priority query parameters.
func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := models.TaskFilter{
		Search:   query.Get("search"),
		Status:   models.TaskStatus(query.Get("status")),
		Priority: models.TaskPriority(query.Get("priority")),
	}

	tasks, err := h.service.List(r.Context(), ownerID, filter)
	if err != nil {
		writeError(w, r, err, taskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}

	var input services.TaskInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err, taskNotFound)
		return
	}

	task, err := h.service.Create(r.Context(), ownerID, input)
	if err != nil {
		writeError(w, r, err, taskNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}

	var patch models.TaskPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err, taskNotFound)
		return
	}

	task, err := h.service.Update(r.Context(), ownerID, mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, r, err, taskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), ownerID, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err, taskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Task deleted"})
}

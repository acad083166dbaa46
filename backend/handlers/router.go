package handlers

import (
	"net/http"

	"github.com/PurvDabhi/Task-Management-App/backend/middleware"
	"github.com/PurvDabhi/Task-Management-App/backend/services"

	"github.com/gorilla/mux"
)

// NewRouter wires every route under /api plus the /health probe. CORS and
// request logging wrap the whole router so preflight requests never reach mux.
func NewRouter(users *services.UserService, tasks *services.TaskService, corsOrigin string) http.Handler {
	authHandler := NewAuthHandler(users)
	profileHandler := NewProfileHandler(users)
	taskHandler := NewTaskHandler(tasks)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "Route not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Message: "Method not allowed"})
	})

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.JWTAuthMiddleware(users))
	protected.HandleFunc("/profile", profileHandler.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/profile", profileHandler.UpdateProfile).Methods(http.MethodPut)
	protected.HandleFunc("/tasks", taskHandler.GetTasks).Methods(http.MethodGet)
	protected.HandleFunc("/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	protected.HandleFunc("/tasks/{id}", taskHandler.UpdateTask).Methods(http.MethodPut)
	protected.HandleFunc("/tasks/{id}", taskHandler.DeleteTask).Methods(http.MethodDelete)

	return middleware.CORS(corsOrigin)(middleware.RequestLogger(r))
}

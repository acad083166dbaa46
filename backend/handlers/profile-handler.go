package handlers

import (
	"net/http"

	"github.com/PurvDabhi/Task-Management-App/backend/middleware"
	"github.com/PurvDabhi/Task-Management-App/backend/services"
)

type ProfileHandler struct {
	service *services.UserService
}

func NewProfileHandler(service *services.UserService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, services.ErrUnauthorized, "")
		return
	}

	user, err := h.service.Profile(r.Context(), caller.ID)
	if err != nil {
		writeError(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, services.ErrUnauthorized, "")
		return
	}

	var req services.ProfileUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "User not found")
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), caller.ID, req)
	if err != nil {
		writeError(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

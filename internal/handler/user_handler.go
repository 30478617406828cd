package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"atlantic-photo/internal/service"
	"atlantic-photo/pkg/apierror"
)

type UserHandler struct {
	service *service.AuthService
}

func NewUserHandler(service *service.AuthService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	current, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.Me(r.Context(), current)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		writeError(w, apierror.BadRequest("username is required", "username"))
		return
	}

	profile, err := h.service.Profile(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile, nil)
}

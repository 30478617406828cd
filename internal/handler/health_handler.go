package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"atlantic-photo/internal/model"
)

type Pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Health(ctx); err != nil {
		slog.Error("health check failed", "error", err.Error())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(model.APIResponse{
			Success: false,
			Data:    map[string]string{"status": "degraded", "database": "unreachable"},
			Error:   &model.APIError{Code: "UNAVAILABLE", Message: "Database is unreachable"},
		})
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"}, nil)
}

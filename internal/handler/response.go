package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"atlantic-photo/internal/middleware"
	"atlantic-photo/internal/model"
	"atlantic-photo/internal/provider"
	"atlantic-photo/pkg/apierror"
)

const maxJSONBody = 1 << 20

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status, body := classifyError(err)

	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

func classifyError(err error) (int, *model.APIError) {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatus, &model.APIError{Code: apiErr.Code, Message: apiErr.Message, Details: apiErr.Details}
	}

	var providerErr *provider.Error

	switch {
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized, &model.APIError{Code: "UNAUTHORIZED", Message: "Incorrect email or password"}
	case errors.Is(err, model.ErrAlreadyLoggedOut):
		return http.StatusUnauthorized, &model.APIError{Code: "UNAUTHORIZED", Message: "Already logged out"}
	case errors.Is(err, model.ErrUnauthenticated), errors.Is(err, model.ErrInvalidToken):
		return http.StatusUnauthorized, &model.APIError{Code: "UNAUTHORIZED", Message: "Could not validate credentials"}
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, &model.APIError{Code: "FORBIDDEN", Message: "Access denied", Details: detailOf(err, model.ErrForbidden)}
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, &model.APIError{Code: "NOT_FOUND", Message: "Resource not found", Details: detailOf(err, model.ErrNotFound)}
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, &model.APIError{Code: "CONFLICT", Message: "Resource conflict", Details: detailOf(err, model.ErrConflict)}
	case errors.Is(err, model.ErrTooManyTags):
		return http.StatusUnprocessableEntity, &model.APIError{Code: "TOO_MANY_TAGS", Message: fmt.Sprintf("An image can carry at most %d tags", model.MaxTagsPerImage)}
	case errors.Is(err, model.ErrValidationFailed):
		return http.StatusUnprocessableEntity, &model.APIError{Code: "VALIDATION_FAILED", Message: "Validation failed", Details: detailOf(err, model.ErrValidationFailed)}
	case errors.As(err, &providerErr) && providerErr.Kind == provider.KindTimeout:
		slog.Warn("image provider timed out", "op", providerErr.Op, "error", err.Error())
		return http.StatusGatewayTimeout, &model.APIError{Code: "PROVIDER_TIMEOUT", Message: "Image provider timed out"}
	case errors.Is(err, model.ErrUpstreamProvider):
		slog.Error("image provider failed", "error", err.Error())
		return http.StatusBadGateway, &model.APIError{Code: "PROVIDER_ERROR", Message: "Image provider failed"}
	default:
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
		return http.StatusInternalServerError, &model.APIError{Code: "INTERNAL_ERROR", Message: "Unexpected server error"}
	}
}

// detailOf strips the sentinel suffix that %w wrapping leaves on err, so
// "image 7: not found" becomes "image 7".
func detailOf(err error, sentinel error) string {
	msg := err.Error()
	if msg == sentinel.Error() {
		return ""
	}
	msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
	msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
	return msg
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apierror.BadRequest("request body is required", "")
		}
		return apierror.BadRequest("invalid JSON body", err.Error())
	}

	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.BadRequest(name+" must be a positive integer", name)
	}
	return id, nil
}

func queryID(r *http.Request, name string) (int64, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, apierror.BadRequest(name+" must be a positive integer", name)
	}
	return id, true, nil
}

func currentUser(r *http.Request) (model.User, error) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return model.User{}, model.ErrUnauthenticated
	}
	return user, nil
}

func parsePage(r *http.Request) model.Page {
	query := r.URL.Query()
	return model.Page{
		Limit:  parseIntOrDefault(query.Get("limit"), model.DefaultPageLimit),
		Offset: parseIntOrDefault(query.Get("offset"), 0),
	}
}

func pageMeta(page model.Page) *model.Meta {
	return &model.Meta{Limit: page.Limit, Offset: page.Offset}
}

// parseIntOrDefault returns fallback for blank input. Malformed numbers map
// to -1 so range validation rejects them instead of silently defaulting.
func parseIntOrDefault(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}

	return v
}

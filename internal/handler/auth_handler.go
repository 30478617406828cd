package handler

import (
	"mime"
	"net/http"
	"strings"

	"atlantic-photo/internal/middleware"
	"atlantic-photo/internal/model"
	"atlantic-photo/internal/service"
	"atlantic-photo/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload model.SignupRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.Signup(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, nil)
}

// Login takes an OAuth2-style password form where username carries the
// email. A JSON body with the same fields is accepted too.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	payload, err := loginPayload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	if strings.TrimSpace(payload.Username) == "" || payload.Password == "" {
		writeError(w, apierror.BadRequest("username and password are required", ""))
		return
	}

	tokens, err := h.service.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens, nil)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		writeError(w, model.ErrUnauthenticated)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		writeError(w, model.ErrUnauthenticated)
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.MessageResponse{Message: "Logout Successfully"}, nil)
}

func loginPayload(w http.ResponseWriter, r *http.Request) (model.LoginRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		var payload model.LoginRequest
		err := decodeJSON(w, r, &payload)
		return payload, err
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseMultipartForm(maxJSONBody); err != nil && err != http.ErrNotMultipart {
			return model.LoginRequest{}, apierror.BadRequest("invalid form body", err.Error())
		}
		return model.LoginRequest{
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
		}, nil
	default:
		return model.LoginRequest{}, apierror.New("UNSUPPORTED_MEDIA_TYPE", "expected a form or JSON body", mediaType, http.StatusUnsupportedMediaType)
	}
}

package handler

import (
	"net/http"

	"atlantic-photo/internal/model"
	"atlantic-photo/internal/service"
	"atlantic-photo/pkg/apierror"
)

type CommentHandler struct {
	service *service.CommentService
}

func NewCommentHandler(service *service.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.service.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, comment, nil)
}

func (h *CommentHandler) ListByImage(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	imageID, ok, err := queryID(r, "image_id")
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, apierror.BadRequest("image_id is required", "image_id"))
		return
	}

	comments, err := h.service.ListByImage(r.Context(), user, imageID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, comments, nil)
}

// Create reads the image id from the photo_id query parameter, falling back
// to image_id in the body.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	imageID, fromQuery, err := queryID(r, "photo_id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.CommentRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if !fromQuery {
		imageID = payload.ImageID
	}
	if imageID <= 0 {
		writeError(w, apierror.BadRequest("photo_id is required", "photo_id"))
		return
	}

	comment, err := h.service.Create(r.Context(), user, imageID, payload.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, comment, nil)
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.CommentRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.service.Update(r.Context(), user, id, payload.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, comment, nil)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), user, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

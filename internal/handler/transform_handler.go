package handler

import (
	"net/http"
	"strconv"

	"atlantic-photo/internal/model"
	"atlantic-photo/internal/service"
)

type TransformHandler struct {
	service *service.TransformService
}

func NewTransformHandler(service *service.TransformService) *TransformHandler {
	return &TransformHandler{service: service}
}

// Create fills omitted parameters from model.DefaultTransformParams.
func (h *TransformHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	originalID, err := pathID(r, "original_image_id")
	if err != nil {
		writeError(w, err)
		return
	}

	params := model.DefaultTransformParams()
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &params); err != nil {
			writeError(w, err)
			return
		}
	}

	pic, err := h.service.Create(r.Context(), user, originalID, params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, pic, nil)
}

func (h *TransformHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	pics, err := h.service.ListMine(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, pics, nil)
}

func (h *TransformHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	pic, err := h.service.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, pic, nil)
}

func (h *TransformHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var patch model.TransformPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	pic, err := h.service.Update(r.Context(), user, id, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, pic, nil)
}

func (h *TransformHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *TransformHandler) QRCode(w http.ResponseWriter, r *http.Request) {
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

	png, err := h.service.QRCode(r.Context(), user, id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Content-Disposition", "inline; filename=\"qr_"+strconv.FormatInt(id, 10)+".png\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

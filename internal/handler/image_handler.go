package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path"

	"atlantic-photo/internal/model"
	"atlantic-photo/internal/service"
	"atlantic-photo/internal/util"
	"atlantic-photo/pkg/apierror"
)

// multipartMemory caps how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

type ImageHandler struct {
	service       *service.ImageService
	maxUploadSize int64
}

func NewImageHandler(service *service.ImageService, maxUploadSize int64) *ImageHandler {
	return &ImageHandler{service: service, maxUploadSize: maxUploadSize}
}

func (h *ImageHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page := parsePage(r)
	images, err := h.service.ListMine(r.Context(), user, page)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, images, pageMeta(page))
}

func (h *ImageHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page := parsePage(r)
	images, err := h.service.ListAll(r.Context(), user, page)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, images, pageMeta(page))
}

func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	image, err := h.service.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, image, nil)
}

func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, apierror.New("PAYLOAD_TOO_LARGE", "upload exceeds the size limit", fmt.Sprintf("limit %d bytes", h.maxUploadSize), http.StatusRequestEntityTooLarge))
			return
		}
		writeError(w, apierror.BadRequest("invalid multipart body", err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apierror.BadRequest("file is required", "file"))
		return
	}
	defer file.Close()

	filename, err := util.SanitizeFilename(header.Filename)
	if err != nil {
		writeError(w, err)
		return
	}

	mimeType, content, err := util.SniffMIME(file)
	if err != nil {
		writeError(w, apierror.BadRequest("could not read upload", err.Error()))
		return
	}
	if !util.IsUploadableImageMIME(mimeType) {
		writeError(w, fmt.Errorf("%w: unsupported image type %s", model.ErrValidationFailed, mimeType))
		return
	}
	if !util.IsImageExtension(path.Ext(filename)) {
		filename += util.ExtensionForMIME(mimeType)
	}

	image, err := h.service.Create(r.Context(), user, service.UploadInput{
		Description: r.FormValue("description"),
		Tags:        r.FormValue("tags"),
		Filename:    filename,
		Content:     content,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, image, nil)
}

func (h *ImageHandler) UpdateDescription(w http.ResponseWriter, r *http.Request) {
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

	var payload model.UpdateImageRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	image, err := h.service.UpdateDescription(r.Context(), user, id, payload.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, image, nil)
}

func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

package handler

import (
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"atlantic-photo/internal/storage"
	"atlantic-photo/internal/util"
)

// MediaHandler serves assets written by the local image provider.
type MediaHandler struct {
	store storage.Storage
}

func NewMediaHandler(store storage.Storage) *MediaHandler {
	return &MediaHandler{store: store}
}

func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" || !util.IsImageExtension(path.Ext(key)) {
		http.NotFound(w, r)
		return
	}

	file, err := h.store.Open(key)
	if err != nil {
		// Traversal attempts and missing files look the same to clients.
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	http.ServeContent(w, r, path.Base(key), info.ModTime(), file)
}

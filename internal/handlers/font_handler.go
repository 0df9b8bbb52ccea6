package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"readinglog/internal/service"
	"readinglog/internal/storage"
)

// FontHandler handles font HTTP requests
type FontHandler struct {
	fontService   *service.FontService
	maxUploadSize int64
}

// NewFontHandler creates a new font handler
func NewFontHandler(fontService *service.FontService, maxUploadSize int64) *FontHandler {
	return &FontHandler{fontService: fontService, maxUploadSize: maxUploadSize}
}

type fontUploadResponse struct {
	Success  bool   `json:"success"`
	ID       int64  `json:"id"`
	FontPath string `json:"fontPath"`
}

type fontUpdateRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// ListFonts returns the active fonts ordered by type, then name. With
// ?all=true hidden fonts are included.
func (h *FontHandler) ListFonts(w http.ResponseWriter, r *http.Request) {
	list := h.fontService.ListActive
	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		list = h.fontService.ListAll
	}
	fonts, err := list()
	if err != nil {
		respondWithServiceError(w, err, "failed to list fonts")
		return
	}
	writeJSON(w, http.StatusOK, fonts)
}

// UploadFont registers a custom font from a multipart upload
func (h *FontHandler) UploadFont(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	file, header, err := r.FormFile("fontFile")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "file is too large", "", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, "no file was uploaded", "", nil)
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	font, err := h.fontService.UploadFont(r.Context(), r.FormValue("fontName"), header.Filename, file, header.Size)
	if err != nil {
		respondWithServiceError(w, err, "failed to upload font")
		return
	}
	writeJSON(w, http.StatusOK, fontUploadResponse{Success: true, ID: font.ID, FontPath: *font.FilePath})
}

// UpdateFont shows or hides a font in the picker
func (h *FontHandler) UpdateFont(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}
	var req fontUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	if err := h.fontService.SetActive(r.Context(), id, *req.IsActive); err != nil {
		respondWithServiceError(w, err, "failed to update font")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// DeleteFont deletes a font and, for custom fonts, its stored file
func (h *FontHandler) DeleteFont(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}
	if err := h.fontService.DeleteFont(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "failed to delete font")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// FontFileHandler serves stored font files under storage.PublicPrefix from
// whichever backend holds them.
func FontFileHandler(store storage.FontStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := storage.NameFromPublicPath(r.URL.Path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		rc, err := store.Open(r.Context(), name)
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			slog.Error("failed to open font file", "name", name, "error", err)
			http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", storage.ContentType(name))
		w.Header().Set("Cache-Control", "public, max-age=86400")
		if _, err := io.Copy(w, rc); err != nil {
			slog.Warn("font file transfer interrupted", "name", name, "error", err)
		}
	}
}

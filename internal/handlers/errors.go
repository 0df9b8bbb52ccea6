package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"readinglog/internal/models"
	"readinglog/internal/service"
)

// errorResponse is the body of every failed API call
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		slog.Error(logMsg, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Success: false, Message: userMsg})
}

// respondWithServiceError maps service errors to status codes. Validation and
// not-found messages are safe to show; anything else is logged and hidden.
func respondWithServiceError(w http.ResponseWriter, err error, logMsg string) {
	var ve service.ValidationError
	switch {
	case errors.As(err, &ve):
		respondWithError(w, http.StatusBadRequest, ve.Message, "", nil)
	case isFontValidation(err):
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
	case errors.Is(err, service.ErrChildNotFound),
		errors.Is(err, service.ErrWordListNotFound),
		errors.Is(err, service.ErrWordNotFound),
		errors.Is(err, service.ErrFontNotFound):
		respondWithError(w, http.StatusNotFound, err.Error(), "", nil)
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrSessionNotFound):
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
	case errors.Is(err, service.ErrInvalidAdminPassword):
		respondWithError(w, http.StatusForbidden, ErrForbidden, "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

func isFontValidation(err error) bool {
	return errors.Is(err, models.ErrFontNameRequired) ||
		errors.Is(err, models.ErrFontFamilyRequired) ||
		errors.Is(err, models.ErrFontTypeInvalid) ||
		errors.Is(err, models.ErrFontFilePath)
}

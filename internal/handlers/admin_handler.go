package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"readinglog/internal/security"
	"readinglog/internal/service"
)

// AdminHandler handles password-protected maintenance actions
type AdminHandler struct {
	authService   *service.AuthService
	listService   *service.ListService
	backupService *service.BackupService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authService *service.AuthService, listService *service.ListService, backupService *service.BackupService) *AdminHandler {
	return &AdminHandler{
		authService:   authService,
		listService:   listService,
		backupService: backupService,
	}
}

type adminRequest struct {
	Password string `json:"password" validate:"required"`
}

// checkPassword decodes the admin request and verifies the password,
// writing the error response itself when the check fails.
func (h *AdminHandler) checkPassword(w http.ResponseWriter, r *http.Request) bool {
	var req adminRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return false
	}
	if err := h.authService.CheckAdminPassword(req.Password); err != nil {
		slog.Warn("admin password rejected", "path", r.URL.Path, "ip", security.GetClientIP(r))
		respondWithServiceError(w, err, "")
		return false
	}
	return true
}

// ResetWordLists wipes every word list and word and reseeds the defaults
func (h *AdminHandler) ResetWordLists(w http.ResponseWriter, r *http.Request) {
	if !h.checkPassword(w, r) {
		return
	}
	if err := h.listService.ResetWordLists(); err != nil {
		respondWithServiceError(w, err, "failed to reset word lists")
		return
	}
	slog.Info("word lists reset by admin", "ip", security.GetClientIP(r))
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ExportDatabase returns the whole store as a JSON download
func (h *AdminHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	if !h.checkPassword(w, r) {
		return
	}

	var buf bytes.Buffer
	if _, err := h.backupService.Export(&buf); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to export database", "error exporting database", err)
		return
	}

	filename := fmt.Sprintf("readinglog_backup_%s.json", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}

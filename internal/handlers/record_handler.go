package handlers

import (
	"net/http"

	"readinglog/internal/models"
	"readinglog/internal/service"
)

// RecordHandler handles reading tests and their analysis
type RecordHandler struct {
	recordService *service.RecordService
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(recordService *service.RecordService) *RecordHandler {
	return &RecordHandler{recordService: recordService}
}

type recordRequest struct {
	ChildID            int64    `json:"child_id" validate:"required,gt=0"`
	WordID             int64    `json:"word_id" validate:"required,gt=0"`
	CouldRead          *bool    `json:"could_read" validate:"required"`
	ReadingTimeSeconds *float64 `json:"reading_time_seconds" validate:"omitempty,min=0"`
	MisreadAs          *string  `json:"misread_as" validate:"omitempty,max=255"`
	Notes              *string  `json:"notes"`
	FontID             *int64   `json:"font_id" validate:"omitempty,gt=0"`
}

// CreateRecord stores one reading test result
func (h *RecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	id, err := h.recordService.RecordReading(r.Context(), &models.ReadingRecord{
		ChildID:            req.ChildID,
		WordID:             req.WordID,
		CouldRead:          *req.CouldRead,
		ReadingTimeSeconds: req.ReadingTimeSeconds,
		MisreadAs:          req.MisreadAs,
		Notes:              req.Notes,
		FontID:             req.FontID,
	})
	if err != nil {
		respondWithServiceError(w, err, "failed to store reading record")
		return
	}
	writeJSON(w, http.StatusOK, idResponse{Success: true, ID: id})
}

// Analysis returns a child's records and statistics
func (h *RecordHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "childId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}
	analysis, err := h.recordService.Analysis(id)
	if err != nil {
		respondWithServiceError(w, err, "failed to load analysis")
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// PrepareTest returns the child, list, words and fonts for a test run
func (h *RecordHandler) PrepareTest(w http.ResponseWriter, r *http.Request) {
	childID, ok := pathID(r, "childId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}
	listID, ok := pathID(r, "wordListId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}
	session, err := h.recordService.PrepareTest(childID, listID)
	if err != nil {
		respondWithServiceError(w, err, "failed to prepare test")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

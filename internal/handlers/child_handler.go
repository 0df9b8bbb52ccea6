package handlers

import (
	"net/http"

	"readinglog/internal/models"
	"readinglog/internal/service"
)

// ChildHandler handles child profile HTTP requests
type ChildHandler struct {
	childService *service.ChildService
}

// NewChildHandler creates a new child handler
func NewChildHandler(childService *service.ChildService) *ChildHandler {
	return &ChildHandler{childService: childService}
}

type childRequest struct {
	Name            string  `json:"name" validate:"required,max=255"`
	Grade           *string `json:"grade" validate:"omitempty,max=64"`
	BirthYear       *int    `json:"birth_year"`
	BirthMonth      *int    `json:"birth_month" validate:"omitempty,min=1,max=12"`
	EnrollmentYear  *int    `json:"enrollment_year"`
	EnrollmentMonth *int    `json:"enrollment_month" validate:"omitempty,min=1,max=12"`
	Notes           *string `json:"notes"`
}

func (req *childRequest) child(id int64) *models.Child {
	return &models.Child{
		ID:              id,
		Name:            req.Name,
		Grade:           req.Grade,
		BirthYear:       req.BirthYear,
		BirthMonth:      req.BirthMonth,
		EnrollmentYear:  req.EnrollmentYear,
		EnrollmentMonth: req.EnrollmentMonth,
		Notes:           req.Notes,
	}
}

// ListChildren returns all children, newest first, or by name with ?sort=name
func (h *ChildHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.childService.ListChildren(r.URL.Query().Get("sort") == "name")
	if err != nil {
		respondWithServiceError(w, err, "failed to list children")
		return
	}
	writeJSON(w, http.StatusOK, children)
}

// GetChild returns one child
func (h *ChildHandler) GetChild(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}
	child, err := h.childService.GetChild(id)
	if err != nil {
		respondWithServiceError(w, err, "failed to get child")
		return
	}
	writeJSON(w, http.StatusOK, child)
}

// CreateChild registers a child
func (h *ChildHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var req childRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	id, err := h.childService.CreateChild(req.child(0))
	if err != nil {
		respondWithServiceError(w, err, "failed to create child")
		return
	}
	writeJSON(w, http.StatusOK, idResponse{Success: true, ID: id})
}

// UpdateChild replaces a child's profile
func (h *ChildHandler) UpdateChild(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}
	var req childRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	if err := h.childService.UpdateChild(req.child(id)); err != nil {
		respondWithServiceError(w, err, "failed to update child")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// DeleteChild deletes a child with all of their reading records
func (h *ChildHandler) DeleteChild(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}
	if err := h.childService.DeleteChild(id); err != nil {
		respondWithServiceError(w, err, "failed to delete child")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

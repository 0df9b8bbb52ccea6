package handlers

import (
	"errors"
	"net/http"

	"readinglog/internal/service"
)

// ListHandler handles word list and word HTTP requests
type ListHandler struct {
	listService   *service.ListService
	maxUploadSize int64
}

// NewListHandler creates a new list handler. Document uploads larger than
// maxUploadSize bytes are rejected.
func NewListHandler(listService *service.ListService, maxUploadSize int64) *ListHandler {
	return &ListHandler{listService: listService, maxUploadSize: maxUploadSize}
}

type listRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
}

type wordRequest struct {
	WordListID int64  `json:"word_list_id" validate:"required,gt=0"`
	WordText   string `json:"word_text" validate:"required,max=255"`
}

type bulkWordsRequest struct {
	WordListID int64    `json:"word_list_id" validate:"required,gt=0"`
	Words      []string `json:"words" validate:"required,min=1"`
}

type bulkWordsResponse struct {
	Success bool    `json:"success"`
	Count   int     `json:"count"`
	IDs     []int64 `json:"ids"`
}

type importResponse struct {
	Success bool     `json:"success"`
	Count   int      `json:"count"`
	Words   []string `json:"words"`
}

type simpleList struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// ListLists returns all word lists with their word counts, newest first
func (h *ListHandler) ListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.listService.ListLists()
	if err != nil {
		respondWithServiceError(w, err, "failed to list word lists")
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// ListListsSimple returns id, name and description of every list
func (h *ListHandler) ListListsSimple(w http.ResponseWriter, r *http.Request) {
	lists, err := h.listService.ListLists()
	if err != nil {
		respondWithServiceError(w, err, "failed to list word lists")
		return
	}
	out := make([]simpleList, 0, len(lists))
	for _, l := range lists {
		out = append(out, simpleList{ID: l.ID, Name: l.Name, Description: l.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetList returns a list with its words in display order
func (h *ListHandler) GetList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}
	list, err := h.listService.GetListWithWords(id)
	if err != nil {
		respondWithServiceError(w, err, "failed to get word list")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateList creates an empty word list
func (h *ListHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	id, err := h.listService.CreateList(req.Name, req.Description)
	if err != nil {
		respondWithServiceError(w, err, "failed to create word list")
		return
	}
	writeJSON(w, http.StatusOK, idResponse{Success: true, ID: id})
}

// UpdateList renames a list or changes its description
func (h *ListHandler) UpdateList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}
	var req listRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	if err := h.listService.UpdateList(id, req.Name, req.Description); err != nil {
		respondWithServiceError(w, err, "failed to update word list")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// DeleteList deletes a list with its words and their reading records
func (h *ListHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}
	if err := h.listService.DeleteList(id); err != nil {
		respondWithServiceError(w, err, "failed to delete word list")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// AddWord appends one word to a list
func (h *ListHandler) AddWord(w http.ResponseWriter, r *http.Request) {
	var req wordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	word, err := h.listService.AddWord(req.WordListID, req.WordText)
	if err != nil {
		respondWithServiceError(w, err, "failed to add word")
		return
	}
	writeJSON(w, http.StatusOK, idResponse{Success: true, ID: word.ID})
}

// BulkAddWords appends many words to a list in one transaction
func (h *ListHandler) BulkAddWords(w http.ResponseWriter, r *http.Request) {
	var req bulkWordsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	ids, err := h.listService.BulkAddWords(req.WordListID, req.Words)
	if err != nil {
		respondWithServiceError(w, err, "failed to add words")
		return
	}
	writeJSON(w, http.StatusOK, bulkWordsResponse{Success: true, Count: len(ids), IDs: ids})
}

// DeleteWord deletes a word and its reading records
func (h *ListHandler) DeleteWord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}
	if err := h.listService.DeleteWord(id); err != nil {
		respondWithServiceError(w, err, "failed to delete word")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ImportDocument extracts words from an uploaded PDF or Word file into a list
func (h *ListHandler) ImportDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	file, header, err := r.FormFile("documentFile")
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

	res, err := h.listService.ImportDocument(r.Context(), id, header.Filename, file)
	if err != nil {
		respondWithServiceError(w, err, "failed to import document")
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Success: true, Count: res.Count, Words: res.Words})
}

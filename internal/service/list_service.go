package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"readinglog/internal/document"
	"readinglog/internal/metrics"
	"readinglog/internal/models"
	"readinglog/internal/repository"
)

// importPreviewSize is how many extracted words an import reports back
const importPreviewSize = 10

// ImportResult summarises a document import
type ImportResult struct {
	Count int      `json:"count"`
	Words []string `json:"words"`
}

// ListService handles word list and word business logic
type ListService struct {
	listRepo  *repository.ListRepository
	uploadDir string
}

// NewListService creates a new list service. Uploaded documents are staged in uploadDir.
func NewListService(listRepo *repository.ListRepository, uploadDir string) *ListService {
	return &ListService{listRepo: listRepo, uploadDir: uploadDir}
}

// SeedDefaults creates the starter word list when no list exists
func (s *ListService) SeedDefaults() error {
	seeded, err := s.listRepo.SeedListsIfEmpty(DefaultWordLists())
	if err != nil {
		return fmt.Errorf("failed to seed word lists: %w", err)
	}
	if seeded {
		slog.Info("seeded default word lists")
	} else {
		slog.Debug("word lists already present, skipping seed")
	}
	return nil
}

// ResetWordLists deletes every word list and word (and their reading
// records) and recreates the defaults, atomically.
func (s *ListService) ResetWordLists() error {
	if err := s.listRepo.ReplaceAllLists(DefaultWordLists()); err != nil {
		return fmt.Errorf("failed to reset word lists: %w", err)
	}
	slog.Info("word lists reset to defaults")
	return nil
}

// CreateList creates a new word list
func (s *ListService) CreateList(name string, description *string) (int64, error) {
	if err := requireText("name", name); err != nil {
		return 0, err
	}
	return s.listRepo.CreateList(name, description)
}

// GetList retrieves a word list by ID
func (s *ListService) GetList(id int64) (*models.WordList, error) {
	list, err := s.listRepo.GetListByID(id)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, ErrWordListNotFound
	}
	return list, nil
}

// GetListWithWords retrieves a word list and its words in display order
func (s *ListService) GetListWithWords(id int64) (*models.WordListWithWords, error) {
	list, err := s.GetList(id)
	if err != nil {
		return nil, err
	}
	words, err := s.listRepo.GetListWords(id)
	if err != nil {
		return nil, err
	}
	return &models.WordListWithWords{WordList: *list, Words: words}, nil
}

// ListLists returns all word lists, newest first
func (s *ListService) ListLists() ([]models.WordList, error) {
	return s.listRepo.ListLists()
}

// UpdateList changes a word list's name and description
func (s *ListService) UpdateList(id int64, name string, description *string) error {
	if err := requireText("name", name); err != nil {
		return err
	}
	ok, err := s.listRepo.UpdateList(id, name, description)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWordListNotFound
	}
	return nil
}

// DeleteList deletes a word list with its words and their records
func (s *ListService) DeleteList(id int64) error {
	ok, err := s.listRepo.DeleteList(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWordListNotFound
	}
	return nil
}

// AddWord appends a word to the end of a list
func (s *ListService) AddWord(listID int64, wordText string) (*models.Word, error) {
	if err := requireText("word_text", wordText); err != nil {
		return nil, err
	}
	if _, err := s.GetList(listID); err != nil {
		return nil, err
	}
	return s.listRepo.AddWord(listID, strings.TrimSpace(wordText))
}

// BulkAddWords appends words to a list in order, all or nothing. Blank
// entries are dropped; a request with no usable word is rejected.
func (s *ListService) BulkAddWords(listID int64, words []string) ([]int64, error) {
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			cleaned = append(cleaned, w)
		}
	}
	if len(cleaned) == 0 {
		return nil, ValidationError{Field: "words", Message: "at least one word is required"}
	}
	if _, err := s.GetList(listID); err != nil {
		return nil, err
	}

	ids, err := s.listRepo.BulkInsertWords(listID, cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to add words: %w", err)
	}
	metrics.AddImportedWords(len(ids))
	return ids, nil
}

// DeleteWord deletes a word and its reading records
func (s *ListService) DeleteWord(id int64) error {
	ok, err := s.listRepo.DeleteWord(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWordNotFound
	}
	return nil
}

// ImportDocument extracts words from an uploaded PDF or Word document and
// appends them to a list. The staged upload is removed on every path.
func (s *ListService) ImportDocument(ctx context.Context, listID int64, filename string, r io.Reader) (*ImportResult, error) {
	if !document.AllowedUpload(filename) {
		return nil, ValidationError{Field: "documentFile", Message: "only .pdf, .docx and .doc files can be imported"}
	}
	if _, err := s.GetList(listID); err != nil {
		return nil, err
	}

	path, err := s.stage(filename, r)
	if path != "" {
		defer func() {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				slog.Warn("failed to remove staged upload", "path", path, "error", rmErr)
			}
		}()
	}
	if err != nil {
		return nil, err
	}

	text, err := document.TextFromFile(path, filename)
	if errors.Is(err, document.ErrUnsupportedFormat) {
		return nil, ValidationError{Field: "documentFile", Message: err.Error()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	words := document.ExtractWords(text)
	slog.DebugContext(ctx, "document parsed", "list_id", listID, "text_length", len(text), "words", len(words))
	if len(words) == 0 {
		return nil, ValidationError{Field: "documentFile", Message: "no words could be extracted"}
	}

	if _, err := s.listRepo.BulkInsertWords(listID, words); err != nil {
		return nil, fmt.Errorf("failed to import words: %w", err)
	}
	metrics.AddImportedWords(len(words))

	preview := words
	if len(preview) > importPreviewSize {
		preview = preview[:importPreviewSize]
	}
	return &ImportResult{Count: len(words), Words: preview}, nil
}

// stage writes an upload under a random name. It returns the path whenever a
// file was created, even on error, so the caller can clean it up.
func (s *ListService) stage(filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	path := filepath.Join(s.uploadDir, uuid.NewString()+strings.ToLower(filepath.Ext(filename)))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to stage upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return path, fmt.Errorf("failed to stage upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return path, fmt.Errorf("failed to stage upload: %w", err)
	}
	return path, nil
}

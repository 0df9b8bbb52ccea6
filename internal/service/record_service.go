package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"readinglog/internal/metrics"
	"readinglog/internal/models"
	"readinglog/internal/repository"
	"readinglog/internal/sink"
)

// RecordService stores reading test results and reports on them
type RecordService struct {
	recordRepo *repository.RecordRepository
	childRepo  *repository.ChildRepository
	listRepo   *repository.ListRepository
	fontRepo   *repository.FontRepository
	notifier   sink.Notifier
}

// NewRecordService creates a new record service. A nil notifier mirrors nothing.
func NewRecordService(recordRepo *repository.RecordRepository, childRepo *repository.ChildRepository,
	listRepo *repository.ListRepository, fontRepo *repository.FontRepository, notifier sink.Notifier) *RecordService {
	if notifier == nil {
		notifier = sink.Nop{}
	}
	return &RecordService{
		recordRepo: recordRepo,
		childRepo:  childRepo,
		listRepo:   listRepo,
		fontRepo:   fontRepo,
		notifier:   notifier,
	}
}

// RecordReading stores one test result and then mirrors it to the external
// sinks. Mirroring happens after the insert and never fails the call.
func (s *RecordService) RecordReading(ctx context.Context, rec *models.ReadingRecord) (int64, error) {
	if rec.ReadingTimeSeconds != nil && *rec.ReadingTimeSeconds < 0 {
		return 0, ValidationError{Field: "reading_time_seconds", Message: "reading time cannot be negative"}
	}

	child, err := s.childRepo.GetChildByID(rec.ChildID)
	if err != nil {
		return 0, err
	}
	if child == nil {
		return 0, ErrChildNotFound
	}
	word, err := s.listRepo.GetWordByID(rec.WordID)
	if err != nil {
		return 0, err
	}
	if word == nil {
		return 0, ErrWordNotFound
	}
	if rec.FontID != nil {
		font, err := s.fontRepo.GetFontByID(*rec.FontID)
		if err != nil {
			return 0, err
		}
		if font == nil {
			return 0, ErrFontNotFound
		}
	}

	id, err := s.recordRepo.CreateRecord(rec)
	if err != nil {
		return 0, err
	}
	rec.ID = id
	metrics.ObserveReadingRecord(rec.CouldRead)
	slog.InfoContext(ctx, "reading record stored", "record_id", id, "child_id", rec.ChildID, "word_id", rec.WordID, "could_read", rec.CouldRead)

	detail, err := s.recordRepo.GetRecordDetail(id)
	if err != nil || detail == nil {
		slog.WarnContext(ctx, "skipping record mirror, detail unavailable", "record_id", id, "error", err)
		return id, nil
	}
	s.notifier.Submit(ctx, recordEvent(child, detail))
	return id, nil
}

func recordEvent(child *models.Child, d *models.RecordDetail) sink.RecordEvent {
	ev := sink.RecordEvent{
		RecordID:           d.ID,
		ChildName:          child.Name,
		WordText:           d.WordText,
		WordListName:       d.WordListName,
		CouldRead:          d.CouldRead,
		ReadingTimeSeconds: d.ReadingTimeSeconds,
		CreatedAt:          d.TestDate,
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	if child.Grade != nil {
		ev.ChildGrade = *child.Grade
	}
	if d.MisreadAs != nil {
		ev.MisreadAs = *d.MisreadAs
	}
	if d.Notes != nil {
		ev.Notes = *d.Notes
	}
	if d.FontName != nil {
		ev.FontName = *d.FontName
	}
	return ev
}

// Analysis returns a child's records, newest first, with their statistics
func (s *RecordService) Analysis(childID int64) (*models.Analysis, error) {
	child, err := s.childRepo.GetChildByID(childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, ErrChildNotFound
	}

	records, err := s.recordRepo.ListRecordDetailsByChild(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	stats, err := s.recordRepo.GetChildStats(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	return &models.Analysis{Child: child, Records: records, Stats: stats}, nil
}

// TestSession is everything needed to run a test of one child on one list
type TestSession struct {
	Child    *models.Child    `json:"child"`
	WordList *models.WordList `json:"word_list"`
	Words    []models.Word    `json:"words"`
	Fonts    []models.Font    `json:"fonts"`
}

// PrepareTest loads the child, the list with its words in order, and the active fonts
func (s *RecordService) PrepareTest(childID, listID int64) (*TestSession, error) {
	child, err := s.childRepo.GetChildByID(childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	list, err := s.listRepo.GetListByID(listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, ErrWordListNotFound
	}
	words, err := s.listRepo.GetListWords(listID)
	if err != nil {
		return nil, err
	}
	fonts, err := s.fontRepo.ListActiveFonts()
	if err != nil {
		return nil, err
	}
	return &TestSession{Child: child, WordList: list, Words: words, Fonts: fonts}, nil
}

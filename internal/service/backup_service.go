package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"readinglog/internal/database"
	"readinglog/internal/models"
	"readinglog/internal/repository"
)

// BackupVersion is written to every export
const BackupVersion = "1.0"

// BackupData is a complete, dialect-neutral copy of the store
type BackupData struct {
	Version      string                 `json:"version"`
	ExportedAt   time.Time              `json:"exported_at"`
	DatabaseType string                 `json:"database_type"`
	Children     []models.Child         `json:"children"`
	WordLists    []ListBackup           `json:"word_lists"`
	Fonts        []models.Font          `json:"fonts"`
	Records      []models.ReadingRecord `json:"reading_records"`
}

// ListBackup is a word list with its words in display order
type ListBackup struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
	Words       []models.Word `json:"words"`
}

// ImportSummary counts what an import inserted
type ImportSummary struct {
	Children       int
	WordLists      int
	Words          int
	Fonts          int
	Records        int
	SkippedRecords int
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db         *database.DB
	childRepo  *repository.ChildRepository
	listRepo   *repository.ListRepository
	fontRepo   *repository.FontRepository
	recordRepo *repository.RecordRepository
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{
		db:         db,
		childRepo:  repository.NewChildRepository(db),
		listRepo:   repository.NewListRepository(db),
		fontRepo:   repository.NewFontRepository(db),
		recordRepo: repository.NewRecordRepository(db),
	}
}

// Export writes the whole store as indented JSON. Custom font files are not
// included, only their paths.
func (s *BackupService) Export(w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.Name(),
	}

	var err error
	if backup.Children, err = s.childRepo.ListChildren(false); err != nil {
		return nil, fmt.Errorf("failed to export children: %w", err)
	}

	lists, err := s.listRepo.ListLists()
	if err != nil {
		return nil, fmt.Errorf("failed to export word lists: %w", err)
	}
	backup.WordLists = make([]ListBackup, 0, len(lists))
	for _, l := range lists {
		words, err := s.listRepo.GetListWords(l.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to export words of list %d: %w", l.ID, err)
		}
		backup.WordLists = append(backup.WordLists, ListBackup{
			ID: l.ID, Name: l.Name, Description: l.Description, CreatedAt: l.CreatedAt, Words: words,
		})
	}

	if backup.Fonts, err = s.fontRepo.ListAllFonts(); err != nil {
		return nil, fmt.Errorf("failed to export fonts: %w", err)
	}

	details, err := s.recordRepo.ListAllRecordDetails()
	if err != nil {
		return nil, fmt.Errorf("failed to export reading records: %w", err)
	}
	backup.Records = make([]models.ReadingRecord, 0, len(details))
	for _, d := range details {
		backup.Records = append(backup.Records, d.ReadingRecord)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	slog.Info("database exported",
		"children", len(backup.Children), "word_lists", len(backup.WordLists),
		"fonts", len(backup.Fonts), "reading_records", len(backup.Records))
	return backup, nil
}

// Import restores a backup in a single transaction. Rows get new IDs and
// references are remapped; records pointing at rows missing from the backup
// are skipped. With clear set, all existing data is deleted first.
func (s *BackupService) Import(r io.Reader, clear bool) (*ImportSummary, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}
	slog.Info("importing backup", "version", backup.Version, "exported_at", backup.ExportedAt, "source", backup.DatabaseType)

	summary := &ImportSummary{}
	err := s.db.WithTx(func(tx *database.Tx) error {
		if clear {
			for _, table := range []string{"reading_records", "words", "word_lists", "children", "fonts"} {
				if _, err := tx.Exec("DELETE FROM " + table); err != nil {
					return fmt.Errorf("failed to clear %s: %w", table, err)
				}
			}
		}

		childIDs, err := importChildren(tx, backup.Children)
		if err != nil {
			return err
		}
		summary.Children = len(childIDs)

		wordIDs := make(map[int64]int64)
		for _, l := range backup.WordLists {
			listID, err := tx.ExecReturningID(
				"INSERT INTO word_lists (name, description, created_at) VALUES (?, ?, ?)",
				l.Name, l.Description, createdAt(l.CreatedAt))
			if err != nil {
				return fmt.Errorf("failed to import word list %q: %w", l.Name, err)
			}
			summary.WordLists++
			for _, w := range l.Words {
				id, err := tx.ExecReturningID(
					"INSERT INTO words (word_list_id, word_text, display_order) VALUES (?, ?, ?)",
					listID, w.WordText, w.DisplayOrder)
				if err != nil {
					return fmt.Errorf("failed to import word %q: %w", w.WordText, err)
				}
				wordIDs[w.ID] = id
				summary.Words++
			}
		}

		fontIDs, err := importFonts(tx, backup.Fonts)
		if err != nil {
			return err
		}
		summary.Fonts = len(fontIDs)

		for _, rec := range backup.Records {
			childID, okChild := childIDs[rec.ChildID]
			wordID, okWord := wordIDs[rec.WordID]
			if !okChild || !okWord {
				summary.SkippedRecords++
				continue
			}
			var fontID *int64
			if rec.FontID != nil {
				if id, ok := fontIDs[*rec.FontID]; ok {
					fontID = &id
				}
			}
			if _, err := tx.Exec(`INSERT INTO reading_records
				(child_id, word_id, test_date, could_read, reading_time_seconds, misread_as, notes, font_id)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				childID, wordID, createdAt(rec.TestDate), repository.BoolToInt(rec.CouldRead),
				rec.ReadingTimeSeconds, rec.MisreadAs, rec.Notes, fontID); err != nil {
				return fmt.Errorf("failed to import reading record %d: %w", rec.ID, err)
			}
			summary.Records++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("backup imported",
		"children", summary.Children, "word_lists", summary.WordLists, "words", summary.Words,
		"fonts", summary.Fonts, "reading_records", summary.Records, "skipped_records", summary.SkippedRecords)
	return summary, nil
}

func importChildren(tx *database.Tx, children []models.Child) (map[int64]int64, error) {
	ids := make(map[int64]int64, len(children))
	for _, c := range children {
		id, err := tx.ExecReturningID(`INSERT INTO children
			(name, grade, birth_year, birth_month, enrollment_year, enrollment_month, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.Name, c.Grade, c.BirthYear, c.BirthMonth, c.EnrollmentYear, c.EnrollmentMonth, c.Notes, createdAt(c.CreatedAt))
		if err != nil {
			return nil, fmt.Errorf("failed to import child %q: %w", c.Name, err)
		}
		ids[c.ID] = id
	}
	return ids, nil
}

func importFonts(tx *database.Tx, fonts []models.Font) (map[int64]int64, error) {
	ids := make(map[int64]int64, len(fonts))
	for _, f := range fonts {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("invalid font %q in backup: %w", f.Name, err)
		}
		id, err := tx.ExecReturningID(
			"INSERT INTO fonts (name, font_family, font_type, file_path, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			f.Name, f.FontFamily, string(f.FontType), f.FilePath, repository.BoolToInt(f.IsActive), createdAt(f.CreatedAt))
		if err != nil {
			return nil, fmt.Errorf("failed to import font %q: %w", f.Name, err)
		}
		ids[f.ID] = id
	}
	return ids, nil
}

// createdAt keeps a backup timestamp, using now for rows exported without one
func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

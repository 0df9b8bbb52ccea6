package repository

import (
	"database/sql"
	"fmt"

	"readinglog/internal/database"
	"readinglog/internal/models"
)

const recordDetailSelect = `
	SELECT rr.id, rr.child_id, rr.word_id, rr.test_date, rr.could_read,
		rr.reading_time_seconds, rr.misread_as, rr.notes, rr.font_id,
		w.word_text, wl.name, f.name, f.font_family
	FROM reading_records rr
	JOIN words w ON rr.word_id = w.id
	JOIN word_lists wl ON w.word_list_id = wl.id
	LEFT JOIN fonts f ON rr.font_id = f.id`

// RecordRepository handles database operations for reading records
type RecordRepository struct {
	db *database.DB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *database.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// CreateRecord inserts a reading record. A zero TestDate takes the store's
// current timestamp. An empty MisreadAs is stored as NULL.
func (r *RecordRepository) CreateRecord(rec *models.ReadingRecord) (int64, error) {
	return createRecord(r.db, rec)
}

func createRecord(q database.DBTX, rec *models.ReadingRecord) (int64, error) {
	args := []interface{}{
		rec.ChildID,
		rec.WordID,
		BoolToInt(rec.CouldRead),
		nullFloat(rec.ReadingTimeSeconds),
		nullIfEmpty(rec.MisreadAs),
		nullString(rec.Notes),
		nullInt64(rec.FontID),
	}
	query := `INSERT INTO reading_records
		(child_id, word_id, could_read, reading_time_seconds, misread_as, notes, font_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if !rec.TestDate.IsZero() {
		query = `INSERT INTO reading_records
			(child_id, word_id, could_read, reading_time_seconds, misread_as, notes, font_id, test_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		args = append(args, rec.TestDate.UTC())
	}

	id, err := q.ExecReturningID(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to create reading record: %w", err)
	}
	return id, nil
}

// GetRecordDetail retrieves one record with its word, list and font. It
// returns nil when no record exists.
func (r *RecordRepository) GetRecordDetail(id int64) (*models.RecordDetail, error) {
	detail, err := scanRecordDetail(r.db.QueryRow(recordDetailSelect+" WHERE rr.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reading record: %w", err)
	}
	return detail, nil
}

// ListRecordDetailsByChild returns a child's records, most recent test first
func (r *RecordRepository) ListRecordDetailsByChild(childID int64) ([]models.RecordDetail, error) {
	return r.listDetails(recordDetailSelect+" WHERE rr.child_id = ? ORDER BY rr.test_date DESC, rr.id DESC", childID)
}

// ListAllRecordDetails returns every record in insertion order
func (r *RecordRepository) ListAllRecordDetails() ([]models.RecordDetail, error) {
	return r.listDetails(recordDetailSelect + " ORDER BY rr.id ASC")
}

func (r *RecordRepository) listDetails(query string, args ...interface{}) ([]models.RecordDetail, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reading records: %w", err)
	}
	defer rows.Close()

	details := []models.RecordDetail{}
	for rows.Next() {
		detail, err := scanRecordDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading record: %w", err)
		}
		details = append(details, *detail)
	}
	return details, rows.Err()
}

// GetChildStats computes a child's totals on demand
func (r *RecordRepository) GetChildStats(childID int64) (models.ChildStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN could_read = 1 THEN 1 ELSE 0 END), 0),
			AVG(reading_time_seconds),
			COUNT(CASE WHEN misread_as IS NOT NULL AND misread_as <> '' THEN 1 END),
			COUNT(DISTINCT date(test_date))
		FROM reading_records
		WHERE child_id = ?
	`
	var (
		stats models.ChildStats
		avg   sql.NullFloat64
	)
	err := r.db.QueryRow(query, childID).Scan(
		&stats.TotalTests,
		&stats.SuccessfulReads,
		&avg,
		&stats.MisreadCount,
		&stats.TestDays,
	)
	if err != nil {
		return models.ChildStats{}, fmt.Errorf("failed to compute child stats: %w", err)
	}
	stats.AvgTime = floatPtr(avg)
	return stats, nil
}

func scanRecordDetail(row rowScanner) (*models.RecordDetail, error) {
	var (
		d                    models.RecordDetail
		couldRead            int
		seconds              sql.NullFloat64
		misread, notes       sql.NullString
		fontID               sql.NullInt64
		fontName, fontFamily sql.NullString
	)
	err := row.Scan(
		&d.ID,
		&d.ChildID,
		&d.WordID,
		&d.TestDate,
		&couldRead,
		&seconds,
		&misread,
		&notes,
		&fontID,
		&d.WordText,
		&d.WordListName,
		&fontName,
		&fontFamily,
	)
	if err != nil {
		return nil, err
	}
	d.CouldRead = couldRead != 0
	d.ReadingTimeSeconds = floatPtr(seconds)
	d.MisreadAs = stringPtr(misread)
	d.Notes = stringPtr(notes)
	d.FontID = int64Ptr(fontID)
	d.FontName = stringPtr(fontName)
	d.FontFamily = stringPtr(fontFamily)
	return &d, nil
}

package repository

import (
	"database/sql"
	"fmt"

	"readinglog/internal/database"
	"readinglog/internal/models"
)

const fontColumns = "id, name, font_family, font_type, file_path, is_active, created_at"

// FontRepository handles database operations for fonts
type FontRepository struct {
	db *database.DB
}

// NewFontRepository creates a new font repository
func NewFontRepository(db *database.DB) *FontRepository {
	return &FontRepository{db: db}
}

// CreateFont validates and inserts a font
func (r *FontRepository) CreateFont(f *models.Font) (int64, error) {
	return createFont(r.db, f)
}

func createFont(q database.DBTX, f *models.Font) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	id, err := q.ExecReturningID(
		"INSERT INTO fonts (name, font_family, font_type, file_path, is_active) VALUES (?, ?, ?, ?, ?)",
		f.Name, f.FontFamily, string(f.FontType), nullString(f.FilePath), BoolToInt(f.IsActive))
	if err != nil {
		return 0, fmt.Errorf("failed to create font: %w", err)
	}
	return id, nil
}

// GetFontByID retrieves a font by ID. It returns nil when no font exists.
func (r *FontRepository) GetFontByID(id int64) (*models.Font, error) {
	font, err := scanFont(r.db.QueryRow("SELECT "+fontColumns+" FROM fonts WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get font: %w", err)
	}
	return font, nil
}

// ListActiveFonts returns active fonts ordered by type, then name
func (r *FontRepository) ListActiveFonts() ([]models.Font, error) {
	return r.listFonts("SELECT " + fontColumns + " FROM fonts WHERE is_active = 1 ORDER BY font_type, name")
}

// ListAllFonts returns every font, including inactive ones
func (r *FontRepository) ListAllFonts() ([]models.Font, error) {
	return r.listFonts("SELECT " + fontColumns + " FROM fonts ORDER BY font_type, name")
}

func (r *FontRepository) listFonts(query string) ([]models.Font, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fonts: %w", err)
	}
	defer rows.Close()

	fonts := []models.Font{}
	for rows.Next() {
		font, err := scanFont(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan font: %w", err)
		}
		fonts = append(fonts, *font)
	}
	return fonts, rows.Err()
}

// SetFontActive shows or hides a font in the picker
func (r *FontRepository) SetFontActive(id int64, active bool) (bool, error) {
	res, err := r.db.Exec("UPDATE fonts SET is_active = ? WHERE id = ?", BoolToInt(active), id)
	if err != nil {
		return false, fmt.Errorf("failed to update font: %w", err)
	}
	return rowsAffected(res)
}

// DeleteFont deletes a font. Reading records that used it keep a NULL font.
func (r *FontRepository) DeleteFont(id int64) (bool, error) {
	res, err := r.db.Exec("DELETE FROM fonts WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete font: %w", err)
	}
	return rowsAffected(res)
}

// SeedFontsIfEmpty inserts fonts only when the table is empty. It reports
// whether anything was inserted.
func (r *FontRepository) SeedFontsIfEmpty(fonts []models.Font) (bool, error) {
	seeded := false
	err := r.db.WithTx(func(tx *database.Tx) error {
		var n int
		if err := tx.QueryRow("SELECT COUNT(*) FROM fonts").Scan(&n); err != nil {
			return fmt.Errorf("failed to count fonts: %w", err)
		}
		if n > 0 {
			return nil
		}
		for i := range fonts {
			if _, err := createFont(tx, &fonts[i]); err != nil {
				return fmt.Errorf("font %q: %w", fonts[i].Name, err)
			}
		}
		seeded = true
		return nil
	})
	return seeded, err
}

func scanFont(row rowScanner) (*models.Font, error) {
	var (
		f        models.Font
		fontType string
		path     sql.NullString
		active   int
	)
	if err := row.Scan(&f.ID, &f.Name, &f.FontFamily, &fontType, &path, &active, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.FontType = models.FontType(fontType)
	f.FilePath = stringPtr(path)
	f.IsActive = active != 0
	return &f, nil
}

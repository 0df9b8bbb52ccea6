package models

import (
	"errors"
	"strings"
	"time"
)

// FontType classifies where a font comes from
type FontType string

const (
	FontTypeSystem  FontType = "system"
	FontTypeWebfont FontType = "webfont"
	FontTypeCustom  FontType = "custom"
)

// Valid reports whether t is one of the known font types
func (t FontType) Valid() bool {
	switch t {
	case FontTypeSystem, FontTypeWebfont, FontTypeCustom:
		return true
	}
	return false
}

// Font is a typeface words can be rendered in during a test
type Font struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	FontFamily string    `json:"font_family"`
	FontType   FontType  `json:"font_type"`
	FilePath   *string   `json:"file_path"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

var (
	ErrFontNameRequired   = errors.New("font name is required")
	ErrFontFamilyRequired = errors.New("font family is required")
	ErrFontTypeInvalid    = errors.New("font type must be system, webfont or custom")
	ErrFontFilePath       = errors.New("file path must be set for custom fonts and only for custom fonts")
)

// Validate checks the font's required fields and that a file path is present
// exactly when the font is custom.
func (f *Font) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrFontNameRequired
	}
	if strings.TrimSpace(f.FontFamily) == "" {
		return ErrFontFamilyRequired
	}
	if !f.FontType.Valid() {
		return ErrFontTypeInvalid
	}
	hasPath := f.FilePath != nil && *f.FilePath != ""
	if hasPath != (f.FontType == FontTypeCustom) {
		return ErrFontFilePath
	}
	return nil
}

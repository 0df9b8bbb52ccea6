package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"readinglog/internal/models"
	"readinglog/internal/repository"
	"readinglog/internal/storage"
)

// FontExtensions are the accepted custom font file types
var FontExtensions = []string{".ttf", ".otf", ".woff", ".woff2"}

// FontService handles font listing and custom font files
type FontService struct {
	fontRepo *repository.FontRepository
	store    storage.FontStore
}

// NewFontService creates a new font service
func NewFontService(fontRepo *repository.FontRepository, store storage.FontStore) *FontService {
	return &FontService{fontRepo: fontRepo, store: store}
}

// SeedDefaults creates the default fonts when none exist
func (s *FontService) SeedDefaults() error {
	seeded, err := s.fontRepo.SeedFontsIfEmpty(DefaultFonts())
	if err != nil {
		return fmt.Errorf("failed to seed fonts: %w", err)
	}
	if seeded {
		slog.Info("seeded default fonts", "count", len(DefaultFonts()))
	}
	return nil
}

// ListActive returns active fonts ordered by type, then name
func (s *FontService) ListActive() ([]models.Font, error) {
	return s.fontRepo.ListActiveFonts()
}

// ListAll returns every font, including hidden ones
func (s *FontService) ListAll() ([]models.Font, error) {
	return s.fontRepo.ListAllFonts()
}

// SetActive shows or hides a font in the picker. Records already taken with
// a hidden font keep it.
func (s *FontService) SetActive(ctx context.Context, id int64, active bool) error {
	ok, err := s.fontRepo.SetFontActive(id, active)
	if err != nil {
		return err
	}
	if !ok {
		return ErrFontNotFound
	}
	slog.InfoContext(ctx, "font visibility changed", "font_id", id, "active", active)
	return nil
}

// cssFontFamily quotes name as a CSS string so any character in a user
// supplied font name stays inside the family value.
func cssFontFamily(name string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range name {
		switch {
		case r == '\'' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, "\\%x ", r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func allowedFontFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range FontExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// UploadFont stores a custom font file and registers it. The stored file is
// removed again when the font cannot be registered.
func (s *FontService) UploadFont(ctx context.Context, fontName, filename string, r io.Reader, size int64) (*models.Font, error) {
	fontName = strings.TrimSpace(fontName)
	if fontName == "" {
		return nil, ValidationError{Field: "fontName", Message: "font name is required"}
	}
	if !allowedFontFile(filename) {
		return nil, ValidationError{Field: "fontFile", Message: "only .ttf, .otf, .woff and .woff2 files can be uploaded"}
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	if err := s.store.Put(ctx, name, r, size, storage.ContentType(name)); err != nil {
		return nil, fmt.Errorf("failed to store font file: %w", err)
	}

	path := storage.PublicPath(name)
	font := &models.Font{
		Name:       fontName,
		FontFamily: cssFontFamily(fontName),
		FontType:   models.FontTypeCustom,
		FilePath:   &path,
		IsActive:   true,
	}
	id, err := s.fontRepo.CreateFont(font)
	if err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), name); delErr != nil {
			slog.Error("failed to remove orphaned font file", "name", name, "error", delErr)
		}
		return nil, err
	}
	font.ID = id

	slog.InfoContext(ctx, "font uploaded", "font_id", id, "name", fontName, "path", path)
	return font, nil
}

// DeleteFont removes a font. A custom font's file goes first; a file that is
// already gone does not block the delete.
func (s *FontService) DeleteFont(ctx context.Context, id int64) error {
	font, err := s.fontRepo.GetFontByID(id)
	if err != nil {
		return err
	}
	if font == nil {
		return ErrFontNotFound
	}

	if font.FontType == models.FontTypeCustom && font.FilePath != nil {
		name, err := storage.NameFromPublicPath(*font.FilePath)
		if err != nil {
			slog.WarnContext(ctx, "custom font has an unexpected path, leaving file", "font_id", id, "path", *font.FilePath)
		} else if err := s.store.Delete(ctx, name); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to delete font file: %w", err)
		}
	}

	ok, err := s.fontRepo.DeleteFont(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrFontNotFound
	}
	slog.InfoContext(ctx, "font deleted", "font_id", id, "name", font.Name)
	return nil
}

// Package storage keeps uploaded custom font files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"readinglog/internal/config"
)

// PublicPrefix is the URL path fonts are served under
const PublicPrefix = "/fonts/"

// ErrNotFound is returned by Open when no file is stored under the name
var ErrNotFound = errors.New("font file not found")

// FontStore stores font files by flat name. Delete of a missing name succeeds.
type FontStore interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// PublicPath returns the path a stored font is served at
func PublicPath(name string) string {
	return PublicPrefix + name
}

// NameFromPublicPath reverses PublicPath. It rejects paths outside the font
// prefix and names that would escape the store.
func NameFromPublicPath(p string) (string, error) {
	if !strings.HasPrefix(p, PublicPrefix) {
		return "", fmt.Errorf("path %q is not a font path", p)
	}
	name := strings.TrimPrefix(p, PublicPrefix)
	if err := validName(name); err != nil {
		return "", err
	}
	return name, nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || path.Clean(name) != name {
		return fmt.Errorf("invalid font file name %q", name)
	}
	return nil
}

// ContentType guesses a font MIME type from the file extension
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".ttf":
		return "font/ttf"
	case ".otf":
		return "font/otf"
	case ".woff":
		return "font/woff"
	case ".woff2":
		return "font/woff2"
	}
	return "application/octet-stream"
}

// NewFromConfig builds the store selected by FONT_STORE
func NewFromConfig(ctx context.Context, cfg *config.Config) (FontStore, error) {
	switch strings.ToLower(cfg.FontStore) {
	case "", "local":
		slog.Info("font store: local directory", "dir", cfg.FontDir)
		return NewLocalStore(cfg.FontDir)
	case "minio":
		slog.Info("font store: minio", "endpoint", cfg.ObjectEndpoint, "bucket", cfg.ObjectBucket)
		return NewMinioStore(ctx, cfg.ObjectEndpoint, cfg.ObjectAccess, cfg.ObjectSecret, cfg.ObjectBucket, cfg.ObjectUseSSL)
	case "s3":
		slog.Info("font store: s3", "region", cfg.ObjectRegion, "bucket", cfg.ObjectBucket)
		return NewS3Store(ctx, cfg.ObjectRegion, cfg.ObjectEndpoint, cfg.ObjectAccess, cfg.ObjectSecret, cfg.ObjectBucket)
	default:
		return nil, fmt.Errorf("unsupported font store: %s", cfg.FontStore)
	}
}

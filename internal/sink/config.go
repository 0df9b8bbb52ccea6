package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"

	"readinglog/internal/config"
)

const submitTimeout = 10 * time.Second

// NewFromConfig builds a notifier over every sink the configuration enables.
// With none enabled it returns Nop.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Notifier, error) {
	var sinks []Sink

	sheets, err := NewSheetsFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if sheets != nil {
		sinks = append(sinks, sheets)
	}

	if cfg.FirebaseProjectID == "" {
		slog.Info("firestore sink disabled: FIREBASE_PROJECT_ID not configured")
	} else {
		client, err := googleClient(ctx, cfg, datastoreScope)
		if err != nil {
			return nil, fmt.Errorf("firestore sink: %w", err)
		}
		fs, err := NewFirestore(ctx, cfg.FirebaseProjectID, option.WithHTTPClient(client))
		if err != nil {
			return nil, err
		}
		slog.Info("firestore sink enabled", "project", cfg.FirebaseProjectID)
		sinks = append(sinks, fs)
	}

	if len(sinks) == 0 {
		return Nop{}, nil
	}
	return NewFanout(submitTimeout, sinks...), nil
}

// NewSheetsFromConfig returns nil when no spreadsheet is configured
func NewSheetsFromConfig(ctx context.Context, cfg *config.Config) (*Sheets, error) {
	if cfg.GoogleSheetID == "" {
		slog.Info("sheets sink disabled: GOOGLE_SHEET_ID not configured")
		return nil, nil
	}
	client, err := googleClient(ctx, cfg, sheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets sink: %w", err)
	}
	slog.Info("sheets sink enabled", "sheet", cfg.GoogleSheetName)
	return NewSheets(ctx, cfg.GoogleSheetID, cfg.GoogleSheetName, option.WithHTTPClient(client))
}

package sink

import (
	"context"
	"fmt"
	"time"

	firestore "google.golang.org/api/firestore/v1"
	"google.golang.org/api/option"
)

const firestoreCollection = "reading_records"

// Firestore adds one document per record to the reading_records collection
type Firestore struct {
	documents *firestore.ProjectsDatabasesDocumentsService
	parent    string
}

// NewFirestore builds the Firestore API client from opts, which must carry
// credentials.
func NewFirestore(ctx context.Context, projectID string, opts ...option.ClientOption) (*Firestore, error) {
	svc, err := firestore.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &Firestore{
		documents: svc.Projects.Databases.Documents,
		parent:    fmt.Sprintf("projects/%s/databases/(default)/documents", projectID),
	}, nil
}

func (f *Firestore) Name() string { return "firestore" }

// Send creates a document with an auto-generated ID
func (f *Firestore) Send(ctx context.Context, ev RecordEvent) error {
	doc := &firestore.Document{Fields: firestoreFields(ev)}
	if _, err := f.documents.CreateDocument(f.parent, firestoreCollection, doc).Context(ctx).Do(); err != nil {
		return fmt.Errorf("firestore create: %w", err)
	}
	return nil
}

func stringValue(s string) firestore.Value { return firestore.Value{StringValue: &s} }

func firestoreFields(ev RecordEvent) map[string]firestore.Value {
	couldRead := ev.CouldRead
	seconds := firestore.Value{NullValue: "NULL_VALUE"}
	if ev.ReadingTimeSeconds != nil {
		secs := *ev.ReadingTimeSeconds
		seconds = firestore.Value{DoubleValue: &secs}
	}
	return map[string]firestore.Value{
		"child_name":           stringValue(ev.ChildName),
		"child_grade":          stringValue(ev.ChildGrade),
		"word_text":            stringValue(ev.WordText),
		"word_list_name":       stringValue(ev.WordListName),
		"could_read":           {BooleanValue: &couldRead},
		"reading_time_seconds": seconds,
		"misread_as":           stringValue(ev.MisreadAs),
		"notes":                stringValue(ev.Notes),
		"font_name":            stringValue(ev.FontName),
		"created_at":           {TimestampValue: ev.CreatedAt.UTC().Format(time.RFC3339Nano)},
	}
}

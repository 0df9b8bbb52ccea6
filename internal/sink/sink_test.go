package sink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"readinglog/internal/config"
)

type fakeSink struct {
	name  string
	err   error
	calls atomic.Int32
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Send(ctx context.Context, ev RecordEvent) error {
	f.calls.Add(1)
	return f.err
}

func testEvent() RecordEvent {
	secs := 2.5
	return RecordEvent{
		RecordID:           1,
		ChildName:          "Hana",
		ChildGrade:         "2",
		WordText:           "ねこ",
		WordListName:       "基本単語セット1",
		CouldRead:          true,
		ReadingTimeSeconds: &secs,
		FontName:           "Arial",
		CreatedAt:          time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestFanoutSwallowsFailures(t *testing.T) {
	good := &fakeSink{name: "good"}
	bad := &fakeSink{name: "bad", err: errors.New("unreachable")}
	f := NewFanout(time.Second, good, bad)

	f.Submit(context.Background(), testEvent())

	if good.calls.Load() != 1 || bad.calls.Load() != 1 {
		t.Errorf("calls good=%d bad=%d, want 1 each", good.calls.Load(), bad.calls.Load())
	}
}

func TestFanoutIgnoresCancelledRequest(t *testing.T) {
	s := &fakeSink{name: "s"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var seen error
	watcher := sinkFunc(func(ctx context.Context) error {
		seen = ctx.Err()
		return nil
	})
	NewFanout(time.Second, s, watcher).Submit(ctx, testEvent())

	if seen != nil {
		t.Errorf("sink context error = %v, want nil", seen)
	}
}

type sinkFunc func(ctx context.Context) error

func (sinkFunc) Name() string                                    { return "func" }
func (f sinkFunc) Send(ctx context.Context, _ RecordEvent) error { return f(ctx) }

func TestSheetRow(t *testing.T) {
	got := sheetRow(testEvent())
	want := []string{"2024/5/1 18:30:00", "Hana", "2", "ねこ", "基本単語セット1", "○", "2.5", "", "", "Arial"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sheetRow() = %q, want %q", got, want)
	}

	ev := testEvent()
	ev.CouldRead = false
	ev.ReadingTimeSeconds = nil
	ev.MisreadAs = "ねご"
	got = sheetRow(ev)
	if got[5] != "×" || got[6] != "" || got[7] != "ねご" {
		t.Errorf("sheetRow(misread) = %q", got)
	}
}

// testOptions points a Google API client at srv without credentials
func testOptions(srv *httptest.Server) []option.ClientOption {
	return []option.ClientOption{
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL + "/"),
	}
}

func newTestSheets(t *testing.T, srv *httptest.Server, sheetName string) *Sheets {
	t.Helper()
	s, err := NewSheets(context.Background(), "sheet123", sheetName, testOptions(srv)...)
	if err != nil {
		t.Fatalf("NewSheets() error = %v", err)
	}
	return s
}

func TestSheetsSend(t *testing.T) {
	var gotMethod, gotPath string
	var gotQuery url.Values
	var gotBody struct {
		Values [][]string `json:"values"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := newTestSheets(t, srv, "テスト記録")
	if err := s.Send(context.Background(), testEvent()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/v4/spreadsheets/sheet123/values/テスト記録!A:J:append" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	if gotQuery.Get("valueInputOption") != "USER_ENTERED" || gotQuery.Get("insertDataOption") != "INSERT_ROWS" {
		t.Errorf("query = %v", gotQuery)
	}
	if len(gotBody.Values) != 1 || gotBody.Values[0][3] != "ねこ" || gotBody.Values[0][5] != "○" {
		t.Errorf("body values = %v", gotBody.Values)
	}
}

func TestSheetsEnsureHeader(t *testing.T) {
	var gotMethod, gotPath, gotInput string
	var gotBody struct {
		Values [][]string `json:"values"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotInput = r.URL.Query().Get("valueInputOption")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := newTestSheets(t, srv, "Sheet1")
	if err := s.EnsureHeader(context.Background()); err != nil {
		t.Fatalf("EnsureHeader() error = %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/v4/spreadsheets/sheet123/values/Sheet1!A1:J1" || gotInput != "RAW" {
		t.Errorf("request = %s %s (%s)", gotMethod, gotPath, gotInput)
	}
	if len(gotBody.Values) != 1 || !reflect.DeepEqual(gotBody.Values[0], SheetHeader) {
		t.Errorf("header row = %v", gotBody.Values)
	}
}

func TestSheetsSendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "permission denied", http.StatusForbidden)
	}))
	defer srv.Close()

	err := newTestSheets(t, srv, "Sheet1").Send(context.Background(), testEvent())
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusForbidden {
		t.Errorf("Send() error = %v, want a 403 API error", err)
	}
}

func TestFirestoreSend(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Fields map[string]map[string]interface{} `json:"fields"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f, err := NewFirestore(context.Background(), "proj", testOptions(srv)...)
	if err != nil {
		t.Fatalf("NewFirestore() error = %v", err)
	}
	if err := f.Send(context.Background(), testEvent()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotPath != "/v1/projects/proj/databases/(default)/documents/reading_records" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody.Fields["could_read"]["booleanValue"] != true {
		t.Errorf("could_read = %v", gotBody.Fields["could_read"])
	}
	if gotBody.Fields["reading_time_seconds"]["doubleValue"] != 2.5 {
		t.Errorf("reading_time_seconds = %v", gotBody.Fields["reading_time_seconds"])
	}
	if gotBody.Fields["created_at"]["timestampValue"] != "2024-05-01T09:30:00Z" {
		t.Errorf("created_at = %v", gotBody.Fields["created_at"])
	}
	if gotBody.Fields["misread_as"]["stringValue"] != "" {
		t.Errorf("misread_as = %v", gotBody.Fields["misread_as"])
	}
}

func TestFirestoreFieldsWithoutTime(t *testing.T) {
	ev := testEvent()
	ev.ReadingTimeSeconds = nil
	ev.CouldRead = false

	fields := firestoreFields(ev)
	if fields["reading_time_seconds"].NullValue != "NULL_VALUE" || fields["reading_time_seconds"].DoubleValue != nil {
		t.Errorf("reading_time_seconds = %+v", fields["reading_time_seconds"])
	}
	if b := fields["could_read"].BooleanValue; b == nil || *b {
		t.Errorf("could_read = %v", b)
	}
}

func TestNewFromConfigUnconfigured(t *testing.T) {
	n, err := NewFromConfig(context.Background(), &config.Config{})
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}
	if _, ok := n.(Nop); !ok {
		t.Errorf("NewFromConfig() = %T, want Nop", n)
	}
}

func TestNewFromConfigMissingCredentials(t *testing.T) {
	_, err := NewFromConfig(context.Background(), &config.Config{GoogleSheetID: "abc"})
	if !errors.Is(err, errNoCredentials) {
		t.Errorf("NewFromConfig() error = %v, want errNoCredentials", err)
	}
}

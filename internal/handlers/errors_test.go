package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"readinglog/internal/models"
	"readinglog/internal/service"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Success || body.Message != "Teapot" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	original := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(original)

	recorder := httptest.NewRecorder()
	respondWithError(recorder, 500, "Internal server error", "", errors.New("boom"))

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Internal server error") {
		t.Fatalf("expected log to include user message, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "boom") {
		t.Fatalf("expected log to include error, got %q", logOutput)
	}
}

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", service.ValidationError{Field: "name", Message: "name is required"}, http.StatusBadRequest, "name is required"},
		{"wrapped validation", fmt.Errorf("create: %w", service.ValidationError{Field: "words", Message: "empty"}), http.StatusBadRequest, "empty"},
		{"font rule", models.ErrFontFilePath, http.StatusBadRequest, models.ErrFontFilePath.Error()},
		{"child not found", service.ErrChildNotFound, http.StatusNotFound, "child not found"},
		{"wrapped not found", fmt.Errorf("x: %w", service.ErrFontNotFound), http.StatusNotFound, "x: font not found"},
		{"bad password", service.ErrInvalidCredentials, http.StatusUnauthorized, ErrUnauthorized},
		{"bad admin password", service.ErrInvalidAdminPassword, http.StatusForbidden, ErrForbidden},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, ErrInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondWithServiceError(rec, tt.err, "")
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body.Message != tt.message {
				t.Errorf("message = %q, want %q", body.Message, tt.message)
			}
		})
	}
}

func TestStartupGate(t *testing.T) {
	s := NewStartup("Database connection", "Running migrations")
	s.Begin("Database connection")
	s.Complete("Database connection")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/children", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("before ready: status = %d, want 503", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	var st StartupStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("readyz body: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable || st.Progress != 50 || st.Ready {
		t.Errorf("readyz before ready = %d %+v", rec.Code, st)
	}

	s.MarkReady(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/children", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("after ready: status = %d, want the wrapped handler's", rec.Code)
	}
	if st := s.Status(); !st.Ready || st.Progress != 100 {
		t.Errorf("status after ready = %+v", st)
	}
}

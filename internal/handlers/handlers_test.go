package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"readinglog/internal/database"
	"readinglog/internal/models"
	"readinglog/internal/repository"
	"readinglog/internal/security"
	"readinglog/internal/service"
	"readinglog/internal/sink"
	"readinglog/internal/storage"
)

const (
	testAppPassword   = "shared-secret"
	testAdminPassword = "admin-secret"
)

type apiClient struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
	csrf    string
}

func newTestServer(t *testing.T, appPassword string) *apiClient {
	t.Helper()
	return newTestServerWithSecret(t, appPassword, "test-secret")
}

func newTestServerWithSecret(t *testing.T, appPassword, sessionSecret string) *apiClient {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	store, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "fonts"))
	if err != nil {
		t.Fatalf("Failed to create font store: %v", err)
	}

	childRepo := repository.NewChildRepository(db)
	listRepo := repository.NewListRepository(db)
	fontRepo := repository.NewFontRepository(db)
	recordRepo := repository.NewRecordRepository(db)

	authService, err := service.NewAuthService(appPassword, testAdminPassword, sessionSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	listService := service.NewListService(listRepo, filepath.Join(t.TempDir(), "uploads"))
	if err := listService.SeedDefaults(); err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}

	limiter := security.NewRateLimiter(100, time.Minute)
	t.Cleanup(limiter.Stop)

	h := &Handlers{
		Middleware: NewMiddleware(authService, limiter),
		Auth:       NewAuthHandler(authService),
		Child:      NewChildHandler(service.NewChildService(childRepo)),
		List:       NewListHandler(listService, 1<<20),
		Font:       NewFontHandler(service.NewFontService(fontRepo, store), 1<<20),
		Record:     NewRecordHandler(service.NewRecordService(recordRepo, childRepo, listRepo, fontRepo, sink.Nop{})),
		Admin:      NewAdminHandler(authService, listService, service.NewBackupService(db)),
		FontFiles:  FontFileHandler(store),
	}
	return &apiClient{t: t, handler: h.Routes()}
}

func (c *apiClient) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	if c.csrf != "" {
		req.Header.Set(security.CSRFHeader, c.csrf)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func (c *apiClient) json(method, path string, payload interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			c.t.Fatal(err)
		}
		body = bytes.NewReader(b)
	}
	return c.do(method, path, body, "application/json")
}

func (c *apiClient) login(password string) *httptest.ResponseRecorder {
	c.t.Helper()
	rec := c.json(http.MethodPost, "/api/login", map[string]string{"password": password})
	if rec.Code != http.StatusOK {
		return rec
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == security.SessionCookieName {
			c.cookie = ck
		}
	}
	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		c.t.Fatalf("login body: %v", err)
	}
	c.csrf = resp.CSRFToken
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte, extra map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range extra {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestAuthGate(t *testing.T) {
	c := newTestServer(t, testAppPassword)

	expectStatus(t, c.json(http.MethodGet, "/api/children", nil), http.StatusUnauthorized)
	expectStatus(t, c.login("wrong"), http.StatusUnauthorized)
	if c.cookie != nil {
		t.Fatal("failed login must not set a session cookie")
	}

	expectStatus(t, c.login(testAppPassword), http.StatusOK)
	expectStatus(t, c.json(http.MethodGet, "/api/children", nil), http.StatusOK)

	session := decode[sessionResponse](t, c.json(http.MethodGet, "/api/session", nil))
	if !session.Authenticated || session.CSRFToken != c.csrf {
		t.Errorf("session = %+v", session)
	}

	// Mutations need the CSRF header as well as the cookie.
	token := c.csrf
	c.csrf = ""
	expectStatus(t, c.json(http.MethodPost, "/api/children", map[string]string{"name": "a"}), http.StatusForbidden)
	c.csrf = token
	expectStatus(t, c.json(http.MethodPost, "/api/children", map[string]string{"name": "a"}), http.StatusOK)

	c.cookie.Value = "tampered"
	expectStatus(t, c.json(http.MethodGet, "/api/children", nil), http.StatusUnauthorized)
}

func TestForgedSessionWithoutConfiguredSecret(t *testing.T) {
	c := newTestServerWithSecret(t, testAppPassword, "")

	forged, sessionID, _, err := security.NewTokenSigner("change-me-in-production").Issue(time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	csrfToken, err := security.NewCSRFGenerator("change-me-in-production").GenerateToken(sessionID)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	c.cookie = &http.Cookie{Name: security.SessionCookieName, Value: forged}
	c.csrf = csrfToken

	expectStatus(t, c.json(http.MethodGet, "/api/children", nil), http.StatusUnauthorized)
	expectStatus(t, c.json(http.MethodPost, "/api/children", map[string]string{"name": "a"}), http.StatusUnauthorized)

	// A real login still works against the generated key.
	c.cookie, c.csrf = nil, ""
	expectStatus(t, c.login(testAppPassword), http.StatusOK)
	expectStatus(t, c.json(http.MethodPost, "/api/children", map[string]string{"name": "a"}), http.StatusOK)
}

func TestOpenGate(t *testing.T) {
	c := newTestServer(t, "")
	expectStatus(t, c.json(http.MethodPost, "/api/children", map[string]string{"name": "a"}), http.StatusOK)
	session := decode[sessionResponse](t, c.json(http.MethodGet, "/api/session", nil))
	if session.AuthRequired || !session.Authenticated {
		t.Errorf("session = %+v", session)
	}
}

func TestChildEndpoints(t *testing.T) {
	c := newTestServer(t, testAppPassword)
	c.login(testAppPassword)

	expectStatus(t, c.json(http.MethodPost, "/api/children", map[string]string{"grade": "1"}), http.StatusBadRequest)
	expectStatus(t, c.json(http.MethodPost, "/api/children", map[string]interface{}{"name": "a", "birth_month": 13}), http.StatusBadRequest)

	created := decode[idResponse](t, c.json(http.MethodPost, "/api/children", map[string]interface{}{
		"name": "たろう", "grade": "2年", "birth_year": 2017, "birth_month": 5,
	}))
	if !created.Success || created.ID == 0 {
		t.Fatalf("create = %+v", created)
	}
	decode[idResponse](t, c.json(http.MethodPost, "/api/children", map[string]interface{}{"name": "あいこ"}))

	byName := decode[[]models.Child](t, c.json(http.MethodGet, "/api/children?sort=name", nil))
	if len(byName) != 2 || byName[0].Name != "あいこ" {
		t.Errorf("children by name = %+v", byName)
	}

	path := "/api/children/" + itoa(created.ID)
	expectStatus(t, c.json(http.MethodPut, path, map[string]interface{}{"name": "たろう", "grade": "3年"}), http.StatusOK)
	child := decode[models.Child](t, c.json(http.MethodGet, path, nil))
	if child.Grade == nil || *child.Grade != "3年" || child.BirthYear != nil {
		t.Errorf("updated child = %+v", child)
	}

	expectStatus(t, c.json(http.MethodDelete, path, nil), http.StatusOK)
	expectStatus(t, c.json(http.MethodDelete, path, nil), http.StatusNotFound)
	expectStatus(t, c.json(http.MethodGet, "/api/children/abc", nil), http.StatusBadRequest)
}

func TestWordEndpoints(t *testing.T) {
	c := newTestServer(t, testAppPassword)
	c.login(testAppPassword)

	list := decode[idResponse](t, c.json(http.MethodPost, "/api/word-lists", map[string]string{"name": "動物"}))

	tests := []struct {
		name    string
		payload interface{}
		status  int
	}{
		{"empty words", map[string]interface{}{"word_list_id": list.ID, "words": []string{}}, http.StatusBadRequest},
		{"words not a list", map[string]interface{}{"word_list_id": list.ID, "words": "いぬ"}, http.StatusBadRequest},
		{"missing words", map[string]interface{}{"word_list_id": list.ID}, http.StatusBadRequest},
		{"blank words only", map[string]interface{}{"word_list_id": list.ID, "words": []string{" "}}, http.StatusBadRequest},
		{"unknown list", map[string]interface{}{"word_list_id": 999, "words": []string{"いぬ"}}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, c.json(http.MethodPost, "/api/words/bulk", tt.payload), tt.status)
		})
	}

	bulk := decode[bulkWordsResponse](t, c.json(http.MethodPost, "/api/words/bulk", map[string]interface{}{
		"word_list_id": list.ID, "words": []string{"いぬ", "ねこ", "うま"},
	}))
	if bulk.Count != 3 || len(bulk.IDs) != 3 {
		t.Fatalf("bulk = %+v", bulk)
	}
	word := decode[idResponse](t, c.json(http.MethodPost, "/api/words", map[string]interface{}{
		"word_list_id": list.ID, "word_text": "とり",
	}))

	got := decode[models.WordListWithWords](t, c.json(http.MethodGet, "/api/word-lists/"+itoa(list.ID), nil))
	if len(got.Words) != 4 || got.Words[3].WordText != "とり" || got.Words[3].DisplayOrder != 4 {
		t.Errorf("list words = %+v", got.Words)
	}

	expectStatus(t, c.json(http.MethodDelete, "/api/words/"+itoa(word.ID), nil), http.StatusOK)
	expectStatus(t, c.json(http.MethodDelete, "/api/words/"+itoa(word.ID), nil), http.StatusNotFound)

	simple := decode[[]simpleList](t, c.json(http.MethodGet, "/api/word-lists-simple", nil))
	if len(simple) != 2 || simple[0].Name != "動物" {
		t.Errorf("simple lists = %+v", simple)
	}
}

func TestImportEndpoint(t *testing.T) {
	c := newTestServer(t, testAppPassword)
	c.login(testAppPassword)
	list := decode[idResponse](t, c.json(http.MethodPost, "/api/word-lists", map[string]string{"name": "文書"}))
	path := "/api/word-lists/" + itoa(list.ID) + "/import"

	body, ct := multipartBody(t, "documentFile", "words.docx", docx(t, "あめ かさ", "……", "いぬ"), nil)
	res := decode[importResponse](t, c.do(http.MethodPost, path, body, ct))
	if res.Count != 3 || len(res.Words) != 3 || res.Words[2] != "いぬ" {
		t.Errorf("import = %+v", res)
	}

	body, ct = multipartBody(t, "documentFile", "empty.docx", docx(t, "……"), nil)
	expectStatus(t, c.do(http.MethodPost, path, body, ct), http.StatusBadRequest)

	body, ct = multipartBody(t, "documentFile", "notes.txt", []byte("あめ"), nil)
	expectStatus(t, c.do(http.MethodPost, path, body, ct), http.StatusBadRequest)

	body, ct = multipartBody(t, "otherField", "words.docx", docx(t, "あめ"), nil)
	expectStatus(t, c.do(http.MethodPost, path, body, ct), http.StatusBadRequest)
}

func TestFontEndpoints(t *testing.T) {
	c := newTestServer(t, testAppPassword)
	c.login(testAppPassword)

	body, ct := multipartBody(t, "fontFile", "evil.exe", []byte("x"), map[string]string{"fontName": "Evil"})
	expectStatus(t, c.do(http.MethodPost, "/api/fonts/upload", body, ct), http.StatusBadRequest)

	body, ct = multipartBody(t, "fontFile", "kana.otf", []byte("x"), nil)
	expectStatus(t, c.do(http.MethodPost, "/api/fonts/upload", body, ct), http.StatusBadRequest)

	body, ct = multipartBody(t, "fontFile", "Kana.OTF", []byte("font-data"), map[string]string{"fontName": "Kana"})
	uploaded := decode[fontUploadResponse](t, c.do(http.MethodPost, "/api/fonts/upload", body, ct))
	if !uploaded.Success || uploaded.ID == 0 {
		t.Fatalf("upload = %+v", uploaded)
	}

	file := c.do(http.MethodGet, uploaded.FontPath, nil, "")
	expectStatus(t, file, http.StatusOK)
	if file.Body.String() != "font-data" || file.Header().Get("Content-Type") != "font/otf" {
		t.Errorf("served font = %q (%s)", file.Body.String(), file.Header().Get("Content-Type"))
	}

	fonts := decode[[]models.Font](t, c.json(http.MethodGet, "/api/fonts", nil))
	if len(fonts) != 1 || fonts[0].FontFamily != "'Kana'" {
		t.Errorf("fonts = %+v", fonts)
	}

	fontPath := "/api/fonts/" + itoa(uploaded.ID)
	expectStatus(t, c.json(http.MethodPut, fontPath, map[string]interface{}{}), http.StatusBadRequest)
	expectStatus(t, c.json(http.MethodPut, "/api/fonts/999", map[string]bool{"is_active": false}), http.StatusNotFound)
	expectStatus(t, c.json(http.MethodPut, fontPath, map[string]bool{"is_active": false}), http.StatusOK)
	if fonts := decode[[]models.Font](t, c.json(http.MethodGet, "/api/fonts", nil)); len(fonts) != 0 {
		t.Errorf("hidden font still listed: %+v", fonts)
	}
	all := decode[[]models.Font](t, c.json(http.MethodGet, "/api/fonts?all=true", nil))
	if len(all) != 1 || all[0].IsActive {
		t.Errorf("all fonts = %+v", all)
	}
	expectStatus(t, c.json(http.MethodPut, fontPath, map[string]bool{"is_active": true}), http.StatusOK)
	if fonts := decode[[]models.Font](t, c.json(http.MethodGet, "/api/fonts", nil)); len(fonts) != 1 {
		t.Errorf("re-enabled font missing: %+v", fonts)
	}

	body, ct = multipartBody(t, "fontFile", "tom.ttf", []byte("x"), map[string]string{"fontName": "Tom's Hand"})
	quoted := decode[fontUploadResponse](t, c.do(http.MethodPost, "/api/fonts/upload", body, ct))
	all = decode[[]models.Font](t, c.json(http.MethodGet, "/api/fonts?all=true", nil))
	for _, f := range all {
		if f.ID == quoted.ID && f.FontFamily != `'Tom\'s Hand'` {
			t.Errorf("FontFamily = %q, want the quote escaped", f.FontFamily)
		}
	}

	expectStatus(t, c.json(http.MethodDelete, fontPath, nil), http.StatusOK)
	expectStatus(t, c.do(http.MethodGet, uploaded.FontPath, nil, ""), http.StatusNotFound)
	expectStatus(t, c.json(http.MethodDelete, "/api/fonts/"+itoa(uploaded.ID), nil), http.StatusNotFound)
}

func TestReadingRecordAndAnalysis(t *testing.T) {
	c := newTestServer(t, testAppPassword)
	c.login(testAppPassword)

	child := decode[idResponse](t, c.json(http.MethodPost, "/api/children", map[string]string{"name": "たろう"}))
	lists := decode[[]models.WordList](t, c.json(http.MethodGet, "/api/word-lists", nil))
	if len(lists) != 1 {
		t.Fatalf("expected the seeded list, got %+v", lists)
	}
	test := decode[service.TestSession](t, c.json(http.MethodGet, "/api/test/"+itoa(child.ID)+"/"+itoa(lists[0].ID), nil))
	if len(test.Words) != 10 {
		t.Fatalf("test words = %d, want 10", len(test.Words))
	}

	expectStatus(t, c.json(http.MethodPost, "/api/reading-records", map[string]interface{}{
		"child_id": child.ID, "word_id": test.Words[0].ID,
	}), http.StatusBadRequest)
	expectStatus(t, c.json(http.MethodPost, "/api/reading-records", map[string]interface{}{
		"child_id": 999, "word_id": test.Words[0].ID, "could_read": true,
	}), http.StatusNotFound)

	for i, w := range test.Words[:3] {
		payload := map[string]interface{}{
			"child_id": child.ID, "word_id": w.ID, "could_read": i != 1, "reading_time_seconds": 2.0,
		}
		if i == 1 {
			payload["misread_as"] = "あま"
		}
		rec := decode[idResponse](t, c.json(http.MethodPost, "/api/reading-records", payload))
		if !rec.Success || rec.ID == 0 {
			t.Fatalf("record = %+v", rec)
		}
	}

	analysis := decode[models.Analysis](t, c.json(http.MethodGet, "/api/analysis/"+itoa(child.ID), nil))
	if len(analysis.Records) != 3 || analysis.Stats.TotalTests != 3 || analysis.Stats.SuccessfulReads != 2 ||
		analysis.Stats.MisreadCount != 1 || analysis.Stats.AvgTime == nil || *analysis.Stats.AvgTime != 2.0 {
		t.Errorf("analysis = %+v", analysis.Stats)
	}
	expectStatus(t, c.json(http.MethodGet, "/api/analysis/999", nil), http.StatusNotFound)
}

func TestAdminEndpoints(t *testing.T) {
	c := newTestServer(t, testAppPassword)
	c.login(testAppPassword)

	extra := decode[idResponse](t, c.json(http.MethodPost, "/api/word-lists", map[string]string{"name": "extra"}))
	expectStatus(t, c.json(http.MethodPost, "/api/admin/reset-word-lists", map[string]string{"password": testAppPassword}), http.StatusForbidden)
	expectStatus(t, c.json(http.MethodPost, "/api/admin/reset-word-lists", map[string]string{}), http.StatusBadRequest)
	expectStatus(t, c.json(http.MethodGet, "/api/word-lists/"+itoa(extra.ID), nil), http.StatusOK)

	expectStatus(t, c.json(http.MethodPost, "/api/admin/reset-word-lists", map[string]string{"password": testAdminPassword}), http.StatusOK)
	lists := decode[[]models.WordList](t, c.json(http.MethodGet, "/api/word-lists", nil))
	if len(lists) != 1 || lists[0].Name != service.DefaultWordLists()[0].Name {
		t.Errorf("lists after reset = %+v", lists)
	}

	export := c.json(http.MethodPost, "/api/admin/export", map[string]string{"password": testAdminPassword})
	expectStatus(t, export, http.StatusOK)
	backup := decode[service.BackupData](t, export)
	if backup.Version != service.BackupVersion || len(backup.WordLists) != 1 {
		t.Errorf("export = %+v", backup)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	c := newTestServer(t, testAppPassword)
	expectStatus(t, c.json(http.MethodGet, "/healthz", nil), http.StatusOK)
	c.json(http.MethodGet, "/api/children", nil)
	rec := c.do(http.MethodGet, "/metrics", nil, "")
	expectStatus(t, rec, http.StatusOK)
	if !bytes.Contains(rec.Body.Bytes(), []byte("readinglog_http_requests_total")) {
		t.Error("metrics output should include the request counter")
	}
}

func docx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	for _, p := range paragraphs {
		doc += "<w:p><w:r><w:t>" + p + "</w:t></w:r></w:p>"
	}
	doc += `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

package handlers

import (
	"net/http"

	"readinglog/internal/metrics"
)

// Handlers groups everything the router dispatches to
type Handlers struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Child      *ChildHandler
	List       *ListHandler
	Font       *FontHandler
	Record     *RecordHandler
	Admin      *AdminHandler
	FontFiles  http.HandlerFunc
}

// Routes builds the API mux. Every route is instrumented under its pattern
// and the whole mux is wrapped with request logging.
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()
	m := h.Middleware

	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, metrics.Instrument(pattern, fn))
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	})
	mux.Handle("GET /metrics", metrics.Handler())
	if h.FontFiles != nil {
		handle("GET /fonts/{name}", h.FontFiles)
	}

	// Session
	handle("POST /api/login", m.RateLimit(h.Auth.Login))
	handle("POST /api/logout", h.Auth.Logout)
	handle("GET /api/session", h.Auth.Session)

	// Children
	handle("GET /api/children", m.RequireAuth(h.Child.ListChildren))
	handle("GET /api/children/{id}", m.RequireAuth(h.Child.GetChild))
	handle("POST /api/children", m.Protected(h.Child.CreateChild))
	handle("PUT /api/children/{id}", m.Protected(h.Child.UpdateChild))
	handle("DELETE /api/children/{id}", m.Protected(h.Child.DeleteChild))

	// Word lists and words
	handle("GET /api/word-lists", m.RequireAuth(h.List.ListLists))
	handle("GET /api/word-lists-simple", m.RequireAuth(h.List.ListListsSimple))
	handle("GET /api/word-lists/{id}", m.RequireAuth(h.List.GetList))
	handle("POST /api/word-lists", m.Protected(h.List.CreateList))
	handle("PUT /api/word-lists/{id}", m.Protected(h.List.UpdateList))
	handle("DELETE /api/word-lists/{id}", m.Protected(h.List.DeleteList))
	handle("POST /api/word-lists/{id}/import", m.Protected(h.List.ImportDocument))
	handle("POST /api/words", m.Protected(h.List.AddWord))
	handle("POST /api/words/bulk", m.Protected(h.List.BulkAddWords))
	handle("DELETE /api/words/{id}", m.Protected(h.List.DeleteWord))

	// Fonts
	handle("GET /api/fonts", m.RequireAuth(h.Font.ListFonts))
	handle("POST /api/fonts/upload", m.Protected(h.Font.UploadFont))
	handle("PUT /api/fonts/{id}", m.Protected(h.Font.UpdateFont))
	handle("DELETE /api/fonts/{id}", m.Protected(h.Font.DeleteFont))

	// Tests and analysis
	handle("GET /api/test/{childId}/{wordListId}", m.RequireAuth(h.Record.PrepareTest))
	handle("POST /api/reading-records", m.Protected(h.Record.CreateRecord))
	handle("GET /api/analysis/{childId}", m.RequireAuth(h.Record.Analysis))

	// Admin
	handle("POST /api/admin/reset-word-lists", m.Protected(h.Admin.ResetWordLists))
	handle("POST /api/admin/export", m.Protected(h.Admin.ExportDatabase))

	return Logging(mux)
}

package handlers

import (
	"log/slog"
	"net/http"

	"readinglog/internal/security"
	"readinglog/internal/service"
)

// AuthHandler handles login and logout
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Password string `json:"password"`
}

type sessionResponse struct {
	Success       bool   `json:"success"`
	Authenticated bool   `json:"authenticated"`
	AuthRequired  bool   `json:"auth_required"`
	CSRFToken     string `json:"csrf_token,omitempty"`
}

// Login checks the shared password and sets the session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	session, err := h.authService.Login(req.Password)
	if err != nil {
		slog.Warn("failed login attempt", "ip", security.GetClientIP(r))
		respondWithServiceError(w, err, "login failed")
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, session.Token, session.ExpiresAt))
	writeJSON(w, http.StatusOK, sessionResponse{
		Success:       true,
		Authenticated: true,
		AuthRequired:  h.authService.Enabled(),
		CSRFToken:     session.CSRFToken,
	})
}

// Logout clears the session cookie. Tokens are stateless, so this only
// forgets the session on the client.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r))
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Session reports whether the caller is logged in and returns the CSRF token
// for the current session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{Success: true, AuthRequired: h.authService.Enabled()}
	if !resp.AuthRequired {
		resp.Authenticated = true
		writeJSON(w, http.StatusOK, resp)
		return
	}

	cookie, err := r.Cookie(security.SessionCookieName)
	if err == nil {
		if sessionID, err := h.authService.ValidateSession(cookie.Value); err == nil {
			resp.Authenticated = true
			resp.CSRFToken, _ = h.authService.CSRFToken(sessionID)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"readinglog/internal/security"
)

var (
	ErrInvalidCredentials   = errors.New("invalid password")
	ErrInvalidAdminPassword = errors.New("invalid admin password")
	ErrSessionNotFound      = errors.New("session not found")
)

// Session is an issued login
type Session struct {
	ID        string
	Token     string
	CSRFToken string
	ExpiresAt time.Time
}

// AuthService guards the app with a single shared password and the admin
// actions with a second one. Neither password is kept in clear after startup.
type AuthService struct {
	appPasswordHash   string
	adminPasswordHash string
	signer            *security.TokenSigner
	csrf              *security.CSRFGenerator
	sessionDuration   time.Duration
}

// NewAuthService hashes the configured passwords. An empty app password leaves
// the gate open; an empty admin password disables admin actions. Without a
// session secret a random key is used, so sessions end with the process.
func NewAuthService(appPassword, adminPassword, sessionSecret string, sessionDuration time.Duration) (*AuthService, error) {
	if sessionSecret == "" {
		secret, err := security.RandomSecret()
		if err != nil {
			return nil, err
		}
		sessionSecret = secret
		if appPassword != "" {
			slog.Warn("SESSION_SECRET is not set, using a random key; sessions will not survive a restart")
		}
	}

	s := &AuthService{
		signer:          security.NewTokenSigner(sessionSecret),
		csrf:            security.NewCSRFGenerator(sessionSecret),
		sessionDuration: sessionDuration,
	}

	var err error
	if appPassword != "" {
		if s.appPasswordHash, err = security.HashPassword(appPassword); err != nil {
			return nil, fmt.Errorf("failed to hash app password: %w", err)
		}
	}
	if adminPassword != "" {
		if s.adminPasswordHash, err = security.HashPassword(adminPassword); err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	} else {
		slog.Warn("ADMIN_PASSWORD is not set, admin actions are disabled")
	}
	return s, nil
}

// Enabled reports whether requests must carry a session
func (s *AuthService) Enabled() bool {
	return s.appPasswordHash != ""
}

// Login checks the shared password and issues a session
func (s *AuthService) Login(password string) (*Session, error) {
	if s.Enabled() && !security.CheckPassword(password, s.appPasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.newSession()
}

func (s *AuthService) newSession() (*Session, error) {
	token, id, expiresAt, err := s.signer.Issue(s.sessionDuration)
	if err != nil {
		return nil, err
	}
	csrfToken, err := s.csrf.GenerateToken(id)
	if err != nil {
		return nil, fmt.Errorf("failed to create csrf token: %w", err)
	}
	return &Session{ID: id, Token: token, CSRFToken: csrfToken, ExpiresAt: expiresAt}, nil
}

// ValidateSession verifies a session token and returns its session ID
func (s *AuthService) ValidateSession(token string) (string, error) {
	if token == "" {
		return "", ErrSessionNotFound
	}
	claims, err := s.signer.Parse(token)
	if err != nil {
		return "", ErrSessionNotFound
	}
	return claims.SessionID(), nil
}

// CSRFToken returns the CSRF token bound to a session
func (s *AuthService) CSRFToken(sessionID string) (string, error) {
	return s.csrf.GenerateToken(sessionID)
}

// CSRF exposes the generator for request middleware
func (s *AuthService) CSRF() *security.CSRFGenerator {
	return s.csrf
}

// CheckAdminPassword verifies the password required by destructive admin actions
func (s *AuthService) CheckAdminPassword(password string) error {
	if !security.CheckPassword(password, s.adminPasswordHash) {
		return ErrInvalidAdminPassword
	}
	return nil
}

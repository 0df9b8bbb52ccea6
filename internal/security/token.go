package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionIssuer = "readinglog"

var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionClaims is the payload of a signed session cookie. The session ID is
// carried in the standard jti claim and keys the CSRF token.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SessionID returns the session identifier carried by the token
func (c *SessionClaims) SessionID() string {
	return c.ID
}

// RandomSecret returns 32 random bytes, hex encoded
func RandomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// TokenSigner issues and verifies HS256 session tokens
type TokenSigner struct {
	secret []byte
	now    func() time.Time
}

// NewTokenSigner creates a signer keyed by secret
func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret), now: time.Now}
}

// Issue returns a signed token for a fresh session and its expiry
func (s *TokenSigner) Issue(ttl time.Duration) (token, sessionID string, expiresAt time.Time, err error) {
	now := s.now()
	expiresAt = now.Add(ttl)
	sessionID = GenerateSessionID()

	claims := SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        sessionID,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, sessionID, expiresAt, nil
}

// Parse verifies a token's signature, issuer and expiry
func (s *TokenSigner) Parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, ErrInvalidSessionToken
	}
	return claims, nil
}

package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
)

// CSRFHeader carries the token on mutating API requests
const CSRFHeader = "X-CSRF-Token"

// ErrNoSession is returned when a CSRF token is requested without a session
var ErrNoSession = errors.New("session ID is required")

// CSRFGenerator derives a CSRF token from the session ID with HMAC-SHA256.
// Nothing is stored; any process holding the secret can check a token.
type CSRFGenerator struct {
	key []byte
}

// NewCSRFGenerator keys the generator separately from the session signer
// even when both are built from the same secret.
func NewCSRFGenerator(secret string) *CSRFGenerator {
	return &CSRFGenerator{key: []byte("csrf:" + secret)}
}

func (g *CSRFGenerator) sign(sessionID string) []byte {
	mac := hmac.New(sha256.New, g.key)
	mac.Write([]byte(sessionID))
	return mac.Sum(nil)
}

// GenerateToken returns the hex token for sessionID
func (g *CSRFGenerator) GenerateToken(sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrNoSession
	}
	return hex.EncodeToString(g.sign(sessionID)), nil
}

// ValidateToken reports whether token belongs to sessionID
func (g *CSRFGenerator) ValidateToken(sessionID, token string) bool {
	if sessionID == "" {
		return false
	}
	got, err := hex.DecodeString(token)
	if err != nil || len(got) != sha256.Size {
		return false
	}
	return hmac.Equal(got, g.sign(sessionID))
}

// ValidateRequest checks the CSRF header of r. The body is never read, so
// multipart uploads can still be size limited by the handler.
func (g *CSRFGenerator) ValidateRequest(sessionID string, r *http.Request) bool {
	return g.ValidateToken(sessionID, r.Header.Get(CSRFHeader))
}

package sink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"

	"readinglog/internal/config"
)

const (
	sheetsScope    = "https://www.googleapis.com/auth/spreadsheets"
	datastoreScope = "https://www.googleapis.com/auth/datastore"
)

var errNoCredentials = errors.New("no Google service account credentials configured")

// googleClient returns an HTTP client authorised as the configured service
// account. GOOGLE_SERVICE_ACCOUNT_JSON may hold the key file's content or its
// path; otherwise the email and private key pair is used.
func googleClient(ctx context.Context, cfg *config.Config, scopes ...string) (*http.Client, error) {
	if raw := strings.TrimSpace(cfg.GoogleServiceAccountJSON); raw != "" {
		data := []byte(raw)
		if !strings.HasPrefix(raw, "{") {
			var err error
			if data, err = os.ReadFile(raw); err != nil {
				return nil, fmt.Errorf("read service account file: %w", err)
			}
		}
		jwtCfg, err := google.JWTConfigFromJSON(data, scopes...)
		if err != nil {
			return nil, fmt.Errorf("parse service account json: %w", err)
		}
		return jwtCfg.Client(ctx), nil
	}

	if cfg.GoogleServiceAccountEmail != "" && cfg.GooglePrivateKey != "" {
		jwtCfg := &jwt.Config{
			Email: cfg.GoogleServiceAccountEmail,
			// Keys pasted into env files usually carry literal \n sequences
			PrivateKey: []byte(strings.ReplaceAll(cfg.GooglePrivateKey, `\n`, "\n")),
			Scopes:     scopes,
			TokenURL:   google.JWTTokenURL,
		}
		return jwtCfg.Client(ctx), nil
	}

	return nil, errNoCredentials
}

package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
	htransport "google.golang.org/api/transport/http"

	applog "clubdash/internal/log"
)

var (
	errNoServiceAccount = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	errNoOAuthClient    = errors.New("missing oauth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
)

// authenticatedClient returns a pooled HTTP client authorized for the Sheets
// scope. Service account credentials win; otherwise an OAuth user token
// written by cmd/oauth-init is used.
func authenticatedClient(ctx context.Context, logger *applog.Logger) (*http.Client, error) {
	pooled := NewHTTPClientWithPooling()

	creds, err := serviceAccountCredentials(ctx, logger)
	switch {
	case err == nil:
		rt, err := htransport.NewTransport(ctx, pooled.Transport,
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope))
		if err != nil {
			return nil, fmt.Errorf("sheets transport: %w", err)
		}
		pooled.Transport = rt
		return pooled, nil
	case !errors.Is(err, errNoServiceAccount):
		return nil, err
	}

	cfg, err := OAuthConfig()
	if errors.Is(err, errNoOAuthClient) {
		return nil, errNoServiceAccount
	}
	if err != nil {
		return nil, err
	}
	tok, err := oauthToken()
	if err != nil {
		return nil, err
	}
	logger.DebugContext(ctx, "Using OAuth user token")
	return cfg.Client(context.WithValue(ctx, oauth2.HTTPClient, pooled), tok), nil
}

// serviceAccountCredentials reads GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func serviceAccountCredentials(ctx context.Context, logger *applog.Logger) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		logger.DebugContext(ctx, "Using inline JSON credentials")
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		logger.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errNoServiceAccount
	}
}

// OAuthConfig loads the OAuth client from GOOGLE_OAUTH_CLIENT_JSON or
// GOOGLE_OAUTH_CLIENT_FILE, scoped to Sheets.
func OAuthConfig() (*oauth2.Config, error) {
	raw, err := envOrFile("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE")
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errNoOAuthClient
	}
	cfg, err := goauth.ConfigFromJSON(raw, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

// TokenFile is where cmd/oauth-init stores the user token.
func TokenFile() string {
	if f := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")); f != "" {
		return f
	}
	return "token.json"
}

func oauthToken() (*oauth2.Token, error) {
	raw := []byte(strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_JSON")))
	if len(raw) == 0 {
		var err error
		raw, err = os.ReadFile(TokenFile())
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.New("missing oauth token (run oauth-init or set GOOGLE_OAUTH_TOKEN_JSON)")
		}
		if err != nil {
			return nil, fmt.Errorf("read oauth token: %w", err)
		}
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}
	return &tok, nil
}

// envOrFile returns the inline value of jsonKey, else the contents of the
// file named by fileKey, else nil.
func envOrFile(jsonKey, fileKey string) ([]byte, error) {
	if v := strings.TrimSpace(os.Getenv(jsonKey)); v != "" {
		return []byte(v), nil
	}
	path := strings.TrimSpace(os.Getenv(fileKey))
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileKey, err)
	}
	return data, nil
}

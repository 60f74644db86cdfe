// Package auth manages the cached Parley credentials: the access token and
// the identity of the logged-in user.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/wire"
)

// sessionFileName holds the logged-in identity next to the access token.
const sessionFileName = "session.json"

// ErrNotLoggedIn is returned when no cached credentials exist.
var ErrNotLoggedIn = errors.New("not logged in; run `parley auth login` first")

// Session is the cached login state.
type Session struct {
	// UserID is the server-side user id.
	UserID string `json:"user_id"`
	// Username is the display name.
	Username string `json:"username"`
	// Token is the bearer token, loaded from the access key file.
	Token string `json:"-"`
}

func sessionPath(cfg *config.Config) string {
	return filepath.Join(cfg.ParleyHome, sessionFileName)
}

// Save persists the credentials from a login or register response.
func Save(cfg *config.Config, tok *wire.TokenResponse) error {
	if err := os.MkdirAll(cfg.ParleyHome, 0700); err != nil {
		return fmt.Errorf("failed to create parley home: %w", err)
	}
	if err := os.WriteFile(cfg.AccessKey, []byte(tok.AccessToken), 0600); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}

	data, err := json.MarshalIndent(Session{UserID: tok.UserID, Username: tok.Username}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(sessionPath(cfg), data, 0600); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load reads the cached credentials. It verifies that the token has not
// expired; there is no refresh endpoint, an expired token requires a fresh
// login.
func Load(cfg *config.Config) (*Session, error) {
	tokenData, err := os.ReadFile(cfg.AccessKey)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to read %s: %w", cfg.AccessKey, err)
	}
	token := strings.TrimSpace(string(tokenData))
	if token == "" {
		return nil, ErrNotLoggedIn
	}
	if IsExpired(token) {
		return nil, fmt.Errorf("access token expired; run `parley auth login` again")
	}

	data, err := os.ReadFile(sessionPath(cfg))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if sess.UserID == "" {
		return nil, ErrNotLoggedIn
	}
	sess.Token = token
	return &sess, nil
}

// Clear removes the cached credentials. Missing files are not an error.
func Clear(cfg *config.Config) error {
	var firstErr error
	for _, path := range []string{cfg.AccessKey, sessionPath(cfg)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to remove %s: %w", path, err)
			}
		}
	}
	return firstErr
}

package auth

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/wire"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	home := t.TempDir()
	return &config.Config{
		ParleyHome: home,
		AccessKey:  filepath.Join(home, "access.key"),
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "alice"}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestSessionRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	tok := &wire.TokenResponse{
		AccessToken: signedToken(t, time.Now().Add(time.Hour)),
		Username:    "alice",
		UserID:      "u1",
	}
	if err := Save(cfg, tok); err != nil {
		t.Fatalf("save: %v", err)
	}

	sess, err := Load(cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sess.UserID != "u1" || sess.Username != "alice" || sess.Token != tok.AccessToken {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestLoadWithoutCredentials(t *testing.T) {
	cfg := testConfig(t)
	if _, err := Load(cfg); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestLoadExpiredToken(t *testing.T) {
	cfg := testConfig(t)
	tok := &wire.TokenResponse{
		AccessToken: signedToken(t, time.Now().Add(-time.Hour)),
		Username:    "alice",
		UserID:      "u1",
	}
	if err := Save(cfg, tok); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := Load(cfg); err == nil {
		t.Fatalf("expired token must not load")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	tok := &wire.TokenResponse{
		AccessToken: signedToken(t, time.Now().Add(time.Hour)),
		Username:    "alice",
		UserID:      "u1",
	}
	if err := Save(cfg, tok); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := Clear(cfg); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := Clear(cfg); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if _, err := Load(cfg); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn after clear, got %v", err)
	}
}

func TestExpiresAt(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := signedToken(t, exp)
	got, ok := ExpiresAt(token)
	if !ok || !got.Equal(exp) {
		t.Fatalf("expected %v, got %v ok=%v", exp, got, ok)
	}

	if _, ok := ExpiresAt("not-a-token"); ok {
		t.Fatalf("garbage must not yield an expiry")
	}

	noExp := signedToken(t, time.Time{})
	if IsExpired(noExp) {
		t.Fatalf("token without exp must be treated as non-expiring")
	}
}

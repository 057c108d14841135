// Package auth resolves the signed-in user from a token stored on disk.
package auth

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"

	"github.com/ayoisaiah/studytime/internal/apperr"
	"github.com/ayoisaiah/studytime/internal/clock"
	"github.com/ayoisaiah/studytime/internal/osutil"
)

const (
	cacheTTL = 5 * time.Minute
	userKey  = "user"
)

var (
	ErrSignedOut = &apperr.Error{
		Message: "not signed in",
	}

	errInvalidToken = &apperr.Error{
		Message: "invalid token",
	}

	errMissingSubject = &apperr.Error{
		Message: "token has no subject",
	}

	errTokenExpired = &apperr.Error{
		Message: "token expired at %s: sign in again",
	}
)

// TokenFile looks up the user from a JWT kept in a file. The token is not
// verified locally; the sync backend does that. Only the subject and expiry
// are read.
type TokenFile struct {
	clock clock.Clock
	cache *cache.Cache
	path  string
}

// NewTokenFile returns an authenticator reading the token at path.
func NewTokenFile(path string, c clock.Clock) *TokenFile {
	if c == nil {
		c = clock.Real{}
	}

	return &TokenFile{
		path:  path,
		clock: c,
		cache: cache.New(cacheTTL, 10*time.Minute),
	}
}

// CurrentUser returns the subject of the stored token.
func (t *TokenFile) CurrentUser(_ context.Context) (string, error) {
	if user, ok := t.cache.Get(userKey); ok {
		return user.(string), nil
	}

	b, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrSignedOut
		}

		return "", err
	}

	user, exp, err := t.parse(strings.TrimSpace(string(b)))
	if err != nil {
		return "", err
	}

	ttl := cacheTTL
	if !exp.IsZero() {
		ttl = min(ttl, exp.Sub(t.clock.Now()))
	}

	t.cache.Set(userKey, user, ttl)

	return user, nil
}

// Save validates token and stores it, replacing any previous one. It returns
// the user the token belongs to.
func (t *TokenFile) Save(token string) (string, error) {
	token = strings.TrimSpace(token)

	user, _, err := t.parse(token)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(t.path), osutil.PrivateDirPermission); err != nil {
		return "", err
	}

	if err := os.WriteFile(t.path, []byte(token+"\n"), osutil.PrivateFilePermission); err != nil {
		return "", err
	}

	t.cache.Delete(userKey)

	return user, nil
}

// Remove signs out. Removing a missing token is not an error.
func (t *TokenFile) Remove() error {
	t.cache.Delete(userKey)

	err := os.Remove(t.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

func (t *TokenFile) parse(token string) (string, time.Time, error) {
	if token == "" {
		return "", time.Time{}, ErrSignedOut
	}

	var claims jwt.RegisteredClaims

	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil {
		return "", time.Time{}, errInvalidToken.Wrap(err)
	}

	if claims.Subject == "" {
		return "", time.Time{}, errMissingSubject
	}

	var exp time.Time

	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time

		if !t.clock.Now().Before(exp) {
			return "", time.Time{}, errTokenExpired.Fmt(exp.Format(time.RFC3339))
		}
	}

	return claims.Subject, exp, nil
}

// Package session issues, resolves, and revokes the cookie-borne bearer
// tokens that stand in for a logged-in user. Only a sha256 hash of a token is
// ever persisted; the raw token exists in the cookie and nowhere else.
package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"studyhub/internal/models"
)

const (
	CookieName = "studyhub_session"
	TTL        = 7 * 24 * time.Hour
)

type Manager struct {
	DB *sqlx.DB
	// Secure marks the cookie transport-only; on in production.
	Secure bool
}

func NewManager(db *sqlx.DB, secure bool) *Manager {
	return &Manager{DB: db, Secure: secure}
}

// Create mints a fresh token, stores its hash with a fixed expiry, and sets
// the session cookie on the response. The raw token leaves through the cookie
// and is not retained.
func (m *Manager) Create(w http.ResponseWriter, userID string) error {
	token, err := mintToken()
	if err != nil {
		return err
	}
	expires := time.Now().Add(TTL)
	if err := models.CreateSession(m.DB, userID, HashToken(token), expires.UTC()); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.Secure,
	})
	return nil
}

// Resolve turns the request's session cookie back into a user id. A missing
// cookie, an unknown token, and an expired session all look the same to the
// caller; an expired record is deleted on the way out.
func (m *Manager) Resolve(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	hash := HashToken(cookie.Value)
	sess, err := models.GetSessionByTokenHash(m.DB, hash)
	if err != nil {
		return "", false
	}
	if sess.ExpiresAt.Before(time.Now()) {
		models.DeleteSessionByTokenHash(m.DB, hash)
		return "", false
	}
	return sess.UserID, true
}

// Destroy deletes the session matching the request's cookie, if any, and
// always clears the cookie on the response. Safe to call repeatedly.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		models.DeleteSessionByTokenHash(m.DB, HashToken(cookie.Value))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.Secure,
	})
}

func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func mintToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

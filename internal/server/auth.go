package server

import (
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"studyhub/internal/models"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, err := parseCredentials(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("password_hash_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	user, err := models.CreateUser(s.DB, creds.Email, string(hash))
	if errors.Is(err, models.ErrDuplicateEmail) {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	if err != nil {
		s.storeError(w, err)
		return
	}
	if err := s.Sessions.Create(w, user.ID); err != nil {
		slog.Error("session_create_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, err := parseCredentials(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	user, err := models.GetUserByEmail(s.DB, creds.Email)
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		s.storeError(w, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err := s.Sessions.Create(w, user.ID); err != nil {
		slog.Error("session_create_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Logout succeeds whether or not the cookie still matched a live session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Sessions.Destroy(w, r)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

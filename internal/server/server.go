package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"studyhub/internal/models"
	"studyhub/internal/session"
)

type Server struct {
	DB       *sqlx.DB
	Sessions *session.Manager
}

func New(db *sqlx.DB, secureCookies bool) *Server {
	return &Server{DB: db, Sessions: session.NewManager(db, secureCookies)}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("GET /tasks", s.requireAuth(s.handleListTasks))
	mux.HandleFunc("POST /tasks", s.requireAuth(s.handleCreateTask))
	mux.HandleFunc("GET /tasks/{id}", s.requireAuth(s.handleGetTask))
	mux.HandleFunc("PATCH /tasks/{id}", s.requireAuth(s.handlePatchTask))
	mux.HandleFunc("DELETE /tasks/{id}", s.requireAuth(s.handleDeleteTask))
	mux.HandleFunc("POST /tasks/{id}/notes", s.requireAuth(s.handleCreateNote))
	mux.HandleFunc("DELETE /notes/{id}", s.requireAuth(s.handleDeleteNote))
	return logRequests(mux)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.routes().ServeHTTP(w, r)
}

// middleware
func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.Sessions.Resolve(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r, userID)
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// helpers
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response_encode_failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// storeError maps store failures to the API taxonomy: absent or foreign-owned
// records are a 404, everything else is a logged generic 500.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	slog.Error("store_error", "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

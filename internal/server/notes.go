package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"studyhub/internal/models"
)

type noteJSON struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request, userID string) {
	taskID := r.PathValue("id")
	if uuid.Validate(taskID) != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	content, err := parseNoteCreate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	// the task must exist and belong to the caller before a note attaches to it
	if _, err := models.GetTask(s.DB, taskID, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Task not found")
			return
		}
		s.storeError(w, err)
		return
	}
	if _, err := models.CreateNote(s.DB, taskID, userID, content); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")
	if uuid.Validate(id) != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	if err := models.DeleteNote(s.DB, id, userID); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyhub/internal/models"
)

type taskSummary struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Subject   string          `json:"subject"`
	Priority  models.Priority `json:"priority"`
	Status    models.Status   `json:"status"`
	DueDate   *time.Time      `json:"dueDate,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

type taskDetail struct {
	taskSummary
	Description string `json:"description"`
}

func summarize(t models.Task) taskSummary {
	return taskSummary{
		ID:        t.ID,
		Title:     t.Title,
		Subject:   t.Subject,
		Priority:  t.Priority,
		Status:    t.Status,
		DueDate:   t.DueDate,
		CreatedAt: t.CreatedAt,
	}
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request, userID string) {
	query := r.URL.Query()
	q := strings.TrimSpace(query.Get("q"))
	page := intParam(query.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize := intParam(query.Get("pageSize"), 10)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 50 {
		pageSize = 50
	}

	tasks, total, err := models.ListTasks(s.DB, userID, q, page, pageSize)
	if err != nil {
		s.storeError(w, err)
		return
	}
	items := make([]taskSummary, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, summarize(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":    items,
		"page":     page,
		"pageSize": pageSize,
		"total":    total,
	})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request, userID string) {
	nt, err := parseTaskCreate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	task, err := models.CreateTask(s.DB, userID, nt)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": task.ID})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")
	if uuid.Validate(id) != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	task, err := models.GetTask(s.DB, id, userID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	notes, err := models.ListNotes(s.DB, id, userID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	noteItems := make([]noteJSON, 0, len(notes))
	for _, n := range notes {
		noteItems = append(noteItems, noteJSON{ID: n.ID, Content: n.Content, CreatedAt: n.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"task":  taskDetail{taskSummary: summarize(*task), Description: task.Description},
		"notes": noteItems,
	})
}

func (s *Server) handlePatchTask(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")
	if uuid.Validate(id) != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	patch, err := parseTaskPatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := models.UpdateTask(s.DB, id, userID, patch); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")
	if uuid.Validate(id) != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	if err := models.DeleteTask(s.DB, id, userID); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

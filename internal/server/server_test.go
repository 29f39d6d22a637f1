package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"studyhub/internal/db"
	"studyhub/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return New(database, false)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, srv *Server, email, password string) *http.Cookie {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/auth/register", map[string]string{"email": email, "password": password}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}

func createTask(t *testing.T, srv *Server, cookie *http.Cookie, body map[string]any) string {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/tasks", body, cookie)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		ID string `json:"id"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

type taskResponse struct {
	Task struct {
		ID          string  `json:"id"`
		Title       string  `json:"title"`
		Subject     string  `json:"subject"`
		Description string  `json:"description"`
		Priority    string  `json:"priority"`
		Status      string  `json:"status"`
		DueDate     *string `json:"dueDate"`
	} `json:"task"`
	Notes []struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	} `json:"notes"`
}

func getTask(t *testing.T, srv *Server, cookie *http.Cookie, id string) taskResponse {
	t.Helper()
	w := doJSON(t, srv, http.MethodGet, "/tasks/"+id, nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var resp taskResponse
	decode(t, w, &resp)
	return resp
}

func TestRegisterLoginLogout(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "a@x.com", "secret1")

	// the password is stored hashed, never as given
	var storedHash string
	require.NoError(t, srv.DB.Get(&storedHash, `SELECT password_hash FROM users WHERE email = ?`, "a@x.com"))
	require.NotEqual(t, "secret1", storedHash)

	// duplicate email
	w := doJSON(t, srv, http.MethodPost, "/auth/register", map[string]string{"email": "A@X.com", "password": "secret1"}, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	// short password and malformed email are the same generic 400
	w = doJSON(t, srv, http.MethodPost, "/auth/register", map[string]string{"email": "b@x.com", "password": "short"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, srv, http.MethodPost, "/auth/login", map[string]string{"email": "not-an-email", "password": "secret1"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// a password past bcrypt's 72-byte cap is a validation error, not a 500
	w = doJSON(t, srv, http.MethodPost, "/auth/register", map[string]string{"email": "c@x.com", "password": strings.Repeat("p", 100)}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"Invalid input"}`, w.Body.String())
	register(t, srv, "long@x.com", strings.Repeat("p", 72))

	// wrong password and unknown email are indistinguishable
	w = doJSON(t, srv, http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com", "password": "wrongpw"}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	wrongPw := w.Body.String()
	w = doJSON(t, srv, http.MethodPost, "/auth/login", map[string]string{"email": "nobody@x.com", "password": "secret1"}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, wrongPw, w.Body.String())

	w = doJSON(t, srv, http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com", "password": "secret1"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	// logout revokes the session
	w = doJSON(t, srv, http.MethodPost, "/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, srv, http.MethodGet, "/tasks", nil, cookie)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// logout without a live session still succeeds
	w = doJSON(t, srv, http.MethodPost, "/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestEndToEndFlow(t *testing.T) {
	srv := newTestServer(t)
	cookie := register(t, srv, "a@x.com", "secret1")

	id := createTask(t, srv, cookie, map[string]any{"title": "Read ch.3", "subject": "Bio", "priority": "high"})

	resp := getTask(t, srv, cookie, id)
	require.Equal(t, "todo", resp.Task.Status)
	require.Equal(t, "high", resp.Task.Priority)
	require.Empty(t, resp.Notes)

	w := doJSON(t, srv, http.MethodPost, "/tasks/"+id+"/notes", map[string]string{"content": "finish by friday"}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	resp = getTask(t, srv, cookie, id)
	require.Len(t, resp.Notes, 1)
	require.Equal(t, "finish by friday", resp.Notes[0].Content)

	w = doJSON(t, srv, http.MethodDelete, "/tasks/"+id, nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/tasks/"+id, nil, cookie)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestOwnershipIsolation(t *testing.T) {
	srv := newTestServer(t)
	alice := register(t, srv, "a@x.com", "secret1")
	bob := register(t, srv, "b@x.com", "secret2")

	id := createTask(t, srv, alice, map[string]any{"title": "mine", "subject": "Math"})

	// bob's view of alice's task matches his view of a task that does not exist
	missing := uuid.NewString()
	for _, target := range []string{id, missing} {
		w := doJSON(t, srv, http.MethodGet, "/tasks/"+target, nil, bob)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.JSONEq(t, `{"error":"Not found"}`, w.Body.String())

		w = doJSON(t, srv, http.MethodPatch, "/tasks/"+target, map[string]any{"status": "done"}, bob)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.JSONEq(t, `{"error":"Not found"}`, w.Body.String())

		w = doJSON(t, srv, http.MethodDelete, "/tasks/"+target, nil, bob)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
	}

	// a note cannot attach to someone else's task
	w := doJSON(t, srv, http.MethodPost, "/tasks/"+id+"/notes", map[string]string{"content": "sneaky"}, bob)
	require.Equal(t, http.StatusNotFound, w.Code)

	// alice still owns an untouched task
	resp := getTask(t, srv, alice, id)
	require.Equal(t, "todo", resp.Task.Status)
}

func TestPatchSemantics(t *testing.T) {
	srv := newTestServer(t)
	cookie := register(t, srv, "a@x.com", "secret1")
	id := createTask(t, srv, cookie, map[string]any{
		"title":       "Read ch.3",
		"subject":     "Bio",
		"description": "sections 3.1-3.4",
		"dueDate":     "2026-10-01T12:00:00Z",
		"priority":    "high",
	})

	// patching only status leaves every other field alone
	w := doJSON(t, srv, http.MethodPatch, "/tasks/"+id, map[string]any{"status": "in_progress"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	resp := getTask(t, srv, cookie, id)
	require.Equal(t, "in_progress", resp.Task.Status)
	require.Equal(t, "Read ch.3", resp.Task.Title)
	require.Equal(t, "Bio", resp.Task.Subject)
	require.Equal(t, "sections 3.1-3.4", resp.Task.Description)
	require.Equal(t, "high", resp.Task.Priority)
	require.NotNil(t, resp.Task.DueDate)

	// omitting dueDate keeps it, sending null clears it
	w = doJSON(t, srv, http.MethodPatch, "/tasks/"+id, map[string]any{"title": "Read ch.4"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	resp = getTask(t, srv, cookie, id)
	require.NotNil(t, resp.Task.DueDate)

	w = doJSON(t, srv, http.MethodPatch, "/tasks/"+id, map[string]any{"dueDate": nil}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	resp = getTask(t, srv, cookie, id)
	require.Nil(t, resp.Task.DueDate)
	require.Equal(t, "Read ch.4", resp.Task.Title)

	// out-of-range values are rejected
	w = doJSON(t, srv, http.MethodPatch, "/tasks/"+id, map[string]any{"priority": "urgent"}, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, srv, http.MethodPatch, "/tasks/"+id, map[string]any{"title": nil}, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// empty patch on a live task is fine
	w = doJSON(t, srv, http.MethodPatch, "/tasks/"+id, map[string]any{}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestListPaginationAndFilter(t *testing.T) {
	srv := newTestServer(t)
	cookie := register(t, srv, "a@x.com", "secret1")
	for i := 0; i < 10; i++ {
		createTask(t, srv, cookie, map[string]any{"title": "homework", "subject": "Algebra"})
	}

	type listResponse struct {
		Items    []map[string]any `json:"items"`
		Page     int              `json:"page"`
		PageSize int              `json:"pageSize"`
		Total    int              `json:"total"`
	}

	w := doJSON(t, srv, http.MethodGet, "/tasks?page=2&pageSize=8", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var resp listResponse
	decode(t, w, &resp)
	require.Equal(t, 10, resp.Total)
	require.Len(t, resp.Items, 2)
	require.Equal(t, 2, resp.Page)
	require.Equal(t, 8, resp.PageSize)

	// page size is clamped to 50
	w = doJSON(t, srv, http.MethodGet, "/tasks?pageSize=500", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	require.Equal(t, 50, resp.PageSize)
	require.Len(t, resp.Items, 10)

	// case-insensitive filter over title or subject
	w = doJSON(t, srv, http.MethodGet, "/tasks?q=ALGEB", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	require.Equal(t, 10, resp.Total)

	w = doJSON(t, srv, http.MethodGet, "/tasks?q=chemistry", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	require.Zero(t, resp.Total)
	require.NotNil(t, resp.Items)
}

func TestValidationErrors(t *testing.T) {
	srv := newTestServer(t)
	cookie := register(t, srv, "a@x.com", "secret1")

	// malformed JSON body
	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString("{not json"))
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// missing required fields
	w2 := doJSON(t, srv, http.MethodPost, "/tasks", map[string]any{"subject": "Bio"}, cookie)
	require.Equal(t, http.StatusBadRequest, w2.Code)

	// field limits count characters, not bytes
	w2 = doJSON(t, srv, http.MethodPost, "/tasks", map[string]any{"title": strings.Repeat("ü", 100), "subject": "s"}, cookie)
	require.Equal(t, http.StatusCreated, w2.Code)
	w2 = doJSON(t, srv, http.MethodPost, "/tasks", map[string]any{"title": strings.Repeat("ü", 121), "subject": "s"}, cookie)
	require.Equal(t, http.StatusBadRequest, w2.Code)

	// bad due date format
	w2 = doJSON(t, srv, http.MethodPost, "/tasks", map[string]any{"title": "t", "subject": "s", "dueDate": "tomorrow"}, cookie)
	require.Equal(t, http.StatusBadRequest, w2.Code)

	// non-uuid path ids
	w2 = doJSON(t, srv, http.MethodGet, "/tasks/not-a-uuid", nil, cookie)
	require.Equal(t, http.StatusBadRequest, w2.Code)
	w2 = doJSON(t, srv, http.MethodDelete, "/notes/not-a-uuid", nil, cookie)
	require.Equal(t, http.StatusBadRequest, w2.Code)

	// oversized note
	long := make([]byte, 1001)
	for i := range long {
		long[i] = 'x'
	}
	id := createTask(t, srv, cookie, map[string]any{"title": "t", "subject": "s"})
	w2 = doJSON(t, srv, http.MethodPost, "/tasks/"+id+"/notes", map[string]string{"content": string(long)}, cookie)
	require.Equal(t, http.StatusBadRequest, w2.Code)
}

func TestRequireAuth(t *testing.T) {
	srv := newTestServer(t)
	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
		{http.MethodGet, "/tasks/" + uuid.NewString()},
		{http.MethodPatch, "/tasks/" + uuid.NewString()},
		{http.MethodDelete, "/tasks/" + uuid.NewString()},
		{http.MethodPost, "/tasks/" + uuid.NewString() + "/notes"},
		{http.MethodDelete, "/notes/" + uuid.NewString()},
	} {
		w := doJSON(t, srv, tc.method, tc.path, nil, nil)
		require.Equalf(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
		require.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
	}
}

func TestDeleteNote(t *testing.T) {
	srv := newTestServer(t)
	cookie := register(t, srv, "a@x.com", "secret1")
	id := createTask(t, srv, cookie, map[string]any{"title": "t", "subject": "s"})

	w := doJSON(t, srv, http.MethodPost, "/tasks/"+id+"/notes", map[string]string{"content": "first"}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	resp := getTask(t, srv, cookie, id)
	require.Len(t, resp.Notes, 1)
	noteID := resp.Notes[0].ID

	w = doJSON(t, srv, http.MethodDelete, "/notes/"+noteID, nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	// gone now, and the task is untouched
	w = doJSON(t, srv, http.MethodDelete, "/notes/"+noteID, nil, cookie)
	require.Equal(t, http.StatusNotFound, w.Code)
	resp = getTask(t, srv, cookie, id)
	require.Empty(t, resp.Notes)
}

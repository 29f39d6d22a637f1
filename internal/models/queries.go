package models

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

func CreateUser(db *sqlx.DB, email, passwordHash string) (*User, error) {
	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := db.Exec(`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return u, nil
}

func GetUserByEmail(db *sqlx.DB, email string) (*User, error) {
	var u User
	err := db.Get(&u, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func CreateSession(db *sqlx.DB, userID, tokenHash string, expiresAt time.Time) error {
	_, err := db.Exec(`INSERT INTO sessions (token_hash, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		tokenHash, userID, time.Now().UTC(), expiresAt)
	return err
}

func GetSessionByTokenHash(db *sqlx.DB, tokenHash string) (*Session, error) {
	var s Session
	err := db.Get(&s, `SELECT token_hash, user_id, created_at, expires_at FROM sessions WHERE token_hash = ?`, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func DeleteSessionByTokenHash(db *sqlx.DB, tokenHash string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE token_hash = ?`, tokenHash)
	return err
}

func CreateTask(db *sqlx.DB, userID string, nt NewTask) (*Task, error) {
	t := &Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       nt.Title,
		Subject:     nt.Subject,
		Description: nt.Description,
		DueDate:     nt.DueDate,
		Priority:    nt.Priority,
		Status:      StatusTodo,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := db.Exec(`INSERT INTO tasks (id, user_id, title, subject, description, due_date, priority, status, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Subject, t.Description, t.DueDate, t.Priority, t.Status, t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTasks returns one page of the user's tasks, newest first, plus the total
// count under the same filter. The filter is a case-insensitive substring match
// over title or subject.
func ListTasks(db *sqlx.DB, userID, q string, page, pageSize int) ([]Task, int, error) {
	where := `WHERE user_id = ?`
	args := []any{userID}
	if q != "" {
		where += ` AND (instr(lower(title), lower(?)) > 0 OR instr(lower(subject), lower(?)) > 0)`
		args = append(args, q, q)
	}

	var total int
	if err := db.Get(&total, `SELECT COUNT(*) FROM tasks `+where, args...); err != nil {
		return nil, 0, err
	}

	var tasks []Task
	args = append(args, pageSize, (page-1)*pageSize)
	err := db.Select(&tasks, `SELECT id, user_id, title, subject, description, due_date, priority, status, created_at
        FROM tasks `+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func GetTask(db *sqlx.DB, id, userID string) (*Task, error) {
	var t Task
	err := db.Get(&t, `SELECT id, user_id, title, subject, description, due_date, priority, status, created_at
        FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask applies the set fields of patch to the user's task. A task owned
// by someone else is reported as ErrNotFound, same as an absent one.
func UpdateTask(db *sqlx.DB, id, userID string, patch TaskPatch) error {
	sets := []string{}
	args := []any{}
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Subject != nil {
		sets = append(sets, "subject = ?")
		args = append(args, *patch.Subject)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.ClearDueDate {
		sets = append(sets, "due_date = NULL")
	} else if patch.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, *patch.DueDate)
	}
	if patch.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *patch.Priority)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if len(sets) == 0 {
		_, err := GetTask(db, id, userID)
		return err
	}
	args = append(args, id, userID)
	res, err := db.Exec(`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTask removes the task and all of its notes in one transaction.
func DeleteTask(db *sqlx.DB, id, userID string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	// notes first so the foreign key does not block the task delete
	if _, err := tx.Exec(`DELETE FROM notes WHERE task_id = ? AND user_id = ?`, id, userID); err != nil {
		tx.Rollback()
		return err
	}
	res, err := tx.Exec(`DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		tx.Rollback()
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if n == 0 {
		tx.Rollback()
		return ErrNotFound
	}
	return tx.Commit()
}

func CreateNote(db *sqlx.DB, taskID, userID, content string) (*Note, error) {
	n := &Note{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.Exec(`INSERT INTO notes (id, task_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.TaskID, n.UserID, n.Content, n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func ListNotes(db *sqlx.DB, taskID, userID string) ([]Note, error) {
	var notes []Note
	err := db.Select(&notes, `SELECT id, task_id, user_id, content, created_at
        FROM notes WHERE task_id = ? AND user_id = ? ORDER BY created_at DESC`, taskID, userID)
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func DeleteNote(db *sqlx.DB, id, userID string) error {
	res, err := db.Exec(`DELETE FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

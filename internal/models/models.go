package models

import "time"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// Session holds only the hash of the bearer token; the raw token is never persisted.
type Session struct {
	TokenHash string    `db:"token_hash"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

type Task struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	Title       string     `db:"title"`
	Subject     string     `db:"subject"`
	Description string     `db:"description"`
	DueDate     *time.Time `db:"due_date"`
	Priority    Priority   `db:"priority"`
	Status      Status     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
}

type Note struct {
	ID        string    `db:"id"`
	TaskID    string    `db:"task_id"`
	UserID    string    `db:"user_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// NewTask carries the validated fields of a task create request.
type NewTask struct {
	Title       string
	Subject     string
	Description string
	DueDate     *time.Time
	Priority    Priority
}

// TaskPatch is a partial update: nil fields are left untouched. ClearDueDate
// distinguishes "set due date to nothing" from "due date not mentioned".
type TaskPatch struct {
	Title        *string
	Subject      *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	Priority     *Priority
	Status       *Status
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"studyhub/internal/models"
)

var errInvalid = errors.New("invalid input")

var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Optional is a JSON field that remembers whether it appeared in the payload
// at all, so "absent" and "present as null" stay distinguishable after decode.
type Optional[T any] struct {
	Set   bool // the key was present
	Valid bool // the value was non-null
	Value T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

type credentials struct {
	Email    string
	Password string
}

func parseCredentials(r *http.Request) (credentials, error) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return credentials{}, errInvalid
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || len(email) > 200 || !emailRx.MatchString(email) {
		return credentials{}, errInvalid
	}
	// the upper bound is bcrypt's 72-byte input cap; longer input would fail
	// at hash time instead of here
	if utf8.RuneCountInString(body.Password) < 6 || len(body.Password) > 72 {
		return credentials{}, errInvalid
	}
	return credentials{Email: email, Password: body.Password}, nil
}

func parseTaskCreate(r *http.Request) (models.NewTask, error) {
	var body struct {
		Title       string  `json:"title"`
		Subject     string  `json:"subject"`
		Description *string `json:"description"`
		DueDate     *string `json:"dueDate"`
		Priority    *string `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return models.NewTask{}, errInvalid
	}

	nt := models.NewTask{
		Title:    strings.TrimSpace(body.Title),
		Subject:  strings.TrimSpace(body.Subject),
		Priority: models.PriorityMedium,
	}
	if nt.Title == "" || utf8.RuneCountInString(nt.Title) > 120 {
		return models.NewTask{}, errInvalid
	}
	if nt.Subject == "" || utf8.RuneCountInString(nt.Subject) > 60 {
		return models.NewTask{}, errInvalid
	}
	if body.Description != nil {
		nt.Description = strings.TrimSpace(*body.Description)
		if utf8.RuneCountInString(nt.Description) > 2000 {
			return models.NewTask{}, errInvalid
		}
	}
	if body.DueDate != nil {
		due, err := time.Parse(time.RFC3339, *body.DueDate)
		if err != nil {
			return models.NewTask{}, errInvalid
		}
		nt.DueDate = &due
	}
	if body.Priority != nil {
		nt.Priority = models.Priority(*body.Priority)
		if !nt.Priority.Valid() {
			return models.NewTask{}, errInvalid
		}
	}
	return nt, nil
}

// parseTaskPatch validates a partial update. Every field may be missing; only
// dueDate may additionally be null, which means "clear it".
func parseTaskPatch(r *http.Request) (models.TaskPatch, error) {
	var body struct {
		Title       Optional[string] `json:"title"`
		Subject     Optional[string] `json:"subject"`
		Description Optional[string] `json:"description"`
		DueDate     Optional[string] `json:"dueDate"`
		Priority    Optional[string] `json:"priority"`
		Status      Optional[string] `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return models.TaskPatch{}, errInvalid
	}

	var patch models.TaskPatch
	if body.Title.Set {
		if !body.Title.Valid {
			return models.TaskPatch{}, errInvalid
		}
		v := strings.TrimSpace(body.Title.Value)
		if v == "" || utf8.RuneCountInString(v) > 120 {
			return models.TaskPatch{}, errInvalid
		}
		patch.Title = &v
	}
	if body.Subject.Set {
		if !body.Subject.Valid {
			return models.TaskPatch{}, errInvalid
		}
		v := strings.TrimSpace(body.Subject.Value)
		if v == "" || utf8.RuneCountInString(v) > 60 {
			return models.TaskPatch{}, errInvalid
		}
		patch.Subject = &v
	}
	if body.Description.Set {
		if !body.Description.Valid {
			return models.TaskPatch{}, errInvalid
		}
		v := strings.TrimSpace(body.Description.Value)
		if utf8.RuneCountInString(v) > 2000 {
			return models.TaskPatch{}, errInvalid
		}
		patch.Description = &v
	}
	if body.DueDate.Set {
		if !body.DueDate.Valid {
			patch.ClearDueDate = true
		} else {
			due, err := time.Parse(time.RFC3339, body.DueDate.Value)
			if err != nil {
				return models.TaskPatch{}, errInvalid
			}
			patch.DueDate = &due
		}
	}
	if body.Priority.Set {
		if !body.Priority.Valid {
			return models.TaskPatch{}, errInvalid
		}
		p := models.Priority(body.Priority.Value)
		if !p.Valid() {
			return models.TaskPatch{}, errInvalid
		}
		patch.Priority = &p
	}
	if body.Status.Set {
		if !body.Status.Valid {
			return models.TaskPatch{}, errInvalid
		}
		st := models.Status(body.Status.Value)
		if !st.Valid() {
			return models.TaskPatch{}, errInvalid
		}
		patch.Status = &st
	}
	return patch, nil
}

func parseNoteCreate(r *http.Request) (string, error) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", errInvalid
	}
	content := strings.TrimSpace(body.Content)
	if content == "" || utf8.RuneCountInString(content) > 1000 {
		return "", errInvalid
	}
	return content, nil
}

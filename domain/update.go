package domain

import (
	"strings"
	"time"
)

// TodoUpdate carries the optional fields of a partial update. Nil fields
// are left unchanged on the target record.
type TodoUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
	Status      *ProcessingStatus
}

// Normalize trims the text fields the same way NewTodo does. A title that
// trims to nothing is rejected so the blank-title invariant holds across
// updates too. A provided description keeps its outer pointer even when it
// trims to nothing: that is how a client clears the field.
func (u TodoUpdate) Normalize() (TodoUpdate, error) {
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		if t == "" {
			return TodoUpdate{}, ValidationError{Field: "title"}
		}
		u.Title = &t
	}
	if u.Description != nil {
		d := strings.TrimSpace(*u.Description)
		u.Description = &d
	}
	return u, nil
}

// Apply merges the set fields into t and stamps UpdatedAt. The update is
// expected to be normalized already.
func (u TodoUpdate) Apply(t Todo, now time.Time) Todo {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = TrimDescription(u.Description)
	}
	if u.Completed != nil {
		t.Completed = *u.Completed
	}
	if u.Status != nil {
		t.ProcessingStatus = *u.Status
	}
	t.UpdatedAt = now
	return t
}

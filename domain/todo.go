package domain

import (
	"strings"
	"time"
)

// ProcessingStatus marks how far the enhancement workflow got for a todo.
type ProcessingStatus string

const (
	StatusProcessing ProcessingStatus = "processing"
	StatusReady      ProcessingStatus = "ready"
	StatusFailed     ProcessingStatus = "failed"
)

// Valid reports whether s is one of the three known states.
func (s ProcessingStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusReady, StatusFailed:
		return true
	}
	return false
}

// Todo is a single task record scoped to one user email.
type Todo struct {
	ID               int64            `json:"id"`
	Title            string           `json:"title"`
	Description      *string          `json:"description"`
	UserEmail        string           `json:"userEmail"`
	Completed        bool             `json:"completed"`
	ProcessingStatus ProcessingStatus `json:"processingStatus"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// NewTodo builds a todo from client-supplied fields. Title and userEmail
// must be non-blank; both text fields are trimmed and a blank description
// becomes null. An invalid status falls back to StatusReady.
func NewTodo(title string, description *string, userEmail string, status ProcessingStatus, now time.Time) (Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Todo{}, ValidationError{Field: "title"}
	}
	userEmail = strings.TrimSpace(userEmail)
	if userEmail == "" {
		return Todo{}, ValidationError{Field: "userEmail"}
	}
	if !status.Valid() {
		status = StatusReady
	}
	return Todo{
		Title:            title,
		Description:      TrimDescription(description),
		UserEmail:        userEmail,
		ProcessingStatus: status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// TrimDescription normalizes an optional description: surrounding
// whitespace is stripped and a blank value becomes null.
func TrimDescription(description *string) *string {
	if description == nil {
		return nil
	}
	d := strings.TrimSpace(*description)
	if d == "" {
		return nil
	}
	return &d
}

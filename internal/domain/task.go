package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TaskStatus is the completion state of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

// TaskPriority ranks a task relative to the owner's other tasks.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

const (
	MaxTaskTitleLength       = 255
	MaxTaskDescriptionLength = 2000
)

// NormalizeTaskStatus maps s onto the canonical upper-case form of the enum.
// It does not check membership: an unknown value comes back unchanged apart
// from case and surrounding whitespace.
func NormalizeTaskStatus(s string) TaskStatus {
	return TaskStatus(strings.ToUpper(strings.TrimSpace(s)))
}

// IsValid reports whether s is a known status.
func (s TaskStatus) IsValid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

// NormalizeTaskPriority maps p onto the canonical upper-case form of the enum.
func NormalizeTaskPriority(p string) TaskPriority {
	return TaskPriority(strings.ToUpper(strings.TrimSpace(p)))
}

// IsValid reports whether p is a known priority.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task is a unit of work owned by exactly one user.
//
// IDs are UUIDv7 strings. Their byte order follows creation order, which is
// what keyset pagination relies on.
type Task struct {
	ID          string       `json:"id"`
	UserID      uuid.UUID    `json:"user_id"`
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewTaskID returns a new time-ordered task identifier.
func NewTaskID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate task id: %w", err)
	}
	return id.String(), nil
}

// NewTask creates a validated task for userID. Empty status and priority fall
// back to PENDING and MEDIUM.
func NewTask(
	userID uuid.UUID,
	title string,
	description *string,
	status TaskStatus,
	priority TaskPriority,
) (*Task, error) {
	id, err := NewTaskID()
	if err != nil {
		return nil, err
	}

	if status == "" {
		status = TaskStatusPending
	}
	if priority == "" {
		priority = TaskPriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          id,
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: description,
		Status:      NormalizeTaskStatus(string(status)),
		Priority:    NormalizeTaskPriority(string(priority)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks the task's invariants.
func (t *Task) Validate() error {
	if t.ID == "" {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if t.UserID == uuid.Nil {
		return ErrEmptyUserID
	}
	if t.Title == "" {
		return NewValidationError("title", "cannot be empty", ErrValidation)
	}
	if utf8.RuneCountInString(t.Title) > MaxTaskTitleLength {
		return NewValidationError("title", "is too long", ErrValidation)
	}
	if t.Description != nil && utf8.RuneCountInString(*t.Description) > MaxTaskDescriptionLength {
		return NewValidationError("description", "is too long", ErrValidation)
	}
	if !t.Status.IsValid() {
		return NewValidationError("status", "must be PENDING or COMPLETED", ErrInvalidTaskStatus)
	}
	if !t.Priority.IsValid() {
		return NewValidationError("priority", "must be LOW, MEDIUM or HIGH", ErrInvalidTaskPriority)
	}
	return nil
}

// IsOwnedBy reports whether userID owns the task.
func (t *Task) IsOwnedBy(userID uuid.UUID) bool {
	return t.UserID == userID
}

// TaskPatch carries a partial update. Nil fields are left unchanged. A
// Description pointing at "" clears the description.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *TaskPriority
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil
}

// Apply mutates t according to p and re-validates it. The owner and the
// identifier are never touched. On error t is left unchanged.
func (t *Task) Apply(p TaskPatch) error {
	updated := *t

	if p.Title != nil {
		updated.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		if *p.Description == "" {
			updated.Description = nil
		} else {
			desc := *p.Description
			updated.Description = &desc
		}
	}
	if p.Status != nil {
		updated.Status = NormalizeTaskStatus(string(*p.Status))
	}
	if p.Priority != nil {
		updated.Priority = NormalizeTaskPriority(string(*p.Priority))
	}

	if err := updated.Validate(); err != nil {
		return err
	}

	updated.UpdatedAt = time.Now().UTC()
	*t = updated
	return nil
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
)

// Event types
const (
	TaskCreated = "task.created"
	TaskUpdated = "task.updated"
	TaskDeleted = "task.deleted"
)

// Event records a change to a task.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	UserID     uuid.UUID       `json:"user_id"`
	TaskID     string          `json:"task_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// UnmarshalPayload decodes the payload into v.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskEvent builds an event of eventType for task. The payload is the
// task's JSON form, or omitted for deletions.
func NewTaskEvent(eventType string, task *domain.Task) (*Event, error) {
	if task == nil {
		return nil, fmt.Errorf("task cannot be nil")
	}

	event := &Event{
		ID:         uuid.New(),
		Type:       eventType,
		UserID:     task.UserID,
		TaskID:     task.ID,
		OccurredAt: time.Now().UTC(),
	}

	if eventType != TaskDeleted {
		payload, err := json.Marshal(task)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal task payload: %w", err)
		}
		event.Payload = payload
	}

	return event, nil
}

// Handler reacts to an event.
type Handler interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Emitter publishes events.
type Emitter interface {
	Emit(ctx context.Context, event *Event) error
}

// NopEmitter discards every event.
type NopEmitter struct{}

// Emit implements Emitter.
func (NopEmitter) Emit(context.Context, *Event) error { return nil }

package events

import (
	"time"

	"github.com/spec-kit/request-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated       EventType = "request_created"
	EventRequestStatusChanged EventType = "request_status_changed"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Title        string `json:"title"`
	CreatedByID  string `json:"created_by_id"`
	AssignedToID string `json:"assigned_to_id"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	Action       domain.Action        `json:"action"`
	OldStatus    domain.RequestStatus `json:"old_status"`
	NewStatus    domain.RequestStatus `json:"new_status"`
	AssignedToID string               `json:"assigned_to_id"`
	Final        bool                 `json:"final"`
}

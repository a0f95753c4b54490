package domain

import "time"

// RequestHistory is an immutable audit entry for one lifecycle step.
type RequestHistory struct {
	ID          string
	RequestID   string
	ChangedByID string
	Action      Action
	FromStatus  *RequestStatus
	ToStatus    RequestStatus
	CreatedAt   time.Time
}

package domain

import "time"

// RequestStatus is the lifecycle state of a request.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "PENDING"
	RequestStatusApproved   RequestStatus = "APPROVED"
	RequestStatusRejected   RequestStatus = "REJECTED"
	RequestStatusInProgress RequestStatus = "IN_PROGRESS"
	RequestStatusClosed     RequestStatus = "CLOSED"
)

// Request is a unit of work assigned to an employee.
type Request struct {
	ID           string
	Title        string
	Description  string
	Status       RequestStatus
	CreatedByID  string
	AssignedToID string
	ApprovedByID *string
	ApprovedAt   *time.Time
	ClosedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	CreatedBy  *UserSummary
	AssignedTo *UserSummary
	ApprovedBy *UserSummary
}

// AssigneeManagerID returns the current manager of the assignee, if loaded and set.
func (r *Request) AssigneeManagerID() *string {
	if r == nil || r.AssignedTo == nil {
		return nil
	}
	return r.AssignedTo.ManagerID
}

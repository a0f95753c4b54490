package dto

import (
	"time"

	"github.com/spec-kit/request-service/internal/domain"
)

// CreateRequestRequest payload for POST /requests.
type CreateRequestRequest struct {
	Title        string `json:"title" validate:"required,min=3,max=200"`
	Description  string `json:"description" validate:"required,min=10,max=2000"`
	AssignedToID string `json:"assignedToId" validate:"required,uuid" label:"Assigned user ID"`
}

// RequestResponse is the wire shape of a request.
type RequestResponse struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Status       domain.RequestStatus `json:"status"`
	CreatedByID  string               `json:"createdById"`
	AssignedToID string               `json:"assignedToId"`
	ApprovedByID *string              `json:"approvedById"`
	ApprovedAt   *time.Time           `json:"approvedAt"`
	ClosedAt     *time.Time           `json:"closedAt"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
	CreatedBy    *UserSummaryResponse `json:"createdBy,omitempty"`
	AssignedTo   *UserSummaryResponse `json:"assignedTo,omitempty"`
	ApprovedBy   *UserSummaryResponse `json:"approvedBy"`
}

// RequestHistoryResponse is one audit entry.
type RequestHistoryResponse struct {
	ID          string                `json:"id"`
	ChangedByID string                `json:"changedById"`
	Action      domain.Action         `json:"action"`
	FromStatus  *domain.RequestStatus `json:"fromStatus"`
	ToStatus    domain.RequestStatus  `json:"toStatus"`
	CreatedAt   time.Time             `json:"createdAt"`
}

// NewRequestResponse maps a domain request.
func NewRequestResponse(r *domain.Request) RequestResponse {
	return RequestResponse{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Status:       r.Status,
		CreatedByID:  r.CreatedByID,
		AssignedToID: r.AssignedToID,
		ApprovedByID: r.ApprovedByID,
		ApprovedAt:   r.ApprovedAt,
		ClosedAt:     r.ClosedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		CreatedBy:    NewUserSummary(r.CreatedBy),
		AssignedTo:   NewUserSummary(r.AssignedTo),
		ApprovedBy:   NewUserSummary(r.ApprovedBy),
	}
}

// NewRequestList maps a slice of requests.
func NewRequestList(reqs []domain.Request) []RequestResponse {
	out := make([]RequestResponse, 0, len(reqs))
	for i := range reqs {
		out = append(out, NewRequestResponse(&reqs[i]))
	}
	return out
}

// NewHistoryList maps audit entries.
func NewHistoryList(entries []domain.RequestHistory) []RequestHistoryResponse {
	out := make([]RequestHistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, RequestHistoryResponse{
			ID:          e.ID,
			ChangedByID: e.ChangedByID,
			Action:      e.Action,
			FromStatus:  e.FromStatus,
			ToStatus:    e.ToStatus,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/request-service/internal/domain"
	"github.com/spec-kit/request-service/internal/events"
	"github.com/spec-kit/request-service/internal/repository"
	apperrors "github.com/spec-kit/request-service/pkg/util/errorutil"
)

// RequestService runs the request lifecycle and role-scoped reads.
type RequestService struct {
	requests   repository.RequestRepository
	users      repository.UserRepository
	history    repository.RequestHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// RequestDependencies bundles repositories for request service.
type RequestDependencies struct {
	RequestRepo repository.RequestRepository
	UserRepo    repository.UserRepository
	HistoryRepo repository.RequestHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// RequestCreateInput describes request creation payload.
type RequestCreateInput struct {
	Title        string
	Description  string
	AssignedToID string
}

type transitionMessages struct {
	logLine      string
	precondition func(domain.RequestStatus) string
	forbidden    string
}

var lifecycleMessages = map[domain.Action]transitionMessages{
	domain.ActionApprove: {
		logLine:      "Request approved",
		precondition: func(s domain.RequestStatus) string { return fmt.Sprintf("Cannot approve request with status: %s", s) },
		forbidden:    "Only the assigned employee's manager can approve this request",
	},
	domain.ActionReject: {
		logLine:      "Request rejected",
		precondition: func(s domain.RequestStatus) string { return fmt.Sprintf("Cannot reject request with status: %s", s) },
		forbidden:    "Only the assigned employee's manager can reject this request",
	},
	domain.ActionStart: {
		logLine:      "Request actioned",
		precondition: func(domain.RequestStatus) string { return "Request must be approved before it can be actioned" },
		forbidden:    "Only the assigned employee can action this request",
	},
	domain.ActionClose: {
		logLine:      "Request closed",
		precondition: func(domain.RequestStatus) string { return "Request must be in progress before it can be closed" },
		forbidden:    "Only the assigned employee can close this request",
	},
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		requests:   deps.RequestRepo,
		users:      deps.UserRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger.Named("request.service"),
		now:        time.Now,
	}
}

// Create opens a PENDING request assigned to an existing user.
func (s *RequestService) Create(ctx context.Context, actor *domain.User, input RequestCreateInput) (*domain.Request, error) {
	if _, err := s.users.GetByID(ctx, input.AssignedToID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Assigned user", map[string]any{"assigned_to_id": input.AssignedToID})
		}
		return nil, apperrors.MapError(err)
	}

	req := &domain.Request{
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Status:       domain.RequestStatusPending,
		CreatedByID:  actor.ID,
		AssignedToID: input.AssignedToID,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, apperrors.MapError(err)
	}

	created, err := s.requests.GetByID(ctx, req.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("Request created",
		zap.String("request_id", created.ID),
		zap.String("created_by", actor.ID),
		zap.String("assigned_to", created.AssignedToID))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: created.ID,
		Actor:     actorOf(actor),
		Payload: events.RequestCreatedPayload{
			Title:        created.Title,
			CreatedByID:  created.CreatedByID,
			AssignedToID: created.AssignedToID,
		},
	})
	return created, nil
}

// List returns the requests visible to actor, newest first.
func (s *RequestService) List(ctx context.Context, actor *domain.User) ([]domain.Request, error) {
	scope := repository.RequestScope{ActorID: actor.ID}
	if actor.Role.ManagesTeam() {
		ids, err := s.users.ListEmployeeIDs(ctx, actor.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		scope.EmployeeIDs = ids
	}

	requests, err := s.requests.ListVisible(ctx, scope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return requests, nil
}

// Get returns a request if actor is its creator, assignee or the assignee's manager.
func (s *RequestService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Request, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanView(actor.ID, req) {
		return nil, apperrors.NewForbidden("You do not have access to this request")
	}
	return req, nil
}

// History returns the audit trail of a request visible to actor.
func (s *RequestService) History(ctx context.Context, actor *domain.User, id string) ([]domain.RequestHistory, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.RequestHistory{}, nil
	}
	entries, err := s.history.ListByRequest(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// Approve moves a PENDING request to APPROVED.
func (s *RequestService) Approve(ctx context.Context, actor *domain.User, id string) (*domain.Request, error) {
	return s.transition(ctx, actor, id, domain.ActionApprove)
}

// Reject moves a PENDING request to REJECTED.
func (s *RequestService) Reject(ctx context.Context, actor *domain.User, id string) (*domain.Request, error) {
	return s.transition(ctx, actor, id, domain.ActionReject)
}

// Start moves an APPROVED request to IN_PROGRESS.
func (s *RequestService) Start(ctx context.Context, actor *domain.User, id string) (*domain.Request, error) {
	return s.transition(ctx, actor, id, domain.ActionStart)
}

// Close moves an IN_PROGRESS request to CLOSED.
func (s *RequestService) Close(ctx context.Context, actor *domain.User, id string) (*domain.Request, error) {
	return s.transition(ctx, actor, id, domain.ActionClose)
}

// transition checks existence, then status, then the actor gate, and writes with a guarded update.
func (s *RequestService) transition(ctx context.Context, actor *domain.User, id string, action domain.Action) (*domain.Request, error) {
	t, ok := domain.TransitionFor(action)
	if !ok {
		return nil, apperrors.NewInternalError(fmt.Errorf("unknown action %q", action))
	}

	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.check(t, actor, req); err != nil {
		return nil, err
	}

	updated, err := s.requests.ApplyTransition(ctx, repository.TransitionParams{
		RequestID:  id,
		ActorID:    actor.ID,
		Transition: t,
		At:         s.now(),
	})
	if errors.Is(err, repository.ErrTransitionRejected) {
		return nil, s.explainRejection(ctx, t, actor, id)
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info(lifecycleMessages[action].logLine,
		zap.String("request_id", updated.ID),
		zap.String("actor_id", actor.ID),
		zap.String("status", string(updated.Status)))
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestStatusChanged,
		RequestID: updated.ID,
		Actor:     actorOf(actor),
		Payload: events.RequestStatusChangedPayload{
			Action:       action,
			OldStatus:    t.From,
			NewStatus:    t.To,
			AssignedToID: updated.AssignedToID,
			Final:        t.To.Terminal(),
		},
	})
	return updated, nil
}

func (s *RequestService) check(t domain.Transition, actor *domain.User, req *domain.Request) error {
	msgs := lifecycleMessages[t.Action]
	if !t.Allows(req) {
		return apperrors.NewInvalidTransition(msgs.precondition(req.Status), string(req.Status))
	}
	if !t.Permits(actor.ID, req) {
		return apperrors.NewForbidden(msgs.forbidden)
	}
	return nil
}

// explainRejection re-reads the row after a lost race so the caller sees why the write did not apply.
func (s *RequestService) explainRejection(ctx context.Context, t domain.Transition, actor *domain.User, id string) error {
	req, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.check(t, actor, req); err != nil {
		return err
	}
	s.logger.Warn("request transition lost race",
		zap.String("request_id", id),
		zap.String("action", string(t.Action)))
	return apperrors.NewConflict("Request was modified concurrently, please retry", map[string]any{"status": string(req.Status)})
}

func (s *RequestService) load(ctx context.Context, id string) (*domain.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Request", map[string]any{"request_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return req, nil
}

func (s *RequestService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorOf(user *domain.User) events.Actor {
	return events.Actor{UserID: user.ID, Role: user.Role}
}

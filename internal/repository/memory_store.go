package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/request-service/internal/domain"
)

// MemoryStore keeps users, requests and history in process memory.
// It is used when no Postgres DSN is configured and by tests.
type MemoryStore struct {
	mu       sync.RWMutex
	now      func() time.Time
	seq      int64
	users    map[string]*domain.User
	requests map[string]*memoryRequest
	history  []domain.RequestHistory
	revoked  map[string]time.Time
}

type memoryRequest struct {
	domain.Request
	seq int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:      time.Now,
		users:    make(map[string]*domain.User),
		requests: make(map[string]*memoryRequest),
		revoked:  make(map[string]time.Time),
	}
}

// Users returns the store's UserRepository view.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Requests returns the store's RequestRepository view.
func (s *MemoryStore) Requests() RequestRepository { return memoryRequests{s} }

// History returns the store's RequestHistoryRepository view.
func (s *MemoryStore) History() RequestHistoryRepository { return memoryHistory{s} }

// Blocklist returns the store's TokenBlocklist view.
func (s *MemoryStore) Blocklist() TokenBlocklist { return memoryBlocklist{s} }

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(_ context.Context, user *domain.User) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
	}
	if user.ManagerID != nil {
		if _, ok := s.users[*user.ManagerID]; !ok {
			return &pgconn.PgError{Code: "23503", ConstraintName: "users_manager_id_fkey"}
		}
	}

	now := s.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	stored.ManagerID = copyString(user.ManagerID)
	stored.Manager = nil
	stored.Employees = nil
	s.users[user.ID] = &stored
	return nil
}

func (m memoryUsers) UpdateManager(_ context.Context, userID string, managerID *string) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	if managerID != nil {
		if _, ok := s.users[*managerID]; !ok {
			return &pgconn.PgError{Code: "23503", ConstraintName: "users_manager_id_fkey"}
		}
	}
	user.ManagerID = copyString(managerID)
	user.UpdatedAt = s.now()
	return nil
}

func (m memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *user
	out.ManagerID = copyString(user.ManagerID)
	return &out, nil
}

func (m memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			out := *user
			out.ManagerID = copyString(user.ManagerID)
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m memoryUsers) List(_ context.Context, filter UserFilter) ([]domain.User, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.User{}
	for _, user := range s.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.ManagerID != nil && (user.ManagerID == nil || *user.ManagerID != *filter.ManagerID) {
			continue
		}
		out := *user
		out.ManagerID = copyString(user.ManagerID)
		result = append(result, out)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m memoryUsers) ListEmployeeIDs(_ context.Context, managerID string) ([]string, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []string{}
	for _, user := range s.users {
		if user.ManagerID != nil && *user.ManagerID == managerID {
			ids = append(ids, user.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type memoryRequests struct{ s *MemoryStore }

func (m memoryRequests) Create(_ context.Context, req *domain.Request) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[req.CreatedByID]; !ok {
		return &pgconn.PgError{Code: "23503", ConstraintName: "requests_created_by_id_fkey"}
	}
	if _, ok := s.users[req.AssignedToID]; !ok {
		return &pgconn.PgError{Code: "23503", ConstraintName: "requests_assigned_to_id_fkey"}
	}

	now := s.now()
	s.seq++
	req.ID = uuid.NewString()
	req.CreatedAt = now
	req.UpdatedAt = now
	s.requests[req.ID] = &memoryRequest{Request: *req, seq: s.seq}
	s.appendHistoryLocked(domain.RequestHistory{
		RequestID:   req.ID,
		ChangedByID: req.CreatedByID,
		Action:      domain.ActionCreate,
		ToStatus:    req.Status,
	})
	return nil
}

func (m memoryRequests) GetByID(_ context.Context, id string) (*domain.Request, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s.hydrateLocked(stored), nil
}

func (m memoryRequests) ListVisible(_ context.Context, scope RequestScope) ([]domain.Request, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	team := make(map[string]struct{}, len(scope.EmployeeIDs))
	for _, id := range scope.EmployeeIDs {
		team[id] = struct{}{}
	}

	matched := []*memoryRequest{}
	for _, stored := range s.requests {
		_, inTeam := team[stored.AssignedToID]
		if stored.CreatedByID == scope.ActorID || stored.AssignedToID == scope.ActorID || inTeam {
			matched = append(matched, stored)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].seq > matched[j].seq
	})

	result := make([]domain.Request, 0, len(matched))
	for _, stored := range matched {
		result = append(result, *s.hydrateLocked(stored))
	}
	return result, nil
}

func (m memoryRequests) ApplyTransition(_ context.Context, params TransitionParams) (*domain.Request, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.requests[params.RequestID]
	if !ok {
		return nil, ErrTransitionRejected
	}
	current := s.hydrateLocked(stored)
	t := params.Transition
	if !t.Allows(current) || !t.Permits(params.ActorID, current) {
		return nil, ErrTransitionRejected
	}

	at := params.At
	stored.Status = t.To
	stored.UpdatedAt = at
	switch t.To {
	case domain.RequestStatusApproved, domain.RequestStatusRejected:
		stored.ApprovedByID = copyString(&params.ActorID)
		stored.ApprovedAt = &at
	case domain.RequestStatusClosed:
		stored.ClosedAt = &at
	}

	from := t.From
	s.appendHistoryLocked(domain.RequestHistory{
		RequestID:   params.RequestID,
		ChangedByID: params.ActorID,
		Action:      t.Action,
		FromStatus:  &from,
		ToStatus:    t.To,
	})
	return s.hydrateLocked(stored), nil
}

func (s *MemoryStore) hydrateLocked(stored *memoryRequest) *domain.Request {
	out := stored.Request
	out.ApprovedByID = copyString(stored.ApprovedByID)
	out.ApprovedAt = copyTime(stored.ApprovedAt)
	out.ClosedAt = copyTime(stored.ClosedAt)
	out.CreatedBy = s.summaryLocked(&out.CreatedByID)
	out.AssignedTo = s.summaryLocked(&out.AssignedToID)
	out.ApprovedBy = s.summaryLocked(out.ApprovedByID)
	return &out
}

func (s *MemoryStore) summaryLocked(id *string) *domain.UserSummary {
	if id == nil {
		return nil
	}
	user, ok := s.users[*id]
	if !ok {
		return nil
	}
	summary := user.Summary()
	summary.ManagerID = copyString(user.ManagerID)
	return &summary
}

func (s *MemoryStore) appendHistoryLocked(entry domain.RequestHistory) {
	entry.ID = uuid.NewString()
	entry.CreatedAt = s.now()
	s.history = append(s.history, entry)
}

type memoryHistory struct{ s *MemoryStore }

func (m memoryHistory) ListByRequest(_ context.Context, requestID string) ([]domain.RequestHistory, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.RequestHistory{}
	for _, entry := range s.history {
		if entry.RequestID == requestID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type memoryBlocklist struct{ s *MemoryStore }

func (m memoryBlocklist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = s.now().Add(ttl)
	return nil
}

func (m memoryBlocklist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if s.now().After(until) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

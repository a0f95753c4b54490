package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/request-service/internal/domain"
)

// ErrTransitionRejected is returned when the guarded update matched no row.
var ErrTransitionRejected = errors.New("request transition guard rejected")

// RequestScope describes which requests an actor may list.
type RequestScope struct {
	ActorID     string
	EmployeeIDs []string
}

// TransitionParams describes one guarded lifecycle write.
type TransitionParams struct {
	RequestID  string
	ActorID    string
	Transition domain.Transition
	At         time.Time
}

// RequestRepository encapsulates request persistence.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.Request) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	ListVisible(ctx context.Context, scope RequestScope) ([]domain.Request, error)
	ApplyTransition(ctx context.Context, params TransitionParams) (*domain.Request, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestSelect = `
        SELECT r.id, r.title, r.description, r.status, r.created_by_id, r.assigned_to_id, r.approved_by_id,
               r.approved_at, r.closed_at, r.created_at, r.updated_at,
               c.id, c.name, c.email, c.role, c.manager_id,
               a.id, a.name, a.email, a.role, a.manager_id,
               ap.id, ap.name, ap.email, ap.role, ap.manager_id
        FROM requests r
        JOIN users c ON c.id = r.created_by_id
        JOIN users a ON a.id = r.assigned_to_id
        LEFT JOIN users ap ON ap.id = r.approved_by_id`

func (r *requestRepository) Create(ctx context.Context, req *domain.Request) error {
	const query = `
        INSERT INTO requests (title, description, status, created_by_id, assigned_to_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := tx.QueryRow(ctx, query,
		req.Title,
		req.Description,
		req.Status,
		req.CreatedByID,
		req.AssignedToID,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return err
	}

	if err := insertHistory(ctx, tx, &domain.RequestHistory{
		RequestID:   req.ID,
		ChangedByID: req.CreatedByID,
		Action:      domain.ActionCreate,
		ToStatus:    req.Status,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	return scanRequest(r.pool.QueryRow(ctx, requestSelect+` WHERE r.id=$1`, id))
}

func (r *requestRepository) ListVisible(ctx context.Context, scope RequestScope) ([]domain.Request, error) {
	query, args := visibleQuery(scope)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

func (r *requestRepository) ApplyTransition(ctx context.Context, params TransitionParams) (*domain.Request, error) {
	query, args, err := transitionStatement(params)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrTransitionRejected
	}

	from := params.Transition.From
	if err := insertHistory(ctx, tx, &domain.RequestHistory{
		RequestID:   params.RequestID,
		ChangedByID: params.ActorID,
		Action:      params.Transition.Action,
		FromStatus:  &from,
		ToStatus:    params.Transition.To,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, params.RequestID)
}

func visibleQuery(scope RequestScope) (string, []any) {
	args := []any{scope.ActorID}
	clauses := []string{"r.created_by_id=$1", "r.assigned_to_id=$1"}
	if len(scope.EmployeeIDs) > 0 {
		args = append(args, scope.EmployeeIDs)
		clauses = append(clauses, fmt.Sprintf("r.assigned_to_id = ANY($%d::uuid[])", len(args)))
	}
	query := requestSelect + ` WHERE ` + strings.Join(clauses, " OR ") + ` ORDER BY r.created_at DESC`
	return query, args
}

// transitionStatement builds an UPDATE that only matches when status and actor gate still hold.
func transitionStatement(params TransitionParams) (string, []any, error) {
	t := params.Transition
	sets := []string{"status=$3", "updated_at=$5"}
	switch t.To {
	case domain.RequestStatusApproved, domain.RequestStatusRejected:
		sets = append(sets, "approved_by_id=$2", "approved_at=$5")
	case domain.RequestStatusClosed:
		sets = append(sets, "closed_at=$5")
	}

	var gate string
	switch t.Gate {
	case domain.GateManagerOfAssignee:
		gate = "EXISTS (SELECT 1 FROM users u WHERE u.id = requests.assigned_to_id AND u.manager_id = $2)"
	case domain.GateAssignee:
		gate = "assigned_to_id = $2"
	default:
		return "", nil, fmt.Errorf("transition %q has no gate", t.Action)
	}

	query := fmt.Sprintf(`UPDATE requests SET %s WHERE id=$1 AND status=$4 AND %s`, strings.Join(sets, ", "), gate)
	args := []any{params.RequestID, params.ActorID, t.To, t.From, params.At}
	return query, args, nil
}

func scanRequest(row pgx.Row) (*domain.Request, error) {
	var (
		req        domain.Request
		createdBy  domain.UserSummary
		assignedTo domain.UserSummary
		apID       *string
		apName     *string
		apEmail    *string
		apRole     *domain.Role
		apManager  *string
	)
	if err := row.Scan(
		&req.ID,
		&req.Title,
		&req.Description,
		&req.Status,
		&req.CreatedByID,
		&req.AssignedToID,
		&req.ApprovedByID,
		&req.ApprovedAt,
		&req.ClosedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
		&createdBy.ID, &createdBy.Name, &createdBy.Email, &createdBy.Role, &createdBy.ManagerID,
		&assignedTo.ID, &assignedTo.Name, &assignedTo.Email, &assignedTo.Role, &assignedTo.ManagerID,
		&apID, &apName, &apEmail, &apRole, &apManager,
	); err != nil {
		return nil, err
	}
	req.CreatedBy = &createdBy
	req.AssignedTo = &assignedTo
	if apID != nil {
		approver := domain.UserSummary{ID: *apID, ManagerID: apManager}
		if apName != nil {
			approver.Name = *apName
		}
		if apEmail != nil {
			approver.Email = *apEmail
		}
		if apRole != nil {
			approver.Role = *apRole
		}
		req.ApprovedBy = &approver
	}
	return &req, nil
}

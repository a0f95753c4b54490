package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/request-service/internal/domain"
)

// RequestHistoryRepository reads the audit trail written alongside transitions.
type RequestHistoryRepository interface {
	ListByRequest(ctx context.Context, requestID string) ([]domain.RequestHistory, error)
}

type requestHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewRequestHistoryRepository builds repository.
func NewRequestHistoryRepository(pool *pgxpool.Pool) RequestHistoryRepository {
	return &requestHistoryRepository{pool: pool}
}

func insertHistory(ctx context.Context, tx pgx.Tx, history *domain.RequestHistory) error {
	const query = `
        INSERT INTO request_history (request_id, changed_by_id, action, from_status, to_status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return tx.QueryRow(ctx, query,
		history.RequestID,
		history.ChangedByID,
		history.Action,
		history.FromStatus,
		history.ToStatus,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *requestHistoryRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.RequestHistory, error) {
	const query = `
        SELECT id, request_id, changed_by_id, action, from_status, to_status, created_at
        FROM request_history WHERE request_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.RequestHistory{}
	for rows.Next() {
		var history domain.RequestHistory
		if err := rows.Scan(
			&history.ID,
			&history.RequestID,
			&history.ChangedByID,
			&history.Action,
			&history.FromStatus,
			&history.ToStatus,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}

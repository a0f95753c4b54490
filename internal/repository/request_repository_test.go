package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/request-service/internal/domain"
)

func TestTransitionStatement(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("approve guards on manager of assignee", func(t *testing.T) {
		tr, _ := domain.TransitionFor(domain.ActionApprove)
		query, args, err := transitionStatement(TransitionParams{RequestID: "r1", ActorID: "m1", Transition: tr, At: at})
		require.NoError(t, err)

		assert.Contains(t, query, "approved_by_id=$2")
		assert.Contains(t, query, "approved_at=$5")
		assert.Contains(t, query, "WHERE id=$1 AND status=$4")
		assert.Contains(t, query, "u.manager_id = $2")
		assert.NotContains(t, query, "closed_at")
		assert.Equal(t, []any{"r1", "m1", domain.RequestStatusApproved, domain.RequestStatusPending, at}, args)
	})

	t.Run("close guards on assignee", func(t *testing.T) {
		tr, _ := domain.TransitionFor(domain.ActionClose)
		query, args, err := transitionStatement(TransitionParams{RequestID: "r1", ActorID: "e1", Transition: tr, At: at})
		require.NoError(t, err)

		assert.Contains(t, query, "closed_at=$5")
		assert.Contains(t, query, "assigned_to_id = $2")
		assert.NotContains(t, query, "approved_by_id")
		assert.Equal(t, domain.RequestStatusInProgress, args[3])
	})

	t.Run("action only moves status", func(t *testing.T) {
		tr, _ := domain.TransitionFor(domain.ActionStart)
		query, _, err := transitionStatement(TransitionParams{RequestID: "r1", ActorID: "e1", Transition: tr, At: at})
		require.NoError(t, err)
		assert.Contains(t, query, "SET status=$3, updated_at=$5 WHERE")
	})

	t.Run("missing gate", func(t *testing.T) {
		_, _, err := transitionStatement(TransitionParams{Transition: domain.Transition{Action: "bogus"}})
		assert.Error(t, err)
	})
}

func TestVisibleQuery(t *testing.T) {
	query, args := visibleQuery(RequestScope{ActorID: "e1"})
	assert.Contains(t, query, "r.created_by_id=$1 OR r.assigned_to_id=$1 ORDER BY r.created_at DESC")
	assert.Len(t, args, 1)

	query, args = visibleQuery(RequestScope{ActorID: "m1", EmployeeIDs: []string{"e1", "e2"}})
	assert.Contains(t, query, "OR r.assigned_to_id = ANY($2::uuid[])")
	assert.Equal(t, []any{"m1", []string{"e1", "e2"}}, args)
}

package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	t.Run("domain error passes through", func(t *testing.T) {
		original := NewForbidden("nope")
		got := ToDomainError(fmt.Errorf("wrapped: %w", original))
		assert.Equal(t, CodeForbidden, got.Code)
		assert.Equal(t, http.StatusForbidden, got.HTTPStatus)
	})

	t.Run("no rows becomes not found", func(t *testing.T) {
		got := ToDomainError(pgx.ErrNoRows)
		assert.Equal(t, CodeNotFound, got.Code)
		assert.Equal(t, "Record not found", got.Message)
	})

	t.Run("unique violation", func(t *testing.T) {
		got := ToDomainError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
		assert.Equal(t, http.StatusBadRequest, got.HTTPStatus)
		assert.Equal(t, "Duplicate field value entered", got.Message)
		assert.Equal(t, "users_email_key", got.Details["constraint"])
	})

	t.Run("foreign key violation", func(t *testing.T) {
		got := ToDomainError(&pgconn.PgError{Code: "23503"})
		assert.Equal(t, CodeInvalidReference, got.Code)
		assert.Equal(t, http.StatusBadRequest, got.HTTPStatus)
	})

	t.Run("unknown error is internal", func(t *testing.T) {
		cause := errors.New("boom")
		got := ToDomainError(cause)
		assert.Equal(t, CodeInternal, got.Code)
		assert.Equal(t, "internal server error", got.Message)
		assert.ErrorIs(t, got, cause)
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, ToDomainError(nil))
		assert.NoError(t, MapError(nil))
	})
}

func TestNewInvalidTransition(t *testing.T) {
	err := NewInvalidTransition("Cannot approve request with status: CLOSED", "CLOSED")
	de := ToDomainError(err)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
	assert.Equal(t, "CLOSED", de.Details["status"])
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(errors.New("other")))
}

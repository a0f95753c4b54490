package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisTokenBlocklist(t *testing.T) {
	ctx := context.Background()

	t.Run("revoke stores key with ttl", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		blocklist := NewRedisTokenBlocklist(client)

		mock.ExpectSet("auth:revoked:jti-1", "1", time.Hour).SetVal("OK")
		require.NoError(t, blocklist.Revoke(ctx, "jti-1", time.Hour))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired token is not stored", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		blocklist := NewRedisTokenBlocklist(client)

		require.NoError(t, blocklist.Revoke(ctx, "jti-1", 0))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("is revoked", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		blocklist := NewRedisTokenBlocklist(client)

		mock.ExpectExists("auth:revoked:jti-1").SetVal(1)
		mock.ExpectExists("auth:revoked:jti-2").SetVal(0)

		revoked, err := blocklist.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = blocklist.IsRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis failure surfaces", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		blocklist := NewRedisTokenBlocklist(client)

		mock.ExpectExists("auth:revoked:jti-1").SetErr(errors.New("connection refused"))
		_, err := blocklist.IsRevoked(ctx, "jti-1")
		assert.Error(t, err)
	})
}

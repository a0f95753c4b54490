package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/request-service/internal/config"
	"github.com/spec-kit/request-service/internal/domain"
	"github.com/spec-kit/request-service/internal/events"
	"github.com/spec-kit/request-service/internal/repository"
	apperrors "github.com/spec-kit/request-service/pkg/util/errorutil"
)

type team struct {
	store *repository.MemoryStore
	m     *domain.User
	m2    *domain.User
	e1    *domain.User
	e2    *domain.User
	e3    *domain.User
}

func newTeam(t *testing.T) team {
	t.Helper()
	store := repository.NewMemoryStore()
	ctx := context.Background()
	users := store.Users()

	create := func(name, email string, role domain.Role, managerID *string) *domain.User {
		u := &domain.User{Name: name, Email: email, Role: role, ManagerID: managerID, PasswordHash: "x"}
		require.NoError(t, users.Create(ctx, u))
		return u
	}
	m := create("Manager", "manager@example.com", domain.RoleManager, nil)
	m2 := create("Other Manager", "manager2@example.com", domain.RoleManager, nil)
	e1 := create("Employee One", "employee1@example.com", domain.RoleEmployee, &m.ID)
	e2 := create("Employee Two", "employee2@example.com", domain.RoleEmployee, &m.ID)
	e3 := create("Employee Three", "employee3@example.com", domain.RoleEmployee, nil)

	return team{store: store, m: m, m2: m2, e1: e1, e2: e2, e3: e3}
}

func testConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4}}
}

func assertStatus(t *testing.T, err error, status int) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, status, de.HTTPStatus, de.Message)
	return de
}

type recordingDispatcher struct {
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

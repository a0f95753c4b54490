package main

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/request-service/internal/config"
	"github.com/spec-kit/request-service/internal/domain"
	"github.com/spec-kit/request-service/internal/observability"
	"github.com/spec-kit/request-service/internal/persistence"
	"github.com/spec-kit/request-service/internal/repository"
	"github.com/spec-kit/request-service/internal/service"
)

const seedPassword = "password123"

type seedUser struct {
	key     string
	name    string
	email   string
	role    domain.Role
	manager string
}

var seedUsers = []seedUser{
	{key: "manager", name: "Morgan Manager", email: "manager@example.com", role: domain.RoleManager},
	{key: "employee1", name: "Erin Employee", email: "employee1@example.com", role: domain.RoleEmployee, manager: "manager"},
	{key: "employee2", name: "Eli Employee", email: "employee2@example.com", role: domain.RoleEmployee, manager: "manager"},
	{key: "employee3", name: "Emery Employee", email: "employee3@example.com", role: domain.RoleEmployee},
}

type seedRequest struct {
	title       string
	description string
	creator     string
	assignee    string
	steps       []domain.Action
}

var seedRequests = []seedRequest{
	{
		title:       "Update onboarding checklist",
		description: "Refresh the onboarding checklist with the new laptop provisioning steps.",
		creator:     "employee3",
		assignee:    "employee1",
	},
	{
		title:       "Quarterly access review",
		description: "Review repository and dashboard access for the team and revoke stale grants.",
		creator:     "employee3",
		assignee:    "employee2",
		steps:       []domain.Action{domain.ActionApprove},
	},
	{
		title:       "Migrate build agents",
		description: "Move the remaining build agents to the new runner pool before the old one is retired.",
		creator:     "employee2",
		assignee:    "employee1",
		steps:       []domain.Action{domain.ActionApprove, domain.ActionStart},
	},
	{
		title:       "Renew TLS certificates",
		description: "Renew the certificates for the internal dashboards ahead of their expiry date.",
		creator:     "employee1",
		assignee:    "employee2",
		steps:       []domain.Action{domain.ActionApprove, domain.ActionStart, domain.ActionClose},
	},
	{
		title:       "Buy standing desks",
		description: "Purchase standing desks for the whole floor from the premium catalogue.",
		creator:     "employee3",
		assignee:    "employee1",
		steps:       []domain.Action{domain.ActionReject},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	if cfg.Postgres.DSN == "" {
		logger.Fatal("POSTGRES_DSN is required for seeding")
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	pool := pg.PoolHandle()
	users := repository.NewUserRepository(pool)
	if err := seed(ctx, *cfg, users, repository.NewRequestRepository(pool), repository.NewRequestHistoryRepository(pool), logger); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	logger.Info("seed complete", zap.String("password", seedPassword))
}

func seed(ctx context.Context, cfg config.Config, users repository.UserRepository, requests repository.RequestRepository, history repository.RequestHistoryRepository, logger *zap.Logger) error {
	authService := service.NewAuthService(cfg, service.AuthDependencies{UserRepo: users, Logger: logger})
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: requests,
		UserRepo:    users,
		HistoryRepo: history,
		Logger:      logger,
	})

	byKey := make(map[string]*domain.User, len(seedUsers))
	for _, su := range seedUsers {
		existing, err := users.GetByEmail(ctx, su.email)
		if err == nil {
			logger.Info("user already seeded", zap.String("email", su.email))
			byKey[su.key] = existing
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		input := service.RegisterInput{Email: su.email, Password: seedPassword, Name: su.name, Role: su.role}
		if su.manager != "" {
			input.ManagerID = &byKey[su.manager].ID
		}
		session, err := authService.Register(ctx, input)
		if err != nil {
			return err
		}
		byKey[su.key] = session.User
	}

	manager := byKey["manager"]
	existing, err := requestService.List(ctx, manager)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info("requests already seeded", zap.Int("count", len(existing)))
		return nil
	}

	for _, sr := range seedRequests {
		req, err := requestService.Create(ctx, byKey[sr.creator], service.RequestCreateInput{
			Title:        sr.title,
			Description:  sr.description,
			AssignedToID: byKey[sr.assignee].ID,
		})
		if err != nil {
			return err
		}
		assignee := byKey[sr.assignee]
		for _, step := range sr.steps {
			switch step {
			case domain.ActionApprove:
				_, err = requestService.Approve(ctx, manager, req.ID)
			case domain.ActionReject:
				_, err = requestService.Reject(ctx, manager, req.ID)
			case domain.ActionStart:
				_, err = requestService.Start(ctx, assignee, req.ID)
			case domain.ActionClose:
				_, err = requestService.Close(ctx, assignee, req.ID)
			}
			if err != nil {
				return err
			}
		}
	}
	logger.Info("requests seeded", zap.Int("count", len(seedRequests)))
	return nil
}

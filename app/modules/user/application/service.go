package userservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/party-companion/app/eventbus"
	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	userdomain "github.com/Black-And-White-Club/party-companion/app/modules/user/domain"
	userdb "github.com/Black-And-White-Club/party-companion/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/operation"
	"github.com/Black-And-White-Club/party-companion/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// UserService implements the Service interface.
type UserService struct {
	repo      userdb.Repository
	logger    *slog.Logger
	telemetry operation.Telemetry
	db        *bun.DB
	eventBus  eventbus.EventBus
}

// NewUserService creates a new UserService. eventBus may be nil.
func NewUserService(
	repo userdb.Repository,
	logger *slog.Logger,
	metrics observability.ServiceMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	eventBus eventbus.EventBus,
) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		repo:   repo,
		logger: logger,
		telemetry: operation.Telemetry{
			Service: "UserService",
			Logger:  logger,
			Metrics: metrics,
			Tracer:  tracer,
		},
		db:       db,
		eventBus: eventBus,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*userdomain.User, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "GetUser", id.String(), func(ctx context.Context) (results.OperationResult[*userdomain.User, error], error) {
		user, err := s.repo.GetByID(ctx, nil, id)
		if err != nil {
			if errors.Is(err, userdb.ErrNotFound) {
				return results.FailureResult[*userdomain.User, error](userdomain.ErrUserNotFound), nil
			}
			return results.OperationResult[*userdomain.User, error]{}, err
		}
		u := user.ToDomain()
		return results.SuccessResult[*userdomain.User, error](&u), nil
	}))
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]userdomain.User, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "ListUsers", "", func(ctx context.Context) (results.OperationResult[[]userdomain.User, error], error) {
		rows, err := s.repo.List(ctx, nil, limit, offset)
		if err != nil {
			return results.OperationResult[[]userdomain.User, error]{}, err
		}
		users := make([]userdomain.User, 0, len(rows))
		for i := range rows {
			users = append(users, rows[i].ToDomain())
		}
		return results.SuccessResult[[]userdomain.User, error](users), nil
	}))
}

func (s *UserService) SetAdmin(ctx context.Context, actor authdomain.Actor, id uuid.UUID, isAdmin bool) (*userdomain.User, error) {
	setAdminTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*userdomain.User, error], error) {
		if actor.UserID == id && !isAdmin {
			return results.FailureResult[*userdomain.User, error](userdomain.ErrSelfModification), nil
		}
		if err := s.repo.SetAdmin(ctx, db, id, isAdmin); err != nil {
			if errors.Is(err, userdb.ErrNotFound) {
				return results.FailureResult[*userdomain.User, error](userdomain.ErrUserNotFound), nil
			}
			return results.OperationResult[*userdomain.User, error]{}, err
		}
		user, err := s.repo.GetByID(ctx, db, id)
		if err != nil {
			return results.OperationResult[*userdomain.User, error]{}, fmt.Errorf("failed to reload user: %w", err)
		}
		u := user.ToDomain()
		return results.SuccessResult[*userdomain.User, error](&u), nil
	}

	return results.Unwrap(operation.Run(s.telemetry, ctx, "SetAdmin", id.String(), func(ctx context.Context) (results.OperationResult[*userdomain.User, error], error) {
		return operation.InTx(ctx, s.db, setAdminTx)
	}))
}

// DeleteUser removes the account. Photos, likes, scores and icebreaker rows go
// with it through ON DELETE CASCADE. Anyone who has played Mölkky is kept,
// since throws and winners are permanent game history.
func (s *UserService) DeleteUser(ctx context.Context, actor authdomain.Actor, id uuid.UUID) error {
	_, err := results.Unwrap(operation.Run(s.telemetry, ctx, "DeleteUser", id.String(), func(ctx context.Context) (results.OperationResult[bool, error], error) {
		if actor.UserID == id {
			return results.FailureResult[bool, error](userdomain.ErrSelfModification), nil
		}
		if err := s.repo.Delete(ctx, nil, id); err != nil {
			switch {
			case errors.Is(err, userdb.ErrNotFound):
				return results.FailureResult[bool, error](userdomain.ErrUserNotFound), nil
			case errors.Is(err, userdb.ErrReferenced):
				return results.FailureResult[bool, error](userdomain.ErrUserHasGameHistory), nil
			}
			return results.OperationResult[bool, error]{}, err
		}
		return results.SuccessResult[bool, error](true), nil
	}))
	if err != nil {
		return err
	}
	s.publishUserDeleted(ctx, id)
	return nil
}

// publishUserDeleted runs after the delete committed. Failures are logged only.
func (s *UserService) publishUserDeleted(ctx context.Context, id uuid.UUID) {
	if s.eventBus == nil {
		return
	}
	msg, err := eventbus.NewMessage(userdomain.UserDeletedPayloadV1{UserID: id, DeletedAt: time.Now().UTC()})
	if err == nil {
		err = s.eventBus.Publish(ctx, userdomain.UserDeletedV1, msg)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish user deleted event", attr.UUID("user_id", id), attr.Error(err))
	}
}

func (s *UserService) CountUsers(ctx context.Context) (int, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "CountUsers", "", func(ctx context.Context) (results.OperationResult[int, error], error) {
		n, err := s.repo.Count(ctx, nil)
		if err != nil {
			return results.OperationResult[int, error]{}, err
		}
		return results.SuccessResult[int, error](n), nil
	}))
}

func (s *UserService) DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	users, err := s.repo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve display names: %w", err)
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}
	return names, nil
}

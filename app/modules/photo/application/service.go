package photoservice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	photodomain "github.com/Black-And-White-Club/party-companion/app/modules/photo/domain"
	photodb "github.com/Black-And-White-Club/party-companion/app/modules/photo/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/operation"
	"github.com/Black-And-White-Club/party-companion/app/shared/results"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultFeedLimit = 30
	maxFeedLimit     = 100
)

// PhotoService implements the Service interface.
type PhotoService struct {
	repo      photodb.Repository
	users     UserDirectory
	logger    *slog.Logger
	telemetry operation.Telemetry
	now       func() time.Time
}

// NewPhotoService creates a new PhotoService.
func NewPhotoService(
	repo photodb.Repository,
	users UserDirectory,
	logger *slog.Logger,
	metrics observability.ServiceMetrics,
	tracer trace.Tracer,
) *PhotoService {
	return &PhotoService{
		repo:   repo,
		users:  users,
		logger: logger,
		telemetry: operation.Telemetry{
			Service: "PhotoService",
			Logger:  logger,
			Metrics: metrics,
			Tracer:  tracer,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

type photoResult = results.OperationResult[*photodomain.Photo, error]

func (s *PhotoService) PostPhoto(ctx context.Context, actor authdomain.Actor, imageURL, caption string) (*photodomain.Photo, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "PostPhoto", actor.UserID.String(), func(ctx context.Context) (photoResult, error) {
		url, err := photodomain.NormalizeImageURL(imageURL)
		if err != nil {
			return results.FailureResult[*photodomain.Photo](err), nil
		}
		caption, err := photodomain.NormalizeCaption(caption)
		if err != nil {
			return results.FailureResult[*photodomain.Photo](err), nil
		}

		row := &photodb.Photo{
			ID:        uuid.New(),
			UserID:    actor.UserID,
			ImageURL:  url,
			Caption:   caption,
			CreatedAt: s.now(),
		}
		if err := s.repo.InsertPhoto(ctx, nil, row); err != nil {
			if errors.Is(err, photodb.ErrUnknownUser) {
				return results.FailureResult[*photodomain.Photo](photodomain.ErrUnknownUser), nil
			}
			return photoResult{}, err
		}

		s.logger.InfoContext(ctx, "Photo posted",
			attr.UUID("photo_id", row.ID),
			attr.UUID("user_id", actor.UserID),
		)
		view := &photodb.PhotoView{Photo: *row}
		photos := s.withAuthors(ctx, []photodb.PhotoView{*view})
		return results.SuccessResult[*photodomain.Photo, error](&photos[0]), nil
	}))
}

func (s *PhotoService) Feed(ctx context.Context, actor authdomain.Actor, limit int, before *time.Time) (*photodomain.Page, error) {
	type pageResult = results.OperationResult[*photodomain.Page, error]
	return results.Unwrap(operation.Run(s.telemetry, ctx, "Feed", actor.UserID.String(), func(ctx context.Context) (pageResult, error) {
		limit = clampLimit(limit)
		views, err := s.repo.ListPhotos(ctx, nil, photodb.ListFilter{
			Viewer: actor.UserID,
			Before: before,
			Limit:  limit,
		})
		if err != nil {
			return pageResult{}, err
		}
		page := &photodomain.Page{Photos: s.withAuthors(ctx, views)}
		if len(page.Photos) == limit {
			next := page.Photos[len(page.Photos)-1].CreatedAt
			page.NextBefore = &next
		}
		return results.SuccessResult[*photodomain.Page, error](page), nil
	}))
}

func (s *PhotoService) GetPhoto(ctx context.Context, actor authdomain.Actor, id uuid.UUID) (*photodomain.Photo, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "GetPhoto", id.String(), func(ctx context.Context) (photoResult, error) {
		return s.load(ctx, actor, id)
	}))
}

func (s *PhotoService) DeletePhoto(ctx context.Context, actor authdomain.Actor, id uuid.UUID) error {
	type deleteResult = results.OperationResult[struct{}, error]
	_, err := results.Unwrap(operation.Run(s.telemetry, ctx, "DeletePhoto", id.String(), func(ctx context.Context) (deleteResult, error) {
		view, err := s.repo.GetPhoto(ctx, nil, id, actor.UserID)
		if errors.Is(err, photodb.ErrNotFound) {
			return results.FailureResult[struct{}](photodomain.ErrPhotoNotFound), nil
		}
		if err != nil {
			return deleteResult{}, err
		}
		if view.UserID != actor.UserID && !actor.IsAdmin() {
			if view.Hidden {
				return results.FailureResult[struct{}](photodomain.ErrPhotoNotFound), nil
			}
			return results.FailureResult[struct{}](photodomain.ErrNotOwner), nil
		}

		if err := s.repo.DeletePhoto(ctx, nil, id); err != nil {
			if errors.Is(err, photodb.ErrNotFound) {
				return results.FailureResult[struct{}](photodomain.ErrPhotoNotFound), nil
			}
			return deleteResult{}, err
		}
		s.logger.InfoContext(ctx, "Photo deleted",
			attr.UUID("photo_id", id),
			attr.UUID("deleted_by", actor.UserID),
			attr.Bool("by_admin", view.UserID != actor.UserID),
		)
		return results.SuccessResult[struct{}, error](struct{}{}), nil
	}))
	return err
}

func (s *PhotoService) Like(ctx context.Context, actor authdomain.Actor, id uuid.UUID) (*photodomain.Photo, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "Like", id.String(), func(ctx context.Context) (photoResult, error) {
		if failure, err := s.checkVisible(ctx, actor, id); failure != nil || err != nil {
			return photoResult{Failure: failure}, err
		}
		err := s.repo.AddLike(ctx, nil, id, actor.UserID)
		switch {
		case errors.Is(err, photodb.ErrNotFound):
			return results.FailureResult[*photodomain.Photo](photodomain.ErrPhotoNotFound), nil
		case errors.Is(err, photodb.ErrUnknownUser):
			return results.FailureResult[*photodomain.Photo](photodomain.ErrUnknownUser), nil
		case err != nil:
			return photoResult{}, err
		}
		return s.load(ctx, actor, id)
	}))
}

func (s *PhotoService) Unlike(ctx context.Context, actor authdomain.Actor, id uuid.UUID) (*photodomain.Photo, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "Unlike", id.String(), func(ctx context.Context) (photoResult, error) {
		if failure, err := s.checkVisible(ctx, actor, id); failure != nil || err != nil {
			return photoResult{Failure: failure}, err
		}
		if err := s.repo.RemoveLike(ctx, nil, id, actor.UserID); err != nil {
			return photoResult{}, err
		}
		return s.load(ctx, actor, id)
	}))
}

func (s *PhotoService) SetHidden(ctx context.Context, id uuid.UUID, hidden bool) (*photodomain.Photo, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "SetHidden", id.String(), func(ctx context.Context) (photoResult, error) {
		if err := s.repo.SetHidden(ctx, nil, id, hidden); err != nil {
			if errors.Is(err, photodb.ErrNotFound) {
				return results.FailureResult[*photodomain.Photo](photodomain.ErrPhotoNotFound), nil
			}
			return photoResult{}, err
		}
		s.logger.InfoContext(ctx, "Photo visibility changed",
			attr.UUID("photo_id", id),
			attr.Bool("hidden", hidden),
		)
		return s.load(ctx, authdomain.Actor{Role: authdomain.RoleAdmin}, id)
	}))
}

func (s *PhotoService) ListAll(ctx context.Context, limit int) ([]photodomain.Photo, error) {
	type listResult = results.OperationResult[[]photodomain.Photo, error]
	return results.Unwrap(operation.Run(s.telemetry, ctx, "ListAll", "", func(ctx context.Context) (listResult, error) {
		views, err := s.repo.ListPhotos(ctx, nil, photodb.ListFilter{
			IncludeHidden: true,
			Limit:         clampLimit(limit),
		})
		if err != nil {
			return listResult{}, err
		}
		return results.SuccessResult[[]photodomain.Photo, error](s.withAuthors(ctx, views)), nil
	}))
}

func (s *PhotoService) CountPhotos(ctx context.Context) (int, int, error) {
	return s.repo.CountPhotos(ctx, nil)
}

// load fetches a photo as actor sees it. Hidden photos only exist for admins.
func (s *PhotoService) load(ctx context.Context, actor authdomain.Actor, id uuid.UUID) (photoResult, error) {
	view, err := s.repo.GetPhoto(ctx, nil, id, actor.UserID)
	if errors.Is(err, photodb.ErrNotFound) {
		return results.FailureResult[*photodomain.Photo](photodomain.ErrPhotoNotFound), nil
	}
	if err != nil {
		return photoResult{}, err
	}
	if view.Hidden && !actor.IsAdmin() {
		return results.FailureResult[*photodomain.Photo](photodomain.ErrPhotoNotFound), nil
	}
	photos := s.withAuthors(ctx, []photodb.PhotoView{*view})
	return results.SuccessResult[*photodomain.Photo, error](&photos[0]), nil
}

func (s *PhotoService) checkVisible(ctx context.Context, actor authdomain.Actor, id uuid.UUID) (*error, error) {
	res, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return res.Failure, nil
}

// withAuthors converts rows and fills author names on a best effort basis.
func (s *PhotoService) withAuthors(ctx context.Context, views []photodb.PhotoView) []photodomain.Photo {
	photos := make([]photodomain.Photo, 0, len(views))
	if len(views) == 0 {
		return photos
	}
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, v := range views {
		if !seen[v.UserID] {
			seen[v.UserID] = true
			ids = append(ids, v.UserID)
		}
	}
	names := map[uuid.UUID]string{}
	if s.users != nil {
		resolved, err := s.users.DisplayNames(ctx, ids)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to resolve display names", attr.Error(err))
		} else {
			names = resolved
		}
	}
	for i := range views {
		p := views[i].ToDomain()
		p.AuthorName = names[p.UserID]
		photos = append(photos, p)
	}
	return photos
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultFeedLimit
	}
	if limit > maxFeedLimit {
		return maxFeedLimit
	}
	return limit
}

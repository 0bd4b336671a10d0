package adminservice

import (
	"context"
	"log/slog"
	"time"

	admindomain "github.com/Black-And-White-Club/party-companion/app/modules/admin/domain"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/operation"
	"github.com/Black-And-White-Club/party-companion/app/shared/results"
	"go.opentelemetry.io/otel/trace"
)

const (
	exportUserPage = 500
	exportRowLimit = 10000
)

// AdminService implements the Service interface.
type AdminService struct {
	users      UserSource
	scores     ScoreSource
	photos     PhotoSource
	molkky     MolkkySource
	icebreaker IcebreakerSource
	logger     *slog.Logger
	telemetry  operation.Telemetry
	now        func() time.Time
}

// Sources groups the module services the dashboard aggregates.
type Sources struct {
	Users      UserSource
	Scores     ScoreSource
	Photos     PhotoSource
	Molkky     MolkkySource
	Icebreaker IcebreakerSource
}

// NewAdminService creates a new AdminService.
func NewAdminService(sources Sources, logger *slog.Logger, metrics observability.ServiceMetrics, tracer trace.Tracer) *AdminService {
	return &AdminService{
		users:      sources.Users,
		scores:     sources.Scores,
		photos:     sources.Photos,
		molkky:     sources.Molkky,
		icebreaker: sources.Icebreaker,
		logger:     logger,
		telemetry: operation.Telemetry{
			Service: "AdminService",
			Logger:  logger,
			Metrics: metrics,
			Tracer:  tracer,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *AdminService) Overview(ctx context.Context) (*admindomain.Overview, error) {
	type overviewResult = results.OperationResult[*admindomain.Overview, error]
	return results.Unwrap(operation.Run(s.telemetry, ctx, "Overview", "", func(ctx context.Context) (overviewResult, error) {
		out := &admindomain.Overview{
			MolkkyGames: map[string]int{},
			GeneratedAt: s.now(),
		}

		var err error
		if out.Users, err = s.users.CountUsers(ctx); err != nil {
			return overviewResult{}, err
		}
		if out.Scores, err = s.scores.CountScores(ctx); err != nil {
			return overviewResult{}, err
		}
		if out.Photos.Visible, out.Photos.Hidden, err = s.photos.CountPhotos(ctx); err != nil {
			return overviewResult{}, err
		}

		byStatus, err := s.molkky.CountGamesByStatus(ctx)
		if err != nil {
			return overviewResult{}, err
		}
		for status, n := range byStatus {
			out.MolkkyGames[string(status)] = n
		}

		status, err := s.icebreaker.Status(ctx)
		if err != nil {
			return overviewResult{}, err
		}
		out.Icebreaker = admindomain.IcebreakerOverview{
			Enabled:     status.Enabled,
			Assignments: status.Assignments,
			Answers:     status.Answers,
		}

		return results.SuccessResult[*admindomain.Overview, error](out), nil
	}))
}

func (s *AdminService) Export(ctx context.Context) ([]byte, error) {
	type exportResult = results.OperationResult[[]byte, error]
	return results.Unwrap(operation.Run(s.telemetry, ctx, "Export", "", func(ctx context.Context) (exportResult, error) {
		data, err := s.collectExport(ctx)
		if err != nil {
			return exportResult{}, err
		}
		buf, err := buildWorkbook(data)
		if err != nil {
			return exportResult{}, err
		}
		s.logger.InfoContext(ctx, "Admin export generated",
			attr.Int("users", len(data.users)),
			attr.Int("scores", len(data.scores)),
			attr.Int("molkky_games", len(data.games)),
			attr.Int("bytes", len(buf)),
		)
		return results.SuccessResult[[]byte, error](buf), nil
	}))
}

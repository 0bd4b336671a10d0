package adminservice

import (
	"context"

	admindomain "github.com/Black-And-White-Club/party-companion/app/modules/admin/domain"
	icebreakerdomain "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/domain"
	molkkydomain "github.com/Black-And-White-Club/party-companion/app/modules/molkky/domain"
	scoredomain "github.com/Black-And-White-Club/party-companion/app/modules/score/domain"
	userdomain "github.com/Black-And-White-Club/party-companion/app/modules/user/domain"
)

// Service builds the admin dashboard views.
type Service interface {
	Overview(ctx context.Context) (*admindomain.Overview, error)
	// Export renders users, scores and Mölkky games as an XLSX workbook.
	Export(ctx context.Context) ([]byte, error)
}

// The sources below are the narrow slices of other modules the dashboard reads.

type UserSource interface {
	CountUsers(ctx context.Context) (int, error)
	ListUsers(ctx context.Context, limit, offset int) ([]userdomain.User, error)
}

type ScoreSource interface {
	CountScores(ctx context.Context) (int, error)
	ListScores(ctx context.Context, gameSlug string, limit int) ([]scoredomain.Score, error)
}

type PhotoSource interface {
	CountPhotos(ctx context.Context) (visible int, hidden int, err error)
}

type MolkkySource interface {
	CountGamesByStatus(ctx context.Context) (map[molkkydomain.GameStatus]int, error)
	ListGames(ctx context.Context, status *molkkydomain.GameStatus, limit int) ([]molkkydomain.Game, error)
}

type IcebreakerSource interface {
	Status(ctx context.Context) (*icebreakerdomain.Status, error)
}

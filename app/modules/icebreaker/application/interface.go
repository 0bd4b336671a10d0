package icebreakerservice

import (
	"context"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	icebreakerdomain "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/domain"
	"github.com/google/uuid"
)

// Service deals icebreaker cards and records who matched which question.
type Service interface {
	// GetMyCard returns the caller's card, dealing one on the first call.
	GetMyCard(ctx context.Context, actor authdomain.Actor) (*icebreakerdomain.MyCard, error)
	AnswerQuestion(ctx context.Context, actor authdomain.Actor, questionNumber int, answeredUserID uuid.UUID) (*icebreakerdomain.MyCard, error)
	ClearAnswer(ctx context.Context, actor authdomain.Actor, questionNumber int) (*icebreakerdomain.MyCard, error)
	ListMyAnswers(ctx context.Context, actor authdomain.Actor) ([]icebreakerdomain.Answer, error)
	Leaderboard(ctx context.Context, limit int) ([]icebreakerdomain.LeaderboardEntry, error)

	IsEnabled(ctx context.Context) (bool, error)
	SetEnabled(ctx context.Context, enabled bool) (*icebreakerdomain.Status, error)
	// ResetAll deletes every assignment and answer so dealing restarts at the first card.
	ResetAll(ctx context.Context) (*icebreakerdomain.Status, error)
	Status(ctx context.Context) (*icebreakerdomain.Status, error)
}

// UserDirectory resolves user ids to display names. Unknown ids are omitted.
type UserDirectory interface {
	DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

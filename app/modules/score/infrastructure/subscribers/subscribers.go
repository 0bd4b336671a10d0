package scoresubscribers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/party-companion/app/eventbus"
	molkkydomain "github.com/Black-And-White-Club/party-companion/app/modules/molkky/domain"
	userdomain "github.com/Black-And-White-Club/party-companion/app/modules/user/domain"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// ScoreKeeper is the part of the score service driven by events.
type ScoreKeeper interface {
	RecordMolkkyWin(ctx context.Context, userID uuid.UUID) error
	RebuildLeaderboards(ctx context.Context) error
}

// Subscribers wires score handlers to domain events.
type Subscribers struct {
	eventBus eventbus.EventBus
	keeper   ScoreKeeper
	logger   *slog.Logger
}

// NewSubscribers creates a new Subscribers instance.
func NewSubscribers(eventBus eventbus.EventBus, keeper ScoreKeeper, logger *slog.Logger) *Subscribers {
	return &Subscribers{
		eventBus: eventBus,
		keeper:   keeper,
		logger:   logger,
	}
}

// Subscribe starts consuming the events the score module reacts to.
func (s *Subscribers) Subscribe(ctx context.Context) error {
	s.logger.DebugContext(ctx, "Subscribing to score events")
	if err := s.eventBus.Subscribe(ctx, molkkydomain.GameCompletedV1, s.HandleGameCompleted); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", molkkydomain.GameCompletedV1, err)
	}
	if err := s.eventBus.Subscribe(ctx, userdomain.UserDeletedV1, s.HandleUserDeleted); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", userdomain.UserDeletedV1, err)
	}
	return nil
}

// HandleGameCompleted records one win for the game's winner. A malformed
// payload is dropped since a retry cannot fix it.
func (s *Subscribers) HandleGameCompleted(ctx context.Context, msg *message.Message) error {
	var payload molkkydomain.GameCompletedPayloadV1
	if err := eventbus.Decode(msg, &payload); err != nil {
		s.logger.ErrorContext(ctx, "Dropping malformed game completed event",
			attr.String("message_id", msg.UUID),
			attr.Error(err),
		)
		return nil
	}
	if payload.WinnerUserID == uuid.Nil {
		s.logger.WarnContext(ctx, "Game completed event has no winner", attr.UUID("game_id", payload.GameID))
		return nil
	}

	if err := s.keeper.RecordMolkkyWin(ctx, payload.WinnerUserID); err != nil {
		return fmt.Errorf("failed to record win for game %s: %w", payload.GameID, err)
	}
	s.logger.InfoContext(ctx, "Recorded Mölkky win",
		attr.UUID("game_id", payload.GameID),
		attr.UUID("user_id", payload.WinnerUserID),
	)
	return nil
}

// HandleUserDeleted rebuilds cached leaderboards so the deleted user's
// cascaded scores stop showing.
func (s *Subscribers) HandleUserDeleted(ctx context.Context, msg *message.Message) error {
	var payload userdomain.UserDeletedPayloadV1
	if err := eventbus.Decode(msg, &payload); err != nil {
		s.logger.ErrorContext(ctx, "Dropping malformed user deleted event",
			attr.String("message_id", msg.UUID),
			attr.Error(err),
		)
		return nil
	}
	if err := s.keeper.RebuildLeaderboards(ctx); err != nil {
		return fmt.Errorf("failed to rebuild leaderboards after deleting user %s: %w", payload.UserID, err)
	}
	s.logger.InfoContext(ctx, "Rebuilt leaderboards after user deletion", attr.UUID("user_id", payload.UserID))
	return nil
}

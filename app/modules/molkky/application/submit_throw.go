package molkkyservice

import (
	"context"
	"errors"

	"github.com/Black-And-White-Club/party-companion/app/eventbus"
	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	molkkydomain "github.com/Black-And-White-Club/party-companion/app/modules/molkky/domain"
	molkkydb "github.com/Black-And-White-Club/party-companion/app/modules/molkky/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/operation"
	"github.com/Black-And-White-Club/party-companion/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type throwResult = results.OperationResult[*molkkydomain.ThrowResult, error]

// SubmitThrow validates the input, then resolves the throw inside one
// transaction holding the game row lock. A sequence collision rolls the
// transaction back and the whole unit is retried.
func (s *MolkkyService) SubmitThrow(ctx context.Context, actor authdomain.Actor, req SubmitThrowRequest) (*molkkydomain.ThrowResult, error) {
	in := molkkydomain.ThrowInput{PinsHit: req.PinsHit, PinNumber: req.PinNumber}

	result, err := results.Unwrap(operation.Run(s.telemetry, ctx, "SubmitThrow", req.GameID.String(), func(ctx context.Context) (throwResult, error) {
		if err := molkkydomain.ValidateThrow(in); err != nil {
			return results.FailureResult[*molkkydomain.ThrowResult](err), nil
		}

		var lastErr error
		for attempt := 1; attempt <= maxThrowAttempts; attempt++ {
			res, err := operation.InTx(ctx, s.db, func(ctx context.Context, tx bun.IDB) (throwResult, error) {
				return s.resolveThrow(ctx, tx, actor, req, in)
			})
			if errors.Is(err, molkkydb.ErrSequenceConflict) {
				lastErr = err
				s.logger.WarnContext(ctx, "Throw sequence collision, retrying",
					attr.UUID("game_id", req.GameID),
					attr.Int("attempt", attempt),
				)
				continue
			}
			return res, err
		}
		return throwResult{}, lastErr
	}))
	if err != nil {
		return nil, err
	}

	s.recordThrow(ctx, result)
	if result.IsGameWon {
		s.publishGameCompleted(ctx, result)
	}
	return result, nil
}

func (s *MolkkyService) resolveThrow(
	ctx context.Context,
	tx bun.IDB,
	actor authdomain.Actor,
	req SubmitThrowRequest,
	in molkkydomain.ThrowInput,
) (throwResult, error) {
	game, err := s.repo.GetGameForUpdate(ctx, tx, req.GameID)
	if err != nil {
		if errors.Is(err, molkkydb.ErrNotFound) {
			return results.FailureResult[*molkkydomain.ThrowResult](molkkydomain.ErrGameNotFound), nil
		}
		return throwResult{}, err
	}

	player, err := s.repo.GetPlayer(ctx, tx, game.ID, req.PlayerID)
	if err != nil {
		if errors.Is(err, molkkydb.ErrNotFound) {
			return results.FailureResult[*molkkydomain.ThrowResult](molkkydomain.ErrPlayerNotFound), nil
		}
		return throwResult{}, err
	}

	players, err := s.repo.ListPlayers(ctx, tx, game.ID)
	if err != nil {
		return throwResult{}, err
	}
	if !actor.IsAdmin() && !isParticipant(players, actor.UserID) {
		return results.FailureResult[*molkkydomain.ThrowResult](molkkydomain.ErrNotParticipant), nil
	}

	if game.Status != molkkydomain.GameStatusOngoing {
		return results.FailureResult[*molkkydomain.ThrowResult](molkkydomain.ErrGameNotOngoing), nil
	}

	outcome, err := molkkydomain.ResolveThrow(player.ToDomain().State(), in)
	if err != nil {
		return results.FailureResult[*molkkydomain.ThrowResult](err), nil
	}

	seq, err := s.repo.ClaimThrowSequence(ctx, tx, game.ID)
	if err != nil {
		return throwResult{}, err
	}
	game.LastSequence = seq

	now := s.now()
	throw := &molkkydb.Throw{
		ID:          uuid.New(),
		GameID:      game.ID,
		PlayerID:    player.ID,
		Sequence:    seq,
		PinsHit:     in.PinsHit,
		Points:      outcome.Points,
		ScoreBefore: outcome.ScoreBefore,
		ScoreAfter:  outcome.ScoreAfter,
		IsMiss:      outcome.IsMiss,
		IsPenalty:   outcome.IsPenalty,
		CreatedAt:   now,
	}
	if in.PinsHit == 1 {
		pin := *in.PinNumber
		throw.PinNumber = &pin
	}
	if err := s.repo.InsertThrow(ctx, tx, throw); err != nil {
		return throwResult{}, err
	}

	player.Score = outcome.ScoreAfter
	player.MissCount = outcome.MissCount
	player.Eliminated = outcome.Eliminated
	if err := s.repo.UpdatePlayerState(ctx, tx, player); err != nil {
		return throwResult{}, err
	}
	for i := range players {
		if players[i].ID == player.ID {
			players[i] = *player
		}
	}

	if outcome.IsWin {
		winner := player.UserID
		game.Status = molkkydomain.GameStatusCompleted
		game.WinnerID = &winner
		game.EndedAt = &now
		if err := s.repo.UpdateGame(ctx, tx, game); err != nil {
			return throwResult{}, err
		}
	}

	return results.SuccessResult[*molkkydomain.ThrowResult, error](&molkkydomain.ThrowResult{
		Throw:              throw.ToDomain(),
		Game:               *buildSnapshot(game, players, seq),
		IsGameWon:          outcome.IsWin,
		IsPlayerEliminated: outcome.Eliminated,
	}), nil
}

func isParticipant(players []molkkydb.Player, userID uuid.UUID) bool {
	for _, p := range players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

func (s *MolkkyService) recordThrow(ctx context.Context, result *molkkydomain.ThrowResult) {
	outcome := "score"
	switch {
	case result.IsGameWon:
		outcome = "win"
	case result.Throw.IsPenalty:
		outcome = "penalty"
	case result.IsPlayerEliminated:
		outcome = "eliminated"
	case result.Throw.IsMiss:
		outcome = "miss"
	}
	s.throws.RecordThrow(ctx, outcome)
}

// publishGameCompleted runs after commit. A publish failure is logged and does
// not undo the win.
func (s *MolkkyService) publishGameCompleted(ctx context.Context, result *molkkydomain.ThrowResult) {
	if s.eventBus == nil || result.Game.Game.WinnerID == nil || result.Game.Game.EndedAt == nil {
		return
	}
	payload := molkkydomain.GameCompletedPayloadV1{
		GameID:       result.Game.Game.ID,
		WinnerUserID: *result.Game.Game.WinnerID,
		WinnerPlayer: result.Throw.PlayerID,
		EndedAt:      *result.Game.Game.EndedAt,
	}
	msg, err := eventbus.NewMessage(payload)
	if err == nil {
		err = s.eventBus.Publish(ctx, molkkydomain.GameCompletedV1, msg)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish game completed event",
			attr.UUID("game_id", payload.GameID),
			attr.Error(err),
		)
	}
}

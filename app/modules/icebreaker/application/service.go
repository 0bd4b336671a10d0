package icebreakerservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	icebreakerdomain "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/domain"
	icebreakerdb "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/infrastructure/repositories"
	icebreakertoggle "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/infrastructure/toggle"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/operation"
	"github.com/Black-And-White-Club/party-companion/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 200
)

// IcebreakerService implements the Service interface.
type IcebreakerService struct {
	repo      icebreakerdb.Repository
	deck      *icebreakerdomain.Deck
	toggle    icebreakertoggle.Store
	users     UserDirectory
	logger    *slog.Logger
	telemetry operation.Telemetry
	db        *bun.DB
	now       func() time.Time
}

// NewIcebreakerService creates a new IcebreakerService.
func NewIcebreakerService(
	repo icebreakerdb.Repository,
	deck *icebreakerdomain.Deck,
	toggle icebreakertoggle.Store,
	users UserDirectory,
	logger *slog.Logger,
	metrics observability.ServiceMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *IcebreakerService {
	return &IcebreakerService{
		repo:   repo,
		deck:   deck,
		toggle: toggle,
		users:  users,
		logger: logger,
		telemetry: operation.Telemetry{
			Service: "IcebreakerService",
			Logger:  logger,
			Metrics: metrics,
			Tracer:  tracer,
		},
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

type cardResult = results.OperationResult[*icebreakerdomain.MyCard, error]

func (s *IcebreakerService) GetMyCard(ctx context.Context, actor authdomain.Actor) (*icebreakerdomain.MyCard, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "GetMyCard", actor.UserID.String(), func(ctx context.Context) (cardResult, error) {
		if failure, err := s.checkEnabled(ctx); failure != nil || err != nil {
			return cardResult{Failure: failure}, err
		}
		return operation.InTx(ctx, s.db, func(ctx context.Context, tx bun.IDB) (cardResult, error) {
			assignment, err := s.ensureAssignment(ctx, tx, actor.UserID)
			if err != nil {
				return cardResult{}, err
			}
			card, err := s.loadCard(ctx, tx, assignment)
			if err != nil {
				return cardResult{}, err
			}
			return results.SuccessResult[*icebreakerdomain.MyCard, error](card), nil
		})
	}))
}

func (s *IcebreakerService) AnswerQuestion(ctx context.Context, actor authdomain.Actor, questionNumber int, answeredUserID uuid.UUID) (*icebreakerdomain.MyCard, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "AnswerQuestion", actor.UserID.String(), func(ctx context.Context) (cardResult, error) {
		if failure, err := s.checkEnabled(ctx); failure != nil || err != nil {
			return cardResult{Failure: failure}, err
		}
		if answeredUserID == actor.UserID {
			return results.FailureResult[*icebreakerdomain.MyCard](icebreakerdomain.ErrSelfAnswer), nil
		}
		if s.users != nil {
			names, err := s.users.DisplayNames(ctx, []uuid.UUID{answeredUserID})
			if err != nil {
				return cardResult{}, err
			}
			if _, ok := names[answeredUserID]; !ok {
				return results.FailureResult[*icebreakerdomain.MyCard](icebreakerdomain.ErrUnknownUser), nil
			}
		}

		return operation.InTx(ctx, s.db, func(ctx context.Context, tx bun.IDB) (cardResult, error) {
			assignment, err := s.ensureAssignment(ctx, tx, actor.UserID)
			if err != nil {
				return cardResult{}, err
			}
			card, ok := s.deck.Card(assignment.CardID)
			if !ok {
				return cardResult{}, fmt.Errorf("card %q is not in the pool", assignment.CardID)
			}
			if !card.HasQuestion(questionNumber) {
				return results.FailureResult[*icebreakerdomain.MyCard](
					fmt.Errorf("%w: %d", icebreakerdomain.ErrUnknownQuestion, questionNumber),
				), nil
			}

			now := s.now()
			err = s.repo.UpsertAnswer(ctx, tx, &icebreakerdb.Answer{
				AssignmentID:   assignment.ID,
				QuestionNumber: questionNumber,
				AnsweredUserID: answeredUserID,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
			switch {
			case errors.Is(err, icebreakerdb.ErrPersonAlreadyUsed):
				return results.FailureResult[*icebreakerdomain.MyCard](icebreakerdomain.ErrPersonAlreadyUsed), nil
			case errors.Is(err, icebreakerdb.ErrUnknownUser):
				return results.FailureResult[*icebreakerdomain.MyCard](icebreakerdomain.ErrUnknownUser), nil
			case err != nil:
				return cardResult{}, err
			}

			myCard, err := s.loadCard(ctx, tx, assignment)
			if err != nil {
				return cardResult{}, err
			}
			return results.SuccessResult[*icebreakerdomain.MyCard, error](myCard), nil
		})
	}))
}

func (s *IcebreakerService) ClearAnswer(ctx context.Context, actor authdomain.Actor, questionNumber int) (*icebreakerdomain.MyCard, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "ClearAnswer", actor.UserID.String(), func(ctx context.Context) (cardResult, error) {
		if failure, err := s.checkEnabled(ctx); failure != nil || err != nil {
			return cardResult{Failure: failure}, err
		}
		assignment, err := s.repo.GetAssignment(ctx, nil, actor.UserID)
		if err != nil {
			if errors.Is(err, icebreakerdb.ErrNotFound) {
				return results.FailureResult[*icebreakerdomain.MyCard](icebreakerdomain.ErrAnswerNotFound), nil
			}
			return cardResult{}, err
		}
		if err := s.repo.DeleteAnswer(ctx, nil, assignment.ID, questionNumber); err != nil {
			if errors.Is(err, icebreakerdb.ErrNotFound) {
				return results.FailureResult[*icebreakerdomain.MyCard](icebreakerdomain.ErrAnswerNotFound), nil
			}
			return cardResult{}, err
		}
		card, err := s.loadCard(ctx, nil, assignment)
		if err != nil {
			return cardResult{}, err
		}
		return results.SuccessResult[*icebreakerdomain.MyCard, error](card), nil
	}))
}

func (s *IcebreakerService) ListMyAnswers(ctx context.Context, actor authdomain.Actor) ([]icebreakerdomain.Answer, error) {
	type answersResult = results.OperationResult[[]icebreakerdomain.Answer, error]
	return results.Unwrap(operation.Run(s.telemetry, ctx, "ListMyAnswers", actor.UserID.String(), func(ctx context.Context) (answersResult, error) {
		if failure, err := s.checkEnabled(ctx); failure != nil || err != nil {
			return answersResult{Failure: failure}, err
		}
		assignment, err := s.repo.GetAssignment(ctx, nil, actor.UserID)
		if err != nil {
			if errors.Is(err, icebreakerdb.ErrNotFound) {
				return results.SuccessResult[[]icebreakerdomain.Answer, error]([]icebreakerdomain.Answer{}), nil
			}
			return answersResult{}, err
		}
		answers, err := s.loadAnswers(ctx, nil, assignment.ID)
		if err != nil {
			return answersResult{}, err
		}
		return results.SuccessResult[[]icebreakerdomain.Answer, error](answers), nil
	}))
}

func (s *IcebreakerService) Leaderboard(ctx context.Context, limit int) ([]icebreakerdomain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	limit = min(limit, maxLeaderboardLimit)

	type boardResult = results.OperationResult[[]icebreakerdomain.LeaderboardEntry, error]
	return results.Unwrap(operation.Run(s.telemetry, ctx, "Leaderboard", "", func(ctx context.Context) (boardResult, error) {
		if failure, err := s.checkEnabled(ctx); failure != nil || err != nil {
			return boardResult{Failure: failure}, err
		}
		rows, err := s.repo.Progress(ctx, nil, limit)
		if err != nil {
			return boardResult{}, err
		}

		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.UserID)
		}
		names := s.displayNames(ctx, ids)

		entries := make([]icebreakerdomain.LeaderboardEntry, 0, len(rows))
		for i, row := range rows {
			rank := i + 1
			if i > 0 && row.Answered == rows[i-1].Answered {
				rank = entries[i-1].Rank
			}
			total := 0
			if card, ok := s.deck.Card(row.CardID); ok {
				total = len(card.Questions)
			}
			entries = append(entries, icebreakerdomain.LeaderboardEntry{
				Rank:        rank,
				UserID:      row.UserID,
				DisplayName: names[row.UserID],
				Answered:    row.Answered,
				Total:       total,
			})
		}
		return results.SuccessResult[[]icebreakerdomain.LeaderboardEntry, error](entries), nil
	}))
}

func (s *IcebreakerService) IsEnabled(ctx context.Context) (bool, error) {
	return s.toggle.Enabled(ctx)
}

type statusResult = results.OperationResult[*icebreakerdomain.Status, error]

func (s *IcebreakerService) SetEnabled(ctx context.Context, enabled bool) (*icebreakerdomain.Status, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "SetEnabled", fmt.Sprint(enabled), func(ctx context.Context) (statusResult, error) {
		if err := s.toggle.SetEnabled(ctx, enabled); err != nil {
			return statusResult{}, err
		}
		s.logger.InfoContext(ctx, "Icebreaker toggled",
			attr.Bool("enabled", enabled),
			attr.Bool("persistent", s.toggle.Persistent()),
		)
		return s.status(ctx)
	}))
}

func (s *IcebreakerService) ResetAll(ctx context.Context) (*icebreakerdomain.Status, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "ResetAll", "", func(ctx context.Context) (statusResult, error) {
		result, err := operation.InTx(ctx, s.db, func(ctx context.Context, tx bun.IDB) (statusResult, error) {
			if err := s.repo.LockDealer(ctx, tx); err != nil {
				return statusResult{}, err
			}
			if err := s.repo.ResetAll(ctx, tx); err != nil {
				return statusResult{}, err
			}
			return results.SuccessResult[*icebreakerdomain.Status, error](nil), nil
		})
		if err != nil {
			return result, err
		}
		s.logger.InfoContext(ctx, "Icebreaker reset")
		return s.status(ctx)
	}))
}

func (s *IcebreakerService) Status(ctx context.Context) (*icebreakerdomain.Status, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "Status", "", func(ctx context.Context) (statusResult, error) {
		return s.status(ctx)
	}))
}

func (s *IcebreakerService) status(ctx context.Context) (statusResult, error) {
	enabled, err := s.toggle.Enabled(ctx)
	if err != nil {
		return statusResult{}, err
	}
	assignments, err := s.repo.CountAssignments(ctx, nil)
	if err != nil {
		return statusResult{}, err
	}
	answers, err := s.repo.CountAnswers(ctx, nil)
	if err != nil {
		return statusResult{}, err
	}
	return results.SuccessResult[*icebreakerdomain.Status, error](&icebreakerdomain.Status{
		Enabled:     enabled,
		Assignments: assignments,
		Answers:     answers,
	}), nil
}

// checkEnabled returns ErrIcebreakerDisabled as a failure when the game is closed.
func (s *IcebreakerService) checkEnabled(ctx context.Context) (*error, error) {
	enabled, err := s.toggle.Enabled(ctx)
	if err != nil {
		return nil, err
	}
	if !enabled {
		failure := icebreakerdomain.ErrIcebreakerDisabled
		return &failure, nil
	}
	return nil, nil
}

// ensureAssignment returns the user's assignment, dealing the next card under
// the dealer lock when the user has none.
func (s *IcebreakerService) ensureAssignment(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*icebreakerdb.Assignment, error) {
	existing, err := s.repo.GetAssignment(ctx, tx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, icebreakerdb.ErrNotFound) {
		return nil, err
	}

	if err := s.repo.LockDealer(ctx, tx); err != nil {
		return nil, err
	}
	// Another request for the same user may have dealt while we waited.
	existing, err = s.repo.GetAssignment(ctx, tx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, icebreakerdb.ErrNotFound) {
		return nil, err
	}

	dealt, err := s.repo.ClaimDeal(ctx, tx)
	if err != nil {
		return nil, err
	}
	position := icebreakerdomain.PositionFor(dealt, s.deck.Size())
	assignment := &icebreakerdb.Assignment{
		ID:        uuid.New(),
		UserID:    userID,
		CardID:    s.deck.At(position).ID,
		Position:  position,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateAssignment(ctx, tx, assignment); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Dealt icebreaker card",
		attr.UUID("user_id", userID),
		attr.String("card_id", assignment.CardID),
		attr.Int("position", position),
	)
	return assignment, nil
}

func (s *IcebreakerService) loadCard(ctx context.Context, db bun.IDB, assignment *icebreakerdb.Assignment) (*icebreakerdomain.MyCard, error) {
	card, ok := s.deck.Card(assignment.CardID)
	if !ok {
		return nil, fmt.Errorf("card %q is not in the pool", assignment.CardID)
	}
	answers, err := s.loadAnswers(ctx, db, assignment.ID)
	if err != nil {
		return nil, err
	}
	return &icebreakerdomain.MyCard{
		Assignment: assignment.ToDomain(),
		Card:       card,
		Answers:    answers,
	}, nil
}

func (s *IcebreakerService) loadAnswers(ctx context.Context, db bun.IDB, assignmentID uuid.UUID) ([]icebreakerdomain.Answer, error) {
	rows, err := s.repo.ListAnswers(ctx, db, assignmentID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].AnsweredUserID)
	}
	names := s.displayNames(ctx, ids)

	answers := make([]icebreakerdomain.Answer, 0, len(rows))
	for i := range rows {
		a := rows[i].ToDomain()
		a.AnsweredName = names[a.AnsweredUserID]
		answers = append(answers, a)
	}
	return answers, nil
}

// displayNames is best effort; a lookup failure leaves names blank.
func (s *IcebreakerService) displayNames(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]string {
	if s.users == nil || len(ids) == 0 {
		return map[uuid.UUID]string{}
	}
	names, err := s.users.DisplayNames(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to resolve display names", attr.Error(err))
		return map[uuid.UUID]string{}
	}
	return names
}

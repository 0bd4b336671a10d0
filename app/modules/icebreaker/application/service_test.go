package icebreakerservice

import (
	"context"
	"errors"
	"testing"
	"time"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	icebreakerdomain "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/domain"
	icebreakerdb "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/infrastructure/repositories"
	icebreakertoggle "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/infrastructure/toggle"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

const testDeck = `
cards:
  - id: red
    questions: ["Has a dog", "Speaks three languages", "Ran a marathon"]
  - id: blue
    questions: ["Plays guitar", "Was born abroad"]
  - id: green
    questions: ["Has met a celebrity"]
`

type fakeDirectory map[uuid.UUID]string

func (f fakeDirectory) DisplayNames(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := map[uuid.UUID]string{}
	for _, id := range ids {
		if name, ok := f[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

type harness struct {
	svc    *IcebreakerService
	repo   *icebreakerdb.FakeRepository
	toggle *icebreakertoggle.MemoryStore
	users  fakeDirectory
}

func newHarness(t *testing.T, userCount int) (*harness, []uuid.UUID) {
	t.Helper()
	deck, err := icebreakerdomain.ParseDeck([]byte(testDeck))
	require.NoError(t, err)

	repo := icebreakerdb.NewFakeRepository()
	users := fakeDirectory{}
	ids := make([]uuid.UUID, userCount)
	for i := range ids {
		ids[i] = uuid.New()
		users[ids[i]] = "Guest " + string(rune('A'+i))
	}
	repo.AddUsers(ids...)

	toggle := icebreakertoggle.NewMemoryStore(true)
	obs := observability.NewNoopObservability()
	svc := NewIcebreakerService(repo, deck, toggle, users, obs.Logger, obs.Metrics, noop.NewTracerProvider().Tracer("test"), nil)

	clock := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return &harness{svc: svc, repo: repo, toggle: toggle, users: users}, ids
}

func actor(id uuid.UUID) authdomain.Actor {
	return authdomain.Actor{UserID: id, Role: authdomain.RolePlayer}
}

func TestGetMyCard_DealsRoundRobin(t *testing.T) {
	h, ids := newHarness(t, 5)
	ctx := context.Background()

	var got []string
	for _, id := range ids {
		card, err := h.svc.GetMyCard(ctx, actor(id))
		require.NoError(t, err)
		got = append(got, card.Card.ID)
		assert.Equal(t, card.Card.ID, card.Assignment.CardID)
	}
	assert.Equal(t, []string{"red", "blue", "green", "red", "blue"}, got)
	assert.Equal(t, 5, h.repo.DealerLocks())

	again, err := h.svc.GetMyCard(ctx, actor(ids[1]))
	require.NoError(t, err)
	assert.Equal(t, "blue", again.Card.ID, "assignment is never reassigned")
	assert.Equal(t, 1, again.Assignment.Position)
	assert.Equal(t, 5, h.repo.DealerLocks(), "an existing card needs no lock")
}

func TestGetMyCard_RoundRobinSurvivesRemovedAssignment(t *testing.T) {
	h, ids := newHarness(t, 5)
	ctx := context.Background()

	for _, id := range ids[:3] {
		_, err := h.svc.GetMyCard(ctx, actor(id))
		require.NoError(t, err)
	}
	h.repo.DropAssignment(ids[0])

	var got []string
	for _, id := range ids[3:] {
		card, err := h.svc.GetMyCard(ctx, actor(id))
		require.NoError(t, err)
		got = append(got, card.Card.ID)
	}
	assert.Equal(t, []string{"red", "blue"}, got)
}

func TestAnswerQuestion(t *testing.T) {
	ctx := context.Background()

	t.Run("credits and re-credits a question", func(t *testing.T) {
		h, ids := newHarness(t, 3)
		me := actor(ids[0])

		card, err := h.svc.AnswerQuestion(ctx, me, 1, ids[1])
		require.NoError(t, err)
		require.Len(t, card.Answers, 1)
		assert.Equal(t, ids[1], card.Answers[0].AnsweredUserID)
		assert.Equal(t, "Guest B", card.Answers[0].AnsweredName)

		card, err = h.svc.AnswerQuestion(ctx, me, 1, ids[2])
		require.NoError(t, err)
		require.Len(t, card.Answers, 1)
		assert.Equal(t, ids[2], card.Answers[0].AnsweredUserID)
	})

	t.Run("person already used on another question", func(t *testing.T) {
		h, ids := newHarness(t, 2)
		me := actor(ids[0])

		_, err := h.svc.AnswerQuestion(ctx, me, 1, ids[1])
		require.NoError(t, err)
		_, err = h.svc.AnswerQuestion(ctx, me, 2, ids[1])
		assert.ErrorIs(t, err, icebreakerdomain.ErrPersonAlreadyUsed)

		answers, err := h.svc.ListMyAnswers(ctx, me)
		require.NoError(t, err)
		assert.Len(t, answers, 1)
	})

	t.Run("same person on the same question again", func(t *testing.T) {
		h, ids := newHarness(t, 2)
		me := actor(ids[0])
		_, err := h.svc.AnswerQuestion(ctx, me, 2, ids[1])
		require.NoError(t, err)
		_, err = h.svc.AnswerQuestion(ctx, me, 2, ids[1])
		assert.NoError(t, err)
	})

	tests := []struct {
		name     string
		question int
		answered func(ids []uuid.UUID) uuid.UUID
		wantErr  error
	}{
		{
			name:     "self answer",
			question: 1,
			answered: func(ids []uuid.UUID) uuid.UUID { return ids[0] },
			wantErr:  icebreakerdomain.ErrSelfAnswer,
		},
		{
			name:     "unknown user",
			question: 1,
			answered: func([]uuid.UUID) uuid.UUID { return uuid.New() },
			wantErr:  icebreakerdomain.ErrUnknownUser,
		},
		{
			name:     "question zero",
			question: 0,
			answered: func(ids []uuid.UUID) uuid.UUID { return ids[1] },
			wantErr:  icebreakerdomain.ErrUnknownQuestion,
		},
		{
			name:     "question past the card",
			question: 4,
			answered: func(ids []uuid.UUID) uuid.UUID { return ids[1] },
			wantErr:  icebreakerdomain.ErrUnknownQuestion,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ids := newHarness(t, 2)
			_, err := h.svc.AnswerQuestion(ctx, actor(ids[0]), tt.question, tt.answered(ids))
			assert.ErrorIs(t, err, tt.wantErr)
			n, _ := h.repo.CountAnswers(ctx, nil)
			assert.Zero(t, n)
		})
	}

	t.Run("foreign key backstop", func(t *testing.T) {
		h, ids := newHarness(t, 2)
		h.repo.UpsertAnswerFunc = func(context.Context, bun.IDB, *icebreakerdb.Answer) error {
			return icebreakerdb.ErrUnknownUser
		}
		_, err := h.svc.AnswerQuestion(ctx, actor(ids[0]), 1, ids[1])
		assert.ErrorIs(t, err, icebreakerdomain.ErrUnknownUser)
	})

	t.Run("store failure is not a domain error", func(t *testing.T) {
		h, ids := newHarness(t, 2)
		h.repo.UpsertAnswerFunc = func(context.Context, bun.IDB, *icebreakerdb.Answer) error {
			return errors.New("connection reset")
		}
		_, err := h.svc.AnswerQuestion(ctx, actor(ids[0]), 1, ids[1])
		require.Error(t, err)
		assert.NotErrorIs(t, err, icebreakerdomain.ErrPersonAlreadyUsed)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestClearAnswer(t *testing.T) {
	h, ids := newHarness(t, 3)
	ctx := context.Background()
	me := actor(ids[0])

	_, err := h.svc.ClearAnswer(ctx, me, 1)
	assert.ErrorIs(t, err, icebreakerdomain.ErrAnswerNotFound, "no card yet")

	_, err = h.svc.AnswerQuestion(ctx, me, 1, ids[1])
	require.NoError(t, err)
	card, err := h.svc.ClearAnswer(ctx, me, 1)
	require.NoError(t, err)
	assert.Empty(t, card.Answers)

	_, err = h.svc.ClearAnswer(ctx, me, 1)
	assert.ErrorIs(t, err, icebreakerdomain.ErrAnswerNotFound)

	// The freed person can be credited on another question.
	_, err = h.svc.AnswerQuestion(ctx, me, 2, ids[1])
	assert.NoError(t, err)
}

func TestListMyAnswers_NoCard(t *testing.T) {
	h, ids := newHarness(t, 1)
	answers, err := h.svc.ListMyAnswers(context.Background(), actor(ids[0]))
	require.NoError(t, err)
	assert.Empty(t, answers)
	n, _ := h.repo.CountAssignments(context.Background(), nil)
	assert.Zero(t, n, "listing answers does not deal a card")
}

func TestLeaderboard(t *testing.T) {
	h, ids := newHarness(t, 4)
	ctx := context.Background()

	// ids[0] holds red (3 questions), ids[1] blue (2), ids[2] green (1).
	for _, id := range ids[:3] {
		_, err := h.svc.GetMyCard(ctx, actor(id))
		require.NoError(t, err)
	}
	_, err := h.svc.AnswerQuestion(ctx, actor(ids[0]), 1, ids[1])
	require.NoError(t, err)
	_, err = h.svc.AnswerQuestion(ctx, actor(ids[0]), 2, ids[2])
	require.NoError(t, err)
	_, err = h.svc.AnswerQuestion(ctx, actor(ids[1]), 1, ids[3])
	require.NoError(t, err)
	_, err = h.svc.AnswerQuestion(ctx, actor(ids[2]), 1, ids[3])
	require.NoError(t, err)

	board, err := h.svc.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 3)

	assert.Equal(t, icebreakerdomain.LeaderboardEntry{Rank: 1, UserID: ids[0], DisplayName: "Guest A", Answered: 2, Total: 3}, board[0])
	assert.Equal(t, 2, board[1].Rank)
	assert.Equal(t, ids[1], board[1].UserID, "ties keep dealing order")
	assert.Equal(t, 2, board[2].Rank)
	assert.Equal(t, 1, board[2].Total)
}

func TestDisabled(t *testing.T) {
	h, ids := newHarness(t, 2)
	ctx := context.Background()
	me := actor(ids[0])

	status, err := h.svc.SetEnabled(ctx, false)
	require.NoError(t, err)
	assert.False(t, status.Enabled)

	calls := map[string]func() error{
		"GetMyCard": func() error { _, err := h.svc.GetMyCard(ctx, me); return err },
		"Answer":    func() error { _, err := h.svc.AnswerQuestion(ctx, me, 1, ids[1]); return err },
		"Clear":     func() error { _, err := h.svc.ClearAnswer(ctx, me, 1); return err },
		"List":      func() error { _, err := h.svc.ListMyAnswers(ctx, me); return err },
		"Board":     func() error { _, err := h.svc.Leaderboard(ctx, 10); return err },
	}
	for name, call := range calls {
		assert.ErrorIs(t, call(), icebreakerdomain.ErrIcebreakerDisabled, name)
	}

	enabled, err := h.svc.IsEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	_, err = h.svc.SetEnabled(ctx, true)
	require.NoError(t, err)
	_, err = h.svc.GetMyCard(ctx, me)
	assert.NoError(t, err)
}

func TestResetAll(t *testing.T) {
	h, ids := newHarness(t, 3)
	ctx := context.Background()

	for _, id := range ids[:2] {
		_, err := h.svc.GetMyCard(ctx, actor(id))
		require.NoError(t, err)
	}
	_, err := h.svc.AnswerQuestion(ctx, actor(ids[0]), 1, ids[2])
	require.NoError(t, err)

	status, err := h.svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, icebreakerdomain.Status{Enabled: true, Assignments: 2, Answers: 1}, *status)

	status, err = h.svc.ResetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, icebreakerdomain.Status{Enabled: true}, *status)

	card, err := h.svc.GetMyCard(ctx, actor(ids[1]))
	require.NoError(t, err)
	assert.Equal(t, "red", card.Card.ID, "dealing restarts at the first card")
}

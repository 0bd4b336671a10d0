//go:build integration

package icebreakerdb_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	icebreakerservice "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/application"
	icebreakerdomain "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/domain"
	icebreakerdb "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/infrastructure/repositories"
	icebreakertoggle "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/infrastructure/toggle"
	userservice "github.com/Black-And-White-Club/party-companion/app/modules/user/application"
	userdb "github.com/Black-And-White-Club/party-companion/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/db/dbtest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

const deckYAML = `
cards:
  - id: red
    questions: ["Has a dog", "Speaks three languages", "Ran a marathon"]
  - id: blue
    questions: ["Plays guitar", "Was born abroad"]
  - id: green
    questions: ["Has met a celebrity"]
`

func newService(t *testing.T, db *bun.DB) *icebreakerservice.IcebreakerService {
	t.Helper()
	deck, err := icebreakerdomain.ParseDeck([]byte(deckYAML))
	require.NoError(t, err)
	obs := observability.NewNoopObservability()
	users := userservice.NewUserService(userdb.NewRepository(db), obs.Logger, obs.Metrics, obs.Tracer("test"), db, nil)
	return icebreakerservice.NewIcebreakerService(
		icebreakerdb.NewRepository(db), deck, icebreakertoggle.NewMemoryStore(true), users,
		obs.Logger, obs.Metrics, obs.Tracer("test"), db,
	)
}

func TestUpsertAnswer_PersonUniquePerCard(t *testing.T) {
	db := dbtest.NewPostgres(t)
	ctx := context.Background()
	repo := icebreakerdb.NewRepository(db)

	owner := dbtest.CreateUser(t, db, "owner")
	ada := dbtest.CreateUser(t, db, "ada")
	bob := dbtest.CreateUser(t, db, "bob")

	assignment := &icebreakerdb.Assignment{ID: uuid.New(), UserID: owner, CardID: "red", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateAssignment(ctx, nil, assignment))

	answer := func(question int, person uuid.UUID) error {
		now := time.Now().UTC()
		return repo.UpsertAnswer(ctx, nil, &icebreakerdb.Answer{
			AssignmentID:   assignment.ID,
			QuestionNumber: question,
			AnsweredUserID: person,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	steps := []struct {
		name     string
		question int
		person   uuid.UUID
		wantErr  error
	}{
		{name: "first credit", question: 1, person: ada},
		{name: "same person on another question", question: 2, person: ada, wantErr: icebreakerdb.ErrPersonAlreadyUsed},
		{name: "re-answer with a new person", question: 1, person: bob},
		{name: "freed person on another question", question: 2, person: ada},
		{name: "re-answer onto a person used elsewhere", question: 1, person: ada, wantErr: icebreakerdb.ErrPersonAlreadyUsed},
		{name: "unknown person", question: 3, person: uuid.New(), wantErr: icebreakerdb.ErrUnknownUser},
	}
	for _, step := range steps {
		err := answer(step.question, step.person)
		if step.wantErr != nil {
			assert.ErrorIs(t, err, step.wantErr, step.name)
			continue
		}
		assert.NoError(t, err, step.name)
	}

	answers, err := repo.ListAnswers(ctx, nil, assignment.ID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, bob, answers[0].AnsweredUserID)
	assert.Equal(t, ada, answers[1].AnsweredUserID)
}

func TestGetMyCard_ConcurrentDealsCoverThePool(t *testing.T) {
	db := dbtest.NewPostgres(t)
	ctx := context.Background()
	svc := newService(t, db)

	const players = 9
	ids := make([]uuid.UUID, players)
	for i := range ids {
		ids[i] = dbtest.CreateUser(t, db, fmt.Sprintf("guest_%d", i))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		positions []int
		cards     = map[string]int{}
	)
	errs := make(chan error, players)
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			card, err := svc.GetMyCard(ctx, authdomain.Actor{UserID: id, Role: authdomain.RolePlayer})
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			positions = append(positions, card.Assignment.Position)
			cards[card.Card.ID]++
			mu.Unlock()
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sort.Ints(positions)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1, 2, 2, 2}, positions)
	assert.Equal(t, map[string]int{"red": 3, "blue": 3, "green": 3}, cards)
}

func TestGetMyCard_DealingContinuesAfterAccountDelete(t *testing.T) {
	db := dbtest.NewPostgres(t)
	ctx := context.Background()
	svc := newService(t, db)
	obs := observability.NewNoopObservability()
	users := userservice.NewUserService(userdb.NewRepository(db), obs.Logger, obs.Metrics, obs.Tracer("test"), db, nil)

	admin := authdomain.Actor{UserID: dbtest.CreateUser(t, db, "admin"), Role: authdomain.RoleAdmin}
	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = dbtest.CreateUser(t, db, fmt.Sprintf("guest_%d", i))
	}

	deal := func(id uuid.UUID) string {
		card, err := svc.GetMyCard(ctx, authdomain.Actor{UserID: id, Role: authdomain.RolePlayer})
		require.NoError(t, err)
		return card.Card.ID
	}

	var got []string
	for _, id := range ids[:3] {
		got = append(got, deal(id))
	}
	require.NoError(t, users.DeleteUser(ctx, admin, ids[0]))
	for _, id := range ids[3:] {
		got = append(got, deal(id))
	}
	assert.Equal(t, []string{"red", "blue", "green", "red", "blue"}, got)

	_, err := svc.ResetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "red", deal(ids[1]))
}

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	authservice "github.com/Black-And-White-Club/party-companion/app/modules/auth/application"
	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	userdomain "github.com/Black-And-White-Club/party-companion/app/modules/user/domain"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/brianvoe/gofakeit/v7"
)

// SeedOptions controls the demo data generator.
type SeedOptions struct {
	Users          int
	ScoresPerUser  int
	PhotosPerUser  int
	Seed           uint64
	PasswordForAll string
}

// SeedResult summarises what Seed created.
type SeedResult struct {
	Users  int
	Scores int
	Photos int
}

// Seed fills a development database with fake guests, scores and photos
// through the regular services so every validation rule applies.
func (app *App) Seed(ctx context.Context, opts SeedOptions) (*SeedResult, error) {
	faker := gofakeit.New(opts.Seed)
	password := opts.PasswordForAll
	if password == "" {
		password = "party-time-123"
	}

	res := &SeedResult{}
	var actors []authdomain.Actor
	for len(actors) < opts.Users {
		username := fakeUsername(faker)
		session, err := app.Modules.Auth.GetService().Signup(ctx, authservice.SignupRequest{
			Username:    username,
			Password:    password,
			DisplayName: faker.FirstName() + " " + faker.LastName()[:1] + ".",
		})
		if errors.Is(err, userdomain.ErrUsernameTaken) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("failed to create user %q: %w", username, err)
		}
		actors = append(actors, authdomain.Actor{UserID: session.User.ID, Role: authdomain.RoleFor(session.User.IsAdmin)})
		res.Users++
	}

	scores := app.Modules.Score.Service()
	games := scores.ListGames(ctx)
	for _, actor := range actors {
		for i := 0; i < opts.ScoresPerUser && len(games) > 0; i++ {
			game := games[faker.Number(0, len(games)-1)]
			value := int64(faker.Number(0, int(min(game.MaxValue, 10000))))
			if _, err := scores.SubmitScore(ctx, actor, game.Slug, value); err != nil {
				return res, fmt.Errorf("failed to submit %s score: %w", game.Slug, err)
			}
			res.Scores++
		}

		for i := 0; i < opts.PhotosPerUser; i++ {
			url := fmt.Sprintf("https://picsum.photos/seed/%s/800/600", faker.UUID())
			caption := faker.Adjective() + " " + faker.Noun()
			if _, err := app.Modules.Photo.Service().PostPhoto(ctx, actor, url, caption); err != nil {
				return res, fmt.Errorf("failed to post photo: %w", err)
			}
			res.Photos++
		}
	}

	app.Logger.InfoContext(ctx, "Seeded demo data",
		attr.Int("users", res.Users),
		attr.Int("scores", res.Scores),
		attr.Int("photos", res.Photos),
	)
	return res, nil
}

// fakeUsername builds a name that satisfies the signup username rules.
func fakeUsername(faker *gofakeit.Faker) string {
	var b strings.Builder
	for _, r := range strings.ToLower(faker.FirstName()) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if len(name) > 12 {
		name = name[:12]
	}
	return name + "_" + faker.Numerify("####")
}

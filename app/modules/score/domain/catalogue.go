package scoredomain

import (
	"errors"
	"fmt"
)

// RankingMode decides how a user's scores collapse into one leaderboard value.
type RankingMode string

const (
	// RankingMax ranks a user's highest score, higher first.
	RankingMax RankingMode = "max"
	// RankingMin ranks a user's lowest score, lower first.
	RankingMin RankingMode = "min"
	// RankingSum ranks the total of a user's scores, higher first.
	RankingSum RankingMode = "sum"
)

func (m RankingMode) IsValid() bool {
	switch m {
	case RankingMax, RankingMin, RankingSum:
		return true
	}
	return false
}

// Ascending reports whether lower values rank first.
func (m RankingMode) Ascending() bool {
	return m == RankingMin
}

// ErrInvalidCatalogue is returned when the mini-game list fails validation.
var ErrInvalidCatalogue = errors.New("invalid mini-game catalogue")

// MiniGame is one entry of the catalogue.
type MiniGame struct {
	Slug        string      `json:"slug"`
	Name        string      `json:"name"`
	RankingMode RankingMode `json:"rankingMode"`
	MaxValue    int64       `json:"maxValue"`
}

// Catalogue is the fixed set of games scores can be submitted for.
type Catalogue struct {
	games  []MiniGame
	bySlug map[string]MiniGame
}

// NewCatalogue validates games and keeps them in the given order.
func NewCatalogue(games []MiniGame) (*Catalogue, error) {
	c := &Catalogue{bySlug: make(map[string]MiniGame, len(games))}
	for _, g := range games {
		if g.Slug == "" {
			return nil, fmt.Errorf("%w: empty slug", ErrInvalidCatalogue)
		}
		if _, dup := c.bySlug[g.Slug]; dup {
			return nil, fmt.Errorf("%w: duplicate slug %q", ErrInvalidCatalogue, g.Slug)
		}
		if !g.RankingMode.IsValid() {
			return nil, fmt.Errorf("%w: game %q has ranking mode %q", ErrInvalidCatalogue, g.Slug, g.RankingMode)
		}
		if g.MaxValue <= 0 {
			return nil, fmt.Errorf("%w: game %q needs a positive max value", ErrInvalidCatalogue, g.Slug)
		}
		if g.Name == "" {
			g.Name = g.Slug
		}
		c.games = append(c.games, g)
		c.bySlug[g.Slug] = g
	}
	return c, nil
}

func (c *Catalogue) Get(slug string) (MiniGame, bool) {
	g, ok := c.bySlug[slug]
	return g, ok
}

func (c *Catalogue) All() []MiniGame {
	out := make([]MiniGame, len(c.games))
	copy(out, c.games)
	return out
}

// Validate checks a submitted value against the game's bounds.
func (g MiniGame) Validate(value int64) error {
	if value < 0 || value > g.MaxValue {
		return fmt.Errorf("%w: %d is outside 0..%d", ErrInvalidValue, value, g.MaxValue)
	}
	return nil
}

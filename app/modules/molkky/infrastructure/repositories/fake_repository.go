package molkkydb

import (
	"context"
	"slices"
	"sync"
	"time"

	molkkydomain "github.com/Black-And-White-Club/party-companion/app/modules/molkky/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FakeRepository is an in-memory Repository for service and handler tests.
// Each method calls its Func field when set and otherwise works against the
// in-memory tables.
type FakeRepository struct {
	mu    sync.Mutex
	trace []string

	games   map[uuid.UUID]*Game
	players map[uuid.UUID]*Player
	throws  []Throw

	CreateGameFunc        func(ctx context.Context, db bun.IDB, game *Game) error
	GetGameForUpdateFunc  func(ctx context.Context, db bun.IDB, gameID uuid.UUID) (*Game, error)
	UpdateGameFunc        func(ctx context.Context, db bun.IDB, game *Game) error
	AddPlayerFunc         func(ctx context.Context, db bun.IDB, player *Player) error
	UpdatePlayerStateFunc func(ctx context.Context, db bun.IDB, player *Player) error
	ClaimSequenceFunc     func(ctx context.Context, db bun.IDB, gameID uuid.UUID) (int, error)
	InsertThrowFunc       func(ctx context.Context, db bun.IDB, throw *Throw) error
	CancelStaleFunc       func(ctx context.Context, db bun.IDB, cutoff time.Time) ([]uuid.UUID, error)
}

// NewFakeRepository returns an empty FakeRepository.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		games:   map[uuid.UUID]*Game{},
		players: map[uuid.UUID]*Player{},
	}
}

var _ Repository = (*FakeRepository)(nil)

func (f *FakeRepository) record(step string) {
	f.trace = append(f.trace, step)
}

// Trace returns the repository calls in order.
func (f *FakeRepository) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.trace)
}

// SeedGame inserts a game and its players directly, in seat order.
func (f *FakeRepository) SeedGame(game Game, players ...Player) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := game
	f.games[g.ID] = &g
	for i := range players {
		p := players[i]
		p.GameID = g.ID
		p.Seat = i + 1
		f.players[p.ID] = &p
	}
}

// Throws returns every stored throw of a game in sequence order.
func (f *FakeRepository) Throws(gameID uuid.UUID) []Throw {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.throwsOf(gameID)
}

func (f *FakeRepository) throwsOf(gameID uuid.UUID) []Throw {
	var out []Throw
	for _, t := range f.throws {
		if t.GameID == gameID {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b Throw) int { return a.Sequence - b.Sequence })
	return out
}

func (f *FakeRepository) CreateGame(ctx context.Context, db bun.IDB, game *Game) error {
	f.mu.Lock()
	f.record("CreateGame")
	fn := f.CreateGameFunc
	if fn == nil {
		g := *game
		f.games[g.ID] = &g
	}
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, db, game)
	}
	return nil
}

func (f *FakeRepository) GetGame(_ context.Context, _ bun.IDB, gameID uuid.UUID) (*Game, error) {
	return f.getGame("GetGame", gameID)
}

func (f *FakeRepository) GetGameForUpdate(ctx context.Context, db bun.IDB, gameID uuid.UUID) (*Game, error) {
	f.mu.Lock()
	fn := f.GetGameForUpdateFunc
	f.mu.Unlock()
	if fn != nil {
		f.mu.Lock()
		f.record("GetGameForUpdate")
		f.mu.Unlock()
		return fn(ctx, db, gameID)
	}
	return f.getGame("GetGameForUpdate", gameID)
}

func (f *FakeRepository) getGame(step string, gameID uuid.UUID) (*Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(step)
	g, ok := f.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *g
	return &out, nil
}

func (f *FakeRepository) ListGames(_ context.Context, _ bun.IDB, status *molkkydomain.GameStatus, limit int) ([]Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListGames")
	var out []Game
	for _, g := range f.games {
		if status == nil || g.Status == *status {
			out = append(out, *g)
		}
	}
	slices.SortFunc(out, func(a, b Game) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *FakeRepository) UpdateGame(ctx context.Context, db bun.IDB, game *Game) error {
	f.mu.Lock()
	f.record("UpdateGame")
	fn := f.UpdateGameFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, db, game)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.games[game.ID]
	if !ok {
		return ErrNotFound
	}
	g := *game
	g.LastSequence = existing.LastSequence
	f.games[g.ID] = &g
	return nil
}

func (f *FakeRepository) CountGamesByStatus(_ context.Context, _ bun.IDB) (map[molkkydomain.GameStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CountGamesByStatus")
	out := map[molkkydomain.GameStatus]int{}
	for _, g := range f.games {
		out[g.Status]++
	}
	return out, nil
}

func (f *FakeRepository) CancelStaleLobbies(ctx context.Context, db bun.IDB, cutoff time.Time) ([]uuid.UUID, error) {
	f.mu.Lock()
	f.record("CancelStaleLobbies")
	fn := f.CancelStaleFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, db, cutoff)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	now := time.Now().UTC()
	for _, g := range f.games {
		if g.Status == molkkydomain.GameStatusWaiting && g.CreatedAt.Before(cutoff) {
			g.Status = molkkydomain.GameStatusCancelled
			g.EndedAt = &now
			ids = append(ids, g.ID)
		}
	}
	return ids, nil
}

func (f *FakeRepository) AddPlayer(ctx context.Context, db bun.IDB, player *Player) error {
	f.mu.Lock()
	f.record("AddPlayer")
	fn := f.AddPlayerFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, db, player)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	maxSeat := 0
	for _, p := range f.players {
		if p.GameID != player.GameID {
			continue
		}
		if p.UserID == player.UserID {
			return ErrDuplicatePlayer
		}
		maxSeat = max(maxSeat, p.Seat)
	}
	player.Seat = maxSeat + 1
	p := *player
	f.players[p.ID] = &p
	return nil
}

func (f *FakeRepository) GetPlayer(_ context.Context, _ bun.IDB, gameID, playerID uuid.UUID) (*Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetPlayer")
	p, ok := f.players[playerID]
	if !ok || p.GameID != gameID {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (f *FakeRepository) ListPlayers(_ context.Context, _ bun.IDB, gameID uuid.UUID) ([]Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListPlayers")
	var out []Player
	for _, p := range f.players {
		if p.GameID == gameID {
			out = append(out, *p)
		}
	}
	slices.SortFunc(out, func(a, b Player) int { return a.Seat - b.Seat })
	return out, nil
}

func (f *FakeRepository) UpdatePlayerState(ctx context.Context, db bun.IDB, player *Player) error {
	f.mu.Lock()
	f.record("UpdatePlayerState")
	fn := f.UpdatePlayerStateFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, db, player)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[player.ID]
	if !ok {
		return ErrNotFound
	}
	p.Score = player.Score
	p.MissCount = player.MissCount
	p.Eliminated = player.Eliminated
	return nil
}

func (f *FakeRepository) CountThrows(_ context.Context, _ bun.IDB, gameID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CountThrows")
	return len(f.throwsOf(gameID)), nil
}

func (f *FakeRepository) ClaimThrowSequence(ctx context.Context, db bun.IDB, gameID uuid.UUID) (int, error) {
	f.mu.Lock()
	f.record("ClaimThrowSequence")
	fn := f.ClaimSequenceFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, db, gameID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[gameID]
	if !ok {
		return 0, ErrNotFound
	}
	g.LastSequence++
	return g.LastSequence, nil
}

func (f *FakeRepository) InsertThrow(ctx context.Context, db bun.IDB, throw *Throw) error {
	f.mu.Lock()
	f.record("InsertThrow")
	fn := f.InsertThrowFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, db, throw)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.throws {
		if t.GameID == throw.GameID && t.Sequence == throw.Sequence {
			return ErrSequenceConflict
		}
	}
	f.throws = append(f.throws, *throw)
	return nil
}

func (f *FakeRepository) ListThrows(_ context.Context, _ bun.IDB, gameID uuid.UUID) ([]Throw, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListThrows")
	return f.throwsOf(gameID), nil
}

package molkkydb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	molkkydomain "github.com/Black-And-White-Club/party-companion/app/modules/molkky/domain"
	"github.com/Black-And-White-Club/party-companion/db/bundb"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrNotFound is returned when a game or player row does not exist.
	ErrNotFound = errors.New("molkky record not found")
	// ErrDuplicatePlayer is returned when a user joins the same game twice.
	ErrDuplicatePlayer = errors.New("player already in game")
	// ErrSequenceConflict is returned when another throw took the same sequence number.
	ErrSequenceConflict = errors.New("throw sequence already taken")
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new Mölkky repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) CreateGame(ctx context.Context, db bun.IDB, game *Game) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(game).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

func (r *Impl) GetGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) (*Game, error) {
	return r.getGame(ctx, r.resolveDB(db), gameID, false)
}

func (r *Impl) GetGameForUpdate(ctx context.Context, db bun.IDB, gameID uuid.UUID) (*Game, error) {
	return r.getGame(ctx, r.resolveDB(db), gameID, true)
}

func (r *Impl) getGame(ctx context.Context, db bun.IDB, gameID uuid.UUID, lock bool) (*Game, error) {
	game := new(Game)
	q := db.NewSelect().Model(game).Where("g.id = ?", gameID)
	if lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

func (r *Impl) ListGames(ctx context.Context, db bun.IDB, status *molkkydomain.GameStatus, limit int) ([]Game, error) {
	db = r.resolveDB(db)
	var games []Game
	q := db.NewSelect().Model(&games).OrderExpr("g.created_at DESC, g.id DESC")
	if status != nil {
		q = q.Where("g.status = ?", *status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

func (r *Impl) UpdateGame(ctx context.Context, db bun.IDB, game *Game) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model(game).
		Column("status", "winner_id", "started_at", "ended_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) CountGamesByStatus(ctx context.Context, db bun.IDB) (map[molkkydomain.GameStatus]int, error) {
	db = r.resolveDB(db)
	var rows []struct {
		Status molkkydomain.GameStatus `bun:"status"`
		Count  int                     `bun:"count"`
	}
	err := db.NewSelect().
		Model((*Game)(nil)).
		ColumnExpr("g.status, COUNT(*) AS count").
		Group("g.status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to count games: %w", err)
	}
	out := make(map[molkkydomain.GameStatus]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *Impl) CancelStaleLobbies(ctx context.Context, db bun.IDB, cutoff time.Time) ([]uuid.UUID, error) {
	db = r.resolveDB(db)
	var ids []uuid.UUID
	_, err := db.NewUpdate().
		Model((*Game)(nil)).
		Set("status = ?", molkkydomain.GameStatusCancelled).
		Set("ended_at = ?", time.Now().UTC()).
		Where("status = ?", molkkydomain.GameStatusWaiting).
		Where("created_at < ?", cutoff).
		Returning("id").
		Exec(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel stale lobbies: %w", err)
	}
	return ids, nil
}

// AddPlayer assigns the next seat. Callers hold the game row lock so seats
// are allocated without gaps.
func (r *Impl) AddPlayer(ctx context.Context, db bun.IDB, player *Player) error {
	db = r.resolveDB(db)
	var maxSeat sql.NullInt64
	err := db.NewSelect().
		Model((*Player)(nil)).
		ColumnExpr("MAX(p.seat)").
		Where("p.game_id = ?", player.GameID).
		Scan(ctx, &maxSeat)
	if err != nil {
		return fmt.Errorf("failed to read seats: %w", err)
	}
	player.Seat = int(maxSeat.Int64) + 1

	if _, err := db.NewInsert().Model(player).Exec(ctx); err != nil {
		if bundb.IsUniqueViolation(err) {
			return ErrDuplicatePlayer
		}
		return fmt.Errorf("failed to insert player: %w", err)
	}
	return nil
}

func (r *Impl) GetPlayer(ctx context.Context, db bun.IDB, gameID, playerID uuid.UUID) (*Player, error) {
	db = r.resolveDB(db)
	player := new(Player)
	err := db.NewSelect().
		Model(player).
		Where("p.id = ?", playerID).
		Where("p.game_id = ?", gameID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return player, nil
}

func (r *Impl) ListPlayers(ctx context.Context, db bun.IDB, gameID uuid.UUID) ([]Player, error) {
	db = r.resolveDB(db)
	var players []Player
	err := db.NewSelect().
		Model(&players).
		Where("p.game_id = ?", gameID).
		Order("p.seat ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

func (r *Impl) UpdatePlayerState(ctx context.Context, db bun.IDB, player *Player) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model(player).
		Column("score", "miss_count", "eliminated").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) CountThrows(ctx context.Context, db bun.IDB, gameID uuid.UUID) (int, error) {
	db = r.resolveDB(db)
	n, err := db.NewSelect().
		Model((*Throw)(nil)).
		Where("t.game_id = ?", gameID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count throws: %w", err)
	}
	return n, nil
}

func (r *Impl) ClaimThrowSequence(ctx context.Context, db bun.IDB, gameID uuid.UUID) (int, error) {
	db = r.resolveDB(db)
	var seq int
	_, err := db.NewUpdate().
		Model((*Game)(nil)).
		Set("last_sequence = g.last_sequence + 1").
		Where("g.id = ?", gameID).
		Returning("last_sequence").
		Exec(ctx, &seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to claim throw sequence: %w", err)
	}
	if seq == 0 {
		return 0, ErrNotFound
	}
	return seq, nil
}

func (r *Impl) InsertThrow(ctx context.Context, db bun.IDB, throw *Throw) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(throw).Exec(ctx); err != nil {
		if bundb.IsUniqueViolation(err) {
			return ErrSequenceConflict
		}
		return fmt.Errorf("failed to insert throw: %w", err)
	}
	return nil
}

func (r *Impl) ListThrows(ctx context.Context, db bun.IDB, gameID uuid.UUID) ([]Throw, error) {
	db = r.resolveDB(db)
	var throws []Throw
	err := db.NewSelect().
		Model(&throws).
		Where("t.game_id = ?", gameID).
		Order("t.sequence ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list throws: %w", err)
	}
	return throws, nil
}

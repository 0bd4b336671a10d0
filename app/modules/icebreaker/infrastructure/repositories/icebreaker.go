package icebreakerdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Black-And-White-Club/party-companion/db/bundb"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// dealerLockKey is the pg_advisory_xact_lock key for card dealing.
const dealerLockKey int64 = 0x1CEB4EA4

const answerPersonConstraint = "icebreaker_answers_assignment_person_key"

// DealtSettingKey is the app_settings key counting cards dealt since the last reset.
const DealtSettingKey = "icebreaker_dealt"

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("icebreaker record not found")
	// ErrDuplicateAssignment is returned when a user already holds a card.
	ErrDuplicateAssignment = errors.New("user already has a card")
	// ErrPersonAlreadyUsed is returned when a person is credited twice on one card.
	ErrPersonAlreadyUsed = errors.New("person already credited on this card")
	// ErrUnknownUser is returned when the credited user does not exist.
	ErrUnknownUser = errors.New("credited user does not exist")
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new icebreaker repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) LockDealer(ctx context.Context, db bun.IDB) error {
	db = r.resolveDB(db)
	if _, err := db.ExecContext(ctx, "SELECT pg_advisory_xact_lock(?)", dealerLockKey); err != nil {
		return fmt.Errorf("failed to lock card dealer: %w", err)
	}
	return nil
}

func (r *Impl) GetAssignment(ctx context.Context, db bun.IDB, userID uuid.UUID) (*Assignment, error) {
	db = r.resolveDB(db)
	a := new(Assignment)
	err := db.NewSelect().Model(a).Where("a.user_id = ?", userID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

func (r *Impl) CountAssignments(ctx context.Context, db bun.IDB) (int, error) {
	db = r.resolveDB(db)
	n, err := db.NewSelect().Model((*Assignment)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return n, nil
}

func (r *Impl) ClaimDeal(ctx context.Context, db bun.IDB) (int, error) {
	db = r.resolveDB(db)
	var dealt int64
	err := db.NewRaw(`
		INSERT INTO app_settings (key, value, updated_at) VALUES (?, '1', NOW())
		ON CONFLICT (key) DO UPDATE
			SET value = (app_settings.value::bigint + 1)::text, updated_at = NOW()
		RETURNING value::bigint`, DealtSettingKey).Scan(ctx, &dealt)
	if err != nil {
		return 0, fmt.Errorf("failed to claim card deal: %w", err)
	}
	return int(dealt - 1), nil
}

func (r *Impl) CreateAssignment(ctx context.Context, db bun.IDB, assignment *Assignment) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(assignment).Exec(ctx); err != nil {
		if bundb.IsUniqueViolation(err) {
			return ErrDuplicateAssignment
		}
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}

func (r *Impl) ListAnswers(ctx context.Context, db bun.IDB, assignmentID uuid.UUID) ([]Answer, error) {
	db = r.resolveDB(db)
	var answers []Answer
	err := db.NewSelect().
		Model(&answers).
		Where("ans.assignment_id = ?", assignmentID).
		Order("ans.question_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}

func (r *Impl) UpsertAnswer(ctx context.Context, db bun.IDB, answer *Answer) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(answer).
		On("CONFLICT (assignment_id, question_number) DO UPDATE").
		Set("answered_user_id = EXCLUDED.answered_user_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		switch {
		case bundb.IsUniqueViolation(err) && bundb.ConstraintName(err) == answerPersonConstraint:
			return ErrPersonAlreadyUsed
		case bundb.IsForeignKeyViolation(err):
			return ErrUnknownUser
		}
		return fmt.Errorf("failed to upsert answer: %w", err)
	}
	return nil
}

func (r *Impl) DeleteAnswer(ctx context.Context, db bun.IDB, assignmentID uuid.UUID, questionNumber int) error {
	db = r.resolveDB(db)
	res, err := db.NewDelete().
		Model((*Answer)(nil)).
		Where("assignment_id = ?", assignmentID).
		Where("question_number = ?", questionNumber).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete answer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) CountAnswers(ctx context.Context, db bun.IDB) (int, error) {
	db = r.resolveDB(db)
	n, err := db.NewSelect().Model((*Answer)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count answers: %w", err)
	}
	return n, nil
}

func (r *Impl) Progress(ctx context.Context, db bun.IDB, limit int) ([]ProgressRow, error) {
	db = r.resolveDB(db)
	var rows []ProgressRow
	err := db.NewSelect().
		Model((*Assignment)(nil)).
		ColumnExpr("a.user_id, a.card_id").
		ColumnExpr("COUNT(ans.question_number) AS answered").
		Join("LEFT JOIN icebreaker_answers AS ans ON ans.assignment_id = a.id").
		Group("a.user_id", "a.card_id", "a.created_at").
		OrderExpr("answered DESC, a.created_at ASC").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read icebreaker progress: %w", err)
	}
	return rows, nil
}

func (r *Impl) ResetAll(ctx context.Context, db bun.IDB) error {
	db = r.resolveDB(db)
	if _, err := db.NewDelete().Model((*Answer)(nil)).Where("TRUE").Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete answers: %w", err)
	}
	if _, err := db.NewDelete().Model((*Assignment)(nil)).Where("TRUE").Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete assignments: %w", err)
	}
	if _, err := db.NewDelete().Model((*Setting)(nil)).Where("key = ?", DealtSettingKey).Exec(ctx); err != nil {
		return fmt.Errorf("failed to rewind deal counter: %w", err)
	}
	return nil
}

func (r *Impl) GetSetting(ctx context.Context, db bun.IDB, key string) (string, error) {
	db = r.resolveDB(db)
	s := new(Setting)
	if err := db.NewSelect().Model(s).Where("s.key = ?", key).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return s.Value, nil
}

func (r *Impl) PutSetting(ctx context.Context, db bun.IDB, key, value string) error {
	db = r.resolveDB(db)
	s := &Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := db.NewInsert().
		Model(s).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to put setting %s: %w", key, err)
	}
	return nil
}

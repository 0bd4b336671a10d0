package icebreakerdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for icebreaker persistence.
type Repository interface {
	// LockDealer takes the transaction-scoped lock that serializes card dealing.
	LockDealer(ctx context.Context, db bun.IDB) error
	GetAssignment(ctx context.Context, db bun.IDB, userID uuid.UUID) (*Assignment, error)
	CountAssignments(ctx context.Context, db bun.IDB) (int, error)
	// ClaimDeal bumps the dealt-cards counter and returns how many cards had
	// been dealt before. The counter survives deleted assignments and only
	// ResetAll rewinds it. Callers hold the dealer lock.
	ClaimDeal(ctx context.Context, db bun.IDB) (int, error)
	CreateAssignment(ctx context.Context, db bun.IDB, assignment *Assignment) error

	ListAnswers(ctx context.Context, db bun.IDB, assignmentID uuid.UUID) ([]Answer, error)
	// UpsertAnswer sets the person credited for a question.
	UpsertAnswer(ctx context.Context, db bun.IDB, answer *Answer) error
	DeleteAnswer(ctx context.Context, db bun.IDB, assignmentID uuid.UUID, questionNumber int) error
	CountAnswers(ctx context.Context, db bun.IDB) (int, error)
	// Progress returns answered counts per assigned user, most answered first.
	Progress(ctx context.Context, db bun.IDB, limit int) ([]ProgressRow, error)
	// ResetAll deletes every assignment and answer and rewinds the deal counter.
	ResetAll(ctx context.Context, db bun.IDB) error

	GetSetting(ctx context.Context, db bun.IDB, key string) (string, error)
	PutSetting(ctx context.Context, db bun.IDB, key, value string) error
}

package icebreakerdb

import (
	"time"

	icebreakerdomain "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Assignment is the icebreaker_assignments row.
type Assignment struct {
	bun.BaseModel `bun:"table:icebreaker_assignments,alias:a"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull"`
	CardID    string    `bun:"card_id,notnull"`
	Position  int       `bun:"position,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// Answer is the icebreaker_answers row.
type Answer struct {
	bun.BaseModel `bun:"table:icebreaker_answers,alias:ans"`

	AssignmentID   uuid.UUID `bun:"assignment_id,pk,type:uuid"`
	QuestionNumber int       `bun:"question_number,pk"`
	AnsweredUserID uuid.UUID `bun:"answered_user_id,type:uuid,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
}

// Setting is an app_settings row.
type Setting struct {
	bun.BaseModel `bun:"table:app_settings,alias:s"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// ProgressRow is one line of the progress leaderboard.
type ProgressRow struct {
	UserID   uuid.UUID `bun:"user_id"`
	CardID   string    `bun:"card_id"`
	Answered int       `bun:"answered"`
}

func (a *Assignment) ToDomain() icebreakerdomain.Assignment {
	return icebreakerdomain.Assignment{
		ID:        a.ID,
		UserID:    a.UserID,
		CardID:    a.CardID,
		Position:  a.Position,
		CreatedAt: a.CreatedAt,
	}
}

func (a *Answer) ToDomain() icebreakerdomain.Answer {
	return icebreakerdomain.Answer{
		QuestionNumber: a.QuestionNumber,
		AnsweredUserID: a.AnsweredUserID,
		UpdatedAt:      a.UpdatedAt,
	}
}

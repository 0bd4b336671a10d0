package icebreakerdomain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrIcebreakerDisabled = errors.New("the icebreaker game is currently disabled")
	ErrUnknownQuestion    = errors.New("no such question on your card")
	ErrSelfAnswer         = errors.New("you cannot credit yourself")
	ErrUnknownUser        = errors.New("that person is not signed up")
	ErrPersonAlreadyUsed  = errors.New("that person is already credited on another question of your card")
	ErrAnswerNotFound     = errors.New("that question has no answer yet")
)

// Assignment is a user's card. It is never reassigned.
type Assignment struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	CardID    string    `json:"cardId"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

// Answer credits one person for one question of a card.
type Answer struct {
	QuestionNumber int       `json:"questionNumber"`
	AnsweredUserID uuid.UUID `json:"answeredUserId"`
	AnsweredName   string    `json:"answeredName,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// MyCard is a user's assignment with its card and current answers.
type MyCard struct {
	Assignment Assignment `json:"assignment"`
	Card       Card       `json:"card"`
	Answers    []Answer   `json:"answers"`
}

// LeaderboardEntry ranks users by answered questions.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      uuid.UUID `json:"userId"`
	DisplayName string    `json:"displayName"`
	Answered    int       `json:"answered"`
	Total       int       `json:"total"`
}

// Status is the admin view of the game.
type Status struct {
	Enabled     bool `json:"enabled"`
	Assignments int  `json:"assignments"`
	Answers     int  `json:"answers"`
}

// PositionFor returns the pool position for the next assignment.
func PositionFor(assignedSoFar, deckSize int) int {
	if deckSize <= 0 {
		return 0
	}
	return assignedSoFar % deckSize
}

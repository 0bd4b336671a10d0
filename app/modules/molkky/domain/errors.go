package molkkydomain

import "errors"

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrPlayerNotFound   = errors.New("player not found in this game")
	ErrGameNotOngoing   = errors.New("game is not ongoing")
	ErrGameNotWaiting   = errors.New("game is not accepting players")
	ErrGameFinished     = errors.New("game is already finished")
	ErrPlayerEliminated = errors.New("player is eliminated")
	ErrAlreadyJoined    = errors.New("user already joined this game")
	ErrNotEnoughPlayers = errors.New("at least two players are required to start")
	ErrNotCreator       = errors.New("only the game creator can do that")
	ErrNotParticipant   = errors.New("only players of this game can record throws")
	ErrInvalidStatus    = errors.New("unknown game status")
)

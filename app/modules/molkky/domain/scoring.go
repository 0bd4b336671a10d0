package molkkydomain

import (
	"errors"
	"fmt"
)

const (
	// WinningScore must be hit exactly.
	WinningScore = 50
	// PenaltyScore is where a player lands after overshooting WinningScore.
	PenaltyScore = 25
	// MaxConsecutiveMisses eliminates a player.
	MaxConsecutiveMisses = 3
	// PinCount is the number of numbered pins in play.
	PinCount = 12
)

// ErrInvalidThrow is wrapped by every ValidationError.
var ErrInvalidThrow = errors.New("invalid throw")

// ValidationError reports a malformed throw. Nothing is touched when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid throw: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidThrow }

// ThrowInput is a proposed throw. PinNumber is only read when PinsHit == 1.
type ThrowInput struct {
	PinsHit   int
	PinNumber *int
}

// PlayerState is the part of a player the engine reads and writes.
type PlayerState struct {
	Score      int
	MissCount  int
	Eliminated bool
}

// ThrowOutcome is the full result of resolving one throw.
type ThrowOutcome struct {
	Points      int
	ScoreBefore int
	ScoreAfter  int
	IsMiss      bool
	IsPenalty   bool
	MissCount   int
	Eliminated  bool
	IsWin       bool
}

// ValidateThrow checks the input shape.
func ValidateThrow(in ThrowInput) error {
	if in.PinsHit < 0 || in.PinsHit > PinCount {
		return &ValidationError{Field: "pinsHit", Reason: fmt.Sprintf("must be between 0 and %d", PinCount)}
	}
	if in.PinsHit == 1 {
		if in.PinNumber == nil {
			return &ValidationError{Field: "pinNumber", Reason: "is required when exactly one pin is hit"}
		}
		if *in.PinNumber < 1 || *in.PinNumber > PinCount {
			return &ValidationError{Field: "pinNumber", Reason: fmt.Sprintf("must be between 1 and %d", PinCount)}
		}
	}
	return nil
}

// ComputePoints returns the points a throw is worth and whether it was a miss.
// The input must already be valid.
func ComputePoints(in ThrowInput) (points int, isMiss bool) {
	switch in.PinsHit {
	case 0:
		return 0, true
	case 1:
		return *in.PinNumber, false
	default:
		return in.PinsHit, false
	}
}

// ResolveThrow applies a throw to a player. The win check runs after the
// penalty, so a throw that overshoots can never win.
func ResolveThrow(player PlayerState, in ThrowInput) (ThrowOutcome, error) {
	if err := ValidateThrow(in); err != nil {
		return ThrowOutcome{}, err
	}
	if player.Eliminated {
		return ThrowOutcome{}, ErrPlayerEliminated
	}

	points, isMiss := ComputePoints(in)

	out := ThrowOutcome{
		Points:      points,
		ScoreBefore: player.Score,
		ScoreAfter:  player.Score + points,
		IsMiss:      isMiss,
	}

	if out.ScoreAfter > WinningScore {
		out.ScoreAfter = PenaltyScore
		out.IsPenalty = true
	}

	if isMiss {
		out.MissCount = min(player.MissCount+1, MaxConsecutiveMisses)
	} else {
		out.MissCount = 0
	}

	out.Eliminated = out.MissCount >= MaxConsecutiveMisses
	out.IsWin = out.ScoreAfter == WinningScore

	return out, nil
}

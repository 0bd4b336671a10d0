package molkkydomain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextThrowerIndex(t *testing.T) {
	p := func(eliminated bool) Player { return Player{Eliminated: eliminated} }

	tests := []struct {
		name       string
		players    []Player
		throwCount int
		want       int
	}{
		{name: "no players", players: nil, throwCount: 0, want: -1},
		{name: "first throw", players: []Player{p(false), p(false), p(false)}, throwCount: 0, want: 0},
		{name: "rotates", players: []Player{p(false), p(false), p(false)}, throwCount: 4, want: 1},
		{name: "skips eliminated", players: []Player{p(false), p(true), p(false)}, throwCount: 1, want: 2},
		{name: "wraps over active only", players: []Player{p(true), p(false), p(false)}, throwCount: 2, want: 1},
		{name: "everyone eliminated", players: []Player{p(true), p(true)}, throwCount: 3, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextThrowerIndex(tt.players, tt.throwCount))
		})
	}
}

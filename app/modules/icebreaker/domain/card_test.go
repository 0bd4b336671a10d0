package icebreakerdomain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDeck_Default(t *testing.T) {
	deck, err := LoadDeck("")
	require.NoError(t, err)
	assert.Equal(t, 5, deck.Size())

	card, ok := deck.Card("card-03")
	require.True(t, ok)
	assert.True(t, card.HasQuestion(1))
	assert.True(t, card.HasQuestion(len(card.Questions)))
	assert.False(t, card.HasQuestion(0))
	assert.False(t, card.HasQuestion(len(card.Questions)+1))
}

func TestLoadDeck_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cards:\n  - id: only\n    questions: [a, b]\n"), 0o600))

	deck, err := LoadDeck(path)
	require.NoError(t, err)
	assert.Equal(t, 1, deck.Size())
	assert.Equal(t, "only", deck.At(7).ID)

	_, err = LoadDeck(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseDeck_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "empty", yaml: "cards: []"},
		{name: "missing id", yaml: "cards:\n  - questions: [a]"},
		{name: "duplicate id", yaml: "cards:\n  - id: x\n    questions: [a]\n  - id: x\n    questions: [b]"},
		{name: "no questions", yaml: "cards:\n  - id: x"},
		{name: "not yaml", yaml: "cards: [:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDeck([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidDeck)
		})
	}
}

func TestDeck_RoundRobin(t *testing.T) {
	deck, err := NewDeck([]Card{
		{ID: "a", Questions: []string{"q"}},
		{ID: "b", Questions: []string{"q"}},
		{ID: "c", Questions: []string{"q"}},
	})
	require.NoError(t, err)

	var dealt []string
	for assigned := 0; assigned < 7; assigned++ {
		dealt = append(dealt, deck.At(PositionFor(assigned, deck.Size())).ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c", "a"}, dealt)
}

func TestPositionFor(t *testing.T) {
	assert.Equal(t, 0, PositionFor(0, 5))
	assert.Equal(t, 4, PositionFor(4, 5))
	assert.Equal(t, 0, PositionFor(5, 5))
	assert.Equal(t, 0, PositionFor(3, 0))
}

package icebreakerdomain

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed cards.yaml
var defaultCards []byte

// ErrInvalidDeck is returned when a card pool fails to load.
var ErrInvalidDeck = errors.New("invalid card deck")

// Card is one pre-authored set of questions. Questions are numbered from 1.
type Card struct {
	ID        string   `yaml:"id" json:"id"`
	Questions []string `yaml:"questions" json:"questions"`
}

// HasQuestion reports whether n is a valid question number on the card.
func (c Card) HasQuestion(n int) bool {
	return n >= 1 && n <= len(c.Questions)
}

// Deck is the ordered, fixed card pool. Cards are dealt round-robin.
type Deck struct {
	cards []Card
	byID  map[string]int
}

type deckFile struct {
	Cards []Card `yaml:"cards"`
}

// NewDeck validates cards and builds a Deck.
func NewDeck(cards []Card) (*Deck, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: no cards", ErrInvalidDeck)
	}
	d := &Deck{cards: make([]Card, 0, len(cards)), byID: make(map[string]int, len(cards))}
	for i, c := range cards {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			return nil, fmt.Errorf("%w: card %d has no id", ErrInvalidDeck, i+1)
		}
		if _, dup := d.byID[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate card id %q", ErrInvalidDeck, c.ID)
		}
		if len(c.Questions) == 0 {
			return nil, fmt.Errorf("%w: card %q has no questions", ErrInvalidDeck, c.ID)
		}
		d.byID[c.ID] = len(d.cards)
		d.cards = append(d.cards, c)
	}
	return d, nil
}

// ParseDeck reads a YAML card pool.
func ParseDeck(data []byte) (*Deck, error) {
	var f deckFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDeck, err)
	}
	return NewDeck(f.Cards)
}

// LoadDeck reads the card pool from path, or the built-in pool when path is empty.
func LoadDeck(path string) (*Deck, error) {
	if path == "" {
		return ParseDeck(defaultCards)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read card pool: %w", err)
	}
	return ParseDeck(data)
}

// Size returns the number of cards.
func (d *Deck) Size() int { return len(d.cards) }

// At returns the card dealt at a pool position, wrapping past the last card.
func (d *Deck) At(position int) Card {
	n := len(d.cards)
	return d.cards[((position%n)+n)%n]
}

// Card looks up a card by id.
func (d *Deck) Card(id string) (Card, bool) {
	i, ok := d.byID[id]
	if !ok {
		return Card{}, false
	}
	return d.cards[i], true
}

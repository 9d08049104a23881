package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrInvalidDeck is returned for a deck that is not exactly the 52 distinct cards
var ErrInvalidDeck = errors.New("invalid deck")

// Suit is one of the four French suits
type Suit string

const (
	Clubs    Suit = "clubs"
	Diamonds Suit = "diamonds"
	Hearts   Suit = "hearts"
	Spades   Suit = "spades"
)

// Suits lists every suit in deck construction order
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

var suitSymbols = map[Suit]string{
	Clubs:    "♣",
	Diamonds: "♦",
	Hearts:   "♥",
	Spades:   "♠",
}

// Color groups suits for tableau alternation
type Color string

const (
	Red   Color = "red"
	Black Color = "black"
)

// Color returns red for hearts and diamonds, black otherwise
func (s Suit) Color() Color {
	if s == Hearts || s == Diamonds {
		return Red
	}
	return Black
}

// Valid reports whether s is one of the four suits
func (s Suit) Valid() bool {
	_, ok := suitSymbols[s]
	return ok
}

// Rank orders cards from ace (1) to king (13)
type Rank int

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	if r > Ace && r < Jack {
		return fmt.Sprintf("%d", int(r))
	}
	return "?"
}

// Card is a playing card. Suit and Rank are its identity; FaceUp is the only mutable part.
type Card struct {
	Suit   Suit `json:"suit"`
	Rank   Rank `json:"rank"`
	FaceUp bool `json:"face_up"`
}

// Same reports whether two cards share suit and rank, ignoring face state
func (c Card) Same(other Card) bool {
	return c.Suit == other.Suit && c.Rank == other.Rank
}

func (c Card) String() string {
	return c.Rank.String() + suitSymbols[c.Suit]
}

// DeckSize is the number of cards in a standard deck
const DeckSize = 52

// NewDeck returns the 52 cards in suit-major order, all face-down
func NewDeck() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for rank := Ace; rank <= King; rank++ {
			cards = append(cards, Card{Suit: suit, Rank: rank})
		}
	}
	return cards
}

// ValidateDeck checks that deck holds each of the 52 cards exactly once. Face states are
// ignored.
func ValidateDeck(deck []Card) error {
	if len(deck) != DeckSize {
		return fmt.Errorf("%w: %d cards, want %d", ErrInvalidDeck, len(deck), DeckSize)
	}
	seen := make(map[Card]bool, DeckSize)
	for i, c := range deck {
		if !c.Suit.Valid() || c.Rank < Ace || c.Rank > King {
			return fmt.Errorf("%w: card %d is not a playing card (%s %d)", ErrInvalidDeck, i, c.Suit, c.Rank)
		}
		key := Card{Suit: c.Suit, Rank: c.Rank}
		if seen[key] {
			return fmt.Errorf("%w: duplicate card %s", ErrInvalidDeck, key)
		}
		seen[key] = true
	}
	return nil
}

// Shuffle permutes cards in place with Fisher-Yates
func Shuffle(cards []Card, rng *rand.Rand) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// NewShuffledDeck returns a uniformly shuffled face-down deck
func NewShuffledDeck(rng *rand.Rand) []Card {
	cards := NewDeck()
	Shuffle(cards, rng)
	return cards
}

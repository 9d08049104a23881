package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPile is returned when popping a pile that holds no cards
	ErrEmptyPile = errors.New("pile is empty")
	// ErrInvalidRun is returned when a run would include a face-down card or falls outside the pile
	ErrInvalidRun = errors.New("invalid run")
)

// PileKind tags the four kinds of pile on the table
type PileKind string

const (
	StockPile      PileKind = "stock"
	WastePile      PileKind = "waste"
	FoundationPile PileKind = "foundation"
	TableauPile    PileKind = "tableau"

	FoundationCount = 4
	TableauCount    = 7
)

// PileRef identifies a single pile. Index is only meaningful for foundations and tableaus.
type PileRef struct {
	Kind  PileKind `json:"kind"`
	Index int      `json:"index"`
}

var (
	StockRef = PileRef{Kind: StockPile}
	WasteRef = PileRef{Kind: WastePile}
)

// Foundation returns the ref of foundation i
func Foundation(i int) PileRef {
	return PileRef{Kind: FoundationPile, Index: i}
}

// Tableau returns the ref of tableau i
func Tableau(i int) PileRef {
	return PileRef{Kind: TableauPile, Index: i}
}

// Valid reports whether the ref names a pile on a standard table
func (r PileRef) Valid() bool {
	switch r.Kind {
	case StockPile, WastePile:
		return r.Index == 0
	case FoundationPile:
		return r.Index >= 0 && r.Index < FoundationCount
	case TableauPile:
		return r.Index >= 0 && r.Index < TableauCount
	}
	return false
}

func (r PileRef) String() string {
	switch r.Kind {
	case FoundationPile, TableauPile:
		return fmt.Sprintf("%s[%d]", r.Kind, r.Index)
	}
	return string(r.Kind)
}

// Pile is an ordered sequence of cards, bottom first. The top card is the last element.
type Pile struct {
	ref   PileRef
	cards []Card
}

// NewPile creates an empty pile for the given ref
func NewPile(ref PileRef) *Pile {
	return &Pile{ref: ref}
}

// Ref returns the pile's identity
func (p *Pile) Ref() PileRef {
	return p.ref
}

// Len returns the number of cards in the pile
func (p *Pile) Len() int {
	return len(p.cards)
}

// IsEmpty reports whether the pile holds no cards
func (p *Pile) IsEmpty() bool {
	return len(p.cards) == 0
}

// Peek returns the top card without removing it
func (p *Pile) Peek() (Card, bool) {
	if len(p.cards) == 0 {
		return Card{}, false
	}
	return p.cards[len(p.cards)-1], true
}

// At returns the card at index i counted from the bottom
func (p *Pile) At(i int) (Card, bool) {
	if i < 0 || i >= len(p.cards) {
		return Card{}, false
	}
	return p.cards[i], true
}

// Pop removes and returns the top card. Face state is left to the caller.
func (p *Pile) Pop() (Card, error) {
	if len(p.cards) == 0 {
		return Card{}, fmt.Errorf("pop %s: %w", p.ref, ErrEmptyPile)
	}
	top := p.cards[len(p.cards)-1]
	p.cards = p.cards[:len(p.cards)-1]
	return top, nil
}

// Push appends cards to the top in the given order
func (p *Pile) Push(cards ...Card) {
	p.cards = append(p.cards, cards...)
}

// TakeRun removes and returns the cards from index from (counted from the bottom) through the
// top. Every card in the range must be face-up.
func (p *Pile) TakeRun(from int) ([]Card, error) {
	if from < 0 || from >= len(p.cards) {
		return nil, fmt.Errorf("take run at %d from %s (%d cards): %w", from, p.ref, len(p.cards), ErrInvalidRun)
	}
	for i := from; i < len(p.cards); i++ {
		if !p.cards[i].FaceUp {
			return nil, fmt.Errorf("take run at %d from %s: card %d is face-down: %w", from, p.ref, i, ErrInvalidRun)
		}
	}
	run := make([]Card, len(p.cards)-from)
	copy(run, p.cards[from:])
	p.cards = p.cards[:from]
	return run, nil
}

// RevealTop flips the top card face-up if it is face-down. It reports whether a flip happened.
func (p *Pile) RevealTop() bool {
	if len(p.cards) == 0 {
		return false
	}
	top := &p.cards[len(p.cards)-1]
	if top.FaceUp {
		return false
	}
	top.FaceUp = true
	return true
}

// Cards returns a copy of the pile contents, bottom first
func (p *Pile) Cards() []Card {
	out := make([]Card, len(p.cards))
	copy(out, p.cards)
	return out
}

// FaceUpFrom returns the index of the lowest card of the face-up suffix, or Len() when the
// top card is face-down or the pile is empty.
func (p *Pile) FaceUpFrom() int {
	i := len(p.cards)
	for i > 0 && p.cards[i-1].FaceUp {
		i--
	}
	return i
}

func (p *Pile) clear() {
	p.cards = p.cards[:0]
}

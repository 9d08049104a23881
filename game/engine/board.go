package engine

import "fmt"

// Board is the full table: stock, waste, four foundations and seven tableaus
type Board struct {
	Stock       *Pile
	Waste       *Pile
	Foundations [FoundationCount]*Pile
	Tableaus    [TableauCount]*Pile
}

// NewBoard creates a board with every pile empty
func NewBoard() *Board {
	b := &Board{
		Stock: NewPile(StockRef),
		Waste: NewPile(WasteRef),
	}
	for i := range b.Foundations {
		b.Foundations[i] = NewPile(Foundation(i))
	}
	for i := range b.Tableaus {
		b.Tableaus[i] = NewPile(Tableau(i))
	}
	return b
}

// Pile resolves a ref to its pile, or nil for an invalid ref
func (b *Board) Pile(ref PileRef) *Pile {
	if !ref.Valid() {
		return nil
	}
	switch ref.Kind {
	case StockPile:
		return b.Stock
	case WastePile:
		return b.Waste
	case FoundationPile:
		return b.Foundations[ref.Index]
	case TableauPile:
		return b.Tableaus[ref.Index]
	}
	return nil
}

// Piles returns every pile in a fixed order: stock, waste, foundations, tableaus
func (b *Board) Piles() []*Pile {
	piles := make([]*Pile, 0, 2+FoundationCount+TableauCount)
	piles = append(piles, b.Stock, b.Waste)
	piles = append(piles, b.Foundations[:]...)
	piles = append(piles, b.Tableaus[:]...)
	return piles
}

// CardCount returns the number of cards currently on the board
func (b *Board) CardCount() int {
	n := 0
	for _, p := range b.Piles() {
		n += p.Len()
	}
	return n
}

// Reset empties every pile and places the deck in the stock, face-down, with deck[0] on top
// so that cards are dealt in deck order.
func (b *Board) Reset(deck []Card) {
	for _, p := range b.Piles() {
		p.clear()
	}
	for i := len(deck) - 1; i >= 0; i-- {
		c := deck[i]
		c.FaceUp = false
		b.Stock.Push(c)
	}
}

// Validate checks the table invariants. held is the run currently in flight, which is
// absent from the piles but still part of the deck.
func (b *Board) Validate(held []Card) error {
	seen := make(map[Card]bool, DeckSize)
	count := func(c Card) error {
		key := Card{Suit: c.Suit, Rank: c.Rank}
		if !c.Suit.Valid() || c.Rank < Ace || c.Rank > King {
			return fmt.Errorf("invalid card %v", c)
		}
		if seen[key] {
			return fmt.Errorf("duplicate card %v", c)
		}
		seen[key] = true
		return nil
	}

	for _, p := range b.Piles() {
		for _, c := range p.cards {
			if err := count(c); err != nil {
				return fmt.Errorf("%s: %w", p.ref, err)
			}
		}
	}
	for _, c := range held {
		if err := count(c); err != nil {
			return fmt.Errorf("held: %w", err)
		}
	}
	if len(seen) != DeckSize {
		return fmt.Errorf("expected %d cards, found %d", DeckSize, len(seen))
	}

	for _, c := range b.Stock.cards {
		if c.FaceUp {
			return fmt.Errorf("stock: card %v is face-up", c)
		}
	}
	if top, ok := b.Waste.Peek(); ok && !top.FaceUp {
		return fmt.Errorf("waste: top card %v is face-down", top)
	}
	for _, f := range b.Foundations {
		for i, c := range f.cards {
			if !c.FaceUp {
				return fmt.Errorf("%s: card %v is face-down", f.ref, c)
			}
			if c.Rank != Rank(i+1) || c.Suit != f.cards[0].Suit {
				return fmt.Errorf("%s: card %v out of sequence at %d", f.ref, c, i)
			}
		}
	}
	for _, t := range b.Tableaus {
		faceUp := false
		for _, c := range t.cards {
			if faceUp && !c.FaceUp {
				return fmt.Errorf("%s: face-down card %v above a face-up card", t.ref, c)
			}
			faceUp = faceUp || c.FaceUp
		}
	}
	return nil
}

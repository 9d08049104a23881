package engine

import (
	"reflect"
	"testing"
)

func TestDealer_RoundRobinByRow(t *testing.T) {
	deck := NewDeck()
	b := NewBoard()
	b.Reset(deck)
	d := NewDealer(b.Stock)

	plan := Plan()
	if len(plan) != DealCount {
		t.Fatalf("Expected %d planned placements, got %d", DealCount, len(plan))
	}

	for i := 0; i < DealCount; i++ {
		p, ok := d.Next()
		if !ok {
			t.Fatalf("Dealer stopped early at %d", i)
		}
		if p.Dest != plan[i] {
			t.Errorf("Placement %d: expected %v, got %v", i, plan[i], p.Dest)
		}
		if !p.Card.Same(deck[i]) {
			t.Errorf("Placement %d: expected %v, got %v", i, deck[i], p.Card)
		}
		b.Pile(p.Dest).Push(p.Card)
	}
	if _, ok := d.Next(); ok {
		t.Error("Expected no placements after the deal")
	}
	if !d.Done() || d.Remaining() != 0 || d.Dealt() != DealCount {
		t.Errorf("Unexpected dealer state: done=%v remaining=%d dealt=%d", d.Done(), d.Remaining(), d.Dealt())
	}

	// tableau 1 gets the second card of round 0 and the first card of round 1
	bottom, _ := b.Tableaus[1].At(0)
	top, _ := b.Tableaus[1].Peek()
	if !bottom.Same(deck[1]) || !top.Same(deck[7]) {
		t.Errorf("Expected tableau[1] = [%v %v], got [%v %v]", deck[1], deck[7], bottom, top)
	}
}

func TestDealer_FinalLayout(t *testing.T) {
	b := NewBoard()
	b.Reset(NewDeck())
	d := NewDealer(b.Stock)
	for {
		p, ok := d.Next()
		if !ok {
			break
		}
		b.Pile(p.Dest).Push(p.Card)
	}

	for i, tab := range b.Tableaus {
		if tab.Len() != i+1 {
			t.Errorf("tableau[%d]: expected %d cards, got %d", i, i+1, tab.Len())
		}
		for j, c := range tab.Cards() {
			wantUp := j == i
			if c.FaceUp != wantUp {
				t.Errorf("tableau[%d] card %d: expected face-up=%v", i, j, wantUp)
			}
		}
	}
	if b.Stock.Len() != DeckSize-DealCount {
		t.Errorf("Expected %d cards in stock, got %d", DeckSize-DealCount, b.Stock.Len())
	}
	for _, c := range b.Stock.Cards() {
		if c.FaceUp {
			t.Errorf("Expected stock card %v face-down", c)
		}
	}
	if err := b.Validate(nil); err != nil {
		t.Errorf("Unexpected invariant violation: %v", err)
	}
}

func TestDeal_PacingDoesNotChangeLayout(t *testing.T) {
	stepped := newTestEngine(t)
	for stepped.Phase() == PhaseDealing {
		stepped.DealStep()
	}
	instant := newTestEngine(t)
	instant.DealAll()

	a, b := stepped.Snapshot(), instant.Snapshot()
	if !reflect.DeepEqual(a.Tableaus, b.Tableaus) || !reflect.DeepEqual(a.Stock, b.Stock) {
		t.Error("Expected identical layouts for stepped and instant deals")
	}
}

package engine

// InteractionState is the pick-up state of the table
type InteractionState string

const (
	Idle    InteractionState = "idle"
	Holding InteractionState = "holding"
)

// DropResult describes how a drop resolved
type DropResult struct {
	Committed bool    `json:"committed"`
	Source    PileRef `json:"source"`
	Target    PileRef `json:"target"`
	Cards     []Card  `json:"cards"`
	Revealed  bool    `json:"revealed,omitempty"`
}

// Interaction tracks the single run of cards in flight between a pick-up and its drop.
// Held cards are removed from their source pile for the whole time they are held.
type Interaction struct {
	state       InteractionState
	held        []Card
	source      PileRef
	sourceIndex int
	offset      Point
	position    Point
}

// NewInteraction returns an idle interaction
func NewInteraction() *Interaction {
	return &Interaction{state: Idle}
}

// State returns idle or holding
func (in *Interaction) State() InteractionState {
	return in.state
}

// Holding reports whether a run is in flight
func (in *Interaction) Holding() bool {
	return in.state == Holding
}

// Held returns a copy of the cards in flight, bottom first
func (in *Interaction) Held() []Card {
	if len(in.held) == 0 {
		return nil
	}
	out := make([]Card, len(in.held))
	copy(out, in.held)
	return out
}

// Source returns the pile and index the held run came from
func (in *Interaction) Source() (PileRef, int) {
	return in.source, in.sourceIndex
}

// Offset returns the pointer offset within the grabbed card
func (in *Interaction) Offset() Point {
	return in.offset
}

// Position returns the last recorded drag position
func (in *Interaction) Position() Point {
	return in.position
}

// BeginPickup lifts cards from the pile at ref. Waste and foundations give their top card
// only; a tableau gives the face-up run from index to the top. A negative index means the
// top card. It returns false, leaving the board untouched, when nothing can be picked up.
// The stock is never picked up.
func (in *Interaction) BeginPickup(b *Board, ref PileRef, index int, offset Point) bool {
	if in.state != Idle {
		return false
	}
	pile := b.Pile(ref)
	if pile == nil || pile.IsEmpty() {
		return false
	}
	top := pile.Len() - 1
	if index < 0 {
		index = top
	}

	var held []Card
	switch ref.Kind {
	case WastePile, FoundationPile:
		if index != top {
			return false
		}
		card, err := pile.Pop()
		if err != nil {
			return false
		}
		held = []Card{card}
	case TableauPile:
		run, err := pile.TakeRun(index)
		if err != nil {
			return false
		}
		held = run
	default:
		return false
	}

	in.state = Holding
	in.held = held
	in.source = ref
	in.sourceIndex = index
	in.offset = offset
	in.position = Point{}
	return true
}

// UpdateDrag records the pointer position for rendering. It has no effect on the board.
func (in *Interaction) UpdateDrag(p Point) {
	if in.state == Holding {
		in.position = p
	}
}

// ResolveDrop commits the held run to the first legal pile in candidates, or puts it back on
// its source exactly as it was. The source pile is never a target. Returns false when idle.
func (in *Interaction) ResolveDrop(b *Board, candidates []PileRef) (DropResult, bool) {
	if in.state != Holding {
		return DropResult{}, false
	}
	result := DropResult{Source: in.source, Cards: in.Held()}

	for _, ref := range candidates {
		if ref == in.source {
			continue
		}
		target := b.Pile(ref)
		if target == nil || !CanPlace(in.held, target) {
			continue
		}
		target.Push(in.held...)
		result.Committed = true
		result.Target = ref
		if in.source.Kind == TableauPile {
			result.Revealed = b.Pile(in.source).RevealTop()
		}
		in.reset()
		return result, true
	}

	in.rollback(b)
	return result, true
}

// Rollback returns a held run to its source. Returns false when idle.
func (in *Interaction) Rollback(b *Board) bool {
	if in.state != Holding {
		return false
	}
	in.rollback(b)
	return true
}

func (in *Interaction) rollback(b *Board) {
	b.Pile(in.source).Push(in.held...)
	in.reset()
}

func (in *Interaction) reset() {
	in.state = Idle
	in.held = nil
	in.source = PileRef{}
	in.sourceIndex = 0
	in.offset = Point{}
	in.position = Point{}
}

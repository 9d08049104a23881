package engine

// DealCount is the number of cards placed on the tableaus by the opening deal
const DealCount = TableauCount * (TableauCount + 1) / 2

// Placement is one step of the opening deal
type Placement struct {
	Card   Card    `json:"card"`
	Dest   PileRef `json:"dest"`
	FaceUp bool    `json:"face_up"`
}

// Dealer sequences the opening deal. Cards are popped from the stock row by row: round r
// gives one card to every tableau i >= r, and the card that completes a pile is face-up.
// A Dealer lives for exactly one deal.
type Dealer struct {
	stock   *Pile
	round   int
	tableau int
	dealt   int
}

// NewDealer starts a deal from the given stock
func NewDealer(stock *Pile) *Dealer {
	return &Dealer{stock: stock}
}

// Done reports whether all placements have been produced
func (d *Dealer) Done() bool {
	return d.round >= TableauCount || d.stock.IsEmpty()
}

// Dealt returns the number of placements produced so far
func (d *Dealer) Dealt() int {
	return d.dealt
}

// Remaining returns the number of placements still to come
func (d *Dealer) Remaining() int {
	if d.Done() {
		return 0
	}
	return DealCount - d.dealt
}

// Next pops the next card from the stock and returns where it goes. The caller places it.
func (d *Dealer) Next() (Placement, bool) {
	if d.Done() {
		return Placement{}, false
	}
	card, err := d.stock.Pop()
	if err != nil {
		return Placement{}, false
	}

	faceUp := d.tableau == d.round
	card.FaceUp = faceUp
	p := Placement{Card: card, Dest: Tableau(d.tableau), FaceUp: faceUp}

	d.dealt++
	d.tableau++
	if d.tableau >= TableauCount {
		d.round++
		d.tableau = d.round
	}
	return p, true
}

// Plan returns the destinations of all placements in order, without touching any pile
func Plan() []PileRef {
	refs := make([]PileRef, 0, DealCount)
	for round := 0; round < TableauCount; round++ {
		for i := round; i < TableauCount; i++ {
			refs = append(refs, Tableau(i))
		}
	}
	return refs
}

package engine

// CanDrawFromStock reports whether a card can be turned from the stock onto the waste
func CanDrawFromStock(stock *Pile) bool {
	return !stock.IsEmpty()
}

// CanRecycleWaste reports whether the waste can be turned back over into an empty stock
func CanRecycleWaste(stock, waste *Pile) bool {
	return stock.IsEmpty() && !waste.IsEmpty()
}

// CanPlaceOnFoundation reports whether run may be dropped on foundation.
// Only single cards go to foundations: an ace on an empty pile, otherwise the next rank of
// the same suit.
func CanPlaceOnFoundation(run []Card, foundation *Pile) bool {
	if len(run) != 1 {
		return false
	}
	card := run[0]
	top, ok := foundation.Peek()
	if !ok {
		return card.Rank == Ace
	}
	return card.Suit == top.Suit && card.Rank == top.Rank+1
}

// CanPlaceOnTableau reports whether run may be dropped on tableau. The bottom card of the run
// must be a king on an empty pile, or one rank below the top card in the opposite color.
func CanPlaceOnTableau(run []Card, tableau *Pile) bool {
	if len(run) == 0 {
		return false
	}
	card := run[0]
	top, ok := tableau.Peek()
	if !ok {
		return card.Rank == King
	}
	return card.Suit.Color() != top.Suit.Color() && card.Rank == top.Rank-1
}

// CanPlace dispatches to the rule for the target's kind. Stock and waste never accept drops.
func CanPlace(run []Card, target *Pile) bool {
	switch target.Ref().Kind {
	case FoundationPile:
		return CanPlaceOnFoundation(run, target)
	case TableauPile:
		return CanPlaceOnTableau(run, target)
	}
	return false
}

// CheckWin reports whether every foundation holds a complete suit
func CheckWin(foundations [FoundationCount]*Pile) bool {
	for _, f := range foundations {
		if f.Len() != int(King) {
			return false
		}
	}
	return true
}

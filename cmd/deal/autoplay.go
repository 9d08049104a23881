package main

import (
	"fmt"

	"github.com/wricardo/klondike/game/engine"
)

// defaultMaxSteps bounds one autoplay run
const defaultMaxSteps = 2000

// PlayResult summarizes one greedy run over a seeded deal
type PlayResult struct {
	Seed        uint64
	Won         bool
	Moves       int
	Foundations int
	Stuck       bool
}

// Autoplay deals the seeded game at once and plays it with a greedy policy until it is won,
// stuck or maxSteps moves were tried
func Autoplay(seed uint64, maxSteps int) (*PlayResult, error) {
	e, err := engine.NewEngine(engine.DefaultGameConfig(), engine.WithSeed(seed))
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	e.DealAll()

	result := &PlayResult{Seed: seed}
	idleDraws := 0
	for step := 0; step < maxSteps && e.Phase() == engine.PhasePlayable; step++ {
		state := e.Snapshot()
		move, ok := ChooseMove(state, e.LegalMoves())
		if !ok {
			result.Stuck = true
			break
		}

		if move.From.Kind == engine.StockPile {
			// a whole pass through the stock without playing anything
			idleDraws++
			if idleDraws > len(state.Stock.Cards)+len(state.Waste.Cards)+1 {
				result.Stuck = true
				break
			}
		} else {
			idleDraws = 0
		}
		e.Move(move.From, move.Index, move.To)

		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("seed %d step %d: %w", seed, step, err)
		}
	}

	final := e.Snapshot()
	result.Won = e.IsWon()
	result.Moves = final.TotalMoves
	for _, f := range final.Foundations {
		result.Foundations += len(f.Cards)
	}
	return result, nil
}

// ChooseMove picks the greedy move among legal ones: foundation plays first, then tableau
// moves that turn a card over, then waste plays, then a draw. Moves that only shuffle face-up
// runs between tableaus, or take cards back off a foundation, are never chosen.
func ChooseMove(state *engine.GameState, moves []engine.Move) (engine.Move, bool) {
	best, bestRank := engine.Move{}, 0
	for _, m := range moves {
		if r := moveRank(state, m); r > bestRank {
			best, bestRank = m, r
		}
	}
	return best, bestRank > 0
}

func moveRank(state *engine.GameState, m engine.Move) int {
	switch {
	case m.From.Kind == engine.FoundationPile:
		return 0
	case m.To.Kind == engine.FoundationPile:
		return 5
	case m.From.Kind == engine.TableauPile && revealsCard(state, m):
		return 4
	case m.From.Kind == engine.WastePile:
		return 3
	case m.From.Kind == engine.StockPile:
		return 1
	}
	return 0
}

// revealsCard reports whether moving the run leaves a face-down card on top of its tableau
func revealsCard(state *engine.GameState, m engine.Move) bool {
	if m.Index <= 0 || m.From.Index < 0 || m.From.Index >= len(state.Tableaus) {
		return false
	}
	cards := state.Tableaus[m.From.Index].Cards
	return m.Index <= len(cards) && !cards[m.Index-1].FaceUp
}

package mcp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wricardo/klondike/game/engine"
	"github.com/wricardo/klondike/game/service"
)

// ParsePile reads the short pile notation used by the tools: stock, waste, f0-f3, t0-t6.
// The long forms foundation:N and tableau:N are accepted too.
func ParsePile(s string) (engine.PileRef, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "stock", "s":
		return engine.StockRef, nil
	case "waste", "w":
		return engine.WasteRef, nil
	}

	var kind engine.PileKind
	var rest string
	switch {
	case strings.HasPrefix(s, "foundation"):
		kind, rest = engine.FoundationPile, strings.TrimPrefix(s, "foundation")
	case strings.HasPrefix(s, "tableau"):
		kind, rest = engine.TableauPile, strings.TrimPrefix(s, "tableau")
	case strings.HasPrefix(s, "f"):
		kind, rest = engine.FoundationPile, s[1:]
	case strings.HasPrefix(s, "t"):
		kind, rest = engine.TableauPile, s[1:]
	default:
		return engine.PileRef{}, fmt.Errorf("unknown pile %q", s)
	}

	i, err := strconv.Atoi(strings.Trim(rest, ":[] "))
	if err != nil {
		return engine.PileRef{}, fmt.Errorf("pile %q needs a number", s)
	}
	ref := engine.PileRef{Kind: kind, Index: i}
	if !ref.Valid() {
		return engine.PileRef{}, fmt.Errorf("pile %q does not exist", s)
	}
	return ref, nil
}

// ShortRef is the inverse of ParsePile
func ShortRef(ref engine.PileRef) string {
	switch ref.Kind {
	case engine.FoundationPile:
		return fmt.Sprintf("f%d", ref.Index)
	case engine.TableauPile:
		return fmt.Sprintf("t%d", ref.Index)
	}
	return string(ref.Kind)
}

func formatCard(c engine.Card) string {
	if !c.FaceUp {
		return "##"
	}
	return c.String()
}

func formatCards(cards []engine.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = formatCard(c)
	}
	return strings.Join(parts, " ")
}

func formatTop(v engine.PileView) string {
	top, ok := v.Top()
	if !ok {
		return "--"
	}
	return formatCard(top)
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder

	b.WriteString(fmt.Sprintf("Phase: %s | Time: %s | Moves: %d | Dealt: %d/28\n\n",
		state.Phase, state.Elapsed, state.TotalMoves, state.DealtCards))

	b.WriteString(fmt.Sprintf("Stock: %d cards | Waste: %s (%d)\n",
		len(state.Stock.Cards), formatTop(state.Waste), len(state.Waste.Cards)))

	b.WriteString("Foundations:")
	for i, f := range state.Foundations {
		b.WriteString(fmt.Sprintf("  f%d %s", i, formatTop(f)))
	}
	b.WriteString("\n\nTableaus (bottom to top):\n")
	for i, t := range state.Tableaus {
		cards := formatCards(t.Cards)
		if cards == "" {
			cards = "(empty)"
		}
		b.WriteString(fmt.Sprintf("t%d: %s\n", i, cards))
	}

	if in := state.Interaction; len(in.Held) > 0 && in.Source != nil {
		b.WriteString(fmt.Sprintf("\nHolding %s from %s\n", formatCards(in.Held), ShortRef(*in.Source)))
	}

	switch state.Phase {
	case engine.PhaseWon:
		b.WriteString(fmt.Sprintf("\n🎉 VICTORY in %s!", state.Elapsed))
	case engine.PhasePaused:
		b.WriteString("\n⏸ PAUSED")
	case engine.PhaseDealing:
		b.WriteString("\n🂠 DEALING")
	}

	if state.Message != "" {
		b.WriteString(fmt.Sprintf("\nMessage: %s", state.Message))
	}

	return b.String()
}

func formatCommandResult(result *service.CommandResult) string {
	var b strings.Builder

	rolledBack := false
	for _, ev := range result.Events {
		if ev.Type == engine.EventMoveRolledBack {
			rolledBack = true
		}
	}
	switch {
	case rolledBack:
		b.WriteString("✗ Move rolled back\n")
	case result.Success:
		b.WriteString("✓ Done\n")
	default:
		b.WriteString("– Nothing changed\n")
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			if event.Type == engine.EventDealPlacement {
				// A whole deal is 28 lines of noise
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: %s\n", event.Type, event.Message))
		}
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatMove(m engine.Move) string {
	if m.From.Kind == engine.StockPile {
		return "draw"
	}
	if m.From.Kind == engine.TableauPile {
		return fmt.Sprintf("move from=%s index=%d to=%s", ShortRef(m.From), m.Index, ShortRef(m.To))
	}
	return fmt.Sprintf("move from=%s to=%s", ShortRef(m.From), ShortRef(m.To))
}

func formatLegalMoves(moves []engine.Move) string {
	if len(moves) == 0 {
		return "No legal moves right now (the table may be dealing, paused, won or stuck)."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Legal moves (%d):\n", len(moves)))
	for _, m := range moves {
		b.WriteString("- " + formatMove(m) + "\n")
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Move History (Page %d/%d, Total: %d)\n\n",
		history.Page, history.TotalPages, history.TotalMoves))

	for _, entry := range history.Moves {
		status := "✓"
		if !entry.Success {
			status = "✗"
		}

		line := fmt.Sprintf("#%d %s %s", entry.MoveNumber, status, entry.Action)
		if entry.From != nil {
			line += " " + ShortRef(*entry.From)
		}
		if entry.To != nil {
			line += " -> " + ShortRef(*entry.To)
		}
		if len(entry.Cards) > 0 {
			line += " [" + formatCards(entry.Cards) + "]"
		}
		b.WriteString(line + "\n")
	}

	if history.HasNext {
		b.WriteString("\n(more: request the next page)\n")
	}
	return b.String()
}

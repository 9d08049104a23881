package engine

import "time"

// Phase is the session state of one game
type Phase string

const (
	PhaseDealing  Phase = "dealing"
	PhasePlayable Phase = "playable"
	PhasePaused   Phase = "paused"
	PhaseWon      Phase = "won"
)

// EventType names the things the engine reports to its collaborators
type EventType string

const (
	EventNewGame        EventType = "new_game"
	EventDealPlacement  EventType = "deal_placement"
	EventDealComplete   EventType = "deal_complete"
	EventDraw           EventType = "draw"
	EventRecycle        EventType = "recycle"
	EventPickup         EventType = "pickup"
	EventMoveCommitted  EventType = "move_committed"
	EventMoveRolledBack EventType = "move_rolled_back"
	EventWon            EventType = "won"
	EventPaused         EventType = "paused"
	EventResumed        EventType = "resumed"
)

// Event is emitted by every command that changes the table or the session
type Event struct {
	Type      EventType `json:"type"`
	Message   string    `json:"message"`
	Cards     []Card    `json:"cards,omitempty"`
	From      *PileRef  `json:"from,omitempty"`
	To        *PileRef  `json:"to,omitempty"`
	ElapsedMS int64     `json:"elapsed_ms,omitempty"`
}

// Move names a transfer between two piles. Index is the position of the lowest moved card in
// From; it is ignored for stock draws.
type Move struct {
	From  PileRef `json:"from"`
	Index int     `json:"index"`
	To    PileRef `json:"to"`
}

// PileView is a read-only copy of one pile
type PileView struct {
	Ref   PileRef `json:"ref"`
	Cards []Card  `json:"cards"`
}

// Top returns the top card of the view
func (v PileView) Top() (Card, bool) {
	if len(v.Cards) == 0 {
		return Card{}, false
	}
	return v.Cards[len(v.Cards)-1], true
}

// InteractionView is a read-only copy of the pick-up state
type InteractionView struct {
	State       InteractionState `json:"state"`
	Held        []Card           `json:"held,omitempty"`
	Source      *PileRef         `json:"source,omitempty"`
	SourceIndex int              `json:"source_index,omitempty"`
	Offset      Point            `json:"offset"`
	Position    Point            `json:"position"`
}

// GameState is an immutable snapshot of a game. Nothing in it aliases live engine state.
type GameState struct {
	GameID      string                    `json:"game_id"`
	ConfigName  string                    `json:"config_name"`
	Seed        uint64                    `json:"seed"`
	Phase       Phase                     `json:"phase"`
	Stock       PileView                  `json:"stock"`
	Waste       PileView                  `json:"waste"`
	Foundations [FoundationCount]PileView `json:"foundations"`
	Tableaus    [TableauCount]PileView    `json:"tableaus"`
	Interaction InteractionView           `json:"interaction"`
	ElapsedMS   int64                     `json:"elapsed_ms"`
	Elapsed     string                    `json:"elapsed"`
	Won         bool                      `json:"won"`
	Message     string                    `json:"message"`
	TotalMoves  int                       `json:"total_moves"`
	DealtCards  int                       `json:"dealt_cards"`
}

// MoveHistoryEntry represents a single action in the game history
type MoveHistoryEntry struct {
	Action     string   `json:"action"`
	From       *PileRef `json:"from,omitempty"`
	To         *PileRef `json:"to,omitempty"`
	Cards      []Card   `json:"cards,omitempty"`
	Success    bool     `json:"success"`
	MoveNumber int      `json:"move_number"`
	Timestamp  int64    `json:"timestamp"`
}

// Clock is the elapsed-time collaborator driven by the session
type Clock interface {
	Start()
	Pause()
	Resume()
	Reset()
	Stop()
	Elapsed() time.Duration
}

// WinNotifier is told once per game when the last card reaches a foundation
type WinNotifier interface {
	OnGameWon(elapsed time.Duration)
}

// WinNotifierFunc adapts a function to WinNotifier
type WinNotifierFunc func(elapsed time.Duration)

// OnGameWon calls f
func (f WinNotifierFunc) OnGameWon(elapsed time.Duration) {
	f(elapsed)
}

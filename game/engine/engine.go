package engine

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/klondike/game/clock"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Queries
	Snapshot() *GameState
	Phase() Phase
	Elapsed() time.Duration
	IsWon() bool
	IsHolding() bool
	LegalMoves() []Move
	GetMoveHistory() []MoveHistoryEntry
	GetConfig() *GameConfig

	// Session
	NewGame() []Event
	NewGameWithSeed(seed uint64) []Event
	DealStep() []Event
	DealAll() []Event
	Pause() []Event
	Resume() []Event

	// Table
	DrawStockOrRecycle() []Event
	BeginPickup(ref PileRef, index int, offset Point) []Event
	PickupAt(p Point) []Event
	UpdateDragPosition(p Point)
	ResolveDrop(p Point) []Event
	ResolveDropOn(ref PileRef) []Event
	Move(from PileRef, index int, to PileRef) []Event
}

// GameEngine implements the Engine interface. It is not safe for concurrent use.
type GameEngine struct {
	config      *GameConfig
	board       *Board
	dealer      *Dealer
	interaction *Interaction
	clock       Clock
	notifier    WinNotifier
	now         func() time.Time
	seeds       *rand.Rand

	gameID  string
	seed    uint64
	phase   Phase
	message string
	history []MoveHistoryEntry
	moves   int
}

type engineOptions struct {
	seed     *uint64
	deck     []Card
	clock    Clock
	notifier WinNotifier
	now      func() time.Time
}

// EngineOption configures a GameEngine
type EngineOption func(*engineOptions)

// WithSeed makes the first deal use seed. Later deals draw their seeds from a generator
// seeded with the same value, so a session is reproducible end to end.
func WithSeed(seed uint64) EngineOption {
	return func(o *engineOptions) {
		o.seed = &seed
	}
}

// WithDeck makes the first deal use the given ordering instead of a shuffle. deck[0] is the
// first card dealt. NewEngine rejects anything but the 52 distinct cards with ErrInvalidDeck.
func WithDeck(deck []Card) EngineOption {
	return func(o *engineOptions) {
		o.deck = append([]Card(nil), deck...)
	}
}

// WithClock replaces the default stopwatch
func WithClock(c Clock) EngineOption {
	return func(o *engineOptions) {
		o.clock = c
	}
}

// WithWinNotifier registers the collaborator told about wins
func WithWinNotifier(n WinNotifier) EngineOption {
	return func(o *engineOptions) {
		o.notifier = n
	}
}

// WithNow sets the time source used for history timestamps
func WithNow(now func() time.Time) EngineOption {
	return func(o *engineOptions) {
		o.now = now
	}
}

// NewEngine creates a new game engine with the provided configuration and starts the first
// deal. A nil config means DefaultGameConfig.
func NewEngine(config *GameConfig, opts ...EngineOption) (*GameEngine, error) {
	if config == nil {
		config = DefaultGameConfig()
	}
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	o := engineOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	master := uint64(time.Now().UnixNano())
	if o.seed != nil {
		master = *o.seed
	}
	e := &GameEngine{
		config:      config,
		board:       NewBoard(),
		interaction: NewInteraction(),
		clock:       o.clock,
		notifier:    o.notifier,
		now:         o.now,
		seeds:       rand.New(rand.NewPCG(master, master^0x9e3779b97f4a7c15)),
	}
	if e.clock == nil {
		e.clock = clock.NewStopwatch()
	}
	if e.now == nil {
		e.now = time.Now
	}

	seed := e.seeds.Uint64()
	if o.seed != nil {
		seed = *o.seed
	}
	deck := o.deck
	if deck != nil {
		if err := ValidateDeck(deck); err != nil {
			return nil, err
		}
	} else {
		deck = NewShuffledDeck(newDealRand(seed))
	}
	e.start(seed, deck)
	return e, nil
}

// NewEngineWithDefaults creates an engine on the classic table with a random seed
func NewEngineWithDefaults() *GameEngine {
	e, err := NewEngine(DefaultGameConfig())
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return e
}

func newDealRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

// start resets every piece of session state and enters Dealing
func (e *GameEngine) start(seed uint64, deck []Card) []Event {
	e.clock.Reset()
	e.interaction = NewInteraction()
	e.board.Reset(deck)
	e.dealer = NewDealer(e.board.Stock)
	e.gameID = uuid.NewString()
	e.seed = seed
	e.phase = PhaseDealing
	e.history = nil
	e.moves = 0
	e.message = "Dealing a new game"

	return []Event{{Type: EventNewGame, Message: e.message}}
}

// NewGame abandons the current game and starts a fresh shuffled deal
func (e *GameEngine) NewGame() []Event {
	return e.NewGameWithSeed(e.seeds.Uint64())
}

// NewGameWithSeed starts a deal shuffled by seed
func (e *GameEngine) NewGameWithSeed(seed uint64) []Event {
	return e.start(seed, NewShuffledDeck(newDealRand(seed)))
}

// DealStep places the next card of the opening deal. The last placement makes the game
// playable and starts the clock.
func (e *GameEngine) DealStep() []Event {
	if e.phase != PhaseDealing {
		return nil
	}
	var events []Event
	if p, ok := e.dealer.Next(); ok {
		e.board.Pile(p.Dest).Push(p.Card)
		dest := p.Dest
		events = append(events, Event{
			Type:    EventDealPlacement,
			Message: fmt.Sprintf("Dealt %s to %s", p.Card, p.Dest),
			Cards:   []Card{p.Card},
			To:      &dest,
		})
	}
	if e.dealer.Done() {
		e.phase = PhasePlayable
		e.clock.Start()
		e.message = "Deal complete"
		events = append(events, Event{Type: EventDealComplete, Message: e.message})
	}
	return events
}

// DealAll runs the rest of the opening deal at once
func (e *GameEngine) DealAll() []Event {
	var events []Event
	for e.phase == PhaseDealing {
		events = append(events, e.DealStep()...)
	}
	return events
}

// DrawStockOrRecycle turns the stock top onto the waste, or turns the waste back over when the
// stock is empty. With both empty it does nothing.
func (e *GameEngine) DrawStockOrRecycle() []Event {
	if e.phase != PhasePlayable || e.interaction.Holding() {
		return nil
	}
	stock, waste := e.board.Stock, e.board.Waste
	from, to := StockRef, WasteRef

	switch {
	case CanDrawFromStock(stock):
		card, err := stock.Pop()
		if err != nil {
			return nil
		}
		card.FaceUp = true
		waste.Push(card)
		e.message = fmt.Sprintf("Drew %s", card)
		e.record("draw", &from, &to, []Card{card}, true)
		return []Event{{Type: EventDraw, Message: e.message, Cards: []Card{card}, From: &from, To: &to}}

	case CanRecycleWaste(stock, waste):
		n := waste.Len()
		for !waste.IsEmpty() {
			card, _ := waste.Pop()
			card.FaceUp = false
			stock.Push(card)
		}
		e.message = fmt.Sprintf("Recycled %d cards", n)
		e.record("recycle", &to, &from, nil, true)
		return []Event{{Type: EventRecycle, Message: e.message, From: &to, To: &from}}
	}
	return nil
}

// BeginPickup lifts cards from ref starting at index. A stock ref draws instead.
func (e *GameEngine) BeginPickup(ref PileRef, index int, offset Point) []Event {
	if e.phase != PhasePlayable || e.interaction.Holding() {
		return nil
	}
	if ref.Kind == StockPile {
		return e.DrawStockOrRecycle()
	}
	if !e.interaction.BeginPickup(e.board, ref, index, offset) {
		return nil
	}
	from := ref
	held := e.interaction.Held()
	e.message = fmt.Sprintf("Picked up %d card(s) from %s", len(held), ref)
	return []Event{{Type: EventPickup, Message: e.message, Cards: held, From: &from}}
}

// PickupAt resolves a pointer-down position and picks up whatever is under it
func (e *GameEngine) PickupAt(p Point) []Event {
	if e.phase != PhasePlayable || e.interaction.Holding() {
		return nil
	}
	hit, ok := e.config.Geometry.HitTest(e.board, p)
	if !ok {
		return nil
	}
	return e.BeginPickup(hit.Ref, hit.Index, hit.Offset)
}

// UpdateDragPosition records where the held run is being drawn
func (e *GameEngine) UpdateDragPosition(p Point) {
	e.interaction.UpdateDrag(p)
}

// ResolveDrop drops the held run at a pointer position
func (e *GameEngine) ResolveDrop(p Point) []Event {
	if !e.interaction.Holding() {
		return nil
	}
	src, _ := e.interaction.Source()
	return e.resolve(e.config.Geometry.DropTargets(e.board, p, src))
}

// ResolveDropOn drops the held run on a named pile
func (e *GameEngine) ResolveDropOn(ref PileRef) []Event {
	if !e.interaction.Holding() {
		return nil
	}
	return e.resolve([]PileRef{ref})
}

// Move is a pickup followed by a drop on to. Moves from the stock draw.
func (e *GameEngine) Move(from PileRef, index int, to PileRef) []Event {
	if from.Kind == StockPile {
		return e.DrawStockOrRecycle()
	}
	events := e.BeginPickup(from, index, Point{})
	if len(events) == 0 {
		if e.phase == PhasePlayable && !e.interaction.Holding() {
			f, t := from, to
			e.message = fmt.Sprintf("Nothing to move from %s", from)
			e.record("move", &f, &t, nil, false)
		}
		return nil
	}
	return append(events, e.ResolveDropOn(to)...)
}

func (e *GameEngine) resolve(candidates []PileRef) []Event {
	result, ok := e.interaction.ResolveDrop(e.board, candidates)
	if !ok {
		return nil
	}
	src := result.Source
	if !result.Committed {
		var to *PileRef
		if len(candidates) > 0 {
			t := candidates[0]
			to = &t
		}
		e.message = fmt.Sprintf("Returned %d card(s) to %s", len(result.Cards), src)
		e.record("move", &src, to, result.Cards, false)
		return []Event{{Type: EventMoveRolledBack, Message: e.message, Cards: result.Cards, From: &src, To: &src}}
	}

	target := result.Target
	e.message = fmt.Sprintf("Moved %d card(s) from %s to %s", len(result.Cards), src, target)
	e.record("move", &src, &target, result.Cards, true)
	events := []Event{{Type: EventMoveCommitted, Message: e.message, Cards: result.Cards, From: &src, To: &target}}

	if CheckWin(e.board.Foundations) {
		events = append(events, e.win())
	}
	return events
}

func (e *GameEngine) win() Event {
	e.clock.Stop()
	e.phase = PhaseWon
	elapsed := e.clock.Elapsed()
	e.message = fmt.Sprintf("You won in %s", clock.Format(elapsed))
	if e.notifier != nil {
		e.notifier.OnGameWon(elapsed)
	}
	return Event{Type: EventWon, Message: e.message, ElapsedMS: elapsed.Milliseconds()}
}

// Pause stops the clock. A held run goes back to its source first.
func (e *GameEngine) Pause() []Event {
	if e.phase != PhasePlayable {
		return nil
	}
	var events []Event
	if e.interaction.Holding() {
		events = append(events, e.resolve(nil)...)
	}
	e.clock.Pause()
	e.phase = PhasePaused
	e.message = "Paused"
	return append(events, Event{Type: EventPaused, Message: e.message, ElapsedMS: e.clock.Elapsed().Milliseconds()})
}

// Resume continues a paused game
func (e *GameEngine) Resume() []Event {
	if e.phase != PhasePaused {
		return nil
	}
	e.clock.Resume()
	e.phase = PhasePlayable
	e.message = "Resumed"
	return []Event{{Type: EventResumed, Message: e.message, ElapsedMS: e.clock.Elapsed().Milliseconds()}}
}

func (e *GameEngine) record(action string, from, to *PileRef, cards []Card, success bool) {
	if success {
		e.moves++
	}
	e.history = append(e.history, MoveHistoryEntry{
		Action:     action,
		From:       from,
		To:         to,
		Cards:      append([]Card(nil), cards...),
		Success:    success,
		MoveNumber: len(e.history) + 1,
		Timestamp:  e.now().Unix(),
	})
}

// Phase returns the session phase
func (e *GameEngine) Phase() Phase {
	return e.phase
}

// Elapsed returns the play time of the current game
func (e *GameEngine) Elapsed() time.Duration {
	return e.clock.Elapsed()
}

// IsWon reports whether the current game is won
func (e *GameEngine) IsWon() bool {
	return e.phase == PhaseWon
}

// IsHolding reports whether a run is in flight
func (e *GameEngine) IsHolding() bool {
	return e.interaction.Holding()
}

// GameID returns the id of the current deal
func (e *GameEngine) GameID() string {
	return e.gameID
}

// Seed returns the seed of the current deal
func (e *GameEngine) Seed() uint64 {
	return e.seed
}

// GetConfig returns a copy of the table configuration
func (e *GameEngine) GetConfig() *GameConfig {
	c := *e.config
	return &c
}

// GetMoveHistory returns a copy of the current game's history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	out := make([]MoveHistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// Validate checks the table invariants
func (e *GameEngine) Validate() error {
	return e.board.Validate(e.interaction.Held())
}

// LegalMoves lists every move that would commit right now. Draws and recycles appear as a
// move from the stock to the waste. Moving a whole pile onto an empty tableau and moving
// between foundations are left out.
func (e *GameEngine) LegalMoves() []Move {
	if e.phase != PhasePlayable || e.interaction.Holding() {
		return nil
	}
	var moves []Move
	if CanDrawFromStock(e.board.Stock) || CanRecycleWaste(e.board.Stock, e.board.Waste) {
		moves = append(moves, Move{From: StockRef, To: WasteRef})
	}

	// empty piles of one kind are interchangeable, only the first is offered
	targets := func(from PileRef, index int, run []Card) {
		emptySeen := false
		for i, f := range e.board.Foundations {
			// an ace moved between foundations changes nothing
			if from.Kind == FoundationPile || !CanPlaceOnFoundation(run, f) || (f.IsEmpty() && emptySeen) {
				continue
			}
			emptySeen = emptySeen || f.IsEmpty()
			moves = append(moves, Move{From: from, Index: index, To: Foundation(i)})
		}
		emptySeen = false
		for i, t := range e.board.Tableaus {
			if from == t.Ref() || !CanPlaceOnTableau(run, t) || (t.IsEmpty() && emptySeen) {
				continue
			}
			if from.Kind == TableauPile && index == 0 && t.IsEmpty() {
				continue
			}
			emptySeen = emptySeen || t.IsEmpty()
			moves = append(moves, Move{From: from, Index: index, To: Tableau(i)})
		}
	}

	if top, ok := e.board.Waste.Peek(); ok {
		targets(WasteRef, e.board.Waste.Len()-1, []Card{top})
	}
	for _, t := range e.board.Tableaus {
		cards := t.Cards()
		for j := t.FaceUpFrom(); j < len(cards); j++ {
			targets(t.Ref(), j, cards[j:])
		}
	}
	for _, f := range e.board.Foundations {
		if top, ok := f.Peek(); ok {
			targets(f.Ref(), f.Len()-1, []Card{top})
		}
	}
	return moves
}

// Snapshot returns a deep copy of the game state
func (e *GameEngine) Snapshot() *GameState {
	view := func(p *Pile) PileView {
		return PileView{Ref: p.Ref(), Cards: p.Cards()}
	}
	elapsed := e.clock.Elapsed()
	s := &GameState{
		GameID:     e.gameID,
		ConfigName: e.config.Name,
		Seed:       e.seed,
		Phase:      e.phase,
		Stock:      view(e.board.Stock),
		Waste:      view(e.board.Waste),
		ElapsedMS:  elapsed.Milliseconds(),
		Elapsed:    clock.Format(elapsed),
		Won:        e.phase == PhaseWon,
		Message:    e.message,
		TotalMoves: e.moves,
		DealtCards: e.dealer.Dealt(),
	}
	for i, f := range e.board.Foundations {
		s.Foundations[i] = view(f)
	}
	for i, t := range e.board.Tableaus {
		s.Tableaus[i] = view(t)
	}

	s.Interaction = InteractionView{
		State:    e.interaction.State(),
		Offset:   e.interaction.Offset(),
		Position: e.interaction.Position(),
	}
	if e.interaction.Holding() {
		src, idx := e.interaction.Source()
		s.Interaction.Held = e.interaction.Held()
		s.Interaction.Source = &src
		s.Interaction.SourceIndex = idx
	}
	return s
}

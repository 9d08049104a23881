// Package engine provides the core game logic for Klondike Solitaire.
//
// The engine package implements:
//   - Cards, the deck and seeded shuffling
//   - Piles (stock, waste, four foundations, seven tableaus) and table invariants
//   - Move rules for foundations, tableaus, drawing and recycling
//   - The opening deal, one placement at a time
//   - Pointer hit-testing against the table layout
//   - Pick-up and drop of card runs with rollback on illegal drops
//   - The session phases: dealing, playable, paused and won
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState is an immutable snapshot of a game,
// while GameConfig defines the table layout and deal pace loaded from JSON files.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultGameConfig(), engine.WithSeed(42))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.DealAll()
//	gameEngine.DrawStockOrRecycle()
//	gameEngine.Move(engine.WasteRef, -1, engine.Tableau(3))
//	state := gameEngine.Snapshot()
//
// A GameEngine is not safe for concurrent use; callers serialize access.
package engine

// Package config loads Klondike table configurations from a directory of JSON files.
//
// Each file describes one table:
//   - name and description shown to players
//   - deal_interval_ms, the pause between cards during the opening deal (0 deals at once)
//   - geometry, the card size, tableau overlap, column spacing and pile origins used for
//     pointer hit-testing
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	table, err := manager.LoadConfig("classic")
//	if errors.Is(err, config.ErrConfigNotFound) {
//		table = manager.GetDefault()
//	}
//
// Loaded configurations are cached and validated with engine.ValidateGameConfig. The
// default is classic.json when present, otherwise the first valid file, otherwise a
// built-in table.
package config

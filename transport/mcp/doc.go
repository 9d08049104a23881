// Package mcp exposes the Klondike table to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the REST API,
// and the JSON answer is rendered as compact text an agent can read.
//
// MCP Tools:
//   - create_session, list_sessions, get_session: session management
//   - game_state: the table as text, face-down cards shown as ##
//   - new_game, draw, pause, resume: table commands
//   - move: pick up and drop in one call, using the short pile notation
//   - legal_moves: every move the rules allow right now
//   - move_history: paginated history, failed attempts included
//   - list_configs: available tables
//   - game_instructions: rules and notation
//
// Pile notation is stock, waste, f0-f3 for foundations and t0-t6 for tableaus.
// ParsePile reads it and ShortRef writes it.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp

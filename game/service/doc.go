// Package service provides the business logic layer for the Klondike server.
//
// The service package implements:
//   - Multi-session game management
//   - Table configuration loading
//   - Paced opening deals, one background goroutine per dealing session
//   - Table commands: draw, pick up, drag, drop, move, pause and resume
//   - Paginated move history and legal-move listing
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages table configuration loading and validation.
// Broadcaster receives every state change for push delivery to clients.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Engines are not safe for concurrent use, so every engine
// call goes through the service lock, including the deal goroutines.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr, service.WithBroadcaster(hub))
//	defer gameService.Close()
//
//	info, err := gameService.CreateSession(ctx, service.CreateSessionOptions{ConfigName: "classic"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Draw(ctx, info.ID)
package service

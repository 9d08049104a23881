// Package api provides the HTTP REST API of the Klondike server.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session {config_id?, seed?}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/unified - Several sessions at once (?sessionIds=a,b or ?configName=x)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//   - GET /api/sessions/{id}/qr - PNG QR code of the session share URL
//
// Table Operations:
//   - GET /api/sessions/{id}/state - Current GameState
//   - POST /api/sessions/{id}/new-game - Shuffle and deal again
//   - POST /api/sessions/{id}/draw - Turn a stock card, or recycle the waste
//   - POST /api/sessions/{id}/pickup - {pile, index?, offset} or {point}
//   - POST /api/sessions/{id}/drag - {point}
//   - POST /api/sessions/{id}/drop - {point} or {target}
//   - POST /api/sessions/{id}/move - {from, index?, to}, pickup and drop in one call
//   - POST /api/sessions/{id}/pause, /resume
//   - GET /api/sessions/{id}/history - Paginated move history (?page&limit&order)
//   - GET /api/sessions/{id}/moves - Moves that would commit right now
//
// Configuration:
//   - GET /api/configs - List table configurations
//   - POST /api/configs - Save a table configuration
//   - GET /api/configs/{name} - Get a table configuration
//
// Other:
//   - GET /health
//   - GET /ws?session={id} - WebSocket stream of state changes
//
// Errors are returned as {"error": "..."}: 404 for unknown sessions and configurations, 400
// for malformed requests and invalid configurations, 500 otherwise. Illegal moves are not
// errors; they come back as 200 with success=false and a move_rolled_back event.
//
// Piles are named {"kind": "stock"|"waste"|"foundation"|"tableau", "index": n}.
package api

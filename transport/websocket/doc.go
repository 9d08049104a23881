// Package websocket streams Klondike table changes to browser clients.
//
// A single Hub owns every connection. Clients join one session with
//
//	GET /ws?session=<id>
//
// and then only listen. The first frame is a "connected" event carrying the table as it
// stood when the viewer joined. Every later state change is pushed as one JSON frame:
//
//	{"session_id": "...", "game_state": {...}, "event": "move_committed", "data": [events...]}
//
// event is the last engine event of the change ("state_update" when there were none) and
// data holds all of them in order, so a client can animate a whole deal or a committed run.
//
// Hub implements service.Broadcaster. Publish is called while the game service holds its
// lock, so it only queues onto a buffered channel and drops when the hub falls behind. The
// Run loop is the only goroutine that touches the rooms of viewers. Close ends Run and
// disconnects everyone.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	svc := service.NewGameService(sessions, configs, service.WithBroadcaster(hub))
package websocket

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/wricardo/klondike/game/engine"
	"github.com/wricardo/klondike/game/service"
	"github.com/wricardo/klondike/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. State changes reach the hub through the game service,
// the server only upgrades /ws connections.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	// Unified sessions for multi-session view (must be before {id} pattern)
	api.HandleFunc("/sessions/unified", s.handleUnifiedSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/qr", s.handleSessionQR).Methods("GET")

	// Table operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/new-game", s.handleNewGame).Methods("POST")
	api.HandleFunc("/sessions/{id}/draw", s.handleDraw).Methods("POST")
	api.HandleFunc("/sessions/{id}/pickup", s.handlePickup).Methods("POST")
	api.HandleFunc("/sessions/{id}/drag", s.handleDrag).Methods("POST")
	api.HandleFunc("/sessions/{id}/drop", s.handleDrop).Methods("POST")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/pause", s.handlePause).Methods("POST")
	api.HandleFunc("/sessions/{id}/resume", s.handleResume).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/moves", s.handleLegalMoves).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Static files (if needed)
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("./static/")))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service sentinels to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrInvalidConfig):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeBody decodes an optional JSON body. An empty body leaves target untouched.
func decodeBody(r *http.Request, target interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(target)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string  `json:"config_id,omitempty"`
		ConfigName string  `json:"config_name,omitempty"` // Deprecated, use config_id
		Seed       *uint64 `json:"seed,omitempty"`
	}

	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Support both new and old parameter names, but prefer config_id
	configID := req.ConfigID
	if configID == "" && req.ConfigName != "" {
		configID = req.ConfigName
	}

	session, err := s.service.CreateSession(r.Context(), service.CreateSessionOptions{
		ConfigName: configID,
		Seed:       req.Seed,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if session.GameState != nil {
		fmt.Printf("[SESSION] created id=%s config=%s seed=%d\n", session.ID, session.ConfigName, session.GameState.Seed)
	}
	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	total := len(sessions)

	list := parseSessionList(r.URL.Query())
	sessions = list.apply(sessions)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     list.by,
		"order":    list.order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	fmt.Printf("[SESSION] deleted id=%s\n", sessionID)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Table Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// runCommand writes the result of a table command and logs one compact line for it
func (s *Server) runCommand(w http.ResponseWriter, r *http.Request, action string, fn func(ctx context.Context, sessionID string) (*service.CommandResult, error)) {
	sessionID := mux.Vars(r)["id"]

	result, err := fn(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logCommand(sessionID, action, result)
	respondJSON(w, http.StatusOK, result)
}

func logCommand(sessionID, action string, result *service.CommandResult) {
	status := "NOOP"
	if result.Success {
		status = "OK"
	}
	for _, ev := range result.Events {
		if ev.Type == engine.EventMoveRolledBack {
			status = "ROLLBACK"
		}
	}

	var last string
	if n := len(result.Events); n > 0 {
		ev := result.Events[n-1]
		last = string(ev.Type)
		if ev.From != nil && ev.To != nil {
			last = fmt.Sprintf("%s %s->%s cards=%d", ev.Type, ev.From, ev.To, len(ev.Cards))
		}
	}

	phase := ""
	moves := 0
	if result.GameState != nil {
		phase = string(result.GameState.Phase)
		moves = result.GameState.TotalMoves
	}
	fmt.Printf("[%s] session=%s %s phase=%s moves=%d status=%s\n",
		strings.ToUpper(action), sessionID, last, phase, moves, status)
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	s.runCommand(w, r, "new-game", s.service.NewGame)
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	s.runCommand(w, r, "draw", s.service.Draw)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.runCommand(w, r, "pause", s.service.Pause)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.runCommand(w, r, "resume", s.service.Resume)
}

func (s *Server) handlePickup(w http.ResponseWriter, r *http.Request) {
	var req service.PickupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.runCommand(w, r, "pickup", func(ctx context.Context, sessionID string) (*service.CommandResult, error) {
		return s.service.Pickup(ctx, sessionID, req)
	})
}

func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Point *engine.Point `json:"point"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Point == nil {
		respondError(w, http.StatusBadRequest, "Invalid request body, point is required")
		return
	}

	sessionID := mux.Vars(r)["id"]
	result, err := s.service.Drag(r.Context(), sessionID, *req.Point)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Drags are too frequent for a log line each
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req service.DropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.runCommand(w, r, "drop", func(ctx context.Context, sessionID string) (*service.CommandResult, error) {
		return s.service.Drop(ctx, sessionID, req)
	})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From  *engine.PileRef `json:"from"`
		Index *int            `json:"index,omitempty"`
		To    *engine.PileRef `json:"to"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.From == nil || req.To == nil {
		respondError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	// No index moves the top card
	move := engine.Move{From: *req.From, Index: -1, To: *req.To}
	if req.Index != nil {
		move.Index = *req.Index
	}

	s.runCommand(w, r, "move", func(ctx context.Context, sessionID string) (*service.CommandResult, error) {
		return s.service.Move(ctx, sessionID, move)
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.service.GetMoveHistory(r.Context(), mux.Vars(r)["id"], parseHistory(r.URL.Query()))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleLegalMoves(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	moves, err := s.service.GetLegalMoves(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(moves),
		"moves": moves,
	})
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	config, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, config)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID string `json:"config_id,omitempty"`
		engine.GameConfig
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	configID := req.ConfigID
	if configID == "" {
		configID = configIDFromName(req.Name)
	}

	if err := s.service.SaveConfig(r.Context(), configID, &req.GameConfig); err != nil {
		respondError(w, statusFor(err), fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// configIDFromName turns a display name into a file-safe identifier
func configIDFromName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Unified Sessions Handler

func (s *Server) handleUnifiedSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.unifiedSessions(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	configName := ""
	if len(sessions) > 0 {
		configName = sessions[0].ConfigName
	}

	won := 0
	entries := make([]map[string]interface{}, 0, len(sessions))
	for _, session := range sessions {
		if session.GameState != nil && session.GameState.Won {
			won++
		}
		entries = append(entries, map[string]interface{}{
			"session_id":    session.ID,
			"config_name":   session.ConfigName,
			"game_state":    session.GameState,
			"created_at":    session.CreatedAt,
			"last_accessed": session.LastAccessedAt,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"config_name": configName,
		"won_count":   won,
		"sessions":    entries,
	})
}

// unifiedSessions picks the sessions named by sessionIds, skipping unknown ones, or else
// every session on the configName table (every session when that is empty too)
func (s *Server) unifiedSessions(r *http.Request) ([]*service.SessionInfo, error) {
	q := r.URL.Query()
	if ids := splitIDs(q.Get("sessionIds")); len(ids) > 0 {
		picked := make([]*service.SessionInfo, 0, len(ids))
		for _, id := range ids {
			if session, err := s.service.GetSession(r.Context(), id); err == nil {
				picked = append(picked, session)
			}
		}
		return picked, nil
	}

	all, err := s.service.ListSessions(r.Context())
	if err != nil {
		return nil, err
	}
	table := q.Get("configName")
	picked := make([]*service.SessionInfo, 0, len(all))
	for _, session := range all {
		if table == "" || session.ConfigName == table {
			picked = append(picked, session)
		}
	}
	return picked, nil
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID, info.GameState)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

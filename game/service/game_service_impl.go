package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wricardo/klondike/game/clock"
	"github.com/wricardo/klondike/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions    SessionManager
	configs     ConfigManager
	broadcaster Broadcaster
	dealers     map[string]*dealRun
	mu          sync.RWMutex
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithBroadcaster sends every state change to b
func WithBroadcaster(b Broadcaster) Option {
	return func(s *gameServiceImpl) {
		s.broadcaster = b
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		dealers:  make(map[string]*dealRun),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		GameState:      sess.Engine.Snapshot(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session and starts its first deal
func (s *gameServiceImpl) CreateSession(ctx context.Context, opts CreateSessionOptions) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if opts.ConfigName != "" {
		config, err = s.configs.LoadConfig(opts.ConfigName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found, available configs: %v: %w", opts.ConfigName, configIDs, ErrConfigNotFound)
				}
				return nil, fmt.Errorf("config '%s' not found, use /api/configs to list available configurations: %w", opts.ConfigName, ErrConfigNotFound)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", opts.ConfigName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	var sessionID string
	engineOpts := []engine.EngineOption{
		engine.WithWinNotifier(engine.WinNotifierFunc(func(elapsed time.Duration) {
			log.Printf("[WIN] session=%s elapsed=%s", sessionID, clock.Format(elapsed))
		})),
	}
	if opts.Seed != nil {
		engineOpts = append(engineOpts, engine.WithSeed(*opts.Seed))
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sessionID = sess.ID
	s.beginDeal(sess)

	return s.sessionInfo(sess, opts.ConfigName), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(sess, ""), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, ""))
	}
	return result, nil
}

// DeleteSession removes a session and stops its deal
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return fmt.Errorf("session not found: %w", err)
	}
	s.stopDeal(sess.ID)
	return s.sessions.Delete(sessionID)
}

// command runs fn against a session's engine under the write lock and publishes the outcome
func (s *gameServiceImpl) command(sessionID string, fn func(sess *Session) []engine.Event) (*CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	events := fn(sess)
	state := sess.Engine.Snapshot()
	s.publish(sess.ID, state, events)

	if events == nil {
		events = []engine.Event{}
	}
	return &CommandResult{
		Success:   succeeded(events),
		GameState: state,
		Message:   state.Message,
		Events:    events,
	}, nil
}

// succeeded reports whether a command changed the table. A rollback is not a success.
func succeeded(events []engine.Event) bool {
	if len(events) == 0 {
		return false
	}
	for _, ev := range events {
		if ev.Type == engine.EventMoveRolledBack {
			return false
		}
	}
	return true
}

func (s *gameServiceImpl) publish(sessionID string, state *engine.GameState, events []engine.Event) {
	if s.broadcaster == nil || len(events) == 0 {
		return
	}
	s.broadcaster.Publish(sessionID, state, events)
}

// NewGame abandons the current game and deals a new one
func (s *gameServiceImpl) NewGame(ctx context.Context, sessionID string) (*CommandResult, error) {
	return s.command(sessionID, func(sess *Session) []engine.Event {
		events := sess.Engine.NewGame()
		return append(events, s.beginDeal(sess)...)
	})
}

// Draw turns a stock card or recycles the waste
func (s *gameServiceImpl) Draw(ctx context.Context, sessionID string) (*CommandResult, error) {
	return s.command(sessionID, func(sess *Session) []engine.Event {
		return sess.Engine.DrawStockOrRecycle()
	})
}

// Pickup lifts a run from a pile or from under a pointer position
func (s *gameServiceImpl) Pickup(ctx context.Context, sessionID string, req PickupRequest) (*CommandResult, error) {
	if req.Pile == nil && req.Point == nil {
		return nil, fmt.Errorf("pickup needs a pile or a point: %w", ErrInvalidRequest)
	}
	if req.Pile != nil && !req.Pile.Valid() {
		return nil, fmt.Errorf("unknown pile %s: %w", req.Pile, ErrInvalidRequest)
	}
	return s.command(sessionID, func(sess *Session) []engine.Event {
		if req.Point != nil {
			return sess.Engine.PickupAt(*req.Point)
		}
		index := -1
		if req.Index != nil {
			index = *req.Index
		}
		return sess.Engine.BeginPickup(*req.Pile, index, req.Offset)
	})
}

// Drag records the pointer position of the held run
func (s *gameServiceImpl) Drag(ctx context.Context, sessionID string, point engine.Point) (*CommandResult, error) {
	return s.command(sessionID, func(sess *Session) []engine.Event {
		sess.Engine.UpdateDragPosition(point)
		return nil
	})
}

// Drop lands the held run at a pointer position or on a named pile
func (s *gameServiceImpl) Drop(ctx context.Context, sessionID string, req DropRequest) (*CommandResult, error) {
	if req.Point == nil && req.Target == nil {
		return nil, fmt.Errorf("drop needs a point or a target: %w", ErrInvalidRequest)
	}
	return s.command(sessionID, func(sess *Session) []engine.Event {
		if req.Target != nil {
			return sess.Engine.ResolveDropOn(*req.Target)
		}
		return sess.Engine.ResolveDrop(*req.Point)
	})
}

// Move transfers cards between two piles in one call
func (s *gameServiceImpl) Move(ctx context.Context, sessionID string, move engine.Move) (*CommandResult, error) {
	if !move.From.Valid() || !move.To.Valid() {
		return nil, fmt.Errorf("unknown pile in move %s -> %s: %w", move.From, move.To, ErrInvalidRequest)
	}
	return s.command(sessionID, func(sess *Session) []engine.Event {
		return sess.Engine.Move(move.From, move.Index, move.To)
	})
}

// Pause stops the clock of a playable game
func (s *gameServiceImpl) Pause(ctx context.Context, sessionID string) (*CommandResult, error) {
	return s.command(sessionID, func(sess *Session) []engine.Event {
		return sess.Engine.Pause()
	})
}

// Resume continues a paused game
func (s *gameServiceImpl) Resume(ctx context.Context, sessionID string) (*CommandResult, error) {
	return s.command(sessionID, func(sess *Session) []engine.Event {
		return sess.Engine.Resume()
	})
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.Snapshot(), nil
}

// GetLegalMoves lists the moves that would commit right now
func (s *gameServiceImpl) GetLegalMoves(ctx context.Context, sessionID string) ([]engine.Move, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	moves := sess.Engine.LegalMoves()
	if moves == nil {
		moves = []engine.Move{}
	}
	return moves, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}
	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available table configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific table configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a table configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// Close stops every running deal
func (s *gameServiceImpl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.dealers {
		s.stopDeal(id)
	}
	return nil
}

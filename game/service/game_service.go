package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/klondike/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidRequest  = errors.New("invalid request")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, opts CreateSessionOptions) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	NewGame(ctx context.Context, sessionID string) (*CommandResult, error)
	Draw(ctx context.Context, sessionID string) (*CommandResult, error)
	Pickup(ctx context.Context, sessionID string, req PickupRequest) (*CommandResult, error)
	Drag(ctx context.Context, sessionID string, point engine.Point) (*CommandResult, error)
	Drop(ctx context.Context, sessionID string, req DropRequest) (*CommandResult, error)
	Move(ctx context.Context, sessionID string, move engine.Move) (*CommandResult, error)
	Pause(ctx context.Context, sessionID string) (*CommandResult, error)
	Resume(ctx context.Context, sessionID string) (*CommandResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	GetLegalMoves(ctx context.Context, sessionID string) ([]engine.Move, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error

	// Close stops every background deal
	Close() error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig, opts ...engine.EngineOption) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Broadcaster receives every state change so it can be pushed to connected clients.
// Publish is called with the service lock held and must not block.
type Broadcaster interface {
	Publish(sessionID string, state *engine.GameState, events []engine.Event)
}

// Session represents an active game session. The engine is guarded by the game service
// lock; the access time has its own lock because readers only hold that lock shared.
type Session struct {
	ID        string
	Engine    *engine.GameEngine
	Config    *engine.GameConfig
	CreatedAt time.Time

	accessMu     sync.Mutex
	lastAccessed time.Time
}

// Touch records t as the last access
func (s *Session) Touch(t time.Time) {
	s.accessMu.Lock()
	s.lastAccessed = t
	s.accessMu.Unlock()
}

// LastAccessed returns the time of the last access
func (s *Session) LastAccessed() time.Time {
	s.accessMu.Lock()
	defer s.accessMu.Unlock()
	return s.lastAccessed
}

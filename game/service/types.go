package service

import (
	"time"

	"github.com/wricardo/klondike/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// CreateSessionOptions selects the table and, optionally, the first deal
type CreateSessionOptions struct {
	ConfigName string  `json:"config_id,omitempty"`
	Seed       *uint64 `json:"seed,omitempty"`
}

// PickupRequest names either a pile position or a pointer position. Index nil means the top
// card.
type PickupRequest struct {
	Pile   *engine.PileRef `json:"pile,omitempty"`
	Index  *int            `json:"index,omitempty"`
	Offset engine.Point    `json:"offset"`
	Point  *engine.Point   `json:"point,omitempty"`
}

// DropRequest names either a pointer position or a target pile
type DropRequest struct {
	Point  *engine.Point   `json:"point,omitempty"`
	Target *engine.PileRef `json:"target,omitempty"`
}

// CommandResult contains the result of a table or session command
type CommandResult struct {
	Success   bool              `json:"success"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
	Events    []engine.Event    `json:"events"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename       string `json:"filename"`
	ConfigID       string `json:"config_id"` // The identifier to use for session creation
	Name           string `json:"name"`      // Display name
	Description    string `json:"description"`
	DealIntervalMS int    `json:"deal_interval_ms"`
}

package engine

import (
	"fmt"
	"time"
)

const (
	MinCardSize       = 10
	MaxCardSize       = 500
	MaxDealIntervalMS = 5000
)

// GameConfig describes a table: how it is laid out and how fast the opening deal is paced
type GameConfig struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	DealIntervalMS int      `json:"deal_interval_ms"`
	Geometry       Geometry `json:"geometry"`
}

// DealInterval returns the pause between two dealt cards. Zero means deal instantly.
func (c *GameConfig) DealInterval() time.Duration {
	return time.Duration(c.DealIntervalMS) * time.Millisecond
}

// DefaultGameConfig returns the classic table with the classic deal pace
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:           "classic",
		Description:    "Classic Klondike table, one card per draw",
		DealIntervalMS: 150,
		Geometry:       DefaultGeometry(),
	}
}

// ValidateGameConfig validates a table configuration for correctness
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is required")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}
	if config.DealIntervalMS < 0 || config.DealIntervalMS > MaxDealIntervalMS {
		return fmt.Errorf("config validation: deal_interval_ms must be between 0 and %d, got %d",
			MaxDealIntervalMS, config.DealIntervalMS)
	}
	return ValidateGeometry(config.Geometry)
}

// ValidateGeometry checks card sizes and that the top-row piles do not overlap each other or
// the tableaus
func ValidateGeometry(g Geometry) error {
	if g.CardWidth < MinCardSize || g.CardWidth > MaxCardSize {
		return fmt.Errorf("config validation: card_width must be between %d and %d, got %d", MinCardSize, MaxCardSize, g.CardWidth)
	}
	if g.CardHeight < MinCardSize || g.CardHeight > MaxCardSize {
		return fmt.Errorf("config validation: card_height must be between %d and %d, got %d", MinCardSize, MaxCardSize, g.CardHeight)
	}
	if g.OverlapY < 1 || g.OverlapY >= g.CardHeight {
		return fmt.Errorf("config validation: overlap_y must be between 1 and card_height-1, got %d", g.OverlapY)
	}
	if g.HorizontalSpacing < 1 {
		return fmt.Errorf("config validation: horizontal_spacing must be positive, got %d", g.HorizontalSpacing)
	}
	if g.TableauStart.X < 0 || g.TableauStart.Y < 0 || g.FoundationStart.X < 0 || g.FoundationStart.Y < 0 {
		return fmt.Errorf("config validation: pile origins must not be negative")
	}

	top := []struct {
		name string
		rect Rect
	}{
		{"stock", g.StockRect()},
		{"waste", g.WasteRect()},
	}
	for i := 0; i < FoundationCount; i++ {
		top = append(top, struct {
			name string
			rect Rect
		}{fmt.Sprintf("foundation %d", i), g.FoundationRect(i)})
	}
	for i := range top {
		for j := i + 1; j < len(top); j++ {
			if top[i].rect.Overlaps(top[j].rect) {
				return fmt.Errorf("config validation: %s overlaps %s", top[i].name, top[j].name)
			}
		}
	}

	if g.TableauStart.Y <= g.FoundationStart.Y+g.CardHeight {
		return fmt.Errorf("config validation: tableau_start.y must be below the foundation row (> %d), got %d",
			g.FoundationStart.Y+g.CardHeight, g.TableauStart.Y)
	}
	return nil
}

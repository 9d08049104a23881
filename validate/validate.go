// Command validate checks the table configuration JSON files in a configs directory
// (../configs unless a directory is given). It checks:
//   - JSON structure, rejecting unknown fields
//   - Required fields, deal pace and card geometry, as the server does on load
//   - That a trial deal on the table places all 28 cards and keeps the table consistent
//
// Valid files also get informational lines: deal duration and table height.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wricardo/klondike/game/clock"
	"github.com/wricardo/klondike/game/engine"
)

// deepestTableau is the longest run a tableau can hold: six face-down cards under a
// full King to Ace sequence
const deepestTableau = 6 + 13

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration JSON file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	trial := validateDeal(&config)
	if !trial.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, trial.Errors...)
	if !result.Valid {
		return result
	}

	deal := time.Duration(engine.DealCount) * config.DealInterval()
	if deal == 0 {
		result.Errors = append(result.Errors, "✓ Instant deal")
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Deal takes %s", clock.Format(deal)))
	}

	g := config.Geometry
	bottom := g.TableauCardOrigin(0, deepestTableau-1).Y + g.CardHeight
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Table height: %dpx", bottom))

	return result
}

// validateDeal deals a game on the table and checks the board afterwards
func validateDeal(config *engine.GameConfig) ValidationResult {
	result := ValidationResult{Valid: true}

	e, err := engine.NewEngine(config, engine.WithSeed(1))
	if err != nil {
		result.fail("Engine rejected the table: %v", err)
		return result
	}
	e.DealAll()
	state := e.Snapshot()

	if state.Phase != engine.PhasePlayable {
		result.fail("Table is %s after the deal, expected playable", state.Phase)
	}
	if state.DealtCards != engine.DealCount {
		result.fail("Deal placed %d cards, expected %d", state.DealtCards, engine.DealCount)
	}
	if err := e.Validate(); err != nil {
		result.fail("Table is inconsistent after the deal: %v", err)
	}

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Deal places %d cards, %d left in stock",
			state.DealtCards, len(state.Stock.Cards)))
	}
	return result
}

// main validates every *.json file in the directory, printing a concise report and exiting
// with non-zero status if any are invalid
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}
	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No config files in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}

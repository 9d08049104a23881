package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/klondike/game/engine"
	"github.com/wricardo/klondike/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = service.ErrInvalidConfig
)

// DefaultConfigName is the table loaded as the default when present
const DefaultConfigName = "classic"

const ext = ".json"

// Manager serves the tables stored as JSON files in one directory. Every table read is
// validated and cached until RefreshCache.
type Manager struct {
	dir string

	mu     sync.RWMutex
	tables map[string]*engine.GameConfig
	def    *engine.GameConfig
}

// NewManager opens dir and picks the default table
func NewManager(dir string) (*Manager, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("config directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config directory: %s is not a directory", dir)
	}

	m := &Manager{dir: dir, tables: make(map[string]*engine.GameConfig)}
	m.pickDefault()
	return m, nil
}

// tableName strips the extension and rejects names that would leave the directory
func tableName(name string) (string, error) {
	name = strings.TrimSuffix(name, ext)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: bad config name %q", ErrInvalidConfig, name)
	}
	return name, nil
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.dir, name+ext)
}

// LoadConfig returns the table stored as name, with or without the .json extension
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	name, err := tableName(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	table, ok := m.tables[name]
	m.mu.RUnlock()
	if ok {
		return table, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if table, ok := m.tables[name]; ok {
		return table, nil
	}
	if table, err = m.read(name); err != nil {
		return nil, err
	}
	m.tables[name] = table
	return table, nil
}

// read decodes and validates one file. Unknown fields are rejected the way validate does.
func (m *Manager) read(name string) (*engine.GameConfig, error) {
	data, err := os.ReadFile(m.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrConfigNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var table engine.GameConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&table); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, name, err)
	}
	if err := engine.ValidateGameConfig(&table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &table, nil
}

// ListConfigs describes every valid table in the directory, in file name order. Files that
// fail to load are left out.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	files, err := filepath.Glob(filepath.Join(m.dir, "*"+ext))
	if err != nil {
		return nil, fmt.Errorf("failed to list config directory: %w", err)
	}

	infos := make([]*service.ConfigInfo, 0, len(files))
	for _, file := range files {
		id := strings.TrimSuffix(filepath.Base(file), ext)
		table, err := m.LoadConfig(id)
		if err != nil {
			continue
		}
		infos = append(infos, &service.ConfigInfo{
			Filename:       filepath.Base(file),
			ConfigID:       id,
			Name:           table.Name,
			Description:    table.Description,
			DealIntervalMS: table.DealIntervalMS,
		})
	}
	return infos, nil
}

func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.def
}

// SetDefault makes the named table the default
func (m *Manager) SetDefault(name string) error {
	table, err := m.LoadConfig(name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.def = table
	m.mu.Unlock()
	return nil
}

// RefreshCache forgets every loaded table and picks the default again from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.tables = make(map[string]*engine.GameConfig)
	m.mu.Unlock()

	m.pickDefault()
	return nil
}

// pickDefault prefers classic.json, then the first valid file, then builtinTable
func (m *Manager) pickDefault() {
	table, err := m.LoadConfig(DefaultConfigName)
	if err != nil {
		table = builtinTable()
		if infos, _ := m.ListConfigs(); len(infos) > 0 {
			if first, err := m.LoadConfig(infos[0].ConfigID); err == nil {
				table = first
			}
		}
	}

	m.mu.Lock()
	m.def = table
	m.mu.Unlock()
}

// SaveConfig validates config and writes it as name.json
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	name, err := tableName(name)
	if err != nil {
		return err
	}
	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(m.path(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.tables[name] = config
	m.mu.Unlock()
	return nil
}

// builtinTable is the default when the directory holds no valid table
func builtinTable() *engine.GameConfig {
	table := engine.DefaultGameConfig()
	table.Name = "default"
	table.Description = "Built-in classic table"
	return table
}

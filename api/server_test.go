package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/klondike/game/engine"
	"github.com/wricardo/klondike/game/service"
	"github.com/wricardo/klondike/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Table Operations
	NewGameFunc func(ctx context.Context, sessionID string) (*service.CommandResult, error)
	DrawFunc    func(ctx context.Context, sessionID string) (*service.CommandResult, error)
	PickupFunc  func(ctx context.Context, sessionID string, req service.PickupRequest) (*service.CommandResult, error)
	DragFunc    func(ctx context.Context, sessionID string, point engine.Point) (*service.CommandResult, error)
	DropFunc    func(ctx context.Context, sessionID string, req service.DropRequest) (*service.CommandResult, error)
	MoveFunc    func(ctx context.Context, sessionID string, move engine.Move) (*service.CommandResult, error)
	PauseFunc   func(ctx context.Context, sessionID string) (*service.CommandResult, error)
	ResumeFunc  func(ctx context.Context, sessionID string) (*service.CommandResult, error)

	// Game State
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)
	GetLegalMovesFunc  func(ctx context.Context, sessionID string) ([]engine.Move, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error
}

func okResult() *service.CommandResult {
	return &service.CommandResult{
		Success:   true,
		GameState: &engine.GameState{Phase: engine.PhasePlayable},
		Events:    []engine.Event{{Type: engine.EventDraw}},
	}
}

func notFound(sessionID string) error {
	return fmt.Errorf("session not found: %s: %w", sessionID, service.ErrSessionNotFound)
}

// Session Management
func (m *MockGameService) CreateSession(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, opts)
	}
	return &service.SessionInfo{
		ID:         "test-session",
		ConfigName: opts.ConfigName,
		CreatedAt:  time.Now(),
		GameState:  &engine.GameState{Phase: engine.PhaseDealing},
	}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{
		ID:         sessionID,
		ConfigName: "test-config",
		CreatedAt:  time.Now(),
	}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

// Table Operations
func (m *MockGameService) NewGame(ctx context.Context, sessionID string) (*service.CommandResult, error) {
	if m.NewGameFunc != nil {
		return m.NewGameFunc(ctx, sessionID)
	}
	return okResult(), nil
}

func (m *MockGameService) Draw(ctx context.Context, sessionID string) (*service.CommandResult, error) {
	if m.DrawFunc != nil {
		return m.DrawFunc(ctx, sessionID)
	}
	return okResult(), nil
}

func (m *MockGameService) Pickup(ctx context.Context, sessionID string, req service.PickupRequest) (*service.CommandResult, error) {
	if m.PickupFunc != nil {
		return m.PickupFunc(ctx, sessionID, req)
	}
	return okResult(), nil
}

func (m *MockGameService) Drag(ctx context.Context, sessionID string, point engine.Point) (*service.CommandResult, error) {
	if m.DragFunc != nil {
		return m.DragFunc(ctx, sessionID, point)
	}
	return okResult(), nil
}

func (m *MockGameService) Drop(ctx context.Context, sessionID string, req service.DropRequest) (*service.CommandResult, error) {
	if m.DropFunc != nil {
		return m.DropFunc(ctx, sessionID, req)
	}
	return okResult(), nil
}

func (m *MockGameService) Move(ctx context.Context, sessionID string, move engine.Move) (*service.CommandResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, move)
	}
	return okResult(), nil
}

func (m *MockGameService) Pause(ctx context.Context, sessionID string) (*service.CommandResult, error) {
	if m.PauseFunc != nil {
		return m.PauseFunc(ctx, sessionID)
	}
	return okResult(), nil
}

func (m *MockGameService) Resume(ctx context.Context, sessionID string) (*service.CommandResult, error) {
	if m.ResumeFunc != nil {
		return m.ResumeFunc(ctx, sessionID)
	}
	return okResult(), nil
}

// Game State
func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Moves:      []engine.MoveHistoryEntry{},
		TotalMoves: 0,
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

func (m *MockGameService) GetLegalMoves(ctx context.Context, sessionID string) ([]engine.Move, error) {
	if m.GetLegalMovesFunc != nil {
		return m.GetLegalMovesFunc(ctx, sessionID)
	}
	return []engine.Move{}, nil
}

// Configuration
func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.GameConfig{
		Name:        configName,
		Description: "Test config",
		Geometry:    engine.DefaultGeometry(),
	}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

func (m *MockGameService) Close() error {
	return nil
}

// Test helpers
func setupTestServer(mockService *MockGameService) *Server {
	hub := websocket.NewHub()
	go hub.Run()
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func makeRawRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func serve(server *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	seed := uint64(42)

	tests := []struct {
		name           string
		request        *http.Request
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:    "Create session with default config",
			request: makeRequest("POST", "/api/sessions", nil),
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
					if opts.ConfigName != "" || opts.Seed != nil {
						t.Errorf("Expected empty options, got %+v", opts)
					}
					return &service.SessionInfo{
						ID:             "sess-123",
						ConfigName:     "classic",
						CreatedAt:      time.Now(),
						LastAccessedAt: time.Now(),
					}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "sess-123" {
					t.Errorf("Expected session ID sess-123, got %s", resp.ID)
				}
			},
		},
		{
			name:    "Create session with config and seed",
			request: makeRequest("POST", "/api/sessions", map[string]interface{}{"config_id": "instant", "seed": seed}),
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
					if opts.ConfigName != "instant" {
						t.Errorf("Expected config 'instant', got %s", opts.ConfigName)
					}
					if opts.Seed == nil || *opts.Seed != seed {
						t.Errorf("Expected seed %d, got %v", seed, opts.Seed)
					}
					return &service.SessionInfo{
						ID:         "sess-456",
						ConfigName: opts.ConfigName,
						GameState:  &engine.GameState{Seed: *opts.Seed},
					}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != "instant" || resp.GameState.Seed != seed {
					t.Errorf("Unexpected session %+v", resp)
				}
			},
		},
		{
			name:    "Deprecated config_name is accepted",
			request: makeRequest("POST", "/api/sessions", map[string]string{"config_name": "classic"}),
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
					if opts.ConfigName != "classic" {
						t.Errorf("Expected config 'classic', got %s", opts.ConfigName)
					}
					return &service.SessionInfo{ID: "sess-789", ConfigName: opts.ConfigName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:    "Unknown config",
			request: makeRequest("POST", "/api/sessions", map[string]string{"config_id": "nope"}),
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("config 'nope' not found: %w", service.ErrConfigNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Malformed body",
			request:        makeRawRequest("POST", "/api/sessions", "{not json"),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "Handle service error",
			request: makeRequest("POST", "/api/sessions", nil),
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["error"] != "service error" {
					t.Errorf("Expected error message 'service error', got %s", resp["error"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			w := serve(setupTestServer(mockService), tt.request)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: now.Add(-3 * time.Hour), LastAccessedAt: now.Add(-time.Minute)},
				{ID: "mid", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-2 * time.Hour)},
			}, nil
		},
	}
	server := setupTestServer(mockService)

	tests := []struct {
		name      string
		query     string
		wantIDs   []string
		wantTotal float64
	}{
		{"default sorts by access, newest first", "", []string{"old", "mid", "new"}, 3},
		{"created ascending", "?sort=created&order=asc", []string{"old", "mid", "new"}, 3},
		{"created descending", "?sort=created", []string{"new", "mid", "old"}, 3},
		{"limit", "?sort=created&limit=2", []string{"new", "mid"}, 3},
		{"bad limit ignored", "?limit=abc", []string{"old", "mid", "new"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(server, makeRequest("GET", "/api/sessions"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    float64                `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Count != len(tt.wantIDs) || resp.Total != tt.wantTotal {
				t.Errorf("Expected count %d total %v, got %d %v", len(tt.wantIDs), tt.wantTotal, resp.Count, resp.Total)
			}
			for i, id := range tt.wantIDs {
				if i >= len(resp.Sessions) || resp.Sessions[i].ID != id {
					t.Errorf("Expected session %d to be %s, got %+v", i, id, resp.Sessions)
					break
				}
			}
		})
	}

	t.Run("Handle service error", func(t *testing.T) {
		failing := &MockGameService{
			ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
				return nil, fmt.Errorf("database error")
			},
		}
		w := serve(setupTestServer(failing), makeRequest("GET", "/api/sessions", nil))
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", w.Code)
		}
	})
}

func TestGetSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "sess-1" {
				return nil, notFound(sessionID)
			}
			return &service.SessionInfo{ID: sessionID, ConfigName: "classic"}, nil
		},
	}
	server := setupTestServer(mockService)

	t.Run("found", func(t *testing.T) {
		w := serve(server, makeRequest("GET", "/api/sessions/sess-1", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var resp service.SessionInfo
		parseResponse(t, w, &resp)
		if resp.ID != "sess-1" || resp.ConfigName != "classic" {
			t.Errorf("Unexpected session %+v", resp)
		}
	})

	t.Run("not found", func(t *testing.T) {
		w := serve(server, makeRequest("GET", "/api/sessions/missing", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

func TestDeleteSession(t *testing.T) {
	var deleted string
	mockService := &MockGameService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "missing" {
				return notFound(sessionID)
			}
			deleted = sessionID
			return nil
		},
	}
	server := setupTestServer(mockService)

	w := serve(server, makeRequest("DELETE", "/api/sessions/sess-1", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if deleted != "sess-1" {
		t.Errorf("Expected sess-1 to be deleted, got %q", deleted)
	}

	w = serve(server, makeRequest("DELETE", "/api/sessions/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Table Operation Tests

func TestTableCommands(t *testing.T) {
	var called []string
	record := func(name string) func(ctx context.Context, sessionID string) (*service.CommandResult, error) {
		return func(ctx context.Context, sessionID string) (*service.CommandResult, error) {
			if sessionID == "missing" {
				return nil, notFound(sessionID)
			}
			called = append(called, name+":"+sessionID)
			return okResult(), nil
		}
	}
	mockService := &MockGameService{
		NewGameFunc: record("new-game"),
		DrawFunc:    record("draw"),
		PauseFunc:   record("pause"),
		ResumeFunc:  record("resume"),
	}
	server := setupTestServer(mockService)

	for _, action := range []string{"new-game", "draw", "pause", "resume"} {
		t.Run(action, func(t *testing.T) {
			called = nil
			w := serve(server, makeRequest("POST", "/api/sessions/s1/"+action, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			if len(called) != 1 || called[0] != action+":s1" {
				t.Errorf("Expected %s to be called once, got %v", action, called)
			}

			var resp service.CommandResult
			parseResponse(t, w, &resp)
			if !resp.Success || resp.GameState == nil {
				t.Errorf("Unexpected result %+v", resp)
			}

			w = serve(server, makeRequest("POST", "/api/sessions/missing/"+action, nil))
			if w.Code != http.StatusNotFound {
				t.Errorf("Expected status 404 for unknown session, got %d", w.Code)
			}
		})
	}
}

func TestPickup(t *testing.T) {
	var got service.PickupRequest
	mockService := &MockGameService{
		PickupFunc: func(ctx context.Context, sessionID string, req service.PickupRequest) (*service.CommandResult, error) {
			if req.Pile == nil && req.Point == nil {
				return nil, fmt.Errorf("pickup needs a pile or a point: %w", service.ErrInvalidRequest)
			}
			got = req
			return okResult(), nil
		},
	}
	server := setupTestServer(mockService)

	t.Run("by pile", func(t *testing.T) {
		body := `{"pile":{"kind":"tableau","index":3},"index":2,"offset":{"x":5,"y":7}}`
		w := serve(server, makeRawRequest("POST", "/api/sessions/s1/pickup", body))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if got.Pile == nil || *got.Pile != engine.Tableau(3) {
			t.Errorf("Expected tableau 3, got %v", got.Pile)
		}
		if got.Index == nil || *got.Index != 2 {
			t.Errorf("Expected index 2, got %v", got.Index)
		}
		if got.Offset != (engine.Point{X: 5, Y: 7}) {
			t.Errorf("Expected offset (5,7), got %+v", got.Offset)
		}
	})

	t.Run("by point", func(t *testing.T) {
		w := serve(server, makeRawRequest("POST", "/api/sessions/s1/pickup", `{"point":{"x":60,"y":160}}`))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if got.Point == nil || *got.Point != (engine.Point{X: 60, Y: 160}) {
			t.Errorf("Expected point (60,160), got %v", got.Point)
		}
	})

	t.Run("empty request", func(t *testing.T) {
		w := serve(server, makeRawRequest("POST", "/api/sessions/s1/pickup", `{}`))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		w := serve(server, makeRawRequest("POST", "/api/sessions/s1/pickup", `{"pile":`))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestDragAndDrop(t *testing.T) {
	var dragged engine.Point
	var dropped service.DropRequest
	mockService := &MockGameService{
		DragFunc: func(ctx context.Context, sessionID string, point engine.Point) (*service.CommandResult, error) {
			dragged = point
			return okResult(), nil
		},
		DropFunc: func(ctx context.Context, sessionID string, req service.DropRequest) (*service.CommandResult, error) {
			dropped = req
			return &service.CommandResult{
				Success:   false,
				GameState: &engine.GameState{},
				Events:    []engine.Event{{Type: engine.EventMoveRolledBack}},
			}, nil
		},
	}
	server := setupTestServer(mockService)

	w := serve(server, makeRawRequest("POST", "/api/sessions/s1/drag", `{"point":{"x":300,"y":200}}`))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if dragged != (engine.Point{X: 300, Y: 200}) {
		t.Errorf("Expected drag to (300,200), got %+v", dragged)
	}

	w = serve(server, makeRawRequest("POST", "/api/sessions/s1/drag", `{}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for drag without point, got %d", w.Code)
	}

	w = serve(server, makeRawRequest("POST", "/api/sessions/s1/drop", `{"target":{"kind":"foundation","index":1}}`))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if dropped.Target == nil || *dropped.Target != engine.Foundation(1) {
		t.Errorf("Expected drop on foundation 1, got %+v", dropped)
	}

	var resp service.CommandResult
	parseResponse(t, w, &resp)
	if resp.Success {
		t.Error("Rollback should be reported as success=false")
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedMove   *engine.Move
	}{
		{
			name:           "top card by default",
			body:           `{"from":{"kind":"waste"},"to":{"kind":"foundation","index":0}}`,
			expectedStatus: http.StatusOK,
			expectedMove:   &engine.Move{From: engine.WasteRef, Index: -1, To: engine.Foundation(0)},
		},
		{
			name:           "run from index",
			body:           `{"from":{"kind":"tableau","index":6},"index":4,"to":{"kind":"tableau","index":1}}`,
			expectedStatus: http.StatusOK,
			expectedMove:   &engine.Move{From: engine.Tableau(6), Index: 4, To: engine.Tableau(1)},
		},
		{
			name:           "missing target",
			body:           `{"from":{"kind":"waste"}}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown pile",
			body:           `{"from":{"kind":"tableau","index":9},"to":{"kind":"waste"}}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			body:           `nope`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *engine.Move
			mockService := &MockGameService{
				MoveFunc: func(ctx context.Context, sessionID string, move engine.Move) (*service.CommandResult, error) {
					if !move.From.Valid() || !move.To.Valid() {
						return nil, fmt.Errorf("unknown pile: %w", service.ErrInvalidRequest)
					}
					got = &move
					return okResult(), nil
				},
			}

			w := serve(setupTestServer(mockService), makeRawRequest("POST", "/api/sessions/s1/move", tt.body))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedMove != nil && (got == nil || *got != *tt.expectedMove) {
				t.Errorf("Expected move %+v, got %+v", tt.expectedMove, got)
			}
		})
	}
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected service.HistoryOptions
	}{
		{"defaults", "", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"explicit", "?page=3&limit=5&order=asc", service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}},
		{"invalid values fall back", "?page=-1&limit=x&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.HistoryOptions
			mockService := &MockGameService{
				GetMoveHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Moves: []engine.MoveHistoryEntry{}, Page: opts.Page}, nil
				},
			}

			w := serve(setupTestServer(mockService), makeRequest("GET", "/api/sessions/s1/history"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			if got != tt.expected {
				t.Errorf("Expected options %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestGetGameState(t *testing.T) {
	mockService := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID == "missing" {
				return nil, notFound(sessionID)
			}
			return &engine.GameState{GameID: "g1", Phase: engine.PhasePaused, Elapsed: "00:42"}, nil
		},
	}
	server := setupTestServer(mockService)

	w := serve(server, makeRequest("GET", "/api/sessions/s1/state", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var state engine.GameState
	parseResponse(t, w, &state)
	if state.Phase != engine.PhasePaused || state.Elapsed != "00:42" {
		t.Errorf("Unexpected state %+v", state)
	}

	w = serve(server, makeRequest("GET", "/api/sessions/missing/state", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestLegalMoves(t *testing.T) {
	mockService := &MockGameService{
		GetLegalMovesFunc: func(ctx context.Context, sessionID string) ([]engine.Move, error) {
			return []engine.Move{
				{From: engine.StockRef, Index: -1, To: engine.WasteRef},
				{From: engine.Tableau(0), Index: 0, To: engine.Foundation(0)},
			}, nil
		},
	}

	w := serve(setupTestServer(mockService), makeRequest("GET", "/api/sessions/s1/moves", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Count int           `json:"count"`
		Moves []engine.Move `json:"moves"`
	}
	parseResponse(t, w, &resp)
	if resp.Count != 2 || resp.Moves[1].To != engine.Foundation(0) {
		t.Errorf("Unexpected legal moves %+v", resp)
	}
}

// Configuration Tests

func TestListConfigs(t *testing.T) {
	mockService := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{
				{Filename: "classic.json", ConfigID: "classic", Name: "Classic", DealIntervalMS: 150},
				{Filename: "instant.json", ConfigID: "instant", Name: "Instant"},
			}, nil
		},
	}

	w := serve(setupTestServer(mockService), makeRequest("GET", "/api/configs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var configs []*service.ConfigInfo
	parseResponse(t, w, &configs)
	if len(configs) != 2 || configs[0].DealIntervalMS != 150 {
		t.Errorf("Unexpected configs %+v", configs)
	}
}

func TestGetConfig(t *testing.T) {
	mockService := &MockGameService{
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.GameConfig, error) {
			if configName != "classic" {
				return nil, fmt.Errorf("%s: %w", configName, service.ErrConfigNotFound)
			}
			return engine.DefaultGameConfig(), nil
		},
	}
	server := setupTestServer(mockService)

	for _, path := range []string{"/api/configs/classic", "/api/configs/classic.json"} {
		w := serve(server, makeRequest("GET", path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, w.Code)
			continue
		}
		var config engine.GameConfig
		parseResponse(t, w, &config)
		if config.Geometry != engine.DefaultGeometry() {
			t.Errorf("%s: unexpected geometry %+v", path, config.Geometry)
		}
	}

	w := serve(server, makeRequest("GET", "/api/configs/unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCreateConfig(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]interface{}
		saveErr        error
		expectedStatus int
		expectedID     string
	}{
		{
			name:           "id derived from name",
			body:           map[string]interface{}{"name": "My Table", "description": "d", "geometry": engine.DefaultGeometry()},
			expectedStatus: http.StatusCreated,
			expectedID:     "my_table",
		},
		{
			name:           "explicit id",
			body:           map[string]interface{}{"config_id": "fast", "name": "Fast", "description": "d"},
			expectedStatus: http.StatusCreated,
			expectedID:     "fast",
		},
		{
			name:           "missing name",
			body:           map[string]interface{}{"description": "d"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid config",
			body:           map[string]interface{}{"name": "Broken", "description": "d"},
			saveErr:        fmt.Errorf("config validation: card_width: %w", service.ErrInvalidConfig),
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var savedID string
			var saved *engine.GameConfig
			mockService := &MockGameService{
				SaveConfigFunc: func(ctx context.Context, configName string, config *engine.GameConfig) error {
					savedID, saved = configName, config
					return tt.saveErr
				},
			}

			w := serve(setupTestServer(mockService), makeRequest("POST", "/api/configs", tt.body))
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedID == "" {
				return
			}
			if savedID != tt.expectedID {
				t.Errorf("Expected config id %s, got %s", tt.expectedID, savedID)
			}
			if saved == nil || saved.Name != tt.body["name"] {
				t.Errorf("Expected config named %v to be saved, got %+v", tt.body["name"], saved)
			}
		})
	}
}

func TestUnifiedSessions(t *testing.T) {
	sessions := map[string]*service.SessionInfo{
		"a": {ID: "a", ConfigName: "classic", GameState: &engine.GameState{Won: true}},
		"b": {ID: "b", ConfigName: "classic", GameState: &engine.GameState{}},
		"c": {ID: "c", ConfigName: "instant", GameState: &engine.GameState{Won: true}},
	}
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, id string) (*service.SessionInfo, error) {
			if s, ok := sessions[id]; ok {
				return s, nil
			}
			return nil, notFound(id)
		},
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{sessions["a"], sessions["b"], sessions["c"]}, nil
		},
	}
	server := setupTestServer(mockService)

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantWon   float64
	}{
		{"all", "", 3, 2},
		{"by ids skips unknown", "?sessionIds=a,%20zz,c", 2, 2},
		{"by config", "?configName=classic", 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(server, makeRequest("GET", "/api/sessions/unified"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			var resp map[string]interface{}
			parseResponse(t, w, &resp)
			if n := len(resp["sessions"].([]interface{})); n != tt.wantCount {
				t.Errorf("Expected %d sessions, got %d", tt.wantCount, n)
			}
			if resp["won_count"].(float64) != tt.wantWon {
				t.Errorf("Expected won_count %v, got %v", tt.wantWon, resp["won_count"])
			}
		})
	}
}

func TestSessionQR(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, id string) (*service.SessionInfo, error) {
			if id != "s1" {
				return nil, notFound(id)
			}
			return &service.SessionInfo{ID: id}, nil
		},
	}
	server := setupTestServer(mockService)

	req := makeRequest("GET", "/api/sessions/s1/qr", nil)
	req.Host = "table.example.com"
	w := serve(server, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %s", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("Body is not a PNG")
	}
	if url := w.Header().Get("X-Share-URL"); url != "http://table.example.com/?session=s1" {
		t.Errorf("Unexpected share URL %s", url)
	}

	w = serve(server, makeRequest("GET", "/api/sessions/zz/qr", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestShareURL(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/sessions/s1/qr", nil)
	req.Host = "abc.ngrok.app"
	req.Header.Set("X-Forwarded-Proto", "https")

	if got := shareURL(req, "s1"); got != "https://abc.ngrok.app/?session=s1" {
		t.Errorf("Unexpected share URL %s", got)
	}
}

func TestHealth(t *testing.T) {
	w := serve(setupTestServer(&MockGameService{}), makeRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp map[string]string
	parseResponse(t, w, &resp)
	if resp["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", resp)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", service.ErrSessionNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", service.ErrConfigNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", service.ErrInvalidRequest), http.StatusBadRequest},
		{fmt.Errorf("x: %w", service.ErrInvalidConfig), http.StatusBadRequest},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Missing session parameter",
			queryParams:    "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid session",
			queryParams: "?session=invalid",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, notFound(sessionID)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Valid session",
			queryParams:    "?session=sess-123",
			expectedStatus: http.StatusSwitchingProtocols,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/ws"+tt.queryParams, nil)

			if tt.expectedStatus == http.StatusSwitchingProtocols {
				req.Header.Set("Upgrade", "websocket")
				req.Header.Set("Connection", "Upgrade")
				req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
				req.Header.Set("Sec-WebSocket-Version", "13")
			}

			server.handleWebSocket(w, req)

			// httptest.ResponseRecorder is not an http.Hijacker, so a valid upgrade
			// attempt ends in a 500 from the upgrader
			if tt.expectedStatus == http.StatusSwitchingProtocols && w.Code == http.StatusInternalServerError {
				return
			}

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/klondike/game/engine"
	"github.com/wricardo/klondike/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Klondike Solitaire",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Klondike Solitaire - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Build all four foundations from ace to king, one suit each.

AVAILABLE TOOLS:
- create_session: Deal a new table (optional config_id and seed)
- list_sessions / get_session: Inspect running tables
- game_state: Show the table
- legal_moves: List every move that would be accepted right now
- move: Move cards between piles - requires intent explanation
- draw: Turn a stock card, or recycle the waste when the stock is empty
- new_game: Shuffle and deal again
- pause / resume: Stop and restart the clock
- move_history: View past actions
- list_configs: List table configurations
- game_instructions: Rules and pile notation

PILES are written stock, waste, f0-f3 (foundations) and t0-t6 (tableaus).

NOTE: The 'intent' parameter on move/draw serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func sessionOnly() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"session_id": sessionProperty(),
		},
		Required: []string{"session_id"},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new session and deal a table, with optional config and seed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the table configuration to use (optional, see list_configs)",
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Shuffle seed for a reproducible deal (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionOnly(),
	}, c.handleGetSession)

	// Table operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Show the current table: stock, waste, foundations and tableaus",
		InputSchema: sessionOnly(),
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Abandon the current game, shuffle and deal again",
		InputSchema: sessionOnly(),
	}, c.handleNewGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "draw",
		Description: "Turn the top stock card onto the waste, or recycle the waste when the stock is empty",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why you are drawing",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleDraw)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move a card or a face-up run from one pile to another. Illegal moves are rolled back.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"from": map[string]interface{}{
					"type":        "string",
					"description": "Source pile: waste, f0-f3 or t0-t6",
				},
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "Position in the source tableau of the lowest card to move (0 is the bottom card). Omit to move only the top card.",
				},
				"to": map[string]interface{}{
					"type":        "string",
					"description": "Target pile: f0-f3 or t0-t6",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "from", "to"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "legal_moves",
		Description: "List every move that would be accepted right now, ready to pass to the move tool",
		InputSchema: sessionOnly(),
	}, c.handleLegalMoves)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "pause",
		Description: "Pause the clock. A held run is returned to its pile.",
		InputSchema: sessionOnly(),
	}, c.handlePause)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "resume",
		Description: "Resume a paused game",
		InputSchema: sessionOnly(),
	}, c.handleResume)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get the action history of the current game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest (asc) or newest (desc) first",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available table configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of Klondike and the pile notation used by the tools",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// requireSession returns the session_id argument or a tool error
func requireSession(args map[string]interface{}) (string, *mcp.CallToolResult) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", mcp.NewToolResultError("session_id is required")
	}
	return sessionID, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	if configID, _ := args["config_id"].(string); configID != "" {
		body["config_id"] = configID
	}
	if seed, ok := args["seed"].(float64); ok && seed >= 0 {
		body["seed"] = uint64(seed)
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n", session.ID, session.ConfigName)
	if session.GameState != nil {
		result += fmt.Sprintf("Seed: %d\n", session.GameState.Seed)
		if session.GameState.Phase == engine.PhaseDealing {
			result += "The table is still being dealt; call game_state in a moment.\n"
		}
		result += "\n" + formatGameState(session.GameState)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		phase := ""
		if s.GameState != nil {
			phase = fmt.Sprintf(", %s, %s", s.GameState.Phase, s.GameState.Elapsed)
		}
		result += fmt.Sprintf("- %s (Config: %s, Created: %s%s)\n",
			s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"), phase)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

// command posts a body-less table command and formats its result
func (c *Client) command(ctx context.Context, request mcp.CallToolRequest, action string) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var result service.CommandResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/"+action), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCommandResult(&result)), nil
}

func (c *Client) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.command(ctx, request, "new-game")
}

func (c *Client) handleDraw(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.command(ctx, request, "draw")
}

func (c *Client) handlePause(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.command(ctx, request, "pause")
}

func (c *Client) handleResume(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.command(ctx, request, "resume")
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}

	fromArg, _ := args["from"].(string)
	toArg, _ := args["to"].(string)
	from, err := ParsePile(fromArg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("from: %v", err)), nil
	}
	to, err := ParsePile(toArg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("to: %v", err)), nil
	}

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = args["intent"]

	body := map[string]interface{}{
		"from": from,
		"to":   to,
	}
	if index, ok := args["index"].(float64); ok {
		body["index"] = int(index)
	}

	var result service.CommandResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCommandResult(&result)), nil
}

func (c *Client) handleLegalMoves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var response struct {
		Count int           `json:"count"`
		Moves []engine.Move `json:"moves"`
	}
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/moves"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLegalMoves(response.Moves)), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprintf("%d", int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	if order, _ := args["order"].(string); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Configurations:\n\n"
	for _, config := range configs {
		deal := "instant deal"
		if config.DealIntervalMS > 0 {
			deal = fmt.Sprintf("%dms per dealt card", config.DealIntervalMS)
		}
		result += fmt.Sprintf("• %s (config_id: %s)\n  %s\n  %s\n\n",
			config.Name, config.ConfigID, config.Description, deal)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Klondike Solitaire - Complete Instructions

GAME OBJECTIVE:
Move all 52 cards onto the four foundations, each built up by suit from ace to king.

THE TABLE:
• Stock (stock): face-down cards. draw turns the top one onto the waste.
• Waste (waste): the top card can be played.
• Foundations (f0-f3): each starts with an ace and grows by one rank in the same suit.
• Tableaus (t0-t6): seven columns dealt with 1 to 7 cards, only the top card face-up.

THE DEAL:
Cards are dealt row by row across the seven tableaus. While the phase is "dealing" every
move is refused; wait for "playable".

MOVES:
• A foundation accepts an ace when empty, otherwise the next rank of its suit.
• A tableau accepts a king (or a run headed by one) when empty, otherwise a card one rank
  lower and of the opposite colour of its top card.
• Any face-up run of a tableau can move together: pass index, the position of the lowest
  card of the run counting from 0 at the bottom of the column.
• When a tableau's top card is moved away, the card beneath it is turned face-up.
• When the stock is empty, draw turns the whole waste back over into the stock.

ILLEGAL MOVES:
Nothing is lost. The cards go back where they were and the result says "rolled back".

PILE NOTATION:
stock, waste, f0 f1 f2 f3, t0 t1 t2 t3 t4 t5 t6 (also foundation:2, tableau:5)

CARD NOTATION:
A 2-10 J Q K followed by ♣ ♦ ♥ ♠. ## is a face-down card.

STRATEGY HINTS:
• Call legal_moves when stuck; it lists everything that would be accepted.
• Prefer moves that turn over face-down tableau cards.
• Do not rush cards to the foundations if a tableau still needs them as a landing spot.
• Empty columns are valuable; only a king can fill them.

SESSION MANAGEMENT:
- Multiple sessions can run simultaneously, each with its own table and clock
- create_session with a seed deals the same table every time
- pause stops the clock; resume continues

Good luck!`

// Command klondike starts the Klondike Solitaire server.
//
//	klondike [flags]            # HTTP: REST API, WebSocket, QR share codes and POST /mcp
//	klondike [flags] stdio-mcp  # MCP over stdio, backed by a running or an internal HTTP API
//
// -ngrok (or NGROK_ENABLED=true) also serves the HTTP handler through an ngrok tunnel.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/klondike/api"
	"github.com/wricardo/klondike/game/config"
	"github.com/wricardo/klondike/game/service"
	"github.com/wricardo/klondike/game/session"
	"github.com/wricardo/klondike/transport/mcp"
	"github.com/wricardo/klondike/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

const (
	Version = "1.0.0"
	AppName = "Klondike Solitaire Server"
)

const (
	sessionMaxIdle  = 24 * time.Hour
	cleanupInterval = time.Hour
	// externalAPI is probed by stdio-mcp before it starts its own listener
	externalAPI = "http://localhost:8080"
)

var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	configDir    = flag.String("config-dir", getConfigDirDefault(), "Directory containing table configurations")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or NGROK_AUTHTOKEN)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (or NGROK_DOMAIN)")
)

// getConfigDirDefault honors CONFIG_DIR, then falls back to "configs"
func getConfigDirDefault() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "configs"
}

// firstSet returns the first non-empty value
func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s v%s\n\nUsage: %s [OPTIONS] [server|stdio-mcp]\n\nOptions:\n", AppName, Version, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		return
	}
	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	mode := "server"
	if flag.NArg() > 0 {
		mode = flag.Arg(0)
	}
	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	app, err := initializeServices()
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer app.Close()

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		if err := runStdioMCP(app); err != nil {
			log.Fatalf("MCP stdio server error: %v", err)
		}
	case "server", "http":
		runHTTPServer(app)
	default:
		log.Fatalf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// services holds what both modes share: the game service and the hub it publishes to
type services struct {
	game     service.GameService
	hub      *websocket.Hub
	sessions *session.Manager
	stop     context.CancelFunc
}

// Close stops running deals, session cleanup and the hub
func (s *services) Close() error {
	s.stop()
	err := s.game.Close()
	s.hub.Close()
	return err
}

func initializeServices() (*services, error) {
	configManager, err := config.NewManager(*configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	log.Printf("Loaded table configs from %s (default: %s)", *configDir, configManager.GetDefault().Name)

	sessionManager := session.NewManager()
	hub := websocket.NewHub()
	go hub.Run()

	ctx, stop := context.WithCancel(context.Background())
	go expireSessions(ctx, sessionManager, cleanupInterval)

	return &services{
		game:     service.NewGameService(sessionManager, configManager, service.WithBroadcaster(hub)),
		hub:      hub,
		sessions: sessionManager,
		stop:     stop,
	}, nil
}

// expireSessions drops idle sessions every interval until ctx ends
func expireSessions(ctx context.Context, manager *session.Manager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxIdle); removed > 0 {
				log.Printf("Cleaned up %d expired sessions (%d remain)", removed, manager.Count())
			}
		}
	}
}

// mcpHandler serves single JSON-RPC messages posted to /mcp
func mcpHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(mcpServer.HandleMessage(r.Context(), body)); err != nil {
			log.Printf("Failed to write MCP response: %v", err)
		}
	}
}

// newRouter mounts the API at / and the MCP endpoint, whose tools call back into baseURL
func newRouter(app *services, baseURL string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", api.NewServer(app.game, app.hub))
	mux.Handle("/mcp", mcpHandler(mcp.NewClient(baseURL).GetMCPServer()))
	return mux
}

func runHTTPServer(app *services) {
	addr := fmt.Sprintf("%s:%d", *host, *port)
	router := newRouter(app, "http://"+addr)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("HTTP server listening on %s (API /api, WebSocket /ws?session=<id>, MCP /mcp)", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	if *ngrokEnabled || os.Getenv("NGROK_ENABLED") == "true" || os.Getenv("NGROK_ENABLED") == "1" {
		go func() {
			if err := serveTunnel(ctx, router); err != nil {
				log.Printf("Ngrok tunnel: %v", err)
			}
		}()
	}

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

// serveTunnel serves handler through an ngrok endpoint until ctx ends
func serveTunnel(ctx context.Context, handler http.Handler) error {
	token := firstSet(*ngrokAuth, os.Getenv("NGROK_AUTHTOKEN"), os.Getenv("NGROK_AUTH_TOKEN"))
	if token == "" {
		return errors.New("enabled but no auth token (use -ngrok-auth or NGROK_AUTHTOKEN)")
	}

	var opts []ngrokConfig.HTTPEndpointOption
	if domain := firstSet(*ngrokDomain, os.Getenv("NGROK_DOMAIN")); domain != "" {
		opts = append(opts, ngrokConfig.WithDomain(domain))
	}
	tun, err := ngrok.Listen(ctx, ngrokConfig.HTTPEndpoint(opts...), ngrok.WithAuthtoken(token))
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer tun.Close()

	log.Printf("Ngrok tunnel established: %s (share codes at %s/api/sessions/<id>/qr)", tun.URL(), tun.URL())
	go func() {
		<-ctx.Done()
		tun.Close()
	}()
	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// apiReachable reports whether an API server answers at baseURL
func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// runStdioMCP serves MCP on stdio. The tools target the API at externalAPI when one
// answers, otherwise an internal API on a random loopback port.
func runStdioMCP(app *services) error {
	baseURL := externalAPI
	if !apiReachable(baseURL) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}
		internal := &http.Server{Handler: api.NewServer(app.game, app.hub)}
		defer internal.Close()
		go func() {
			if err := internal.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		baseURL = "http://" + listener.Addr().String()
	}

	log.Printf("MCP stdio server ready (API at %s)", baseURL)
	return server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer())
}

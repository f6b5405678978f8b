/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the farm engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from the environment
  2. Initialize SQLite store
  3. Wire catalog, valuer, clock, and processor
  4. Optionally seed the demo farm
  5. Start server with graceful shutdown

CONFIGURATION (environment variables):
  PORT             HTTP server port (default: 8080)
  DB_PATH          SQLite database path (default: ./data/farm.db)
                   Use ":memory:" for an in-memory database
  The -port and -db flags override PORT and DB_PATH.
  JWT_SECRET       Token signing secret
  TOKEN_TTL        Token lifetime (default: 24h)
  STARTING_COINS   First-time owner balance (default: 1000)
  SEED_DEMO        Seed a demo farm on startup (default: false)
  ALLOWED_ORIGINS  Comma-separated CORS origins

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  DB_PATH="./data/farm.db" ./server

  # Run with in-memory database and demo data
  DB_PATH=":memory:" SEED_DEMO=true ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/farm-engine/api"
	"github.com/warp/farm-engine/auth"
	"github.com/warp/farm-engine/config"
	"github.com/warp/farm-engine/engine"
	"github.com/warp/farm-engine/farm"
	"github.com/warp/farm-engine/store/sqlite"
)

// randSource adapts math/rand to the valuer's randomness seam.
type randSource struct{ r *rand.Rand }

func (s randSource) Float64() float64 { return s.r.Float64() }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override the environment for the two most-changed settings.
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()
	cfg.Port = *port
	cfg.DBPath = *dbPath

	// Initialize store
	store, err := sqlite.New(cfg.DBPath, engine.NewCoins(cfg.StartingCoins))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Wire the engine
	catalog := engine.DefaultCatalog()
	valuer := engine.NewValuer(catalog, randSource{rand.New(rand.NewSource(time.Now().UnixNano()))})
	processor := farm.NewProcessor(store, catalog, valuer, engine.SystemClock{})
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	if cfg.SeedDemo {
		if err := api.SeedDemoFarm(context.Background(), processor); err != nil {
			log.Printf("Warning: Failed to seed demo farm: %v", err)
		}
	}

	// Create router
	handler := api.NewHandler(processor, tokens)
	router := api.NewRouter(handler, tokens, cfg.AllowedOrigins)

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost%s", cfg.Addr())
		log.Printf("API available at http://localhost%s/api", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

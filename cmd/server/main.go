/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the forecast variance analysis server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load the policy configuration (tolerances + decision matrix)
  3. Initialize SQLite store
  4. Create API handler and router
  5. Start the background analysis scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -db        SQLite database path (default: forecast.db)
             Use ":memory:" for in-memory database
  -api-key   Shared key required on ingest routes (empty disables auth)
  -policy    Path to a JSON policy file overriding the built-in
             tolerance table and decision matrix
  -interval  Scheduler run interval (default: 1h; 0 disables)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database and ingest auth
  ./server -db="./data/forecast.db" -api-key="s3cret"

  # Run with a customer-specific tolerance policy
  ./server -policy="./policies/avo-std.json"

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Automated analysis runs
  - policy/policy.go: Policy file format
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avocarbon/forecast-engine/api"
	"github.com/avocarbon/forecast-engine/engine"
	"github.com/avocarbon/forecast-engine/policy"
	"github.com/avocarbon/forecast-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "forecast.db", "SQLite database path")
	apiKey := flag.String("api-key", "", "API key required on ingest routes")
	policyPath := flag.String("policy", "", "JSON policy file (tolerances + decisions)")
	interval := flag.Duration("interval", time.Hour, "Scheduler run interval (0 disables)")
	flag.Parse()

	// Load policy
	cfg := policy.Default()
	if *policyPath != "" {
		data, err := os.ReadFile(*policyPath)
		if err != nil {
			log.Fatalf("Failed to read policy file: %v", err)
		}
		cfg, err = policy.Parse(data)
		if err != nil {
			log.Fatalf("Failed to parse policy file: %v", err)
		}
		log.Printf("Loaded policy from %s", *policyPath)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler and router
	eng := engine.New(cfg.Tolerances, cfg.Decisions)
	handler := api.NewHandler(store, eng, *apiKey)
	router := api.NewRouter(handler)

	// Start scheduler
	scheduler := api.NewAnalysisScheduler(handler)
	if *interval > 0 {
		scheduler.CheckInterval = *interval
	} else {
		scheduler.Enabled = false
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
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

/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the blood donor registry server. Handles
  configuration, dependency injection, admin seeding, and graceful
  shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize SQLite store
  3. Seed the admin account from environment
  4. Create API handler with dependencies
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: donors.db)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  JWT_SECRET        Token signing key (required outside dev)
  TOKEN_TTL         Token lifetime, Go duration (default 24h)
  ADMIN_USERNAME    Seeded admin username (default "admin")
  ADMIN_EMAIL       Seeded admin email
  ADMIN_PASSWORD    Seeded admin password; seeding is skipped when empty
  CORS_ORIGINS      Comma-separated allowed origins

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/registry.db"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
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
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/lostSilverfish/blood-donors-SHAH/api"
	"github.com/lostSilverfish/blood-donors-SHAH/auth"
	"github.com/lostSilverfish/blood-donors-SHAH/store/sqlite"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env: %v", err)
	}

	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "donors.db", "SQLite database path")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Seed admin account
	if err := seedAdmin(context.Background(), store); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}

	// Token service
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-only-insecure-secret"
		log.Println("Warning: JWT_SECRET not set, using insecure dev key")
	}
	ttl := auth.DefaultTokenTTL
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("Invalid TOKEN_TTL: %v", err)
		}
		ttl = parsed
	}
	tokens := auth.NewTokenService(secret, "blood-donors", ttl)

	// Initialize handler and router
	handler := api.NewHandler(store, tokens)
	router := api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins: splitOrigins(os.Getenv("CORS_ORIGINS")),
	})

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
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
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

// seedAdmin creates (or re-keys) the admin account from the environment.
// Without ADMIN_PASSWORD nothing is seeded and login only works for
// accounts that already exist.
func seedAdmin(ctx context.Context, store *sqlite.Store) error {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Println("ADMIN_PASSWORD not set, skipping admin seeding")
		return nil
	}

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = username + "@localhost"
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	if err := store.UpsertUser(ctx, sqlite.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         "admin",
	}); err != nil {
		return err
	}

	log.Printf("Admin account %q ready", username)
	return nil
}

func splitOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

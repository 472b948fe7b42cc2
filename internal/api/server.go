// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/wallet-resolver/internal/resolver"
	"github.com/wallet-resolver/internal/storage"
)

// WalletResolver defines the resolution operations the server depends on.
// Satisfied by *resolver.Resolver; narrowed here for testing.
type WalletResolver interface {
	ResolveStartupWallet(ctx context.Context, startupID string) resolver.Resolution
	ResolveUserWallet(ctx context.Context, subjectID string) *resolver.Resolution
}

// Server represents the HTTP API server.
type Server struct {
	router      *mux.Router
	httpServer  *http.Server
	resolver    WalletResolver
	walletStore *storage.WalletStore
	config      *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestsPerSec  int
	Burst           int
}

// NewServer creates a new API server instance.
func NewServer(config *ServerConfig, res WalletResolver, walletStore *storage.WalletStore) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		resolver:    res,
		walletStore: walletStore,
		config:      config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSec, s.config.Burst)

	// Middleware order matters: request IDs first so every later log line
	// carries one.
	s.router.Use(RequestIDMiddleware)
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// API routes
	api := s.router.PathPrefix("/api").Subrouter()

	// Resolution endpoints
	api.HandleFunc("/startups/{id}/wallet", s.handleStartupWallet).Methods("GET")
	api.HandleFunc("/users/{id}/wallet", s.handleUserWallet).Methods("GET")

	// Mutation endpoints
	api.HandleFunc("/wallets/connect", s.handleConnectWallet).Methods("POST")
	api.HandleFunc("/wallets/{subjectId}", s.handleDisconnectWallet).Methods("DELETE")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "wallet-resolver",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}

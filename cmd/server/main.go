package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workitem-tracker/internal/config"
	"workitem-tracker/internal/domain"
	"workitem-tracker/internal/handler"
	"workitem-tracker/internal/middleware"
	"workitem-tracker/internal/repository"
	"workitem-tracker/internal/service"
	"workitem-tracker/internal/websocket"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		log.Fatalf("Failed to connect to CouchDB: %v", err)
	}

	if err := ensureDatabase(client, cfg.Database.Name); err != nil {
		log.Fatalf("Failed to prepare database: %v", err)
	}

	userRepo := repository.NewUserRepository(client, cfg.Database.Name)
	workItemRepo := repository.NewWorkItemRepository(client, cfg.Database.Name)
	tokenRepo := repository.NewAPITokenRepository(client, cfg.Database.Name)

	wsManager := websocket.NewManager(
		cfg.WebSocket.MaxConnPerUser,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
	)
	go wsManager.Run()

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshTokenExpiration)
	userService := service.NewUserService(userRepo)
	tokenService := service.NewAPITokenService(tokenRepo, userRepo)
	workItemService := service.NewWorkItemService(
		workItemRepo,
		wsManager,
		cfg.Pagination.DefaultPageSize,
		cfg.Pagination.MaxPageSize,
	)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	tokenHandler := handler.NewAPITokenHandler(tokenService)
	workItemHandler := handler.NewWorkItemHandler(workItemService)
	wsHandler := handler.NewWebSocketHandler(wsManager, cfg.JWT.Secret)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST", "OPTIONS")

	api.HandleFunc("/tokens/login", tokenHandler.Login).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))

	protected.HandleFunc("/users/me", userHandler.GetMe).Methods("GET", "OPTIONS")
	protected.HandleFunc("/users/me", userHandler.UpdateMe).Methods("PUT", "OPTIONS")

	protected.HandleFunc("/workitems", workItemHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/workitems", workItemHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/workitems/{id}", workItemHandler.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/workitems/{id}", workItemHandler.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/workitems/{id}", workItemHandler.Delete).Methods("DELETE", "OPTIONS")

	protected.HandleFunc("/tokens", tokenHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/tokens", tokenHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/tokens/{id}", tokenHandler.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/tokens/{id}/revoke", tokenHandler.Revoke).Methods("POST", "OPTIONS")
	protected.HandleFunc("/tokens/{id}", tokenHandler.Delete).Methods("DELETE", "OPTIONS")

	// These routes use personal access tokens (wkt_xxxxx) instead of JWT
	integrations := api.PathPrefix("/integrations").Subrouter()
	integrations.Use(middleware.TokenAuthMiddleware(tokenService))

	readOnly := integrations.PathPrefix("/workitems").Subrouter()
	readOnly.Use(middleware.ScopeMiddleware(domain.ScopeWorkItemsRead))
	readOnly.HandleFunc("", workItemHandler.List).Methods("GET", "OPTIONS")
	readOnly.HandleFunc("/{id}", workItemHandler.Get).Methods("GET", "OPTIONS")

	r.HandleFunc("/ws", wsHandler.HandleConnection)

	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/", rootHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting Work Item Tracker on %s (env: %s)", addr, cfg.Server.Env)
		log.Printf("Connected to CouchDB at %s:%s", cfg.Database.Host, cfg.Database.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

// ensureDatabase creates the database and the Mango indexes the equality
// filters rely on.
func ensureDatabase(client *kivik.Client, name string) error {
	ctx := context.Background()

	exists, err := client.DBExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}

	if !exists {
		if err := client.CreateDB(ctx, name); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		log.Printf("Created database: %s", name)
	}

	db := client.DB(name)

	indexes := map[string][]string{
		"workitems-by-status":   {"status"},
		"workitems-by-priority": {"priority"},
		"users-by-username":     {"username"},
		"users-by-email":        {"email"},
		"tokens-by-hash":        {"token", "is_revoked"},
	}

	for indexName, fields := range indexes {
		index := map[string]any{"fields": fields}
		if err := db.CreateIndex(ctx, "", indexName, index); err != nil {
			return fmt.Errorf("failed to create index %s: %w", indexName, err)
		}
	}

	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"workitem-tracker"}`))
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"Work Item Tracker API","version":"1.0.0","endpoints":{"/api/v1/auth/register":"POST","/api/v1/auth/login":"POST","/api/v1/workitems":"GET (protected)","/api/v1/workitems/{id}":"GET (protected)"}}`))
}

// UniDesk - Conversational Case-Intake Assistant Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avaldivia/unidesk/internal/api"
	"github.com/avaldivia/unidesk/internal/bot"
	"github.com/avaldivia/unidesk/internal/catalog"
	"github.com/avaldivia/unidesk/internal/chat"
	"github.com/avaldivia/unidesk/internal/config"
	"github.com/avaldivia/unidesk/internal/identity"
	"github.com/avaldivia/unidesk/internal/middleware"
	"github.com/avaldivia/unidesk/internal/records"
	"github.com/avaldivia/unidesk/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	if !cfg.RecordsConfigured() {
		slog.Warn("Record store credentials not fully configured; remote lookups and case persistence will fail until they are set")
	}
	tokens := records.NewTokenSource(
		cfg.Records.TokenURL(),
		cfg.Records.ClientID,
		cfg.Records.ClientSecret,
		cfg.Records.Scope,
		cfg.Timeout.Token,
	)
	recordStore := records.NewClient(cfg.Records.ItemsURL(), tokens, cfg.Timeout.Request, logger)

	// Initialize services.
	botService := bot.NewService(catalog.Default(), repo, recordStore, logger)
	cm := chat.NewConnManager()

	// Initialize handlers.
	messagesHandler := api.NewMessagesHandler(botService, logger)
	healthHandler := api.NewHealthHandler(repo, cfg.Timeout.HealthCheck)
	wsHandler := chat.NewWebSocketHandler(botService, cm, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	allowedOrigins := []string{"*"}
	if cfg.FrontendURL != "" {
		allowedOrigins = []string{cfg.FrontendURL}
	}
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	// Routes.
	healthHandler.RegisterHealth(r)
	messagesHandler.RegisterRoutes(r)
	r.Get("/ws/chat", wsHandler.ServeHTTP)

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional reaper for abandoned conversations.
	if cfg.SessionTTL > 0 {
		chat.StartReaper(ctx, repo, cm, cfg.SessionTTL)
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

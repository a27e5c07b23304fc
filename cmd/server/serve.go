package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ashureev/recovery-coach/internal/api"
	"github.com/ashureev/recovery-coach/internal/breathing"
	"github.com/ashureev/recovery-coach/internal/chat"
	"github.com/ashureev/recovery-coach/internal/config"
	"github.com/ashureev/recovery-coach/internal/contact"
	"github.com/ashureev/recovery-coach/internal/health"
	"github.com/ashureev/recovery-coach/internal/identity"
	"github.com/ashureev/recovery-coach/internal/middleware"
	"github.com/ashureev/recovery-coach/internal/retention"
	"github.com/ashureev/recovery-coach/internal/store"
	"github.com/ashureev/recovery-coach/web"
)

const (
	msgChatRateLimited    = "Too many requests, please try again later."
	msgContactRateLimited = "Too many email submissions, please try again later."
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(os.Stdout, cfg.SlogLevel())
	slog.SetDefault(logger)
	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "provider", cfg.LLM.Provider)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(parent); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	slog.Info("Database connected", "path", cfg.DBPath)

	model, err := chat.NewModel(chatConfig(cfg))
	if err != nil {
		return fmt.Errorf("initialize %s model: %w", cfg.LLM.Provider, err)
	}
	slog.Info("Model client initialized", "model", model.Name())

	turns := chat.NewConversationLogger(chat.ConversationLogConfig{
		Enabled:   cfg.ConversationLog.Enabled,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, repo, logger)
	chatSvc := chat.NewService(model, turns, cfg.MaxChatMessages)
	defer func() {
		if closeErr := chatSvc.Close(); closeErr != nil {
			slog.Error("Failed to flush conversation log", "error", closeErr)
		}
	}()

	catalog := breathing.DefaultCatalog()
	streams := breathing.NewStreamManager()

	chatLimiter := middleware.NewRateLimiter(cfg.RateLimit.ChatRequests, cfg.RateLimit.ChatWindow)
	defer chatLimiter.Stop()
	contactLimiter := middleware.NewRateLimiter(cfg.RateLimit.ContactRequests, cfg.RateLimit.ContactWindow)
	defer contactLimiter.Stop()

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders(cfg.IsDevelopment(), cfg.ClientURL))
	r.Use(middleware.CORS([]string{cfg.ClientURL}))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	api.NewHandler(catalog, repo, api.PublicConfig{
		Provider:        cfg.LLM.Provider,
		Model:           model.Name(),
		BreathingStream: true,
	}).RegisterRoutes(r)

	chat.NewHandler(chatSvc, cfg.MaxRequestBodyBytes, cfg.IsDevelopment()).
		RegisterRoutes(r, chatLimiter.Middleware(identity.IPFromRequest, msgChatRateLimited))
	contact.NewHandler(contact.NewService(repo), cfg.MaxRequestBodyBytes, cfg.IsDevelopment()).
		RegisterRoutes(r, contactLimiter.Middleware(identity.IPFromRequest, msgContactRateLimited))

	// WebSocket endpoint.
	r.Get("/ws/breathing", breathing.NewStreamHandler(catalog, streams, cfg.ClientURL, cfg.IsDevelopment()).ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.LLM.Timeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")
		streams.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if cfg.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("listen for gRPC health on %s: %w", cfg.GRPCHealthAddr, err)
		}
		healthSrv := health.NewServer(repo, 15*time.Second, logger)
		g.Go(func() error { return healthSrv.Serve(gctx, lis) })
	}

	if cfg.Retention.MaxAge > 0 {
		worker, err := retention.NewWorker(repo, cfg.Retention.MaxAge, cfg.Retention.Schedule)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error { return worker.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Server stopped successfully")
	return nil
}

func chatConfig(cfg *config.Config) chat.Config {
	cc := chat.DefaultConfig()
	cc.Provider = cfg.LLM.Provider
	cc.APIKey = cfg.APIKey()
	cc.MaxTokens = cfg.LLM.MaxTokens
	cc.Timeout = cfg.LLM.Timeout
	if cfg.LLM.Model != "" {
		cc.Model = cfg.LLM.Model
	} else if cfg.LLM.Provider == chat.ProviderOpenAI {
		cc.Model = ""
	}
	if cfg.LLM.Provider == chat.ProviderOpenAI {
		cc.BaseURL = cfg.LLM.OpenAIBaseURL
	}
	return cc
}

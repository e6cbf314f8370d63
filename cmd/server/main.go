package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agentdesk.io/agentdesk/internal/api"
	"agentdesk.io/agentdesk/internal/auth"
	"agentdesk.io/agentdesk/internal/config"
	"agentdesk.io/agentdesk/internal/core"
	"agentdesk.io/agentdesk/internal/logging"
	"agentdesk.io/agentdesk/internal/store"
	"agentdesk.io/agentdesk/internal/telegram"
	"go.uber.org/zap"
)

func main() {
	port := flag.String("port", "", "HTTP port (overrides HTTP_PORT)")
	flag.Parse()

	cfg, dotenv, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *port != "" {
		cfg.HTTPPort = *port
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	if !dotenv {
		logger.Info("no .env file found, using process environment")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	dbStore, err := store.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbStore.Close()
	logger.Info("database ready", zap.String("driver", dbStore.Driver()))

	completion, closeCompletion, err := newCompletionClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCompletion()

	tg := telegram.NewClient(cfg.TelegramAPIURL, 10*time.Second)
	accounts := core.NewAccountService(dbStore, auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL), logger)

	apiHandler := api.NewAPIHandler(api.Options{
		Pipeline:       core.NewPipeline(dbStore, dbStore, dbStore, completion, logger),
		Accounts:       accounts,
		Agents:         core.NewAgentService(dbStore, tg, cfg.PublicBaseURL, logger),
		Knowledge:      core.NewKnowledgeService(dbStore, dbStore, logger),
		Conversations:  core.NewConversationService(dbStore),
		Admin:          core.NewAdminService(dbStore),
		Telegram:       tg,
		Failures:       core.NewFailureLog(dbStore, logger),
		DB:             dbStore,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
		SessionTTL:     cfg.SessionTTL,
		SecureCookies:  cfg.IsProduction(),
	})
	router := api.NewRouter(apiHandler, logger)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.CompletionTimeout + 30*time.Second, // completion calls can take time
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", serverAddr), zap.String("llm_provider", cfg.LLMProvider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("could not listen on %s: %w", serverAddr, err)
	case <-quit:
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited gracefully")
	return nil
}

func newCompletionClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (core.CompletionClient, func(), error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		c, err := core.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.CompletionTimeout, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		return c, func() { c.Close() }, nil
	case config.ProviderOpenAI:
		c, err := core.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.CompletionTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize openai client: %w", err)
		}
		return c, func() {}, nil
	case config.ProviderMock:
		logger.Warn("using mock completion provider, replies echo the user")
		return core.MockClient{}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

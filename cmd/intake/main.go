package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/intake/internal/anthropic"
	"github.com/MikeSquared-Agency/intake/internal/api"
	"github.com/MikeSquared-Agency/intake/internal/assistant"
	"github.com/MikeSquared-Agency/intake/internal/config"
	"github.com/MikeSquared-Agency/intake/internal/extractor"
	"github.com/MikeSquared-Agency/intake/internal/hermes"
	"github.com/MikeSquared-Agency/intake/internal/intake"
	"github.com/MikeSquared-Agency/intake/internal/leadstore"
	"github.com/MikeSquared-Agency/intake/internal/llm"
	"github.com/MikeSquared-Agency/intake/internal/openai"
	"github.com/MikeSquared-Agency/intake/internal/session"
	"github.com/MikeSquared-Agency/intake/internal/slack"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("intake starting", "port", cfg.Port, "provider", cfg.LLMProvider, "policy", cfg.SavePolicy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Completion service
	var completer llm.Completer
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		completer = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.CompletionTimeout)
		slog.Info("openai client ready", "model", cfg.OpenAIModel)
	default:
		completer = anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.CompletionTimeout)
		slog.Info("anthropic client ready", "model", cfg.AnthropicModel)
	}

	replies := assistant.New(completer, cfg.CompletionTimeout, slog.Default())
	ext, err := extractor.New(completer, cfg.CompletionTimeout, slog.Default())
	if err != nil {
		slog.Error("failed to build extractor", "error", err)
		os.Exit(1)
	}

	// Lead store
	leads, closeLeads, err := leadstore.Open(ctx, cfg.StoreOptions(), slog.Default())
	if err != nil {
		slog.Error("failed to open lead store", "store", cfg.LeadStore, "error", err)
		os.Exit(1)
	}
	defer closeLeads()
	slog.Info("lead store ready", "store", cfg.LeadStore)

	// Sessions
	var sessions session.Store
	sessionBackend := "memory"
	if cfg.RedisURL != "" {
		rs, err := session.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rs.Close()
		sessions = rs
		sessionBackend = "redis"
	} else {
		ms, err := session.NewMemoryStore(cfg.SessionCacheSize)
		if err != nil {
			slog.Error("failed to create session cache", "error", err)
			os.Exit(1)
		}
		sessions = ms
	}
	slog.Info("session store ready", "backend", sessionBackend)

	deps := intake.Deps{
		Replies:   replies,
		Extractor: ext,
		Leads:     leads,
		Sessions:  sessions,
	}

	// NATS/Hermes (optional, leads are still stored without it)
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		deps.Publisher = hermesClient
		slog.Info("NATS connected", "url", cfg.NatsURL)
	}

	// Slack poster (optional)
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		deps.Notifier = slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())
		slog.Info("slack poster ready", "channel", cfg.SlackChannel)
	} else {
		slog.Warn("slack not configured, new leads will not be announced")
	}

	svc := intake.New(deps, intake.Policy(cfg.SavePolicy), cfg.LeadSource, slog.Default())

	if cfg.AdminToken == "" {
		slog.Warn("ADMIN_TOKEN not set, admin lead list disabled")
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, svc, cfg.AdminToken, api.Status{
		Provider: cfg.LLMProvider,
		Policy:   cfg.SavePolicy,
		Store:    cfg.LeadStore,
		Sessions: sessionBackend,
	}, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	slog.Info("intake ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown error", "error", err)
	}
	svc.Wait()
	cancel()
	slog.Info("intake stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rowandev/apilot/internal/agent"
	"github.com/rowandev/apilot/internal/api"
	"github.com/rowandev/apilot/internal/cache"
	"github.com/rowandev/apilot/internal/catalog"
	"github.com/rowandev/apilot/internal/config"
	"github.com/rowandev/apilot/internal/gateway"
	"github.com/rowandev/apilot/internal/lexicon"
	"github.com/rowandev/apilot/internal/provider"
	"github.com/rowandev/apilot/internal/similarity"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/apilot.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config %s: %v\n", cfgPath, err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Server.LogLevel)
	defer logger.Sync()
	logger.Info("Starting apilot", zap.String("config", cfgPath))

	// Provider router
	router := provider.NewRouter(logger)
	for _, pc := range cfg.Providers {
		provCfg := provider.Config{
			ID: pc.ID, Type: pc.Type, Name: pc.Name,
			Endpoint: pc.Endpoint, APIKey: pc.APIKey,
			Models: pc.Models,
		}
		switch pc.Type {
		case "openai":
			router.Register(provider.NewOpenAIProvider(provCfg, logger))
		case "anthropic":
			router.Register(provider.NewAnthropicProvider(provCfg, logger))
		default:
			logger.Warn("unknown provider type",
				zap.String("id", pc.ID), zap.String("type", pc.Type))
		}
	}

	// Lexical corpus
	corpus := loadCorpus(cfg, logger)
	matcher := similarity.NewMatcher(corpus, cfg.Matcher, logger)

	// Response cache
	store, closeStore := newCacheStore(cfg, logger)
	defer closeStore()
	responseCache := cache.New(store, matcher, logger)

	// Operation catalog
	cat := catalog.New()
	for _, entry := range cfg.Catalog {
		params := make([]catalog.Parameter, len(entry.Parameters))
		for i, p := range entry.Parameters {
			params[i] = catalog.Parameter{
				Name: p.Name, In: p.In, Type: p.Type,
				Description: p.Description, Required: p.Required,
			}
		}
		op := catalog.Operation{
			Name:        entry.Name,
			Description: entry.Description,
			Method:      entry.Method,
			Path:        entry.Path,
			BaseURL:     entry.BaseURL,
			Headers:     entry.Headers,
			Parameters:  params,
		}
		if err := cat.Register(op); err != nil {
			logger.Fatal("invalid catalog entry", zap.String("name", entry.Name), zap.Error(err))
		}
	}
	logger.Info("Catalog loaded", zap.Int("operations", len(cfg.Catalog)))
	invoker := catalog.NewInvoker(cat, 30*time.Second, logger)

	// Assistant
	assistant := agent.NewAssistant(router, responseCache, cat, invoker,
		newReviewer(cfg, cat), assistantOptions(cfg), logger)

	// Gateways
	gw := gateway.New(assistant, logger)
	if cfg.Gateway.Slack.Enabled && cfg.Gateway.Slack.BotToken != "" {
		gw.Register(gateway.NewSlackAdapter(cfg.Gateway.Slack.BotToken, cfg.Gateway.Slack.AppToken, logger))
	}
	if cfg.Gateway.Discord.Enabled && cfg.Gateway.Discord.BotToken != "" {
		gw.Register(gateway.NewDiscordAdapter(cfg.Gateway.Discord.BotToken, logger))
	}
	if err := gw.ConnectAll(context.Background()); err != nil {
		logger.Warn("some gateway adapters failed to connect", zap.Error(err))
	}

	// HTTP server
	handler := api.NewHandler(assistant, responseCache, matcher, cat, router, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("apilot listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down apilot...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	gw.Close()
}

func newLogger(level string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// loadCorpus resolves the configured corpus source. Every source falls back
// to the builtin corpus on failure so the matcher always has something.
func loadCorpus(cfg *config.Config, logger *zap.Logger) *lexicon.Corpus {
	ctx := context.Background()
	timeout := time.Duration(cfg.Corpus.TimeoutSeconds) * time.Second

	switch cfg.Corpus.Source {
	case "file":
		return lexicon.LoadOrFallback(ctx, lexicon.NewFileProvider(cfg.Corpus.Path, logger), timeout, logger)
	case "neo4j":
		p, err := lexicon.NewNeo4jProvider(cfg.Database.Neo4j.URI,
			cfg.Database.Neo4j.User, cfg.Database.Neo4j.Password, logger)
		if err != nil {
			logger.Warn("neo4j corpus unavailable, using builtin", zap.Error(err))
			return lexicon.Builtin()
		}
		return lexicon.LoadOrFallback(ctx, p, timeout, logger)
	default:
		return lexicon.Builtin()
	}
}

// newCacheStore builds the configured cache backend. Backend failures fall
// back to the in-memory store rather than aborting startup.
func newCacheStore(cfg *config.Config, logger *zap.Logger) (cache.Store, func()) {
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second

	switch cfg.Cache.Backend {
	case "redis":
		s, err := cache.NewRedisStore(cfg.Database.Redis.URL, ttl, logger)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory cache", zap.Error(err))
			break
		}
		return s, s.Close
	case "postgres":
		s, err := cache.NewPostgresStore(cfg.Database.Postgres.DSN, logger)
		if err != nil {
			logger.Warn("postgres unavailable, using in-memory cache", zap.Error(err))
			break
		}
		if err := s.Migrate(context.Background(), "migrations"); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
		return s, s.Close
	}
	s := cache.NewMemoryStore()
	return s, s.Close
}

func newReviewer(cfg *config.Config, cat *catalog.Catalog) agent.Reviewer {
	if cfg.Assistant.ReviewPolicy == "read_only" {
		return agent.ReadOnlyReviewer{
			IsWrite: func(operation string) bool {
				op, ok := cat.Get(operation)
				if !ok {
					return true
				}
				return op.Method != http.MethodGet && op.Method != http.MethodHead
			},
		}
	}
	return agent.AutoApprove{}
}

func assistantOptions(cfg *config.Config) agent.Options {
	opts := agent.DefaultOptions()
	opts.Model = cfg.Assistant.Model
	if cfg.Assistant.Temperature > 0 {
		opts.Temperature = cfg.Assistant.Temperature
	}
	if cfg.Assistant.MaxTokens > 0 {
		opts.MaxTokens = cfg.Assistant.MaxTokens
	}
	if cfg.Assistant.MaxToolRounds > 0 {
		opts.MaxToolRounds = cfg.Assistant.MaxToolRounds
	}
	if cfg.Assistant.SystemPrompt != "" {
		opts.SystemPrompt = cfg.Assistant.SystemPrompt
	}
	return opts
}

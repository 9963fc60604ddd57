package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"kirana-agent/internal/agent/graph"
	"kirana-agent/internal/agent/model"
	"kirana-agent/internal/core"
	"kirana-agent/internal/httpserver"
	"kirana-agent/internal/search"
	"kirana-agent/internal/session"
	logx "kirana-agent/pkg/logger"
	pkgredis "kirana-agent/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Analysis     model.AnalysisModelConfig
	Response     model.ResponseModelConfig
	Prompt       model.PromptConfig
	Conversation model.ConversationConfig

	// Web search
	Search search.Config

	// HTTP server
	HTTPPort    int    `envconfig:"HTTP_PORT" default:"8080"`
	GinMode     string `envconfig:"GIN_MODE" default:"debug"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	environment := core.ParseEnvironment(envCfg.Environment)
	logx.Init(logx.LoggerOpts{Environment: environment})

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()
	logx.Info().Msg("Connected to Redis")

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid SESSION_TTL '%s': %v", envCfg.Conversation.TTL, err)
	}

	var searchClient search.Client
	if envCfg.Search.APIKey != "" {
		searchClient = search.NewHTTPClient(envCfg.Search)
		if envCfg.Search.CacheSize > 0 {
			searchClient = search.NewCachedClient(searchClient, envCfg.Search.CacheSize,
				time.Duration(envCfg.Search.CacheTTLSeconds)*time.Second)
		}
	} else {
		logx.Warn().Msg("TAVILY_API_KEY not set; turns will run without search context")
	}

	runner, err := graph.BuildTurnGraph(ctx, graph.Config{
		APIKey:           envCfg.APIKey,
		BaseURL:          envCfg.BaseURL,
		AnalysisModel:    envCfg.Analysis,
		ResponseModel:    envCfg.Response,
		Prompt:           envCfg.Prompt,
		Conversation:     envCfg.Conversation,
		SessionRepo:      session.NewRedisRepository(rdb, ttl),
		SearchClient:     searchClient,
		SearchMaxResults: envCfg.Search.MaxResults,
	})
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}

	srv, err := httpserver.New(httpserver.Config{
		Port:        envCfg.HTTPPort,
		Mode:        envCfg.GinMode,
		Environment: environment.String(),
		Runner:      runner,
	})
	if err != nil {
		log.Fatalf("Failed to create HTTP server: %v", err)
	}

	if err := srv.Run(); err != nil {
		log.Fatalf("HTTP server exited: %v", err)
	}
}

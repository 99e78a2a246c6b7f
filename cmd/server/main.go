package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/api"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/api/handlers"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/config"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/database"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/health"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/index"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/llm"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/middleware"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/migration"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/prompts"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/repository"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/services"
	"github.com/ailat-kz/aaoifi-chat/backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	migrate        = flag.Bool("migrate", false, "Run database migrations before serving")
	migrationsPath = flag.String("migrations", "migrations", "Directory of SQL migration files")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Configuration validation failed")
	}
	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	if *migrate {
		if err := migration.NewRunner(dbManager, logger).RunMigrations(*migrationsPath); err != nil {
			logger.WithError(err).Fatal("Migrations failed")
		}
	}

	var repos *repository.RepositoryManager
	if dbManager.DB != nil {
		repos = repository.NewRepositoryManager(dbManager.DB)
	}
	var cache *database.Cache
	if dbManager.Redis != nil {
		cache = database.NewCache(dbManager.Redis, logger)
	}

	llmClient := llm.NewClient(llm.Config{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		EmbedModel: cfg.OpenAI.EmbedModel,
		ChatModel:  cfg.OpenAI.ChatModel,
	}, logger)

	idx, closeIndex, err := index.Open(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open index")
	}
	defer closeIndex()

	promptStore, err := prompts.NewStore(cfg.Prompts.Dir, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load prompt templates")
	}
	if cfg.Prompts.Watch {
		if err := promptStore.Watch(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to watch prompt templates")
		}
	}

	mode, err := prompts.ParseMode(cfg.Answer.Mode)
	if err != nil {
		logger.WithError(err).Fatal("Invalid answer mode")
	}

	retry := services.DefaultRetryConfig()
	retry.MaxRetries = cfg.Upstream.MaxRetries

	retriever := services.NewRetriever(
		services.WithRetryEmbedder(llmClient, retry, logger),
		services.WithRetryIndex(idx, retry, logger),
		services.RetrieverConfig{
			TopK:           cfg.Retrieval.TopK,
			ScoreThreshold: cfg.Retrieval.ScoreThreshold,
		},
		logger,
	)

	var opts []services.AnswererOption
	if cfg.Topics.Enabled {
		policy, err := topicPolicy(cfg, repos)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load topic rules")
		}
		logger.WithField("rules", policy.Rules()).Info("Topic filtering enabled")
		opts = append(opts, services.WithTopicPolicy(policy))
	}
	if cache != nil && cfg.Cache.TTL > 0 {
		opts = append(opts, services.WithAnswerCache(cache))
		logger.WithField("ttl", cfg.Cache.TTL).Info("Answer cache enabled")
	}

	answerer := services.NewAnswerer(
		retriever,
		services.WithRetryCompleter(llmClient, retry, logger),
		promptStore,
		services.AnswererConfig{
			Mode:             mode,
			LocalizeFallback: cfg.Answer.LocalizeFallback,
			Separator:        cfg.Answer.Separator,
			Temperature:      cfg.OpenAI.Temperature,
			MaxTokens:        cfg.OpenAI.MaxTokens,
			CacheTTL:         cfg.Cache.TTL,
		},
		logger,
		opts...,
	)

	checks := []health.Check{
		{Name: "openai", Critical: true, Ping: llmClient.Ping},
		{Name: cfg.Index.Provider, Critical: true, Ping: idx.Ping},
	}
	if dbManager.DB != nil {
		checks = append(checks, health.Check{Name: "postgres", Ping: dbManager.PingDatabase})
	}
	if dbManager.Redis != nil {
		checks = append(checks, health.Check{Name: "redis", Ping: dbManager.PingRedis})
	}
	var healthRepo models.SystemHealthRepository
	if repos != nil {
		healthRepo = repos.SystemHealth
	}
	checker := health.NewHealthChecker(checks, healthRepo, cache, logger)
	go checker.PeriodicHealthCheck(ctx, time.Minute)

	routerConfig := api.RouterConfig{AllowedOrigins: cfg.Server.AllowedOrigins}
	if cfg.Server.RateLimit > 0 {
		routerConfig.RateLimiter = middleware.NewRateLimiter(ctx, cfg.Server.RateLimit)
	}

	router := api.NewRouter(
		handlers.NewChatHandler(answerer, cfg.Server.RequestTimeout, logger),
		handlers.NewHealthHandler(checker),
		routerConfig,
		logger,
	)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 10*time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	logger.WithFields(logrus.Fields{
		"port":     cfg.Server.Port,
		"mode":     mode,
		"provider": cfg.Index.Provider,
	}).Info("AAOIFI chat server starting")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// topicPolicy reads active rules from Postgres when it is configured and
// from topics.rules otherwise.
func topicPolicy(cfg *config.Config, repos *repository.RepositoryManager) (*services.TopicPolicy, error) {
	if repos != nil {
		return services.TopicPolicyFromSource(repos.TopicFilter)
	}
	rules := make([]services.TopicRule, 0, len(cfg.Topics.Rules))
	for _, r := range cfg.Topics.Rules {
		rules = append(rules, services.TopicRule{
			Name:            r.Name,
			Keywords:        r.Keywords,
			StandardNumbers: r.StandardNumbers,
			SectionTitles:   r.SectionTitles,
		})
	}
	return services.NewTopicPolicy(rules), nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/config"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/database"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/index"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/llm"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/repository"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/seeder"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/services"
	"github.com/ailat-kz/aaoifi-chat/backend/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	dryRun     = flag.Bool("dry-run", false, "Don't upload to the index, just print what would be uploaded")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	pageLimit  = flag.Int("limit", 0, "Limit number of pages to process (0 = all)")
	concurrent = flag.Int("concurrent", 2, "Number of pages processed at once")
	delay      = flag.Duration("delay", 2*time.Second, "Delay between requests")
	pagesFile  = flag.String("pages", "configs/pages.yaml", "YAML file listing the standards pages and PDFs to seed")
	chunkSize  = flag.Int("chunk-size", 1500, "Maximum chunk size in bytes")
	syncTopics = flag.Bool("topics", false, "Sync topics.rules from the configuration into Postgres and exit")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	logger.Info("Starting AAOIFI standards seeder...")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if *syncTopics {
		if err := syncTopicRules(cfg, logger); err != nil {
			logger.WithError(err).Fatal("Topic rule sync failed")
		}
		return
	}

	pages, err := seeder.LoadPages(*pagesFile)
	if err != nil {
		logger.WithError(err).WithField("file", *pagesFile).Fatal("Failed to load pages")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var embedder seeder.BatchEmbedder
	var writer seeder.ChunkWriter

	if !*dryRun {
		if err := cfg.Validate(); err != nil {
			logger.WithError(err).Fatal("Configuration validation failed")
		}

		embedder = llm.NewClient(llm.Config{
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
		writer = idx
	}

	processor := seeder.NewContentProcessor()
	crawler := seeder.NewCrawler(seeder.CrawlerConfig{
		Delay:   *delay,
		Timeout: 30 * time.Second,
	}, processor, logger)

	fetcher := seeder.SourceFetcher{
		Web: crawler,
		PDF: seeder.NewPDFReader(processor, logger),
	}

	s := seeder.NewSeeder(fetcher, embedder, writer, processor, seeder.Config{
		ChunkSize:   *chunkSize,
		Limit:       *pageLimit,
		DryRun:      *dryRun,
		Concurrency: *concurrent,
		PageDelay:   500 * time.Millisecond,
	}, logger)

	stats, err := s.Run(ctx, pages)
	if err != nil {
		logger.WithError(err).Fatal("Content seeding failed")
	}

	if len(stats.Errors) > 0 {
		logger.Warn("Some pages failed to process:")
		for _, err := range stats.Errors {
			logger.WithError(err).Warn("Processing error")
		}
	}

	logger.Info("Content seeding completed successfully!")
}

// syncTopicRules writes topics.rules to the topic_filters table, which the
// server reads when a database is configured.
func syncTopicRules(cfg *config.Config, logger *logrus.Logger) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required to sync topic rules")
	}

	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}, logger)
	if err != nil {
		return err
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		return err
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

	stats, err := services.SyncTopicRules(repository.NewTopicFilterRepository(dbManager.DB), rules)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"created":   stats.Created,
		"updated":   stats.Updated,
		"unchanged": stats.Unchanged,
		"deleted":   stats.Deleted,
	}).Info("Topic rules synced")
	return nil
}

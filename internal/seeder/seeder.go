package seeder

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/models"
	"github.com/ailat-kz/aaoifi-chat/backend/internal/services"
	"github.com/ailat-kz/aaoifi-chat/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Fetcher downloads and parses one page.
type Fetcher interface {
	Fetch(ctx context.Context, page PageConfig) (*Document, error)
}

// BatchEmbedder embeds many texts in one call, returning vectors in input
// order.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkWriter stores embedded chunks in the vector index.
type ChunkWriter interface {
	Upsert(ctx context.Context, chunks []models.Chunk) error
	// DeleteSource removes every chunk previously seeded from source.
	DeleteSource(ctx context.Context, source string) error
}

type Config struct {
	ChunkSize int
	BatchSize int
	Limit     int
	DryRun    bool
	// Concurrency is the number of pages processed at once.
	Concurrency int
	// PageDelay is the pause a worker takes after each page.
	PageDelay time.Duration
}

// Stats summarizes one seeding run.
type Stats struct {
	Pages    int
	Failed   int
	Sections int
	Chunks   int
	Errors   []error
}

// Seeder crawls standards pages, chunks them and writes the chunks to the
// index. The index writer and embedder may be nil in dry-run mode.
type Seeder struct {
	fetcher   Fetcher
	embedder  BatchEmbedder
	writer    ChunkWriter
	processor *ContentProcessor
	config    Config
	logger    *logrus.Logger
}

func NewSeeder(fetcher Fetcher, embedder BatchEmbedder, writer ChunkWriter, processor *ContentProcessor, config Config, logger *logrus.Logger) *Seeder {
	if config.ChunkSize <= 0 {
		config.ChunkSize = 1500
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 64
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &Seeder{
		fetcher:   fetcher,
		embedder:  embedder,
		writer:    writer,
		processor: processor,
		config:    config,
		logger:    logger,
	}
}

// Run seeds every page on a pool of Concurrency workers. A failing page is
// logged and counted; the run goes on. Only context cancellation stops it
// early.
func (s *Seeder) Run(ctx context.Context, pages []PageConfig) (Stats, error) {
	var (
		stats Stats
		mu    sync.Mutex
		wg    sync.WaitGroup
	)

	if s.config.Limit > 0 && s.config.Limit < len(pages) {
		pages = pages[:s.config.Limit]
		s.logger.WithField("limit", s.config.Limit).Info("Limited pages to process")
	}

	workers := s.config.Concurrency
	if workers > len(pages) {
		workers = len(pages)
	}

	s.logger.WithFields(logrus.Fields{
		"total_pages": len(pages),
		"workers":     workers,
	}).Info("Processing standards pages")

	type job struct {
		n    int
		page PageConfig
	}
	jobs := make(chan job)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					continue
				}
				s.logger.WithFields(logrus.Fields{
					"source":   j.page.Source(),
					"priority": j.page.Priority,
					"progress": fmt.Sprintf("%d/%d", j.n, len(pages)),
				}).Info("Processing page")

				sections, chunks, err := s.processPage(ctx, j.page)

				mu.Lock()
				if err != nil {
					s.logger.WithError(err).WithField("source", j.page.Source()).Error("Failed to process page")
					stats.Failed++
					stats.Errors = append(stats.Errors, fmt.Errorf("failed to process %s: %w", j.page.Source(), err))
				} else {
					stats.Pages++
					stats.Sections += sections
					stats.Chunks += chunks
				}
				mu.Unlock()

				if s.config.PageDelay > 0 {
					select {
					case <-ctx.Done():
					case <-time.After(s.config.PageDelay):
					}
				}
			}
		}()
	}

feed:
	for i, page := range pages {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case jobs <- job{n: i + 1, page: page}:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	s.logger.WithFields(logrus.Fields{
		"processed": stats.Pages,
		"failed":    stats.Failed,
		"sections":  stats.Sections,
		"chunks":    stats.Chunks,
	}).Info("Content seeding completed")

	return stats, nil
}

func (s *Seeder) processPage(ctx context.Context, page PageConfig) (int, int, error) {
	doc, err := s.fetcher.Fetch(ctx, page)
	if err != nil {
		return 0, 0, err
	}
	if doc.StandardNumber == "" {
		s.logger.WithField("source", page.Source()).Warn("No standard number found; set standard_number in the pages file")
	}

	chunks := s.BuildChunks(doc)

	if s.config.DryRun {
		words := 0
		for _, section := range doc.Sections {
			words += s.processor.CountWords(section.Content)
		}
		s.logger.WithFields(logrus.Fields{
			"source":          page.Source(),
			"words":           words,
			"standard_number": doc.StandardNumber,
			"standard_name":   doc.StandardName,
			"sections":        len(doc.Sections),
			"chunks":          len(chunks),
		}).Info("DRY RUN: Would upload chunks")
		return len(doc.Sections), len(chunks), nil
	}

	if err := s.embedAndWrite(ctx, doc.URL, chunks); err != nil {
		return 0, 0, err
	}
	return len(doc.Sections), len(chunks), nil
}

// BuildChunks splits every section into chunks carrying the index metadata.
// IDs are derived from URL and position and every chunk records the URL as
// its source.
func (s *Seeder) BuildChunks(doc *Document) []models.Chunk {
	var chunks []models.Chunk
	for si, section := range doc.Sections {
		for ci, text := range s.processor.SplitIntoChunks(section.Content, s.config.ChunkSize) {
			chunks = append(chunks, models.Chunk{
				ID: utils.ChunkID(doc.URL, strconv.Itoa(si), strconv.Itoa(ci)),
				Metadata: models.Metadata{
					StandardNumber: doc.StandardNumber,
					StandardName:   doc.StandardName,
					SectionNumber:  section.Number,
					SectionTitle:   section.Title,
					ChunkText:      text,
					Source:         doc.URL,
				},
			})
		}
	}
	return chunks
}

// embedAndWrite embeds every chunk of one source, then replaces whatever
// the index held for that source. Nothing is deleted when embedding fails.
func (s *Seeder) embedAndWrite(ctx context.Context, source string, chunks []models.Chunk) error {
	if s.embedder == nil || s.writer == nil {
		return fmt.Errorf("embedder and index writer are required outside dry-run")
	}

	for start := 0; start < len(chunks); start += s.config.BatchSize {
		end := start + s.config.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = services.FormatExcerpt(models.Match{Metadata: c.Metadata})
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch: %w", err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embed batch: got %d vectors for %d chunks", len(vectors), len(batch))
		}
		for i := range batch {
			batch[i].Vector = vectors[i]
		}
	}

	if err := s.writer.DeleteSource(ctx, source); err != nil {
		return fmt.Errorf("delete previous chunks: %w", err)
	}

	for start := 0; start < len(chunks); start += s.config.BatchSize {
		end := start + s.config.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := s.writer.Upsert(ctx, chunks[start:end]); err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}

		s.logger.WithFields(logrus.Fields{
			"source":   source,
			"chunks":   end - start,
			"progress": fmt.Sprintf("%d/%d", end, len(chunks)),
		}).Debug("Batch uploaded")
	}
	return nil
}

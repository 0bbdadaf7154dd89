package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/crawler"
	"github.com/ternarybob/laboro/internal/extractor"
	"github.com/ternarybob/laboro/internal/fetcher"
	"github.com/ternarybob/laboro/internal/interfaces"
	"github.com/ternarybob/laboro/internal/llm"
	"github.com/ternarybob/laboro/internal/models"
	"github.com/ternarybob/laboro/internal/pipeline"
	"github.com/ternarybob/laboro/internal/queue"
	"github.com/ternarybob/laboro/internal/scheduler"
	"github.com/ternarybob/laboro/internal/search"
	badgerstore "github.com/ternarybob/laboro/internal/storage/badger"
)

// App wires the ingestion pipeline's services together
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	Storage   *badgerstore.Manager
	QueueMgr  *queue.Manager
	Workers   *queue.WorkerPool
	Fetcher   interfaces.PageFetcher
	LLM       interfaces.LLMService
	Indexer   *search.Indexer
	Processor *pipeline.Processor
	Discovery *crawler.Discovery
	Scheduler *scheduler.Scheduler
}

// New initializes storage, queue and the pipeline services. The LLM service
// is only created when an API key is configured; commands that never touch
// the extraction stage work without one.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storage, err := badgerstore.NewManager(&config.Storage.Badger, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	queueMgr, err := queue.NewManager(storage.BadgerDB(), &config.Queue)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	pageFetcher := fetcher.NewChromeFetcher(&config.Crawler, logger)

	indexer, err := search.NewIndexer(&config.Search, logger)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("failed to initialize search indexer: %w", err)
	}

	var llmService interfaces.LLMService
	var ext *extractor.Extractor
	if config.Claude.APIKey != "" {
		claudeService, err := llm.NewClaudeService(&config.Claude, logger)
		if err != nil {
			storage.Close()
			return nil, fmt.Errorf("failed to initialize Claude service: %w", err)
		}
		llmService = claudeService
		ext = extractor.New(llmService, storage.Organizations(), logger)
	} else {
		logger.Warn().Msg("No Anthropic API key configured, extraction stage unavailable")
	}

	processor := pipeline.NewProcessor(storage, pageFetcher, ext, queueMgr, indexer, &config.Crawler, logger)
	discovery := crawler.NewDiscovery(storage, pageFetcher, queueMgr, &config.Crawler, logger)

	workers := queue.NewWorkerPool(queueMgr, logger)
	workers.RegisterHandler(models.TaskTypeFetch, processor.HandleFetch)
	workers.RegisterHandler(models.TaskTypeExtract, processor.HandleExtract)

	return &App{
		Config:    config,
		Logger:    logger,
		Storage:   storage,
		QueueMgr:  queueMgr,
		Workers:   workers,
		Fetcher:   pageFetcher,
		LLM:       llmService,
		Indexer:   indexer,
		Processor: processor,
		Discovery: discovery,
		Scheduler: scheduler.New(discovery, &config.Scheduler, logger),
	}, nil
}

// StartWorkers starts the queue workers and the scheduler. The extraction
// stage needs the LLM service, so serving without an API key is an error.
func (a *App) StartWorkers() error {
	if a.LLM == nil {
		return fmt.Errorf("Anthropic API key is required to run pipeline workers")
	}

	// Records parked in PENDING or DOWNLOADED by an enqueue failure get their
	// stage message replayed before the workers pick up.
	if _, err := a.Processor.RedispatchIdle(context.Background()); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to redispatch idle records at startup")
	}

	if err := a.Workers.Start(); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}
	return a.Scheduler.Start()
}

// Close shuts the application down in reverse dependency order
func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Workers != nil {
		if err := a.Workers.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop worker pool")
		}
	}
	if a.LLM != nil {
		if err := a.LLM.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}

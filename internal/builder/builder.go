package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/theakash04/termify/internal/api"
	"github.com/theakash04/termify/internal/api/chat"
	"github.com/theakash04/termify/internal/chunker"
	"github.com/theakash04/termify/internal/config"
	"github.com/theakash04/termify/internal/extractor"
	"github.com/theakash04/termify/internal/generation"
	"github.com/theakash04/termify/internal/index"
	"github.com/theakash04/termify/internal/repository"
	"github.com/theakash04/termify/internal/retrieval"
	"github.com/theakash04/termify/internal/summary"
	"github.com/theakash04/termify/internal/tenant"
	"github.com/theakash04/termify/internal/usecase/ingest"
	"github.com/theakash04/termify/internal/usecase/query"
	"go.uber.org/zap"
)

// Build assembles the API server application.
func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	logger.Info("Running database migrations")
	if err := repository.Migrate(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	tenantRepo := repository.NewTenantRepository(db)

	idx, idxCloser, err := setupIndexService(ctx, cfg, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	var gen generation.Service
	if cfg.EnableMocks {
		logger.Info("Using mock generation service")
		gen = generation.NewMockService()
	} else {
		gen = generation.NewConnector(cfg.GenerationCfg, logger)
	}

	extractors := extractor.DefaultRegistry()
	splitter := chunker.NewSplitter(cfg.IngestCfg.ChunkSize, cfg.IngestCfg.ChunkOverlap, logger)
	pipeline := ingest.NewPipeline(extractors, splitter)

	tenants := tenant.NewManager(idx, tenantRepo)

	// Namespaces left behind by a previous run (crash, failed teardown)
	// are swept at startup; anything older than two session lifetimes
	// cannot belong to a live session.
	reapCtx := ctxzap.ToContext(ctx, logger)
	tenants.ReapLingering(reapCtx, tenantRepo, time.Now().Add(-2*cfg.SessionCfg.TTL))
	retriever := retrieval.NewClient(idx,
		cfg.IndexCfg.DefaultNamespace,
		cfg.IndexCfg.DefaultService,
		cfg.IngestCfg.RetrievalLimit,
	)
	summarizer := summary.NewSummarizer(gen, cfg.GenerationCfg.SummaryMaxWords)
	ingestor := ingest.NewTenantProcessor(pipeline, tenants)

	// Expired sessions tear their namespace down on eviction so abandoned
	// conversations do not leak index state.
	sessions := query.NewStore(cfg.SessionCfg.TTL, cfg.SessionCfg.CleanupInterval, func(s *query.Session) {
		if s.Tenant == nil {
			return
		}
		evictCtx, cancel := context.WithTimeout(context.Background(), cfg.IndexCfg.OpTimeout)
		defer cancel()
		evictCtx = ctxzap.ToContext(evictCtx, logger)
		tenants.Teardown(evictCtx, s.Tenant)
	})

	orchestrator := query.NewOrchestrator(sessions, tenants, retriever, gen, summarizer, ingestor)

	chatHandler := chat.NewHandler(orchestrator, cfg.IngestCfg.MaxFileSize)
	router := api.NewRouter(logger, chatHandler)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		idx:    idxCloser,
		logger: logger,
	}, nil
}

// Batch bundles everything the batch ingestion binary needs.
type Batch struct {
	Processor *ingest.BatchProcessor
	Workers   int
	Logger    *zap.Logger

	db        closer
	idxCloser closer
}

// Close releases the batch runner's resources.
func (b *Batch) Close() {
	if b.idxCloser != nil {
		b.idxCloser.Close()
	}
	if b.db != nil {
		b.db.Close()
	}
}

type closer interface{ Close() }

// BuildBatch assembles the batch ingestion driver. workersFlag is read
// after configuration loading has parsed the command line; a value <= 0
// falls back to the configured worker count.
func BuildBatch(workersFlag *int) (*Batch, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	workers := 0
	if workersFlag != nil {
		workers = *workersFlag
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	if err := repository.Migrate(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	idx, idxCloser, err := setupIndexService(ctx, cfg, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	extractors := extractor.DefaultRegistry()
	splitter := chunker.NewSplitter(cfg.IngestCfg.ChunkSize, cfg.IngestCfg.ChunkOverlap, logger)
	pipeline := ingest.NewPipeline(extractors, splitter)

	if workers <= 0 {
		workers = cfg.IngestCfg.Workers
	}

	processor := ingest.NewBatchProcessor(
		pipeline,
		extractors,
		idx,
		repository.NewIngestRunRepository(db),
		cfg.IndexCfg.DefaultNamespace,
		cfg.IndexCfg.DefaultService,
		workers,
	)

	var idxC closer
	if idxCloser != nil {
		idxC = closerFunc(func() { idxCloser.Close() })
	}

	return &Batch{
		Processor: processor,
		Workers:   workers,
		Logger:    logger,
		db:        closerFunc(db.Close),
		idxCloser: idxC,
	}, nil
}

type closerFunc func()

func (f closerFunc) Close() { f() }

func setupIndexService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (index.Service, *index.Client, error) {
	if cfg.EnableMocks {
		logger.Info("Using mock index service")
		return index.NewMockService(), nil, nil
	}

	client := index.NewClient(cfg.IndexCfg)
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping index service: %w", err)
	}
	logger.Info("Index service connection established",
		zap.String("addr", cfg.IndexCfg.Addr),
	)
	return client, client, nil
}

package bootstrap

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"alfredoptarigan/resume-ingestor/internal/config"
	"alfredoptarigan/resume-ingestor/internal/repositories"
	"alfredoptarigan/resume-ingestor/internal/services"
)

// Services holds everything the API server and the bulk ingest tool share.
// IngestRepo, Index and Worker are nil when their feature is disabled.
type Services struct {
	Store            services.ObjectStore
	TextExtractor    services.TextExtractor
	ProfileExtractor services.ProfileExtractor
	Pipeline         services.IngestionPipeline
	Catalog          services.CandidateCatalog
	IngestRepo       repositories.IngestionRepository
	Index            services.CandidateIndex
	Worker           services.Worker
}

func New(ctx context.Context, cfg *config.Config, logger arbor.ILogger) (*Services, error) {
	s := &Services{}

	if cfg.Database.Enabled {
		db, err := config.InitDatabase(cfg, logger)
		if err != nil {
			return nil, err
		}
		s.IngestRepo = repositories.NewIngestionRepository(db)
	}

	store, err := newObjectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.Store = store
	logger.Info().Str("backend", cfg.Storage.Backend).Str("bucket", store.Bucket()).Msg("Object store ready")

	backend, embedder, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("provider", backend.Provider()).Str("model", cfg.LLM.Model).Msg("Generative backend ready")

	schema, err := services.NewProfileSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile profile schema: %w", err)
	}

	retry := services.DefaultRetryPolicy()
	retry.MaxRetries = cfg.LLM.MaxRetries
	if cfg.LLM.InitialBackoff > 0 {
		retry.InitialBackoff = cfg.LLM.InitialBackoff
	}
	if cfg.LLM.MaxBackoff > 0 {
		retry.MaxBackoff = cfg.LLM.MaxBackoff
	}

	s.TextExtractor = services.NewPDFParserService()
	s.ProfileExtractor = services.NewProfileExtractor(
		services.NewRateLimitedBackend(backend, cfg.LLM.RatePerSecond, cfg.LLM.Timeout),
		schema,
		retry,
		cfg.LLM.MaxOutputTokens,
		logger,
	)

	var queue services.IndexQueue
	if cfg.IndexEnabled() && embedder != nil {
		index, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, embedder, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize qdrant: %w", err)
		}
		if err := index.InitCollection(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize qdrant collection: %w", err)
		}
		s.Index = index
		s.Worker = services.NewWorker(index, cfg.Worker.Concurrency, cfg.Worker.QueueSize, logger)
		queue = s.Worker
	}

	s.Pipeline = services.NewIngestionPipeline(
		s.Store,
		s.TextExtractor,
		s.ProfileExtractor,
		s.IngestRepo,
		queue,
		logger,
	)
	s.Catalog = services.NewCandidateCatalog(s.Store, cfg.Catalog.Concurrency, logger)

	return s, nil
}

// Close releases the object store. Stop the worker first.
func (s *Services) Close() error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Close()
}

func newObjectStore(ctx context.Context, cfg *config.Config) (services.ObjectStore, error) {
	if cfg.Storage.Backend == "memory" {
		return services.NewMemoryObjectStore(cfg.Storage.Bucket), nil
	}

	store, err := services.NewGCSObjectStore(ctx, cfg.Storage.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gcs: %w", err)
	}
	return store, nil
}

// newBackend returns the generative backend for the configured provider and,
// for the genai providers, the embedder that shares its client.
func newBackend(ctx context.Context, cfg *config.Config) (services.GenerativeBackend, services.Embedder, error) {
	switch cfg.LLM.Provider {
	case "claude":
		return services.NewClaudeService(cfg.LLM.AnthropicAPIKey, cfg.LLM.Model), nil, nil
	case "vertex":
		gemini, err := services.NewGeminiService(ctx, services.GeminiConfig{
			Project:    cfg.LLM.VertexProject,
			Location:   cfg.LLM.VertexLocation,
			Model:      cfg.LLM.Model,
			EmbedModel: cfg.LLM.EmbeddingModel,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize vertex ai: %w", err)
		}
		return gemini, gemini, nil
	default:
		gemini, err := services.NewGeminiService(ctx, services.GeminiConfig{
			APIKey:     cfg.LLM.GeminiAPIKey,
			Model:      cfg.LLM.Model,
			EmbedModel: cfg.LLM.EmbeddingModel,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize gemini: %w", err)
		}
		return gemini, gemini, nil
	}
}

package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/auralearn/internal/adapters/embedding"
	"github.com/okian/auralearn/internal/adapters/generation"
	"github.com/okian/auralearn/internal/adapters/instrument"
	"github.com/okian/auralearn/internal/adapters/repository"
	"github.com/okian/auralearn/internal/adapters/retrieval/httpkb"
	"github.com/okian/auralearn/internal/adapters/retrieval/memory"
	"github.com/okian/auralearn/internal/config"
	"github.com/okian/auralearn/internal/domain/pipeline"
	"github.com/okian/auralearn/internal/domain/ports"
	"github.com/okian/auralearn/pkg/logger"
)

// FromConfig builds a Service and its gateways from cfg. The corpus watcher,
// when enabled, lives until ctx is done.
func FromConfig(ctx context.Context, cfg *config.Config) (*Service, error) {
	timeout := time.Duration(cfg.GatewayTimeoutMS) * time.Millisecond

	retriever, err := NewRetriever(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gen, err := NewGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}

	logger.Named("bootstrap").Info(ctx, "gateways ready",
		logger.String("retrieval", cfg.RetrievalBackend),
		logger.String("generation", cfg.GenerationBackend),
		logger.String("store", cfg.StoreBackend),
		logger.Duration("timeout", timeout),
	)

	return New(instrument.Retriever(retriever), instrument.Generator(gen),
		WithStore(store),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithPipelineOptions(pipeline.WithContextDocuments(cfg.ContextDocuments)),
	), nil
}

// NewRetriever builds the configured retrieval backend.
func NewRetriever(ctx context.Context, cfg *config.Config) (ports.Retriever, error) {
	switch cfg.RetrievalBackend {
	case config.BackendHTTP:
		return httpkb.New(cfg.RetrievalURL,
			httpkb.WithTopK(cfg.RetrievalTopK),
			httpkb.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.GatewayTimeoutMS) * time.Millisecond}),
		), nil
	case config.BackendMemory, "":
		emb, err := NewEmbedder(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := memory.New(emb, memory.WithTopK(cfg.RetrievalTopK), memory.WithMinScore(cfg.RetrievalMinScore))
		if cfg.CorpusPath == "" {
			return store, nil
		}
		if err := store.Load(ctx, cfg.CorpusPath); err != nil {
			return nil, err
		}
		if cfg.CorpusWatch {
			if err := store.Watch(ctx, cfg.CorpusPath); err != nil {
				return nil, err
			}
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: retrieval backend %q", config.ErrInvalidConfig, cfg.RetrievalBackend)
	}
}

// NewEmbedder builds the configured embedder.
func NewEmbedder(ctx context.Context, cfg *config.Config) (ports.Embedder, error) {
	switch cfg.EmbeddingBackend {
	case config.BackendHashing, "":
		return embedding.NewHashing(0), nil
	case config.BackendOllama:
		return embedding.NewOllama(cfg.OllamaURL, cfg.EmbeddingModel, time.Duration(cfg.GatewayTimeoutMS)*time.Millisecond), nil
	case config.BackendGenAI, config.BackendGemini:
		return embedding.NewGenAI(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
	default:
		return nil, fmt.Errorf("%w: embedding backend %q", config.ErrInvalidConfig, cfg.EmbeddingBackend)
	}
}

// NewGenerator builds the configured generation gateway.
func NewGenerator(ctx context.Context, cfg *config.Config) (ports.Generator, error) {
	settings := generation.Settings{
		Model:       cfg.GenerationModel,
		Temperature: cfg.GenerationTemperature,
		MaxTokens:   cfg.GenerationMaxTokens,
		Timeout:     time.Duration(cfg.GatewayTimeoutMS) * time.Millisecond,
	}
	switch cfg.GenerationBackend {
	case config.BackendOllama, "":
		return generation.NewOllama(cfg.OllamaURL, settings), nil
	case config.BackendGemini, config.BackendGenAI:
		return generation.NewGemini(ctx, cfg.GeminiAPIKey, settings)
	default:
		return nil, fmt.Errorf("%w: generation backend %q", config.ErrInvalidConfig, cfg.GenerationBackend)
	}
}

// NewStore opens the configured path store.
func NewStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory, "":
		return repository.NewMemoryStore(), nil
	case config.BackendSQLite:
		return repository.OpenSQLite(cfg.StorePath)
	default:
		return nil, fmt.Errorf("%w: store backend %q", config.ErrInvalidConfig, cfg.StoreBackend)
	}
}

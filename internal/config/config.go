// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() to build a Config with defaults.
//   - Load layers a YAML file and AURA_ environment variables on top.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
)

// Backend names accepted by the loader.
const (
	BackendMemory  = "memory"
	BackendHTTP    = "http"
	BackendSQLite  = "sqlite"
	BackendHashing = "hashing"
	BackendOllama  = "ollama"
	BackendGemini  = "gemini"
	BackendGenAI   = "genai"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// RetrievalBackend is "memory" (local corpus) or "http" (remote knowledge base).
	RetrievalBackend  string  `koanf:"retrieval_backend"`
	RetrievalURL      string  `koanf:"retrieval_url"`
	RetrievalTopK     int     `koanf:"retrieval_top_k"`
	RetrievalMinScore float64 `koanf:"retrieval_min_score"`

	// CorpusPath points at the YAML corpus loaded by the memory backend.
	CorpusPath  string `koanf:"corpus_path"`
	CorpusWatch bool   `koanf:"corpus_watch"`

	EmbeddingBackend string `koanf:"embedding_backend"`
	EmbeddingModel   string `koanf:"embedding_model"`

	GenerationBackend     string  `koanf:"generation_backend"`
	GenerationModel       string  `koanf:"generation_model"`
	GenerationTemperature float64 `koanf:"generation_temperature"`
	GenerationMaxTokens   int     `koanf:"generation_max_tokens"`

	OllamaURL    string `koanf:"ollama_url"`
	GeminiAPIKey string `koanf:"gemini_api_key"`

	// GatewayTimeoutMS bounds every outbound gateway request.
	GatewayTimeoutMS int `koanf:"gateway_timeout_ms"`

	// ContextDocuments is how many top documents are aggregated as grounding.
	ContextDocuments int `koanf:"context_documents"`

	StoreBackend string `koanf:"store_backend"`
	StorePath    string `koanf:"store_path"`

	// WorkerCount sets the number of async pipeline workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets the size of the job id deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		RetrievalBackend:      BackendMemory,
		RetrievalURL:          "http://localhost:8900",
		RetrievalTopK:         5,
		RetrievalMinScore:     0.05,
		EmbeddingBackend:      BackendHashing,
		GenerationBackend:     BackendOllama,
		GenerationTemperature: 0.2,
		GenerationMaxTokens:   1024,
		OllamaURL:             "http://localhost:11434",
		GatewayTimeoutMS:      120_000,
		ContextDocuments:      3,
		StoreBackend:          BackendMemory,
		StorePath:             "auralearn.db",
		WorkerCount:           4,
		QueueSize:             1000,
		DedupeSize:            10_000,
	}
}

// Validate checks required fields and backend names.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if err := oneOf("retrieval_backend", c.RetrievalBackend, BackendMemory, BackendHTTP); err != nil {
		return err
	}
	if err := oneOf("embedding_backend", c.EmbeddingBackend, BackendHashing, BackendOllama, BackendGenAI); err != nil {
		return err
	}
	if err := oneOf("generation_backend", c.GenerationBackend, BackendOllama, BackendGemini); err != nil {
		return err
	}
	if err := oneOf("store_backend", c.StoreBackend, BackendMemory, BackendSQLite); err != nil {
		return err
	}
	if c.RetrievalBackend == BackendHTTP && c.RetrievalURL == "" {
		return fmt.Errorf("%w: retrieval_url is required for the http backend", ErrInvalidConfig)
	}
	if c.StoreBackend == BackendSQLite && c.StorePath == "" {
		return fmt.Errorf("%w: store_path is required for the sqlite backend", ErrInvalidConfig)
	}
	if (c.GenerationBackend == BackendGemini || c.EmbeddingBackend == BackendGenAI) && c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: gemini_api_key is required for google backends", ErrInvalidConfig)
	}
	if c.RetrievalTopK <= 0 {
		return fmt.Errorf("%w: retrieval_top_k must be positive", ErrInvalidConfig)
	}
	if c.ContextDocuments <= 0 {
		return fmt.Errorf("%w: context_documents must be positive", ErrInvalidConfig)
	}
	return nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q is not one of %s", ErrInvalidConfig, key, value, strings.Join(allowed, ", "))
}

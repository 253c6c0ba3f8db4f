package domain

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local or remote Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or a compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama"
	case AIProviderOpenAI:
		return "OpenAI"
	default:
		return unknownDescription
	}
}

// StorageBackend identifies a document store implementation.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite is an embedded SQLite database file.
	StorageSQLite StorageBackend = "sqlite"

	// StoragePostgres is PostgreSQL with the pgvector extension.
	StoragePostgres StorageBackend = "postgres"

	// StorageMemory keeps everything in process memory.
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StoragePostgres, StorageMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// RerankProvider identifies a reranker implementation.
type RerankProvider string

// Available rerank providers.
const (
	// RerankLexical scores candidates by query term overlap.
	RerankLexical RerankProvider = "lexical"

	// RerankLLM asks the LLM to score each candidate.
	RerankLLM RerankProvider = "llm"
)

// IsValid returns true if the rerank provider is recognised.
func (r RerankProvider) IsValid() bool {
	switch r {
	case RerankLexical, RerankLLM:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r RerankProvider) String() string {
	return string(r)
}

// DatabaseSettings holds connection parameters for the PostgreSQL backend.
type DatabaseSettings struct {
	Name     string
	User     string
	Password string
	Host     string
	Port     int
}

// StorageSettings selects and configures the document store.
type StorageSettings struct {
	// Backend is the store implementation.
	Backend StorageBackend

	// Path is the database file for the SQLite backend.
	Path string

	// Database holds PostgreSQL connection parameters.
	Database DatabaseSettings
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// BatchSize is the number of texts sent per embedding request.
	BatchSize int

	// Dimensions is the expected vector length. Zero accepts whatever
	// the model returns.
	Dimensions int

	// Concurrency is the number of batches in flight at once.
	Concurrency int

	// RequestsPerSecond paces batch requests. Zero disables pacing.
	RequestsPerSecond float64
}

// IsConfigured returns true if a provider and model are set, plus an API
// key where the provider needs one.
func (e *EmbeddingSettings) IsConfigured() bool {
	return isConfigured(e.Provider, e.Model, e.APIKey)
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Temperature is the sampling temperature for answers.
	Temperature float64

	// TimeoutSeconds bounds a single request. Zero means no bound.
	TimeoutSeconds int
}

// IsConfigured returns true if a provider and model are set, plus an API
// key where the provider needs one.
func (l *LLMSettings) IsConfigured() bool {
	return isConfigured(l.Provider, l.Model, l.APIKey)
}

func isConfigured(p AIProvider, model, apiKey string) bool {
	if !p.IsValid() || model == "" {
		return false
	}
	return !p.RequiresAPIKey() || apiKey != ""
}

// ChunkingSettings holds chunk size parameters.
type ChunkingSettings struct {
	// SimpleMaxChars caps a simple segment.
	SimpleMaxChars int

	// BigMaxChars caps a large smalltobig segment.
	BigMaxChars int

	// SmallMaxChars caps a small smalltobig window.
	SmallMaxChars int

	// SmallOverlap is the number of sentences shared by adjacent windows.
	SmallOverlap int
}

// Config returns the chunking parameters for a strategy as a generic map,
// the form chunker builders accept.
func (c ChunkingSettings) Config(s ChunkingStrategy) map[string]any {
	switch s {
	case StrategySimple:
		return map[string]any{"max_chars": c.SimpleMaxChars}
	case StrategySmallToBig:
		return map[string]any{
			"big_max_chars":   c.BigMaxChars,
			"small_max_chars": c.SmallMaxChars,
			"small_overlap":   c.SmallOverlap,
		}
	default:
		return nil
	}
}

// RetrievalSettings holds retrieval behaviour.
type RetrievalSettings struct {
	// OversampleFactor multiplies k when reranking is enabled.
	OversampleFactor int

	// DefaultK is used when a request does not set k.
	DefaultK int

	// Reranker selects the rerank implementation.
	Reranker RerankProvider
}

// AppSettings holds all application settings.
type AppSettings struct {
	Storage   StorageSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings

	// PromptsDir overrides the built-in prompt templates.
	PromptsDir string
}

// Default tuning values. Connection parameters and model identity have
// no defaults.
const (
	DefaultSimpleMaxChars   = 1500
	DefaultBigMaxChars      = 2000
	DefaultSmallMaxChars    = 300
	DefaultSmallOverlap     = 1
	DefaultOversampleFactor = 4
	DefaultK                = 5
	MaxK                    = 10
	DefaultConcurrency      = 1
)

// DefaultAppSettings returns settings with tuning defaults applied and
// every connection value empty.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
		Embedding: EmbeddingSettings{
			Concurrency: DefaultConcurrency,
		},
		Chunking: ChunkingSettings{
			SimpleMaxChars: DefaultSimpleMaxChars,
			BigMaxChars:    DefaultBigMaxChars,
			SmallMaxChars:  DefaultSmallMaxChars,
			SmallOverlap:   DefaultSmallOverlap,
		},
		Retrieval: RetrievalSettings{
			OversampleFactor: DefaultOversampleFactor,
			DefaultK:         DefaultK,
			Reranker:         RerankLexical,
		},
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// Package llm provides a provider-agnostic client interface over the
// supported LLM backends, with per-provider rate limiting.
package llm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/tildaslashalef/codeforge/internal/claude"
	"github.com/tildaslashalef/codeforge/internal/config"
	"github.com/tildaslashalef/codeforge/internal/loggy"
	"github.com/tildaslashalef/codeforge/internal/ollama"
)

// ChatRequest represents a generic chat request to any LLM
type ChatRequest struct {
	Model       string                 `json:"model"`
	Messages    []Message              `json:"messages"`
	System      string                 `json:"system,omitempty"`
	MaxTokens   int                    `json:"max_tokens,omitempty"`
	Temperature float64                `json:"temperature,omitempty"`
	Stream      bool                   `json:"stream,omitempty"`
	Options     map[string]interface{} `json:"options,omitempty"`
}

// Message represents a chat message with role and content
type Message struct {
	Role    string `json:"role"` // user, assistant, or system
	Content string `json:"content"`
}

// ChatResponse represents a response from a chat request
type ChatResponse struct {
	Content   string `json:"content"`
	Model     string `json:"model"`
	Completed bool   `json:"completed"`
	Error     string `json:"error,omitempty"`
}

// EmbeddingRequest represents a request for generating embeddings
type EmbeddingRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// Client defines the interface for LLM clients
type Client interface {
	// GenerateChat sends a non-streaming chat request
	GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// GenerateChatStream sends a streaming chat request
	GenerateChatStream(ctx context.Context, req ChatRequest) (<-chan ChatResponse, error)

	// GenerateEmbedding generates an embedding for text
	GenerateEmbedding(ctx context.Context, req EmbeddingRequest) ([]float32, error)

	// BatchEmbeddings generates embeddings in batch
	BatchEmbeddings(ctx context.Context, reqs []EmbeddingRequest) ([][]float32, error)
}

// ClientType defines the type of LLM client
type ClientType string

const (
	// Ollama client type
	Ollama ClientType = "ollama"

	// Claude client type
	Claude ClientType = "claude"
)

// Factory creates and returns LLM clients
type Factory struct {
	config *config.Config
	ollama *ollama.Client
	claude *claude.Client
	logger *loggy.Logger

	ollamaLimiter *rate.Limiter
	claudeLimiter *rate.Limiter
}

// newLimiter creates a rate limiter from RPM and burst values
func newLimiter(rpm, burst int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	r := rate.Limit(float64(rpm) / 60.0)
	b := burst
	if b <= 0 {
		b = 1
	}
	return rate.NewLimiter(r, b)
}

// NewFactory creates a new LLM client factory
func NewFactory(cfg *config.Config, logger *loggy.Logger) *Factory {
	f := &Factory{
		config: cfg,
		logger: logger,
	}

	if cfg.Ollama.Endpoint != "" {
		f.ollama = ollama.NewClient(cfg.Ollama)
		f.ollamaLimiter = newLimiter(cfg.Ollama.RequestsPerMinute, cfg.Ollama.BurstLimit)
		logger.Info("initialized Ollama client",
			"endpoint", cfg.Ollama.Endpoint,
			"rpm", cfg.Ollama.RequestsPerMinute,
			"burst", cfg.Ollama.BurstLimit)
	}

	if cfg.Claude.APIKey != "" {
		f.claude = claude.NewClient(cfg.Claude)
		f.claudeLimiter = newLimiter(cfg.Claude.RequestsPerMinute, cfg.Claude.BurstLimit)
		logger.Info("initialized Claude client",
			"base_url", cfg.Claude.BaseURL,
			"model", cfg.Claude.Model,
			"rpm", cfg.Claude.RequestsPerMinute,
			"burst", cfg.Claude.BurstLimit)
	}

	return f
}

// GetClient returns an LLM client of the specified type
func (f *Factory) GetClient(clientType ClientType) (Client, error) {
	switch clientType {
	case Ollama:
		if f.ollama == nil {
			return nil, fmt.Errorf("Ollama client not initialized - check configuration")
		}
		return newOllamaClientAdapter(f.ollama, f.config, f.ollamaLimiter), nil

	case Claude:
		if f.claude == nil {
			return nil, fmt.Errorf("Claude client not initialized - check configuration")
		}
		// Claude has no embeddings API; delegate embedding calls to
		// Ollama when it is configured
		return newClaudeClientAdapter(f.claude, f.ollama, f.config, f.claudeLimiter, f.ollamaLimiter), nil

	default:
		return nil, fmt.Errorf("unknown client type: %s", clientType)
	}
}

// GetDefaultClient returns the default client based on configuration,
// falling back to the first available provider
func (f *Factory) GetDefaultClient() (Client, ClientType, error) {
	defaultType := ClientType(f.config.DefaultLLMProvider)

	client, err := f.GetClient(defaultType)
	if err == nil {
		return client, defaultType, nil
	}

	f.logger.Warn("Default LLM provider not available, falling back",
		"default", defaultType, "error", err)

	if f.ollama != nil {
		return newOllamaClientAdapter(f.ollama, f.config, f.ollamaLimiter), Ollama, nil
	}
	if f.claude != nil {
		return newClaudeClientAdapter(f.claude, f.ollama, f.config, f.claudeLimiter, f.ollamaLimiter), Claude, nil
	}

	return nil, "", fmt.Errorf("no LLM clients initialized - check configuration")
}

// ProviderStatus is the result of a pre-run provider check
type ProviderStatus struct {
	Provider   ClientType
	Version    string // server version, when the provider exposes one
	ModelFound bool   // whether the requested model is available locally
}

// Preflight verifies the provider is usable before a generation run.
// For Ollama it pings the server and checks that the requested model
// has been pulled. Claude has no cheap health endpoint, so a configured
// API key is taken at face value and validated on first request.
func (f *Factory) Preflight(ctx context.Context, provider ClientType, model string) (*ProviderStatus, error) {
	status := &ProviderStatus{Provider: provider, ModelFound: true}

	switch provider {
	case Ollama:
		if f.ollama == nil {
			return nil, fmt.Errorf("Ollama client not initialized - check configuration")
		}

		version, err := f.ollama.GetVersion(ctx)
		if err != nil {
			return nil, fmt.Errorf("Ollama server unreachable at %s: %w", f.config.Ollama.Endpoint, err)
		}
		status.Version = version

		models, err := f.ollama.ListModels(ctx)
		if err != nil {
			// Server is up but /api/tags failed; let the run proceed
			f.logger.Warn("could not list Ollama models", "error", err)
			return status, nil
		}
		status.ModelFound = modelAvailable(models, model)

	case Claude:
		if f.claude == nil {
			return nil, fmt.Errorf("Claude client not initialized - check configuration")
		}

	default:
		return nil, fmt.Errorf("unknown client type: %s", provider)
	}

	return status, nil
}

// modelAvailable reports whether the named model is in the list.
// Ollama model names carry an optional tag (e.g. "qwen2.5-coder:7b"),
// so a bare name matches any tag of that model.
func modelAvailable(models []ollama.ModelInfo, name string) bool {
	for _, m := range models {
		if m.Name == name || strings.HasPrefix(m.Name, name+":") {
			return true
		}
	}
	return false
}

// GenerateChat generates a chat response from the default LLM provider
func (f *Factory) GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	client, _, err := f.GetDefaultClient()
	if err != nil {
		return nil, err
	}
	return client.GenerateChat(ctx, req)
}

// GenerateEmbedding generates an embedding from the default LLM provider
func (f *Factory) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) ([]float32, error) {
	client, _, err := f.GetDefaultClient()
	if err != nil {
		return nil, err
	}
	return client.GenerateEmbedding(ctx, req)
}

// BatchEmbeddings generates multiple embeddings from the default LLM provider
func (f *Factory) BatchEmbeddings(ctx context.Context, reqs []EmbeddingRequest) ([][]float32, error) {
	client, _, err := f.GetDefaultClient()
	if err != nil {
		return nil, err
	}
	return client.BatchEmbeddings(ctx, reqs)
}

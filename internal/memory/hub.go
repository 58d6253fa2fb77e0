package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/tildaslashalef/codeforge/internal/config"
	"github.com/tildaslashalef/codeforge/internal/llm"
	"github.com/tildaslashalef/codeforge/internal/loggy"
)

// Embedder is the embedding surface the hub needs. llm.Factory
// satisfies it.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, req llm.EmbeddingRequest) ([]float32, error)
}

// Hub stores summaries of completed generation runs and retrieves
// similar past work for prompt enrichment.
type Hub struct {
	repo     Repository
	embedder Embedder
	cfg      config.MemoryConfig
	logger   *loggy.Logger
}

// NewHub creates a memory hub
func NewHub(repo Repository, embedder Embedder, cfg config.MemoryConfig, logger *loggy.Logger) *Hub {
	return &Hub{
		repo:     repo,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
}

// StoreGeneration records a completed generation run as a memory with
// its embedding. A no-op when the memory hub is disabled.
func (h *Hub) StoreGeneration(ctx context.Context, projectID, generationID, summary, content string) (*Memory, error) {
	if !h.cfg.Enabled {
		return nil, nil
	}
	if strings.TrimSpace(summary) == "" {
		return nil, fmt.Errorf("memory summary is empty")
	}

	embedding, err := h.embedder.GenerateEmbedding(ctx, llm.EmbeddingRequest{Text: summary})
	if err != nil {
		return nil, fmt.Errorf("generating memory embedding: %w", err)
	}

	mem := New(projectID, generationID, summary, content)
	if err := h.repo.CreateMemory(ctx, mem); err != nil {
		return nil, fmt.Errorf("storing memory: %w", err)
	}
	if err := h.repo.SaveEmbedding(ctx, mem.ID, embedding); err != nil {
		return nil, fmt.Errorf("storing memory embedding: %w", err)
	}

	h.logger.Info("Stored generation memory", "memory_id", mem.ID, "project_id", projectID, "dimensions", len(embedding))
	return mem, nil
}

// Similar returns the memories most similar to the given text
func (h *Hub) Similar(ctx context.Context, text string, n int) ([]*ScoredMemory, error) {
	if !h.cfg.Enabled {
		return nil, nil
	}
	if n <= 0 {
		n = h.cfg.NSimilar
	}

	embedding, err := h.embedder.GenerateEmbedding(ctx, llm.EmbeddingRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("embedding query text: %w", err)
	}

	return h.repo.Search(ctx, embedding, n, h.cfg.MinSimilarity)
}

// SimilarSummaries returns formatted summaries of the most similar past
// generations. It implements the prompt enrichment source used by the
// generation pipeline.
func (h *Hub) SimilarSummaries(ctx context.Context, text string, n int) ([]string, error) {
	scored, err := h.Similar(ctx, text, n)
	if err != nil {
		return nil, err
	}

	summaries := make([]string, 0, len(scored))
	for _, s := range scored {
		summaries = append(summaries, s.Memory.Summary)
	}
	return summaries, nil
}

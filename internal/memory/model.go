// Package memory implements the generation memory hub: summaries of
// past generation runs stored with embeddings, retrieved by vector
// similarity to enrich prompts for new projects.
package memory

import (
	"errors"
	"time"

	"github.com/tildaslashalef/codeforge/internal/ulid"
)

var (
	// ErrMemoryNotFound is returned when a memory is not found
	ErrMemoryNotFound = errors.New("memory not found")

	// ErrInvalidEmbedding is returned when an embedding is empty or malformed
	ErrInvalidEmbedding = errors.New("invalid embedding")
)

// Memory is one stored record of a past generation run
type Memory struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	GenerationID string    `json:"generation_id"`
	Summary      string    `json:"summary"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

// New creates a Memory with a fresh ID
func New(projectID, generationID, summary, content string) *Memory {
	return &Memory{
		ID:           ulid.MemoryID(),
		ProjectID:    projectID,
		GenerationID: generationID,
		Summary:      summary,
		Content:      content,
		CreatedAt:    time.Now(),
	}
}

// ScoredMemory pairs a memory with its similarity to a query vector
type ScoredMemory struct {
	Memory     *Memory `json:"memory"`
	Similarity float64 `json:"similarity"`
}

// Package generation implements the codebase generation pipeline: it
// builds component prompts, invokes an LLM client, extracts files from
// the raw output and persists the results.
package generation

import (
	"time"

	"github.com/tildaslashalef/codeforge/internal/ulid"
)

// Generation status values as stored in the database
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusPartial   = "partial" // some components recovered or fell back
	StatusFailed    = "failed"
)

// Component identifies one generation agent in the flat component list
type Component string

const (
	ComponentBackend  Component = "backend"
	ComponentFrontend Component = "frontend"
	ComponentDatabase Component = "database"
	ComponentDevOps   Component = "devops"
	ComponentDocs     Component = "docs"
)

// Components lists all pipeline components in execution order
var Components = []Component{
	ComponentBackend,
	ComponentFrontend,
	ComponentDatabase,
	ComponentDevOps,
	ComponentDocs,
}

// Generation represents a single pipeline run against a project
type Generation struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Provider    string     `json:"provider"`
	Model       string     `json:"model"`
	Prompt      string     `json:"prompt"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewGeneration creates a pending Generation with a fresh ID
func NewGeneration(projectID, provider, model, prompt string) *Generation {
	now := time.Now()
	return &Generation{
		ID:        ulid.GenerationID(),
		ProjectID: projectID,
		Provider:  provider,
		Model:     model,
		Prompt:    prompt,
		Status:    StatusPending,
		CreatedAt: now,
	}
}

// GeneratedFile represents one file produced by a generation run
type GeneratedFile struct {
	ID           string    `json:"id"`
	GenerationID string    `json:"generation_id"`
	FilePath     string    `json:"file_path"`
	Content      string    `json:"content"`
	Purpose      string    `json:"purpose,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewGeneratedFile creates a GeneratedFile record with a fresh ID
func NewGeneratedFile(generationID, path, content, purpose, status string) *GeneratedFile {
	return &GeneratedFile{
		ID:           ulid.FileID(),
		GenerationID: generationID,
		FilePath:     path,
		Content:      content,
		Purpose:      purpose,
		Status:       status,
		CreatedAt:    time.Now(),
	}
}

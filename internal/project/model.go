package project

import (
	"time"

	"github.com/tildaslashalef/codeforge/internal/ulid"
)

// Project represents a generated project tracked by codeforge
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OutputPath  string    `json:"output_path"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// New creates a new project with a generated ID
func New(name, description, outputPath string) *Project {
	now := time.Now()
	return &Project{
		ID:          ulid.ProjectID(),
		Name:        name,
		Description: description,
		OutputPath:  outputPath,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

package generation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tildaslashalef/codeforge/internal/config"
	"github.com/tildaslashalef/codeforge/internal/extractor"
	"github.com/tildaslashalef/codeforge/internal/llm"
	"github.com/tildaslashalef/codeforge/internal/loggy"
	"github.com/tildaslashalef/codeforge/internal/recovery"
)

// ChatClient is the narrow LLM surface the pipeline needs. llm.Factory
// satisfies it.
type ChatClient interface {
	GenerateChat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// MemorySource retrieves summaries of similar past generations used to
// enrich component prompts. Optional; a nil source disables enrichment.
type MemorySource interface {
	SimilarSummaries(ctx context.Context, text string, n int) ([]string, error)
}

// Request describes one pipeline run
type Request struct {
	ProjectID    string
	ProjectName  string
	Requirements string
	Provider     string
	Model        string
	OutputDir    string      // Target directory for the generated project
	Components   []Component // Defaults to the full component list when empty
}

// ComponentResult captures the outcome of a single component agent
type ComponentResult struct {
	Component Component
	Files     []extractor.SourceFile
	Recovered bool // Files came from a recovery tier rather than a clean parse
	Fallback  bool // Files were substituted from the built-in templates
	Err       error
}

// Result is the outcome of a full pipeline run
type Result struct {
	Generation *Generation
	Components []ComponentResult
	Written    []string // Relative paths of files written to disk
}

// Service orchestrates the generation pipeline
type Service struct {
	chat      ChatClient
	extractor *extractor.FileExtractor
	handler   *recovery.Handler
	repo      Repository
	memories  MemorySource
	memCfg    config.MemoryConfig
	logger    *loggy.Logger
}

// NewService creates a generation pipeline service. memories may be nil.
func NewService(chat ChatClient, ext *extractor.FileExtractor, handler *recovery.Handler, repo Repository, memories MemorySource, memCfg config.MemoryConfig, logger *loggy.Logger) *Service {
	return &Service{
		chat:      chat,
		extractor: ext,
		handler:   handler,
		repo:      repo,
		memories:  memories,
		memCfg:    memCfg,
		logger:    logger,
	}
}

// Run executes the full pipeline for one project: every component agent
// in order, files extracted, recovered or substituted, persisted, and
// written under req.OutputDir.
//
// Run only returns an error for infrastructure failures (persistence,
// filesystem). Generation and parsing failures are absorbed into the
// component results and the generation status.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	components := req.Components
	if len(components) == 0 {
		components = Components
	}

	gen := NewGeneration(req.ProjectID, req.Provider, req.Model, req.Requirements)
	gen.Status = StatusRunning
	if err := s.repo.CreateGeneration(ctx, gen); err != nil {
		return nil, fmt.Errorf("creating generation record: %w", err)
	}
	ctx = loggy.WithGenerationID(ctx, gen.ID)

	similar := s.retrieveSimilar(ctx, req.Requirements)

	result := &Result{Generation: gen}
	var records []*GeneratedFile
	failed := 0
	degraded := 0

	for _, component := range components {
		cr := s.runComponent(ctx, req, component, similar)
		result.Components = append(result.Components, cr)

		if cr.Err != nil && len(cr.Files) == 0 {
			failed++
			continue
		}
		if cr.Recovered || cr.Fallback {
			degraded++
		}

		for _, f := range cr.Files {
			status := f.Status
			if status == "" {
				status = extractor.StatusGenerated
			}
			records = append(records, NewGeneratedFile(gen.ID, f.Path, f.Content, f.Purpose, status))
		}
	}

	if err := s.repo.CreateFiles(ctx, records); err != nil {
		return nil, fmt.Errorf("saving generated files: %w", err)
	}

	written, err := s.writeFiles(req.OutputDir, records)
	result.Written = written
	if err != nil {
		return nil, fmt.Errorf("writing generated files: %w", err)
	}

	now := time.Now()
	status, errMsg := runStatus(len(components), failed, degraded)
	gen.Status = status
	gen.Error = errMsg
	gen.CompletedAt = &now
	if err := s.repo.UpdateGenerationStatus(ctx, gen.ID, status, errMsg, &now); err != nil {
		return nil, fmt.Errorf("updating generation status: %w", err)
	}

	s.logger.Info("Generation run finished",
		"generation_id", gen.ID,
		"status", status,
		"components", len(components),
		"failed", failed,
		"files", len(records),
	)
	return result, nil
}

// runComponent drives one component agent through the generate, parse,
// recover, fall back ladder.
func (s *Service) runComponent(ctx context.Context, req Request, component Component, similar []string) ComponentResult {
	cr := ComponentResult{Component: component}

	prompt := BuildComponentPrompt(component, req.ProjectName, req.Requirements, similar)
	errCtx := map[string]string{
		"component":     string(component),
		"project":       req.ProjectName,
		"generation_id": loggy.GetGenerationID(ctx),
	}

	resp, err := s.chat.GenerateChat(ctx, llm.ChatRequest{
		Model:    req.Model,
		System:   SystemPrompt,
		Messages: []llm.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		recResp := s.handler.HandleGenerationError(ctx, err, errCtx)
		s.logger.Warn("Component generation failed", "component", component, "status", recResp.Status, "error", err)
		cr.Err = err
		cr.Files = FallbackFiles(component, req.ProjectName, req.Requirements)
		cr.Fallback = len(cr.Files) > 0
		return cr
	}

	files := s.extractor.Parse(resp.Content)
	if len(files) > 0 {
		cr.Files = files
		return cr
	}

	recResp := s.handler.HandleParsingError(ctx, resp.Content, errors.New("no files extracted from model output"), errCtx)
	switch recResp.Status {
	case recovery.StatusRecovered:
		cr.Files = recResp.Files
		cr.Recovered = true
	default:
		cr.Err = fmt.Errorf("component %s unrecoverable: %s", component, recResp.Message)
		cr.Files = FallbackFiles(component, req.ProjectName, req.Requirements)
		cr.Fallback = len(cr.Files) > 0
	}
	return cr
}

func (s *Service) retrieveSimilar(ctx context.Context, requirements string) []string {
	if s.memories == nil || !s.memCfg.Enabled {
		return nil
	}
	similar, err := s.memories.SimilarSummaries(ctx, requirements, s.memCfg.NSimilar)
	if err != nil {
		s.logger.Warn("Memory retrieval failed, continuing without enrichment", "error", err)
		return nil
	}
	return similar
}

// writeFiles writes the generated file records under root, refusing any
// path that would escape it. Returns the relative paths written.
func (s *Service) writeFiles(root string, files []*GeneratedFile) ([]string, error) {
	if root == "" {
		return nil, fmt.Errorf("output directory not set")
	}

	var written []string
	for _, f := range files {
		rel, err := sanitizeRelPath(f.FilePath)
		if err != nil {
			s.logger.Warn("Skipping file with unsafe path", "path", f.FilePath, "error", err)
			continue
		}

		fullPath := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return written, fmt.Errorf("creating directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(fullPath, []byte(f.Content), 0644); err != nil {
			return written, fmt.Errorf("writing %s: %w", rel, err)
		}
		written = append(written, rel)
	}
	return written, nil
}

// sanitizeRelPath normalizes a generated file path and rejects anything
// that is absolute or climbs out of the project root.
func sanitizeRelPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("empty path")
	}

	p = filepath.ToSlash(filepath.Clean(p))
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("absolute path %q", p)
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("path %q escapes the project root", p)
	}
	return filepath.FromSlash(p), nil
}

func runStatus(total, failed, degraded int) (string, string) {
	switch {
	case failed == total:
		return StatusFailed, "all components failed"
	case failed > 0 || degraded > 0:
		return StatusPartial, fmt.Sprintf("%d of %d components failed or degraded", failed+degraded, total)
	default:
		return StatusCompleted, ""
	}
}

package extractor

import (
	"fmt"
	"path"
	"strings"

	"github.com/tildaslashalef/codeforge/internal/config"
	"github.com/tildaslashalef/codeforge/internal/loggy"
)

// FileExtractor turns one raw LLM completion into validated SourceFile
// records. It owns the strategy cascade and the shared validation rules.
//
// Parse never returns an error and never panics: a completion that defeats
// every strategy yields an empty slice, and the caller decides whether
// that is a failure.
type FileExtractor struct {
	cfg        config.ExtractorConfig
	logger     *loggy.Logger
	strategies []Strategy
}

// New creates a FileExtractor with the default strategy cascade
func New(cfg config.ExtractorConfig, logger *loggy.Logger) *FileExtractor {
	return &FileExtractor{
		cfg:    cfg,
		logger: logger,
		strategies: []Strategy{
			explicitMarkerStrategy{},
			headingFilenameStrategy{},
			boldFilenameStrategy{},
			embeddedHeadersStrategy{},
			precedingNameStrategy{},
			inferenceStrategy{},
		},
	}
}

// Parse extracts files from a raw LLM completion. Strategies run in
// priority order and the first one whose candidates survive validation
// wins; later strategies are not consulted, even if they would have found
// additional files elsewhere in the same text.
func (e *FileExtractor) Parse(raw string) []SourceFile {
	if strings.TrimSpace(raw) == "" {
		e.logger.Warn("Empty LLM output, nothing to extract")
		return nil
	}

	for _, strat := range e.strategies {
		candidates := e.tryStrategy(strat, raw)
		if len(candidates) == 0 {
			continue
		}

		valid := e.validate(candidates, strat.Name())
		if len(valid) == 0 {
			e.logger.Debug("Strategy candidates all failed validation",
				"strategy", strat.Name(),
				"candidates", len(candidates),
			)
			continue
		}

		e.logger.Debug("Extracted files",
			"strategy", strat.Name(),
			"files", len(valid),
		)
		return valid
	}

	// Every strategy came up empty; scrape whatever looks like code
	files := e.emergencyParse(raw)
	if len(files) == 0 {
		e.logger.Warn("No files could be extracted from LLM output",
			"length", len(raw),
		)
		return nil
	}

	e.logger.Warn("Falling back to emergency extraction",
		"files", len(files),
	)
	return files
}

// tryStrategy runs a single strategy with panic containment: a heuristic
// blowing up on adversarial input must not abort the cascade.
func (e *FileExtractor) tryStrategy(strat Strategy, raw string) (files []SourceFile) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Parsing strategy panicked",
				"strategy", strat.Name(),
				"panic", fmt.Sprint(r),
			)
			files = nil
		}
	}()

	return strat.Extract(raw)
}

// validate applies the shared path and content rules to a strategy's
// candidates. Invalid candidates are dropped silently here; the recovery
// layer's ValidateFiles is the diagnostic surface that explains failures.
func (e *FileExtractor) validate(candidates []SourceFile, strategyName string) []SourceFile {
	seen := make(map[string]int)
	var valid []SourceFile

	for _, f := range candidates {
		if f.Path == "" || !pathRe.MatchString(f.Path) {
			e.logger.Debug("Dropping candidate with bad path", "path", f.Path)
			continue
		}
		if !isValidFilename(f.Path) {
			e.logger.Debug("Dropping candidate with unrecognized filename", "path", f.Path)
			continue
		}

		content := strings.TrimRight(f.Content, "\n")
		if len(strings.TrimSpace(content)) < e.contentFloor(f.Path) {
			e.logger.Debug("Dropping candidate with short content",
				"path", f.Path,
				"length", len(strings.TrimSpace(content)),
			)
			continue
		}

		f.Content = content
		f.Path = uniquePath(f.Path, seen)
		if f.Status == "" {
			f.Status = StatusGenerated
		}
		if f.Purpose == "" {
			f.Purpose = "recovered by " + strategyName + " strategy"
		}
		valid = append(valid, f)
	}

	return valid
}

// contentFloor returns the minimum acceptable content length for a path.
// The floor is tiered because legitimate infra files are often tiny: a
// one-line .env must not be rejected by a source-file minimum.
func (e *FileExtractor) contentFloor(p string) int {
	base := strings.ToLower(path.Base(p))

	switch {
	case buildFilenames[base]:
		return e.cfg.BuildFloor
	case strings.HasPrefix(base, ".") || extensionOf(base) == "env":
		return e.cfg.EnvFloor
	case infraExtensions[extensionOf(base)]:
		return e.cfg.InfraFloor
	default:
		return e.cfg.DefaultFloor
	}
}

// uniquePath keeps output paths distinct when two blocks resolve to the
// same name, which mostly happens with inferred filenames
func uniquePath(p string, seen map[string]int) string {
	seen[p]++
	if seen[p] == 1 {
		return p
	}

	ext := path.Ext(p)
	stem := strings.TrimSuffix(p, ext)
	renamed := fmt.Sprintf("%s_%d%s", stem, seen[p], ext)
	seen[renamed]++
	return renamed
}

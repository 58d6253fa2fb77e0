package recovery

import (
	"context"
	"fmt"
	"regexp"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/tildaslashalef/codeforge/internal/config"
	"github.com/tildaslashalef/codeforge/internal/extractor"
	"github.com/tildaslashalef/codeforge/internal/loggy"
	"github.com/tildaslashalef/codeforge/internal/ulid"
)

var fencedBlockRe = regexp.MustCompile("(?s)```[^\n]*\n(.*?)```")

// Handler owns the error history and delegates parsing to the extractor.
// One Handler is constructed per process and shared by every agent; the
// history is guarded by a mutex since agents may call in from different
// goroutines.
type Handler struct {
	cfg       config.RecoveryConfig
	extractor *extractor.FileExtractor
	logger    *loggy.Logger

	mu      sync.Mutex
	history []ErrorReport
}

// NewHandler creates a Handler around the given extractor
func NewHandler(ext *extractor.FileExtractor, cfg config.RecoveryConfig, logger *loggy.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		extractor: ext,
		logger:    logger,
		history:   make([]ErrorReport, 0, cfg.HistorySize),
	}
}

// HandleParsingError records a parsing failure and walks the recovery
// ladder: first a re-run of the full strategy cascade, then the uncritical
// emergency extraction. The returned Response always carries a status and
// never an error.
func (h *Handler) HandleParsingError(ctx context.Context, raw string, cause error, errCtx map[string]string) Response {
	log := loggy.FromContext(ctx)
	if log == nil {
		log = h.logger
	}

	// Fail fast while the breaker is open rather than re-running the
	// cascade against input that keeps failing
	if h.breakerOpen(time.Now()) {
		report := h.newReport("parser", "llm_parsing", SeverityCritical, cause, errCtx)
		h.record(report)

		log.Error("Circuit breaker open, skipping parse recovery",
			"error", cause,
			"window", h.cfg.CircuitBreakerWindow,
		)

		return Response{
			Status:         StatusCircuitBreaker,
			Files:          []extractor.SourceFile{},
			Severity:       SeverityCritical,
			CircuitBreaker: true,
			Message:        "repeated parsing failures within the breaker window, recovery suspended",
		}
	}

	report := h.newReport("parser", "llm_parsing", SeverityHigh, cause, errCtx)
	report.RecoveryAttempted = true

	log.Warn("Handling LLM parsing error",
		"error", cause,
		"raw_length", len(raw),
	)

	// First recovery tier: the cascade may succeed where the caller's
	// earlier attempt failed, e.g. when the caller rejected a partial
	// result
	if files := h.extractor.Parse(raw); len(files) > 0 {
		report.RecoverySucceeded = true
		h.record(report)

		return Response{
			Status:           StatusRecovered,
			Files:            files,
			RecoveryStrategy: StrategyFullParser,
			Severity:         SeverityHigh,
		}
	}

	// Second tier: grab every big fenced block with no name inference at
	// all; a wrongly named file beats a lost one
	if files := h.emergencyExtract(raw); len(files) > 0 {
		report.RecoverySucceeded = true
		h.record(report)

		log.Warn("Recovered files via emergency extraction", "files", len(files))

		return Response{
			Status:           StatusRecovered,
			Files:            files,
			RecoveryStrategy: StrategyEmergencyExtraction,
			Severity:         SeverityHigh,
		}
	}

	h.record(report)

	return Response{
		Status:   StatusError,
		Severity: SeverityHigh,
		Message:  fmt.Sprintf("all recovery strategies exhausted: %v", cause),
	}
}

// HandleGenerationError records a code-generation failure. When the
// circuit breaker is open the severity escalates to critical and the
// response short-circuits, so a persistently failing pipeline stops
// burning LLM calls.
func (h *Handler) HandleGenerationError(ctx context.Context, cause error, errCtx map[string]string) Response {
	breakerOpen := h.breakerOpen(time.Now())

	severity := SeverityHigh
	if breakerOpen {
		severity = SeverityCritical
	}

	report := h.newReport("generation", "code_generation", severity, cause, errCtx)
	h.record(report)

	log := loggy.FromContext(ctx)
	if log == nil {
		log = h.logger
	}

	if breakerOpen {
		log.Error("Circuit breaker open, refusing further generation attempts",
			"error", cause,
			"window", h.cfg.CircuitBreakerWindow,
		)

		return Response{
			Status:         StatusCircuitBreaker,
			Files:          []extractor.SourceFile{},
			Severity:       SeverityCritical,
			CircuitBreaker: true,
			Message:        "repeated failures within the breaker window, generation suspended",
		}
	}

	log.Error("Code generation failed", "error", cause)

	return Response{
		Status:   StatusError,
		Files:    []extractor.SourceFile{},
		Severity: severity,
		Message:  cause.Error(),
	}
}

// ValidateFiles re-checks files against the extractor's path and content
// rules, reporting why each invalid file failed. This is the user-facing
// diagnostic surface; the extractor itself drops bad files silently.
func (h *Handler) ValidateFiles(files []extractor.SourceFile) ValidationResult {
	result := ValidationResult{}

	for _, f := range files {
		if err := h.extractor.Check(f); err != nil {
			result.Invalid = append(result.Invalid, InvalidFile{
				File:   f,
				Reason: err.Error(),
			})
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", f.Path, err))
			continue
		}
		result.Valid = append(result.Valid, f)
	}

	if len(result.Invalid) > 0 {
		h.logger.Warn("File validation found invalid files",
			"valid", len(result.Valid),
			"invalid", len(result.Invalid),
		)
	}

	return result
}

// ErrorSummary aggregates the recorded history
func (h *Handler) ErrorSummary() Summary {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	summary := Summary{
		TotalErrors: len(h.history),
		BreakerOpen: h.breakerOpenLocked(now),
		BySeverity:  make(map[Severity]int),
		Patterns:    make(map[string]int),
	}

	for _, r := range h.history {
		summary.BySeverity[r.Severity]++
		summary.Patterns[r.PatternKey()]++
		if now.Sub(r.Timestamp) <= time.Hour {
			summary.LastHour++
		}
	}

	return summary
}

// newReport builds an ErrorReport without recording it
func (h *Handler) newReport(module, errorType string, severity Severity, cause error, errCtx map[string]string) ErrorReport {
	report := ErrorReport{
		ID:        ulid.ErrorID(),
		Timestamp: time.Now(),
		Module:    module,
		ErrorType: errorType,
		Severity:  severity,
		Context:   errCtx,
	}

	if cause != nil {
		report.Message = cause.Error()
	}

	if severity == SeverityHigh || severity == SeverityCritical {
		report.Stack = string(debug.Stack())
	}

	return report
}

// record appends a report to the bounded history
func (h *Handler) record(report ErrorReport) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.history = append(h.history, report)

	// Bounded history: drop the oldest entries once the cap is reached
	if len(h.history) > h.cfg.HistorySize {
		h.history = h.history[len(h.history)-h.cfg.HistorySize:]
	}
}

// breakerOpen reports whether the circuit breaker is open at the given
// time. The breaker is not stored state; it is computed over the history
// on demand.
func (h *Handler) breakerOpen(now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.breakerOpenLocked(now)
}

func (h *Handler) breakerOpenLocked(now time.Time) bool {
	recent := 0
	for i := len(h.history) - 1; i >= 0; i-- {
		if now.Sub(h.history[i].Timestamp) > h.cfg.CircuitBreakerWindow {
			break
		}
		recent++
		if recent >= h.cfg.CircuitBreakerThreshold {
			return true
		}
	}
	return false
}

// emergencyExtract pulls every fenced block above the minimum size out of
// the raw text, with no filename inference. Blocks get sequential
// placeholder names; the caller is expected to rename or review them.
func (h *Handler) emergencyExtract(raw string) []extractor.SourceFile {
	var files []extractor.SourceFile

	for i, m := range fencedBlockRe.FindAllStringSubmatch(raw, -1) {
		body := strings.TrimSpace(m[1])
		if len(body) <= h.cfg.EmergencyMinBlock {
			continue
		}

		files = append(files, extractor.SourceFile{
			Path:    fmt.Sprintf("emergency_file_%d.txt", i+1),
			Content: body,
			Purpose: "recovered by emergency block extraction",
			Status:  extractor.StatusEmergencyRecovery,
		})
	}

	return files
}

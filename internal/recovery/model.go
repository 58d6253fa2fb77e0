// Package recovery wraps the file extractor with structured error
// classification, pattern-based circuit breaking, and last-resort content
// extraction. Nothing in this package returns an error to the caller for a
// parse failure: every outcome is a structured Response, because the layer
// sits downstream of a non-deterministic LLM and must stay robust to any
// input.
package recovery

import (
	"time"

	"github.com/tildaslashalef/codeforge/internal/extractor"
)

// Severity classifies how bad an error is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Response statuses
const (
	// StatusRecovered means a recovery strategy produced usable files
	StatusRecovered = "recovered"

	// StatusError means every recovery strategy was exhausted
	StatusError = "error"

	// StatusCircuitBreaker means the breaker is open and no recovery was
	// attempted
	StatusCircuitBreaker = "circuit_breaker_activated"
)

// Recovery strategy names reported in responses
const (
	// StrategyFullParser is a re-run of the complete strategy cascade
	StrategyFullParser = "full_parser"

	// StrategyEmergencyExtraction grabs every large fenced block
	// uncritically
	StrategyEmergencyExtraction = "emergency_extraction"
)

// ErrorReport records one failure during parsing or file validation
type ErrorReport struct {
	ID                string            `json:"id"`
	Timestamp         time.Time         `json:"timestamp"`
	Module            string            `json:"module"`
	ErrorType         string            `json:"error_type"`
	Severity          Severity          `json:"severity"`
	Message           string            `json:"message"`
	Context           map[string]string `json:"context,omitempty"`
	Stack             string            `json:"stack,omitempty"`
	RecoveryAttempted bool              `json:"recovery_attempted"`
	RecoverySucceeded bool              `json:"recovery_succeeded"`
}

// PatternKey is the rolling-count key for an error report
func (r ErrorReport) PatternKey() string {
	return r.Module + "_" + r.ErrorType
}

// Response is the structured outcome of a recovery attempt
type Response struct {
	Status           string                 `json:"status"`
	Files            []extractor.SourceFile `json:"files"`
	RecoveryStrategy string                 `json:"recovery_strategy,omitempty"`
	Severity         Severity               `json:"severity"`
	CircuitBreaker   bool                   `json:"circuit_breaker"`
	Message          string                 `json:"message,omitempty"`
}

// InvalidFile pairs a rejected file with the reason it was rejected
type InvalidFile struct {
	File   extractor.SourceFile `json:"file"`
	Reason string               `json:"reason"`
}

// ValidationResult is the diagnostic output of ValidateFiles
type ValidationResult struct {
	Valid   []extractor.SourceFile `json:"valid"`
	Invalid []InvalidFile          `json:"invalid"`
	Errors  []string               `json:"errors,omitempty"`
}

// Summary aggregates the error history for observability
type Summary struct {
	TotalErrors int              `json:"total_errors"`
	LastHour    int              `json:"last_hour"`
	BreakerOpen bool             `json:"breaker_open"`
	BySeverity  map[Severity]int `json:"by_severity"`
	Patterns    map[string]int   `json:"patterns"`
}

// Package extractor recovers structured (path, content) file records from
// unstructured LLM completions using a cascade of parsing strategies.
package extractor

// File status values
const (
	// StatusGenerated marks a file recovered by a regular parsing strategy
	StatusGenerated = "generated"

	// StatusEmergencyRecovery marks a file recovered by the last-resort
	// emergency pass
	StatusEmergencyRecovery = "emergency_recovery"

	// StatusError marks a placeholder file produced on total failure
	StatusError = "error"
)

// SourceFile is a single file recovered from an LLM completion
type SourceFile struct {
	Path    string `json:"file_path"`
	Content string `json:"content"`
	Purpose string `json:"purpose,omitempty"`
	Status  string `json:"status,omitempty"`
}

// Strategy is one self-contained heuristic for locating file boundaries
// and names in raw LLM output. Strategies are tried in priority order and
// the first one producing at least one candidate wins; results are never
// merged across strategies.
type Strategy interface {
	// Name returns a short identifier used in logs and file purposes
	Name() string

	// Extract returns candidate files found in the text, in order of
	// appearance. Candidates are unvalidated; the extractor applies the
	// shared path and content rules afterwards.
	Extract(text string) []SourceFile
}

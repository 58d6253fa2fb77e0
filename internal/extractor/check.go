package extractor

import (
	"errors"
	"strings"
)

// Validation failure reasons surfaced by Check. The extractor's own
// validation drops bad candidates silently; Check exists so the recovery
// layer can tell a caller why a file was rejected.
var (
	// ErrMissingPath means the file has no path at all
	ErrMissingPath = errors.New("missing file path")

	// ErrMissingContent means the file has no content at all
	ErrMissingContent = errors.New("missing file content")

	// ErrBadPath means the path contains characters outside the allow-list
	ErrBadPath = errors.New("path contains disallowed characters")

	// ErrUnknownFilename means the path does not qualify as a filename
	ErrUnknownFilename = errors.New("unrecognized filename")

	// ErrShortContent means the content is below its type-dependent floor
	ErrShortContent = errors.New("content below minimum length")

	// ErrUnbalancedFences means the content carries an odd number of
	// fence markers, usually a sign of a half-stripped block
	ErrUnbalancedFences = errors.New("unbalanced code fence markers")
)

// Check validates a single file against the same path and content rules
// Parse applies, returning the reason a file is invalid instead of
// silently dropping it.
func (e *FileExtractor) Check(f SourceFile) error {
	if strings.TrimSpace(f.Path) == "" {
		return ErrMissingPath
	}
	if !pathRe.MatchString(f.Path) {
		return ErrBadPath
	}
	if !isValidFilename(f.Path) {
		return ErrUnknownFilename
	}
	if strings.TrimSpace(f.Content) == "" {
		return ErrMissingContent
	}
	if len(strings.TrimSpace(f.Content)) < e.contentFloor(f.Path) {
		return ErrShortContent
	}
	if strings.Count(f.Content, "```")%2 != 0 {
		return ErrUnbalancedFences
	}
	return nil
}

package extractor

import (
	"regexp"
	"strings"
)

// codeTokens are signatures that mark a prose chunk as probably-code
// during the emergency pass
var codeTokens = []string{
	"import ",
	"def ",
	"class ",
	"function ",
	"const ",
	"func ",
	"CREATE TABLE",
	"SELECT ",
	"#!/",
	"<html",
	"{",
}

var blankLinesRe = regexp.MustCompile(`\n\s*\n`)

// emergencyParse is the last resort inside the extractor: when every
// strategy and the shared validation produced nothing, split the raw text
// on blank lines and keep any chunk big enough to plausibly be code.
// Filenames are inferred; the result is capped so one bad completion can't
// flood the caller.
func (e *FileExtractor) emergencyParse(raw string) []SourceFile {
	var files []SourceFile

	for i, chunk := range blankLinesRe.Split(raw, -1) {
		if len(files) >= e.cfg.EmergencyMaxFiles {
			break
		}

		chunk = strings.TrimSpace(chunk)
		if len(chunk) < e.cfg.EmergencyMinChunk {
			continue
		}

		if !containsCodeToken(chunk) {
			continue
		}

		// Chunks may still carry fence markers from a mangled response
		chunk = strings.Trim(chunk, "`")
		chunk = stripLanguageTag(chunk)

		files = append(files, SourceFile{
			Path:    inferFilename(chunk, i),
			Content: chunk,
			Purpose: "recovered by emergency content scan",
			Status:  StatusEmergencyRecovery,
		})
	}

	return files
}

func containsCodeToken(chunk string) bool {
	for _, token := range codeTokens {
		if strings.Contains(chunk, token) {
			return true
		}
	}
	return false
}

package extractor

import (
	"strings"
)

// fencedBlock is a single markdown code fence found in raw text
type fencedBlock struct {
	lang     string // language tag on the opening fence, may be empty
	body     string // content between the fences
	openLine int    // index of the opening fence line
}

// scanFences walks the text line by line and collects fenced code blocks.
// An unterminated final fence is kept, since models regularly run out of
// tokens before closing the last block.
func scanFences(lines []string) []fencedBlock {
	var blocks []fencedBlock
	var current *fencedBlock
	var buf strings.Builder

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if current != nil {
			if trimmed == "```" {
				current.body = buf.String()
				blocks = append(blocks, *current)
				current = nil
				buf.Reset()
				continue
			}
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(line)
			continue
		}

		if strings.HasPrefix(trimmed, "```") {
			current = &fencedBlock{
				lang:     strings.TrimSpace(strings.TrimPrefix(trimmed, "```")),
				openLine: i,
			}
			buf.Reset()
		}
	}

	if current != nil && buf.Len() > 0 {
		current.body = buf.String()
		blocks = append(blocks, *current)
	}

	return blocks
}

// precedingLines returns up to n non-empty lines immediately before the
// given line index, nearest first.
func precedingLines(lines []string, before, n int) []string {
	var out []string
	for i := before - 1; i >= 0 && len(out) < n; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

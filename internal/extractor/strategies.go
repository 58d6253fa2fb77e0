package extractor

import (
	"regexp"
	"strings"
)

var (
	// explicitMarkerRe pairs a "### FILE: path" header with the fenced
	// block that follows it. This is the canonical format the generation
	// prompts ask for.
	explicitMarkerRe = regexp.MustCompile("(?s)#{1,4}[ \t]*FILE:[ \t]*([^\n]+)\n+[ \t]*```[^\n]*\n(.*?)\n?[ \t]*```")

	// headingLineRe matches a bare markdown heading used as a filename
	headingLineRe = regexp.MustCompile(`^#{1,4}\s+(\S.*)$`)

	// boldLineRe matches a filename wrapped in ** markers, optionally
	// inside a list item and with a trailing colon
	boldLineRe = regexp.MustCompile(`^(?:[-*+]\s*|\d+[.)]\s*)?\*\*(.+?)\*\*:?\s*$`)
)

// explicitMarkerStrategy handles the canonical "### FILE: path" format
type explicitMarkerStrategy struct{}

func (explicitMarkerStrategy) Name() string { return "explicit_marker" }

func (explicitMarkerStrategy) Extract(text string) []SourceFile {
	var files []SourceFile
	for _, m := range explicitMarkerRe.FindAllStringSubmatch(text, -1) {
		p := cleanPath(m[1])
		if p == "" {
			continue
		}
		files = append(files, SourceFile{
			Path:    p,
			Content: stripLanguageTag(m[2]),
		})
	}
	return files
}

// headingFilenameStrategy handles "### path/to/file.ext" headings without
// the FILE keyword
type headingFilenameStrategy struct{}

func (headingFilenameStrategy) Name() string { return "heading_filename" }

func (headingFilenameStrategy) Extract(text string) []SourceFile {
	lines := strings.Split(text, "\n")
	var files []SourceFile
	for _, block := range scanFences(lines) {
		for _, prev := range precedingLines(lines, block.openLine, 2) {
			m := headingLineRe.FindStringSubmatch(prev)
			if m == nil {
				continue
			}
			if strings.Contains(strings.ToUpper(m[1]), "FILE:") {
				// The explicit-marker tier owns this format
				continue
			}
			p := cleanPath(m[1])
			if p == "" || !isValidFilename(p) {
				continue
			}
			files = append(files, SourceFile{
				Path:    p,
				Content: stripLanguageTag(block.body),
			})
			break
		}
	}
	return files
}

// boldFilenameStrategy handles "**path/to/file.ext**" immediately before a
// fenced block
type boldFilenameStrategy struct{}

func (boldFilenameStrategy) Name() string { return "bold_filename" }

func (boldFilenameStrategy) Extract(text string) []SourceFile {
	lines := strings.Split(text, "\n")
	var files []SourceFile
	for _, block := range scanFences(lines) {
		for _, prev := range precedingLines(lines, block.openLine, 2) {
			m := boldLineRe.FindStringSubmatch(prev)
			if m == nil {
				continue
			}
			p := cleanPath(m[1])
			if p == "" || !isValidFilename(p) {
				continue
			}
			files = append(files, SourceFile{
				Path:    p,
				Content: stripLanguageTag(block.body),
			})
			break
		}
	}
	return files
}

// embeddedHeadersStrategy splits a single fenced block that contains
// multiple "### path" sub-headers, which happens when a model nests the
// whole response inside one fence
type embeddedHeadersStrategy struct{}

func (embeddedHeadersStrategy) Name() string { return "embedded_headers" }

func (embeddedHeadersStrategy) Extract(text string) []SourceFile {
	lines := strings.Split(text, "\n")
	var files []SourceFile
	for _, block := range scanFences(lines) {
		files = append(files, splitEmbeddedHeaders(block.body)...)
	}
	return files
}

// splitEmbeddedHeaders carves a block body into files at its internal
// header boundaries. At least two valid headers are required, otherwise a
// markdown document with ordinary headings would be shredded.
func splitEmbeddedHeaders(body string) []SourceFile {
	lines := strings.Split(body, "\n")

	type section struct {
		path  string
		start int
	}
	var sections []section

	for i, line := range lines {
		m := headingLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		header := strings.TrimSpace(m[1])
		header = strings.TrimPrefix(header, "FILE:")
		p := cleanPath(header)
		if p == "" || !isValidFilename(p) {
			continue
		}
		sections = append(sections, section{path: p, start: i})
	}

	if len(sections) < 2 {
		return nil
	}

	var files []SourceFile
	for i, sec := range sections {
		end := len(lines)
		if i+1 < len(sections) {
			end = sections[i+1].start
		}
		content := strings.Join(lines[sec.start+1:end], "\n")
		content = strings.Trim(content, "\n")
		files = append(files, SourceFile{
			Path:    sec.path,
			Content: stripLanguageTag(content),
		})
	}
	return files
}

// precedingNameStrategy tests the last few non-empty lines before each
// fence for anything that parses as a filename once list and heading
// punctuation is stripped
type precedingNameStrategy struct{}

func (precedingNameStrategy) Name() string { return "preceding_name" }

func (precedingNameStrategy) Extract(text string) []SourceFile {
	lines := strings.Split(text, "\n")
	var files []SourceFile
	for _, block := range scanFences(lines) {
		for _, prev := range precedingLines(lines, block.openLine, 3) {
			p := cleanPath(prev)
			if p == "" || !isValidFilename(p) {
				continue
			}
			// A full sentence that happens to contain a dot is not a
			// filename; reject candidates with embedded whitespace before
			// cleaning already handled most of these
			if strings.ContainsAny(p, " \t") {
				continue
			}
			files = append(files, SourceFile{
				Path:    p,
				Content: stripLanguageTag(block.body),
			})
			break
		}
	}
	return files
}

// inferenceStrategy treats every fenced block as a candidate file and
// infers a name from content signatures. Lowest precision, tried last.
type inferenceStrategy struct{}

func (inferenceStrategy) Name() string { return "content_inference" }

func (inferenceStrategy) Extract(text string) []SourceFile {
	lines := strings.Split(text, "\n")
	var files []SourceFile
	for i, block := range scanFences(lines) {
		body := stripLanguageTag(block.body)
		if strings.TrimSpace(body) == "" {
			continue
		}
		files = append(files, SourceFile{
			Path:    inferFilename(body, i),
			Content: body,
		})
	}
	return files
}

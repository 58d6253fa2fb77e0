package extractor

import (
	"path"
	"regexp"
	"strings"
)

var (
	// pathRe is the allow-list of characters a recovered path may contain
	pathRe = regexp.MustCompile(`^[a-zA-Z0-9_/.-]+$`)

	// rescueRe extracts a valid-looking name.ext token from a string that
	// failed the allow-list, e.g. "`main.py` (entry point)"
	rescueRe = regexp.MustCompile(`[A-Za-z0-9_][A-Za-z0-9_.-]*\.[A-Za-z0-9]{1,10}`)

	// numberPrefixRe strips ordered-list numbering like "1. " or "2) "
	numberPrefixRe = regexp.MustCompile(`^\d+[.)]\s*`)
)

// languageTags is the set of fence language tokens that get stripped when
// a model puts the language on its own line inside the block
var languageTags = map[string]bool{
	"python": true, "py": true, "python3": true,
	"javascript": true, "js": true, "jsx": true,
	"typescript": true, "ts": true, "tsx": true,
	"go": true, "golang": true,
	"java": true, "kotlin": true, "scala": true,
	"ruby": true, "rb": true,
	"php": true, "rust": true, "swift": true,
	"c": true, "cpp": true, "c++": true, "csharp": true, "cs": true,
	"html": true, "css": true, "scss": true, "sass": true, "less": true,
	"json": true, "yaml": true, "yml": true, "xml": true, "toml": true,
	"ini": true, "env": true, "dotenv": true, "properties": true,
	"sql": true, "sqlite": true, "postgres": true, "mysql": true,
	"bash": true, "sh": true, "shell": true, "zsh": true, "powershell": true,
	"dockerfile": true, "docker": true, "makefile": true,
	"markdown": true, "md": true, "text": true, "txt": true, "plaintext": true,
	"hcl": true, "terraform": true, "tf": true, "nginx": true,
	"gradle": true, "vue": true, "svelte": true, "graphql": true, "proto": true,
}

// stripLanguageTag removes a leading language-name line from a block body.
// Only recognized language tokens are dropped; anything else stays, since a
// short first line may be real content.
func stripLanguageTag(body string) string {
	first, rest, found := strings.Cut(body, "\n")
	token := strings.ToLower(strings.TrimSpace(first))
	if found && len(token) <= 12 && languageTags[token] {
		return rest
	}
	return body
}

// cleanPath normalizes a raw filename candidate into a safe relative path.
// It returns "" when nothing file-like can be salvaged.
func cleanPath(raw string) string {
	s := strings.TrimSpace(raw)

	// Drop anything after a stray fence marker or line break
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}

	// Peel markdown decoration: heading hashes, bullets, blockquotes,
	// numbering, bold/italic markers, backticks
	for {
		t := strings.TrimLeft(s, "#>*+- \t")
		t = numberPrefixRe.ReplaceAllString(t, "")
		if t == s {
			break
		}
		s = t
	}
	s = strings.Trim(s, "`*_ \t")
	s = strings.TrimSuffix(s, ":")
	s = strings.Trim(s, "`*_ \t")
	s = strings.Trim(s, `"'`)

	// Force the path to stay relative: no absolute roots, no parent
	// traversal escaping the output directory
	s = strings.TrimPrefix(s, "./")
	for strings.HasPrefix(s, "/") {
		s = s[1:]
	}
	if strings.Contains(s, "..") {
		s = path.Clean(s)
		for strings.HasPrefix(s, "../") {
			s = strings.TrimPrefix(s, "../")
		}
	}

	if s == "" || s == "." || s == ".." {
		return ""
	}

	if !pathRe.MatchString(s) {
		// Last chance: pull a name.ext token out of the noise
		if m := rescueRe.FindString(s); m != "" {
			return m
		}
		return ""
	}

	return s
}

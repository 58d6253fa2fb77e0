package extractor

import (
	"path"
	"strings"
)

// wellKnownFilenames are extensionless files accepted by basename alone
var wellKnownFilenames = map[string]bool{
	"dockerfile":   true,
	"makefile":     true,
	"rakefile":     true,
	"procfile":     true,
	"gemfile":      true,
	"brewfile":     true,
	"justfile":     true,
	"vagrantfile":  true,
	"jenkinsfile":  true,
	"caddyfile":    true,
	"license":      true,
	"notice":       true,
	"readme":       true,
	"changelog":    true,
	"contributing": true,
	"authors":      true,
	"codeowners":   true,
	"cmakelists":   true,
}

// knownExtensions is the allow-list of recognized file extensions,
// accumulated against observed model outputs
var knownExtensions = map[string]bool{
	// Programming languages
	"py": true, "js": true, "ts": true, "jsx": true, "tsx": true,
	"go": true, "java": true, "rb": true, "php": true, "rs": true,
	"swift": true, "kt": true, "kts": true, "scala": true, "clj": true,
	"c": true, "h": true, "cpp": true, "hpp": true, "cc": true,
	"cs": true, "ex": true, "exs": true, "erl": true, "hs": true,
	"lua": true, "pl": true, "r": true, "dart": true, "m": true,
	"vue": true, "svelte": true,

	// Web
	"html": true, "htm": true, "css": true, "scss": true,
	"sass": true, "less": true,

	// Data and config formats
	"json": true, "yaml": true, "yml": true, "xml": true, "toml": true,
	"ini": true, "cfg": true, "conf": true, "env": true,
	"properties": true, "proto": true, "graphql": true, "prisma": true,

	// Docs
	"md": true, "markdown": true, "rst": true, "txt": true, "adoc": true,

	// Database
	"sql": true, "db": true, "sqlite": true,

	// Scripts
	"sh": true, "bash": true, "zsh": true, "ps1": true,
	"bat": true, "cmd": true,

	// Infrastructure as code and CI
	"tf": true, "tfvars": true, "hcl": true, "dockerfile": true,
	"jenkinsfile": true, "ipynb": true,

	// Lockfiles and VCS dotfiles
	"lock": true, "mod": true, "sum": true, "gradle": true,
	"gitignore": true, "gitattributes": true, "dockerignore": true,
	"editorconfig": true, "npmrc": true, "nvmrc": true,
}

// infraKeywords allow a last-chance acceptance for devops-flavored names
// that carry no recognized extension
var infraKeywords = []string{
	"docker", "compose", "config", "terraform", "kubernetes", "k8s",
	"helm", "ansible", "nginx", "deploy", "pipeline", "workflow",
	"jenkins", "vagrant", "chart",
}

// infraExtensions get the lower infra content floor during validation
var infraExtensions = map[string]bool{
	"tf": true, "tfvars": true, "hcl": true,
	"yml": true, "yaml": true, "json": true,
	"toml": true, "ini": true, "cfg": true, "conf": true,
}

// buildFilenames get the build-file content floor during validation
var buildFilenames = map[string]bool{
	"dockerfile":       true,
	"makefile":         true,
	"rakefile":         true,
	"procfile":         true,
	"requirements.txt": true,
}

// isValidFilename reports whether a cleaned string qualifies as a filename.
// A string qualifies when its basename is a well-known extensionless file,
// when it carries a recognized extension, or when it looks path-like and
// contains an infra keyword.
func isValidFilename(name string) bool {
	if name == "" || len(name) > 255 {
		return false
	}

	base := strings.ToLower(path.Base(name))
	if wellKnownFilenames[base] {
		return true
	}

	if ext := extensionOf(base); ext != "" && knownExtensions[ext] {
		return true
	}

	if pathRe.MatchString(name) {
		lower := strings.ToLower(name)
		for _, kw := range infraKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}

	return false
}

// extensionOf returns the lowercase extension without the dot.
// Dotfiles like ".env" report their name as the extension, matching how
// the allow-list treats them.
func extensionOf(base string) string {
	ext := path.Ext(base)
	if ext == "" && strings.HasPrefix(base, ".") {
		ext = base
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

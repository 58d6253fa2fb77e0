package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

var (
	// filenameHintRe matches explicit in-content hints like
	// "# filename: app.py" or "// File: server.js"
	filenameHintRe = regexp.MustCompile(`(?i)^\s*(?:#|//|/\*|<!--|--)?\s*(?:file(?:name)?|path)\s*:\s*([A-Za-z0-9_./\\-]+)`)

	// requirementPinRe matches pip-style version pins like "flask==2.3.0"
	requirementPinRe = regexp.MustCompile(`(?m)^[A-Za-z0-9_.\[\],-]+==[0-9]`)

	// envLineRe matches dotenv-style assignments like "PORT=3000"
	envLineRe = regexp.MustCompile(`^[A-Z][A-Z0-9_]*=\S*$`)

	// yamlLineRe matches plain "key: value" mapping lines
	yamlLineRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+:\s`)

	// sqlCreateRe matches table DDL regardless of case
	sqlCreateRe = regexp.MustCompile(`(?i)\bCREATE\s+TABLE\b`)

	// cssRuleRe matches a selector block with property declarations
	cssRuleRe = regexp.MustCompile(`(?s)[.#a-zA-Z][^{}]*\{[^{}]*:[^{}]*\}`)
)

// enryFilenames maps go-enry language labels to conventional entry-point
// filenames, used as a secondary signal when no rule below fires
var enryFilenames = map[string]string{
	"Go":     "main.go",
	"Ruby":   "app.rb",
	"PHP":    "index.php",
	"Java":   "Main.java",
	"Rust":   "main.rs",
	"C":      "main.c",
	"C++":    "main.cpp",
	"Shell":  "script.sh",
	"Kotlin": "Main.kt",
	"Swift":  "main.swift",
}

// inferFilename guesses a filename for a bare code block from content
// signatures. Rules are ordered by precision: the specific, high-confidence
// matches run before the generic buckets. The index keeps generic fallback
// names unique within one parse.
func inferFilename(content string, index int) string {
	head := headLines(content, 10)

	// An explicit hint beats every heuristic
	for _, line := range head {
		if m := filenameHintRe.FindStringSubmatch(line); m != nil {
			if p := cleanPath(m[1]); p != "" && isValidFilename(p) {
				return p
			}
		}
	}

	switch {
	case looksLikePython(content):
		return pythonFilename(content)
	case requirementPinRe.MatchString(content):
		return "requirements.txt"
	case looksLikeJavaScript(content):
		return javascriptFilename(content)
	case looksLikeJSON(content):
		return jsonFilename(content)
	case looksLikeSQL(content):
		if sqlCreateRe.MatchString(content) {
			return "schema.sql"
		}
		return "queries.sql"
	case looksLikeDockerfile(content):
		return "Dockerfile"
	case looksLikeCompose(content):
		return "docker-compose.yml"
	case looksLikeYAML(content):
		if strings.Contains(content, "apiVersion:") {
			return "deployment.yaml"
		}
		return "config.yaml"
	case looksLikeEnv(content):
		return ".env"
	case looksLikeHTML(content):
		return "index.html"
	case looksLikeCSS(content):
		return "styles.css"
	case looksLikeMarkdown(content):
		return "README.md"
	}

	// go-enry's classifier catches languages the rules above don't cover
	if lang := enry.GetLanguage("snippet", []byte(content)); lang != "" {
		if name, ok := enryFilenames[lang]; ok {
			return name
		}
	}

	return fmt.Sprintf("generated_file_%d.txt", index+1)
}

func headLines(content string, n int) []string {
	lines := strings.Split(content, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}

func looksLikePython(content string) bool {
	// ES-module imports look like "from './x'" and must not count
	if strings.Contains(content, "from '") || strings.Contains(content, `from "`) {
		return false
	}
	for _, sig := range []string{"import ", "from ", "def ", "print(", "if __name__"} {
		if strings.Contains(content, sig) {
			return true
		}
	}
	return false
}

// pythonFilename refines a Python block into the conventional file for its
// framework
func pythonFilename(content string) string {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "fastapi"):
		return "main.py"
	case strings.Contains(lower, "flask"):
		return "app.py"
	case strings.Contains(lower, "django"):
		return "models.py"
	case strings.Contains(content, "def test_") || strings.Contains(lower, "import pytest"):
		return "test_app.py"
	case strings.Contains(content, "class ") && strings.Contains(lower, "model"):
		return "models.py"
	case strings.Contains(content, "SECRET_KEY") || strings.Contains(lower, "basedir"):
		return "config.py"
	default:
		return "main.py"
	}
}

func looksLikeJavaScript(content string) bool {
	// Go source also uses const/func keywords; leave it to go-enry
	if strings.Contains(content, "package ") && strings.Contains(content, "func ") {
		return false
	}
	for _, sig := range []string{"function ", "=> ", "=>", "const ", "let ", "module.exports", "require(", "import React", "export default"} {
		if strings.Contains(content, sig) {
			return true
		}
	}
	return false
}

func javascriptFilename(content string) string {
	switch {
	case strings.Contains(content, "import React") || strings.Contains(content, "from 'react'") || strings.Contains(content, `from "react"`):
		return "src/App.jsx"
	case strings.Contains(content, "express"):
		return "server.js"
	case strings.Contains(content, ": string") || strings.Contains(content, "interface "):
		return "index.ts"
	default:
		return "app.js"
	}
}

func looksLikeJSON(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") && json.Valid([]byte(trimmed))
}

func jsonFilename(content string) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &obj); err == nil {
		_, hasName := obj["name"]
		_, hasVersion := obj["version"]
		if hasName && hasVersion {
			return "package.json"
		}
	}
	return "data.json"
}

func looksLikeSQL(content string) bool {
	upper := strings.ToUpper(content)
	for _, sig := range []string{"CREATE TABLE", "SELECT ", "INSERT INTO", "ALTER TABLE", "CREATE INDEX"} {
		if strings.Contains(upper, sig) {
			return true
		}
	}
	return false
}

func looksLikeDockerfile(content string) bool {
	if !strings.Contains(content, "FROM ") {
		return false
	}
	for _, sig := range []string{"RUN ", "CMD ", "EXPOSE ", "WORKDIR ", "COPY ", "ENTRYPOINT "} {
		if strings.Contains(content, sig) {
			return true
		}
	}
	return false
}

func looksLikeCompose(content string) bool {
	return strings.Contains(content, "services:") &&
		(strings.Contains(content, "image:") || strings.Contains(content, "build:"))
}

func looksLikeYAML(content string) bool {
	lines := nonEmptyLines(content)
	if len(lines) == 0 {
		return false
	}
	matched := 0
	for _, line := range lines {
		if yamlLineRe.MatchString(strings.TrimSpace(line)) || strings.HasPrefix(strings.TrimSpace(line), "- ") {
			matched++
		}
	}
	return matched*2 > len(lines)
}

func looksLikeEnv(content string) bool {
	lines := nonEmptyLines(content)
	if len(lines) == 0 {
		return false
	}
	matched := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if envLineRe.MatchString(trimmed) || strings.HasPrefix(trimmed, "#") {
			matched++
		}
	}
	return matched*2 > len(lines)
}

func looksLikeHTML(content string) bool {
	lower := strings.ToLower(content)
	return strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html")
}

func looksLikeCSS(content string) bool {
	return cssRuleRe.MatchString(content) &&
		!strings.Contains(content, "function") &&
		!strings.Contains(content, "=>")
}

func looksLikeMarkdown(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "# ") || strings.HasPrefix(trimmed, "## ")
}

func nonEmptyLines(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// Package utils provides project naming helpers and themed terminal
// output used across the CLI commands.
package utils

import (
	"strings"
	"time"

	"github.com/goombaio/namegenerator"
)

// GenerateProjectName creates a random, memorable project name like
// "wispy-dust". Used when a generation is started without a name.
func GenerateProjectName() string {
	seed := time.Now().UTC().UnixNano()
	gen := namegenerator.NewNameGenerator(seed)

	name := gen.Generate()

	// Some names carry underscores; keep everything hyphenated
	return strings.ReplaceAll(name, "_", "-")
}

// SanitizeProjectName cleans up a user-supplied name so it can be used
// as a directory and repository name.
func SanitizeProjectName(name string) string {
	name = strings.ToLower(strings.ReplaceAll(name, " ", "-"))

	replacer := strings.NewReplacer(
		"_", "-",
		".", "-",
		",", "-",
		";", "-",
		":", "-",
		"/", "-",
		"\\", "-",
	)
	name = replacer.Replace(name)

	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}

	return strings.Trim(name, "-")
}

// TruncateString shortens a string to max runes, appending an ellipsis
// when anything was cut.
func TruncateString(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateProjectName(t *testing.T) {
	name := GenerateProjectName()
	assert.NotEmpty(t, name)
	assert.NotContains(t, name, "_")
}

func TestSanitizeProjectName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "TaskBoard", "taskboard"},
		{"spaces", "my cool app", "my-cool-app"},
		{"underscores and dots", "my_app.v2", "my-app-v2"},
		{"path separators", "a/b\\c", "a-b-c"},
		{"collapsed hyphens", "a -- b", "a-b"},
		{"trimmed", "-edge-", "edge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeProjectName(tt.in))
		})
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "long st...", TruncateString("long string here", 10))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
	assert.Equal(t, "", TruncateString("abc", 0))
}

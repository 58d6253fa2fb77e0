package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackFilesBackend(t *testing.T) {
	files := FallbackFiles(ComponentBackend, "taskboard", "A kanban board for small teams.")

	require.NotEmpty(t, files)

	paths := make(map[string]bool, len(files))
	for _, f := range files {
		paths[f.Path] = true
		assert.Equal(t, StatusFallback, f.Status)
		assert.NotEmpty(t, f.Content)
	}
	assert.True(t, paths["README.md"])
	assert.True(t, paths[".env.example"])
	assert.True(t, paths["app/main.py"])
}

func TestFallbackFilesReadmeTruncatesRequirements(t *testing.T) {
	long := strings.Repeat("requirements ", 50)
	files := FallbackFiles(ComponentBackend, "taskboard", long)

	require.NotEmpty(t, files)
	assert.Contains(t, files[0].Content, "...")
	assert.Less(t, len(files[0].Content), len(long))
}

func TestFallbackFilesOtherComponents(t *testing.T) {
	for _, component := range []Component{ComponentFrontend, ComponentDatabase, ComponentDevOps, ComponentDocs} {
		t.Run(string(component), func(t *testing.T) {
			assert.Nil(t, FallbackFiles(component, "taskboard", "req"))
		})
	}
}

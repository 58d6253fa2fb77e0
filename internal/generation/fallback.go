package generation

import (
	"fmt"
	"strings"

	"github.com/tildaslashalef/codeforge/internal/extractor"
)

// StatusFallback marks files substituted from the built-in templates
// when every recovery tier failed for a component.
const StatusFallback = "fallback"

const fallbackReadme = `# %s

%s

This project skeleton was generated as a fallback after code generation
failed. Replace the placeholder files with a real implementation.

## Layout

- app/        application code
- README.md   this file
- .env.example environment template
`

const fallbackEnvExample = `# Environment template
PORT=8080
DATABASE_URL=
`

const fallbackGitignore = `.env
node_modules/
__pycache__/
dist/
`

const fallbackApp = `"""Placeholder application entry point.

Generated as a fallback after code generation failed.
"""


def main():
    print("replace me")


if __name__ == "__main__":
    main()
`

// FallbackFiles returns the minimal project skeleton substituted when a
// component's generation cannot be recovered. Only the backend
// component carries a fallback: the skeleton is per project, not per
// component, and producing it once is enough.
func FallbackFiles(component Component, projectName, requirements string) []extractor.SourceFile {
	if component != ComponentBackend {
		return nil
	}

	desc := strings.TrimSpace(requirements)
	if len(desc) > 200 {
		desc = desc[:200] + "..."
	}

	return []extractor.SourceFile{
		{
			Path:    "README.md",
			Content: fmt.Sprintf(fallbackReadme, projectName, desc),
			Purpose: "fallback project readme",
			Status:  StatusFallback,
		},
		{
			Path:    ".env.example",
			Content: fallbackEnvExample,
			Purpose: "fallback environment template",
			Status:  StatusFallback,
		},
		{
			Path:    ".gitignore",
			Content: fallbackGitignore,
			Purpose: "fallback gitignore",
			Status:  StatusFallback,
		},
		{
			Path:    "app/main.py",
			Content: fallbackApp,
			Purpose: "fallback application entry point",
			Status:  StatusFallback,
		},
	}
}

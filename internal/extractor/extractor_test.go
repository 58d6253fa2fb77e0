package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/codeforge/internal/config"
	"github.com/tildaslashalef/codeforge/internal/loggy"
)

func testConfig() config.ExtractorConfig {
	return config.ExtractorConfig{
		EnvFloor:          1,
		BuildFloor:        3,
		InfraFloor:        5,
		DefaultFloor:      10,
		EmergencyMinChunk: 100,
		EmergencyMaxFiles: 5,
	}
}

func newTestExtractor(t *testing.T) *FileExtractor {
	t.Helper()
	return New(testConfig(), loggy.NewNoopLogger())
}

func TestParseExplicitMarker(t *testing.T) {
	e := newTestExtractor(t)

	t.Run("single file", func(t *testing.T) {
		input := "### FILE: main.py\n```python\nprint('hi')\n```"

		files := e.Parse(input)

		require.Len(t, files, 1)
		assert.Equal(t, "main.py", files[0].Path)
		assert.Equal(t, "print('hi')", files[0].Content)
		assert.Equal(t, StatusGenerated, files[0].Status)
		assert.Contains(t, files[0].Purpose, "explicit_marker")
	})

	t.Run("multiple files in order", func(t *testing.T) {
		input := "Here is the backend:\n\n" +
			"### FILE: app.py\n```python\nfrom flask import Flask\napp = Flask(__name__)\n```\n\n" +
			"### FILE: requirements.txt\n```\nflask==2.3.0\n```\n\nDone."

		files := e.Parse(input)

		require.Len(t, files, 2)
		assert.Equal(t, "app.py", files[0].Path)
		assert.Equal(t, "requirements.txt", files[1].Path)
		assert.Equal(t, "flask==2.3.0", files[1].Content)
	})

	t.Run("language tag line inside block dropped", func(t *testing.T) {
		input := "### FILE: util.py\n```\npython\nimport os\nprint(os.name)\n```"

		files := e.Parse(input)

		require.Len(t, files, 1)
		assert.Equal(t, "import os\nprint(os.name)", files[0].Content)
	})

	t.Run("traversal path never escapes", func(t *testing.T) {
		input := "### FILE: ../../etc/passwd\n```\nx\n```"

		files := e.Parse(input)

		for _, f := range files {
			assert.NotContains(t, f.Path, "..")
			assert.False(t, strings.HasPrefix(f.Path, "/"))
		}
	})
}

func TestParseHeadingFilename(t *testing.T) {
	e := newTestExtractor(t)

	input := "### src/app.py\n```python\nfrom flask import Flask\napp = Flask(__name__)\n```"

	files := e.Parse(input)

	require.Len(t, files, 1)
	assert.Equal(t, "src/app.py", files[0].Path)
	assert.Contains(t, files[0].Purpose, "heading_filename")
}

func TestParseBoldFilename(t *testing.T) {
	e := newTestExtractor(t)

	input := "**server.js**\n```javascript\nconst express = require('express');\nconst app = express();\n```"

	files := e.Parse(input)

	require.Len(t, files, 1)
	assert.Equal(t, "server.js", files[0].Path)
	assert.Contains(t, files[0].Purpose, "bold_filename")
}

func TestParseEmbeddedHeaders(t *testing.T) {
	e := newTestExtractor(t)

	input := "```\n" +
		"### main.py\n" +
		"import os\n\ndef run():\n    return os.name\n" +
		"\n" +
		"### utils.py\n" +
		"def helper(value):\n    return value * 2\n" +
		"```"

	files := e.Parse(input)

	require.Len(t, files, 2)
	assert.Equal(t, "main.py", files[0].Path)
	assert.Equal(t, "utils.py", files[1].Path)
	assert.Contains(t, files[0].Content, "def run():")
	assert.Contains(t, files[1].Content, "def helper(value):")
	assert.Contains(t, files[0].Purpose, "embedded_headers")
}

func TestParsePrecedingName(t *testing.T) {
	e := newTestExtractor(t)

	input := "Create the following file:\n\nsrc/index.js\n\n```javascript\nconst value = compute();\nconsole.log(value);\n```"

	files := e.Parse(input)

	require.Len(t, files, 1)
	assert.Equal(t, "src/index.js", files[0].Path)
	assert.Contains(t, files[0].Purpose, "preceding_name")
}

func TestParseInference(t *testing.T) {
	e := newTestExtractor(t)

	t.Run("env block without header", func(t *testing.T) {
		input := "Set these variables:\n\n```\nPORT=3000\nDB_HOST=localhost\n```"

		files := e.Parse(input)

		require.Len(t, files, 1)
		assert.Equal(t, ".env", files[0].Path)
		assert.Equal(t, "PORT=3000\nDB_HOST=localhost", files[0].Content)
		assert.Contains(t, files[0].Purpose, "content_inference")
	})

	t.Run("duplicate inferred names stay unique", func(t *testing.T) {
		block := "```python\nfrom flask import Flask\napp = Flask(__name__)\n```"
		input := block + "\n\nAnd also:\n\n" + block

		files := e.Parse(input)

		require.Len(t, files, 2)
		assert.Equal(t, "app.py", files[0].Path)
		assert.Equal(t, "app_2.py", files[1].Path)
	})
}

func TestParsePrecedence(t *testing.T) {
	e := newTestExtractor(t)

	// The response carries an explicit marker plus a stray headerless
	// block; the first matching tier wins and the stray block is ignored
	input := "### FILE: main.py\n```python\nprint('explicit wins')\n```\n\n" +
		"```\nPORT=3000\nDB_HOST=localhost\n```"

	files := e.Parse(input)

	require.Len(t, files, 1)
	assert.Equal(t, "main.py", files[0].Path)
	assert.Contains(t, files[0].Purpose, "explicit_marker")
}

func TestParseNoFiles(t *testing.T) {
	e := newTestExtractor(t)

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, e.Parse(""))
		assert.Empty(t, e.Parse("   \n\t  "))
	})

	t.Run("prose only", func(t *testing.T) {
		input := "I could not generate the code you asked for. Please clarify the requirements."
		assert.Empty(t, e.Parse(input))
	})
}

func TestParseEmergencyFallback(t *testing.T) {
	e := newTestExtractor(t)

	// No fences at all, but a big chunk of obvious code separated by
	// blank lines
	code := "import os\nimport sys\n\n" // chunk boundary after imports
	body := "def main():\n    value = os.environ.get('PORT', '3000')\n    print('listening on', value)\n    return int(value)\n\nif __name__ == '__main__':\n    main()"
	input := "The response got mangled somewhere.\n\n" + code + body

	files := e.Parse(input)

	require.NotEmpty(t, files)
	assert.Equal(t, StatusEmergencyRecovery, files[0].Status)
	assert.Contains(t, files[0].Content, "def main():")
}

func TestParseIdempotence(t *testing.T) {
	e := newTestExtractor(t)

	input := "### FILE: app.py\n```python\nfrom flask import Flask\napp = Flask(__name__)\n```\n\n" +
		"### FILE: .env\n```\nPORT=3000\n```"

	first := e.Parse(input)
	second := e.Parse(input)

	assert.Equal(t, first, second)
}

func TestParseNeverPanics(t *testing.T) {
	e := newTestExtractor(t)

	inputs := []string{
		"```",
		"``````",
		"``` ``` ```",
		"### FILE:",
		"### FILE: \n```\n```",
		strings.Repeat("a", 1<<16),
		strings.Repeat("```python\nx\n```\n", 200),
		"\x00\x01\x02\xff garbage \U0001F600 ```",
		"**unterminated bold\n```python\nimport os\nprint(os.name)\n```",
	}

	for _, input := range inputs {
		assert.NotPanics(t, func() {
			files := e.Parse(input)
			for _, f := range files {
				assert.NotEmpty(t, f.Path)
			}
		})
	}
}

func TestContentFloors(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		path     string
		expected int
	}{
		{".env", 1},
		{".gitignore", 1},
		{"Dockerfile", 3},
		{"Makefile", 3},
		{"requirements.txt", 3},
		{"infra/main.tf", 5},
		{"config.yaml", 5},
		{"package.json", 5},
		{"main.py", 10},
		{"src/App.jsx", 10},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.contentFloor(tt.path))
		})
	}
}

func TestValidateDropsShortContent(t *testing.T) {
	e := newTestExtractor(t)

	// A one-character .env passes its floor while a one-character source
	// file does not
	input := "### FILE: .env\n```\nA=1\n```\n\n### FILE: tiny.py\n```\nx\n```"

	files := e.Parse(input)

	require.Len(t, files, 1)
	assert.Equal(t, ".env", files[0].Path)
}

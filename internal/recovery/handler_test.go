package recovery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/codeforge/internal/config"
	"github.com/tildaslashalef/codeforge/internal/extractor"
	"github.com/tildaslashalef/codeforge/internal/loggy"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()

	extCfg := config.ExtractorConfig{
		EnvFloor:          1,
		BuildFloor:        3,
		InfraFloor:        5,
		DefaultFloor:      10,
		EmergencyMinChunk: 100,
		EmergencyMaxFiles: 5,
	}
	recCfg := config.RecoveryConfig{
		CircuitBreakerWindow:    300 * time.Second,
		CircuitBreakerThreshold: 3,
		HistorySize:             500,
		EmergencyMinBlock:       50,
	}

	logger := loggy.NewNoopLogger()
	ext := extractor.New(extCfg, logger)
	return NewHandler(ext, recCfg, logger)
}

func TestHandleParsingErrorFullParser(t *testing.T) {
	h := testHandler(t)

	raw := "### FILE: app.py\n```python\nfrom flask import Flask\napp = Flask(__name__)\n```\n"

	resp := h.HandleParsingError(context.Background(), raw, errors.New("caller rejected result"), nil)

	assert.Equal(t, StatusRecovered, resp.Status)
	assert.Equal(t, StrategyFullParser, resp.RecoveryStrategy)
	assert.Equal(t, SeverityHigh, resp.Severity)
	assert.False(t, resp.CircuitBreaker)
	require.Len(t, resp.Files, 1)
	assert.Equal(t, "app.py", resp.Files[0].Path)

	summary := h.ErrorSummary()
	assert.Equal(t, 1, summary.TotalErrors)
	assert.Equal(t, 1, summary.Patterns["parser_llm_parsing"])
}

func TestHandleParsingErrorEmergencyExtraction(t *testing.T) {
	h := testHandler(t)

	// The opening fence is glued to prose, so the line-based scanner used
	// by every strategy sees no block at all. The handler's regex pass
	// still finds it.
	body := "x = compute_something_opaque(1, 2, 3)\ny = x * 2\nprint(y)"
	require.Greater(t, len(body), 50)
	raw := "Sure thing, here it is: ```python\n" + body + "\n``` let me know if it works\n"

	resp := h.HandleParsingError(context.Background(), raw, errors.New("no files parsed"), nil)

	require.Equal(t, StatusRecovered, resp.Status)
	assert.Equal(t, StrategyEmergencyExtraction, resp.RecoveryStrategy)
	require.Len(t, resp.Files, 1)
	assert.Equal(t, "emergency_file_1.txt", resp.Files[0].Path)
	assert.Equal(t, extractor.StatusEmergencyRecovery, resp.Files[0].Status)
	assert.Equal(t, body, resp.Files[0].Content)
}

func TestHandleParsingErrorExhausted(t *testing.T) {
	h := testHandler(t)

	resp := h.HandleParsingError(context.Background(), "", errors.New("empty response"), map[string]string{
		"agent": "backend",
	})

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, SeverityHigh, resp.Severity)
	assert.Empty(t, resp.Files)
	assert.Contains(t, resp.Message, "empty response")
}

func TestHandleParsingErrorCircuitBreaker(t *testing.T) {
	h := testHandler(t)
	ctx := context.Background()
	cause := errors.New("empty response")

	// Three unrecoverable failures within the window arm the breaker
	for i := 0; i < 3; i++ {
		resp := h.HandleParsingError(ctx, "", cause, nil)
		assert.Equal(t, StatusError, resp.Status, "call %d", i+1)
		assert.False(t, resp.CircuitBreaker, "call %d", i+1)
	}

	resp := h.HandleParsingError(ctx, "", cause, nil)

	assert.Equal(t, StatusCircuitBreaker, resp.Status)
	assert.Equal(t, SeverityCritical, resp.Severity)
	assert.True(t, resp.CircuitBreaker)
	assert.Empty(t, resp.Files)

	summary := h.ErrorSummary()
	assert.Equal(t, 4, summary.TotalErrors)
	assert.True(t, summary.BreakerOpen)
	assert.Equal(t, 1, summary.BySeverity[SeverityCritical])
}

func TestHandleGenerationError(t *testing.T) {
	h := testHandler(t)
	ctx := context.Background()

	t.Run("below threshold", func(t *testing.T) {
		resp := h.HandleGenerationError(ctx, errors.New("model timeout"), nil)

		assert.Equal(t, StatusError, resp.Status)
		assert.Equal(t, SeverityHigh, resp.Severity)
		assert.False(t, resp.CircuitBreaker)
		assert.Empty(t, resp.Files)
	})

	t.Run("breaker trips", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			h.HandleGenerationError(ctx, errors.New("model timeout"), nil)
		}

		resp := h.HandleGenerationError(ctx, errors.New("model timeout"), nil)

		assert.Equal(t, StatusCircuitBreaker, resp.Status)
		assert.Equal(t, SeverityCritical, resp.Severity)
		assert.True(t, resp.CircuitBreaker)
	})
}

func TestBreakerCountsAcrossErrorTypes(t *testing.T) {
	h := testHandler(t)
	ctx := context.Background()

	// Mixed parsing and generation failures still share one window
	h.HandleParsingError(ctx, "", errors.New("empty"), nil)
	h.HandleGenerationError(ctx, errors.New("timeout"), nil)
	h.HandleParsingError(ctx, "", errors.New("empty"), nil)

	resp := h.HandleGenerationError(ctx, errors.New("timeout"), nil)
	assert.True(t, resp.CircuitBreaker)
}

func TestBreakerWindowExpiry(t *testing.T) {
	h := testHandler(t)

	old := time.Now().Add(-10 * time.Minute)
	for i := 0; i < 5; i++ {
		h.record(ErrorReport{
			ID:        fmt.Sprintf("err-%d", i),
			Timestamp: old,
			Module:    "generation",
			ErrorType: "code_generation",
			Severity:  SeverityHigh,
		})
	}

	assert.False(t, h.breakerOpen(time.Now()))

	resp := h.HandleGenerationError(context.Background(), errors.New("timeout"), nil)
	assert.Equal(t, StatusError, resp.Status)
	assert.False(t, resp.CircuitBreaker)
}

func TestHistoryBound(t *testing.T) {
	h := testHandler(t)
	h.cfg.HistorySize = 10

	for i := 0; i < 25; i++ {
		h.record(ErrorReport{
			ID:        fmt.Sprintf("err-%d", i),
			Timestamp: time.Now(),
			Module:    "parser",
			ErrorType: "llm_parsing",
			Severity:  SeverityLow,
		})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.history, 10)
	assert.Equal(t, "err-24", h.history[len(h.history)-1].ID)
	assert.Equal(t, "err-15", h.history[0].ID)
}

func TestValidateFiles(t *testing.T) {
	h := testHandler(t)

	files := []extractor.SourceFile{
		{Path: "app.py", Content: "from flask import Flask\napp = Flask(__name__)\n"},
		{Path: "", Content: "orphaned content"},
		{Path: "notes.xyzzy", Content: "not a recognizable filename at all"},
		{Path: "tiny.py", Content: "x"},
		{Path: ".env", Content: "PORT=8080"},
	}

	result := h.ValidateFiles(files)

	require.Len(t, result.Valid, 2)
	assert.Equal(t, "app.py", result.Valid[0].Path)
	assert.Equal(t, ".env", result.Valid[1].Path)

	require.Len(t, result.Invalid, 3)
	reasons := make(map[string]string)
	for _, inv := range result.Invalid {
		reasons[inv.File.Path] = inv.Reason
	}
	assert.Contains(t, reasons[""], "path")
	assert.Contains(t, reasons["tiny.py"], "content")
	assert.Len(t, result.Errors, 3)
}

func TestErrorSummaryEmpty(t *testing.T) {
	h := testHandler(t)

	summary := h.ErrorSummary()

	assert.Equal(t, 0, summary.TotalErrors)
	assert.Equal(t, 0, summary.LastHour)
	assert.False(t, summary.BreakerOpen)
	assert.Empty(t, summary.Patterns)
}

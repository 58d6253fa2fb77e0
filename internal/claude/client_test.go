package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/codeforge/internal/config"
)

func setupTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)

	cfg := config.ClaudeConfig{
		APIKey:     "test-api-key",
		BaseURL:    server.URL,
		Model:      "claude-3-5-sonnet-20241022",
		Timeout:    5 * time.Second,
		MaxRetries: 1,
		MaxTokens:  4096,
	}

	return server, NewClient(cfg)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(config.ClaudeConfig{
		APIKey:  "key",
		BaseURL: "https://api.anthropic.com/",
	})

	assert.Equal(t, "https://api.anthropic.com", client.baseURL, "trailing slash trimmed")
	assert.Equal(t, "2023-06-01", client.apiVersion)
	assert.Equal(t, "claude-3-5-sonnet-20241022", client.defaultModel)
	assert.Equal(t, 4096, client.defaultMaxTokens)
}

func TestGenerateChat(t *testing.T) {
	server, client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-3-5-sonnet-20241022", req.Model)
		assert.Equal(t, 4096, req.MaxTokens)
		assert.False(t, req.Stream)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    "msg_01",
			"model": req.Model,
			"content": []map[string]string{
				{"type": "text", "text": "### FILE: main.py\n```python\nprint('hi')\n```"},
			},
			"stop_reason": "end_turn",
		})
	})
	defer server.Close()

	resp, err := client.GenerateChat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "generate"}},
	})

	require.NoError(t, err)
	assert.Contains(t, resp.Text(), "### FILE: main.py")
	assert.Equal(t, "end_turn", resp.StopReason)
}

func TestGenerateChatAPIError(t *testing.T) {
	server, client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"type": "error",
			"error": map[string]string{
				"type":    "authentication_error",
				"message": "invalid x-api-key",
			},
		})
	})
	defer server.Close()

	_, err := client.GenerateChat(context.Background(), ChatRequest{})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "authentication_error")
	assert.Contains(t, err.Error(), "invalid x-api-key")
}

func TestGenerateChatRetriesServerError(t *testing.T) {
	calls := 0
	server, client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "msg_02",
			"content": []map[string]string{{"type": "text", "text": "ok"}},
		})
	})
	defer server.Close()

	resp, err := client.GenerateChat(context.Background(), ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "server error should be retried")
	assert.Equal(t, "ok", resp.Text())
}

func TestGenerateChatNoRetryOnClientError(t *testing.T) {
	calls := 0
	server, client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad request"}}`))
	})
	defer server.Close()

	_, err := client.GenerateChat(context.Background(), ChatRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "4xx should not be retried")
}

func TestGenerateChatStream(t *testing.T) {
	events := []string{
		`{"type":"message_start","message":{"id":"msg_03","model":"claude-3-5-sonnet-20241022","role":"assistant"}}`,
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":"### FILE: "}}`,
		`{"type":"content_block_delta","delta":{"type":"text_delta","text":"app.py"}}`,
		`{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`,
	}

	server, client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		for _, event := range events {
			w.Write([]byte("data: " + event + "\n\n"))
		}
	})
	defer server.Close()

	ch, err := client.GenerateChatStream(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "generate"}},
	})
	require.NoError(t, err)

	var content string
	var done bool
	for resp := range ch {
		require.Empty(t, resp.ErrorMsg)
		content += resp.Message.Content
		if resp.Done {
			done = true
		}
	}

	assert.Equal(t, "### FILE: app.py", content)
	assert.True(t, done)
}

func TestChatResponseText(t *testing.T) {
	resp := &ChatResponse{
		Content: []ContentBlock{
			{Type: "thinking", Text: "let me think"},
			{Type: "text", Text: "hello "},
			{Type: "text", Text: "world"},
		},
	}
	assert.Equal(t, "hello world", resp.Text())

	fallback := &ChatResponse{Message: Message{Role: "assistant", Content: "direct"}}
	assert.Equal(t, "direct", fallback.Text())
}

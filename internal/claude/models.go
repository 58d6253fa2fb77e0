package claude

import (
	"fmt"
)

// Message represents a chat message
type Message struct {
	Role    string `json:"role"` // user, assistant, or system
	Content string `json:"content"`
}

// ChatRequest is a chat completion request to the Claude API
type ChatRequest struct {
	Model         string    `json:"model"`
	Messages      []Message `json:"messages"`
	System        string    `json:"system,omitempty"`
	MaxTokens     int       `json:"max_tokens,omitempty"`
	Temperature   *float64  `json:"temperature,omitempty"`
	TopP          *float64  `json:"top_p,omitempty"`
	TopK          *int      `json:"top_k,omitempty"`
	Stream        bool      `json:"stream,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
}

// ContentBlock is one block of content in a response. Claude responses
// can contain multiple blocks of different types.
type ContentBlock struct {
	Type string `json:"type"` // e.g. "text", "thinking"
	Text string `json:"text"`
}

// ChatResponse is a response from the messages endpoint
type ChatResponse struct {
	ID         string         `json:"id,omitempty"`
	Model      string         `json:"model,omitempty"`
	Message    Message        `json:"message,omitempty"`
	Done       bool           `json:"done,omitempty"`
	ErrorMsg   string         `json:"error,omitempty"`
	Usage      *UsageInfo     `json:"usage,omitempty"`
	Content    []ContentBlock `json:"content,omitempty"`
	StopReason string         `json:"stop_reason,omitempty"`
}

// Text concatenates all text content blocks into one string
func (r *ChatResponse) Text() string {
	if len(r.Content) == 0 {
		return r.Message.Content
	}
	var out string
	for _, block := range r.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out
}

// MessageStreamResponse is one event in a streamed response
type MessageStreamResponse struct {
	Type    string `json:"type"` // "content_block_start", "content_block_delta", "message_delta"
	Message struct {
		ID      string         `json:"id"`
		Type    string         `json:"type"`
		Role    string         `json:"role"`
		Content []ContentBlock `json:"content"`
		Model   string         `json:"model"`
	} `json:"message"`
	Delta struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Usage struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// UsageInfo contains token usage for a request
type UsageInfo struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// APIError is an error response from the Claude API
type APIError struct {
	Type         string `json:"type"`
	ErrorDetails struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorDetails.Type, e.ErrorDetails.Message)
}

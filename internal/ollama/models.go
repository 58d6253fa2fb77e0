package ollama

import (
	"time"
)

// Message is a single chat message
type Message struct {
	Role    string `json:"role"` // "user", "assistant", or "system"
	Content string `json:"content"`
}

// ChatRequest is a request to the /api/chat endpoint
type ChatRequest struct {
	Model    string          `json:"model"`
	Messages []Message       `json:"messages"`
	Format   *ResponseFormat `json:"format,omitempty"`
	Stream   bool            `json:"stream"`
	Options  *RequestOptions `json:"options,omitempty"`
}

// ChatResponse is a response from the /api/chat endpoint
type ChatResponse struct {
	Model           string    `json:"model"`
	CreatedAt       time.Time `json:"created_at"`
	Message         Message   `json:"message"`
	Done            bool      `json:"done"`
	DoneReason      string    `json:"done_reason,omitempty"`
	TotalDuration   int64     `json:"total_duration,omitempty"`
	PromptEvalCount int       `json:"prompt_eval_count,omitempty"`
	EvalCount       int       `json:"eval_count,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// ResponseFormat specifies structured output format
type ResponseFormat struct {
	Type       string                 `json:"type"` // e.g. "json"
	Properties map[string]interface{} `json:"properties,omitempty"`
	Required   []string               `json:"required,omitempty"`
}

// EmbeddingRequest is a request to the /api/embed endpoint
type EmbeddingRequest struct {
	Model    string      `json:"model"`
	Input    interface{} `json:"input"` // string or []string
	Truncate *bool       `json:"truncate,omitempty"`
}

// EmbeddingResponse is a response from the /api/embed endpoint
type EmbeddingResponse struct {
	Model           string      `json:"model"`
	Embeddings      [][]float32 `json:"embeddings"`
	TotalDuration   int64       `json:"total_duration,omitempty"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// ModelInfo describes an available model
type ModelInfo struct {
	Name       string       `json:"name"`
	ModifiedAt time.Time    `json:"modified_at"`
	Size       int64        `json:"size"`
	Digest     string       `json:"digest"`
	Details    ModelDetails `json:"details"`
}

// ModelDetails carries model metadata
type ModelDetails struct {
	Format            string   `json:"format"`
	Family            string   `json:"family"`
	Families          []string `json:"families,omitempty"`
	ParameterSize     string   `json:"parameter_size"`
	QuantizationLevel string   `json:"quantization_level"`
}

// ListModelsResponse is the response from the /api/tags endpoint
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// VersionResponse is the response from the /api/version endpoint
type VersionResponse struct {
	Version string `json:"version"`
}

// RequestOptions are optional generation parameters
type RequestOptions struct {
	// Temperature controls randomness in generation (0.0 to 1.0)
	Temperature *float64 `json:"temperature,omitempty"`

	// TopP controls diversity through nucleus sampling (0.0 to 1.0)
	TopP *float64 `json:"top_p,omitempty"`

	// TopK controls vocabulary size in sampling
	TopK *int `json:"top_k,omitempty"`

	// RepeatPenalty penalizes repetitions (1.0 = no penalty)
	RepeatPenalty *float64 `json:"repeat_penalty,omitempty"`

	// Seed for deterministic sampling
	Seed *int `json:"seed,omitempty"`

	// NumPredict is the maximum number of tokens to generate
	NumPredict *int `json:"num_predict,omitempty"`

	// NumCtx is the size of the context window
	NumCtx *int `json:"num_ctx,omitempty"`

	// Stop sequences that trigger end of generation
	Stop []string `json:"stop,omitempty"`
}

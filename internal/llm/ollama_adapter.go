package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/tildaslashalef/codeforge/internal/config"
	"github.com/tildaslashalef/codeforge/internal/ollama"
)

// ollamaClientAdapter adapts the Ollama client to the LLM Client interface
type ollamaClientAdapter struct {
	client  *ollama.Client
	config  *config.Config
	limiter *rate.Limiter
}

func newOllamaClientAdapter(client *ollama.Client, cfg *config.Config, limiter *rate.Limiter) *ollamaClientAdapter {
	return &ollamaClientAdapter{
		client:  client,
		config:  cfg,
		limiter: limiter,
	}
}

// GenerateChat implements the Client interface for Ollama
func (a *ollamaClientAdapter) GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	ollamaReq := ollama.ChatRequest{
		Model:    req.Model,
		Stream:   false,
		Messages: convertMessagesToOllama(req.System, req.Messages),
		Options:  buildOllamaOptions(req),
	}

	resp, err := a.client.GenerateChat(ctx, ollamaReq)
	if err != nil {
		return nil, fmt.Errorf("ollama chat generation failed: %w", err)
	}

	return &ChatResponse{
		Content:   resp.Message.Content,
		Model:     resp.Model,
		Completed: resp.Done,
		Error:     resp.Error,
	}, nil
}

// GenerateChatStream implements the Client interface for Ollama
func (a *ollamaClientAdapter) GenerateChatStream(ctx context.Context, req ChatRequest) (<-chan ChatResponse, error) {
	// Wait for the rate limiter before starting the stream
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	ollamaReq := ollama.ChatRequest{
		Model:    req.Model,
		Stream:   true,
		Messages: convertMessagesToOllama(req.System, req.Messages),
		Options:  buildOllamaOptions(req),
	}

	ollamaRespChan, err := a.client.GenerateChatStream(ctx, ollamaReq)
	if err != nil {
		return nil, fmt.Errorf("ollama stream generation failed: %w", err)
	}

	responseChan := make(chan ChatResponse)
	go func() {
		defer close(responseChan)
		for ollamaResp := range ollamaRespChan {
			responseChan <- ChatResponse{
				Content:   ollamaResp.Message.Content,
				Model:     ollamaResp.Model,
				Completed: ollamaResp.Done,
				Error:     ollamaResp.Error,
			}
		}
	}()

	return responseChan, nil
}

// GenerateEmbedding implements the Client interface for Ollama
func (a *ollamaClientAdapter) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) ([]float32, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := a.client.GenerateEmbedding(ctx, ollama.EmbeddingRequest{
		Model: a.config.Ollama.EmbeddingModel,
		Input: req.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embedding generation failed: %w", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return resp.Embeddings[0], nil
}

// BatchEmbeddings implements the Client interface for Ollama
func (a *ollamaClientAdapter) BatchEmbeddings(ctx context.Context, reqs []EmbeddingRequest) ([][]float32, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	ollamaReqs := make([]ollama.EmbeddingRequest, len(reqs))
	for i, req := range reqs {
		ollamaReqs[i] = ollama.EmbeddingRequest{
			Model: a.config.Ollama.EmbeddingModel,
			Input: req.Text,
		}
	}

	resps, err := a.client.BatchEmbeddings(ctx, ollamaReqs)
	if err != nil {
		return nil, fmt.Errorf("ollama batch embedding generation failed: %w", err)
	}

	embeddings := make([][]float32, len(resps))
	for i, resp := range resps {
		if resp != nil && len(resp.Embeddings) > 0 {
			embeddings[i] = resp.Embeddings[0]
		} else {
			embeddings[i] = []float32{}
		}
	}

	return embeddings, nil
}

// buildOllamaOptions translates the generic request knobs into Ollama
// request options, returning nil when nothing is set
func buildOllamaOptions(req ChatRequest) *ollama.RequestOptions {
	options := &ollama.RequestOptions{}
	set := false

	if req.MaxTokens > 0 {
		numPredict := req.MaxTokens
		options.NumPredict = &numPredict
		set = true
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		options.Temperature = &temp
		set = true
	}

	for k, v := range req.Options {
		switch k {
		case "top_p":
			if val, ok := v.(float64); ok {
				options.TopP = &val
				set = true
			}
		case "top_k":
			if val, ok := v.(int); ok {
				options.TopK = &val
				set = true
			}
		case "seed":
			if val, ok := v.(int); ok {
				options.Seed = &val
				set = true
			}
		case "num_ctx":
			if val, ok := v.(int); ok {
				options.NumCtx = &val
				set = true
			}
		case "repeat_penalty":
			if val, ok := v.(float64); ok {
				options.RepeatPenalty = &val
				set = true
			}
		case "stop":
			if val, ok := v.([]string); ok {
				options.Stop = val
				set = true
			}
		}
	}

	if !set {
		return nil
	}
	return options
}

// convertMessagesToOllama maps generic messages to Ollama messages,
// prepending the system prompt as a system-role message
func convertMessagesToOllama(system string, messages []Message) []ollama.Message {
	out := make([]ollama.Message, 0, len(messages)+1)
	if system != "" {
		out = append(out, ollama.Message{Role: "system", Content: system})
	}
	for _, msg := range messages {
		out = append(out, ollama.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return out
}
